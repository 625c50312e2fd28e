package domain

import (
	"time"

	"github.com/google/uuid"
)

// Course is the catalog entity whose roster the completion path mutates.
// EnrolledStudents is set-like and must stay mutually consistent with
// User.EnrolledCourses: a user appears in the roster iff the course appears
// in that user's enrollment list.
type Course struct {
	ID               uuid.UUID `json:"id"`
	Title            string    `json:"title"`
	PriceCents       int64     `json:"price_cents"`
	EnrolledStudents []string  `json:"enrolled_students"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}
