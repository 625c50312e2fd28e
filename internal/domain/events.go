package domain

import (
	"time"

	"github.com/google/uuid"
)

// EnrollmentEvent is the message published to RabbitMQ after a purchase
// reaches a terminal status, for consumption by notification and analytics
// services.
type EnrollmentEvent struct {
	PurchaseID    uuid.UUID `json:"purchase_id"`
	UserID        string    `json:"user_id"`
	CourseID      uuid.UUID `json:"course_id"`
	Status        string    `json:"status"` // completed | failed
	ProviderEvent string    `json:"provider_event,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}
