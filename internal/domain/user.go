package domain

import (
	"strings"

	"github.com/google/uuid"
)

// User is the learner profile mirrored from the identity provider by the
// identity-sync webhook. EnrolledCourses is set-like: a course id appears at
// most once regardless of how many webhook deliveries touched it.
type User struct {
	ID              string      `json:"id"` // Clerk subject id, e.g. "user_abc123"
	Email           string      `json:"email"`
	FullName        string      `json:"full_name"`
	ImageURL        string      `json:"image_url"`
	EnrolledCourses []uuid.UUID `json:"enrolled_courses"`
}

// ClerkUserData is the `data` payload of Clerk user.* webhook events.
type ClerkUserData struct {
	ID             string `json:"id"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	ImageURL       string `json:"image_url"`
	EmailAddresses []struct {
		EmailAddress string `json:"email_address"`
	} `json:"email_addresses"`
}

// PrimaryEmail returns the first email address Clerk reported, or "".
func (d ClerkUserData) PrimaryEmail() string {
	if len(d.EmailAddresses) == 0 {
		return ""
	}
	return d.EmailAddresses[0].EmailAddress
}

// DisplayName joins the first and last name, tolerating either being empty.
func (d ClerkUserData) DisplayName() string {
	return strings.TrimSpace(d.FirstName + " " + d.LastName)
}
