/**
 * @description
 * This file defines the core domain models for the enrollment-service.
 * These structs represent the entities the payment reconciliation flow reads
 * and transitions: purchases, users, and courses.
 *
 * @notes
 * - Amounts are stored as `int64` in the smallest currency unit (cents) to
 *   avoid floating-point inaccuracies with monetary data.
 * - User IDs are the Clerk subject ids (e.g. "user_abc123") because users are
 *   provisioned by the identity-sync webhook, not by this service.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
)

// Purchase statuses. A purchase is created in `pending` at checkout initiation
// and only ever moves pending -> completed or pending -> failed. Terminal
// statuses are never overwritten, so replayed webhook deliveries are no-ops.
const (
	PurchaseStatusPending   = "pending"
	PurchaseStatusCompleted = "completed"
	PurchaseStatusFailed    = "failed"
)

// Purchase links a user, a course, and a payment outcome. This struct maps
// directly to the `purchases` table in the database.
type Purchase struct {
	ID          uuid.UUID `json:"id"`
	UserID      string    `json:"user_id"`
	CourseID    uuid.UUID `json:"course_id"`
	AmountCents int64     `json:"amount_cents"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// IsTerminal reports whether the purchase has reached a final status.
func (p *Purchase) IsTerminal() bool {
	return p.Status == PurchaseStatusCompleted || p.Status == PurchaseStatusFailed
}
