/**
 * @description
 * This file defines the `Repository` interface, which specifies the contract for all
 * data access operations required by the enrollment-service. By defining an interface,
 * we decouple the reconciliation logic from the specific database implementation
 * (PostgreSQL), making the code more modular and easier to test.
 *
 * @dependencies
 * - context, time: Standard Go libraries.
 * - github.com/google/uuid: For purchase and course identifiers.
 * - internal/domain: For the service's domain models.
 */

package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/learnhub/enrollment-service/internal/domain"
)

// Repository defines the set of methods for interacting with the database.
type Repository interface {
	// Purchase methods
	FindPurchaseByID(ctx context.Context, purchaseID uuid.UUID) (*domain.Purchase, error)
	// CompleteEnrollment flips the purchase to `completed` and records the
	// user/course enrollment on both sides, all inside one transaction. Every
	// write is conditional, so replayed deliveries are harmless no-ops.
	CompleteEnrollment(ctx context.Context, purchaseID uuid.UUID, userID string, courseID uuid.UUID) error
	// MarkPurchaseFailed flips a pending purchase to `failed`. It reports
	// whether a row actually transitioned; terminal purchases are left untouched.
	MarkPurchaseFailed(ctx context.Context, purchaseID uuid.UUID) (bool, error)
	MarkStalePendingPurchasesFailed(ctx context.Context, cutoff time.Time) (int64, error)

	// User and course methods
	FindUserByID(ctx context.Context, userID string) (*domain.User, error)
	FindCourseByID(ctx context.Context, courseID uuid.UUID) (*domain.Course, error)
	FindEnrolledCourses(ctx context.Context, userID string) ([]domain.Course, error)

	// Identity-sync methods
	CreateUser(ctx context.Context, user *domain.User) error
	UpdateUserProfile(ctx context.Context, userID, email, fullName, imageURL string) error
	DeleteUser(ctx context.Context, userID string) error
}
