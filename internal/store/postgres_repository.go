/**
 * @description
 * This file provides the PostgreSQL implementation of the `Repository` interface.
 * It contains the SQL queries for the tables touched by webhook reconciliation:
 * purchases, users, and courses.
 *
 * Enrollment membership is stored as array columns (users.enrolled_courses,
 * courses.enrolled_students) and mutated with conditional array_append updates,
 * so each write is atomic on its own and idempotent under webhook redelivery.
 *
 * @dependencies
 * - context, errors, time: Standard Go libraries.
 * - github.com/jackc/pgx/v5: The PostgreSQL driver for database operations.
 * - internal/domain: Contains the domain models used for data transfer.
 */

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/learnhub/enrollment-service/internal/domain"
)

var (
	ErrPurchaseNotFound = errors.New("purchase not found")
	ErrUserNotFound     = errors.New("user not found")
	ErrCourseNotFound   = errors.New("course not found")
)

// PostgresRepository is a concrete implementation of the Repository interface for PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a new instance of PostgresRepository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// FindPurchaseByID retrieves a purchase record by its identifier.
func (r *PostgresRepository) FindPurchaseByID(ctx context.Context, purchaseID uuid.UUID) (*domain.Purchase, error) {
	var p domain.Purchase
	query := `SELECT id, user_id, course_id, amount_cents, status, created_at, updated_at FROM purchases WHERE id = $1`
	err := r.db.QueryRow(ctx, query, purchaseID).Scan(&p.ID, &p.UserID, &p.CourseID, &p.AmountCents, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrPurchaseNotFound
		}
		return nil, err
	}
	return &p, nil
}

// CompleteEnrollment applies the full completion-path write set in a single
// database transaction: the purchase status flip plus both sides of the
// enrollment relationship. Each statement carries its own guard
// (status = 'pending', NOT ... = ANY(...)), so concurrent duplicate deliveries
// cannot double-credit an enrollment or resurrect a terminal purchase.
func (r *PostgresRepository) CompleteEnrollment(ctx context.Context, purchaseID uuid.UUID, userID string, courseID uuid.UUID) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin enrollment transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		UPDATE users
		SET enrolled_courses = array_append(enrolled_courses, $2)
		WHERE id = $1 AND NOT ($2 = ANY(enrolled_courses))`,
		userID, courseID)
	if err != nil {
		return fmt.Errorf("failed to record enrollment on user: %w", err)
	}

	_, err = tx.Exec(ctx, `
		UPDATE courses
		SET enrolled_students = array_append(enrolled_students, $2), updated_at = NOW()
		WHERE id = $1 AND NOT ($2 = ANY(enrolled_students))`,
		courseID, userID)
	if err != nil {
		return fmt.Errorf("failed to record enrollment on course: %w", err)
	}

	_, err = tx.Exec(ctx, `
		UPDATE purchases
		SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status = $3`,
		purchaseID, domain.PurchaseStatusCompleted, domain.PurchaseStatusPending)
	if err != nil {
		return fmt.Errorf("failed to complete purchase: %w", err)
	}

	return tx.Commit(ctx)
}

// MarkPurchaseFailed transitions a pending purchase to failed. The status
// guard makes the call safe under redelivery: a purchase that already reached
// a terminal status is reported as not transitioned.
func (r *PostgresRepository) MarkPurchaseFailed(ctx context.Context, purchaseID uuid.UUID) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE purchases
		SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status = $3`,
		purchaseID, domain.PurchaseStatusFailed, domain.PurchaseStatusPending)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// MarkStalePendingPurchasesFailed fails every pending purchase created before
// the cutoff. Used by the scheduled sweep; checkout sessions expire on the
// provider side, so these purchases can no longer complete.
func (r *PostgresRepository) MarkStalePendingPurchasesFailed(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE purchases
		SET status = $1, updated_at = NOW()
		WHERE status = $2 AND created_at < $3`,
		domain.PurchaseStatusFailed, domain.PurchaseStatusPending, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// FindUserByID retrieves a user by their Clerk subject id.
func (r *PostgresRepository) FindUserByID(ctx context.Context, userID string) (*domain.User, error) {
	var user domain.User
	query := `SELECT id, email, full_name, image_url, enrolled_courses FROM users WHERE id = $1`
	err := r.db.QueryRow(ctx, query, userID).Scan(&user.ID, &user.Email, &user.FullName, &user.ImageURL, &user.EnrolledCourses)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// FindCourseByID retrieves a course by its id.
func (r *PostgresRepository) FindCourseByID(ctx context.Context, courseID uuid.UUID) (*domain.Course, error) {
	var course domain.Course
	query := `SELECT id, title, price_cents, enrolled_students, created_at, updated_at FROM courses WHERE id = $1`
	err := r.db.QueryRow(ctx, query, courseID).Scan(&course.ID, &course.Title, &course.PriceCents, &course.EnrolledStudents, &course.CreatedAt, &course.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}
	return &course, nil
}

// FindEnrolledCourses returns the courses a user is enrolled in, newest first.
func (r *PostgresRepository) FindEnrolledCourses(ctx context.Context, userID string) ([]domain.Course, error) {
	query := `
		SELECT c.id, c.title, c.price_cents, c.enrolled_students, c.created_at, c.updated_at
		FROM courses c
		JOIN users u ON c.id = ANY(u.enrolled_courses)
		WHERE u.id = $1
		ORDER BY c.created_at DESC`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	courses := make([]domain.Course, 0)
	for rows.Next() {
		var course domain.Course
		if err := rows.Scan(&course.ID, &course.Title, &course.PriceCents, &course.EnrolledStudents, &course.CreatedAt, &course.UpdatedAt); err != nil {
			return nil, err
		}
		courses = append(courses, course)
	}
	return courses, rows.Err()
}

// CreateUser inserts a user record from a user.created identity event.
// ON CONFLICT keeps the operation idempotent: Clerk redelivers webhooks.
func (r *PostgresRepository) CreateUser(ctx context.Context, user *domain.User) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO users (id, email, full_name, image_url, enrolled_courses)
		VALUES ($1, $2, $3, $4, '{}')
		ON CONFLICT (id) DO UPDATE
		SET email = EXCLUDED.email, full_name = EXCLUDED.full_name, image_url = EXCLUDED.image_url`,
		user.ID, user.Email, user.FullName, user.ImageURL)
	return err
}

// UpdateUserProfile applies a user.updated identity event.
func (r *PostgresRepository) UpdateUserProfile(ctx context.Context, userID, email, fullName, imageURL string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE users SET email = $2, full_name = $3, image_url = $4 WHERE id = $1`,
		userID, email, fullName, imageURL)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// DeleteUser removes a user record following a user.deleted identity event.
// Deleting an already-deleted user is not an error.
func (r *PostgresRepository) DeleteUser(ctx context.Context, userID string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, userID)
	return err
}
