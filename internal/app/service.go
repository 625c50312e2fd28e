/**
 * @description
 * This file contains the core reconciliation logic for the enrollment-service.
 * The `Service` struct drives the purchase state machine off verified Stripe
 * webhook events, coordinating the database repository, the Stripe API client,
 * and the message broker.
 *
 * Key features:
 * - Dispatches verified events by type to the completion or failure handler.
 * - Completion path: resolves Purchase/User/Course, records the enrollment on
 *   both sides idempotently, and flips the purchase to `completed` in one
 *   database transaction.
 * - Failure path: resolves the purchase indirectly through Stripe's checkout
 *   session listing keyed by payment intent, then flips it to `failed`.
 * - Publishes purchase lifecycle events to RabbitMQ for downstream consumers.
 *
 * @dependencies
 * - context, errors, fmt, log, time: Standard Go libraries.
 * - github.com/google/uuid: For purchase identifiers.
 * - github.com/stripe/stripe-go/v82: Event and session payload types.
 * - internal/domain, internal/store: For domain models and data access.
 * - pkg/rabbitmq: For event publishing.
 */

package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/learnhub/enrollment-service/internal/domain"
	"github.com/learnhub/enrollment-service/internal/store"
	"github.com/learnhub/enrollment-service/pkg/rabbitmq"
	stripe "github.com/stripe/stripe-go/v82"
)

const (
	// EventCheckoutCompleted and EventPaymentFailed are the two Stripe event
	// types the reconciliation flow acts on. Everything else is acknowledged
	// without processing.
	EventCheckoutCompleted = "checkout.session.completed"
	EventPaymentFailed     = "payment_intent.payment_failed"

	enrollmentExchange = "learnhub.events"
)

// ErrMissingPurchaseRef is returned when a completion event carries no usable
// purchaseId in its session metadata. The completion path treats this as
// fatal for the event; the failure path treats the same condition as a
// silent no-op.
var ErrMissingPurchaseRef = errors.New("missing purchaseId in session metadata")

// PaymentProvider is the outbound surface of the payment provider the
// reconciliation flow depends on. The Stripe-backed implementation lives in
// pkg/stripeclient; tests substitute a fake.
type PaymentProvider interface {
	SessionsByPaymentIntent(ctx context.Context, paymentIntentID string) ([]*stripe.CheckoutSession, error)
}

// Service provides the webhook reconciliation logic.
type Service struct {
	repo          store.Repository
	provider      PaymentProvider
	eventProducer rabbitmq.Publisher
}

// NewService creates a new enrollment service instance.
func NewService(repo store.Repository, provider PaymentProvider, producer rabbitmq.Publisher) *Service {
	return &Service{
		repo:          repo,
		provider:      provider,
		eventProducer: producer,
	}
}

// ProcessEvent dispatches a verified Stripe event to the matching handler.
// Completion-path errors propagate to the HTTP boundary for status mapping.
// Failure-path and unrecognized events never error: the provider gets an
// acknowledgment and any internal fault is visible only in the logs, which
// matches Stripe's redelivery semantics (a non-2xx would trigger retries of
// an event we cannot act on).
func (s *Service) ProcessEvent(ctx context.Context, event stripe.Event) error {
	switch string(event.Type) {
	case EventCheckoutCompleted:
		return s.HandleCheckoutCompleted(ctx, event)
	case EventPaymentFailed:
		if err := s.HandlePaymentFailed(ctx, event); err != nil {
			log.Printf("level=error component=app event_type=%s event_id=%s msg=\"failure path error; acknowledging anyway\" err=%v", event.Type, event.ID, err)
		}
		return nil
	default:
		log.Printf("level=info component=app event_type=%s event_id=%s msg=\"unhandled event type acknowledged\"", event.Type, event.ID)
		return nil
	}
}

// HandleCheckoutCompleted processes a checkout.session.completed event:
// it loads the purchase referenced by the session metadata, links the
// enrollment on both the user and the course, and completes the purchase.
// Redelivered events find the guards already satisfied and change nothing.
func (s *Service) HandleCheckoutCompleted(ctx context.Context, event stripe.Event) error {
	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return fmt.Errorf("failed to decode checkout session payload: %w", err)
	}

	purchaseID, err := purchaseIDFromMetadata(session.Metadata)
	if err != nil {
		return err
	}

	purchase, err := s.repo.FindPurchaseByID(ctx, purchaseID)
	if err != nil {
		return fmt.Errorf("failed to load purchase %s: %w", purchaseID, err)
	}

	// Short-circuit before the entity loads: a redelivery for an
	// already-terminal purchase must no-op even if the user or course has
	// since been deleted.
	if purchase.IsTerminal() {
		log.Printf("level=info component=app event_id=%s purchase_id=%s status=%s msg=\"duplicate completion delivery ignored\"", event.ID, purchase.ID, purchase.Status)
		return nil
	}

	user, err := s.repo.FindUserByID(ctx, purchase.UserID)
	if err != nil {
		return fmt.Errorf("failed to load user %s: %w", purchase.UserID, err)
	}
	course, err := s.repo.FindCourseByID(ctx, purchase.CourseID)
	if err != nil {
		return fmt.Errorf("failed to load course %s: %w", purchase.CourseID, err)
	}

	if err := s.repo.CompleteEnrollment(ctx, purchase.ID, user.ID, course.ID); err != nil {
		return fmt.Errorf("failed to persist enrollment for purchase %s: %w", purchase.ID, err)
	}

	// Keep the loaded entities consistent with what was just written.
	domain.LinkEnrollment(user, course)
	purchase.Status = domain.PurchaseStatusCompleted

	log.Printf("level=info component=app event_id=%s purchase_id=%s user_id=%s course_id=%s msg=\"enrollment completed\"", event.ID, purchase.ID, user.ID, course.ID)
	s.publishEnrollmentEvent(ctx, purchase, string(event.Type), "purchase.completed")
	return nil
}

// HandlePaymentFailed processes a payment_intent.payment_failed event. The
// event carries no purchase reference directly; the purchase is resolved by
// listing the provider's checkout sessions for the payment intent and reading
// the first session's metadata. A session without a purchaseId, or a purchase
// that no longer exists, is tolerated silently.
func (s *Service) HandlePaymentFailed(ctx context.Context, event stripe.Event) error {
	var intent stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		return fmt.Errorf("failed to decode payment intent payload: %w", err)
	}

	sessions, err := s.provider.SessionsByPaymentIntent(ctx, intent.ID)
	if err != nil {
		return fmt.Errorf("session lookup for intent %s failed: %w", intent.ID, err)
	}
	if len(sessions) == 0 {
		log.Printf("level=warn component=app event_id=%s payment_intent=%s msg=\"no checkout session for failed intent\"", event.ID, intent.ID)
		return nil
	}
	if len(sessions) > 1 {
		log.Printf("level=warn component=app event_id=%s payment_intent=%s session_count=%d msg=\"multiple sessions for intent; honoring first\"", event.ID, intent.ID, len(sessions))
	}

	purchaseID, err := purchaseIDFromMetadata(sessions[0].Metadata)
	if err != nil {
		// Open question from reconciliation review: a session without a
		// purchase reference is dropped silently today. Logged at warn so
		// these are at least countable.
		log.Printf("level=warn component=app event_id=%s payment_intent=%s session_id=%s msg=\"session has no usable purchaseId; dropping\" err=%v", event.ID, intent.ID, sessions[0].ID, err)
		return nil
	}

	transitioned, err := s.repo.MarkPurchaseFailed(ctx, purchaseID)
	if err != nil {
		if errors.Is(err, store.ErrPurchaseNotFound) {
			return nil
		}
		return fmt.Errorf("failed to mark purchase %s failed: %w", purchaseID, err)
	}
	if !transitioned {
		log.Printf("level=info component=app event_id=%s purchase_id=%s msg=\"purchase not pending; failure event ignored\"", event.ID, purchaseID)
		return nil
	}

	log.Printf("level=info component=app event_id=%s purchase_id=%s payment_intent=%s msg=\"purchase marked failed\"", event.ID, purchaseID, intent.ID)

	if purchase, findErr := s.repo.FindPurchaseByID(ctx, purchaseID); findErr == nil {
		s.publishEnrollmentEvent(ctx, purchase, string(event.Type), "purchase.failed")
	}
	return nil
}

// EnrolledCourses returns the courses the given user is enrolled in.
func (s *Service) EnrolledCourses(ctx context.Context, userID string) ([]domain.Course, error) {
	return s.repo.FindEnrolledCourses(ctx, userID)
}

// PurchaseByID exposes purchase lookup for the internal reconciliation API.
func (s *Service) PurchaseByID(ctx context.Context, purchaseID uuid.UUID) (*domain.Purchase, error) {
	return s.repo.FindPurchaseByID(ctx, purchaseID)
}

func (s *Service) publishEnrollmentEvent(ctx context.Context, purchase *domain.Purchase, providerEvent, routingKey string) {
	if s.eventProducer == nil {
		return
	}
	evt := domain.EnrollmentEvent{
		PurchaseID:    purchase.ID,
		UserID:        purchase.UserID,
		CourseID:      purchase.CourseID,
		Status:        purchase.Status,
		ProviderEvent: providerEvent,
		OccurredAt:    time.Now().UTC(),
	}
	if err := s.eventProducer.Publish(ctx, enrollmentExchange, routingKey, evt); err != nil {
		log.Printf("level=warn component=app purchase_id=%s routing_key=%s msg=\"event publish failed\" err=%v", purchase.ID, routingKey, err)
	}
}

// purchaseIDFromMetadata extracts and parses the purchaseId a checkout
// session was created with. Absent or malformed values both surface as
// ErrMissingPurchaseRef; the callers decide whether that is fatal.
func purchaseIDFromMetadata(metadata map[string]string) (uuid.UUID, error) {
	raw, ok := metadata["purchaseId"]
	if !ok || raw == "" {
		return uuid.Nil, ErrMissingPurchaseRef
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %q is not a valid purchase id", ErrMissingPurchaseRef, raw)
	}
	return id, nil
}
