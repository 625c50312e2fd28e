/**
 * @description
 * This file contains the identity-sync logic: applying Clerk user lifecycle
 * webhooks (user.created / user.updated / user.deleted) to the local users
 * table. The reconciliation core depends on these records already existing
 * when a completion event arrives; it never creates them itself.
 *
 * @dependencies
 * - context, encoding/json, fmt, log: Standard Go libraries.
 * - internal/domain, internal/store: For domain models and data access.
 */

package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/learnhub/enrollment-service/internal/domain"
	"github.com/learnhub/enrollment-service/internal/store"
)

// Clerk event types handled by the identity sync.
const (
	EventUserCreated = "user.created"
	EventUserUpdated = "user.updated"
	EventUserDeleted = "user.deleted"
)

// ClerkEvent is the envelope of a Clerk webhook delivery.
type ClerkEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// IdentityService applies identity-provider events to the user store.
type IdentityService struct {
	repo store.Repository
}

// NewIdentityService creates a new identity sync service.
func NewIdentityService(repo store.Repository) *IdentityService {
	return &IdentityService{repo: repo}
}

// ProcessEvent applies one verified Clerk event. Unrecognized types are
// acknowledged without action, mirroring the payment webhook's dispatch
// policy.
func (s *IdentityService) ProcessEvent(ctx context.Context, event ClerkEvent) error {
	switch event.Type {
	case EventUserCreated, EventUserUpdated:
		var data domain.ClerkUserData
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return fmt.Errorf("failed to decode clerk user payload: %w", err)
		}
		if data.ID == "" {
			return fmt.Errorf("clerk %s event without user id", event.Type)
		}
		if event.Type == EventUserCreated {
			return s.createUser(ctx, data)
		}
		return s.updateUser(ctx, data)
	case EventUserDeleted:
		var data struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return fmt.Errorf("failed to decode clerk deletion payload: %w", err)
		}
		if data.ID == "" {
			return fmt.Errorf("clerk %s event without user id", event.Type)
		}
		return s.repo.DeleteUser(ctx, data.ID)
	default:
		log.Printf("level=info component=identity event_type=%s msg=\"unhandled clerk event acknowledged\"", event.Type)
		return nil
	}
}

func (s *IdentityService) createUser(ctx context.Context, data domain.ClerkUserData) error {
	user := &domain.User{
		ID:       data.ID,
		Email:    data.PrimaryEmail(),
		FullName: data.DisplayName(),
		ImageURL: data.ImageURL,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return fmt.Errorf("failed to create user %s: %w", user.ID, err)
	}
	log.Printf("level=info component=identity user_id=%s msg=\"user created\"", user.ID)
	return nil
}

func (s *IdentityService) updateUser(ctx context.Context, data domain.ClerkUserData) error {
	err := s.repo.UpdateUserProfile(ctx, data.ID, data.PrimaryEmail(), data.DisplayName(), data.ImageURL)
	if errors.Is(err, store.ErrUserNotFound) {
		// Clerk may deliver user.updated before the user.created event has
		// been applied; provision the record from the update payload.
		log.Printf("level=info component=identity user_id=%s msg=\"update for unknown user; creating\"", data.ID)
		return s.createUser(ctx, data)
	}
	if err != nil {
		return fmt.Errorf("failed to update user %s: %w", data.ID, err)
	}
	return nil
}
