package app

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/learnhub/enrollment-service/internal/domain"
	"github.com/learnhub/enrollment-service/internal/store"
)

type identityRepoStub struct {
	store.Repository

	created      *domain.User
	updatedID    string
	updatedEmail string
	updatedName  string
	updateErr    error
	deletedID    string
	createCalled int
	updateCalled int
	deleteCalled int
}

func (s *identityRepoStub) CreateUser(ctx context.Context, user *domain.User) error {
	s.createCalled++
	s.created = user
	return nil
}

func (s *identityRepoStub) UpdateUserProfile(ctx context.Context, userID, email, fullName, imageURL string) error {
	s.updateCalled++
	s.updatedID = userID
	s.updatedEmail = email
	s.updatedName = fullName
	return s.updateErr
}

func (s *identityRepoStub) DeleteUser(ctx context.Context, userID string) error {
	s.deleteCalled++
	s.deletedID = userID
	return nil
}

func clerkEvent(eventType, data string) ClerkEvent {
	return ClerkEvent{Type: eventType, Data: json.RawMessage(data)}
}

func TestIdentityProcessEvent_UserCreated(t *testing.T) {
	repo := &identityRepoStub{}
	service := NewIdentityService(repo)

	event := clerkEvent(EventUserCreated, `{
		"id": "user_abc123",
		"first_name": "Ada",
		"last_name": "Lovelace",
		"image_url": "https://img.clerk.com/ada.png",
		"email_addresses": [{"email_address": "ada@example.com"}]
	}`)

	if err := service.ProcessEvent(context.Background(), event); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if repo.created == nil {
		t.Fatal("expected a user to be created")
	}
	if repo.created.ID != "user_abc123" {
		t.Errorf("expected clerk id preserved, got %q", repo.created.ID)
	}
	if repo.created.Email != "ada@example.com" {
		t.Errorf("expected primary email, got %q", repo.created.Email)
	}
	if repo.created.FullName != "Ada Lovelace" {
		t.Errorf("expected joined name, got %q", repo.created.FullName)
	}
}

func TestIdentityProcessEvent_UserUpdated(t *testing.T) {
	repo := &identityRepoStub{}
	service := NewIdentityService(repo)

	event := clerkEvent(EventUserUpdated, `{
		"id": "user_abc123",
		"first_name": "Ada",
		"last_name": "Byron",
		"email_addresses": [{"email_address": "ada@new.example.com"}]
	}`)

	if err := service.ProcessEvent(context.Background(), event); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if repo.updateCalled != 1 {
		t.Fatalf("expected one profile update, got %d", repo.updateCalled)
	}
	if repo.updatedID != "user_abc123" || repo.updatedEmail != "ada@new.example.com" || repo.updatedName != "Ada Byron" {
		t.Errorf("unexpected update args: id=%q email=%q name=%q", repo.updatedID, repo.updatedEmail, repo.updatedName)
	}
}

func TestIdentityProcessEvent_UpdateForUnknownUserCreates(t *testing.T) {
	repo := &identityRepoStub{updateErr: store.ErrUserNotFound}
	service := NewIdentityService(repo)

	event := clerkEvent(EventUserUpdated, `{
		"id": "user_late_sync",
		"first_name": "Early",
		"last_name": "Update",
		"email_addresses": [{"email_address": "early@example.com"}]
	}`)

	if err := service.ProcessEvent(context.Background(), event); err != nil {
		t.Fatalf("expected update for an unknown user to provision it, got %v", err)
	}
	if repo.createCalled != 1 {
		t.Fatalf("expected fallback create, got %d calls", repo.createCalled)
	}
	if repo.created == nil || repo.created.ID != "user_late_sync" || repo.created.Email != "early@example.com" {
		t.Fatalf("unexpected provisioned user: %+v", repo.created)
	}
}

func TestIdentityProcessEvent_UserDeleted(t *testing.T) {
	repo := &identityRepoStub{}
	service := NewIdentityService(repo)

	event := clerkEvent(EventUserDeleted, `{"id": "user_gone"}`)

	if err := service.ProcessEvent(context.Background(), event); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if repo.deletedID != "user_gone" {
		t.Errorf("expected deletion of user_gone, got %q", repo.deletedID)
	}
}

func TestIdentityProcessEvent_MissingUserID(t *testing.T) {
	repo := &identityRepoStub{}
	service := NewIdentityService(repo)

	if err := service.ProcessEvent(context.Background(), clerkEvent(EventUserCreated, `{}`)); err == nil {
		t.Fatal("expected error for created event without user id")
	}
	if err := service.ProcessEvent(context.Background(), clerkEvent(EventUserDeleted, `{}`)); err == nil {
		t.Fatal("expected error for deleted event without user id")
	}
	if repo.createCalled != 0 || repo.deleteCalled != 0 {
		t.Fatal("expected no repository calls for events without a user id")
	}
}

func TestIdentityProcessEvent_UnrecognizedTypeIsAcknowledged(t *testing.T) {
	repo := &identityRepoStub{}
	service := NewIdentityService(repo)

	event := clerkEvent("session.created", `{"id": "sess_1"}`)
	if err := service.ProcessEvent(context.Background(), event); err != nil {
		t.Fatalf("expected unrecognized clerk type to be acknowledged, got %v", err)
	}
	if repo.createCalled+repo.updateCalled+repo.deleteCalled != 0 {
		t.Fatal("expected no repository calls for an unrecognized event type")
	}
}
