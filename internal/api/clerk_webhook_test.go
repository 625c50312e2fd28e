package api

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/learnhub/enrollment-service/internal/app"
	"github.com/learnhub/enrollment-service/internal/domain"
	"github.com/learnhub/enrollment-service/internal/store"
)

type clerkRepoStub struct {
	store.Repository

	created   *domain.User
	deletedID string
}

func (s *clerkRepoStub) CreateUser(ctx context.Context, user *domain.User) error {
	s.created = user
	return nil
}

func (s *clerkRepoStub) DeleteUser(ctx context.Context, userID string) error {
	s.deletedID = userID
	return nil
}

const testClerkSecret = "whsec_dGVzdC1zaWduaW5nLWtleS0wMDE=" // base64("test-signing-key-001")

// signSvix produces a "v1,<sig>" header value the way the identity provider
// signs deliveries: HMAC-SHA256 over "msgID.timestamp.payload".
func signSvix(t *testing.T, secret, msgID, timestamp string, payload []byte) string {
	t.Helper()
	key, err := base64.StdEncoding.DecodeString(secret[len("whsec_"):])
	if err != nil {
		t.Fatalf("bad test secret: %v", err)
	}
	mac := hmac.New(sha256.New, key)
	fmt.Fprintf(mac, "%s.%s.", msgID, timestamp)
	mac.Write(payload)
	return "v1," + base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func postClerkWebhook(t *testing.T, h *ClerkWebhookHandlers, payload []byte, timestamp, signature string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/clerk", bytes.NewBuffer(payload))
	req.Header.Set("svix-id", "msg_test_1")
	req.Header.Set("svix-timestamp", timestamp)
	req.Header.Set("svix-signature", signature)
	rr := httptest.NewRecorder()
	h.ClerkWebhookHandler(rr, req)
	return rr
}

func TestClerkWebhookHandler_CreatesUser(t *testing.T) {
	repo := &clerkRepoStub{}
	handlers := NewClerkWebhookHandlers(app.NewIdentityService(repo), testClerkSecret)

	now := time.Now()
	handlers.now = func() time.Time { return now }

	payload := []byte(`{
		"type": "user.created",
		"data": {
			"id": "user_new1",
			"first_name": "Grace",
			"last_name": "Hopper",
			"email_addresses": [{"email_address": "grace@example.com"}]
		}
	}`)
	timestamp := strconv.FormatInt(now.Unix(), 10)
	signature := signSvix(t, testClerkSecret, "msg_test_1", timestamp, payload)

	rr := postClerkWebhook(t, handlers, payload, timestamp, signature)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if repo.created == nil || repo.created.ID != "user_new1" {
		t.Fatalf("expected user_new1 created, got %+v", repo.created)
	}
	if repo.created.Email != "grace@example.com" {
		t.Errorf("expected primary email synced, got %q", repo.created.Email)
	}
}

func TestClerkWebhookHandler_DeletesUser(t *testing.T) {
	repo := &clerkRepoStub{}
	handlers := NewClerkWebhookHandlers(app.NewIdentityService(repo), testClerkSecret)

	now := time.Now()
	handlers.now = func() time.Time { return now }

	payload := []byte(`{"type": "user.deleted", "data": {"id": "user_gone"}}`)
	timestamp := strconv.FormatInt(now.Unix(), 10)
	signature := signSvix(t, testClerkSecret, "msg_test_1", timestamp, payload)

	rr := postClerkWebhook(t, handlers, payload, timestamp, signature)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if repo.deletedID != "user_gone" {
		t.Fatalf("expected user_gone deleted, got %q", repo.deletedID)
	}
}

func TestClerkWebhookHandler_RejectsBadSignature(t *testing.T) {
	repo := &clerkRepoStub{}
	handlers := NewClerkWebhookHandlers(app.NewIdentityService(repo), testClerkSecret)

	now := time.Now()
	handlers.now = func() time.Time { return now }

	payload := []byte(`{"type": "user.created", "data": {"id": "user_evil"}}`)
	timestamp := strconv.FormatInt(now.Unix(), 10)

	rr := postClerkWebhook(t, handlers, payload, timestamp, "v1,bm90LWEtcmVhbC1zaWduYXR1cmU=")

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for a bad signature, got %d", rr.Code)
	}
	if repo.created != nil {
		t.Fatal("expected no user created from a rejected delivery")
	}
}

func TestClerkWebhookHandler_RejectsStaleTimestamp(t *testing.T) {
	repo := &clerkRepoStub{}
	handlers := NewClerkWebhookHandlers(app.NewIdentityService(repo), testClerkSecret)

	now := time.Now()
	handlers.now = func() time.Time { return now }

	payload := []byte(`{"type": "user.created", "data": {"id": "user_replay"}}`)
	stale := strconv.FormatInt(now.Add(-10*time.Minute).Unix(), 10)
	signature := signSvix(t, testClerkSecret, "msg_test_1", stale, payload)

	rr := postClerkWebhook(t, handlers, payload, stale, signature)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for a stale timestamp, got %d", rr.Code)
	}
}

func TestClerkWebhookHandler_RejectsMissingHeaders(t *testing.T) {
	repo := &clerkRepoStub{}
	handlers := NewClerkWebhookHandlers(app.NewIdentityService(repo), testClerkSecret)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/clerk", bytes.NewBufferString(`{}`))
	rr := httptest.NewRecorder()
	handlers.ClerkWebhookHandler(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without svix headers, got %d", rr.Code)
	}
}
