/**
 * @description
 * This file contains the HTTP handler for Clerk identity webhooks and the
 * svix-scheme signature verification they are protected by. Clerk signs each
 * delivery with HMAC-SHA256 over "{msg_id}.{timestamp}.{payload}" using a
 * base64 secret prefixed with "whsec_"; the signature header carries one or
 * more space-separated "v1,<base64 mac>" entries.
 *
 * @dependencies
 * - crypto/hmac, crypto/sha256, encoding/base64: Signature validation.
 * - encoding/json, io, log, net/http, time: Standard Go libraries.
 * - internal/app: The identity-sync service.
 */

package api

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/learnhub/enrollment-service/internal/app"
)

// clerkTimestampTolerance bounds how old a signed delivery may be before it
// is rejected as a possible replay.
const clerkTimestampTolerance = 5 * time.Minute

// ClerkWebhookHandlers holds the dependencies of the identity webhook endpoint.
type ClerkWebhookHandlers struct {
	identity *app.IdentityService
	secret   string
	now      func() time.Time
}

// NewClerkWebhookHandlers creates a new handler for the Clerk webhook endpoint.
func NewClerkWebhookHandlers(identity *app.IdentityService, secret string) *ClerkWebhookHandlers {
	return &ClerkWebhookHandlers{identity: identity, secret: secret, now: time.Now}
}

// ClerkWebhookHandler handles POST /webhooks/clerk.
func (h *ClerkWebhookHandlers) ClerkWebhookHandler(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Cannot read request body", http.StatusBadRequest)
		return
	}

	err = verifySvixSignature(
		h.secret,
		r.Header.Get("svix-id"),
		r.Header.Get("svix-timestamp"),
		r.Header.Get("svix-signature"),
		body,
		h.now(),
	)
	if err != nil {
		log.Printf("level=warn component=api endpoint=clerk_webhook outcome=reject reason=signature_invalid err=%v", err)
		http.Error(w, "Invalid signature", http.StatusUnauthorized)
		return
	}

	var event app.ClerkEvent
	if err := json.Unmarshal(body, &event); err != nil {
		http.Error(w, "Invalid JSON payload", http.StatusBadRequest)
		return
	}

	if err := h.identity.ProcessEvent(r.Context(), event); err != nil {
		log.Printf("level=error component=api endpoint=clerk_webhook outcome=failed event_type=%s err=%v", event.Type, err)
		h.writeJSON(w, http.StatusInternalServerError, map[string]interface{}{"success": false, "message": err.Error()})
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{})
}

func (h *ClerkWebhookHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// verifySvixSignature checks one webhook delivery against the signing secret.
func verifySvixSignature(secret, msgID, timestamp, signature string, payload []byte, now time.Time) error {
	if msgID == "" || timestamp == "" || signature == "" {
		return errors.New("missing svix headers")
	}

	key, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(secret, "whsec_"))
	if err != nil {
		return fmt.Errorf("malformed signing secret: %w", err)
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return fmt.Errorf("malformed timestamp: %w", err)
	}
	drift := now.Sub(time.Unix(ts, 0))
	if drift > clerkTimestampTolerance || drift < -clerkTimestampTolerance {
		return errors.New("timestamp outside tolerance")
	}

	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(msgID))
	mac.Write([]byte("."))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(payload)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	for _, part := range strings.Fields(signature) {
		candidate, ok := strings.CutPrefix(part, "v1,")
		if ok && hmac.Equal([]byte(candidate), []byte(expected)) {
			return nil
		}
	}
	return errors.New("no matching signature version")
}
