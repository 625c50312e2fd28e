/**
 * @description
 * This file contains the HTTP handler for processing incoming webhooks from Stripe.
 * It is the entry point for the payment reconciliation flow.
 *
 * Key features:
 * - Security: signature verification over the exact raw request bytes is the
 *   authentication mechanism for this endpoint. Verification failure rejects
 *   the request before any event data is touched.
 * - Dedupe: already-seen event ids are acknowledged without reprocessing.
 * - Status mapping: completion-path errors become 400/404/500 responses;
 *   everything else is acknowledged with {"received":true} so Stripe does
 *   not retry events we have already absorbed.
 *
 * @dependencies
 * - encoding/json, errors, io, log, net/http: Standard Go libraries.
 * - github.com/stripe/stripe-go/v82: The parsed event type.
 * - internal/app, internal/store: Dispatch logic and sentinel errors.
 */

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/learnhub/enrollment-service/internal/app"
	"github.com/learnhub/enrollment-service/internal/store"
	stripe "github.com/stripe/stripe-go/v82"
)

// Stripe recommends bounding webhook bodies; 64KiB is far above any event we handle.
const stripeWebhookBodyLimit = 65536

// StripeEventVerifier validates a webhook delivery against the signing secret
// and returns the parsed event. Implemented by pkg/stripeclient.
type StripeEventVerifier interface {
	VerifyWebhook(payload []byte, sigHeader string) (stripe.Event, error)
}

// WebhookHandlers holds the dependencies of the payment webhook endpoint.
type WebhookHandlers struct {
	service  *app.Service
	verifier StripeEventVerifier
	deduper  app.EventDeduper
}

// NewWebhookHandlers creates a new instance of WebhookHandlers. deduper may
// be nil when Redis is not configured; the endpoint then relies solely on
// the store-level idempotency guards.
func NewWebhookHandlers(service *app.Service, verifier StripeEventVerifier, deduper app.EventDeduper) *WebhookHandlers {
	return &WebhookHandlers{service: service, verifier: verifier, deduper: deduper}
}

// StripeWebhookHandler handles POST /webhooks/stripe.
func (h *WebhookHandlers) StripeWebhookHandler(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, stripeWebhookBodyLimit))
	if err != nil {
		log.Printf("level=warn component=api endpoint=stripe_webhook outcome=reject reason=body_read_failed err=%v", err)
		http.Error(w, "Cannot read request body", http.StatusBadRequest)
		return
	}

	// Verification must run over the raw bytes exactly as received.
	event, err := h.verifier.VerifyWebhook(body, r.Header.Get("Stripe-Signature"))
	if err != nil {
		log.Printf("level=warn component=api endpoint=stripe_webhook outcome=reject reason=signature_invalid err=%v", err)
		http.Error(w, fmt.Sprintf("Webhook Error: %v", err), http.StatusBadRequest)
		return
	}

	if h.deduper != nil {
		first, dedupeErr := h.deduper.FirstDelivery(r.Context(), event.ID)
		if dedupeErr != nil {
			log.Printf("level=warn component=api endpoint=stripe_webhook msg=\"dedupe check failed; processing anyway\" event_id=%s err=%v", event.ID, dedupeErr)
		}
		if !first {
			log.Printf("level=info component=api endpoint=stripe_webhook outcome=duplicate event_id=%s event_type=%s", event.ID, event.Type)
			h.writeReceived(w)
			return
		}
	}

	if err := h.service.ProcessEvent(r.Context(), event); err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, app.ErrMissingPurchaseRef):
			status = http.StatusBadRequest
		case errors.Is(err, store.ErrPurchaseNotFound),
			errors.Is(err, store.ErrUserNotFound),
			errors.Is(err, store.ErrCourseNotFound):
			status = http.StatusNotFound
		}
		// Give the claim back so the provider's redelivery of this event id
		// is processed again instead of short-circuiting as a duplicate.
		if h.deduper != nil {
			if relErr := h.deduper.Release(r.Context(), event.ID); relErr != nil {
				log.Printf("level=warn component=api endpoint=stripe_webhook msg=\"dedupe release failed\" event_id=%s err=%v", event.ID, relErr)
			}
		}
		log.Printf("level=error component=api endpoint=stripe_webhook outcome=failed event_id=%s event_type=%s status=%d err=%v", event.ID, event.Type, status, err)
		h.writeJSON(w, status, map[string]interface{}{"success": false, "message": err.Error()})
		return
	}

	h.writeReceived(w)
}

func (h *WebhookHandlers) writeReceived(w http.ResponseWriter) {
	h.writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}

// writeJSON is a helper for writing JSON responses.
func (h *WebhookHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}
