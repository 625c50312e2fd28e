/**
 * @description
 * This package provides a thin client over the Stripe SDK for the two
 * provider-facing capabilities the enrollment-service needs: verifying
 * webhook signatures and listing checkout sessions by payment intent.
 * The client is constructed with its credentials and passed in explicitly,
 * so tests can substitute a fake provider.
 *
 * @dependencies
 * - context: Standard Go library.
 * - github.com/stripe/stripe-go/v82: The Stripe SDK, its API client, and webhook verification.
 */
package stripeclient

import (
	"context"

	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
	"github.com/stripe/stripe-go/v82/webhook"
)

// Client wraps the Stripe API client together with the webhook signing secret.
type Client struct {
	api           *client.API
	webhookSecret string
}

// NewClient creates a new Stripe client.
func NewClient(apiKey, webhookSecret string) *Client {
	api := &client.API{}
	api.Init(apiKey, nil)
	return &Client{
		api:           api,
		webhookSecret: webhookSecret,
	}
}

// VerifyWebhook checks the Stripe-Signature header against the exact raw
// request bytes and returns the parsed event. The payload must be the bytes
// as received on the wire; re-serializing a decoded body breaks verification.
func (c *Client) VerifyWebhook(payload []byte, sigHeader string) (stripe.Event, error) {
	return webhook.ConstructEvent(payload, sigHeader, c.webhookSecret)
}

// SessionsByPaymentIntent lists the checkout sessions associated with a
// payment intent, in the order Stripe returns them.
func (c *Client) SessionsByPaymentIntent(ctx context.Context, paymentIntentID string) ([]*stripe.CheckoutSession, error) {
	params := &stripe.CheckoutSessionListParams{
		PaymentIntent: stripe.String(paymentIntentID),
	}
	params.Context = ctx

	var sessions []*stripe.CheckoutSession
	iter := c.api.CheckoutSessions.List(params)
	for iter.Next() {
		sessions = append(sessions, iter.CheckoutSession())
	}
	return sessions, iter.Err()
}
