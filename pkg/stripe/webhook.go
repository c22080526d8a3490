package stripe

import (
	"errors"
	"strings"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/webhook"
)

var errSignatureMissing = errors.New("stripe: signature header missing")

// VerifyWebhook checks the Stripe-Signature header against the raw body and
// decodes the event. Newer API versions are accepted because only
// payment_intent fields common to all versions are read.
func (c *Client) VerifyWebhook(payload []byte, signature string) (stripe.Event, error) {
	if strings.TrimSpace(signature) == "" {
		return stripe.Event{}, errSignatureMissing
	}
	var secret string
	if c != nil {
		secret = c.signingSecret
	}
	return webhook.ConstructEventWithOptions(payload, signature, secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
}
