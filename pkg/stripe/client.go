// Package stripe configures stripe-go for one environment and verifies
// webhook deliveries.
package stripe

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v84"

	"github.com/angelmondragon/wedplan-backend/pkg/config"
	"github.com/angelmondragon/wedplan-backend/pkg/logger"
)

const defaultCurrency = "usd"

var (
	errAPIKeyRequired   = errors.New("stripe: api key is required")
	errSecretRequired   = errors.New("stripe: webhook secret is required")
	errInvalidStripeEnv = errors.New(`stripe: environment must be "test" or "live"`)
)

// keyPrefixes lists the secret and restricted key prefixes each environment
// accepts, so a live key never runs against a test deployment.
var keyPrefixes = map[string][]string{
	"test": {"sk_test_", "rk_test_"},
	"live": {"sk_live_", "rk_live_"},
}

type Client struct {
	environment   string
	signingSecret string
	currency      string
}

// NewClient validates the configuration and installs the API key on the
// stripe-go package, which the resource packages read.
func NewClient(ctx context.Context, cfg config.StripeConfig, logg *logger.Logger) (*Client, error) {
	env := cfg.Environment()
	prefixes, ok := keyPrefixes[env]
	if !ok {
		return nil, errInvalidStripeEnv
	}
	key := strings.TrimSpace(cfg.APIKey)
	secret := strings.TrimSpace(cfg.Secret)
	switch {
	case key == "":
		return nil, errAPIKeyRequired
	case secret == "":
		return nil, errSecretRequired
	case !hasAnyPrefix(key, prefixes):
		return nil, fmt.Errorf("stripe: %s environment requires a %s key", env, strings.Join(prefixes, " or "))
	}

	stripe.Key = key

	c := &Client{
		environment:   env,
		signingSecret: secret,
		currency:      strings.ToLower(strings.TrimSpace(cfg.Currency)),
	}
	if logg != nil {
		logg.Info(logg.WithFields(ctx, map[string]any{"stripe_env": env, "currency": c.Currency()}), "stripe configured")
	}
	return c, nil
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

// Environment is "test" or "live".
func (c *Client) Environment() string {
	if c == nil {
		return ""
	}
	return c.environment
}

// Currency is the ISO code charged on every PaymentIntent.
func (c *Client) Currency() string {
	if c == nil || c.currency == "" {
		return defaultCurrency
	}
	return c.currency
}
