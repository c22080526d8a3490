// Package pubsub wraps the Pub/Sub v2 client with the topics and
// subscriptions the billing services share.
package pubsub

import (
	"context"
	"errors"
	"fmt"
	"strings"

	pubsub "cloud.google.com/go/pubsub/v2"
	"cloud.google.com/go/pubsub/v2/apiv1/pubsubpb"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/angelmondragon/wedplan-backend/pkg/config"
	"github.com/angelmondragon/wedplan-backend/pkg/logger"
)

const (
	kindTopic        = "topics"
	kindSubscription = "subscriptions"
)

var errNotConnected = errors.New("pubsub: client not connected")

type Client struct {
	ps      *pubsub.Client
	project string
	cfg     config.PubSubConfig
}

// NewClient dials Pub/Sub and fails when a configured subscription is missing.
func NewClient(ctx context.Context, gcp config.GCPConfig, cfg config.PubSubConfig, logg *logger.Logger) (*Client, error) {
	project := strings.TrimSpace(gcp.ProjectID)
	if project == "" {
		return nil, errors.New("pubsub: gcp project id is required")
	}

	ps, err := pubsub.NewClient(ctx, project, credentials(gcp)...)
	if err != nil {
		return nil, fmt.Errorf("pubsub: dial: %w", err)
	}

	c := &Client{ps: ps, project: project, cfg: cfg}
	if err := c.Ping(ctx); err != nil {
		_ = ps.Close()
		return nil, err
	}

	if logg != nil {
		logCtx := logg.WithFields(ctx, map[string]any{
			"project":       project,
			"subscriptions": c.subscriptions(),
		})
		logg.Info(logCtx, "pubsub client ready")
	}
	return c, nil
}

func credentials(gcp config.GCPConfig) []option.ClientOption {
	if raw := strings.TrimSpace(gcp.CredentialsJSON); raw != "" {
		return []option.ClientOption{option.WithCredentialsJSON([]byte(raw))}
	}
	if path := strings.TrimSpace(gcp.ApplicationCredentials); path != "" {
		return []option.ClientOption{option.WithCredentialsFile(path)}
	}
	return nil
}

// resourceName expands a bare ID into projects/<project>/<kind>/<id>.
// Names that are already fully qualified pass through untouched.
func resourceName(project, kind, name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	if strings.HasPrefix(name, "projects/") && strings.Contains(name, "/"+kind+"/") {
		return name
	}
	project = strings.TrimSpace(project)
	if project == "" {
		return ""
	}
	return "projects/" + project + "/" + kind + "/" + name
}

func (c *Client) subscriptions() []string {
	var out []string
	for _, name := range []string{c.cfg.BillingSubscription, c.cfg.FinalizationSubscription} {
		if full := resourceName(c.project, kindSubscription, name); full != "" {
			out = append(out, full)
		}
	}
	return out
}

// Ping looks up every configured subscription.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.ps == nil {
		return errNotConnected
	}
	subs := c.subscriptions()
	if len(subs) == 0 {
		return errors.New("pubsub: no subscription configured")
	}
	for _, sub := range subs {
		_, err := c.ps.SubscriptionAdminClient.GetSubscription(ctx, &pubsubpb.GetSubscriptionRequest{Subscription: sub})
		switch {
		case status.Code(err) == codes.NotFound:
			return fmt.Errorf("pubsub: subscription %s does not exist", sub)
		case err != nil:
			return fmt.Errorf("pubsub: get subscription %s: %w", sub, err)
		}
	}
	return nil
}

// Subscription returns a subscriber for an ID or full resource name, or nil
// when the client is not connected.
func (c *Client) Subscription(name string) *pubsub.Subscriber {
	if c == nil || c.ps == nil {
		return nil
	}
	full := resourceName(c.project, kindSubscription, name)
	if full == "" {
		return nil
	}
	sub := c.ps.Subscriber(full)
	if c.cfg.MaxOutstandingMessages > 0 {
		sub.ReceiveSettings.MaxOutstandingMessages = c.cfg.MaxOutstandingMessages
	}
	return sub
}

// BillingSubscription delivers plan lifecycle events to analytics.
func (c *Client) BillingSubscription() *pubsub.Subscriber {
	if c == nil {
		return nil
	}
	return c.Subscription(c.cfg.BillingSubscription)
}

// FinalizationSubscription delivers finalization step repair requests.
func (c *Client) FinalizationSubscription() *pubsub.Subscriber {
	return c.Subscription(c.cfg.FinalizationSubscription)
}

// Publisher returns a publisher for a topic ID or full resource name.
func (c *Client) Publisher(name string) *pubsub.Publisher {
	if c == nil || c.ps == nil {
		return nil
	}
	full := resourceName(c.project, kindTopic, name)
	if full == "" {
		return nil
	}
	return c.ps.Publisher(full)
}

func (c *Client) BillingPublisher() *pubsub.Publisher {
	return c.Publisher(c.cfg.BillingTopic)
}

func (c *Client) FinalizationPublisher() *pubsub.Publisher {
	return c.Publisher(c.cfg.FinalizationTopic)
}

func (c *Client) Close() error {
	if c == nil || c.ps == nil {
		return nil
	}
	return c.ps.Close()
}
