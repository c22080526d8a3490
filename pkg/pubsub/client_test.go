package pubsub

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/wedplan-backend/pkg/config"
)

func TestResourceName(t *testing.T) {
	cases := []struct {
		name, project, kind, in, want string
	}{
		{"bare id", "wp-prod", kindTopic, "billing", "projects/wp-prod/topics/billing"},
		{"trims", "wp-prod", kindSubscription, "  billing-sub ", "projects/wp-prod/subscriptions/billing-sub"},
		{"qualified", "other", kindTopic, "projects/wp-prod/topics/billing", "projects/wp-prod/topics/billing"},
		{"wrong kind is expanded", "wp-prod", kindTopic, "projects/x/subscriptions/y", "projects/wp-prod/topics/projects/x/subscriptions/y"},
		{"empty name", "wp-prod", kindTopic, "", ""},
		{"no project", "", kindTopic, "billing", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, resourceName(tc.project, tc.kind, tc.in))
		})
	}
}

func TestSubscriptionsSkipsBlankNames(t *testing.T) {
	c := &Client{project: "wp-prod", cfg: config.PubSubConfig{BillingSubscription: "billing-sub"}}
	require.Equal(t, []string{"projects/wp-prod/subscriptions/billing-sub"}, c.subscriptions())
}

func TestDisconnectedClient(t *testing.T) {
	var c *Client
	require.ErrorIs(t, c.Ping(context.Background()), errNotConnected)
	require.Nil(t, c.Publisher("billing"))
	require.Nil(t, c.BillingSubscription())
	require.NoError(t, c.Close())

	_, err := NewClient(context.Background(), config.GCPConfig{}, config.PubSubConfig{}, nil)
	require.Error(t, err)
}
