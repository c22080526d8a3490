package cron

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type namedJob string

func (n namedJob) Name() string              { return string(n) }
func (n namedJob) Run(context.Context) error { return nil }

func TestRegistryKeepsOrderAndCopies(t *testing.T) {
	registry, err := NewRegistry(namedJob("outbox_retention"), namedJob("unresolved_plans"))
	require.NoError(t, err)

	jobs := registry.Jobs()
	require.Equal(t, []Job{namedJob("outbox_retention"), namedJob("unresolved_plans")}, jobs)

	jobs[0] = nil
	require.NotNil(t, registry.Jobs()[0])
}

func TestRegistryRejectsBadJobs(t *testing.T) {
	_, err := NewRegistry(namedJob("sweep"), namedJob("sweep"))
	require.ErrorContains(t, err, "registered twice")

	var registry Registry
	require.Error(t, registry.Register(nil))
	require.Error(t, registry.Register(namedJob("  ")))
	require.NoError(t, registry.Register(namedJob("sweep")))
}
