package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/wedplan-backend/pkg/logger"
)

type runnerFunc func(ctx context.Context) error

func (f runnerFunc) Run(ctx context.Context) error { return f(ctx) }

func TestNewServiceRequiresConsumers(t *testing.T) {
	_, err := NewService(ServiceParams{Logger: logger.Nop()})
	require.Error(t, err)

	_, err = NewService(ServiceParams{Logger: logger.Nop(), Consumers: map[string]runner{"retries": nil}})
	require.Error(t, err)
}

func TestRunStopsWhenDependencyUnavailable(t *testing.T) {
	started := false
	svc, err := NewService(ServiceParams{
		Logger: logger.Nop(),
		Dependencies: []dependency{
			{name: "redis", ping: func(context.Context) error { return errors.New("connection refused") }},
		},
		Consumers: map[string]runner{
			"retries": runnerFunc(func(context.Context) error { started = true; return nil }),
		},
	})
	require.NoError(t, err)

	err = svc.Run(context.Background())
	require.ErrorContains(t, err, "redis ping failed")
	require.False(t, started)
}

func TestRunReturnsConsumerFailure(t *testing.T) {
	boom := errors.New("subscription deleted")
	svc, err := NewService(ServiceParams{
		Logger: logger.Nop(),
		Consumers: map[string]runner{
			"retries": runnerFunc(func(context.Context) error { return boom }),
		},
	})
	require.NoError(t, err)

	require.ErrorIs(t, svc.Run(context.Background()), boom)
}

func TestRunHonorsCancellation(t *testing.T) {
	svc, err := NewService(ServiceParams{
		Logger: logger.Nop(),
		Consumers: map[string]runner{
			"retries": runnerFunc(func(ctx context.Context) error {
				<-ctx.Done()
				return ctx.Err()
			}),
		},
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, svc.Run(ctx), context.DeadlineExceeded)
}
