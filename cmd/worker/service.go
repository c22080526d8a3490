package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/wedplan-backend/pkg/logger"
)

const heartbeatInterval = time.Minute

type runner interface {
	Run(ctx context.Context) error
}

type dependency struct {
	name string
	ping func(context.Context) error
}

type ServiceParams struct {
	Logger       *logger.Logger
	Dependencies []dependency
	Consumers    map[string]runner
}

// Service runs the finalization consumers once every dependency answers a
// ping. The first consumer to stop takes the others down with it.
type Service struct {
	logg      *logger.Logger
	deps      []dependency
	consumers map[string]runner
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if len(params.Consumers) == 0 {
		return nil, errors.New("at least one consumer is required")
	}
	for name, c := range params.Consumers {
		if c == nil {
			return nil, fmt.Errorf("consumer %s is nil", name)
		}
	}
	return &Service{
		logg:      params.Logger,
		deps:      params.Dependencies,
		consumers: params.Consumers,
	}, nil
}

func (s *Service) ready(ctx context.Context) error {
	for _, dep := range s.deps {
		if err := dep.ping(ctx); err != nil {
			return fmt.Errorf("%s ping failed: %w", dep.name, err)
		}
	}
	s.logg.Info(ctx, "worker dependencies ready")
	return nil
}

func (s *Service) Run(ctx context.Context) error {
	if err := s.ready(ctx); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	for name, c := range s.consumers {
		g.Go(func() error {
			err := c.Run(gctx)
			switch {
			case err == nil && ctx.Err() == nil:
				return fmt.Errorf("consumer %s exited", name)
			case err != nil && ctx.Err() == nil:
				s.logg.Error(s.logg.WithField(ctx, "consumer", name), "consumer stopped", err)
			}
			return err
		})
	}
	g.Go(func() error {
		ticker := time.NewTicker(heartbeatInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				s.logg.Debug(ctx, "worker heartbeat")
			}
		}
	})

	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	return err
}
