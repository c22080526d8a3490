// Package bootstrap holds the startup and shutdown steps shared by the
// wedplan binaries.
package bootstrap

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/wedplan-backend/pkg/config"
	"github.com/angelmondragon/wedplan-backend/pkg/db"
	"github.com/angelmondragon/wedplan-backend/pkg/instance"
	"github.com/angelmondragon/wedplan-backend/pkg/logger"
	"github.com/angelmondragon/wedplan-backend/pkg/migrate"
)

type closer struct {
	name string
	fn   func() error
}

// Process is one running binary: its config, its logger and the resources it
// has to release on the way out.
type Process struct {
	Kind   string
	Config *config.Config
	Logger *logger.Logger

	closers []closer
	exit    func(code int)
}

// Start loads .env and the environment config, then rebuilds the logger at
// the configured level. Invalid config ends the process.
func Start(ctx context.Context, kind string) *Process {
	p := &Process{
		Kind:   kind,
		Logger: logger.New(logger.Options{ServiceName: kind}),
		exit:   os.Exit,
	}

	if err := godotenv.Load(); err != nil {
		p.Logger.Warn(ctx, ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	p.Must(ctx, "config", err)
	cfg.Service.Kind = kind
	p.Config = cfg

	p.Logger = logger.New(logger.Options{
		ServiceName: kind,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})
	return p
}

// Must ends the process when a required resource failed to come up.
func (p *Process) Must(ctx context.Context, resource string, err error) {
	if err == nil {
		return
	}
	p.Logger.Error(p.Logger.WithField(ctx, "resource", resource), "resource not working", err)
	p.Fail(ctx)
}

// Fail releases everything registered so far and exits non-zero.
func (p *Process) Fail(ctx context.Context) {
	p.Close(ctx)
	p.exit(1)
}

// OnClose registers fn to run during Close. Closers run newest first.
func (p *Process) OnClose(name string, fn func() error) {
	p.closers = append(p.closers, closer{name: name, fn: fn})
}

func (p *Process) Close(ctx context.Context) {
	for i := len(p.closers) - 1; i >= 0; i-- {
		c := p.closers[i]
		if err := c.fn(); err != nil {
			p.Logger.Error(p.Logger.WithField(ctx, "resource", c.name), "close failed", err)
		}
	}
	p.closers = nil
}

// Database opens the primary database and applies the dev schema when the
// environment asks for it.
func (p *Process) Database(ctx context.Context) *db.Client {
	client, err := db.New(ctx, p.Config.DB, p.Logger)
	p.Must(ctx, "database", err)
	p.OnClose("database", client.Close)

	p.Must(ctx, "dev migrations", migrate.MaybeRunDev(ctx, p.Config, p.Logger, client))
	return client
}

// Signals returns a context cancelled on SIGINT or SIGTERM, carrying the
// process fields plus extra.
func (p *Process) Signals(ctx context.Context, extra map[string]any) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	fields := map[string]any{
		"env":          p.Config.App.Env,
		"service_kind": p.Kind,
		"instance":     instance.GetID(),
	}
	for k, v := range extra {
		fields[k] = v
	}
	return p.Logger.WithFields(ctx, fields), stop
}

// Run blocks on run until it returns. Cancellation counts as a clean stop.
func (p *Process) Run(ctx context.Context, run func(context.Context) error) {
	p.Logger.Info(ctx, p.Kind+" starting")
	if err := run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		p.Logger.Error(ctx, p.Kind+" stopped unexpectedly", err)
		p.Fail(ctx)
		return
	}
	p.Logger.Info(ctx, p.Kind+" shut down")
	p.Close(ctx)
}
