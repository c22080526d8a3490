package finalization

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/angelmondragon/wedplan-backend/pkg/logger"
)

// SessionGuard remembers which finalization tokens this process has already
// started. It is the in-memory first layer of the finalization guard.
type SessionGuard struct {
	seen sync.Map
}

// NewSessionGuard returns an empty session guard.
func NewSessionGuard() *SessionGuard {
	return &SessionGuard{}
}

// TryBeginFinalization returns true exactly once per token.
func (g *SessionGuard) TryBeginFinalization(token string) bool {
	_, loaded := g.seen.LoadOrStore(token, struct{}{})
	return !loaded
}

// Forget clears token so a later replay may run again.
func (g *SessionGuard) Forget(token string) {
	g.seen.Delete(token)
}

type guardStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
	FinalizationKey(paymentRef string) string
}

// Guard layers the session guard over a Redis key per payment reference so
// concurrent API and webhook deliveries across instances run once. The unique
// processed_payments row written by the persister is the final backstop.
type Guard struct {
	session *SessionGuard
	store   guardStore
	ttl     time.Duration
	logg    *logger.Logger
}

// NewGuard builds the layered guard. store may be nil, leaving only the
// session layer and the database backstop.
func NewGuard(session *SessionGuard, store guardStore, ttl time.Duration, logg *logger.Logger) (*Guard, error) {
	if session == nil {
		return nil, errors.New("session guard required")
	}
	if ttl < 0 {
		return nil, errors.New("ttl must be non-negative")
	}
	if logg == nil {
		return nil, errors.New("logger required")
	}
	return &Guard{session: session, store: store, ttl: ttl, logg: logg}, nil
}

// Begin reports whether the caller owns the finalization of paymentRef. A
// Redis outage does not block payment: the run proceeds and relies on the
// database backstop.
func (g *Guard) Begin(ctx context.Context, paymentRef string) bool {
	if !g.session.TryBeginFinalization(paymentRef) {
		return false
	}
	if g.store == nil {
		return true
	}
	set, err := g.store.SetNX(ctx, g.store.FinalizationKey(paymentRef), "1", g.ttl)
	if err != nil {
		g.logg.Error(ctx, "finalization guard unavailable, relying on processed payments", fmt.Errorf("set finalization key: %w", err))
		return true
	}
	if !set {
		g.session.Forget(paymentRef)
		return false
	}
	return true
}

// Abandon releases both layers so a replay of paymentRef can finish the
// booking.
func (g *Guard) Abandon(ctx context.Context, paymentRef string) {
	g.session.Forget(paymentRef)
	if g.store == nil {
		return
	}
	if err := g.store.Del(ctx, g.store.FinalizationKey(paymentRef)); err != nil {
		g.logg.Error(ctx, "failed to release finalization key", err)
	}
}

// Finish drops the in-memory token once a run has committed. Later replays
// are stopped by the Redis key and the processed payment row.
func (g *Guard) Finish(paymentRef string) {
	g.session.Forget(paymentRef)
}
