package writer

import (
	"context"
	"errors"
	"net/http"
	"time"

	cbigquery "cloud.google.com/go/bigquery"
	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Backoff doubles the delay after each failed attempt, capped at Max.
type Backoff struct {
	Attempts int
	Initial  time.Duration
	Max      time.Duration
}

func (b Backoff) withDefaults() Backoff {
	if b.Attempts <= 0 {
		b.Attempts = 3
	}
	if b.Initial <= 0 {
		b.Initial = 250 * time.Millisecond
	}
	if b.Max < b.Initial {
		b.Max = max(2*time.Second, b.Initial)
	}
	return b
}

// delay is the pause after the given failed attempt, counting from 1.
func (b Backoff) delay(attempt int) time.Duration {
	d := b.Initial
	for i := 1; i < attempt && d < b.Max; i++ {
		d *= 2
	}
	return min(d, b.Max)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

var (
	transientHTTP = map[int]bool{
		http.StatusRequestTimeout:      true,
		http.StatusTooManyRequests:     true,
		http.StatusInternalServerError: true,
		http.StatusBadGateway:          true,
		http.StatusServiceUnavailable:  true,
		http.StatusGatewayTimeout:      true,
	}
	transientGRPC = map[codes.Code]bool{
		codes.Aborted:           true,
		codes.DeadlineExceeded:  true,
		codes.Internal:          true,
		codes.ResourceExhausted: true,
		codes.Unavailable:       true,
	}
	// Row-level insert errors carry a reason string instead of a status.
	transientReasons = map[string]bool{
		"backendError":      true,
		"internalError":     true,
		"rateLimitExceeded": true,
		"timeout":           true,
	}
)

// transient reports whether retrying err can succeed. Composite insert
// errors are transient only when every part is.
func transient(err error) bool {
	var put cbigquery.PutMultiError
	if errors.As(err, &put) {
		if len(put) == 0 {
			return false
		}
		for _, rowErr := range put {
			if !allTransient(rowErr.Errors) {
				return false
			}
		}
		return true
	}
	var multi cbigquery.MultiError
	if errors.As(err, &multi) {
		return allTransient(multi)
	}
	var bqErr *cbigquery.Error
	if errors.As(err, &bqErr) {
		return transientReasons[bqErr.Reason]
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return transientHTTP[apiErr.Code]
	}
	if st, ok := status.FromError(err); ok && st != nil {
		return transientGRPC[st.Code()]
	}
	return false
}

func allTransient(errs []error) bool {
	if len(errs) == 0 {
		return false
	}
	for _, err := range errs {
		if !transient(err) {
			return false
		}
	}
	return true
}
