package bootstrap

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/wedplan-backend/pkg/config"
	"github.com/angelmondragon/wedplan-backend/pkg/logger"
)

func newTestProcess(buf *bytes.Buffer, exits *[]int) *Process {
	return &Process{
		Kind:   "test",
		Config: &config.Config{},
		Logger: logger.New(logger.Options{ServiceName: "test", Output: buf}),
		exit:   func(code int) { *exits = append(*exits, code) },
	}
}

func TestCloseRunsNewestFirst(t *testing.T) {
	var buf bytes.Buffer
	var exits []int
	p := newTestProcess(&buf, &exits)

	var order []string
	p.OnClose("database", func() error { order = append(order, "database"); return nil })
	p.OnClose("redis", func() error { order = append(order, "redis"); return errors.New("already closed") })

	p.Close(context.Background())
	require.Equal(t, []string{"redis", "database"}, order)
	require.Contains(t, buf.String(), `"resource":"redis"`)

	p.Close(context.Background())
	require.Len(t, order, 2)
}

func TestMustExitsAfterClosing(t *testing.T) {
	var buf bytes.Buffer
	var exits []int
	p := newTestProcess(&buf, &exits)

	closed := false
	p.OnClose("pubsub", func() error { closed = true; return nil })

	p.Must(context.Background(), "pubsub", nil)
	require.Empty(t, exits)
	require.False(t, closed)

	p.Must(context.Background(), "pubsub", errors.New("subscription missing"))
	require.Equal(t, []int{1}, exits)
	require.True(t, closed)
	require.Contains(t, buf.String(), "resource not working")
}

func TestRunTreatsCancellationAsCleanStop(t *testing.T) {
	var buf bytes.Buffer
	var exits []int
	p := newTestProcess(&buf, &exits)

	p.Run(context.Background(), func(context.Context) error { return context.Canceled })
	require.Empty(t, exits)

	p.Run(context.Background(), func(context.Context) error { return errors.New("receive failed") })
	require.Equal(t, []int{1}, exits)
}
