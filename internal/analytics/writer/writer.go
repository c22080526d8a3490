package writer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	cbigquery "cloud.google.com/go/bigquery"

	"github.com/angelmondragon/wedplan-backend/internal/analytics/types"
	pkgbigquery "github.com/angelmondragon/wedplan-backend/pkg/bigquery"
)

// Config names the destination table and how hard to retry it.
type Config struct {
	BillingPlanTable string
	Retry            Backoff
}

type tableInserter interface {
	InsertRows(ctx context.Context, table string, rows []pkgbigquery.Row) error
}

// BigQueryWriter streams billing plan rows. One row is written per event so
// an acked message always has its row stored. The event id doubles as the
// insert id, which collapses redeliveries on the BigQuery side.
type BigQueryWriter struct {
	client tableInserter
	table  string
	retry  Backoff
	sleep  func(ctx context.Context, d time.Duration) error
}

func New(client *pkgbigquery.Client, cfg Config) (*BigQueryWriter, error) {
	if client == nil {
		return nil, errors.New("analytics writer: bigquery client required")
	}
	return newWriter(client, cfg)
}

func newWriter(client tableInserter, cfg Config) (*BigQueryWriter, error) {
	table := strings.TrimSpace(cfg.BillingPlanTable)
	if table == "" {
		return nil, errors.New("analytics writer: billing plan table required")
	}
	return &BigQueryWriter{
		client: client,
		table:  table,
		retry:  cfg.Retry.withDefaults(),
		sleep:  sleepCtx,
	}, nil
}

// Tables describes what the writer needs so the worker can provision it.
// billing_plans is partitioned by day on occurred_at.
func Tables(cfg Config) ([]pkgbigquery.TableSpec, error) {
	schema, err := cbigquery.InferSchema(types.BillingPlanRow{})
	if err != nil {
		return nil, fmt.Errorf("infer billing plan schema: %w", err)
	}
	return []pkgbigquery.TableSpec{{
		Name:           strings.TrimSpace(cfg.BillingPlanTable),
		Schema:         schema,
		PartitionField: "occurred_at",
	}}, nil
}

// InsertBillingPlan writes one row, retrying failures BigQuery marks as
// transient.
func (w *BigQueryWriter) InsertBillingPlan(ctx context.Context, row types.BillingPlanRow) error {
	if strings.TrimSpace(row.EventID) == "" {
		return errors.New("analytics writer: billing plan row has no event id")
	}
	rows := []pkgbigquery.Row{{InsertID: row.EventID, Value: &row}}

	var err error
	for attempt := 1; attempt <= w.retry.Attempts; attempt++ {
		if err = w.client.InsertRows(ctx, w.table, rows); err == nil {
			return nil
		}
		if !transient(err) || attempt == w.retry.Attempts {
			break
		}
		if serr := w.sleep(ctx, w.retry.delay(attempt)); serr != nil {
			return serr
		}
	}
	return fmt.Errorf("insert into %s: %w", w.table, err)
}
