package bigquery

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/googleapi"
)

const metadataTimeout = 10 * time.Second

// Row pairs a struct value with the insert id BigQuery uses for best-effort
// de-duplication of streamed rows.
type Row struct {
	InsertID string
	Value    any
}

// TableSpec describes a table EnsureTables may create. PartitionField names
// a TIMESTAMP column for daily partitioning; empty means unpartitioned.
type TableSpec struct {
	Name           string
	Schema         bigquery.Schema
	PartitionField string
}

// Ping checks that the dataset and the billing plan table are reachable.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.dataset == nil {
		return errNotConnected
	}
	ctx, cancel := context.WithTimeout(ctx, metadataTimeout)
	defer cancel()

	if _, err := c.dataset.Metadata(ctx); err != nil {
		return describe("dataset", c.dataset.DatasetID, err)
	}
	if _, err := c.dataset.Table(c.billingPlanTable).Metadata(ctx); err != nil {
		return describe("table", c.billingPlanTable, err)
	}
	return nil
}

// EnsureTables creates any missing table from specs. Existing tables are
// left untouched; schema drift is a migration concern, not a startup one.
func (c *Client) EnsureTables(ctx context.Context, specs ...TableSpec) ([]string, error) {
	if c == nil || c.dataset == nil {
		return nil, errNotConnected
	}
	ctx, cancel := context.WithTimeout(ctx, metadataTimeout*time.Duration(len(specs)+1))
	defer cancel()

	var created []string
	for _, spec := range specs {
		table := c.dataset.Table(spec.Name)
		_, err := table.Metadata(ctx)
		if err == nil {
			continue
		}
		if !notFound(err) {
			return created, describe("table", spec.Name, err)
		}
		if err := table.Create(ctx, tableMetadata(spec)); err != nil {
			return created, fmt.Errorf("bigquery: create table %s: %w", spec.Name, err)
		}
		created = append(created, spec.Name)
	}
	return created, nil
}

func tableMetadata(spec TableSpec) *bigquery.TableMetadata {
	md := &bigquery.TableMetadata{Schema: spec.Schema}
	if spec.PartitionField != "" {
		md.TimePartitioning = &bigquery.TimePartitioning{
			Type:  bigquery.DayPartitioningType,
			Field: spec.PartitionField,
		}
	}
	return md
}

// InsertRows streams rows into table. Rows without a value are skipped.
func (c *Client) InsertRows(ctx context.Context, table string, rows []Row) error {
	if c == nil || c.dataset == nil {
		return errNotConnected
	}
	table = strings.TrimSpace(table)
	if table == "" {
		return errors.New("bigquery: table name is required")
	}
	savers := structSavers(rows)
	if len(savers) == 0 {
		return nil
	}
	return c.dataset.Table(table).Inserter().Put(ctx, savers)
}

func structSavers(rows []Row) []*bigquery.StructSaver {
	var savers []*bigquery.StructSaver
	for _, row := range rows {
		if row.Value != nil {
			savers = append(savers, &bigquery.StructSaver{Struct: row.Value, InsertID: row.InsertID})
		}
	}
	return savers
}

func describe(kind, name string, err error) error {
	if notFound(err) {
		return fmt.Errorf("bigquery: %s %q does not exist", kind, name)
	}
	return fmt.Errorf("bigquery: read %s %q: %w", kind, name, err)
}

func notFound(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound
}
