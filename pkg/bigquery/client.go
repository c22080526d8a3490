package bigquery

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/option"

	"github.com/angelmondragon/wedplan-backend/pkg/config"
	"github.com/angelmondragon/wedplan-backend/pkg/logger"
)

var errNotConnected = errors.New("bigquery: client not connected")

// Pinger exposes the health-check surface.
type Pinger interface {
	Ping(context.Context) error
}

// Client writes billing analytics into one dataset.
type Client struct {
	bq               *bigquery.Client
	dataset          *bigquery.Dataset
	billingPlanTable string
}

// NewClient connects to the configured project. Unlike Ping it does not
// require the tables to exist yet, so EnsureTables can provision them.
func NewClient(ctx context.Context, gcp config.GCPConfig, cfg config.BigQueryConfig, logg *logger.Logger) (*Client, error) {
	project := strings.TrimSpace(gcp.ProjectID)
	dataset := strings.TrimSpace(cfg.Dataset)
	table := strings.TrimSpace(cfg.BillingPlanTable)
	switch {
	case project == "":
		return nil, errors.New("bigquery: gcp project id is required")
	case dataset == "":
		return nil, errors.New("bigquery: dataset is required")
	case table == "":
		return nil, errors.New("bigquery: billing plan table is required")
	}

	bq, err := bigquery.NewClient(ctx, project, credentials(gcp)...)
	if err != nil {
		return nil, fmt.Errorf("bigquery: new client: %w", err)
	}
	c := &Client{
		bq:               bq,
		dataset:          bq.Dataset(dataset),
		billingPlanTable: table,
	}
	if logg != nil {
		logg.Info(logg.WithFields(ctx, map[string]any{
			"bigquery_project": project,
			"bigquery_dataset": dataset,
		}), "bigquery client ready")
	}
	return c, nil
}

// credentials prefers inline JSON over a key file path and falls back to
// application default credentials.
func credentials(gcp config.GCPConfig) []option.ClientOption {
	if raw := strings.TrimSpace(gcp.CredentialsJSON); raw != "" {
		return []option.ClientOption{option.WithCredentialsJSON([]byte(raw))}
	}
	if path := strings.TrimSpace(gcp.ApplicationCredentials); path != "" {
		return []option.ClientOption{option.WithCredentialsFile(path)}
	}
	return nil
}

// BillingPlanTable returns the configured billing plan table name.
func (c *Client) BillingPlanTable() string {
	if c == nil {
		return ""
	}
	return c.billingPlanTable
}

func (c *Client) Close() error {
	if c == nil || c.bq == nil {
		return nil
	}
	return c.bq.Close()
}
