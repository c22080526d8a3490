package db

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// sqliteSchema mirrors the goose migrations for local sqlite runs and tests.
// Postgres-only features (partial indexes on jsonb, gen_random_uuid) are
// replaced by application-assigned ids.
var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS bookings (
  id TEXT PRIMARY KEY,
  product_key TEXT NOT NULL,
  product_label TEXT NOT NULL,
  category TEXT NOT NULL,
  customer_name TEXT NOT NULL,
  customer_email TEXT NOT NULL,
  total_cents INTEGER NOT NULL,
  strategy TEXT NOT NULL,
  deposit_percent TEXT NOT NULL,
  final_due_offset_days INTEGER NOT NULL,
  wedding_date DATETIME,
  line_items TEXT,
  status TEXT NOT NULL,
  stripe_customer_id TEXT,
  payment_intent_id TEXT UNIQUE,
  amount_due_cents INTEGER NOT NULL,
  current_snapshot_id TEXT,
  finalized_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE IF NOT EXISTS billing_snapshots (
  id TEXT PRIMARY KEY,
  booking_id TEXT NOT NULL,
  product_key TEXT NOT NULL,
  payment_ref TEXT NOT NULL,
  payment_account_ref TEXT,
  strategy TEXT NOT NULL,
  plan_status TEXT NOT NULL,
  total_cents INTEGER NOT NULL,
  deposit_cents INTEGER NOT NULL,
  remaining_cents INTEGER NOT NULL,
  plan_months INTEGER NOT NULL,
  per_month_cents INTEGER NOT NULL,
  last_payment_cents INTEGER NOT NULL,
  next_charge_at DATETIME,
  final_due_at DATETIME,
  payment_plan TEXT NOT NULL,
  payment_plan_auto TEXT NOT NULL,
  status TEXT NOT NULL,
  superseded_by TEXT,
  superseded_at DATETIME,
  computed_at DATETIME NOT NULL,
  created_at DATETIME
);`,
	`CREATE TABLE IF NOT EXISTS processed_payments (
  payment_ref TEXT PRIMARY KEY,
  booking_id TEXT NOT NULL,
  snapshot_id TEXT,
  state TEXT NOT NULL,
  amount_captured_cents INTEGER NOT NULL,
  created_at DATETIME,
  finalized_at DATETIME
);`,
	`CREATE TABLE IF NOT EXISTS ledger_entries (
  id TEXT PRIMARY KEY,
  booking_id TEXT NOT NULL,
  snapshot_id TEXT NOT NULL UNIQUE,
  label TEXT NOT NULL,
  category TEXT NOT NULL,
  amount_charged_today_cents INTEGER NOT NULL,
  contract_total_cents INTEGER NOT NULL,
  pay_full INTEGER NOT NULL,
  deposit_cents INTEGER NOT NULL,
  monthly_amount_cents INTEGER NOT NULL,
  months INTEGER NOT NULL,
  method TEXT NOT NULL,
  entry_date DATETIME NOT NULL,
  created_at DATETIME
);`,
	`CREATE TABLE IF NOT EXISTS agreement_documents (
  id TEXT PRIMARY KEY,
  booking_id TEXT NOT NULL,
  snapshot_id TEXT NOT NULL UNIQUE,
  bucket TEXT NOT NULL,
  object_key TEXT NOT NULL,
  content_type TEXT NOT NULL,
  size_bytes INTEGER NOT NULL,
  created_at DATETIME
);`,
	`CREATE TABLE IF NOT EXISTS outbox_events (
  id TEXT PRIMARY KEY,
  event_type TEXT NOT NULL,
  aggregate_type TEXT NOT NULL,
  aggregate_id TEXT NOT NULL,
  payload TEXT NOT NULL,
  created_at DATETIME,
  published_at DATETIME,
  attempt_count INTEGER NOT NULL DEFAULT 0,
  last_error TEXT
);`,
	`CREATE TABLE IF NOT EXISTS outbox_dlq (
  id TEXT PRIMARY KEY,
  event_id TEXT NOT NULL UNIQUE,
  event_type TEXT NOT NULL,
  aggregate_type TEXT NOT NULL,
  aggregate_id TEXT NOT NULL,
  payload_json TEXT NOT NULL,
  error_reason TEXT NOT NULL,
  error_message TEXT,
  attempt_count INTEGER NOT NULL DEFAULT 0,
  failed_at DATETIME,
  created_at DATETIME
);`,
}

// EnsureSQLiteSchema creates every table on a sqlite connection.
func EnsureSQLiteSchema(ctx context.Context, conn *gorm.DB) error {
	for _, stmt := range sqliteSchema {
		if err := conn.WithContext(ctx).Exec(stmt).Error; err != nil {
			return fmt.Errorf("apply sqlite schema: %w", err)
		}
	}
	return nil
}
