package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/angelmondragon/wedplan-backend/pkg/migrate"
)

func TestMigrationsDirectoryIsValid(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("ValidateDir: %v", err)
	}
}

func TestEmbeddedMigrationsAreValid(t *testing.T) {
	if err := migrate.ValidateEmbedded(); err != nil {
		t.Fatalf("ValidateEmbedded: %v", err)
	}
}

func TestParseVersion(t *testing.T) {
	v, err := migrate.ParseVersion("20260301090400")
	if err != nil {
		t.Fatalf("ParseVersion: %v", err)
	}
	if v != 20260301090400 {
		t.Fatalf("unexpected version %d", v)
	}
	for _, raw := range []string{"", "2026", "2026030109040x", "202603010904000"} {
		if _, err := migrate.ParseVersion(raw); err == nil {
			t.Errorf("expected %q to be rejected", raw)
		}
	}
}

func TestBillingSnapshotMigrationKeepsPlanInvariants(t *testing.T) {
	content := readMigration(t, "*_create_billing_snapshots.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS billing_snapshots",
		"CHECK (deposit_cents + remaining_cents = total_cents)",
		"CHECK (status IN ('current', 'superseded'))",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_billing_snapshots_current",
		"DROP TABLE IF EXISTS billing_snapshots",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestProcessedPaymentsKeyedByPaymentRef(t *testing.T) {
	content := readMigration(t, "*_create_processed_payments_and_ledger.sql")
	for _, sub := range []string{
		"payment_ref TEXT PRIMARY KEY",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_ledger_entries_snapshot_id",
	} {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestCreateSQLMigration(t *testing.T) {
	dir := t.TempDir()
	path, err := migrate.CreateSQLMigration(dir, "Add Venue Profiles!")
	if err != nil {
		t.Fatalf("CreateSQLMigration: %v", err)
	}
	if !strings.HasSuffix(path, "_add_venue_profiles.sql") {
		t.Fatalf("unexpected filename %s", path)
	}
	if err := migrate.ValidateDir(dir); err != nil {
		t.Fatalf("generated migration should validate: %v", err)
	}
}

func TestValidateDirRejectsEmpty(t *testing.T) {
	if err := migrate.ValidateDir(t.TempDir()); err == nil {
		t.Fatal("expected empty directory to be rejected")
	}
}

func readMigration(t *testing.T, pattern string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", pattern))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no migration matching %s", pattern)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}
