package db

import (
	"os"
	"path/filepath"
	"testing"
)

func writeMigration(t *testing.T, dir, name, sql string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(sql), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestLoadMigrationsSortsByVersion(t *testing.T) {
	dir := t.TempDir()
	writeMigration(t, dir, "010_payments.sql", "CREATE TABLE payment_record ();")
	writeMigration(t, dir, "001_init.sql", "CREATE TABLE patient ();")
	writeMigration(t, dir, "002_catalogs.sql", "CREATE TABLE drug ();")

	m := NewMigrator(nil, dir)
	migrations, err := m.LoadMigrations()
	if err != nil {
		t.Fatalf("LoadMigrations: %v", err)
	}

	if len(migrations) != 3 {
		t.Fatalf("expected 3 migrations, got %d", len(migrations))
	}
	wantVersions := []int{1, 2, 10}
	for i, want := range wantVersions {
		if migrations[i].Version != want {
			t.Errorf("migrations[%d].Version = %d, want %d", i, migrations[i].Version, want)
		}
	}
	if migrations[0].Name != "001_init.sql" {
		t.Errorf("migrations[0].Name = %q, want 001_init.sql", migrations[0].Name)
	}
	if migrations[0].SQL != "CREATE TABLE patient ();" {
		t.Errorf("migrations[0].SQL = %q", migrations[0].SQL)
	}
}

func TestLoadMigrationsSkipsNonMigrationFiles(t *testing.T) {
	dir := t.TempDir()
	writeMigration(t, dir, "001_init.sql", "SELECT 1;")
	writeMigration(t, dir, "README.md", "not a migration")
	writeMigration(t, dir, "notes.sql", "no version prefix")
	writeMigration(t, dir, "abc_bad.sql", "non-numeric prefix")
	if err := os.Mkdir(filepath.Join(dir, "002_dir.sql"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	m := NewMigrator(nil, dir)
	migrations, err := m.LoadMigrations()
	if err != nil {
		t.Fatalf("LoadMigrations: %v", err)
	}

	if len(migrations) != 1 {
		t.Fatalf("expected 1 migration, got %d", len(migrations))
	}
	if migrations[0].Version != 1 {
		t.Errorf("Version = %d, want 1", migrations[0].Version)
	}
}

func TestLoadMigrationsMissingDir(t *testing.T) {
	m := NewMigrator(nil, filepath.Join(t.TempDir(), "missing"))
	if _, err := m.LoadMigrations(); err == nil {
		t.Fatal("expected error for missing migrations directory")
	}
}
