package db

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInit(t *testing.T) {
	baseDir := filepath.Join(t.TempDir(), "nested", ".hilite")

	db, err := Init(baseDir)
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	defer db.Close()

	for _, dir := range []string{baseDir, filepath.Join(baseDir, ExportsDirName)} {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			t.Errorf("directory %s not created: %v", dir, err)
		}
	}
	if _, err := os.Stat(filepath.Join(baseDir, FileName)); err != nil {
		t.Errorf("database file not created: %v", err)
	}

	var journalMode string
	if err := db.QueryRow("PRAGMA journal_mode;").Scan(&journalMode); err != nil {
		t.Fatalf("failed to query journal_mode: %v", err)
	}
	if journalMode != "wal" {
		t.Errorf("journal_mode = %s, want wal", journalMode)
	}

	var pk int
	err = db.QueryRow("SELECT pk FROM pragma_table_info('kv') WHERE name = 'key'").Scan(&pk)
	if err != nil {
		t.Fatalf("kv.key column not found: %v", err)
	}
	if pk != 1 {
		t.Errorf("kv.key pk = %d, want primary key", pk)
	}
}

func TestMigrationsMatchSchemaVersion(t *testing.T) {
	if len(migrations) != CurrentSchemaVersion {
		t.Errorf("len(migrations) = %d, CurrentSchemaVersion = %d", len(migrations), CurrentSchemaVersion)
	}
}

func TestInit_ReopenKeepsValues(t *testing.T) {
	baseDir := t.TempDir()
	ctx := context.Background()

	db1, err := Init(baseDir)
	if err != nil {
		t.Fatalf("first Init() error = %v", err)
	}
	if err := PutValue(ctx, db1, "highlights", `[{"id":"a"}]`); err != nil {
		t.Fatalf("PutValue() error = %v", err)
	}
	db1.Close()

	db2, err := Init(baseDir)
	if err != nil {
		t.Fatalf("second Init() error = %v", err)
	}
	defer db2.Close()

	version, err := schemaVersion(db2)
	if err != nil {
		t.Fatalf("schemaVersion() error = %v", err)
	}
	if version != CurrentSchemaVersion {
		t.Errorf("user_version = %d, want %d", version, CurrentSchemaVersion)
	}
	value, found, err := GetValue(ctx, db2, "highlights")
	if err != nil || !found || value != `[{"id":"a"}]` {
		t.Errorf("GetValue() = %q, %v, %v after reopen", value, found, err)
	}
}

func TestInit_RejectsNewerSchema(t *testing.T) {
	baseDir := t.TempDir()
	db, err := Init(baseDir)
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if _, err := db.Exec("PRAGMA user_version=99"); err != nil {
		t.Fatalf("set user_version: %v", err)
	}
	db.Close()

	_, err = Init(baseDir)
	if err == nil || !strings.Contains(err.Error(), "newer than supported") {
		t.Errorf("Init() error = %v, want newer schema rejection", err)
	}
}

func TestPutValue_KeysAreIndependent(t *testing.T) {
	db, err := Init(t.TempDir())
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	defer db.Close()
	ctx := context.Background()

	for _, kv := range [][2]string{
		{"highlights", "[1]"},
		{"other", "x"},
		{"highlights", "[2]"},
		{"highlights", "[3]"},
	} {
		if err := PutValue(ctx, db, kv[0], kv[1]); err != nil {
			t.Fatalf("PutValue(%s) error = %v", kv[0], err)
		}
	}

	if value, _, _ := GetValue(ctx, db, "highlights"); value != "[3]" {
		t.Errorf("highlights = %q, want latest write [3]", value)
	}
	if value, _, _ := GetValue(ctx, db, "other"); value != "x" {
		t.Errorf("other = %q, want x", value)
	}
	var rows int
	if err := db.QueryRow("SELECT COUNT(*) FROM kv").Scan(&rows); err != nil {
		t.Fatalf("count error = %v", err)
	}
	if rows != 2 {
		t.Errorf("kv rows = %d, want one per key", rows)
	}
}
