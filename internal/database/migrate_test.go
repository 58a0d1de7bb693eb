package database

import (
	"io/fs"
	"strings"
	"testing"
)

// TestMigrationsFS_ContainsInitMigration は埋め込みFSに初期マイグレーションの
// up/downペアが含まれることを検証する。
func TestMigrationsFS_ContainsInitMigration(t *testing.T) {
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	if err != nil {
		t.Fatalf("failed to read embedded migrations: %v", err)
	}

	var hasUp, hasDown bool
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".up.sql") {
			hasUp = true
		}
		if strings.HasSuffix(e.Name(), ".down.sql") {
			hasDown = true
		}
	}

	if !hasUp {
		t.Error("expected at least one .up.sql migration")
	}
	if !hasDown {
		t.Error("expected at least one .down.sql migration")
	}
}

// TestInitMigration_CreatesCoreTables は初期マイグレーションが
// users / access_tokens / products テーブルを作成することを検証する。
func TestInitMigration_CreatesCoreTables(t *testing.T) {
	data, err := fs.ReadFile(migrationsFS, "migrations/000001_init.up.sql")
	if err != nil {
		t.Fatalf("failed to read init migration: %v", err)
	}
	content := string(data)

	for _, table := range []string{"users", "access_tokens", "products"} {
		if !strings.Contains(content, "CREATE TABLE "+table) {
			t.Errorf("init migration should create table %q", table)
		}
	}
}
