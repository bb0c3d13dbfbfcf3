package db

import (
	"path/filepath"
	"testing"
)

func TestOpen_CreatesAndMigrates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "test.db")

	database, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer database.Close()

	if err := database.Ping(); err != nil {
		t.Fatalf("Ping: %v", err)
	}

	for _, table := range []string{"memories", "messages", "tasks", "schema_migrations"} {
		var name string
		err := database.Conn().QueryRow(
			`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		if err != nil {
			t.Errorf("table %s missing: %v", table, err)
		}
	}
}

func TestOpen_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	first, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	first.Conn().Exec(`INSERT INTO messages (id, user_id, content, metadata) VALUES ('m1', 'u1', 'hi', '{}')`)
	first.Close()

	// Re-running migrations on an existing database is a no-op.
	second, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer second.Close()

	var n int
	if err := second.Conn().QueryRow(`SELECT COUNT(*) FROM messages`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("expected data to survive reopen, got %d rows", n)
	}
}

func TestMemories_UniqueUserKeyType(t *testing.T) {
	database, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer database.Close()

	insert := `INSERT INTO memories (id, user_id, key, value, memory_type) VALUES (?, ?, ?, ?, ?)`
	if _, err := database.Conn().Exec(insert, "a", "u1", "k", "v1", "preference"); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, err := database.Conn().Exec(insert, "b", "u1", "k", "v2", "preference"); err == nil {
		t.Error("expected unique violation on duplicate (user, key, type)")
	}
	// Same key under a different type is allowed.
	if _, err := database.Conn().Exec(insert, "c", "u1", "k", "v3", "conversation"); err != nil {
		t.Errorf("different type should insert: %v", err)
	}
}
