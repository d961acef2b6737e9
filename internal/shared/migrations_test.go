package shared

import (
	"database/sql"
	"testing"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	ConfigureDatabase(db, 1, 1)

	return db
}

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()

	var count int
	err := db.QueryRow(
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, name,
	).Scan(&count)
	if err != nil {
		t.Fatalf("failed to query sqlite_master: %v", err)
	}
	return count > 0
}

func TestMigrations(t *testing.T) {
	t.Run("RunMigrations Creates Tables", func(t *testing.T) {
		db := newTestDB(t)

		if err := RunMigrations(db); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}

		for _, table := range []string{"schema_migrations", "auth_states", "token_pairs"} {
			if !tableExists(t, db, table) {
				t.Errorf("expected table %s to exist", table)
			}
		}
	})

	t.Run("RunMigrations Is Idempotent", func(t *testing.T) {
		db := newTestDB(t)

		if err := RunMigrations(db); err != nil {
			t.Fatalf("first run failed: %v", err)
		}
		if err := RunMigrations(db); err != nil {
			t.Fatalf("second run failed: %v", err)
		}

		var count int
		if err := db.QueryRow(`SELECT COUNT(*) FROM schema_migrations`).Scan(&count); err != nil {
			t.Fatalf("failed to count migrations: %v", err)
		}
		if count != 1 {
			t.Errorf("expected one recorded migration, got %d", count)
		}
	})

	t.Run("RollbackMigration Drops Tables", func(t *testing.T) {
		db := newTestDB(t)

		if err := RunMigrations(db); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}

		if err := RollbackMigration(db); err != nil {
			t.Fatalf("failed to roll back: %v", err)
		}

		if tableExists(t, db, "auth_states") || tableExists(t, db, "token_pairs") {
			t.Error("rollback should drop the session tables")
		}
	})

	t.Run("RollbackMigration On Empty Database", func(t *testing.T) {
		db := newTestDB(t)

		if err := RollbackMigration(db); err == nil {
			t.Error("expected error with nothing to roll back")
		}
	})
}

func TestLoadMigrations(t *testing.T) {
	migrations, err := loadMigrations()
	if err != nil {
		t.Fatalf("failed to load migrations: %v", err)
	}

	if len(migrations) == 0 {
		t.Fatal("expected embedded migrations")
	}

	for i, m := range migrations {
		if m.Up == "" || m.Down == "" {
			t.Errorf("migration %d is incomplete", m.Version)
		}
		if i > 0 && migrations[i-1].Version >= m.Version {
			t.Error("migrations should be sorted by version")
		}
	}
}
