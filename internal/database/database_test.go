package database

import (
	"path/filepath"
	"testing"
)

func TestOpenMemoryRunsMigrations(t *testing.T) {
	db, err := Open(DriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM meetings`).Scan(&n); err != nil {
		t.Fatalf("meetings table missing: %v", err)
	}
	if n != 0 {
		t.Errorf("count = %d, want 0", n)
	}
}

func TestOpenFileIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scheduler.db")

	for i := 0; i < 2; i++ {
		db, err := Open("", path)
		if err != nil {
			t.Fatalf("open #%d: %v", i+1, err)
		}
		db.Close()
	}
}

func TestOpenUnsupportedDriver(t *testing.T) {
	if _, err := Open("mysql", "x"); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}

func TestSQLiteDSN(t *testing.T) {
	tests := map[string]string{
		":memory:":     ":memory:",
		"a.db?mode=ro": "a.db?mode=ro",
		"scheduler.db": "scheduler.db?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)",
	}
	for in, want := range tests {
		if got := sqliteDSN(in); got != want {
			t.Errorf("sqliteDSN(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestBackfillStartUTC(t *testing.T) {
	db, err := Open(DriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	_, err = db.Exec(`INSERT INTO meetings (event_id, title, start_time, created_at) VALUES
		('evt_old', 'Sync', '2025-05-20T10:00:00+05:30', '2025-05-01T00:00:00Z'),
		('evt_bad', 'Sync', 'not a time', '2025-05-01T00:00:00Z')`)
	if err != nil {
		t.Fatalf("insert legacy rows: %v", err)
	}

	if err := backfillStartUTC(db, DriverSQLite); err != nil {
		t.Fatalf("backfill: %v", err)
	}

	var utc string
	if err := db.QueryRow(`SELECT start_utc FROM meetings WHERE event_id = 'evt_old'`).Scan(&utc); err != nil {
		t.Fatalf("query: %v", err)
	}
	if utc != "2025-05-20T04:30:00Z" {
		t.Errorf("start_utc = %q, want 2025-05-20T04:30:00Z", utc)
	}
	if err := db.QueryRow(`SELECT start_utc FROM meetings WHERE event_id = 'evt_bad'`).Scan(&utc); err != nil {
		t.Fatalf("query: %v", err)
	}
	if utc != "" {
		t.Errorf("unparseable start_time backfilled to %q", utc)
	}
}
