// Package testutil holds helpers shared by the database-backed tests.
package testutil

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/MuhammadFarhanWebDeveloper/attendence-app/core/roster"
	"github.com/MuhammadFarhanWebDeveloper/attendence-app/storage/database"
)

// DatabaseURLEnv names the variable holding the postgres test database URL.
const DatabaseURLEnv = "TEST_DATABASE_URL"

var tables = []string{"attendance", "student_stats", "students", "cache_entries"}

// OpenDB opens and migrates the test database. The test is skipped when DatabaseURLEnv is unset.
func OpenDB(t *testing.T) *sql.DB {
	t.Helper()
	dbURL := os.Getenv(DatabaseURLEnv)
	if dbURL == "" {
		t.Skipf("%s not set", DatabaseURLEnv)
	}

	db, err := database.OpenURL(dbURL)
	if err != nil {
		t.Fatalf("OpenDB() failed: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err = database.Ping(ctx, db); err != nil {
		t.Fatalf("OpenDB() failed: %v", err)
	}
	if err = database.Migrate(db); err != nil {
		t.Fatalf("OpenDB() failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// ResetDB empties the given tables, or every table when none is given.
func ResetDB(t *testing.T, db *sql.DB, only ...string) {
	t.Helper()
	if len(only) == 0 {
		only = tables
	}
	for _, table := range only {
		if _, err := db.Exec("TRUNCATE TABLE " + table); err != nil {
			t.Fatalf("ResetDB() failed: %v", err)
		}
	}
}

// PrepareDB opens the test database and empties the given tables (default: all).
func PrepareDB(t *testing.T, only ...string) *sql.DB {
	t.Helper()
	db := OpenDB(t)
	ResetDB(t, db, only...)
	return db
}

type studentAdder interface {
	AddStudents(ctx context.Context, students ...roster.Student) error
}

func CreateStudents(t *testing.T, repo studentAdder, students ...roster.Student) []roster.Student {
	t.Helper()
	tstamp := time.Now().UTC().Truncate(time.Microsecond)
	for i := range students {
		if students[i].CreatedAt.IsZero() {
			students[i].CreatedAt = tstamp
		}
	}
	if err := repo.AddStudents(context.Background(), students...); err != nil {
		t.Fatalf("CreateStudents() failed: %v", err)
	}
	return students
}
