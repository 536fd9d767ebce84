package postgres

import (
	"context"
	"os"
	"testing"

	"expensetracker/internal/storage"
	"expensetracker/internal/storage/storetest"
)

func TestMigrateURL(t *testing.T) {
	tests := []struct{ in, want string }{
		{"postgres://u:p@localhost:5432/db?sslmode=disable", "pgx5://u:p@localhost:5432/db?sslmode=disable"},
		{"postgresql://localhost/db", "pgx5://localhost/db"},
		{"pgx5://localhost/db", "pgx5://localhost/db"},
	}
	for _, tt := range tests {
		if got := migrateURL(tt.in); got != tt.want {
			t.Errorf("migrateURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// Runs against a disposable database named by TEST_POSTGRES_URL.
func TestPostgresStoreConformance(t *testing.T) {
	url := os.Getenv("TEST_POSTGRES_URL")
	if url == "" {
		t.Skip("TEST_POSTGRES_URL not set")
	}
	storetest.Run(t, func(t *testing.T, now storage.Clock) storage.ExpenseStore {
		ctx := context.Background()
		s, err := NewWithClock(ctx, url, now)
		if err != nil {
			t.Fatalf("connect: %v", err)
		}
		if _, err := s.pool.Exec(ctx, "TRUNCATE expenses"); err != nil {
			t.Fatalf("truncate: %v", err)
		}
		return s
	})
}
