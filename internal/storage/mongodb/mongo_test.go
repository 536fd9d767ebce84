package mongodb

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"expensetracker/internal/core"
	"expensetracker/internal/storage"
	"expensetracker/internal/storage/storetest"
)

func TestFilterDoc(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 31, 23, 59, 59, 999000000, time.UTC)

	got := filterDoc(core.Filter{Category: "Food", From: &from, To: &to})
	want := bson.D{
		{Key: "category", Value: "Food"},
		{Key: "date", Value: bson.D{{Key: "$gte", Value: from}, {Key: "$lte", Value: to}}},
	}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("filter = %v, want %v", got, want)
	}
	if len(filterDoc(core.Filter{})) != 0 {
		t.Error("empty filter should match everything")
	}
}

func TestSortDoc(t *testing.T) {
	got := sortDoc([]core.SortField{{Field: core.SortCreatedAt, Desc: true}, {Field: core.SortID}})
	want := bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: 1}}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("sort = %v, want %v", got, want)
	}
}

// Runs against a disposable database at TEST_MONGO_URI.
func TestMongoStoreConformance(t *testing.T) {
	uri := os.Getenv("TEST_MONGO_URI")
	if uri == "" {
		t.Skip("TEST_MONGO_URI not set")
	}
	storetest.Run(t, func(t *testing.T, now storage.Clock) storage.ExpenseStore {
		ctx := context.Background()
		s, err := NewWithClock(ctx, Config{URI: uri, Database: "expense_tracker_test", Collection: "expenses"}, now)
		if err != nil {
			t.Fatalf("connect: %v", err)
		}
		if _, err := s.coll.DeleteMany(ctx, bson.D{}); err != nil {
			t.Fatalf("reset collection: %v", err)
		}
		return s
	})
}
