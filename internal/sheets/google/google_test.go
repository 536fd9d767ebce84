package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"expensetracker/internal/core"
	applog "expensetracker/internal/log"
)

func sampleEvent() core.ExpenseEvent {
	return core.ExpenseEvent{
		Type:      core.EventUpdated,
		ID:        "e-42",
		Timestamp: time.Date(2024, 3, 2, 10, 30, 0, 0, time.UTC),
		Expense: core.Expense{
			ID:       "e-42",
			Title:    "Groceries",
			Amount:   23.5,
			Category: "Food",
			Date:     time.Date(2024, 3, 1, 18, 0, 0, 0, time.UTC),
			Notes:    "weekly",
		},
	}
}

func TestEventRow(t *testing.T) {
	row := eventRow(sampleEvent())
	want := []any{"2024-03-02T10:30:00Z", "expense.updated", "e-42", "Groceries", 23.5, "Food", "2024-03-01", "weekly"}
	if len(row) != len(want) {
		t.Fatalf("row = %v", row)
	}
	for i := range want {
		if row[i] != want[i] {
			t.Errorf("column %d = %v, want %v", i, row[i], want[i])
		}
	}
}

func TestNewFromConfig_Validation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{"missing spreadsheet", Config{ServiceAccountJSON: "{}"}, "missing GOOGLE_SPREADSHEET_ID"},
		{"missing credentials", Config{SpreadsheetID: "sheet"}, "missing service account credentials"},
		{"unreadable file", Config{SpreadsheetID: "sheet", ServiceAccountFile: "/nonexistent/sa.json"}, "read service account file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewFromConfig(context.Background(), tt.cfg, applog.Discard())
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("err = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestClient_AppendEvent(t *testing.T) {
	var (
		gotPath  string
		gotQuery string
		gotBody  gsheet.ValueRange
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"updates":{"updatedRange":"Expenses!A2:H2"}}`))
	}))
	defer srv.Close()

	svc, err := gsheet.NewService(context.Background(),
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	c := newClient(svc, Config{SpreadsheetID: "sheet-1"}, applog.Discard())

	if err := c.AppendEvent(context.Background(), sampleEvent()); err != nil {
		t.Fatalf("AppendEvent: %v", err)
	}

	if !strings.Contains(gotPath, "/spreadsheets/sheet-1/values/") || !strings.HasSuffix(gotPath, ":append") {
		t.Errorf("path = %s", gotPath)
	}
	if !strings.Contains(gotQuery, "valueInputOption=RAW") || !strings.Contains(gotQuery, "insertDataOption=INSERT_ROWS") {
		t.Errorf("query = %s", gotQuery)
	}
	if len(gotBody.Values) != 1 || len(gotBody.Values[0]) != 8 {
		t.Fatalf("values = %v", gotBody.Values)
	}
	if gotBody.Values[0][2] != "e-42" || gotBody.Values[0][3] != "Groceries" {
		t.Errorf("row = %v", gotBody.Values[0])
	}
}

func TestClient_AppendEventUninitialized(t *testing.T) {
	c := &Client{spreadsheetID: "test", logger: applog.Discard()}
	if err := c.AppendEvent(context.Background(), sampleEvent()); err == nil {
		t.Fatal("expected error when service is nil")
	}
}
