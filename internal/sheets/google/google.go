package google

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
	htransport "google.golang.org/api/transport/http"

	"expensetracker/internal/core"
	applog "expensetracker/internal/log"
	ports "expensetracker/internal/sheets"
)

const dateLayout = "2006-01-02"

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
	logger        *applog.Logger
}

// Ensure interface conformance
var _ ports.EventSink = (*Client)(nil)

// Config selects the spreadsheet and the service account used to write it.
// ServiceAccountJSON wins over ServiceAccountFile.
type Config struct {
	SpreadsheetID      string
	SheetName          string
	ServiceAccountJSON string
	ServiceAccountFile string
}

// NewFromConfig creates a Sheets client authenticated with a service account.
func NewFromConfig(ctx context.Context, cfg Config, logger *applog.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	credentialsJSON, err := loadCredentials(cfg)
	if err != nil {
		return nil, err
	}

	trans, err := htransport.NewTransport(ctx, newPooledTransport(),
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("sheets transport: %w", err)
	}
	svc, err := gsheet.NewService(ctx, goption.WithHTTPClient(&http.Client{
		Transport: trans,
		Timeout:   60 * time.Second,
	}))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return newClient(svc, cfg, logger), nil
}

func newClient(svc *gsheet.Service, cfg Config, logger *applog.Logger) *Client {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	sheetName := strings.TrimSpace(cfg.SheetName)
	if sheetName == "" {
		sheetName = "Expenses"
	}
	return &Client{
		svc:           svc,
		spreadsheetID: strings.TrimSpace(cfg.SpreadsheetID),
		sheetName:     sheetName,
		logger:        logger.WithComponent(applog.ComponentSheets),
	}
}

func loadCredentials(cfg Config) ([]byte, error) {
	switch {
	case strings.TrimSpace(cfg.ServiceAccountJSON) != "":
		return []byte(cfg.ServiceAccountJSON), nil
	case strings.TrimSpace(cfg.ServiceAccountFile) != "":
		data, err := os.ReadFile(cfg.ServiceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return data, nil
	}
	return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE)")
}

// newPooledTransport is the base transport under the authenticated one.
func newPooledTransport() *http.Transport {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	return &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		MaxConnsPerHost:       50,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
	}
}

// AppendEvent adds one row for ev below the last used row of the sheet.
func (c *Client) AppendEvent(ctx context.Context, ev core.ExpenseEvent) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	rng := fmt.Sprintf("%s!A:H", c.sheetName)
	vr := &gsheet.ValueRange{Values: [][]any{eventRow(ev)}}
	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append to sheet %s: %w", c.sheetName, err)
	}

	ref := ""
	if resp.Updates != nil {
		ref = resp.Updates.UpdatedRange
	}
	c.logger.InfoContext(ctx, "Appended expense event to sheet",
		applog.FieldEventType, ev.Type,
		applog.FieldExpenseID, ev.ID,
		"range", ref)
	return nil
}

// eventRow lays out timestamp, event, id, title, amount, category, date, notes.
func eventRow(ev core.ExpenseEvent) []any {
	e := ev.Expense
	date := ""
	if !e.Date.IsZero() {
		date = e.Date.UTC().Format(dateLayout)
	}
	return []any{
		ev.Timestamp.UTC().Format(time.RFC3339),
		string(ev.Type),
		ev.ID,
		e.Title,
		e.Amount,
		e.Category,
		date,
		e.Notes,
	}
}
