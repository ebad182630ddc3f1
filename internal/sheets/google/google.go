// Package google writes monthly reports to a Google spreadsheet through the
// Sheets v4 API, authenticated with a service account.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	ports "cartao/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
}

var _ ports.ReportWriter = (*Client)(nil)

// Config selects the spreadsheet and the service account. CredentialsJSON
// takes precedence over CredentialsFile.
type Config struct {
	SpreadsheetID   string
	CredentialsJSON string
	CredentialsFile string
}

// New creates a client authenticated with the configured service account.
func New(ctx context.Context, cfg Config) (*Client, error) {
	creds, err := serviceAccountJSON(cfg)
	if err != nil {
		return nil, err
	}
	return newWithOptions(ctx, cfg.SpreadsheetID,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope))
}

func newWithOptions(ctx context.Context, spreadsheetID string, opts ...goption.ClientOption) (*Client, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &Client{svc: svc, spreadsheetID: spreadsheetID}, nil
}

func serviceAccountJSON(cfg Config) ([]byte, error) {
	if v := strings.TrimSpace(cfg.CredentialsJSON); v != "" {
		return []byte(v), nil
	}
	if cfg.CredentialsFile == "" {
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE)")
	}
	data, err := os.ReadFile(cfg.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read service account file: %w", err)
	}
	return data, nil
}

// WriteTab replaces the content of tab with rows, creating the tab when the
// spreadsheet does not have it yet.
func (c *Client) WriteTab(ctx context.Context, tab string, rows [][]any) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	if err := c.ensureTab(ctx, tab); err != nil {
		return err
	}

	rng := quoteTab(tab)
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, rng, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear %s: %w", rng, err)
	}

	start := rng + "!A1"
	resp, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, start, &gsheet.ValueRange{Values: rows}).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update %s: %w", start, err)
	}
	slog.DebugContext(ctx, "Sheet tab written",
		"spreadsheet_id", c.spreadsheetID,
		"tab", tab,
		"updated_rows", resp.UpdatedRows)
	return nil
}

func (c *Client) ensureTab(ctx context.Context, tab string) error {
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read spreadsheet %s: %w", c.spreadsheetID, err)
	}
	for _, sh := range ss.Sheets {
		if sh.Properties != nil && sh.Properties.Title == tab {
			return nil
		}
	}

	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			AddSheet: &gsheet.AddSheetRequest{
				Properties: &gsheet.SheetProperties{Title: tab},
			},
		}},
	}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("add tab %s: %w", tab, err)
	}
	slog.InfoContext(ctx, "Created sheet tab", "spreadsheet_id", c.spreadsheetID, "tab", tab)
	return nil
}

// quoteTab quotes a tab name for A1 notation; "2025-04" would otherwise be
// read as an arithmetic expression.
func quoteTab(tab string) string {
	return "'" + strings.ReplaceAll(tab, "'", "''") + "'"
}
