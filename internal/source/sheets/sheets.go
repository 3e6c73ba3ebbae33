// Package sheets reads transaction records from a Google spreadsheet
// acting as the source of record. Each row of the configured sheet is one
// transaction: id, date, description, amount, kind, category, status,
// last-modified timestamp.
//
// The spreadsheet cannot serve profile data, so FetchProfile reports the
// source unavailable and the reconciler falls back to a default profile.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"bilancio/internal/core"
	"bilancio/internal/source"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

var _ source.Client = (*Client)(nil)

// NewFromEnv creates a Sheets-backed source using environment variables.
// Required: GOOGLE_SPREADSHEET_ID. Auth comes from
// GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or
// GOOGLE_APPLICATION_CREDENTIALS. GOOGLE_SHEET_NAME defaults to
// "Transactions".
func NewFromEnv(ctx context.Context) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	sheetName := strings.TrimSpace(os.Getenv("GOOGLE_SHEET_NAME"))
	if sheetName == "" {
		sheetName = "Transactions"
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{svc: svc, spreadsheetID: spreadsheetID, sheetName: sheetName}, nil
}

func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error
	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsReadonlyScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return svc, nil
}

// FetchTransactions reads every data row of the sheet. Rows that do not
// parse are skipped with a warning rather than failing the batch; an
// unreachable API surfaces as source.ErrUnavailable.
func (c *Client) FetchTransactions(ctx context.Context, subjectID, _ string) ([]core.TransactionRecord, error) {
	readRange := c.sheetName + "!A2:H"
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, readRange).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("%w: read range %s: %v", source.ErrUnavailable, readRange, err)
	}

	records := make([]core.TransactionRecord, 0, len(resp.Values))
	for i, row := range resp.Values {
		rec, err := parseRow(subjectID, row)
		if err != nil {
			slog.WarnContext(ctx, "Skipping unparsable sheet row",
				"row", i+2, "error", err)
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// FetchProfile is not served by a spreadsheet.
func (c *Client) FetchProfile(ctx context.Context, subjectID, _ string) (core.Profile, error) {
	return core.Profile{}, fmt.Errorf("%w: sheet source has no profile data", source.ErrUnavailable)
}

func parseRow(subjectID string, row []any) (core.TransactionRecord, error) {
	if len(row) < 8 {
		return core.TransactionRecord{}, fmt.Errorf("expected 8 columns, got %d", len(row))
	}

	cells := make([]string, 8)
	for i := 0; i < 8; i++ {
		s, ok := row[i].(string)
		if !ok {
			return core.TransactionRecord{}, fmt.Errorf("column %d is not a string", i)
		}
		cells[i] = strings.TrimSpace(s)
	}

	occurredAt, err := time.Parse("2006-01-02", cells[1])
	if err != nil {
		return core.TransactionRecord{}, fmt.Errorf("parse date %q: %w", cells[1], err)
	}

	cents, err := core.ParseDecimalToCents(cells[3])
	if err != nil {
		return core.TransactionRecord{}, fmt.Errorf("parse amount %q: %w", cells[3], err)
	}

	lastModified, err := time.Parse(time.RFC3339, cells[7])
	if err != nil {
		return core.TransactionRecord{}, fmt.Errorf("parse lastModified %q: %w", cells[7], err)
	}

	rec := core.TransactionRecord{
		OriginalID:     cells[0],
		SubjectID:      subjectID,
		Description:    cells[2],
		Amount:         core.Money{Cents: cents},
		Kind:           core.Kind(strings.ToLower(cells[4])),
		Category:       cells[5],
		OccurredAt:     occurredAt.UTC(),
		Status:         core.Status(strings.ToLower(cells[6])),
		LastModifiedAt: lastModified.UTC(),
	}
	if err := rec.Validate(); err != nil {
		return core.TransactionRecord{}, err
	}
	return rec, nil
}
