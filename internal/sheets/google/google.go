package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"tracker/internal/core"
	"tracker/internal/log"
	ports "tracker/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Header is written once, when the target sheet is empty.
var Header = []any{"Exported At", "Title", "Amount", "Category", "Type", "Note", "Filter Type", "Filter Category"}

type Config struct {
	SpreadsheetID string
	// SheetName is the base tab name; the current year is prefixed unless
	// the name already starts with one.
	SheetName       string
	CredentialsJSON string
	CredentialsFile string
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetBase     string
	logger        *log.Logger
	now           func() time.Time
}

var _ ports.Exporter = (*Client)(nil)

// New creates a Sheets exporter authenticated with a service account.
func New(ctx context.Context, cfg Config, logger *log.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	svc, err := newSheetsService(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return NewWithService(svc, cfg, logger), nil
}

// NewWithService wraps an existing service, e.g. one pointed at a test server.
func NewWithService(svc *gsheet.Service, cfg Config, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.Discard()
	}
	base := strings.TrimSpace(cfg.SheetName)
	if base == "" {
		base = "Expenses"
	}
	return &Client{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		sheetBase:     base,
		logger:        logger.WithComponent(log.ComponentSheets),
		now:           time.Now,
	}
}

// newSheetsService initializes a Sheets Service using Service Account
// credentials, inline JSON first, then the file, then
// GOOGLE_APPLICATION_CREDENTIALS.
func newSheetsService(ctx context.Context, cfg Config) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(cfg.CredentialsJSON)
	serviceAccountFile := strings.TrimSpace(cfg.CredentialsFile)
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		b, err := os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = b
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// SheetName is the tab the next export goes to.
func (c *Client) SheetName() string {
	return yearPrefixedName(c.sheetBase, c.now().Year())
}

// Export appends one row per expense, preceded by a header on an empty sheet.
// Values are written RAW so user text is never parsed as a formula.
func (c *Client) Export(ctx context.Context, e ports.Export) (ports.Result, error) {
	if c.svc == nil {
		return ports.Result{}, errors.New("sheets service not initialized")
	}
	sheet := c.SheetName()
	at := e.At
	if at.IsZero() {
		at = c.now()
	}

	head, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, fmt.Sprintf("%s!A1:A1", quoteSheet(sheet))).Context(ctx).Do()
	if err != nil {
		return ports.Result{}, fmt.Errorf("read header of %s: %w", sheet, err)
	}

	rows := exportRows(e.Expenses, e.Filters, at)
	if len(head.Values) == 0 {
		rows = append([][]any{Header}, rows...)
	}
	if len(rows) == 0 {
		return ports.Result{}, nil
	}

	vr := &gsheet.ValueRange{Values: rows}
	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, fmt.Sprintf("%s!A:H", quoteSheet(sheet)), vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return ports.Result{}, fmt.Errorf("append to %s: %w", sheet, err)
	}

	res := ports.Result{Rows: len(rows)}
	if resp.Updates != nil {
		res.Range = resp.Updates.UpdatedRange
		res.Rows = int(resp.Updates.UpdatedRows)
	}

	c.logger.InfoContext(ctx, "Exported expenses",
		log.FieldOperation, log.OpExport,
		log.FieldSessionID, e.SessionID,
		log.FieldCount, len(e.Expenses),
		"range", res.Range)
	return res, nil
}

func exportRows(expenses []core.Expense, f core.Filters, at time.Time) [][]any {
	stamp := at.UTC().Format(time.RFC3339)
	rows := make([][]any, 0, len(expenses))
	for _, e := range expenses {
		rows = append(rows, []any{
			stamp,
			e.Title,
			e.Amount.String(),
			e.Category,
			e.Type.String(),
			e.NoteOrDefault(),
			f.Type,
			f.Category,
		})
	}
	return rows
}

// quoteSheet quotes a tab name for A1 notation; names with spaces need it.
func quoteSheet(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

// yearPrefixedName returns "<year> <base>" unless base already starts with a 4-digit year.
func yearPrefixedName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return base
	}
	if len(base) >= 5 {
		if y, err := strconv.Atoi(base[0:4]); err == nil && base[4] == ' ' && y > 1900 && y < 3000 {
			return base
		}
	}
	return fmt.Sprintf("%d %s", year, base)
}
