package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"bilancio/internal/core"
	applog "bilancio/internal/log"
	ports "bilancio/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// rollupRange is the block of twelve month rows below the header row.
const rollupRange = "A2:D13"

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	// Base sheet name without year (e.g. "Rollup"); the year and account id
	// are added per write.
	sheetBase string
	now       func() time.Time
}

// Ensure interface conformance
var (
	_ ports.RollupWriter = (*Client)(nil)
	_ ports.RollupReader = (*Client)(nil)
)

// Config selects the spreadsheet and the service account credentials.
// CredentialsJSON wins over CredentialsFile when both are set.
type Config struct {
	SpreadsheetID   string
	SheetBase       string
	CredentialsJSON string
	CredentialsFile string
}

func New(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	base := strings.TrimSpace(cfg.SheetBase)
	if base == "" {
		base = "Rollup"
	}
	svc, err := newSheetsService(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return &Client{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		sheetBase:     base,
		now:           time.Now,
	}, nil
}

// newSheetsService initializes a Sheets service from service account
// credentials given inline, as a file, or through GOOGLE_APPLICATION_CREDENTIALS.
func newSheetsService(ctx context.Context, cfg Config) (*gsheet.Service, error) {
	credsJSON := strings.TrimSpace(cfg.CredentialsJSON)
	credsFile := strings.TrimSpace(cfg.CredentialsFile)
	if credsJSON == "" && credsFile == "" {
		credsFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var data []byte
	switch {
	case credsJSON != "":
		data = []byte(credsJSON)
	case credsFile != "":
		var err error
		data, err = os.ReadFile(credsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(data),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	slog.InfoContext(ctx, "Google Sheets service created",
		applog.FieldComponent, applog.ComponentSheets)
	return svc, nil
}

func (c *Client) sheetName(accountID string) string {
	return yearPrefixedName(c.sheetBase+" "+accountID, c.now().Year())
}

// WriteRollup overwrites the twelve month rows of the account's sheet.
func (c *Client) WriteRollup(ctx context.Context, accountID string, buckets []core.MonthBucket) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	rng := fmt.Sprintf("%s!%s", c.sheetName(accountID), rollupRange)
	vr := &gsheet.ValueRange{Values: rollupValues(buckets)}

	_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update %s: %w", rng, err)
	}
	slog.InfoContext(ctx, "Rollup written",
		applog.FieldAccountID, accountID,
		"range", rng)
	return nil
}

// ReadRollup returns the month rows currently in the account's sheet.
func (c *Client) ReadRollup(ctx context.Context, accountID string) ([]core.MonthBucket, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	rng := fmt.Sprintf("%s!%s", c.sheetName(accountID), rollupRange)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).
		ValueRenderOption("UNFORMATTED_VALUE").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	return parseRollup(resp.Values)
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
