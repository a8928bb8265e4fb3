package sinks

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"tender-scraper/storage"
	"tender-scraper/utils"
)

// GoogleSheets appends rows to worksheets of one spreadsheet, creating a
// worksheet with a bold header row the first time a name is used.
type GoogleSheets struct {
	service       *sheets.Service
	spreadsheetID string
	logger        *utils.Logger

	mu    sync.Mutex
	ready map[string]bool
}

// NewGoogleSheets authenticates with a service-account key file.
func NewGoogleSheets(ctx context.Context, keyFile, spreadsheetID string, logger *utils.Logger) (*GoogleSheets, error) {
	data, err := os.ReadFile(keyFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read service account file: %w", err)
	}

	config, err := google.JWTConfigFromJSON(data, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse service account: %w", err)
	}

	service, err := sheets.NewService(ctx, option.WithHTTPClient(config.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("unable to create Sheets service: %w", err)
	}
	return NewGoogleSheetsWithService(service, spreadsheetID, logger), nil
}

// NewGoogleSheetsWithService wraps an existing service.
func NewGoogleSheetsWithService(service *sheets.Service, spreadsheetID string, logger *utils.Logger) *GoogleSheets {
	return &GoogleSheets{
		service:       service,
		spreadsheetID: spreadsheetID,
		logger:        logger.Component("sheets"),
		ready:         make(map[string]bool),
	}
}

// Append writes one USER_ENTERED row below the existing data.
func (g *GoogleSheets) Append(ctx context.Context, sheet string, header []string, row []any) error {
	if err := g.ensureSheet(ctx, sheet, header); err != nil {
		return err
	}

	vr := &sheets.ValueRange{Values: [][]interface{}{storage.SheetValues(row)}}
	_, err := g.service.Spreadsheets.Values.Append(g.spreadsheetID, a1(sheet), vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("sheets: append to %q: %w", sheet, err)
	}
	return nil
}

// ensureSheet makes sure the worksheet exists and its first row holds the
// header. A sheet counts as ready only once the header is in place, so a
// failed header write is finished by the next call.
func (g *GoogleSheets) ensureSheet(ctx context.Context, sheet string, header []string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.ready[sheet] {
		return nil
	}

	ss, err := g.service.Spreadsheets.Get(g.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("sheets: get spreadsheet: %w", err)
	}

	sheetID, found := int64(0), false
	for _, s := range ss.Sheets {
		if s.Properties != nil && s.Properties.Title == sheet {
			sheetID, found = s.Properties.SheetId, true
			break
		}
	}

	if found {
		headed, err := g.hasHeader(ctx, sheet)
		if err != nil {
			return err
		}
		if headed {
			g.ready[sheet] = true
			return nil
		}
	} else {
		sheetID, err = g.addSheet(ctx, sheet, len(header))
		if err != nil {
			return err
		}
	}

	headerRow := make([]interface{}, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	_, err = g.service.Spreadsheets.Values.Update(g.spreadsheetID, a1(sheet),
		&sheets.ValueRange{Values: [][]interface{}{headerRow}}).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("sheets: write header of %q: %w", sheet, err)
	}
	g.ready[sheet] = true

	g.boldHeader(ctx, sheetID)
	return nil
}

func (g *GoogleSheets) addSheet(ctx context.Context, sheet string, columns int) (int64, error) {
	add := &sheets.BatchUpdateSpreadsheetRequest{Requests: []*sheets.Request{{
		AddSheet: &sheets.AddSheetRequest{Properties: &sheets.SheetProperties{
			Title: sheet,
			GridProperties: &sheets.GridProperties{
				RowCount:    1000,
				ColumnCount: int64(columns),
			},
		}},
	}}}
	resp, err := g.service.Spreadsheets.BatchUpdate(g.spreadsheetID, add).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("sheets: add sheet %q: %w", sheet, err)
	}
	if len(resp.Replies) == 0 || resp.Replies[0].AddSheet == nil || resp.Replies[0].AddSheet.Properties == nil {
		return 0, fmt.Errorf("sheets: add sheet %q: empty reply", sheet)
	}
	return resp.Replies[0].AddSheet.Properties.SheetId, nil
}

// hasHeader reports whether the first row of sheet holds any value.
func (g *GoogleSheets) hasHeader(ctx context.Context, sheet string) (bool, error) {
	vr, err := g.service.Spreadsheets.Values.Get(g.spreadsheetID, firstRow(sheet)).Context(ctx).Do()
	if err != nil {
		return false, fmt.Errorf("sheets: read header of %q: %w", sheet, err)
	}
	for _, row := range vr.Values {
		for _, v := range row {
			if fmt.Sprint(v) != "" {
				return true, nil
			}
		}
	}
	return false, nil
}

// boldHeader is cosmetic; failures are only logged.
func (g *GoogleSheets) boldHeader(ctx context.Context, sheetID int64) {
	req := &sheets.BatchUpdateSpreadsheetRequest{Requests: []*sheets.Request{{
		RepeatCell: &sheets.RepeatCellRequest{
			Range: &sheets.GridRange{SheetId: sheetID, StartRowIndex: 0, EndRowIndex: 1},
			Cell: &sheets.CellData{UserEnteredFormat: &sheets.CellFormat{
				TextFormat: &sheets.TextFormat{Bold: true},
			}},
			Fields: "userEnteredFormat.textFormat.bold",
		},
	}}}
	if _, err := g.service.Spreadsheets.BatchUpdate(g.spreadsheetID, req).Context(ctx).Do(); err != nil {
		g.logger.Warn("could not bold header of sheet %d: %v", sheetID, err)
	}
}

// a1 addresses the first cell of a worksheet, quoting the title.
func a1(sheet string) string {
	return quoteTitle(sheet) + "!A1"
}

func firstRow(sheet string) string {
	return quoteTitle(sheet) + "!1:1"
}

func quoteTitle(sheet string) string {
	return "'" + strings.ReplaceAll(sheet, "'", "''") + "'"
}
