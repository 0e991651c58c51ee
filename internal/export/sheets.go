package export

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

const sheetsScope = "https://www.googleapis.com/auth/spreadsheets"

// SheetsWriter pushes tables to Google Sheets.
type SheetsWriter struct {
	srv *sheets.Service
}

// NewSheetsWriterFromFile authenticates with a service-account JSON key.
func NewSheetsWriterFromFile(ctx context.Context, credentialsFile string) (*SheetsWriter, error) {
	raw, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("export: read credentials: %w", err)
	}
	cfg, err := google.JWTConfigFromJSON(raw, sheetsScope)
	if err != nil {
		return nil, fmt.Errorf("export: parse credentials: %w", err)
	}
	return NewSheetsWriter(ctx, option.WithHTTPClient(cfg.Client(ctx)))
}

func NewSheetsWriter(ctx context.Context, opts ...option.ClientOption) (*SheetsWriter, error) {
	srv, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("export: sheets client: %w", err)
	}
	return &SheetsWriter{srv: srv}, nil
}

// Write replaces the content of tab sheetName with t, adding the tab when
// the spreadsheet does not have it. It returns the number of rows written,
// header included.
func (w *SheetsWriter) Write(ctx context.Context, spreadsheetID, sheetName string, t Table) (int, error) {
	if sheetName == "" {
		sheetName = SheetName
	}
	doc, err := w.srv.Spreadsheets.Get(spreadsheetID).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("export: open spreadsheet: %w", err)
	}
	exists := false
	for _, s := range doc.Sheets {
		if s.Properties != nil && s.Properties.Title == sheetName {
			exists = true
			break
		}
	}
	if !exists {
		_, err = w.srv.Spreadsheets.BatchUpdate(spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
			Requests: []*sheets.Request{{
				AddSheet: &sheets.AddSheetRequest{
					Properties: &sheets.SheetProperties{Title: sheetName},
				},
			}},
		}).Context(ctx).Do()
		if err != nil {
			return 0, fmt.Errorf("export: add sheet %q: %w", sheetName, err)
		}
	}

	values := t.Values()
	_, err = w.srv.Spreadsheets.Values.Update(spreadsheetID, sheetName, &sheets.ValueRange{Values: values}).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("export: update values: %w", err)
	}
	return len(values), nil
}
