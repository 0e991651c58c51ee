package service

import (
	"bytes"
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/trytools18/reputation-grove-2ebe90a0-sub000/internal/export"
	"github.com/trytools18/reputation-grove-2ebe90a0-sub000/internal/repository"
)

type sheetWriter interface {
	Write(ctx context.Context, spreadsheetID, sheetName string, t export.Table) (int, error)
}

type ExportService struct {
	forms     *FormService
	questions *repository.QuestionRepo
	subs      *repository.SubmissionRepo
	log       *zap.Logger

	// newSheets is nil when no Google credentials are configured.
	newSheets func(ctx context.Context) (sheetWriter, error)
}

// NewExportService wires the exporter. credentialsFile may be empty, which
// disables Google Sheets sync.
func NewExportService(forms *FormService, questions *repository.QuestionRepo, subs *repository.SubmissionRepo, credentialsFile string, logger *zap.Logger) *ExportService {
	s := &ExportService{forms: forms, questions: questions, subs: subs, log: logger}
	if credentialsFile != "" {
		s.newSheets = func(ctx context.Context) (sheetWriter, error) {
			return export.NewSheetsWriterFromFile(ctx, credentialsFile)
		}
	}
	return s
}

// Download is a rendered export file.
type Download struct {
	Filename string
	Data     []byte
}

// Table builds the response table of a form the actor owns.
func (s *ExportService) Table(actor Actor, formID string) (export.Table, string, error) {
	form, err := s.forms.Get(actor, formID)
	if err != nil {
		return export.Table{}, "", err
	}
	qs, err := s.questions.FindByForm(form.ID)
	if err != nil {
		return export.Table{}, "", err
	}
	subs, err := s.subs.FindAllByFormID(form.ID)
	if err != nil {
		return export.Table{}, "", err
	}
	return export.BuildTable(qs, subs), form.Slug, nil
}

func (s *ExportService) XLSX(actor Actor, formID string) (*Download, error) {
	t, slug, err := s.Table(actor, formID)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, t); err != nil {
		return nil, err
	}
	return &Download{Filename: slug + "-responses.xlsx", Data: buf.Bytes()}, nil
}

type SyncResult struct {
	SpreadsheetID string `json:"spreadsheetId"`
	Sheet         string `json:"sheet"`
	Rows          int    `json:"rows"`
}

// SyncSheets writes the response table into a Google Sheets tab.
func (s *ExportService) SyncSheets(ctx context.Context, actor Actor, formID, spreadsheetID, sheetName string) (*SyncResult, error) {
	if s.newSheets == nil {
		return nil, invalidf("google sheets export is not configured")
	}
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, invalidf("spreadsheetId is required")
	}
	if sheetName = strings.TrimSpace(sheetName); sheetName == "" {
		sheetName = export.SheetName
	}
	t, _, err := s.Table(actor, formID)
	if err != nil {
		return nil, err
	}
	w, err := s.newSheets(ctx)
	if err != nil {
		s.log.Error("sheets client", zap.Error(err))
		return nil, &userError{kind: ErrUpstream, msg: "google sheets is unavailable"}
	}
	rows, err := w.Write(ctx, spreadsheetID, sheetName, t)
	if err != nil {
		s.log.Warn("sheets sync failed", zap.String("form", formID), zap.Error(err))
		return nil, &userError{kind: ErrUpstream, msg: err.Error()}
	}
	s.log.Info("sheets sync", zap.String("form", formID), zap.String("spreadsheet", spreadsheetID), zap.Int("rows", rows))
	return &SyncResult{SpreadsheetID: spreadsheetID, Sheet: sheetName, Rows: rows}, nil
}
