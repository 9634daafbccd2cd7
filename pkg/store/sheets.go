package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"framelabel/pkg/config"
	"framelabel/pkg/logger"
	"framelabel/pkg/models"
)

// Sheets stores annotations as rows of a Google Sheets worksheet. Row 1
// is the header; every annotation is one appended row in header order.
type Sheets struct {
	svc           *sheets.Service
	spreadsheetID string
	worksheet     string
}

// OpenSheets builds the Sheets client and makes sure the worksheet
// carries the header row. Passing no credentials file falls back to
// application default credentials.
func OpenSheets(ctx context.Context, cfg config.SheetsConfig) (*Sheets, error) {
	logger.Info("opening_sheets_store", "spreadsheet", cfg.SpreadsheetID, "worksheet", cfg.Worksheet)
	opts := []option.ClientOption{option.WithScopes(sheets.SpreadsheetsScope)}
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		logger.Error("sheets_client_failed", "err", err)
		return nil, fmt.Errorf("build sheets client: %w", err)
	}
	s := &Sheets{svc: svc, spreadsheetID: cfg.SpreadsheetID, worksheet: cfg.Worksheet}
	if err := s.EnsureHeader(ctx); err != nil {
		return nil, err
	}
	logger.Info("sheets_store_opened", "spreadsheet", cfg.SpreadsheetID)
	return s, nil
}

// rangeAll covers the five annotation columns of the worksheet.
func (s *Sheets) rangeAll() string {
	return fmt.Sprintf("'%s'!A:E", strings.ReplaceAll(s.worksheet, "'", "''"))
}

func (s *Sheets) rangeHeader() string {
	return fmt.Sprintf("'%s'!A1:E1", strings.ReplaceAll(s.worksheet, "'", "''"))
}

// EnsureHeader writes the canonical header row when the worksheet is
// empty. It doubles as the startup connectivity check.
func (s *Sheets) EnsureHeader(ctx context.Context) error {
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, s.rangeHeader()).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read worksheet header: %w", err)
	}
	if len(resp.Values) > 0 {
		return nil
	}
	row := make([]interface{}, len(models.AnnotationHeader))
	for i, h := range models.AnnotationHeader {
		row[i] = h
	}
	vr := &sheets.ValueRange{Values: [][]interface{}{row}}
	_, err = s.svc.Spreadsheets.Values.Update(s.spreadsheetID, s.rangeHeader(), vr).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write worksheet header: %w", err)
	}
	logger.Info("sheets_header_written", "worksheet", s.worksheet)
	return nil
}

func (s *Sheets) Append(ctx context.Context, a models.Annotation) (err error) {
	defer func() { observeAppend("sheets", err) }()
	cells := a.Row()
	row := make([]interface{}, len(cells))
	for i, c := range cells {
		row[i] = c
	}
	vr := &sheets.ValueRange{Values: [][]interface{}{row}}
	_, err = s.svc.Spreadsheets.Values.Append(s.spreadsheetID, s.rangeAll(), vr).
		ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		logger.Error("annotation_append_failed", "backend", "sheets", "err", err)
		return err
	}
	logger.Debug("annotation_appended", "backend", "sheets",
		"annotator", a.AnnotatorID, "sentence", a.SentenceID)
	return nil
}

func (s *Sheets) ListAll(ctx context.Context) ([]models.Annotation, error) {
	defer observeList("sheets", time.Now())
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, s.rangeAll()).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read worksheet: %w", err)
	}
	out := []models.Annotation{}
	for i, row := range resp.Values {
		if i == 0 {
			// header row
			continue
		}
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = cellString(v)
		}
		out = append(out, models.FromRow(cells))
	}
	return out, nil
}

// Close is a no-op; the sheets client holds no local resources.
func (s *Sheets) Close() error { return nil }

func cellString(v interface{}) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
