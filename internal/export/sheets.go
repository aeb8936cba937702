// Package export pushes report snapshots to a Google Sheets spreadsheet.
package export

import (
	"context"
	"fmt"
	"os"

	gsheet "google.golang.org/api/sheets/v4"
	goption "google.golang.org/api/option"

	"carteira/internal/config"
	"carteira/internal/core"
	"carteira/internal/log"
	"carteira/internal/reports"
)

type Exporter struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
	logger        *log.Logger
}

// New builds an exporter from the configured service account
// credentials, inline JSON taking precedence over the file path.
func New(ctx context.Context, cfg *config.Config, logger *log.Logger) (*Exporter, error) {
	var credentials []byte
	switch {
	case cfg.GoogleCredentialsJSON != "":
		credentials = []byte(cfg.GoogleCredentialsJSON)
	case cfg.GoogleCredentialsFile != "":
		data, err := os.ReadFile(cfg.GoogleCredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read credentials file: %w", err)
		}
		credentials = data
	default:
		return nil, fmt.Errorf("missing Google credentials")
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentials),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return &Exporter{
		svc:           svc,
		spreadsheetID: cfg.GoogleSpreadsheetID,
		sheetName:     cfg.GoogleSheetName,
		logger:        logger.WithComponent(log.ComponentExport),
	}, nil
}

// Export overwrites the configured sheet with the report snapshot:
// a summary header, the monthly series, then the category breakdown.
func (e *Exporter) Export(ctx context.Context, summary reports.Summary, series []reports.MonthBucket, breakdown []reports.CategoryBreakdown) error {
	values := buildRows(summary, series, breakdown)

	rng := fmt.Sprintf("%s!A1", e.sheetName)
	vr := &gsheet.ValueRange{Values: values}
	_, err := e.svc.Spreadsheets.Values.Update(e.spreadsheetID, rng, vr).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("update sheet values: %w", err)
	}

	e.logger.InfoContext(ctx, "report exported",
		"rows", len(values),
		"sheet", e.sheetName)
	return nil
}

func buildRows(summary reports.Summary, series []reports.MonthBucket, breakdown []reports.CategoryBreakdown) [][]any {
	values := [][]any{
		{"Summary"},
		{"Income", core.FormatPlain(summary.Income)},
		{"Expenses", core.FormatPlain(summary.Expense)},
		{"Balance", core.FormatPlain(summary.Balance)},
		{"Transactions", summary.Transactions},
		{},
		{"Month", "Income", "Expenses", "Balance"},
	}
	for _, b := range series {
		values = append(values, []any{
			fmt.Sprintf("%04d-%02d", b.Year, int(b.Month)),
			core.FormatPlain(b.Income),
			core.FormatPlain(b.Expense),
			core.FormatPlain(b.Balance),
		})
	}
	values = append(values, []any{}, []any{"Category", "Total", "Share"})
	for _, c := range breakdown {
		values = append(values, []any{
			c.Category,
			core.FormatPlain(c.Total),
			fmt.Sprintf("%.1f%%", c.Percentage),
		})
	}
	return values
}
