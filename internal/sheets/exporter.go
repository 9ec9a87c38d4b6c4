// Package sheets pushes generated reports into a Google spreadsheet using
// service account credentials. It is optional: the worker only wires it
// when a spreadsheet id is configured.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"fintrack/internal/report"
)

type Exporter struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

// NewExporter creates a Sheets client for the given spreadsheet. Credentials
// come from GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE or
// GOOGLE_APPLICATION_CREDENTIALS, in that order.
func NewExporter(ctx context.Context, spreadsheetID, sheetName string) (*Exporter, error) {
	if strings.TrimSpace(spreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	if strings.TrimSpace(sheetName) == "" {
		sheetName = "Reports"
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Exporter{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
	}, nil
}

func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	credentialsJSON := []byte(strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON")))
	if len(credentialsJSON) == 0 {
		file := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
		if file == "" {
			file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
		}
		if file == "" {
			return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
		}
		var err error
		credentialsJSON, err = os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	}

	return gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
}

// ExportReport replaces the sheet contents with the report's rows. The
// layout mirrors the CSV output: header, summary, monthly rollup, category
// breakdown, then the transaction log.
func (e *Exporter) ExportReport(ctx context.Context, r *report.Report) error {
	if e.svc == nil {
		return errors.New("sheets service not initialized")
	}

	rows := reportRows(r)

	clearRange := fmt.Sprintf("%s!A:F", e.sheetName)
	if _, err := e.svc.Spreadsheets.Values.Clear(e.spreadsheetID, clearRange, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear sheet %s: %w", e.sheetName, err)
	}

	writeRange := fmt.Sprintf("%s!A1", e.sheetName)
	vr := &gsheet.ValueRange{Values: rows}
	if _, err := e.svc.Spreadsheets.Values.Update(e.spreadsheetID, writeRange, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do(); err != nil {
		return fmt.Errorf("write report to sheet %s: %w", e.sheetName, err)
	}
	return nil
}

func reportRows(r *report.Report) [][]any {
	rows := [][]any{
		{"report_id", r.ReportID},
		{"generated_at", r.GeneratedAt.Format("2006-01-02T15:04:05Z")},
		{},
		{"income", "expense", "balance"},
		{r.Summary.Income.Amount(), r.Summary.Expense.Amount(), r.Summary.Balance.Amount()},
		{},
		{"month", "income", "expense"},
	}
	for _, p := range r.Monthly {
		rows = append(rows, []any{p.YM, p.Income.Amount(), p.Expense.Amount()})
	}
	rows = append(rows, []any{}, []any{"category", "amount"})
	for _, c := range r.Categories {
		rows = append(rows, []any{c.Name, c.Amount.Amount()})
	}
	rows = append(rows, []any{}, []any{"id", "type", "category", "amount", "tx_date", "description"})
	for _, tx := range r.Txs {
		rows = append(rows, []any{tx.ID, string(tx.Type), tx.Category, tx.Amount.Amount(), tx.Date.String(), tx.Description})
	}
	return rows
}
