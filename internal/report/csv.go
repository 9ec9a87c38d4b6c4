package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"fintrack/internal/core"
)

// WriteCSV renders the report as a single CSV document with one section
// per view, separated by blank lines.
func WriteCSV(w io.Writer, r *Report) error {
	cw := csv.NewWriter(w)

	records := [][]string{
		{"report_id", r.ReportID},
		{"user_id", strconv.FormatInt(r.UserID, 10)},
		{"generated_at", r.GeneratedAt.Format("2006-01-02T15:04:05Z")},
		{},
		{"summary"},
		{"income", "expense", "balance"},
		{formatMoney(r.Summary.Income), formatMoney(r.Summary.Expense), formatMoney(r.Summary.Balance)},
		{},
		{"by_month"},
		{"month", "income", "expense"},
	}
	for _, p := range r.Monthly {
		records = append(records, []string{p.YM, formatMoney(p.Income), formatMoney(p.Expense)})
	}
	records = append(records,
		[]string{},
		[]string{"expenses_by_category"},
		[]string{"category", "amount"},
	)
	for _, c := range r.Categories {
		records = append(records, []string{c.Name, formatMoney(c.Amount)})
	}
	records = append(records,
		[]string{},
		[]string{"transactions"},
		[]string{"id", "type", "category", "amount", "tx_date", "description"},
	)
	for _, tx := range r.Txs {
		records = append(records, []string{
			strconv.FormatInt(tx.ID, 10),
			string(tx.Type),
			tx.Category,
			formatMoney(tx.Amount),
			tx.Date.String(),
			tx.Description,
		})
	}

	for _, rec := range records {
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write csv record: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// BuildAndSave renders the report to <dir>/<report_id>.csv and returns the
// written path.
func BuildAndSave(dir string, r *Report) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}
	path := filepath.Join(dir, r.ReportID+".csv")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create report file: %w", err)
	}
	defer f.Close()

	if err := WriteCSV(f, r); err != nil {
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close report file: %w", err)
	}
	return path, nil
}

func formatMoney(m core.Money) string {
	return strconv.FormatFloat(m.Amount(), 'f', -1, 64)
}
