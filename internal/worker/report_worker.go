// Package worker builds report files out of queued export requests. It
// consumes requests from AMQP, renders the CSV into the report directory
// and optionally pushes the result to a Google spreadsheet.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/report"
)

// SheetExporter is the optional spreadsheet sink.
type SheetExporter interface {
	ExportReport(ctx context.Context, r *report.Report) error
}

type ReportWorker struct {
	builder   *report.Builder
	exporter  SheetExporter
	reportDir string
	maxAge    time.Duration
}

// NewReportWorker wires a worker over the given store. exporter may be nil
// when no spreadsheet is configured.
func NewReportWorker(store report.Store, exporter SheetExporter, reportDir string, maxAge time.Duration) *ReportWorker {
	if maxAge <= 0 {
		maxAge = 7 * 24 * time.Hour
	}
	return &ReportWorker{
		builder:   report.NewBuilder(store),
		exporter:  exporter,
		reportDir: reportDir,
		maxAge:    maxAge,
	}
}

// HandleReportRequest builds and saves one requested report. A spreadsheet
// export failure is logged but does not fail the request: the CSV on disk
// is the primary artifact.
func (w *ReportWorker) HandleReportRequest(ctx context.Context, msg *amqp.ReportRequest) error {
	slog.InfoContext(ctx, "Processing report request",
		"report_id", msg.ReportID,
		"user_id", msg.UserID)

	r, err := w.builder.Build(ctx, msg.ReportID, msg.UserID)
	if err != nil {
		return fmt.Errorf("build report: %w", err)
	}

	path, err := report.BuildAndSave(w.reportDir, r)
	if err != nil {
		return fmt.Errorf("save report: %w", err)
	}

	if w.exporter != nil {
		if err := w.exporter.ExportReport(ctx, r); err != nil {
			slog.ErrorContext(ctx, "Failed to export report to spreadsheet",
				"report_id", msg.ReportID,
				"error", err)
		} else {
			slog.InfoContext(ctx, "Report exported to spreadsheet", "report_id", msg.ReportID)
		}
	}

	slog.InfoContext(ctx, "Report built",
		"report_id", msg.ReportID,
		"user_id", msg.UserID,
		"path", path,
		"transactions", len(r.Txs))

	return nil
}

// SweepOldReports deletes report files older than the retention window and
// returns how many were removed.
func (w *ReportWorker) SweepOldReports(ctx context.Context) (int, error) {
	entries, err := os.ReadDir(w.reportDir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("read report dir: %w", err)
	}

	cutoff := time.Now().Add(-w.maxAge)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".csv" {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(w.reportDir, entry.Name())
		if err := os.Remove(path); err != nil {
			slog.ErrorContext(ctx, "Failed to remove old report", "path", path, "error", err)
			continue
		}
		removed++
	}

	if removed > 0 {
		slog.InfoContext(ctx, "Swept old reports", "removed", removed)
	}
	return removed, nil
}

// RunSweeper runs SweepOldReports on the given interval until the context
// is cancelled.
func (w *ReportWorker) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := w.SweepOldReports(ctx); err != nil {
				slog.ErrorContext(ctx, "Report sweep failed", "error", err)
			}
		}
	}
}
