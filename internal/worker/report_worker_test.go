package worker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/report"
)

type stubStore struct {
	txs []core.Transaction
}

func (s *stubStore) ListTransactions(_ context.Context, _ int64, _ core.TxType) ([]core.Transaction, error) {
	return s.txs, nil
}

func (s *stubStore) Summary(_ context.Context, _ int64) (core.Summary, error) {
	return core.Summary{}, nil
}

func (s *stubStore) ByMonth(_ context.Context, _ int64, _ core.Date) ([]core.MonthlyPoint, error) {
	return nil, nil
}

type stubExporter struct {
	exported int
	err      error
}

func (e *stubExporter) ExportReport(_ context.Context, _ *report.Report) error {
	e.exported++
	return e.err
}

func TestHandleReportRequestWritesCSV(t *testing.T) {
	dir := t.TempDir()
	store := &stubStore{txs: []core.Transaction{
		{ID: 1, UserID: 7, Type: core.TypeExpense, Category: "Food", Amount: core.Money{Cents: 2500}, Date: core.NewDate(2024, 3, 2)},
	}}
	w := NewReportWorker(store, nil, dir, 0)

	msg := amqp.NewReportRequest("rep-1", 7)
	if err := w.HandleReportRequest(context.Background(), msg); err != nil {
		t.Fatalf("HandleReportRequest: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "rep-1.csv")); err != nil {
		t.Fatalf("report file not written: %v", err)
	}
}

func TestHandleReportRequestExporterFailureIsNotFatal(t *testing.T) {
	dir := t.TempDir()
	exporter := &stubExporter{err: errors.New("sheets down")}
	w := NewReportWorker(&stubStore{}, exporter, dir, 0)

	msg := amqp.NewReportRequest("rep-2", 7)
	if err := w.HandleReportRequest(context.Background(), msg); err != nil {
		t.Fatalf("HandleReportRequest: %v", err)
	}
	if exporter.exported != 1 {
		t.Errorf("exporter called %d times", exporter.exported)
	}
}

func TestSweepOldReports(t *testing.T) {
	dir := t.TempDir()
	w := NewReportWorker(&stubStore{}, nil, dir, time.Hour)

	oldPath := filepath.Join(dir, "old.csv")
	if err := os.WriteFile(oldPath, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	stale := time.Now().Add(-2 * time.Hour)
	if err := os.Chtimes(oldPath, stale, stale); err != nil {
		t.Fatal(err)
	}

	freshPath := filepath.Join(dir, "fresh.csv")
	if err := os.WriteFile(freshPath, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	keepPath := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(keepPath, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(keepPath, stale, stale); err != nil {
		t.Fatal(err)
	}

	removed, err := w.SweepOldReports(context.Background())
	if err != nil {
		t.Fatalf("SweepOldReports: %v", err)
	}
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
	if _, err := os.Stat(oldPath); !os.IsNotExist(err) {
		t.Error("old report still present")
	}
	if _, err := os.Stat(freshPath); err != nil {
		t.Error("fresh report removed")
	}
	if _, err := os.Stat(keepPath); err != nil {
		t.Error("non-csv file removed")
	}
}

func TestSweepMissingDirIsNoop(t *testing.T) {
	w := NewReportWorker(&stubStore{}, nil, filepath.Join(t.TempDir(), "absent"), time.Hour)
	removed, err := w.SweepOldReports(context.Background())
	if err != nil || removed != 0 {
		t.Fatalf("got removed=%d err=%v", removed, err)
	}
}
