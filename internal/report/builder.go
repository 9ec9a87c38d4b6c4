// Package report assembles a user's full financial report: summary totals,
// the trailing-12-months rollup, the expense-by-category breakdown and the
// transaction log, rendered as CSV for download or spreadsheet export.
package report

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/core"
)

// Store is the slice of the repository the builder reads from.
type Store interface {
	ListTransactions(ctx context.Context, userID int64, typeFilter core.TxType) ([]core.Transaction, error)
	Summary(ctx context.Context, userID int64) (core.Summary, error)
	ByMonth(ctx context.Context, userID int64, since core.Date) ([]core.MonthlyPoint, error)
}

// Report is one generated report. The category breakdown is derived from
// the transaction list, not queried separately.
type Report struct {
	ReportID    string
	UserID      int64
	GeneratedAt time.Time
	Summary     core.Summary
	Monthly     []core.MonthlyPoint
	Categories  []core.CategoryAmount
	Txs         []core.Transaction
}

type Builder struct {
	store Store
}

func NewBuilder(store Store) *Builder {
	return &Builder{store: store}
}

// Build gathers the three aggregation views concurrently and derives the
// category breakdown from the full transaction list.
func (b *Builder) Build(ctx context.Context, reportID string, userID int64) (*Report, error) {
	now := time.Now().UTC()
	r := &Report{
		ReportID:    reportID,
		UserID:      userID,
		GeneratedAt: now,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		summary, err := b.store.Summary(gctx, userID)
		if err != nil {
			return fmt.Errorf("summary: %w", err)
		}
		r.Summary = summary
		return nil
	})
	g.Go(func() error {
		monthly, err := b.store.ByMonth(gctx, userID, core.TrailingYear(now))
		if err != nil {
			return fmt.Errorf("by month: %w", err)
		}
		r.Monthly = monthly
		return nil
	})
	g.Go(func() error {
		txs, err := b.store.ListTransactions(gctx, userID, "")
		if err != nil {
			return fmt.Errorf("list transactions: %w", err)
		}
		r.Txs = txs
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	r.Categories = core.ExpenseByCategory(r.Txs)
	return r, nil
}
