package services

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/amqp"
	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/report"
	"fintrack/internal/storage"
)

const (
	defaultRecentLimit = 5
	maxRecentLimit     = 100

	aggregateCacheSize = 1024
	aggregateCacheTTL  = time.Minute
)

// ReportPublisher hands a report request to the broker. Nil means no broker
// is configured and exports are built in-process.
type ReportPublisher interface {
	PublishReportRequest(ctx context.Context, msg *amqp.ReportRequest) error
}

// TransactionPatch carries the fields of a partial update. Nil fields keep
// the stored value.
type TransactionPatch struct {
	Type        *core.TxType
	Category    *string
	Amount      *core.Money
	Date        *core.Date
	Description *string
}

type TransactionService struct {
	repo      *storage.Repository
	publisher ReportPublisher
	builder   *report.Builder
	reportDir string

	summaryCache *cache.LRUCache[core.Summary]
	byMonthCache *cache.LRUCache[[]core.MonthlyPoint]
}

func NewTransactionService(repo *storage.Repository, publisher ReportPublisher, reportDir string) *TransactionService {
	return &TransactionService{
		repo:         repo,
		publisher:    publisher,
		builder:      report.NewBuilder(repo),
		reportDir:    reportDir,
		summaryCache: cache.NewLRUCache[core.Summary](aggregateCacheSize, aggregateCacheTTL),
		byMonthCache: cache.NewLRUCache[[]core.MonthlyPoint](aggregateCacheSize, aggregateCacheTTL),
	}
}

func cacheKey(userID int64) string {
	return strconv.FormatInt(userID, 10)
}

// invalidateAggregates drops the user's cached views after any write.
func (s *TransactionService) invalidateAggregates(userID int64) {
	key := cacheKey(userID)
	s.summaryCache.Delete(key)
	s.byMonthCache.Delete(key)
}

// Create validates and stores a new transaction for the given user and
// returns it with its assigned id.
func (s *TransactionService) Create(ctx context.Context, userID int64, tx core.Transaction) (core.Transaction, error) {
	tx.UserID = userID
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}

	id, err := s.repo.CreateTransaction(ctx, tx)
	if err != nil {
		return core.Transaction{}, err
	}
	tx.ID = id
	s.invalidateAggregates(userID)

	slog.InfoContext(ctx, "Transaction created", "user_id", userID, "transaction_id", id, "type", tx.Type)
	return tx, nil
}

// List returns the user's transactions, newest first. An unknown type
// filter means no filter.
func (s *TransactionService) List(ctx context.Context, userID int64, typeFilter core.TxType) ([]core.Transaction, error) {
	return s.repo.ListTransactions(ctx, userID, typeFilter)
}

// Recent returns the newest transactions. A missing or non-positive limit
// falls back to 5 and anything above 100 is clamped down.
func (s *TransactionService) Recent(ctx context.Context, userID int64, limit int) ([]core.Transaction, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	if limit > maxRecentLimit {
		limit = maxRecentLimit
	}
	return s.repo.RecentTransactions(ctx, userID, limit)
}

// Get returns one transaction if it exists and belongs to the user.
func (s *TransactionService) Get(ctx context.Context, userID, id int64) (core.Transaction, error) {
	return s.repo.GetTransaction(ctx, userID, id)
}

// Update overlays the patch on the stored row, re-validates the merged
// result and writes it back as a full row. Concurrent updates are
// last-write-wins.
func (s *TransactionService) Update(ctx context.Context, userID, id int64, patch TransactionPatch) (core.Transaction, error) {
	tx, err := s.repo.GetTransaction(ctx, userID, id)
	if err != nil {
		return core.Transaction{}, err
	}

	if patch.Type != nil {
		tx.Type = *patch.Type
	}
	if patch.Category != nil {
		tx.Category = *patch.Category
	}
	if patch.Amount != nil {
		tx.Amount = *patch.Amount
	}
	if patch.Date != nil {
		tx.Date = *patch.Date
	}
	if patch.Description != nil {
		tx.Description = *patch.Description
	}

	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if err := s.repo.UpdateTransaction(ctx, tx); err != nil {
		return core.Transaction{}, err
	}
	s.invalidateAggregates(userID)

	slog.InfoContext(ctx, "Transaction updated", "user_id", userID, "transaction_id", id)
	return tx, nil
}

// Delete removes one transaction if it belongs to the user.
func (s *TransactionService) Delete(ctx context.Context, userID, id int64) error {
	if err := s.repo.DeleteTransaction(ctx, userID, id); err != nil {
		return err
	}
	s.invalidateAggregates(userID)
	slog.InfoContext(ctx, "Transaction deleted", "user_id", userID, "transaction_id", id)
	return nil
}

// Summary returns lifetime income, expense and balance totals.
func (s *TransactionService) Summary(ctx context.Context, userID int64) (core.Summary, error) {
	key := cacheKey(userID)
	if summary, ok := s.summaryCache.Get(key); ok {
		return summary, nil
	}
	summary, err := s.repo.Summary(ctx, userID)
	if err != nil {
		return core.Summary{}, err
	}
	s.summaryCache.Set(key, summary)
	return summary, nil
}

// ByMonth returns the monthly income and expense totals for the trailing
// twelve months. Months without transactions are absent.
func (s *TransactionService) ByMonth(ctx context.Context, userID int64) ([]core.MonthlyPoint, error) {
	key := cacheKey(userID)
	if points, ok := s.byMonthCache.Get(key); ok {
		return points, nil
	}
	points, err := s.repo.ByMonth(ctx, userID, core.TrailingYear(time.Now().UTC()))
	if err != nil {
		return nil, err
	}
	s.byMonthCache.Set(key, points)
	return points, nil
}

// ExpensesByCategory returns the lifetime expense totals grouped by
// category name, largest first.
func (s *TransactionService) ExpensesByCategory(ctx context.Context, userID int64) ([]core.CategoryAmount, error) {
	txs, err := s.repo.ListTransactions(ctx, userID, core.TypeExpense)
	if err != nil {
		return nil, err
	}
	return core.ExpenseByCategory(txs), nil
}

// RequestExport queues a report build and returns its id. With a broker
// configured the request is published and picked up by the worker; without
// one the report is built in-process before returning.
func (s *TransactionService) RequestExport(ctx context.Context, userID int64) (string, error) {
	reportID := uuid.NewString()

	if s.publisher != nil {
		req := amqp.NewReportRequest(reportID, userID)
		if err := s.publisher.PublishReportRequest(ctx, req); err != nil {
			return "", &core.StoreError{Op: "publish report request", Err: err}
		}
		slog.InfoContext(ctx, "Report request published", "user_id", userID, "report_id", reportID)
		return reportID, nil
	}

	r, err := s.builder.Build(ctx, reportID, userID)
	if err != nil {
		return "", err
	}
	path, err := report.BuildAndSave(s.reportDir, r)
	if err != nil {
		return "", &core.StoreError{Op: "save report", Err: err}
	}
	slog.InfoContext(ctx, "Report built inline", "user_id", userID, "report_id", reportID, "path", path)
	return reportID, nil
}
