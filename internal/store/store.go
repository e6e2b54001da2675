package store

import (
	"context"
	"errors"

	"ogbarber/backend/internal/domain"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidRecord = errors.New("invalid record")
)

// Repository is the persistence contract for the daily ledger and its
// satellite data (roster, prices, quick-cut log).
//
// Day records are keyed by date: UpsertDayRecord replaces any record with the
// same date, DeleteDayRecord removes it, and GetAllDayRecords returns the
// records in no guaranteed order (callers sort explicitly). Implementations
// must serialize their own read-modify-write cycles so that concurrent
// upserts/deletes cannot lose each other's writes, and must count (not drop
// silently) stored blobs that fail to decode, surfacing the count via Stats.
type Repository interface {
	GetAllDayRecords(ctx context.Context) ([]domain.DayRecord, error)
	UpsertDayRecord(ctx context.Context, rec domain.DayRecord) error
	DeleteDayRecord(ctx context.Context, date string) error

	ListWorkers(ctx context.Context) ([]string, error)
	AddWorker(ctx context.Context, name string) error
	RemoveWorker(ctx context.Context, name string) error

	GetPrices(ctx context.Context) (domain.Prices, error)
	SetPrices(ctx context.Context, prices domain.Prices) error

	AppendCut(ctx context.Context, cut domain.CutEvent) error
	ListCuts(ctx context.Context) ([]domain.CutEvent, error)

	Stats() domain.StoreStats
}
