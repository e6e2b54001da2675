package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"
	"sync/atomic"

	"ogbarber/backend/internal/domain"
	"ogbarber/backend/internal/store"
)

// Store is the in-memory repository used for dev mode and tests. It keeps
// day records and cut events as encoded JSON blobs, head first, so it has
// the exact semantics of the Redis list store: every upsert round-trips the
// whole list through decode and re-encode, and a blob that fails to decode
// is counted and skipped rather than aborting the read.
type Store struct {
	mu             sync.RWMutex
	dayRecords     [][]byte
	workers        []string
	prices         *domain.Prices
	cuts           [][]byte
	priceDefaults  domain.Prices
	decodeFailures atomic.Uint64
}

func New(priceDefaults domain.Prices) *Store {
	return &Store{priceDefaults: priceDefaults}
}

// NewSeeded returns a store preloaded with a small roster for dev mode.
func NewSeeded(priceDefaults domain.Prices) *Store {
	s := New(priceDefaults)
	s.workers = []string{"Marcos", "Leo", "Tato"}
	return s
}

func (s *Store) GetAllDayRecords(ctx context.Context) ([]domain.DayRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.decodeDayRecords(), nil
}

func (s *Store) UpsertDayRecord(ctx context.Context, rec domain.DayRecord) error {
	if strings.TrimSpace(rec.Date) == "" {
		return store.ErrInvalidRecord
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records := s.decodeDayRecords()
	kept := make([]domain.DayRecord, 0, len(records)+1)
	kept = append(kept, rec)
	for _, existing := range records {
		if existing.Date != rec.Date {
			kept = append(kept, existing)
		}
	}

	return s.rewriteDayRecords(kept)
}

func (s *Store) DeleteDayRecord(ctx context.Context, date string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := s.decodeDayRecords()
	kept := make([]domain.DayRecord, 0, len(records))
	for _, existing := range records {
		if existing.Date != date {
			kept = append(kept, existing)
		}
	}

	return s.rewriteDayRecords(kept)
}

// decodeDayRecords decodes every stored blob, counting and skipping the ones
// that fail. Callers must hold at least a read lock.
func (s *Store) decodeDayRecords() []domain.DayRecord {
	records := make([]domain.DayRecord, 0, len(s.dayRecords))
	for _, raw := range s.dayRecords {
		var rec domain.DayRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			s.decodeFailures.Add(1)
			log.Printf("[store-memory] WARN: dropping undecodable day record: %v", err)
			continue
		}
		records = append(records, rec)
	}
	return records
}

// rewriteDayRecords replaces the whole list with freshly encoded blobs.
// Callers must hold the write lock.
func (s *Store) rewriteDayRecords(records []domain.DayRecord) error {
	blobs := make([][]byte, 0, len(records))
	for _, rec := range records {
		raw, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("encode day record %s: %w", rec.Date, err)
		}
		blobs = append(blobs, raw)
	}
	s.dayRecords = blobs
	return nil
}

// AppendRawDayRecord pushes an arbitrary blob to the head of the list,
// bypassing encoding. It exists so tests can plant undecodable entries.
func (s *Store) AppendRawDayRecord(raw []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dayRecords = append([][]byte{raw}, s.dayRecords...)
}

func (s *Store) ListWorkers(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	workers := make([]string, len(s.workers))
	copy(workers, s.workers)
	return workers, nil
}

func (s *Store) AddWorker(ctx context.Context, name string) error {
	if strings.TrimSpace(name) == "" {
		return store.ErrInvalidRecord
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.workers = append([]string{name}, s.workers...)
	return nil
}

func (s *Store) RemoveWorker(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := make([]string, 0, len(s.workers))
	for _, worker := range s.workers {
		if worker != name {
			kept = append(kept, worker)
		}
	}
	s.workers = kept
	return nil
}

func (s *Store) GetPrices(ctx context.Context) (domain.Prices, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.prices == nil {
		defaults := s.priceDefaults
		s.prices = &defaults
	}
	return *s.prices, nil
}

func (s *Store) SetPrices(ctx context.Context, prices domain.Prices) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prices = &prices
	return nil
}

func (s *Store) AppendCut(ctx context.Context, cut domain.CutEvent) error {
	raw, err := json.Marshal(cut)
	if err != nil {
		return fmt.Errorf("encode cut event: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cuts = append([][]byte{raw}, s.cuts...)
	return nil
}

func (s *Store) ListCuts(ctx context.Context) ([]domain.CutEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cuts := make([]domain.CutEvent, 0, len(s.cuts))
	for _, raw := range s.cuts {
		var cut domain.CutEvent
		if err := json.Unmarshal(raw, &cut); err != nil {
			s.decodeFailures.Add(1)
			log.Printf("[store-memory] WARN: dropping undecodable cut event: %v", err)
			continue
		}
		cuts = append(cuts, cut)
	}
	return cuts, nil
}

func (s *Store) Stats() domain.StoreStats {
	return domain.StoreStats{DecodeFailures: s.decodeFailures.Load()}
}
