package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"
	"sync/atomic"

	goredis "github.com/redis/go-redis/v9"

	"ogbarber/backend/internal/domain"
	"ogbarber/backend/internal/store"
)

const (
	dayRecordsKey = "day_records"
	workersKey    = "workers"
	pricesKey     = "prices"
	cutEventsKey  = "cut_events"
)

// Store is the Redis-backed repository. Day records live in a single list,
// one JSON blob per record, keyed by each record's date. The list primitive
// has no keyed access, so upsert and delete are full read-modify-write
// cycles: read the whole list, filter by date, delete the key and push every
// surviving blob back.
//
// Two disciplines make that emulation safe in practice: mu serializes every
// read-modify-write cycle in this process (the single-logical-writer
// assumption made explicit instead of implied), and the rewrite itself runs
// inside a MULTI/EXEC pipeline so readers never observe the transient state
// between the delete and the re-push.
type Store struct {
	client         *goredis.Client
	mu             sync.Mutex
	priceDefaults  domain.Prices
	decodeFailures atomic.Uint64
}

func New(addr string, password string, db int, priceDefaults domain.Prices) *Store {
	client := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	return &Store{client: client, priceDefaults: priceDefaults}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) GetAllDayRecords(ctx context.Context) ([]domain.DayRecord, error) {
	raws, err := s.client.LRange(ctx, dayRecordsKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read day records: %w", err)
	}
	return s.decodeDayRecords(raws), nil
}

func (s *Store) UpsertDayRecord(ctx context.Context, rec domain.DayRecord) error {
	if strings.TrimSpace(rec.Date) == "" {
		return store.ErrInvalidRecord
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	raws, err := s.client.LRange(ctx, dayRecordsKey, 0, -1).Result()
	if err != nil {
		return fmt.Errorf("read day records: %w", err)
	}

	records := s.decodeDayRecords(raws)
	kept := make([]domain.DayRecord, 0, len(records)+1)
	kept = append(kept, rec)
	for _, existing := range records {
		if existing.Date != rec.Date {
			kept = append(kept, existing)
		}
	}

	return s.rewriteList(ctx, dayRecordsKey, encodeDayRecords(kept))
}

func (s *Store) DeleteDayRecord(ctx context.Context, date string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raws, err := s.client.LRange(ctx, dayRecordsKey, 0, -1).Result()
	if err != nil {
		return fmt.Errorf("read day records: %w", err)
	}

	records := s.decodeDayRecords(raws)
	kept := make([]domain.DayRecord, 0, len(records))
	for _, existing := range records {
		if existing.Date != date {
			kept = append(kept, existing)
		}
	}

	return s.rewriteList(ctx, dayRecordsKey, encodeDayRecords(kept))
}

func (s *Store) decodeDayRecords(raws []string) []domain.DayRecord {
	records := make([]domain.DayRecord, 0, len(raws))
	for _, raw := range raws {
		var rec domain.DayRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			s.decodeFailures.Add(1)
			log.Printf("[store-redis] WARN: dropping undecodable day record: %v", err)
			continue
		}
		records = append(records, rec)
	}
	return records
}

func encodeDayRecords(records []domain.DayRecord) []string {
	blobs := make([]string, 0, len(records))
	for _, rec := range records {
		raw, err := json.Marshal(rec)
		if err != nil {
			// Marshal of these struct types cannot fail; log and keep going
			// so one record never takes the rest of the list down with it.
			log.Printf("[store-redis] WARN: failed to encode day record %s: %v", rec.Date, err)
			continue
		}
		blobs = append(blobs, string(raw))
	}
	return blobs
}

// rewriteList replaces the list at key with values, values[0] ending up at
// the head. The delete and the pushes run in one MULTI/EXEC so readers see
// either the old list or the new one, never the gap in between.
func (s *Store) rewriteList(ctx context.Context, key string, values []string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, key)
	// LPUSH puts its last argument at the head, so push in reverse.
	for i := len(values) - 1; i >= 0; i-- {
		pipe.LPush(ctx, key, values[i])
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("rewrite %s: %w", key, err)
	}
	return nil
}

func (s *Store) ListWorkers(ctx context.Context) ([]string, error) {
	workers, err := s.client.LRange(ctx, workersKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read workers: %w", err)
	}
	return workers, nil
}

func (s *Store) AddWorker(ctx context.Context, name string) error {
	if strings.TrimSpace(name) == "" {
		return store.ErrInvalidRecord
	}
	if err := s.client.LPush(ctx, workersKey, name).Err(); err != nil {
		return fmt.Errorf("add worker: %w", err)
	}
	return nil
}

func (s *Store) RemoveWorker(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	workers, err := s.client.LRange(ctx, workersKey, 0, -1).Result()
	if err != nil {
		return fmt.Errorf("read workers: %w", err)
	}

	kept := make([]string, 0, len(workers))
	for _, worker := range workers {
		if worker != name {
			kept = append(kept, worker)
		}
	}

	return s.rewriteList(ctx, workersKey, kept)
}

func (s *Store) GetPrices(ctx context.Context) (domain.Prices, error) {
	raw, err := s.client.Get(ctx, pricesKey).Result()
	if err == goredis.Nil {
		// First read: persist the defaults so later edits start from them.
		if err := s.SetPrices(ctx, s.priceDefaults); err != nil {
			return domain.Prices{}, err
		}
		return s.priceDefaults, nil
	}
	if err != nil {
		return domain.Prices{}, fmt.Errorf("read prices: %w", err)
	}

	var prices domain.Prices
	if err := json.Unmarshal([]byte(raw), &prices); err != nil {
		return domain.Prices{}, fmt.Errorf("decode prices: %w", err)
	}
	return prices, nil
}

func (s *Store) SetPrices(ctx context.Context, prices domain.Prices) error {
	raw, err := json.Marshal(prices)
	if err != nil {
		return fmt.Errorf("encode prices: %w", err)
	}
	if err := s.client.Set(ctx, pricesKey, raw, 0).Err(); err != nil {
		return fmt.Errorf("write prices: %w", err)
	}
	return nil
}

func (s *Store) AppendCut(ctx context.Context, cut domain.CutEvent) error {
	raw, err := json.Marshal(cut)
	if err != nil {
		return fmt.Errorf("encode cut event: %w", err)
	}
	if err := s.client.LPush(ctx, cutEventsKey, raw).Err(); err != nil {
		return fmt.Errorf("append cut event: %w", err)
	}
	return nil
}

func (s *Store) ListCuts(ctx context.Context) ([]domain.CutEvent, error) {
	raws, err := s.client.LRange(ctx, cutEventsKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read cut events: %w", err)
	}

	cuts := make([]domain.CutEvent, 0, len(raws))
	for _, raw := range raws {
		var cut domain.CutEvent
		if err := json.Unmarshal([]byte(raw), &cut); err != nil {
			s.decodeFailures.Add(1)
			log.Printf("[store-redis] WARN: dropping undecodable cut event: %v", err)
			continue
		}
		cuts = append(cuts, cut)
	}
	return cuts, nil
}

func (s *Store) Stats() domain.StoreStats {
	return domain.StoreStats{DecodeFailures: s.decodeFailures.Load()}
}
