package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync/atomic"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"ogbarber/backend/internal/domain"
	"ogbarber/backend/internal/store"
)

// Store is the Postgres-backed repository. Unlike the Redis list emulation,
// day records live in an actual keyed table: upsert is a single
// INSERT ... ON CONFLICT and delete a single DELETE, so there is no
// read-everything-rewrite-everything cycle and no lost-update window.
type Store struct {
	db             *sql.DB
	priceDefaults  domain.Prices
	decodeFailures atomic.Uint64
}

func New(ctx context.Context, databaseURL string, priceDefaults domain.Prices) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &Store{db: db, priceDefaults: priceDefaults}
	if err := s.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS day_records (
			date text PRIMARY KEY,
			payload jsonb NOT NULL,
			updated_at timestamptz NOT NULL DEFAULT now()
		);

		CREATE TABLE IF NOT EXISTS workers (
			name text PRIMARY KEY,
			added_at timestamptz NOT NULL DEFAULT now()
		);

		CREATE TABLE IF NOT EXISTS prices (
			id smallint PRIMARY KEY CHECK (id = 1),
			plain bigint NOT NULL,
			combo bigint NOT NULL
		);

		CREATE TABLE IF NOT EXISTS cut_events (
			id text PRIMARY KEY,
			kind text NOT NULL,
			worker text NOT NULL,
			payment_method text NOT NULL,
			at timestamptz NOT NULL
		);
	`)
	return err
}

func (s *Store) GetAllDayRecords(ctx context.Context) ([]domain.DayRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT date, payload FROM day_records`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]domain.DayRecord, 0, 64)
	for rows.Next() {
		var date string
		var payload []byte
		if err := rows.Scan(&date, &payload); err != nil {
			return nil, err
		}

		var rec domain.DayRecord
		if err := json.Unmarshal(payload, &rec); err != nil {
			s.decodeFailures.Add(1)
			log.Printf("[store-postgres] WARN: dropping undecodable day record %s: %v", date, err)
			continue
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return records, nil
}

func (s *Store) UpsertDayRecord(ctx context.Context, rec domain.DayRecord) error {
	if strings.TrimSpace(rec.Date) == "" {
		return store.ErrInvalidRecord
	}

	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode day record %s: %w", rec.Date, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO day_records (date, payload, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (date) DO UPDATE SET payload = EXCLUDED.payload, updated_at = now()
	`, rec.Date, payload)
	return err
}

func (s *Store) DeleteDayRecord(ctx context.Context, date string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM day_records WHERE date = $1`, date)
	return err
}

func (s *Store) ListWorkers(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM workers ORDER BY added_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	workers := make([]string, 0, 16)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		workers = append(workers, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return workers, nil
}

func (s *Store) AddWorker(ctx context.Context, name string) error {
	if strings.TrimSpace(name) == "" {
		return store.ErrInvalidRecord
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO workers (name, added_at) VALUES ($1, now())
		ON CONFLICT (name) DO NOTHING
	`, name)
	return err
}

func (s *Store) RemoveWorker(ctx context.Context, name string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM workers WHERE name = $1`, name)
	return err
}

func (s *Store) GetPrices(ctx context.Context) (domain.Prices, error) {
	var prices domain.Prices
	err := s.db.QueryRowContext(ctx, `SELECT plain, combo FROM prices WHERE id = 1`).
		Scan(&prices.Plain, &prices.Combo)
	if errors.Is(err, sql.ErrNoRows) {
		if err := s.SetPrices(ctx, s.priceDefaults); err != nil {
			return domain.Prices{}, err
		}
		return s.priceDefaults, nil
	}
	if err != nil {
		return domain.Prices{}, err
	}
	return prices, nil
}

func (s *Store) SetPrices(ctx context.Context, prices domain.Prices) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO prices (id, plain, combo) VALUES (1, $1, $2)
		ON CONFLICT (id) DO UPDATE SET plain = EXCLUDED.plain, combo = EXCLUDED.combo
	`, prices.Plain, prices.Combo)
	return err
}

func (s *Store) AppendCut(ctx context.Context, cut domain.CutEvent) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cut_events (id, kind, worker, payment_method, at)
		VALUES ($1, $2, $3, $4, $5)
	`, cut.ID, string(cut.Kind), cut.Worker, cut.PaymentMethod, cut.At)
	return err
}

func (s *Store) ListCuts(ctx context.Context) ([]domain.CutEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, worker, payment_method, at
		FROM cut_events
		ORDER BY at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cuts := make([]domain.CutEvent, 0, 64)
	for rows.Next() {
		var cut domain.CutEvent
		var kind string
		if err := rows.Scan(&cut.ID, &kind, &cut.Worker, &cut.PaymentMethod, &cut.At); err != nil {
			return nil, err
		}
		cut.Kind = domain.ServiceKind(kind)
		cuts = append(cuts, cut)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return cuts, nil
}

func (s *Store) Stats() domain.StoreStats {
	return domain.StoreStats{DecodeFailures: s.decodeFailures.Load()}
}
