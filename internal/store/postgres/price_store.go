package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/I-am-Carbon/Crypto-Arbitrage-Tracker/internal/domain"
)

// PriceStore implements domain.PriceStore using PostgreSQL.
type PriceStore struct {
	pool *pgxpool.Pool
}

// NewPriceStore creates a PriceStore backed by the given connection pool.
func NewPriceStore(pool *pgxpool.Pool) *PriceStore {
	return &PriceStore{pool: pool}
}

// InsertBatch stores one cycle's price samples inside a single transaction so
// that concurrent readers see either all of the cycle's samples or none.
func (s *PriceStore) InsertBatch(ctx context.Context, samples []domain.PriceSample) error {
	if len(samples) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: begin price batch: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, sample := range samples {
		batch.Queue(
			`INSERT INTO price_samples (exchange, symbol, price, observed_at)
			 VALUES ($1, $2, $3, $4)`,
			sample.Exchange, sample.Symbol, sample.Price, sample.ObservedAt,
		)
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("postgres: insert price batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: commit price batch: %w", err)
	}
	return nil
}

// ListRecent returns the most recent price samples, newest first.
func (s *PriceStore) ListRecent(ctx context.Context, limit int) ([]domain.PriceSample, error) {
	query := `SELECT exchange, symbol, price, observed_at
		FROM price_samples ORDER BY observed_at DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT $1"
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list recent prices: %w", err)
	}
	defer rows.Close()

	return scanSamples(rows)
}

// ListBefore returns every sample observed strictly before cutoff, oldest
// first, for archival export.
func (s *PriceStore) ListBefore(ctx context.Context, cutoff time.Time) ([]domain.PriceSample, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT exchange, symbol, price, observed_at
		 FROM price_samples WHERE observed_at < $1 ORDER BY observed_at ASC`,
		cutoff,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: list prices before %s: %w", cutoff, err)
	}
	defer rows.Close()

	return scanSamples(rows)
}

// DeleteBefore removes every sample observed strictly before cutoff and
// returns the number of deleted rows.
func (s *PriceStore) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		"DELETE FROM price_samples WHERE observed_at < $1", cutoff)
	if err != nil {
		return 0, fmt.Errorf("postgres: delete prices before %s: %w", cutoff, err)
	}
	return tag.RowsAffected(), nil
}

func scanSamples(rows pgx.Rows) ([]domain.PriceSample, error) {
	var samples []domain.PriceSample
	for rows.Next() {
		var sample domain.PriceSample
		if err := rows.Scan(&sample.Exchange, &sample.Symbol, &sample.Price, &sample.ObservedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan price sample: %w", err)
		}
		samples = append(samples, sample)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: price sample rows: %w", err)
	}
	return samples, nil
}
