package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/I-am-Carbon/Crypto-Arbitrage-Tracker/internal/domain"
)

// BlobWriter is the upload capability required by the archiver.
type BlobWriter interface {
	Put(ctx context.Context, path string, data io.Reader, contentType string) error
}

// ArchiveStore provides the read and delete access the archiver needs.
// The Postgres price store satisfies it.
type ArchiveStore interface {
	ListBefore(ctx context.Context, cutoff time.Time) ([]domain.PriceSample, error)
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Archiver periodically exports price samples older than the retention
// window to object storage as JSON lines and then removes them from the
// primary store. Rows are only deleted after the upload succeeded.
type Archiver struct {
	writer    BlobWriter
	store     ArchiveStore
	retention time.Duration
	interval  time.Duration
	prefix    string
	logger    *slog.Logger
}

// NewArchiver creates an Archiver with the given schedule.
func NewArchiver(writer BlobWriter, store ArchiveStore, retention, interval time.Duration, prefix string, logger *slog.Logger) *Archiver {
	if prefix == "" {
		prefix = "archive"
	}
	return &Archiver{
		writer:    writer,
		store:     store,
		retention: retention,
		interval:  interval,
		prefix:    prefix,
		logger:    logger.With(slog.String("component", "archiver")),
	}
}

// Run executes one archival pass immediately and then on every interval
// tick until ctx is cancelled. Pass failures are logged and retried on the
// next tick.
func (a *Archiver) Run(ctx context.Context) error {
	a.logger.InfoContext(ctx, "archiver started",
		slog.Duration("interval", a.interval),
		slog.Duration("retention", a.retention),
	)
	defer a.logger.Info("archiver stopped")

	if err := a.ArchiveOnce(ctx); err != nil {
		a.logger.Error("archival pass failed", slog.String("error", err.Error()))
	}

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := a.ArchiveOnce(ctx); err != nil {
				a.logger.Error("archival pass failed", slog.String("error", err.Error()))
			}
		}
	}
}

// ArchiveOnce exports and deletes everything older than the retention
// window. A pass with nothing to archive is a no-op.
func (a *Archiver) ArchiveOnce(ctx context.Context) error {
	cutoff := time.Now().UTC().Add(-a.retention)

	samples, err := a.store.ListBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("archiver: list samples: %w", err)
	}
	if len(samples) == 0 {
		return nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, sample := range samples {
		if err := enc.Encode(sample); err != nil {
			return fmt.Errorf("archiver: encode sample: %w", err)
		}
	}

	key := fmt.Sprintf("%s/prices/%s.jsonl", a.prefix, time.Now().UTC().Format("2006/01/02/150405"))
	if err := a.writer.Put(ctx, key, &buf, "application/x-ndjson"); err != nil {
		return fmt.Errorf("archiver: upload %s: %w", key, err)
	}

	deleted, err := a.store.DeleteBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("archiver: delete archived samples: %w", err)
	}

	a.logger.Info("archived price samples",
		slog.String("object", key),
		slog.Int("exported", len(samples)),
		slog.Int64("deleted", deleted),
	)
	return nil
}
