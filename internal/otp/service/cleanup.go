package service

import (
	"context"
	"log/slog"
	"time"

	"aidgate/internal/otp/metrics"
	"aidgate/internal/otp/ports"
)

// CleanupWorker periodically deletes expired codes. Expiry is already
// enforced at read time; the worker only keeps the table from growing.
type CleanupWorker struct {
	codes    ports.CodeStore
	logger   *slog.Logger
	metrics  *metrics.Metrics
	interval time.Duration
}

func NewCleanupWorker(codes ports.CodeStore, interval time.Duration, logger *slog.Logger, m *metrics.Metrics) *CleanupWorker {
	return &CleanupWorker{
		codes:    codes,
		logger:   logger,
		metrics:  m,
		interval: interval,
	}
}

// Run blocks until ctx is canceled, sweeping once per interval.
func (w *CleanupWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *CleanupWorker) sweep(ctx context.Context) {
	deleted, err := w.codes.DeleteExpired(ctx, time.Now().UTC())
	if err != nil {
		if w.logger != nil {
			w.logger.WarnContext(ctx, "otp cleanup sweep failed", "error", err)
		}
		return
	}
	if deleted > 0 {
		if w.logger != nil {
			w.logger.DebugContext(ctx, "otp cleanup sweep", "deleted", deleted)
		}
		if w.metrics != nil {
			w.metrics.RecordExpired(deleted)
		}
	}
}
