// Package dispatch drives delivery of the durable email queue.
//
// A Dispatcher runs one sweep per tick: reset stale claims, claim a bounded
// batch of due pending records, attempt transport delivery for each, and
// record the outcome. Sweeps never overlap; enqueue paths may request one
// extra best-effort sweep with Kick.
package dispatch

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/planhub/planhub-api/internal/domain"
	"github.com/planhub/planhub-api/internal/email"
	"github.com/planhub/planhub-api/internal/store"
)

// Config holds the dispatcher tuning knobs.
type Config struct {
	// SweepInterval is the period between sweeps.
	SweepInterval time.Duration

	// BatchSize bounds how many records one sweep may claim.
	BatchSize int

	// SendTimeout bounds a single transport delivery attempt.
	// A timeout counts as a transport failure for retry accounting.
	SendTimeout time.Duration

	// StuckClaimAge defines how long a record may sit in the in-flight
	// claim state before it is considered abandoned and reset to pending.
	StuckClaimAge time.Duration
}

// DefaultConfig returns a Config with reasonable defaults.
func DefaultConfig() Config {
	return Config{
		SweepInterval: 30 * time.Second,
		BatchSize:     10,
		SendTimeout:   15 * time.Second,
		StuckClaimAge: 5 * time.Minute,
	}
}

// Dispatcher periodically drains the email queue.
type Dispatcher struct {
	queue      store.EmailQueueStore
	transport  email.Transport
	config     Config
	logger     *slog.Logger
	kickChan   chan struct{}
	ctx        context.Context
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup

	// sweepMu makes the sweep non-reentrant. TryLock means a kick that
	// arrives mid-sweep is dropped rather than queued; the next tick
	// picks up whatever is left.
	sweepMu sync.Mutex
}

// NewDispatcher creates a Dispatcher. Zero config fields fall back to the
// defaults.
func NewDispatcher(
	queue store.EmailQueueStore,
	transport email.Transport,
	config Config,
	logger *slog.Logger,
) *Dispatcher {
	def := DefaultConfig()
	if config.SweepInterval <= 0 {
		config.SweepInterval = def.SweepInterval
	}
	if config.BatchSize <= 0 {
		config.BatchSize = def.BatchSize
	}
	if config.SendTimeout <= 0 {
		config.SendTimeout = def.SendTimeout
	}
	if config.StuckClaimAge <= 0 {
		config.StuckClaimAge = def.StuckClaimAge
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Dispatcher{
		queue:      queue,
		transport:  transport,
		config:     config,
		logger:     logger.With("component", "email_dispatcher"),
		kickChan:   make(chan struct{}, 1),
		ctx:        ctx,
		cancelFunc: cancel,
	}
}

// Start launches the periodic sweep loop.
func (d *Dispatcher) Start() {
	d.wg.Add(1)
	go d.run()
	d.logger.Info("email dispatcher started",
		"sweep_interval", d.config.SweepInterval,
		"batch_size", d.config.BatchSize)
}

// Stop shuts the dispatcher down, waiting for an in-flight sweep to finish.
func (d *Dispatcher) Stop() {
	d.cancelFunc()
	d.wg.Wait()
	d.logger.Info("email dispatcher stopped")
}

// Kick requests one extra sweep as soon as possible. Best-effort: if a
// kick is already pending or a sweep is running, the request is dropped.
// The periodic sweep remains the reliable delivery path.
func (d *Dispatcher) Kick() {
	select {
	case d.kickChan <- struct{}{}:
	default:
	}
}

// run is the sweep loop.
func (d *Dispatcher) run() {
	defer d.wg.Done()

	ticker := time.NewTicker(d.config.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-d.ctx.Done():
			return
		case <-ticker.C:
			d.Sweep(d.ctx)
		case <-d.kickChan:
			d.Sweep(d.ctx)
		}
	}
}

// Sweep performs one queue drain pass. It returns the number of records it
// attempted. A sweep already in progress makes this call a no-op returning
// zero; per-record failures never abort the rest of the batch.
func (d *Dispatcher) Sweep(ctx context.Context) int {
	if !d.sweepMu.TryLock() {
		d.logger.Debug("sweep already in progress, skipping")
		return 0
	}
	defer d.sweepMu.Unlock()

	// Crash recovery: claims abandoned by a previous process go back to
	// pending before this sweep selects its batch.
	reset, err := d.queue.ResetStuckClaims(ctx, d.config.StuckClaimAge)
	if err != nil {
		d.logger.Error("failed to reset stuck claims", "error", err)
	} else if reset > 0 {
		d.logger.Warn("reset stuck email claims", "count", reset)
	}

	batch, err := d.queue.ClaimDue(ctx, d.config.BatchSize)
	if err != nil {
		d.logger.Error("failed to claim due emails", "error", err)
		return 0
	}

	if len(batch) == 0 {
		return 0
	}

	d.logger.Debug("claimed email batch", "count", len(batch))

	for _, record := range batch {
		d.deliver(ctx, record)
	}

	return len(batch)
}

// deliver attempts transport delivery of one claimed record and persists
// the outcome.
func (d *Dispatcher) deliver(ctx context.Context, record *domain.QueuedEmail) {
	logger := d.logger.With(
		"email_id", record.ID,
		"to", record.ToEmail,
		"template", record.TemplateName,
		"attempt", record.Attempts+1,
		"max_attempts", record.MaxAttempts,
	)

	sendCtx, cancel := context.WithTimeout(ctx, d.config.SendTimeout)
	defer cancel()

	err := d.transport.Send(
		sendCtx,
		record.ToEmail,
		record.ToName,
		record.Subject,
		record.HTMLBody,
		record.TextBody,
	)

	if err != nil {
		logger.Warn("email delivery failed", "error", err)
		if markErr := d.queue.MarkAttemptFailed(ctx, record.ID, err.Error()); markErr != nil {
			logger.Error("failed to record delivery failure", "error", markErr)
		}
		return
	}

	if markErr := d.queue.MarkSent(ctx, record.ID, time.Now().UTC()); markErr != nil {
		logger.Error("failed to mark email sent", "error", markErr)
		return
	}

	logger.Info("email sent")
}
