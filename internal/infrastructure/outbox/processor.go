package outbox

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/travelcrm/backend/internal/domain/shared"
)

// ProcessorConfig holds configuration for the outbox processor
type ProcessorConfig struct {
	BatchSize        int
	PollInterval     time.Duration
	CleanupEnabled   bool
	CleanupRetention time.Duration
	CleanupInterval  time.Duration
}

// DefaultProcessorConfig returns default configuration
func DefaultProcessorConfig() ProcessorConfig {
	return ProcessorConfig{
		BatchSize:        100,
		PollInterval:     5 * time.Second,
		CleanupEnabled:   true,
		CleanupRetention: 7 * 24 * time.Hour,
		CleanupInterval:  1 * time.Hour,
	}
}

// Processor drains stored intents in the background. An intent is executed
// at least once; the entry's GUID lets downstream providers collapse
// duplicate deliveries.
type Processor struct {
	repo        shared.OutboxRepository
	executors   map[string]IntentExecutor
	idempotency shared.IdempotencyStore
	config      ProcessorConfig
	logger      *zap.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.RWMutex
}

// NewProcessor creates a new outbox processor
func NewProcessor(
	repo shared.OutboxRepository,
	idempotency shared.IdempotencyStore,
	config ProcessorConfig,
	logger *zap.Logger,
) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{
		repo:        repo,
		executors:   make(map[string]IntentExecutor),
		idempotency: idempotency,
		config:      config,
		logger:      logger,
	}
}

// Register binds an executor to an intent kind. Registering the same kind
// twice is a wiring bug and panics.
func (p *Processor) Register(kind string, executor IntentExecutor) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.executors[kind]; exists {
		panic(fmt.Sprintf("outbox: executor already registered for kind %q", kind))
	}
	p.executors[kind] = executor
}

// Start starts the background processing
func (p *Processor) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	p.wg.Add(1)
	go p.processLoop(ctx)

	if p.config.CleanupEnabled {
		p.wg.Add(1)
		go p.cleanupLoop(ctx)
	}

	p.logger.Info("outbox processor started",
		zap.Int("batch_size", p.config.BatchSize),
		zap.Duration("poll_interval", p.config.PollInterval),
	)

	return nil
}

// Stop gracefully stops the processor
func (p *Processor) Stop(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("outbox processor stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// processLoop is the main processing loop
func (p *Processor) processLoop(ctx context.Context) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.processBatch(ctx)
		}
	}
}

// processBatch processes a batch of pending and retryable entries
func (p *Processor) processBatch(ctx context.Context) {
	pending, err := p.repo.FindPending(ctx, p.config.BatchSize)
	if err != nil {
		p.logger.Error("failed to find pending intents", zap.Error(err))
		return
	}
	if len(pending) > 0 {
		p.processEntries(ctx, pending)
	}

	retryable, err := p.repo.FindRetryable(ctx, time.Now(), p.config.BatchSize)
	if err != nil {
		p.logger.Error("failed to find retryable intents", zap.Error(err))
		return
	}
	if len(retryable) > 0 {
		p.processEntries(ctx, retryable)
	}
}

// processEntries claims a slice of entries and executes them
func (p *Processor) processEntries(ctx context.Context, entries []*shared.OutboxEntry) {
	ids := make([]uuid.UUID, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}

	claimed, err := p.repo.MarkProcessing(ctx, ids)
	if err != nil {
		p.logger.Error("failed to mark intents as processing", zap.Error(err))
		return
	}

	for _, entry := range claimed {
		p.processEntry(ctx, entry)
	}
}

// processEntry executes a single claimed intent
func (p *Processor) processEntry(ctx context.Context, entry *shared.OutboxEntry) {
	p.mu.RLock()
	executor, ok := p.executors[entry.Kind]
	p.mu.RUnlock()

	if !ok {
		p.fail(ctx, entry, fmt.Sprintf("no executor registered for kind %q", entry.Kind))
		return
	}

	if p.idempotency != nil {
		processed, err := p.idempotency.IsProcessed(ctx, entry.Guid.String())
		if err != nil {
			p.logger.Warn("idempotency check failed, executing anyway",
				zap.String("guid", entry.Guid.String()),
				zap.Error(err))
		} else if processed {
			entry.MarkSent()
			if err := p.repo.Update(ctx, entry); err != nil {
				p.logger.Error("failed to mark duplicate intent as sent", zap.Error(err))
			}
			return
		}
	}

	if err := executor.Execute(ctx, entry); err != nil {
		p.fail(ctx, entry, err.Error())
		return
	}

	if p.idempotency != nil {
		if _, err := p.idempotency.MarkProcessed(ctx, entry.Guid.String(), shared.DefaultIdempotencyConfig().TTL); err != nil {
			p.logger.Warn("failed to record processed intent",
				zap.String("guid", entry.Guid.String()),
				zap.Error(err))
		}
	}

	entry.MarkSent()
	if err := p.repo.Update(ctx, entry); err != nil {
		p.logger.Error("failed to mark intent as sent",
			zap.String("intent_id", entry.ID.String()),
			zap.Error(err),
		)
		return
	}

	p.logger.Debug("intent executed",
		zap.String("intent_id", entry.ID.String()),
		zap.String("kind", entry.Kind),
	)
}

// fail records an execution failure and schedules or buries the entry
func (p *Processor) fail(ctx context.Context, entry *shared.OutboxEntry, errMsg string) {
	entry.MarkFailed(errMsg)

	if entry.IsDead() {
		p.logger.Warn("intent moved to dead letter",
			zap.String("intent_id", entry.ID.String()),
			zap.String("kind", entry.Kind),
			zap.String("deal_id", entry.DealID.String()),
			zap.Int("retry_count", entry.RetryCount),
			zap.String("last_error", entry.LastError),
		)
	} else {
		p.logger.Error("intent execution failed",
			zap.String("intent_id", entry.ID.String()),
			zap.String("kind", entry.Kind),
			zap.Int("retry_count", entry.RetryCount),
			zap.String("error", errMsg),
		)
	}

	if err := p.repo.Update(ctx, entry); err != nil {
		p.logger.Error("failed to update failed intent", zap.Error(err))
	}
}

// cleanupLoop periodically removes old executed entries
func (p *Processor) cleanupLoop(ctx context.Context) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.cleanup(ctx)
		}
	}
}

// cleanup removes executed entries past the retention window
func (p *Processor) cleanup(ctx context.Context) {
	cutoff := time.Now().Add(-p.config.CleanupRetention)
	deleted, err := p.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		p.logger.Error("failed to clean up old intents", zap.Error(err))
		return
	}

	if deleted > 0 {
		p.logger.Info("cleaned up old outbox intents",
			zap.Int64("deleted", deleted),
			zap.Time("cutoff", cutoff),
		)
	}
}
