package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tair/stock-ledger/internal/ledger/domain"
	"github.com/tair/stock-ledger/pkg/logger"
	"github.com/tair/stock-ledger/pkg/metrics"
)

// RetryPolicy bounds the optimistic conflict-retry loop. The schedule is part
// of the mutator's contract: attempt n waits n*BaseDelay before re-reading.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// DefaultRetryPolicy returns the production retry policy
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, BaseDelay: 100 * time.Millisecond}
}

// AdjustResult carries the stock snapshots around a committed adjustment
type AdjustResult struct {
	Before int
	After  int
}

// StockMutator performs a single atomic stock-level change on one item.
// All mutation of Item.CurrentStock funnels through here; the conditional
// write on the item's version token serializes concurrent adjusters.
type StockMutator struct {
	store  domain.LedgerStore
	policy RetryPolicy
	now    func() time.Time
	sleep  func(ctx context.Context, d time.Duration) error
}

// NewStockMutator creates a mutator with the given retry policy
func NewStockMutator(store domain.LedgerStore, policy RetryPolicy) *StockMutator {
	return &StockMutator{
		store:  store,
		policy: policy,
		now:    time.Now,
		sleep:  sleepContext,
	}
}

// WithClock overrides the time source, for deterministic tests
func (m *StockMutator) WithClock(now func() time.Time) *StockMutator {
	m.now = now
	return m
}

// WithSleeper overrides the backoff sleep, for zero-delay tests
func (m *StockMutator) WithSleeper(sleep func(ctx context.Context, d time.Duration) error) *StockMutator {
	m.sleep = sleep
	return m
}

// Adjust applies a signed delta to the item's stock counter. Negative deltas
// issue stock, positive deltas return or reverse it. The read-compute-write
// sequence is retried on version conflicts up to the policy bound; a delta
// that would drive stock negative fails without any write.
func (m *StockMutator) Adjust(ctx context.Context, itemID uint, delta int) (*AdjustResult, error) {
	for attempt := 1; attempt <= m.policy.MaxAttempts; attempt++ {
		item, err := m.store.FindItemByID(ctx, itemID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, domain.ErrNotFound
			}
			return nil, fmt.Errorf("read item %d: %w", itemID, err)
		}
		if !item.IsActive {
			return nil, domain.ErrNotFound
		}

		before := item.CurrentStock
		after := before + delta
		if after < 0 {
			return nil, &domain.InsufficientStockError{
				ItemID:    itemID,
				Available: before,
				Requested: -delta,
			}
		}

		expected := item.Version
		item.CurrentStock = after
		item.UpdatedAt = m.now()

		err = m.store.UpdateItem(ctx, item, expected)
		if err == nil {
			logger.Debug(ctx).
				Uint("item_id", itemID).
				Int("delta", delta).
				Int("before", before).
				Int("after", after).
				Int("attempt", attempt).
				Msg("Stock adjusted")
			return &AdjustResult{Before: before, After: after}, nil
		}
		if !errors.Is(err, domain.ErrVersionConflict) {
			return nil, fmt.Errorf("write item %d: %w", itemID, err)
		}

		metrics.VersionConflicts.Inc()
		logger.Warn(ctx).
			Uint("item_id", itemID).
			Int("attempt", attempt).
			Int("max_attempts", m.policy.MaxAttempts).
			Msg("Version conflict on stock update, retrying")

		if attempt < m.policy.MaxAttempts {
			if err := m.sleep(ctx, time.Duration(attempt)*m.policy.BaseDelay); err != nil {
				return nil, err
			}
		}
	}

	metrics.RetriesExhausted.Inc()
	logger.Error(ctx).
		Uint("item_id", itemID).
		Int("max_attempts", m.policy.MaxAttempts).
		Msg("Stock update exceeded retry budget")
	return nil, domain.ErrConcurrencyExhausted
}

// sleepContext waits for d or until the context is done, whichever comes first
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
