package command

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/tair/stock-ledger/internal/ledger/domain"
	"github.com/tair/stock-ledger/internal/ledger/engine"
	"github.com/tair/stock-ledger/pkg/logger"
	"github.com/tair/stock-ledger/pkg/metrics"
)

// CancelLastCommand represents the command to cancel the most recent
// non-cancelled issue transaction
type CancelLastCommand struct {
	CancelledBy string
}

// CancelLastHandler compensates the latest active issue: it restores the
// stock and flips the transaction's cancellation flag. From the caller's
// point of view either both happen or neither.
type CancelLastHandler struct {
	store    domain.LedgerStore
	mutator  *engine.StockMutator
	recorder *engine.TransactionRecorder
}

// NewCancelLastHandler creates a new cancel last handler
func NewCancelLastHandler(store domain.LedgerStore, mutator *engine.StockMutator, recorder *engine.TransactionRecorder) *CancelLastHandler {
	return &CancelLastHandler{store: store, mutator: mutator, recorder: recorder}
}

// Handle executes the cancellation
func (h *CancelLastHandler) Handle(ctx context.Context, cmd CancelLastCommand) *domain.TransactionOutcome {
	start := time.Now()
	outcome := h.handle(ctx, cmd)
	metrics.MovementDuration.WithLabelValues(string(domain.TransactionReturn)).
		Observe(time.Since(start).Seconds())
	if outcome.Success {
		metrics.Movements.WithLabelValues(string(domain.TransactionReturn), metrics.OutcomeSuccess).Inc()
	} else {
		metrics.Movements.WithLabelValues(string(domain.TransactionReturn), metrics.OutcomeFailure).Inc()
	}
	return outcome
}

func (h *CancelLastHandler) handle(ctx context.Context, cmd CancelLastCommand) *domain.TransactionOutcome {
	if strings.TrimSpace(cmd.CancelledBy) == "" {
		return domain.Failed(domain.CodeValidationError, "validation failed on cancelled_by: actor is required")
	}
	if len(cmd.CancelledBy) > engine.MaxProcessedByLen {
		return domain.Failed(domain.CodeValidationError, "validation failed on cancelled_by: too long")
	}

	logger.Info(ctx).Str("cancelled_by", cmd.CancelledBy).Msg("Cancel last transaction started")

	last, err := h.recorder.LatestActive(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			logger.Warn(ctx).Msg("No cancellable transaction found")
			return domain.Failed(domain.CodeNoTransaction, "No cancellable transaction found.")
		}
		logger.Error(ctx).Err(err).Msg("Latest transaction lookup failed")
		return domain.Failed(domain.CodeSystemError, "Failed to look up the latest transaction.")
	}

	// If the item has been deleted since the issue, the compensation
	// degrades gracefully: the flag is still flipped, the reversal is
	// skipped.
	reverseStock := true
	if _, err := h.store.FindItemByID(ctx, last.ItemID); err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			logger.Error(ctx).Err(err).Uint("item_id", last.ItemID).Msg("Item read failed")
			return domain.Failed(domain.CodeSystemError, "Failed to read item.")
		}
		logger.Warn(ctx).
			Uint("transaction_id", last.ID).
			Uint("item_id", last.ItemID).
			Msg("Item gone, cancelling transaction without stock reversal")
		reverseStock = false
	}

	if reverseStock {
		if _, err := h.mutator.Adjust(ctx, last.ItemID, last.Quantity); err != nil {
			// Reversal failed: the transaction stays active.
			logger.Error(ctx).Err(err).
				Uint("transaction_id", last.ID).
				Uint("item_id", last.ItemID).
				Msg("Stock reversal failed, transaction left active")
			if errors.Is(err, domain.ErrConcurrencyExhausted) {
				return domain.Failed(domain.CodeCancelFailed, "Failed to restore stock, please retry.")
			}
			return domain.Failed(domain.CodeSystemError, "Failed to restore stock.")
		}
	}

	cancelled, err := h.recorder.Cancel(ctx, last.ID, cmd.CancelledBy)
	if err != nil {
		h.rollbackReversal(ctx, last, reverseStock)
		logger.Error(ctx).Err(err).Uint("transaction_id", last.ID).Msg("Cancel flag write failed")
		return domain.Failed(domain.CodeSystemError, "Failed to cancel the transaction.")
	}
	if !cancelled {
		// A concurrent canceller won the flag race and already restored
		// the stock; undo our reversal so it is not restored twice.
		h.rollbackReversal(ctx, last, reverseStock)
		logger.Warn(ctx).Uint("transaction_id", last.ID).Msg("Transaction was already cancelled")
		return domain.Failed(domain.CodeCancelFailed, "The transaction is already cancelled.")
	}

	tx, err := h.store.FindTransactionByID(ctx, last.ID)
	if err != nil {
		// Cancel committed; fall back to the pre-read copy.
		tx = last
		now := time.Now()
		tx.IsCancelled = true
		tx.CancelledAt = &now
		tx.CancelledBy = cmd.CancelledBy
	}

	logger.Info(ctx).
		Uint("transaction_id", tx.ID).
		Uint("item_id", tx.ItemID).
		Int("quantity", tx.Quantity).
		Msg("Transaction cancelled and stock restored")

	return domain.Succeeded("Transaction cancelled.", tx)
}

func (h *CancelLastHandler) rollbackReversal(ctx context.Context, last *domain.Transaction, reversed bool) {
	if !reversed {
		return
	}
	if _, err := h.mutator.Adjust(ctx, last.ItemID, -last.Quantity); err != nil {
		// Narrow inconsistency window: stock restored but the transaction
		// still active. Loud log so operators can reconcile.
		logger.Error(ctx).Err(err).
			Uint("transaction_id", last.ID).
			Uint("item_id", last.ItemID).
			Int("quantity", last.Quantity).
			Msg("Rollback of stock reversal failed, manual reconciliation needed")
	}
}
