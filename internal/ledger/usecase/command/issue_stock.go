package command

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tair/stock-ledger/internal/ledger/domain"
	"github.com/tair/stock-ledger/internal/ledger/engine"
	"github.com/tair/stock-ledger/pkg/logger"
	"github.com/tair/stock-ledger/pkg/metrics"
)

// IssueStockCommand represents the command to issue stock to a department
type IssueStockCommand struct {
	ItemID       uint
	DepartmentID uint
	Quantity     int
	ProcessedBy  string
	Remarks      string
}

// IssueStockHandler orchestrates a stock issue: validate, check availability,
// decrement the counter through the mutator, append the ledger entry.
type IssueStockHandler struct {
	store    domain.LedgerStore
	mutator  *engine.StockMutator
	recorder *engine.TransactionRecorder
}

// NewIssueStockHandler creates a new issue stock handler
func NewIssueStockHandler(store domain.LedgerStore, mutator *engine.StockMutator, recorder *engine.TransactionRecorder) *IssueStockHandler {
	return &IssueStockHandler{store: store, mutator: mutator, recorder: recorder}
}

// Handle executes the issue. Every failure is folded into a typed outcome;
// nothing escapes as a panic or a raw error.
func (h *IssueStockHandler) Handle(ctx context.Context, cmd IssueStockCommand) *domain.TransactionOutcome {
	start := time.Now()
	outcome := h.handle(ctx, cmd)
	metrics.MovementDuration.WithLabelValues(string(domain.TransactionIssue)).
		Observe(time.Since(start).Seconds())
	if outcome.Success {
		metrics.Movements.WithLabelValues(string(domain.TransactionIssue), metrics.OutcomeSuccess).Inc()
	} else {
		metrics.Movements.WithLabelValues(string(domain.TransactionIssue), metrics.OutcomeFailure).Inc()
	}
	return outcome
}

func (h *IssueStockHandler) handle(ctx context.Context, cmd IssueStockCommand) *domain.TransactionOutcome {
	if err := validateIssue(cmd); err != nil {
		logger.Warn(ctx).Err(err).Uint("item_id", cmd.ItemID).Msg("Issue rejected by validation")
		return domain.Failed(domain.CodeValidationError, err.Error())
	}

	logger.Info(ctx).
		Uint("item_id", cmd.ItemID).
		Uint("department_id", cmd.DepartmentID).
		Int("quantity", cmd.Quantity).
		Str("processed_by", cmd.ProcessedBy).
		Msg("Issue started")

	item, err := h.store.FindItemByID(ctx, cmd.ItemID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Failed(domain.CodeItemNotFound, "Item not found.")
		}
		logger.Error(ctx).Err(err).Uint("item_id", cmd.ItemID).Msg("Item read failed")
		return domain.Failed(domain.CodeSystemError, "Failed to read item.")
	}
	if !item.IsActive {
		return domain.Failed(domain.CodeItemNotFound, "Item not found.")
	}

	if _, err := h.store.FindDepartmentByID(ctx, cmd.DepartmentID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Failed(domain.CodeValidationError, "Department not found.")
		}
		logger.Error(ctx).Err(err).Uint("department_id", cmd.DepartmentID).Msg("Department read failed")
		return domain.Failed(domain.CodeSystemError, "Failed to read department.")
	}

	// Fast pre-check only. The authoritative gate is the mutator's
	// conditional write; a race between here and there re-surfaces as
	// InsufficientStockError below.
	if item.CurrentStock < cmd.Quantity {
		logger.Warn(ctx).
			Uint("item_id", cmd.ItemID).
			Int("requested", cmd.Quantity).
			Int("available", item.CurrentStock).
			Msg("Insufficient stock")
		return domain.Failed(domain.CodeInsufficientStock,
			insufficientMessage(item.CurrentStock))
	}

	result, err := h.mutator.Adjust(ctx, cmd.ItemID, -cmd.Quantity)
	if err != nil {
		return h.mapAdjustError(ctx, cmd, err)
	}

	tx, err := h.recorder.Append(ctx, engine.AppendParams{
		ItemID:       cmd.ItemID,
		DepartmentID: cmd.DepartmentID,
		Type:         domain.TransactionIssue,
		Quantity:     cmd.Quantity,
		BeforeStock:  result.Before,
		AfterStock:   result.After,
		ProcessedBy:  cmd.ProcessedBy,
		Remarks:      cmd.Remarks,
	})
	if err != nil {
		// The counter is already committed; put the stock back so the
		// ledger and the counter stay consistent.
		logger.Error(ctx).Err(err).Uint("item_id", cmd.ItemID).Msg("Ledger append failed, compensating stock")
		if _, rbErr := h.mutator.Adjust(ctx, cmd.ItemID, cmd.Quantity); rbErr != nil {
			logger.Error(ctx).Err(rbErr).Uint("item_id", cmd.ItemID).
				Msg("Stock compensation after failed append also failed")
		}
		return domain.Failed(domain.CodeSystemError, "Failed to record the transaction.")
	}

	logger.Info(ctx).
		Uint("transaction_id", tx.ID).
		Uint("item_id", cmd.ItemID).
		Int("quantity", cmd.Quantity).
		Int("after_stock", result.After).
		Msg("Issue completed")

	return domain.Succeeded("Stock issued successfully.", tx)
}

func (h *IssueStockHandler) mapAdjustError(ctx context.Context, cmd IssueStockCommand, err error) *domain.TransactionOutcome {
	var insufficient *domain.InsufficientStockError
	switch {
	case errors.As(err, &insufficient):
		// Lost a race between the pre-check and the conditional write.
		return domain.Failed(domain.CodeInsufficientStock,
			insufficientMessage(insufficient.Available))
	case errors.Is(err, domain.ErrNotFound):
		return domain.Failed(domain.CodeItemNotFound, "Item not found.")
	case errors.Is(err, domain.ErrConcurrencyExhausted):
		return domain.Failed(domain.CodeUpdateFailed, "Failed to update stock, please retry.")
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return domain.Failed(domain.CodeUpdateFailed, "Stock update timed out.")
	default:
		logger.Error(ctx).Err(err).Uint("item_id", cmd.ItemID).Msg("Stock adjustment failed")
		return domain.Failed(domain.CodeSystemError, "An unexpected error occurred.")
	}
}

func insufficientMessage(available int) string {
	return fmt.Sprintf("Insufficient stock. Available quantity: %d", available)
}

func validateIssue(cmd IssueStockCommand) error {
	if cmd.ItemID == 0 {
		return domain.NewValidationError("item_id", "must be positive")
	}
	if cmd.DepartmentID == 0 {
		return domain.NewValidationError("department_id", "must be positive")
	}
	if cmd.Quantity < 1 || cmd.Quantity > engine.MaxQuantity {
		return domain.NewValidationError("quantity",
			fmt.Sprintf("must be between 1 and %d", engine.MaxQuantity))
	}
	if strings.TrimSpace(cmd.ProcessedBy) == "" {
		return domain.NewValidationError("processed_by", "is required")
	}
	if len(cmd.ProcessedBy) > engine.MaxProcessedByLen {
		return domain.NewValidationError("processed_by",
			fmt.Sprintf("must be at most %d characters", engine.MaxProcessedByLen))
	}
	if len(cmd.Remarks) > engine.MaxRemarksLen {
		return domain.NewValidationError("remarks",
			fmt.Sprintf("must be at most %d characters", engine.MaxRemarksLen))
	}
	return nil
}
