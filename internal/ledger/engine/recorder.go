package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tair/stock-ledger/internal/ledger/domain"
	"github.com/tair/stock-ledger/pkg/logger"
)

const (
	// MaxQuantity is the per-movement quantity ceiling
	MaxQuantity = 9999
	// MaxProcessedByLen bounds the actor identifier
	MaxProcessedByLen = 100
	// MaxRemarksLen bounds the free-text remarks
	MaxRemarksLen = 500
)

// AppendParams describes the ledger entry to append
type AppendParams struct {
	ItemID       uint
	DepartmentID uint
	Type         domain.TransactionType
	Quantity     int
	BeforeStock  int
	AfterStock   int
	ProcessedBy  string
	Remarks      string
}

// TransactionRecorder appends audit records for stock changes and owns the
// one-way cancellation flag transition.
type TransactionRecorder struct {
	store domain.LedgerStore
	now   func() time.Time
}

// NewTransactionRecorder creates a recorder backed by the given store
func NewTransactionRecorder(store domain.LedgerStore) *TransactionRecorder {
	return &TransactionRecorder{store: store, now: time.Now}
}

// WithClock overrides the time source, for deterministic tests
func (r *TransactionRecorder) WithClock(now func() time.Time) *TransactionRecorder {
	r.now = now
	return r
}

// Append validates and persists a new ledger entry. No partial record is ever
// appended: validation runs fully before the store is touched.
func (r *TransactionRecorder) Append(ctx context.Context, p AppendParams) (*domain.Transaction, error) {
	if err := validateAppend(p); err != nil {
		return nil, err
	}

	now := r.now()
	tx := &domain.Transaction{
		ItemID:       p.ItemID,
		DepartmentID: p.DepartmentID,
		Type:         p.Type,
		Quantity:     p.Quantity,
		BeforeStock:  p.BeforeStock,
		AfterStock:   p.AfterStock,
		Remarks:      p.Remarks,
		ProcessedBy:  p.ProcessedBy,
		ProcessedAt:  now,
		IsCancelled:  false,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := r.store.AppendTransaction(ctx, tx); err != nil {
		return nil, fmt.Errorf("append transaction: %w", err)
	}

	logger.Info(ctx).
		Uint("transaction_id", tx.ID).
		Uint("item_id", tx.ItemID).
		Uint("department_id", tx.DepartmentID).
		Str("type", string(tx.Type)).
		Int("quantity", tx.Quantity).
		Msg("Transaction recorded")
	return tx, nil
}

// LatestActive returns the most recently processed, non-cancelled issue
// transaction, or domain.ErrNotFound when the ledger has none.
func (r *TransactionRecorder) LatestActive(ctx context.Context) (*domain.Transaction, error) {
	return r.store.LatestActiveIssue(ctx)
}

// Cancel flips the transaction's cancellation flag exactly once. A second
// cancel of the same record reports false with no error and no write. The
// flag transition is guarded by the transaction's version token so two
// concurrent cancellers cannot both succeed.
func (r *TransactionRecorder) Cancel(ctx context.Context, txID uint, cancelledBy string) (bool, error) {
	if strings.TrimSpace(cancelledBy) == "" {
		return false, domain.NewValidationError("cancelled_by", "actor is required")
	}

	// Re-read on conflict: the racer that lost sees the committed cancel.
	for {
		tx, err := r.store.FindTransactionByID(ctx, txID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return false, domain.ErrNotFound
			}
			return false, fmt.Errorf("read transaction %d: %w", txID, err)
		}
		if tx.IsCancelled {
			return false, nil
		}

		now := r.now()
		expected := tx.Version
		tx.IsCancelled = true
		tx.CancelledAt = &now
		tx.CancelledBy = cancelledBy
		tx.UpdatedAt = now

		err = r.store.UpdateTransaction(ctx, tx, expected)
		if err == nil {
			logger.Info(ctx).
				Uint("transaction_id", txID).
				Str("cancelled_by", cancelledBy).
				Msg("Transaction cancelled")
			return true, nil
		}
		if !errors.Is(err, domain.ErrVersionConflict) {
			return false, fmt.Errorf("cancel transaction %d: %w", txID, err)
		}
		if err := ctx.Err(); err != nil {
			return false, err
		}
	}
}

func validateAppend(p AppendParams) error {
	if p.ItemID == 0 {
		return domain.NewValidationError("item_id", "must be positive")
	}
	if p.DepartmentID == 0 {
		return domain.NewValidationError("department_id", "must be positive")
	}
	if !p.Type.Valid() {
		return domain.NewValidationError("type", "must be issue or return")
	}
	if p.Quantity < 1 || p.Quantity > MaxQuantity {
		return domain.NewValidationError("quantity",
			fmt.Sprintf("must be between 1 and %d", MaxQuantity))
	}
	if strings.TrimSpace(p.ProcessedBy) == "" {
		return domain.NewValidationError("processed_by", "is required")
	}
	if len(p.ProcessedBy) > MaxProcessedByLen {
		return domain.NewValidationError("processed_by",
			fmt.Sprintf("must be at most %d characters", MaxProcessedByLen))
	}
	if len(p.Remarks) > MaxRemarksLen {
		return domain.NewValidationError("remarks",
			fmt.Sprintf("must be at most %d characters", MaxRemarksLen))
	}
	return nil
}
