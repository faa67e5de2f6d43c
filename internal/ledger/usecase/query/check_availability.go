package query

import (
	"context"
	"errors"

	"github.com/tair/stock-ledger/internal/ledger/domain"
)

// CheckAvailabilityQuery asks whether an item can cover a quantity
type CheckAvailabilityQuery struct {
	ItemID   uint
	Quantity int
}

// CheckAvailabilityHandler handles the availability query. It is a pure
// read used as a fast pre-check; the authoritative gate stays inside the
// mutator's conditional write.
type CheckAvailabilityHandler struct {
	store domain.LedgerStore
}

// NewCheckAvailabilityHandler creates a new check availability handler
func NewCheckAvailabilityHandler(store domain.LedgerStore) *CheckAvailabilityHandler {
	return &CheckAvailabilityHandler{store: store}
}

// Handle executes the availability check
func (h *CheckAvailabilityHandler) Handle(ctx context.Context, q CheckAvailabilityQuery) (bool, error) {
	if q.ItemID == 0 {
		return false, domain.NewValidationError("item_id", "must be positive")
	}
	if q.Quantity < 1 {
		return false, domain.NewValidationError("quantity", "must be positive")
	}

	item, err := h.store.FindItemByID(ctx, q.ItemID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	if !item.IsActive {
		return false, nil
	}
	return item.CurrentStock >= q.Quantity, nil
}
