package query

import (
	"context"
	"errors"
	"fmt"

	"github.com/tair/stock-ledger/internal/barcode"
	"github.com/tair/stock-ledger/internal/ledger/domain"
)

// GetItemQuery represents the query to get an item by id
type GetItemQuery struct {
	ID uint
}

// GetItemHandler handles get item query
type GetItemHandler struct {
	store domain.LedgerStore
}

// NewGetItemHandler creates a new get item handler
func NewGetItemHandler(store domain.LedgerStore) *GetItemHandler {
	return &GetItemHandler{store: store}
}

// Handle executes the get item query. Inactive items are reported as missing.
func (h *GetItemHandler) Handle(ctx context.Context, q GetItemQuery) (*domain.Item, error) {
	if q.ID == 0 {
		return nil, domain.NewValidationError("id", "must be positive")
	}

	item, err := h.store.FindItemByID(ctx, q.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find item %d: %w", q.ID, err)
	}
	if !item.IsActive {
		return nil, domain.ErrNotFound
	}
	return item, nil
}

// GetItemByCodeQuery represents the query to resolve a scanned code to an item
type GetItemByCodeQuery struct {
	Code string
}

// GetItemByCodeHandler resolves a barcode to its item
type GetItemByCodeHandler struct {
	store domain.LedgerStore
}

// NewGetItemByCodeHandler creates a new get item by code handler
func NewGetItemByCodeHandler(store domain.LedgerStore) *GetItemByCodeHandler {
	return &GetItemByCodeHandler{store: store}
}

// Handle executes the lookup
func (h *GetItemByCodeHandler) Handle(ctx context.Context, q GetItemByCodeQuery) (*domain.Item, error) {
	if !barcode.ValidateFormat(q.Code) {
		return nil, domain.NewValidationError("code", "must be 3-20 alphanumeric characters")
	}

	item, err := h.store.FindItemByCode(ctx, q.Code)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find item by code %q: %w", q.Code, err)
	}
	if !item.IsActive {
		return nil, domain.ErrNotFound
	}
	return item, nil
}
