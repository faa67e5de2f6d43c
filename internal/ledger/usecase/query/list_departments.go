package query

import (
	"context"
	"fmt"

	"github.com/tair/stock-ledger/internal/ledger/domain"
)

// ListDepartmentsHandler lists active departments
type ListDepartmentsHandler struct {
	store domain.LedgerStore
}

// NewListDepartmentsHandler creates a new list departments handler
func NewListDepartmentsHandler(store domain.LedgerStore) *ListDepartmentsHandler {
	return &ListDepartmentsHandler{store: store}
}

// Handle executes the list departments query
func (h *ListDepartmentsHandler) Handle(ctx context.Context) ([]domain.Department, error) {
	depts, err := h.store.ListActiveDepartments(ctx)
	if err != nil {
		return nil, fmt.Errorf("list departments: %w", err)
	}
	return depts, nil
}
