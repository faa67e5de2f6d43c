package query

import (
	"context"
	"fmt"

	"github.com/tair/stock-ledger/internal/ledger/domain"
)

// ListTransactionsQuery represents the query to page through the ledger
type ListTransactionsQuery struct {
	Limit  int
	Offset int
}

// ListTransactionsHandler handles list transactions query
type ListTransactionsHandler struct {
	store domain.LedgerStore
}

// NewListTransactionsHandler creates a new list transactions handler
func NewListTransactionsHandler(store domain.LedgerStore) *ListTransactionsHandler {
	return &ListTransactionsHandler{store: store}
}

// Handle executes the list transactions query, newest first
func (h *ListTransactionsHandler) Handle(ctx context.Context, q ListTransactionsQuery) ([]domain.Transaction, error) {
	if q.Limit <= 0 {
		q.Limit = 10
	}
	if q.Offset < 0 {
		q.Offset = 0
	}

	txs, err := h.store.ListTransactions(ctx, q.Limit, q.Offset)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txs, nil
}
