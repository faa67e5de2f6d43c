package query

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tair/stock-ledger/internal/ledger/domain"
	"github.com/tair/stock-ledger/internal/ledger/repository"
)

func newStore() *repository.MemoryLedgerStore {
	store := repository.NewMemoryLedgerStore()
	store.SeedItem(domain.Item{ID: 1, Code: "ITEM001", Name: "Stapler", CurrentStock: 8, IsActive: true})
	store.SeedItem(domain.Item{ID: 2, Code: "ITEM002", Name: "Legacy binder", CurrentStock: 5, IsActive: false})
	store.SeedDepartment(domain.Department{ID: 1, Code: "ENG", Name: "Engineering", IsActive: true})
	store.SeedDepartment(domain.Department{ID: 2, Code: "HR", Name: "Human Resources", IsActive: true})
	store.SeedDepartment(domain.Department{ID: 3, Code: "OLD", Name: "Disbanded", IsActive: false})
	return store
}

func TestCheckAvailability(t *testing.T) {
	h := NewCheckAvailabilityHandler(newStore())
	ctx := context.Background()

	cases := []struct {
		name   string
		query  CheckAvailabilityQuery
		want   bool
		errors bool
	}{
		{"covered", CheckAvailabilityQuery{ItemID: 1, Quantity: 8}, true, false},
		{"short", CheckAvailabilityQuery{ItemID: 1, Quantity: 9}, false, false},
		{"missing item", CheckAvailabilityQuery{ItemID: 99, Quantity: 1}, false, false},
		{"inactive item", CheckAvailabilityQuery{ItemID: 2, Quantity: 1}, false, false},
		{"zero quantity", CheckAvailabilityQuery{ItemID: 1, Quantity: 0}, false, true},
		{"zero item id", CheckAvailabilityQuery{ItemID: 0, Quantity: 1}, false, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ok, err := h.Handle(ctx, tc.query)
			if tc.errors {
				var verr *domain.ValidationError
				require.ErrorAs(t, err, &verr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, ok)
		})
	}
}

func TestGetItem(t *testing.T) {
	h := NewGetItemHandler(newStore())
	ctx := context.Background()

	item, err := h.Handle(ctx, GetItemQuery{ID: 1})
	require.NoError(t, err)
	assert.Equal(t, "ITEM001", item.Code)

	_, err = h.Handle(ctx, GetItemQuery{ID: 99})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// Inactive items are invisible to reads.
	_, err = h.Handle(ctx, GetItemQuery{ID: 2})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGetItemByCode(t *testing.T) {
	h := NewGetItemByCodeHandler(newStore())
	ctx := context.Background()

	item, err := h.Handle(ctx, GetItemByCodeQuery{Code: "ITEM001"})
	require.NoError(t, err)
	assert.Equal(t, uint(1), item.ID)

	_, err = h.Handle(ctx, GetItemByCodeQuery{Code: "ITEM999"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	for _, code := range []string{"", "ab", "has space", "way-too-long-for-a-barcode", "bad!chars"} {
		_, err := h.Handle(ctx, GetItemByCodeQuery{Code: code})
		var verr *domain.ValidationError
		assert.ErrorAs(t, err, &verr, "code %q", code)
	}
}

func TestListDepartments(t *testing.T) {
	h := NewListDepartmentsHandler(newStore())

	depts, err := h.Handle(context.Background())
	require.NoError(t, err)
	require.Len(t, depts, 2)
	assert.Equal(t, "ENG", depts[0].Code)
	assert.Equal(t, "HR", depts[1].Code)
}

func TestListTransactions(t *testing.T) {
	store := newStore()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		tx := domain.Transaction{
			ItemID:       1,
			DepartmentID: 1,
			Type:         domain.TransactionIssue,
			Quantity:     i + 1,
			ProcessedBy:  "alice",
			ProcessedAt:  base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, store.AppendTransaction(context.Background(), &tx))
	}

	h := NewListTransactionsHandler(store)

	// Newest first, limit honoured.
	txs, err := h.Handle(context.Background(), ListTransactionsQuery{Limit: 3})
	require.NoError(t, err)
	require.Len(t, txs, 3)
	assert.Equal(t, 5, txs[0].Quantity)
	assert.Equal(t, 3, txs[2].Quantity)

	// Offset pages past the newest entries.
	txs, err = h.Handle(context.Background(), ListTransactionsQuery{Limit: 3, Offset: 3})
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, 2, txs[0].Quantity)

	// Nonsense paging falls back to defaults.
	txs, err = h.Handle(context.Background(), ListTransactionsQuery{Limit: -1, Offset: -4})
	require.NoError(t, err)
	assert.Len(t, txs, 5)
}
