//go:build wireinject
// +build wireinject

package ledger

import (
	"github.com/google/wire"

	"github.com/tair/stock-ledger/internal/barcode"
	httpdelivery "github.com/tair/stock-ledger/internal/ledger/delivery/http"
	"github.com/tair/stock-ledger/internal/ledger/domain"
	"github.com/tair/stock-ledger/internal/ledger/engine"
	"github.com/tair/stock-ledger/internal/ledger/usecase/command"
	"github.com/tair/stock-ledger/internal/ledger/usecase/query"
)

// ProvideRetryPolicy provides the production optimistic-retry policy
func ProvideRetryPolicy() engine.RetryPolicy {
	return engine.DefaultRetryPolicy()
}

// EngineSet wires the ledger engine components
var EngineSet = wire.NewSet(
	ProvideRetryPolicy,
	engine.NewStockMutator,
	engine.NewTransactionRecorder,
)

// UsecaseSet wires the command and query handlers
var UsecaseSet = wire.NewSet(
	command.NewIssueStockHandler,
	command.NewCancelLastHandler,
	query.NewCheckAvailabilityHandler,
	query.NewGetItemHandler,
	query.NewGetItemByCodeHandler,
	query.NewListDepartmentsHandler,
	query.NewListTransactionsHandler,
)

// InitializeLedgerHandler builds the HTTP handler with all dependencies
func InitializeLedgerHandler(store domain.LedgerStore, scanner barcode.Scanner) (*httpdelivery.LedgerHandler, error) {
	wire.Build(
		EngineSet,
		UsecaseSet,
		httpdelivery.NewLedgerHandler,
	)
	return nil, nil
}
