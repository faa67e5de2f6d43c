package http

import (
	"net/http"

	"github.com/gorilla/mux"
)

// RegisterSwaggerDocs registers the Swagger UI route
// @Summary Swagger documentation
// @Description Swagger API documentation for the Stock Ledger Service
// @Tags Swagger
// @Success 200 {string} string "Swagger UI"
// @Router /swagger/ [get]
func RegisterSwaggerDocs(router *mux.Router, swaggerHandler http.Handler) {
	router.PathPrefix("/swagger/").Handler(swaggerHandler)
}

// IssueStock godoc
// @Summary Issue stock to a department
// @Description Atomically decrement an item's stock and append a ledger entry
// @Tags Stock
// @Accept json
// @Produce json
// @Param request body object{item_id=int,department_id=int,quantity=int,processed_by=string,remarks=string} true "Issue request"
// @Success 200 {object} object{success=bool,message=string,transaction=object}
// @Failure 400 {object} object{success=bool,message=string,error_code=string}
// @Failure 404 {object} object{success=bool,message=string,error_code=string}
// @Failure 409 {object} object{success=bool,message=string,error_code=string}
// @Router /api/stock/issue [post]
func (h *LedgerHandler) IssueStockDoc() {}

// CancelLast godoc
// @Summary Cancel the most recent issue
// @Description Restore the stock of the latest non-cancelled issue and mark it cancelled
// @Tags Stock
// @Accept json
// @Produce json
// @Param request body object{cancelled_by=string} false "Acting identity"
// @Success 200 {object} object{success=bool,message=string,transaction=object}
// @Failure 404 {object} object{success=bool,message=string,error_code=string}
// @Failure 409 {object} object{success=bool,message=string,error_code=string}
// @Router /api/stock/cancel-last [post]
func (h *LedgerHandler) CancelLastDoc() {}

// CheckAvailability godoc
// @Summary Check stock availability
// @Description Advisory check whether an item can cover a quantity
// @Tags Stock
// @Produce json
// @Param item_id path int true "Item ID"
// @Param quantity query int true "Requested quantity"
// @Success 200 {object} object{success=bool,data=object{available=bool}}
// @Failure 400 {object} object{success=bool,error=string}
// @Router /api/stock/{item_id}/availability [get]
func (h *LedgerHandler) CheckAvailabilityDoc() {}

// GetItemByCode godoc
// @Summary Resolve a barcode to an item
// @Tags Items
// @Produce json
// @Param code path string true "Item code"
// @Success 200 {object} object{success=bool,data=object}
// @Failure 404 {object} object{success=bool,error=string}
// @Router /api/items/code/{code} [get]
func (h *LedgerHandler) GetItemByCodeDoc() {}

// ListTransactions godoc
// @Summary List ledger transactions
// @Tags Transactions
// @Produce json
// @Param limit query int false "Limit"
// @Param offset query int false "Offset"
// @Success 200 {object} object{success=bool,data=array}
// @Router /api/transactions [get]
func (h *LedgerHandler) ListTransactionsDoc() {}
