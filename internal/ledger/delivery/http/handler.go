package http

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/tair/stock-ledger/internal/barcode"
	"github.com/tair/stock-ledger/internal/ledger/domain"
	"github.com/tair/stock-ledger/internal/ledger/usecase/command"
	"github.com/tair/stock-ledger/internal/ledger/usecase/query"
	"github.com/tair/stock-ledger/kafka"
	"github.com/tair/stock-ledger/pkg/logger"
)

// LedgerHandler handles HTTP requests for the stock ledger
type LedgerHandler struct {
	issueHandler        *command.IssueStockHandler
	cancelHandler       *command.CancelLastHandler
	availabilityHandler *query.CheckAvailabilityHandler
	getItemHandler      *query.GetItemHandler
	getByCodeHandler    *query.GetItemByCodeHandler
	listDeptsHandler    *query.ListDepartmentsHandler
	listTxHandler       *query.ListTransactionsHandler
	scanner             barcode.Scanner
	kafkaPublisher      *kafka.Publisher
}

// NewLedgerHandler creates a new ledger handler
func NewLedgerHandler(
	issueHandler *command.IssueStockHandler,
	cancelHandler *command.CancelLastHandler,
	availabilityHandler *query.CheckAvailabilityHandler,
	getItemHandler *query.GetItemHandler,
	getByCodeHandler *query.GetItemByCodeHandler,
	listDeptsHandler *query.ListDepartmentsHandler,
	listTxHandler *query.ListTransactionsHandler,
	scanner barcode.Scanner,
) *LedgerHandler {
	return &LedgerHandler{
		issueHandler:        issueHandler,
		cancelHandler:       cancelHandler,
		availabilityHandler: availabilityHandler,
		getItemHandler:      getItemHandler,
		getByCodeHandler:    getByCodeHandler,
		listDeptsHandler:    listDeptsHandler,
		listTxHandler:       listTxHandler,
		scanner:             scanner,
	}
}

// SetKafkaPublisher attaches the movement event publisher (optional)
func (h *LedgerHandler) SetKafkaPublisher(p *kafka.Publisher) {
	h.kafkaPublisher = p
}

type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// IssueStock handles POST /api/stock/issue
func (h *LedgerHandler) IssueStock(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ItemID       uint   `json:"item_id"`
		DepartmentID uint   `json:"department_id"`
		Quantity     int    `json:"quantity"`
		ProcessedBy  string `json:"processed_by"`
		Remarks      string `json:"remarks"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "Invalid request body",
		})
		return
	}
	if req.ProcessedBy == "" {
		req.ProcessedBy = actorFromContext(r.Context())
	}

	outcome := h.issueHandler.Handle(r.Context(), command.IssueStockCommand{
		ItemID:       req.ItemID,
		DepartmentID: req.DepartmentID,
		Quantity:     req.Quantity,
		ProcessedBy:  req.ProcessedBy,
		Remarks:      req.Remarks,
	})

	if outcome.Success {
		h.publishMovement(r, kafka.EventTypeStockIssued, outcome.Transaction)
	}
	respondOutcome(w, outcome)
}

// CancelLast handles POST /api/stock/cancel-last
func (h *LedgerHandler) CancelLast(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CancelledBy string `json:"cancelled_by"`
	}
	// Body is optional, actor may come from the auth token
	_ = json.NewDecoder(r.Body).Decode(&req)
	if req.CancelledBy == "" {
		req.CancelledBy = actorFromContext(r.Context())
	}

	outcome := h.cancelHandler.Handle(r.Context(), command.CancelLastCommand{
		CancelledBy: req.CancelledBy,
	})

	if outcome.Success {
		h.publishMovement(r, kafka.EventTypeStockCancelled, outcome.Transaction)
	}
	respondOutcome(w, outcome)
}

// CheckAvailability handles GET /api/stock/{item_id}/availability
func (h *LedgerHandler) CheckAvailability(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	itemID, err := strconv.ParseUint(vars["item_id"], 10, 32)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "Invalid item ID",
		})
		return
	}
	quantity, err := strconv.Atoi(r.URL.Query().Get("quantity"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "Invalid quantity",
		})
		return
	}

	available, err := h.availabilityHandler.Handle(r.Context(), query.CheckAvailabilityQuery{
		ItemID:   uint(itemID),
		Quantity: quantity,
	})
	if err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			respondJSON(w, http.StatusBadRequest, Response{Success: false, Error: verr.Error()})
			return
		}
		logger.Error(r.Context()).Err(err).Msg("Availability check failed")
		respondJSON(w, http.StatusInternalServerError, Response{
			Success: false,
			Error:   "Failed to check availability",
		})
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    map[string]bool{"available": available},
	})
}

// GetItem handles GET /api/items/{id}
func (h *LedgerHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id, err := strconv.ParseUint(vars["id"], 10, 32)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "Invalid item ID",
		})
		return
	}

	item, err := h.getItemHandler.Handle(r.Context(), query.GetItemQuery{ID: uint(id)})
	if err != nil {
		respondItemError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, Response{Success: true, Data: item})
}

// GetItemByCode handles GET /api/items/code/{code}
func (h *LedgerHandler) GetItemByCode(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]

	item, err := h.getByCodeHandler.Handle(r.Context(), query.GetItemByCodeQuery{Code: code})
	if err != nil {
		respondItemError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, Response{Success: true, Data: item})
}

// ScanBarcode handles POST /api/barcode/scan
func (h *LedgerHandler) ScanBarcode(w http.ResponseWriter, r *http.Request) {
	code, err := h.scanner.Scan(r.Context())
	if err != nil {
		logger.Error(r.Context()).Err(err).Msg("Barcode scan failed")
		respondJSON(w, http.StatusInternalServerError, Response{
			Success: false,
			Error:   "Scan failed",
		})
		return
	}

	item, err := h.getByCodeHandler.Handle(r.Context(), query.GetItemByCodeQuery{Code: code})
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		var verr *domain.ValidationError
		if !errors.As(err, &verr) {
			logger.Error(r.Context()).Err(err).Str("code", code).Msg("Item lookup after scan failed")
			respondJSON(w, http.StatusInternalServerError, Response{
				Success: false,
				Error:   "Item lookup failed",
			})
			return
		}
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Data: map[string]interface{}{
			"code": code,
			"item": item,
		},
	})
}

// ListDepartments handles GET /api/departments
func (h *LedgerHandler) ListDepartments(w http.ResponseWriter, r *http.Request) {
	depts, err := h.listDeptsHandler.Handle(r.Context())
	if err != nil {
		logger.Error(r.Context()).Err(err).Msg("Failed to list departments")
		respondJSON(w, http.StatusInternalServerError, Response{
			Success: false,
			Error:   "Failed to list departments",
		})
		return
	}

	respondJSON(w, http.StatusOK, Response{Success: true, Data: depts})
}

// ListTransactions handles GET /api/transactions
func (h *LedgerHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	txs, err := h.listTxHandler.Handle(r.Context(), query.ListTransactionsQuery{
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		logger.Error(r.Context()).Err(err).Msg("Failed to list transactions")
		respondJSON(w, http.StatusInternalServerError, Response{
			Success: false,
			Error:   "Failed to list transactions",
		})
		return
	}

	respondJSON(w, http.StatusOK, Response{Success: true, Data: txs})
}

// RegisterRoutes registers all ledger routes
func (h *LedgerHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/stock/issue", h.IssueStock).Methods("POST")
	router.HandleFunc("/api/stock/cancel-last", h.CancelLast).Methods("POST")
	router.HandleFunc("/api/stock/{item_id}/availability", h.CheckAvailability).Methods("GET")
	router.HandleFunc("/api/items/{id:[0-9]+}", h.GetItem).Methods("GET")
	router.HandleFunc("/api/items/code/{code}", h.GetItemByCode).Methods("GET")
	router.HandleFunc("/api/barcode/scan", h.ScanBarcode).Methods("POST")
	router.HandleFunc("/api/departments", h.ListDepartments).Methods("GET")
	router.HandleFunc("/api/transactions", h.ListTransactions).Methods("GET")
}

// RegisterHealthCheck registers the health check endpoint
func (h *LedgerHandler) RegisterHealthCheck(router *mux.Router, db *sql.DB) {
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			if err := db.Ping(); err != nil {
				respondJSON(w, http.StatusServiceUnavailable, Response{
					Success: false,
					Error:   "Database unavailable",
				})
				return
			}
		}
		respondJSON(w, http.StatusOK, Response{
			Success: true,
			Message: "Stock ledger service is healthy",
		})
	}).Methods("GET")
}

func (h *LedgerHandler) publishMovement(r *http.Request, eventType string, tx *domain.Transaction) {
	if h.kafkaPublisher == nil || tx == nil {
		return
	}
	event := kafka.StockMovementEvent{
		EventType:     eventType,
		TransactionID: tx.ID,
		ItemID:        tx.ItemID,
		DepartmentID:  tx.DepartmentID,
		Quantity:      tx.Quantity,
		BeforeStock:   tx.BeforeStock,
		AfterStock:    tx.AfterStock,
		ProcessedBy:   tx.ProcessedBy,
		Timestamp:     tx.ProcessedAt,
	}
	// Enrich with the item's code and threshold so downstream alert
	// consumers need no database access.
	if item, err := h.getItemHandler.Handle(r.Context(), query.GetItemQuery{ID: tx.ItemID}); err == nil {
		event.ItemCode = item.Code
		event.MinimumStock = item.MinimumStock
	}
	if err := h.kafkaPublisher.PublishStockMovement(r.Context(), event); err != nil {
		// The movement is committed; a lost event never fails the request.
		logger.Error(r.Context()).Err(err).
			Uint("transaction_id", tx.ID).
			Msg("Failed to publish stock movement event")
	}
}

func respondOutcome(w http.ResponseWriter, outcome *domain.TransactionOutcome) {
	respondJSON(w, outcomeStatus(outcome), outcome)
}

func outcomeStatus(outcome *domain.TransactionOutcome) int {
	if outcome.Success {
		return http.StatusOK
	}
	switch outcome.ErrorCode {
	case domain.CodeValidationError:
		return http.StatusBadRequest
	case domain.CodeItemNotFound, domain.CodeNoTransaction:
		return http.StatusNotFound
	case domain.CodeInsufficientStock, domain.CodeUpdateFailed, domain.CodeCancelFailed:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func respondItemError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		respondJSON(w, http.StatusBadRequest, Response{Success: false, Error: verr.Error()})
	case errors.Is(err, domain.ErrNotFound):
		respondJSON(w, http.StatusNotFound, Response{Success: false, Error: "Item not found"})
	default:
		logger.Error(r.Context()).Err(err).Msg("Item lookup failed")
		respondJSON(w, http.StatusInternalServerError, Response{Success: false, Error: "Item lookup failed"})
	}
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
