package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tair/stock-ledger/internal/barcode"
	"github.com/tair/stock-ledger/internal/ledger"
	httpdelivery "github.com/tair/stock-ledger/internal/ledger/delivery/http"
	"github.com/tair/stock-ledger/internal/ledger/domain"
	"github.com/tair/stock-ledger/internal/ledger/repository"
	"github.com/tair/stock-ledger/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.Init("http-test", false)
	logger.SetLevel("error")
	os.Exit(m.Run())
}

func newTestServer(t *testing.T) (*httptest.Server, *repository.MemoryLedgerStore) {
	t.Helper()

	store := repository.NewMemoryLedgerStore()
	store.SeedItem(domain.Item{
		ID:           1,
		Code:         "ITEM001",
		Name:         "Stapler",
		Unit:         "pcs",
		CurrentStock: 10,
		MinimumStock: 2,
		IsActive:     true,
	})
	store.SeedDepartment(domain.Department{ID: 1, Code: "ENG", Name: "Engineering", IsActive: true})

	scanner := barcode.NewMockScanner(
		barcode.WithDelay(0),
		barcode.WithCodes([]string{"ITEM001"}),
	)
	handler, err := ledger.InitializeLedgerHandler(store, scanner)
	require.NoError(t, err)

	router := mux.NewRouter()
	handler.RegisterRoutes(router)
	handler.RegisterHealthCheck(router, nil)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, store
}

func postJSON(t *testing.T, url string, body interface{}) (*http.Response, httpdelivery.Response) {
	t.Helper()
	buf, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(buf))
	require.NoError(t, err)
	defer resp.Body.Close()
	var decoded httpdelivery.Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

func postOutcome(t *testing.T, url string, body interface{}) (*http.Response, domain.TransactionOutcome) {
	t.Helper()
	buf, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(buf))
	require.NoError(t, err)
	defer resp.Body.Close()
	var outcome domain.TransactionOutcome
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&outcome))
	return resp, outcome
}

func getJSON(t *testing.T, url string) (*http.Response, httpdelivery.Response) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	var decoded httpdelivery.Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

func TestIssueEndpoint(t *testing.T) {
	srv, store := newTestServer(t)

	resp, outcome := postOutcome(t, srv.URL+"/api/stock/issue", map[string]interface{}{
		"item_id":       1,
		"department_id": 1,
		"quantity":      4,
		"processed_by":  "alice",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.True(t, outcome.Success)
	require.NotNil(t, outcome.Transaction)
	assert.Equal(t, 10, outcome.Transaction.BeforeStock)
	assert.Equal(t, 6, outcome.Transaction.AfterStock)

	item, _ := store.FindItemByID(context.Background(), 1)
	assert.Equal(t, 6, item.CurrentStock)
}

func TestIssueEndpoint_Failures(t *testing.T) {
	srv, _ := newTestServer(t)

	cases := []struct {
		name       string
		body       map[string]interface{}
		wantStatus int
		wantCode   domain.ErrorCode
	}{
		{
			"insufficient",
			map[string]interface{}{"item_id": 1, "department_id": 1, "quantity": 11, "processed_by": "alice"},
			http.StatusConflict, domain.CodeInsufficientStock,
		},
		{
			"unknown item",
			map[string]interface{}{"item_id": 99, "department_id": 1, "quantity": 1, "processed_by": "alice"},
			http.StatusNotFound, domain.CodeItemNotFound,
		},
		{
			"zero quantity",
			map[string]interface{}{"item_id": 1, "department_id": 1, "quantity": 0, "processed_by": "alice"},
			http.StatusBadRequest, domain.CodeValidationError,
		},
		{
			"no actor",
			map[string]interface{}{"item_id": 1, "department_id": 1, "quantity": 1},
			http.StatusBadRequest, domain.CodeValidationError,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, outcome := postOutcome(t, srv.URL+"/api/stock/issue", tc.body)
			assert.Equal(t, tc.wantStatus, resp.StatusCode)
			assert.False(t, outcome.Success)
			assert.Equal(t, tc.wantCode, outcome.ErrorCode)
		})
	}
}

func TestCancelLastEndpoint(t *testing.T) {
	srv, store := newTestServer(t)

	_, issued := postOutcome(t, srv.URL+"/api/stock/issue", map[string]interface{}{
		"item_id": 1, "department_id": 1, "quantity": 3, "processed_by": "alice",
	})
	require.True(t, issued.Success)

	resp, outcome := postOutcome(t, srv.URL+"/api/stock/cancel-last", map[string]interface{}{
		"cancelled_by": "bob",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.True(t, outcome.Success)
	assert.True(t, outcome.Transaction.IsCancelled)

	item, _ := store.FindItemByID(context.Background(), 1)
	assert.Equal(t, 10, item.CurrentStock)

	// Nothing left to cancel.
	resp, outcome = postOutcome(t, srv.URL+"/api/stock/cancel-last", map[string]interface{}{
		"cancelled_by": "bob",
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, domain.CodeNoTransaction, outcome.ErrorCode)
}

func TestAvailabilityEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, body := getJSON(t, srv.URL+"/api/stock/1/availability?quantity=10")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.True(t, body.Success)
	data := body.Data.(map[string]interface{})
	assert.Equal(t, true, data["available"])

	_, body = getJSON(t, srv.URL+"/api/stock/1/availability?quantity=11")
	data = body.Data.(map[string]interface{})
	assert.Equal(t, false, data["available"])

	resp, _ = getJSON(t, srv.URL+"/api/stock/1/availability?quantity=abc")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetItemEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, body := getJSON(t, srv.URL+"/api/items/1")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	item := body.Data.(map[string]interface{})
	assert.Equal(t, "ITEM001", item["code"])

	resp, _ = getJSON(t, srv.URL+"/api/items/999")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = getJSON(t, srv.URL+"/api/items/code/ITEM001")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	item = body.Data.(map[string]interface{})
	assert.Equal(t, float64(1), item["id"])

	resp, _ = getJSON(t, srv.URL+"/api/items/code/nosuchcode1")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestScanEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, body := postJSON(t, srv.URL+"/api/barcode/scan", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.True(t, body.Success)
	data := body.Data.(map[string]interface{})
	assert.Equal(t, "ITEM001", data["code"])
	require.NotNil(t, data["item"])
}

func TestListEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, body := getJSON(t, srv.URL+"/api/departments")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body.Data.([]interface{}), 1)

	for i := 0; i < 3; i++ {
		_, outcome := postOutcome(t, srv.URL+"/api/stock/issue", map[string]interface{}{
			"item_id": 1, "department_id": 1, "quantity": i + 1, "processed_by": "alice",
		})
		require.True(t, outcome.Success)
	}

	resp, body = getJSON(t, fmt.Sprintf("%s/api/transactions?limit=%d", srv.URL, 2))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body.Data.([]interface{}), 2)
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, body := getJSON(t, srv.URL+"/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, body.Success)
}
