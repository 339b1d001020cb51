package controller_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/api-sage/core-banking-ledger/internal/adapter/http/controller"
	"github.com/api-sage/core-banking-ledger/internal/adapter/http/models"
	"github.com/api-sage/core-banking-ledger/internal/adapter/http/router"
	"github.com/api-sage/core-banking-ledger/internal/adapter/repository/memory"
	"github.com/api-sage/core-banking-ledger/internal/commons"
	"github.com/api-sage/core-banking-ledger/internal/usecase/services"
)

func newTestMux() *http.ServeMux {
	accounts := memory.NewAccountStore()
	movements := memory.NewMovementStore()
	ids := services.NewIdentifierGenerator(accounts, movements)
	ledger := services.NewAccountLedger(accounts, ids)
	processor := services.NewTransactionProcessor(ledger, accounts, movements, ids)
	reversals := services.NewReversalEngine(movements, processor, ids)

	return router.New(
		controller.NewAccountController(ledger),
		controller.NewMovementController(processor, reversals),
		nil,
	)
}

func doJSON(t *testing.T, mux *http.ServeMux, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func decodeResponse[T any](t *testing.T, rec *httptest.ResponseRecorder) commons.Response[T] {
	t.Helper()
	var resp commons.Response[T]
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func openTestAccount(t *testing.T, mux *http.ServeMux, body models.OpenAccountRequest) models.AccountResponse {
	t.Helper()
	rec := doJSON(t, mux, http.MethodPost, "/accounts", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	resp := decodeResponse[models.AccountResponse](t, rec)
	require.NotNil(t, resp.Data)
	return *resp.Data
}

func TestOpenAccountEndpoint(t *testing.T) {
	mux := newTestMux()

	account := openTestAccount(t, mux, models.OpenAccountRequest{
		OwnerID:        "owner-1",
		OwnerName:      "Ana Castillo",
		AccountType:    "SAVINGS",
		InitialBalance: "250.00",
	})

	assert.Len(t, account.AccountNumber, 10)
	assert.Equal(t, "ACTIVE", account.Status)
	assert.Equal(t, "250.00", account.AvailableBalance)
	assert.Equal(t, "USD", account.Currency)
}

func TestOpenAccountEndpointValidation(t *testing.T) {
	mux := newTestMux()

	rec := doJSON(t, mux, http.MethodPost, "/accounts", models.OpenAccountRequest{
		AccountType: "LOAN",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	resp := decodeResponse[models.AccountResponse](t, rec)
	assert.False(t, resp.Success)
	assert.NotEmpty(t, resp.Errors)
}

func TestGetAccountEndpointNotFound(t *testing.T) {
	mux := newTestMux()

	rec := doJSON(t, mux, http.MethodGet, "/accounts/0000000000", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListAccountsEndpoint(t *testing.T) {
	mux := newTestMux()

	openTestAccount(t, mux, models.OpenAccountRequest{OwnerID: "owner-1", AccountType: "SAVINGS"})
	openTestAccount(t, mux, models.OpenAccountRequest{OwnerID: "owner-1", AccountType: "CHECKING"})

	rec := doJSON(t, mux, http.MethodGet, "/accounts?ownerId=owner-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse[[]models.AccountResponse](t, rec)
	require.NotNil(t, resp.Data)
	assert.Len(t, *resp.Data, 2)

	// ownerId is required for listing.
	rec = doJSON(t, mux, http.MethodGet, "/accounts", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBalanceEndpoint(t *testing.T) {
	mux := newTestMux()

	account := openTestAccount(t, mux, models.OpenAccountRequest{
		OwnerID:        "owner-1",
		AccountType:    "SAVINGS",
		InitialBalance: "75.50",
	})

	rec := doJSON(t, mux, http.MethodGet, "/accounts/"+account.AccountNumber+"/balance", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse[models.BalanceResponse](t, rec)
	require.NotNil(t, resp.Data)
	assert.Equal(t, "75.50", resp.Data.AvailableBalance)
}

func TestBlockEndpointConflictsMapTo422(t *testing.T) {
	mux := newTestMux()

	account := openTestAccount(t, mux, models.OpenAccountRequest{OwnerID: "owner-1", AccountType: "SAVINGS"})

	rec := doJSON(t, mux, http.MethodPost, "/accounts/"+account.AccountNumber+"/block", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, mux, http.MethodPost, "/accounts/"+account.AccountNumber+"/block", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = doJSON(t, mux, http.MethodPost, "/accounts/"+account.AccountNumber+"/unblock", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPostMovementEndpoint(t *testing.T) {
	mux := newTestMux()

	account := openTestAccount(t, mux, models.OpenAccountRequest{
		OwnerID:        "owner-1",
		AccountType:    "CHECKING",
		InitialBalance: "100.00",
		OverdraftLimit: "50.00",
	})

	rec := doJSON(t, mux, http.MethodPost, "/movements", models.PostMovementRequest{
		AccountNumber: account.AccountNumber,
		Kind:          "DEBIT",
		Amount:        "140.00",
		Concept:       "WITHDRAWAL",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	resp := decodeResponse[models.MovementResponse](t, rec)
	require.NotNil(t, resp.Data)
	assert.Equal(t, "-40.00", resp.Data.BalanceAfter)
	assert.True(t, resp.Data.Processed)

	// Exhausted headroom maps to 422.
	rec = doJSON(t, mux, http.MethodPost, "/movements", models.PostMovementRequest{
		AccountNumber: account.AccountNumber,
		Kind:          "DEBIT",
		Amount:        "10.01",
		Concept:       "WITHDRAWAL",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestPostMovementEndpointDuplicateVoucher(t *testing.T) {
	mux := newTestMux()

	account := openTestAccount(t, mux, models.OpenAccountRequest{OwnerID: "owner-1", AccountType: "SAVINGS"})

	body := models.PostMovementRequest{
		AccountNumber: account.AccountNumber,
		VoucherNumber: "MOV-2026-00000001",
		Kind:          "CREDIT",
		Amount:        "10.00",
		Concept:       "DEPOSIT",
	}

	rec := doJSON(t, mux, http.MethodPost, "/movements", body)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, mux, http.MethodPost, "/movements", body)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestReverseMovementEndpoint(t *testing.T) {
	mux := newTestMux()

	account := openTestAccount(t, mux, models.OpenAccountRequest{
		OwnerID:        "owner-1",
		AccountType:    "SAVINGS",
		InitialBalance: "100.00",
	})

	rec := doJSON(t, mux, http.MethodPost, "/movements", models.PostMovementRequest{
		AccountNumber: account.AccountNumber,
		VoucherNumber: "MOV-2026-00000002",
		Kind:          "DEBIT",
		Amount:        "30.00",
		Concept:       "WITHDRAWAL",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, mux, http.MethodPost, "/movements/MOV-2026-00000002/reverse",
		models.ReverseMovementRequest{Reason: "teller error"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	resp := decodeResponse[models.MovementResponse](t, rec)
	require.NotNil(t, resp.Data)
	assert.Equal(t, "CREDIT", resp.Data.Kind)
	assert.Equal(t, "100.00", resp.Data.BalanceAfter)

	// A second reversal of the same voucher maps to 422.
	rec = doJSON(t, mux, http.MethodPost, "/movements/MOV-2026-00000002/reverse",
		models.ReverseMovementRequest{Reason: "again"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	// The reason is required.
	rec = doJSON(t, mux, http.MethodPost, "/movements/MOV-2026-00000002/reverse",
		models.ReverseMovementRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListMovementsEndpoint(t *testing.T) {
	mux := newTestMux()

	account := openTestAccount(t, mux, models.OpenAccountRequest{
		OwnerID:        "owner-1",
		AccountType:    "SAVINGS",
		InitialBalance: "100.00",
	})

	for _, post := range []models.PostMovementRequest{
		{AccountNumber: account.AccountNumber, VoucherNumber: "MOV-2026-00000010", Kind: "CREDIT", Amount: "10.00", Concept: "DEPOSIT"},
		{AccountNumber: account.AccountNumber, VoucherNumber: "MOV-2026-00000011", Kind: "DEBIT", Amount: "5.00", Concept: "WITHDRAWAL"},
	} {
		rec := doJSON(t, mux, http.MethodPost, "/movements", post)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := doJSON(t, mux, http.MethodGet, "/accounts/"+account.AccountNumber+"/movements", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse[[]models.MovementResponse](t, rec)
	require.NotNil(t, resp.Data)
	assert.Len(t, *resp.Data, 2)

	rec = doJSON(t, mux, http.MethodGet, "/accounts/"+account.AccountNumber+"/movements?kind=DEBIT", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp = decodeResponse[[]models.MovementResponse](t, rec)
	require.NotNil(t, resp.Data)
	require.Len(t, *resp.Data, 1)
	assert.Equal(t, "MOV-2026-00000011", (*resp.Data)[0].VoucherNumber)

	// Malformed filters are rejected before hitting the store.
	rec = doJSON(t, mux, http.MethodGet, "/accounts/"+account.AccountNumber+"/movements?kind=TRANSFER", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, mux, http.MethodGet, "/accounts/"+account.AccountNumber+"/movements?from=yesterday", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, mux, http.MethodGet, "/accounts/"+account.AccountNumber+"/movements?limit=0", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetMovementEndpoint(t *testing.T) {
	mux := newTestMux()

	rec := doJSON(t, mux, http.MethodGet, "/movements/MOV-2026-99999999", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
