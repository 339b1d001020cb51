package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/api-sage/core-banking-ledger/internal/adapter/http/models"
	"github.com/api-sage/core-banking-ledger/internal/commons"
	"github.com/api-sage/core-banking-ledger/internal/domain"
	"github.com/api-sage/core-banking-ledger/internal/usecase/services"
	"github.com/shopspring/decimal"
)

type AccountLedger interface {
	Open(ctx context.Context, spec services.OpenAccountSpec) (domain.Account, error)
	Get(ctx context.Context, accountNumber string) (domain.Account, error)
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Account, error)
	AvailableBalance(ctx context.Context, accountNumber string) (decimal.Decimal, error)
	Block(ctx context.Context, accountNumber string) (domain.Account, error)
	Unblock(ctx context.Context, accountNumber string) (domain.Account, error)
}

type AccountController struct {
	ledger AccountLedger
}

func NewAccountController(ledger AccountLedger) *AccountController {
	return &AccountController{ledger: ledger}
}

func (c *AccountController) RegisterRoutes(mux *http.ServeMux, authMiddleware func(http.Handler) http.Handler) {
	wrap := func(handler http.HandlerFunc) http.Handler {
		if authMiddleware != nil {
			return authMiddleware(handler)
		}
		return handler
	}

	mux.Handle("POST /accounts", wrap(c.openAccount))
	mux.Handle("GET /accounts", wrap(c.listAccounts))
	mux.Handle("GET /accounts/{number}", wrap(c.getAccount))
	mux.Handle("GET /accounts/{number}/balance", wrap(c.getBalance))
	mux.Handle("POST /accounts/{number}/block", wrap(c.blockAccount))
	mux.Handle("POST /accounts/{number}/unblock", wrap(c.unblockAccount))
}

func (c *AccountController) openAccount(w http.ResponseWriter, r *http.Request) {
	var req models.OpenAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, commons.ErrorResponse[models.AccountResponse]("invalid request body", err.Error()))
		return
	}

	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, commons.ErrorResponse[models.AccountResponse]("validation failed", err.Error()))
		return
	}

	initial, overdraft := req.Amounts()
	account, err := c.ledger.Open(r.Context(), services.OpenAccountSpec{
		AccountNumber:  req.AccountNumber,
		OwnerID:        req.OwnerID,
		OwnerName:      req.OwnerName,
		Type:           domain.AccountType(strings.TrimSpace(req.AccountType)),
		InitialBalance: initial,
		OverdraftLimit: overdraft,
		Currency:       req.Currency,
		Branch:         req.Branch,
		Officer:        req.Officer,
	})
	if err != nil {
		writeJSON(w, statusForError(err), commons.ErrorResponse[models.AccountResponse](messageForError(err), err.Error()))
		return
	}

	writeJSON(w, http.StatusCreated, commons.SuccessResponse("account opened successfully", models.NewAccountResponse(account)))
}

func (c *AccountController) getAccount(w http.ResponseWriter, r *http.Request) {
	account, err := c.ledger.Get(r.Context(), r.PathValue("number"))
	if err != nil {
		writeJSON(w, statusForError(err), commons.ErrorResponse[models.AccountResponse](messageForError(err), err.Error()))
		return
	}

	writeJSON(w, http.StatusOK, commons.SuccessResponse("account fetched successfully", models.NewAccountResponse(account)))
}

func (c *AccountController) listAccounts(w http.ResponseWriter, r *http.Request) {
	ownerID := strings.TrimSpace(r.URL.Query().Get("ownerId"))
	if ownerID == "" {
		writeJSON(w, http.StatusBadRequest, commons.ErrorResponse[[]models.AccountResponse]("validation failed", "ownerId query parameter is required"))
		return
	}

	accounts, err := c.ledger.ListByOwner(r.Context(), ownerID)
	if err != nil {
		writeJSON(w, statusForError(err), commons.ErrorResponse[[]models.AccountResponse](messageForError(err), err.Error()))
		return
	}

	responses := make([]models.AccountResponse, 0, len(accounts))
	for _, account := range accounts {
		responses = append(responses, models.NewAccountResponse(account))
	}

	writeJSON(w, http.StatusOK, commons.SuccessResponse("accounts fetched successfully", responses))
}

func (c *AccountController) getBalance(w http.ResponseWriter, r *http.Request) {
	number := r.PathValue("number")

	balance, err := c.ledger.AvailableBalance(r.Context(), number)
	if err != nil {
		writeJSON(w, statusForError(err), commons.ErrorResponse[models.BalanceResponse](messageForError(err), err.Error()))
		return
	}

	writeJSON(w, http.StatusOK, commons.SuccessResponse("balance fetched successfully", models.BalanceResponse{
		AccountNumber:    number,
		AvailableBalance: balance.StringFixed(2),
		AsOf:             time.Now().UTC().Format(time.RFC3339),
	}))
}

func (c *AccountController) blockAccount(w http.ResponseWriter, r *http.Request) {
	account, err := c.ledger.Block(r.Context(), r.PathValue("number"))
	if err != nil {
		writeJSON(w, statusForError(err), commons.ErrorResponse[models.AccountResponse](messageForError(err), err.Error()))
		return
	}

	writeJSON(w, http.StatusOK, commons.SuccessResponse("account blocked successfully", models.NewAccountResponse(account)))
}

func (c *AccountController) unblockAccount(w http.ResponseWriter, r *http.Request) {
	account, err := c.ledger.Unblock(r.Context(), r.PathValue("number"))
	if err != nil {
		writeJSON(w, statusForError(err), commons.ErrorResponse[models.AccountResponse](messageForError(err), err.Error()))
		return
	}

	writeJSON(w, http.StatusOK, commons.SuccessResponse("account unblocked successfully", models.NewAccountResponse(account)))
}
