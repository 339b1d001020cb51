package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/api-sage/core-banking-ledger/internal/adapter/http/models"
	"github.com/api-sage/core-banking-ledger/internal/commons"
	"github.com/api-sage/core-banking-ledger/internal/domain"
	"github.com/api-sage/core-banking-ledger/internal/usecase/services"
	"github.com/shopspring/decimal"
)

type TransactionProcessor interface {
	Post(ctx context.Context, req services.PostMovementRequest) (domain.Movement, error)
	Get(ctx context.Context, voucherNumber string) (domain.Movement, error)
	ListByAccount(ctx context.Context, accountNumber string, filter domain.MovementFilter) ([]domain.Movement, error)
}

type ReversalEngine interface {
	Reverse(ctx context.Context, voucherNumber, reason string) (domain.Movement, error)
}

type MovementController struct {
	processor TransactionProcessor
	reversals ReversalEngine
}

func NewMovementController(processor TransactionProcessor, reversals ReversalEngine) *MovementController {
	return &MovementController{processor: processor, reversals: reversals}
}

func (c *MovementController) RegisterRoutes(mux *http.ServeMux, authMiddleware func(http.Handler) http.Handler) {
	wrap := func(handler http.HandlerFunc) http.Handler {
		if authMiddleware != nil {
			return authMiddleware(handler)
		}
		return handler
	}

	mux.Handle("POST /movements", wrap(c.postMovement))
	mux.Handle("GET /movements/{voucher}", wrap(c.getMovement))
	mux.Handle("POST /movements/{voucher}/reverse", wrap(c.reverseMovement))
	mux.Handle("GET /accounts/{number}/movements", wrap(c.listMovements))
}

func (c *MovementController) postMovement(w http.ResponseWriter, r *http.Request) {
	var req models.PostMovementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, commons.ErrorResponse[models.MovementResponse]("invalid request body", err.Error()))
		return
	}

	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, commons.ErrorResponse[models.MovementResponse]("validation failed", err.Error()))
		return
	}

	amount, _ := decimal.NewFromString(strings.TrimSpace(req.Amount))
	movement, err := c.processor.Post(r.Context(), services.PostMovementRequest{
		AccountNumber:     req.AccountNumber,
		VoucherNumber:     req.VoucherNumber,
		Kind:              domain.MovementKind(strings.TrimSpace(req.Kind)),
		Amount:            amount,
		Concept:           req.Concept,
		Description:       req.Description,
		Branch:            req.Branch,
		Teller:            req.Teller,
		Channel:           req.Channel,
		ExternalReference: req.ExternalReference,
	})
	if err != nil {
		writeJSON(w, statusForError(err), commons.ErrorResponse[models.MovementResponse](messageForError(err), err.Error()))
		return
	}

	writeJSON(w, http.StatusCreated, commons.SuccessResponse("movement posted successfully", models.NewMovementResponse(movement)))
}

func (c *MovementController) getMovement(w http.ResponseWriter, r *http.Request) {
	movement, err := c.processor.Get(r.Context(), r.PathValue("voucher"))
	if err != nil {
		writeJSON(w, statusForError(err), commons.ErrorResponse[models.MovementResponse](messageForError(err), err.Error()))
		return
	}

	writeJSON(w, http.StatusOK, commons.SuccessResponse("movement fetched successfully", models.NewMovementResponse(movement)))
}

func (c *MovementController) reverseMovement(w http.ResponseWriter, r *http.Request) {
	var req models.ReverseMovementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, commons.ErrorResponse[models.MovementResponse]("invalid request body", err.Error()))
		return
	}

	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, commons.ErrorResponse[models.MovementResponse]("validation failed", err.Error()))
		return
	}

	movement, err := c.reversals.Reverse(r.Context(), r.PathValue("voucher"), req.Reason)
	if err != nil {
		writeJSON(w, statusForError(err), commons.ErrorResponse[models.MovementResponse](messageForError(err), err.Error()))
		return
	}

	writeJSON(w, http.StatusCreated, commons.SuccessResponse("movement reversed successfully", models.NewMovementResponse(movement)))
}

func (c *MovementController) listMovements(w http.ResponseWriter, r *http.Request) {
	filter, err := movementFilterFromQuery(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, commons.ErrorResponse[[]models.MovementResponse]("validation failed", err.Error()))
		return
	}

	movements, err := c.processor.ListByAccount(r.Context(), r.PathValue("number"), filter)
	if err != nil {
		writeJSON(w, statusForError(err), commons.ErrorResponse[[]models.MovementResponse](messageForError(err), err.Error()))
		return
	}

	writeJSON(w, http.StatusOK, commons.SuccessResponse("movements fetched successfully", models.NewMovementResponses(movements)))
}

func movementFilterFromQuery(r *http.Request) (domain.MovementFilter, error) {
	query := r.URL.Query()
	var filter domain.MovementFilter

	if raw := strings.TrimSpace(query.Get("kind")); raw != "" {
		kind := domain.MovementKind(raw)
		if !kind.Valid() {
			return domain.MovementFilter{}, errInvalidQuery("kind must be DEBIT or CREDIT")
		}
		filter.Kind = kind
	}

	if raw := strings.TrimSpace(query.Get("from")); raw != "" {
		from, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return domain.MovementFilter{}, errInvalidQuery("from must be an RFC3339 timestamp")
		}
		filter.From = from
	}

	if raw := strings.TrimSpace(query.Get("to")); raw != "" {
		to, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return domain.MovementFilter{}, errInvalidQuery("to must be an RFC3339 timestamp")
		}
		filter.To = to
	}

	if raw := strings.TrimSpace(query.Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return domain.MovementFilter{}, errInvalidQuery("limit must be a positive integer")
		}
		filter.Limit = limit
	}

	if raw := strings.TrimSpace(query.Get("offset")); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return domain.MovementFilter{}, errInvalidQuery("offset must be a non-negative integer")
		}
		filter.Offset = offset
	}

	return filter, nil
}

type errInvalidQuery string

func (e errInvalidQuery) Error() string { return string(e) }
