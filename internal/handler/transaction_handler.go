package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"expense-ledger/internal/domain"
	"expense-ledger/internal/errors"
	"expense-ledger/internal/service"
)

const dateLayout = "2006-01-02"

type TransactionHandler struct {
	transactionService *service.TransactionService
}

func NewTransactionHandler(transactionService *service.TransactionService) *TransactionHandler {
	return &TransactionHandler{
		transactionService: transactionService,
	}
}

type CreateTransactionRequest struct {
	Date        string      `json:"date"`
	Description string      `json:"description"`
	Amount      json.Number `json:"amount"`
	Kind        string      `json:"kind"`
}

type CreateTransactionResponse struct {
	ID string `json:"id"`
}

// TransactionResponse is the normalized external shape: opaque id as
// a plain string, the date as a calendar day, timestamps as RFC 3339
// text and the amount as a JSON number.
type TransactionResponse struct {
	ID          string      `json:"id"`
	Date        string      `json:"date"`
	Description string      `json:"description"`
	Amount      json.Number `json:"amount"`
	Kind        string      `json:"kind"`
	CreatedAt   string      `json:"created_at"`
	UpdatedAt   string      `json:"updated_at"`
}

func toTransactionResponse(tx domain.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:          tx.ID,
		Date:        tx.Date.Format(dateLayout),
		Description: tx.Description,
		Amount:      jsonNumber(tx.Amount),
		Kind:        string(tx.Kind),
		CreatedAt:   tx.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   tx.UpdatedAt.Format(time.RFC3339),
	}
}

func jsonNumber(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}

func (h *TransactionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.NewAppError(errors.InvalidInput, "invalid request body").WithDetails(err.Error()))
		return
	}

	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		writeError(w, errors.NewAppError(errors.InvalidInput, "date must be formatted as YYYY-MM-DD").WithDetails(err.Error()))
		return
	}

	amount, err := decimal.NewFromString(req.Amount.String())
	if err != nil {
		writeError(w, errors.NewAppError(errors.InvalidAmount, "invalid amount format").WithDetails(err.Error()))
		return
	}

	id, err := h.transactionService.Create(r.Context(), service.CreateRequest{
		Date:        date,
		Description: req.Description,
		Amount:      amount,
		Kind:        domain.Kind(req.Kind),
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, CreateTransactionResponse{ID: id})
}

func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	month, err := queryInt(r, "month")
	if err != nil {
		writeServiceError(w, err)
		return
	}
	year, err := queryInt(r, "year")
	if err != nil {
		writeServiceError(w, err)
		return
	}

	txs, err := h.transactionService.List(r.Context(), month, year)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response := make([]TransactionResponse, 0, len(txs))
	for _, tx := range txs {
		response = append(response, toTransactionResponse(tx))
	}
	writeJSON(w, http.StatusOK, response)
}

type UpdateTransactionRequest struct {
	Date        *string      `json:"date"`
	Description *string      `json:"description"`
	Amount      *json.Number `json:"amount"`
	Kind        *string      `json:"kind"`
}

type UpdateTransactionResponse struct {
	Updated bool `json:"updated"`
}

func (h *TransactionHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req UpdateTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.NewAppError(errors.InvalidInput, "invalid request body").WithDetails(err.Error()))
		return
	}

	var patch domain.Patch
	if req.Date != nil {
		date, err := time.Parse(dateLayout, *req.Date)
		if err != nil {
			writeError(w, errors.NewAppError(errors.InvalidInput, "date must be formatted as YYYY-MM-DD").WithDetails(err.Error()))
			return
		}
		patch.Date = &date
	}
	if req.Description != nil {
		patch.Description = req.Description
	}
	if req.Amount != nil {
		amount, err := decimal.NewFromString(req.Amount.String())
		if err != nil {
			writeError(w, errors.NewAppError(errors.InvalidAmount, "invalid amount format").WithDetails(err.Error()))
			return
		}
		patch.Amount = &amount
	}
	if req.Kind != nil {
		kind := domain.Kind(*req.Kind)
		patch.Kind = &kind
	}

	updated, err := h.transactionService.Update(r.Context(), id, patch)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, UpdateTransactionResponse{Updated: updated})
}

type DeleteTransactionResponse struct {
	Deleted bool `json:"deleted"`
}

func (h *TransactionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := h.transactionService.Delete(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, DeleteTransactionResponse{Deleted: true})
}
