package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"familyledger/internal/apperrors"
	"familyledger/internal/models"
	"familyledger/internal/service"
)

// TransactionHandler handles ledger HTTP requests
type TransactionHandler struct {
	transactionService *service.TransactionService
	transferService    *service.TransferService
}

// NewTransactionHandler creates a new transaction handler
func NewTransactionHandler(transactionService *service.TransactionService, transferService *service.TransferService) *TransactionHandler {
	return &TransactionHandler{
		transactionService: transactionService,
		transferService:    transferService,
	}
}

type transactionRequest struct {
	Amount          decimal.Decimal `json:"amount"`
	TransactionType string          `json:"transactionType"`
	Description     string          `json:"description"`
	Category        string          `json:"category"`
	TransactionAt   time.Time       `json:"transactionAt"`
}

func (req transactionRequest) toInput() service.TransactionInput {
	return service.TransactionInput{
		Amount:          req.Amount,
		TransactionType: models.TransactionType(req.TransactionType),
		Description:     req.Description,
		Category:        req.Category,
		TransactionAt:   req.TransactionAt,
	}
}

type pagedResponse struct {
	Transactions []models.Transaction `json:"transactions"`
	Meta         models.PageMeta      `json:"meta"`
}

// GetBalance returns the caller's current balance.
func (h *TransactionHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		respondError(w, r, errUnauthenticated)
		return
	}

	balance, err := h.transactionService.GetBalance(r.Context(), userID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondData(w, http.StatusOK, map[string]decimal.Decimal{"balance": balance})
}

// CreateTransaction records an income or expense for the caller.
func (h *TransactionHandler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		respondError(w, r, errUnauthenticated)
		return
	}

	var req transactionRequest
	if err := decodeJSON(r, &req); err != nil {
		respondBadRequest(w, r, err.Error())
		return
	}

	transaction, err := h.transactionService.CreateTransaction(r.Context(), userID, req.toInput())
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondData(w, http.StatusCreated, transaction)
}

// UpdateTransaction rewrites an existing entry.
func (h *TransactionHandler) UpdateTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		respondError(w, r, errUnauthenticated)
		return
	}

	transactionID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		respondBadRequest(w, r, "invalid transaction id")
		return
	}

	var req transactionRequest
	if err := decodeJSON(r, &req); err != nil {
		respondBadRequest(w, r, err.Error())
		return
	}

	transaction, err := h.transactionService.EditTransaction(r.Context(), userID, transactionID, req.toInput())
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondData(w, http.StatusOK, transaction)
}

// DeleteTransaction removes an entry and reverses its balance effect.
func (h *TransactionHandler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		respondError(w, r, errUnauthenticated)
		return
	}

	transactionID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		respondBadRequest(w, r, "invalid transaction id")
		return
	}

	if err := h.transactionService.DeleteTransaction(r.Context(), userID, transactionID); err != nil {
		respondError(w, r, err)
		return
	}

	respondMessage(w, http.StatusOK, "transaction deleted")
}

// ListTransactions returns one page of the caller's entries.
func (h *TransactionHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		respondError(w, r, errUnauthenticated)
		return
	}

	params, err := listParamsFromQuery(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	transactions, meta, err := h.transactionService.ListTransactions(r.Context(), userID, params)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondData(w, http.StatusOK, pagedResponse{Transactions: transactions, Meta: meta})
}

// TotalTransactions sums the caller's entries of one type over a window.
func (h *TransactionHandler) TotalTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		respondError(w, r, errUnauthenticated)
		return
	}

	transactionType := models.TransactionType(r.URL.Query().Get("type"))
	window := models.TimeWindow(r.URL.Query().Get("timePeriod"))

	total, err := h.transactionService.TotalTransactions(r.Context(), userID, transactionType, window)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondData(w, http.StatusOK, map[string]decimal.Decimal{"total": total})
}

// ListFamilyTransactions returns one page of the whole family's entries.
func (h *TransactionHandler) ListFamilyTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		respondError(w, r, errUnauthenticated)
		return
	}

	params, err := listParamsFromQuery(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	transactions, meta, err := h.transactionService.ListFamilyTransactions(r.Context(), userID, params)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondData(w, http.StatusOK, pagedResponse{Transactions: transactions, Meta: meta})
}

// Transfer moves money from the caller to another family member.
func (h *TransactionHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		respondError(w, r, errUnauthenticated)
		return
	}

	var req struct {
		RecipientMemberID int64           `json:"recipientMemberId"`
		Amount            decimal.Decimal `json:"amount"`
		Description       string          `json:"description"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondBadRequest(w, r, err.Error())
		return
	}
	if req.RecipientMemberID == 0 {
		respondBadRequest(w, r, "recipientMemberId is required")
		return
	}

	result, err := h.transferService.Transfer(r.Context(), userID, req.RecipientMemberID, req.Amount, req.Description)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondData(w, http.StatusCreated, result)
}

func listParamsFromQuery(r *http.Request) (service.ListParams, error) {
	query := r.URL.Query()
	params := service.ListParams{
		Type:   models.TransactionType(query.Get("type")),
		Window: models.TimeWindow(query.Get("timePeriod")),
	}

	var err error
	if params.Month, err = intQuery(query.Get("month")); err != nil {
		return params, err
	}
	if params.Year, err = intQuery(query.Get("year")); err != nil {
		return params, err
	}
	if params.Page.Page, err = intQuery(query.Get("page")); err != nil {
		return params, err
	}
	if params.Page.Limit, err = intQuery(query.Get("limit")); err != nil {
		return params, err
	}
	return params, nil
}

func intQuery(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.BadRequest("query parameter must be a number: " + raw)
	}
	return value, nil
}
