/**
 * @description
 * This file defines the HTTP handlers for the payout-account-service's API
 * endpoints. Handlers are responsible for parsing requests, calling the
 * appropriate service method, and writing the response.
 *
 * @dependencies
 * - Standard Go libraries for HTTP, JSON, etc.
 * - Chi router for URL parameter handling.
 * - go-playground/validator for request DTO validation.
 * - The service's internal packages for app logic and middleware.
 */
package api

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/payvault/payout-account-service/internal/app"
	"github.com/payvault/payout-account-service/pkg/middleware"
)

var validate = validator.New()

// BankAccountHandler holds the dependencies for bank-account handlers.
type BankAccountHandler struct {
	service *app.BankAccountService
}

// NewBankAccountHandler creates a new BankAccountHandler.
func NewBankAccountHandler(service *app.BankAccountService) *BankAccountHandler {
	return &BankAccountHandler{service: service}
}

// AddBankAccountRequest defines the expected JSON body for registering a bank account.
type AddBankAccountRequest struct {
	AccountNumber string `json:"account_number" validate:"required,numeric,len=10"`
	AccountName   string `json:"account_name" validate:"required,max=120"`
	BankName      string `json:"bank_name" validate:"required,max=120"`
	BankCode      string `json:"bank_code" validate:"required,min=3,max=12"`
}

// VerifyBankAccountRequest defines the expected JSON body for submitting a code.
type VerifyBankAccountRequest struct {
	Code string `json:"code" validate:"required,numeric,len=6"`
}

// AddBankAccount registers a bank account and issues a verification code.
func (h *BankAccountHandler) AddBankAccount(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing user identity")
		return
	}

	var req AddBankAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	result, err := h.service.AddBankAccount(r.Context(), app.AddBankAccountInput{
		UserID:        userID,
		AccountNumber: req.AccountNumber,
		AccountName:   req.AccountName,
		BankName:      req.BankName,
		BankCode:      req.BankCode,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

// VerifyBankAccount validates a submitted verification code.
func (h *BankAccountHandler) VerifyBankAccount(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing user identity")
		return
	}
	accountID := chi.URLParam(r, "id")

	var req VerifyBankAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	result, err := h.service.VerifyBankAccount(r.Context(), userID, accountID, req.Code)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ListBankAccounts lists the authenticated user's bank accounts.
func (h *BankAccountHandler) ListBankAccounts(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing user identity")
		return
	}

	views, err := h.service.ListBankAccounts(r.Context(), userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, views)
}

// SetPrimaryBankAccount promotes a verified account to primary.
func (h *BankAccountHandler) SetPrimaryBankAccount(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing user identity")
		return
	}
	accountID := chi.URLParam(r, "id")

	result, err := h.service.SetPrimaryBankAccount(r.Context(), userID, accountID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// DeleteBankAccount removes a non-primary bank account.
func (h *BankAccountHandler) DeleteBankAccount(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing user identity")
		return
	}
	accountID := chi.URLParam(r, "id")

	if err := h.service.DeleteBankAccount(r.Context(), userID, accountID); err != nil {
		writeDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// BankHandler holds the dependencies for bank directory handlers.
type BankHandler struct {
	service *app.BankAccountService
}

// NewBankHandler creates a new BankHandler.
func NewBankHandler(service *app.BankAccountService) *BankHandler {
	return &BankHandler{service: service}
}

// ListBanks handles listing all supported banks.
func (h *BankHandler) ListBanks(w http.ResponseWriter, r *http.Request) {
	banks, err := h.service.ListBanks(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, banks)
}

// ResolveAccountName handles name enquiry for an external account.
func (h *BankHandler) ResolveAccountName(w http.ResponseWriter, r *http.Request) {
	bankCode := r.URL.Query().Get("bank_code")
	accountNumber := r.URL.Query().Get("account_number")
	if bankCode == "" || accountNumber == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "bank_code and account_number are required")
		return
	}

	name, err := h.service.ResolveAccountName(r.Context(), bankCode, accountNumber)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"account_name": name})
}

// writeJSON is a helper to write JSON responses.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// If encoding fails, we can't send a JSON error, so just log it.
		log.Printf("Failed to encode response: %v", err)
	}
}
