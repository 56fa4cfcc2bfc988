/*
handlers.go - HTTP API handlers for the installment engine

PURPOSE:
  Exposes the engine via REST. Handles HTTP request/response, JSON
  serialization, and input validation, then delegates to the lifecycle
  service and the store.

ENDPOINTS:
  Users:
    POST   /api/users                     Register the calling owner

  Banks:
    GET    /api/banks                     List banks
    POST   /api/banks                     Create bank
    GET    /api/banks/{id}                Get bank
    PUT    /api/banks/{id}                Update bank
    DELETE /api/banks/{id}                Delete bank

  Budgets:
    GET    /api/budgets                   List budgets
    POST   /api/budgets                   Create budget
    GET    /api/budgets/{id}              Get budget
    PUT    /api/budgets/{id}              Update budget (re-runs the ledger)
    DELETE /api/budgets/{id}              Delete budget (cascades)

  Cards:
    GET    /api/cards                     List cards
    POST   /api/cards                     Create card
    GET    /api/cards/{id}                Get card
    PUT    /api/cards/{id}                Update card
    DELETE /api/cards/{id}                Delete card (cascades)

  Installments:
    GET    /api/installments              List (active, soonest-ending first)
    POST   /api/installments              Create
    GET    /api/installments/summary      Monthly commitment per bank
    GET    /api/installments/{id}         Get
    PUT    /api/installments/{id}         Update
    DELETE /api/installments/{id}         Delete

  Admin:
    POST   /api/admin/sweep               Trigger a sweep pass now
    GET    /api/admin/sweep/runs          Recent sweep runs

AUTHENTICATION:
  None here. The upstream gateway authenticates and passes the principal in
  the X-User-ID header; handlers trust it the way the engine trusts its
  validated inputs. Requests without the header get 400.

ERROR HANDLING:
  - 400: malformed body, invalid field values, missing owner header
  - 404: any reference that does not resolve for the caller
  - 500: persistence invariant violations and unexpected store errors

SEE ALSO:
  - dto.go:    request/response shapes
  - server.go: router setup and middleware
*/
package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/warp/installment-engine/installment"
	"github.com/warp/installment-engine/store/sqlite"
)

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store   *sqlite.Store
	Service *installment.Service
	Sweeper *installment.Sweep
}

// NewHandler wires a handler around the store.
func NewHandler(store *sqlite.Store, service *installment.Service, sweeper *installment.Sweep) *Handler {
	return &Handler{Store: store, Service: service, Sweeper: sweeper}
}

// =============================================================================
// HELPERS
// =============================================================================

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}

// respondServiceError maps engine errors onto HTTP statuses.
func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case installment.IsNotFound(err):
		respondError(w, http.StatusNotFound, err.Error())
	case installment.IsInternal(err):
		respondError(w, http.StatusInternalServerError, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, err.Error())
	}
}

// ownerID extracts the authenticated principal the gateway forwarded.
func ownerID(r *http.Request) string {
	return r.Header.Get("X-User-ID")
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

// requireOwner writes a 400 and returns "" when the header is absent.
func requireOwner(w http.ResponseWriter, r *http.Request) string {
	owner := ownerID(r)
	if owner == "" {
		respondError(w, http.StatusBadRequest, "missing X-User-ID header")
	}
	return owner
}

// =============================================================================
// USERS
// =============================================================================

func (h *Handler) RegisterUser(w http.ResponseWriter, r *http.Request) {
	owner := requireOwner(w, r)
	if owner == "" {
		return
	}
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := h.Store.CreateUser(r.Context(), owner, req.Name); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"id": owner, "name": req.Name})
}

// =============================================================================
// BANKS
// =============================================================================

func (h *Handler) CreateBank(w http.ResponseWriter, r *http.Request) {
	owner := requireOwner(w, r)
	if owner == "" {
		return
	}
	var req BankRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}
	bank, err := h.Store.CreateBank(r.Context(), owner, req.Name)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, toBankDTO(bank))
}

func (h *Handler) ListBanks(w http.ResponseWriter, r *http.Request) {
	owner := requireOwner(w, r)
	if owner == "" {
		return
	}
	banks, err := h.Store.ListBanks(r.Context(), owner)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	out := make([]BankDTO, 0, len(banks))
	for i := range banks {
		out = append(out, toBankDTO(&banks[i]))
	}
	respondJSON(w, http.StatusOK, out)
}

func (h *Handler) GetBank(w http.ResponseWriter, r *http.Request) {
	owner := requireOwner(w, r)
	if owner == "" {
		return
	}
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}
	bank, err := h.Store.GetBank(r.Context(), id, owner)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if bank == nil {
		respondError(w, http.StatusNotFound, installment.ErrBankNotFound.Error())
		return
	}
	respondJSON(w, http.StatusOK, toBankDTO(bank))
}

func (h *Handler) UpdateBank(w http.ResponseWriter, r *http.Request) {
	owner := requireOwner(w, r)
	if owner == "" {
		return
	}
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var req BankRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}
	bank, err := h.Store.UpdateBank(r.Context(), id, owner, req.Name)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if bank == nil {
		respondError(w, http.StatusNotFound, installment.ErrBankNotFound.Error())
		return
	}
	respondJSON(w, http.StatusOK, toBankDTO(bank))
}

func (h *Handler) DeleteBank(w http.ResponseWriter, r *http.Request) {
	owner := requireOwner(w, r)
	if owner == "" {
		return
	}
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}
	deleted, err := h.Store.DeleteBank(r.Context(), id, owner)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !deleted {
		respondError(w, http.StatusNotFound, installment.ErrBankNotFound.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

// =============================================================================
// BUDGETS
// =============================================================================

func (h *Handler) CreateBudget(w http.ResponseWriter, r *http.Request) {
	owner := requireOwner(w, r)
	if owner == "" {
		return
	}
	var req BudgetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.Amount.IsNegative() {
		respondError(w, http.StatusBadRequest, "amount must not be negative")
		return
	}
	budget, err := h.Store.CreateBudget(r.Context(), owner, req.Name, req.Amount)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, toBudgetDTO(budget))
}

func (h *Handler) ListBudgets(w http.ResponseWriter, r *http.Request) {
	owner := requireOwner(w, r)
	if owner == "" {
		return
	}
	budgets, err := h.Store.ListBudgets(r.Context(), owner)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	out := make([]BudgetDTO, 0, len(budgets))
	for i := range budgets {
		out = append(out, toBudgetDTO(&budgets[i]))
	}
	respondJSON(w, http.StatusOK, out)
}

func (h *Handler) GetBudget(w http.ResponseWriter, r *http.Request) {
	owner := requireOwner(w, r)
	if owner == "" {
		return
	}
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}
	budget, err := h.Store.FindBudget(r.Context(), id, owner)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if budget == nil {
		respondError(w, http.StatusNotFound, installment.ErrBudgetNotFound.Error())
		return
	}
	respondJSON(w, http.StatusOK, toBudgetDTO(budget))
}

// UpdateBudget rewrites the funding figure and re-derives the leftover from
// the outstanding obligations, so a bigger (or smaller) pool immediately
// reflects what the installments already consume.
func (h *Handler) UpdateBudget(w http.ResponseWriter, r *http.Request) {
	owner := requireOwner(w, r)
	if owner == "" {
		return
	}
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var req BudgetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.Amount.IsNegative() {
		respondError(w, http.StatusBadRequest, "amount must not be negative")
		return
	}

	sum, err := h.Store.SumMonthlyObligations(r.Context(), id, owner)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	leftover := installment.LeftoverAmount(sum, &req.Amount)

	budget, err := h.Store.UpdateBudget(r.Context(), id, owner, req.Name, req.Amount, *leftover)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if budget == nil {
		respondError(w, http.StatusNotFound, installment.ErrBudgetNotFound.Error())
		return
	}
	respondJSON(w, http.StatusOK, toBudgetDTO(budget))
}

func (h *Handler) DeleteBudget(w http.ResponseWriter, r *http.Request) {
	owner := requireOwner(w, r)
	if owner == "" {
		return
	}
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}
	deleted, err := h.Store.DeleteBudget(r.Context(), id, owner)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !deleted {
		respondError(w, http.StatusNotFound, installment.ErrBudgetNotFound.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

// =============================================================================
// CARDS
// =============================================================================

func (h *Handler) validateCardRequest(w http.ResponseWriter, r *http.Request, owner string, req *CardRequest) bool {
	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return false
	}
	if req.StatementDay < 1 || req.StatementDay > 31 {
		respondError(w, http.StatusBadRequest, "statement_day must be between 1 and 31")
		return false
	}
	budget, err := h.Store.FindBudget(r.Context(), req.BudgetID, owner)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return false
	}
	if budget == nil {
		respondError(w, http.StatusNotFound, installment.ErrBudgetNotFound.Error())
		return false
	}
	bank, err := h.Store.GetBank(r.Context(), req.BankID, owner)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return false
	}
	if bank == nil {
		respondError(w, http.StatusNotFound, installment.ErrBankNotFound.Error())
		return false
	}
	return true
}

func (h *Handler) CreateCard(w http.ResponseWriter, r *http.Request) {
	owner := requireOwner(w, r)
	if owner == "" {
		return
	}
	var req CardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if !h.validateCardRequest(w, r, owner, &req) {
		return
	}
	card, err := h.Store.CreateCard(r.Context(), owner, req.Name, req.StatementDay, req.BudgetID, req.BankID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, toCardDTO(card))
}

func (h *Handler) ListCards(w http.ResponseWriter, r *http.Request) {
	owner := requireOwner(w, r)
	if owner == "" {
		return
	}
	cards, err := h.Store.ListCards(r.Context(), owner)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	out := make([]CardDTO, 0, len(cards))
	for i := range cards {
		out = append(out, toCardDTO(&cards[i]))
	}
	respondJSON(w, http.StatusOK, out)
}

func (h *Handler) GetCard(w http.ResponseWriter, r *http.Request) {
	owner := requireOwner(w, r)
	if owner == "" {
		return
	}
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}
	card, err := h.Store.FindCard(r.Context(), id, owner)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if card == nil {
		respondError(w, http.StatusNotFound, installment.ErrCardNotFound.Error())
		return
	}
	respondJSON(w, http.StatusOK, toCardDTO(card))
}

func (h *Handler) UpdateCard(w http.ResponseWriter, r *http.Request) {
	owner := requireOwner(w, r)
	if owner == "" {
		return
	}
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var req CardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if !h.validateCardRequest(w, r, owner, &req) {
		return
	}
	card, err := h.Store.UpdateCard(r.Context(), id, owner, req.Name, req.StatementDay, req.BudgetID, req.BankID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if card == nil {
		respondError(w, http.StatusNotFound, installment.ErrCardNotFound.Error())
		return
	}
	respondJSON(w, http.StatusOK, toCardDTO(card))
}

func (h *Handler) DeleteCard(w http.ResponseWriter, r *http.Request) {
	owner := requireOwner(w, r)
	if owner == "" {
		return
	}
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}
	deleted, err := h.Store.DeleteCard(r.Context(), id, owner)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !deleted {
		respondError(w, http.StatusNotFound, installment.ErrCardNotFound.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

// =============================================================================
// INSTALLMENTS
// =============================================================================

func parseInstallmentRequest(w http.ResponseWriter, r *http.Request) (*InstallmentRequest, *installment.CreateInput) {
	var req InstallmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return nil, nil
	}
	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return nil, nil
	}
	if req.Tenure <= 0 {
		respondError(w, http.StatusBadRequest, "tenure must be positive")
		return nil, nil
	}
	if !req.TotalAmount.IsPositive() {
		respondError(w, http.StatusBadRequest, "total_amount must be positive")
		return nil, nil
	}
	startDate, err := parseDate(req.StartDate)
	if err != nil {
		respondError(w, http.StatusBadRequest, "start_date must be YYYY-MM-DD")
		return nil, nil
	}
	return &req, &installment.CreateInput{
		CardID:      req.CardID,
		Name:        req.Name,
		TotalAmount: req.TotalAmount,
		Tenure:      req.Tenure,
		StartDate:   startDate,
	}
}

func (h *Handler) CreateInstallment(w http.ResponseWriter, r *http.Request) {
	owner := requireOwner(w, r)
	if owner == "" {
		return
	}
	_, input := parseInstallmentRequest(w, r)
	if input == nil {
		return
	}
	record, err := h.Service.Create(r.Context(), owner, *input)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, record)
}

func (h *Handler) ListInstallments(w http.ResponseWriter, r *http.Request) {
	owner := requireOwner(w, r)
	if owner == "" {
		return
	}
	records, err := h.Service.List(r.Context(), owner)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, records)
}

func (h *Handler) GetInstallment(w http.ResponseWriter, r *http.Request) {
	owner := requireOwner(w, r)
	if owner == "" {
		return
	}
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}
	record, err := h.Service.Get(r.Context(), id, owner)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, record)
}

func (h *Handler) UpdateInstallment(w http.ResponseWriter, r *http.Request) {
	owner := requireOwner(w, r)
	if owner == "" {
		return
	}
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}
	_, input := parseInstallmentRequest(w, r)
	if input == nil {
		return
	}
	record, err := h.Service.Update(r.Context(), id, owner, installment.UpdateInput{
		Name:        input.Name,
		TotalAmount: input.TotalAmount,
		Tenure:      input.Tenure,
		StartDate:   input.StartDate,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, record)
}

func (h *Handler) DeleteInstallment(w http.ResponseWriter, r *http.Request) {
	owner := requireOwner(w, r)
	if owner == "" {
		return
	}
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}
	deleted, err := h.Service.Delete(r.Context(), id, owner)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"deleted": deleted})
}

// InstallmentSummary returns the owner's active monthly commitment per bank.
func (h *Handler) InstallmentSummary(w http.ResponseWriter, r *http.Request) {
	owner := requireOwner(w, r)
	if owner == "" {
		return
	}
	totals, err := h.Service.TotalPricePerMonth(r.Context(), owner)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if totals == nil {
		totals = []installment.BankMonthlyTotal{}
	}
	respondJSON(w, http.StatusOK, totals)
}

// =============================================================================
// ADMIN
// =============================================================================

// TriggerSweep runs one sweep pass immediately and returns its stats.
func (h *Handler) TriggerSweep(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Sweeper.Run(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

func (h *Handler) ListSweepRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := h.Store.ListSweepRuns(r.Context(), 50)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	out := make([]SweepRunDTO, 0, len(runs))
	for _, run := range runs {
		out = append(out, toSweepRunDTO(run))
	}
	respondJSON(w, http.StatusOK, out)
}
