package handler

import (
	"net/http"
	"strings"

	ledgerdomain "allowance-app-go/internal/domain/ledger"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type createChildRequest struct {
	FirstName        string          `json:"first_name"`
	LastName         string          `json:"last_name"`
	TicketNumber     string          `json:"ticket_number"`
	BirthDate        string          `json:"birth_date"`
	Password         string          `json:"password"`
	MonthlyAllowance decimal.Decimal `json:"monthly_allowance"`
}

type updateChildRequest struct {
	FirstName        *string          `json:"first_name"`
	LastName         *string          `json:"last_name"`
	TicketNumber     *string          `json:"ticket_number"`
	BirthDate        *string          `json:"birth_date"`
	Password         *string          `json:"password"`
	MonthlyAllowance *decimal.Decimal `json:"monthly_allowance"`
}

type addBalanceRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
}

func (h *Handlers) ListChildren(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.identity(w, r)
	if !ok {
		return
	}

	children, err := h.Ledger.ListChildrenByParent(r.Context(), identity.ID)
	if err != nil {
		h.writeServiceError(w, r, "children.list", err, "parent_id", identity.ID)
		return
	}

	response := make([]childResponse, 0, len(children))
	for _, child := range children {
		response = append(response, toChildResponse(child))
	}
	writeJSON(w, http.StatusOK, response)
}

func (h *Handlers) CreateChild(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.identity(w, r)
	if !ok {
		return
	}

	var req createChildRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}

	child, err := h.Ledger.AddChild(r.Context(), ledgerdomain.CreateChildInput{
		ParentID:         identity.ID,
		FirstName:        req.FirstName,
		LastName:         req.LastName,
		TicketNumber:     req.TicketNumber,
		BirthDate:        req.BirthDate,
		Password:         req.Password,
		MonthlyAllowance: req.MonthlyAllowance,
	})
	if err != nil {
		h.writeServiceError(w, r, "children.create", err, "parent_id", identity.ID)
		return
	}

	writeJSON(w, http.StatusCreated, toChildResponse(*child))
}

func (h *Handlers) GetChild(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.identity(w, r)
	if !ok {
		return
	}
	childID, err := parseIDParam(chi.URLParam(r, "child_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid child id")
		return
	}

	child, err := h.authorizeChild(r.Context(), identity, childID)
	if err != nil {
		h.writeServiceError(w, r, "children.get", err, "child_id", childID, "session_id", identity.ID)
		return
	}

	writeJSON(w, http.StatusOK, toChildResponse(*child))
}

func (h *Handlers) UpdateChild(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.identity(w, r)
	if !ok {
		return
	}
	childID, err := parseIDParam(chi.URLParam(r, "child_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid child id")
		return
	}

	var req updateChildRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}

	if _, err := h.authorizeChild(r.Context(), identity, childID); err != nil {
		h.writeServiceError(w, r, "children.update", err, "child_id", childID, "parent_id", identity.ID)
		return
	}

	child, err := h.Ledger.UpdateChild(r.Context(), childID, ledgerdomain.UpdateChildInput{
		FirstName:        req.FirstName,
		LastName:         req.LastName,
		TicketNumber:     req.TicketNumber,
		BirthDate:        req.BirthDate,
		Password:         req.Password,
		MonthlyAllowance: req.MonthlyAllowance,
	})
	if err != nil {
		h.writeServiceError(w, r, "children.update", err, "child_id", childID, "parent_id", identity.ID)
		return
	}

	writeJSON(w, http.StatusOK, toChildResponse(*child))
}

func (h *Handlers) AddBalance(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.identity(w, r)
	if !ok {
		return
	}
	childID, err := parseIDParam(chi.URLParam(r, "child_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid child id")
		return
	}

	var req addBalanceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}

	if _, err := h.authorizeChild(r.Context(), identity, childID); err != nil {
		h.writeServiceError(w, r, "children.add_balance", err, "child_id", childID, "parent_id", identity.ID)
		return
	}

	child, err := h.Ledger.AddBalance(r.Context(), childID, req.Amount, strings.TrimSpace(req.Description))
	if err != nil {
		h.writeServiceError(w, r, "children.add_balance", err, "child_id", childID, "parent_id", identity.ID)
		return
	}

	writeJSON(w, http.StatusOK, toChildResponse(*child))
}

func (h *Handlers) ReleaseAllowance(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.identity(w, r)
	if !ok {
		return
	}
	childID, err := parseIDParam(chi.URLParam(r, "child_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid child id")
		return
	}

	if _, err := h.authorizeChild(r.Context(), identity, childID); err != nil {
		h.writeServiceError(w, r, "children.release_allowance", err, "child_id", childID, "parent_id", identity.ID)
		return
	}

	child, err := h.Ledger.ReleaseAllowance(r.Context(), childID)
	if err != nil {
		h.writeServiceError(w, r, "children.release_allowance", err, "child_id", childID, "parent_id", identity.ID)
		return
	}

	writeJSON(w, http.StatusOK, toChildResponse(*child))
}

func (h *Handlers) Overview(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.identity(w, r)
	if !ok {
		return
	}

	overview, err := h.Ledger.ParentOverview(r.Context(), identity.ID)
	if err != nil {
		h.writeServiceError(w, r, "children.overview", err, "parent_id", identity.ID)
		return
	}

	writeJSON(w, http.StatusOK, overviewResponse{
		Children:         overview.Children,
		TotalBalance:     overview.TotalBalance,
		MonthlyAllowance: overview.MonthlyAllowance,
		PendingRequests:  overview.PendingRequests,
		TasksCompleted:   overview.TasksCompleted,
	})
}
