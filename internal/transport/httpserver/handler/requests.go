package handler

import (
	"net/http"

	ledgerdomain "allowance-app-go/internal/domain/ledger"
	"allowance-app-go/internal/transport/httpserver/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type createMoneyRequestRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
}

type updateMoneyRequestRequest struct {
	Description *string `json:"description"`
	Status      *string `json:"status"`
}

type addMessageRequest struct {
	Text string `json:"text"`
}

func (h *Handlers) ListMoneyRequests(w http.ResponseWriter, r *http.Request) {
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
		h.writeServiceError(w, r, "money_requests.list", err, "child_id", childID, "session_id", identity.ID)
		return
	}

	requests, err := h.Ledger.ListMoneyRequestsByChild(r.Context(), childID)
	if err != nil {
		h.writeServiceError(w, r, "money_requests.list", err, "child_id", childID)
		return
	}

	response := make([]moneyRequestResponse, 0, len(requests))
	for _, request := range requests {
		response = append(response, toMoneyRequestResponse(request))
	}
	writeJSON(w, http.StatusOK, response)
}

func (h *Handlers) CreateMoneyRequest(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.identity(w, r)
	if !ok {
		return
	}
	childID, err := parseIDParam(chi.URLParam(r, "child_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid child id")
		return
	}

	var req createMoneyRequestRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}

	if _, err := h.authorizeChild(r.Context(), identity, childID); err != nil {
		h.writeServiceError(w, r, "money_requests.create", err, "child_id", childID, "session_id", identity.ID)
		return
	}

	request, err := h.Ledger.AddMoneyRequest(r.Context(), ledgerdomain.CreateMoneyRequestInput{
		ChildID:     childID,
		Amount:      req.Amount,
		Description: req.Description,
	})
	if err != nil {
		h.writeServiceError(w, r, "money_requests.create", err, "child_id", childID)
		return
	}

	writeJSON(w, http.StatusCreated, toMoneyRequestResponse(*request))
}

// UpdateMoneyRequest edits the description; only a parent may change the
// status, which approves or rejects the request.
func (h *Handlers) UpdateMoneyRequest(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.identity(w, r)
	if !ok {
		return
	}
	requestID, err := parseIDParam(chi.URLParam(r, "request_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid request id")
		return
	}

	var req updateMoneyRequestRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}

	input := ledgerdomain.UpdateMoneyRequestInput{Description: req.Description}
	if req.Status != nil {
		if !identity.IsParent() {
			h.writeServiceError(w, r, "money_requests.update", errForbidden, "request_id", requestID, "session_id", identity.ID)
			return
		}
		status := ledgerdomain.RequestStatus(*req.Status)
		input.Status = &status
	}

	h.decideMoneyRequest(w, r, identity, requestID, "money_requests.update", func() (*ledgerdomain.MoneyRequest, error) {
		return h.Ledger.UpdateMoneyRequest(r.Context(), requestID, input)
	})
}

func (h *Handlers) ApproveMoneyRequest(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.identity(w, r)
	if !ok {
		return
	}
	requestID, err := parseIDParam(chi.URLParam(r, "request_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid request id")
		return
	}

	h.decideMoneyRequest(w, r, identity, requestID, "money_requests.approve", func() (*ledgerdomain.MoneyRequest, error) {
		return h.Ledger.ApproveMoneyRequest(r.Context(), requestID)
	})
}

func (h *Handlers) RejectMoneyRequest(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.identity(w, r)
	if !ok {
		return
	}
	requestID, err := parseIDParam(chi.URLParam(r, "request_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid request id")
		return
	}

	h.decideMoneyRequest(w, r, identity, requestID, "money_requests.reject", func() (*ledgerdomain.MoneyRequest, error) {
		return h.Ledger.RejectMoneyRequest(r.Context(), requestID)
	})
}

func (h *Handlers) AddRequestMessage(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.identity(w, r)
	if !ok {
		return
	}
	requestID, err := parseIDParam(chi.URLParam(r, "request_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid request id")
		return
	}

	var req addMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}

	if _, err := h.authorizeRequest(r, identity, requestID); err != nil {
		h.writeServiceError(w, r, "money_requests.message", err, "request_id", requestID, "session_id", identity.ID)
		return
	}

	sender := ledgerdomain.SenderChild
	if identity.IsParent() {
		sender = ledgerdomain.SenderParent
	}
	message, err := h.Ledger.AddRequestMessage(r.Context(), requestID, sender, req.Text)
	if err != nil {
		h.writeServiceError(w, r, "money_requests.message", err, "request_id", requestID)
		return
	}

	writeJSON(w, http.StatusCreated, toMessageResponse(*message))
}

func (h *Handlers) decideMoneyRequest(w http.ResponseWriter, r *http.Request, identity middleware.Identity, requestID int64, op string, apply func() (*ledgerdomain.MoneyRequest, error)) {
	if _, err := h.authorizeRequest(r, identity, requestID); err != nil {
		h.writeServiceError(w, r, op, err, "request_id", requestID, "session_id", identity.ID)
		return
	}

	updated, err := apply()
	if err != nil {
		h.writeServiceError(w, r, op, err, "request_id", requestID)
		return
	}

	writeJSON(w, http.StatusOK, toMoneyRequestResponse(*updated))
}

func (h *Handlers) authorizeRequest(r *http.Request, identity middleware.Identity, requestID int64) (*ledgerdomain.MoneyRequest, error) {
	request, err := h.Ledger.GetMoneyRequest(r.Context(), requestID)
	if err != nil {
		return nil, err
	}
	if _, err := h.authorizeChild(r.Context(), identity, request.ChildID); err != nil {
		return nil, err
	}
	return request, nil
}
