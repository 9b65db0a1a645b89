package handler

import (
	"net/http"

	accountsdomain "allowance-app-go/internal/domain/accounts"
)

type registerRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	Phone           string `json:"phone"`
}

type loginRequest struct {
	Identifier   string `json:"identifier"`
	Password     string `json:"password"`
	Role         string `json:"role"`
	TicketNumber string `json:"ticket_number"`
}

type healthResponse struct {
	Status string `json:"status"`
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}

func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}

	account, err := h.Accounts.Register(r.Context(), accountsdomain.RegisterInput{
		Name:            req.Name,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		Phone:           req.Phone,
	})
	if err != nil {
		h.writeServiceError(w, r, "accounts.register", err, "email", req.Email)
		return
	}

	writeJSON(w, http.StatusCreated, toAccountResponse(*account))
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}

	session, err := h.Accounts.Login(r.Context(), accountsdomain.LoginInput{
		Identifier:   req.Identifier,
		Password:     req.Password,
		Role:         accountsdomain.Role(req.Role),
		TicketNumber: req.TicketNumber,
	})
	if err != nil {
		h.writeServiceError(w, r, "accounts.login", err, "role", req.Role)
		return
	}

	token, err := h.tokens.Issue(*session)
	if err != nil {
		h.log.InternalError("accounts.login: issue token failed", err, "session_id", session.ID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{Token: token, Session: toSessionResponse(*session)})
}

func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.identity(w, r)
	if !ok {
		return
	}

	if err := h.Accounts.Logout(r.Context()); err != nil {
		h.writeServiceError(w, r, "accounts.logout", err, "session_id", identity.ID)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) CurrentSession(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.identity(w, r); !ok {
		return
	}

	session, err := h.Accounts.CurrentSession(r.Context())
	if err != nil {
		h.writeServiceError(w, r, "accounts.session", err)
		return
	}

	writeJSON(w, http.StatusOK, toSessionResponse(*session))
}
