package handler

import (
	"errors"
	"net/http"

	accountsdomain "allowance-app-go/internal/domain/accounts"
	ledgerdomain "allowance-app-go/internal/domain/ledger"
)

var errForbidden = errors.New("forbidden")

type errorMapping struct {
	target error
	status int
	code   string
}

var domainErrors = []errorMapping{
	{ledgerdomain.ErrChildNotFound, http.StatusNotFound, "child_not_found"},
	{ledgerdomain.ErrTaskNotFound, http.StatusNotFound, "task_not_found"},
	{ledgerdomain.ErrMoneyRequestNotFound, http.StatusNotFound, "money_request_not_found"},
	{ledgerdomain.ErrDuplicateTicketNumber, http.StatusConflict, "duplicate_ticket_number"},
	{ledgerdomain.ErrInvalidState, http.StatusConflict, "invalid_state"},
	{ledgerdomain.ErrInsufficientBalance, http.StatusUnprocessableEntity, "insufficient_balance"},
	{ledgerdomain.ErrValidation, http.StatusBadRequest, "invalid_request"},
	{accountsdomain.ErrDuplicateEmail, http.StatusConflict, "duplicate_email"},
	{accountsdomain.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials"},
	{accountsdomain.ErrNoSession, http.StatusUnauthorized, "no_session"},
	{accountsdomain.ErrAccountNotFound, http.StatusNotFound, "account_not_found"},
	{accountsdomain.ErrValidation, http.StatusBadRequest, "invalid_request"},
	{errForbidden, http.StatusForbidden, "forbidden"},
}

// writeServiceError maps a domain error onto the response and logs it at
// the matching severity. args are extra log attributes.
func (h *Handlers) writeServiceError(w http.ResponseWriter, r *http.Request, op string, err error, args ...any) {
	log := h.log.WithContext(r.Context())
	for _, mapping := range domainErrors {
		if !errors.Is(err, mapping.target) {
			continue
		}
		log.BusinessError(op, err, args...)
		message := mapping.target.Error()
		if mapping.status == http.StatusBadRequest {
			message = err.Error()
		}
		writeError(w, mapping.status, mapping.code, message)
		return
	}

	log.InternalError(op, err, args...)
	writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
}
