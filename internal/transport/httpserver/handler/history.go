package handler

import (
	"fmt"
	"net/http"

	ledgerdomain "allowance-app-go/internal/domain/ledger"
	"github.com/go-chi/chi/v5"
)

func (h *Handlers) ListTransactions(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.identity(w, r)
	if !ok {
		return
	}
	childID, err := parseIDParam(chi.URLParam(r, "child_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid child id")
		return
	}
	format, err := parseFormatParam(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "format must be json or csv")
		return
	}

	if _, err := h.authorizeChild(r.Context(), identity, childID); err != nil {
		h.writeServiceError(w, r, "transactions.list", err, "child_id", childID, "session_id", identity.ID)
		return
	}

	entries, err := h.Ledger.ListTransactions(r.Context(), childID)
	if err != nil {
		h.writeServiceError(w, r, "transactions.list", err, "child_id", childID)
		return
	}

	if format == "csv" {
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=allowance-history-%d.csv", childID))
		w.WriteHeader(http.StatusOK)
		if err := ledgerdomain.WriteTransactionsCSV(w, entries); err != nil {
			h.log.InternalError("transactions.list: write csv failed", err, "child_id", childID)
		}
		return
	}

	response := make([]transactionResponse, 0, len(entries))
	for _, entry := range entries {
		response = append(response, toTransactionResponse(entry))
	}
	writeJSON(w, http.StatusOK, response)
}
