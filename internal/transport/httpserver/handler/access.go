package handler

import (
	"context"
	"net/http"

	ledgerdomain "allowance-app-go/internal/domain/ledger"
	"allowance-app-go/internal/transport/httpserver/middleware"
)

func (h *Handlers) identity(w http.ResponseWriter, r *http.Request) (middleware.Identity, bool) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return middleware.Identity{}, false
	}
	return identity, true
}

// authorizeChild lets a child act only on itself and a parent only on its
// own children. A parent probing someone else's child sees not found.
func (h *Handlers) authorizeChild(ctx context.Context, identity middleware.Identity, childID int64) (*ledgerdomain.Child, error) {
	if !identity.IsParent() && identity.ChildID != childID {
		return nil, errForbidden
	}

	child, err := h.Ledger.GetChild(ctx, childID)
	if err != nil {
		return nil, err
	}
	if identity.IsParent() && child.ParentID != identity.ID {
		return nil, ledgerdomain.ErrChildNotFound
	}
	return child, nil
}
