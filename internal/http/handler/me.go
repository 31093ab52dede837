package handler

import (
	"log/slog"
	"net/http"

	"voicenotes/internal/auth"
)

// MeHandler reports who the caller resolves to, provisioning them if needed.
type MeHandler struct {
	base
}

func NewMeHandler(users Provisioner, log *slog.Logger) *MeHandler {
	return &MeHandler{base: base{users: users, log: log}}
}

type meResp struct {
	*auth.User
	AuthSource auth.Source `json:"authSource"`
}

func (h *MeHandler) Me(w http.ResponseWriter, r *http.Request) {
	ident, ok := requireIdentity(w, r, msgUnauthorized)
	if !ok {
		return
	}
	u, ok := h.provision(w, r, ident, resource{"user", "User"}, "fetch")
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, meResp{User: u, AuthSource: ident.Source})
}
