package handler

import (
	"log/slog"
	"net/http"

	"voicenotes/internal/note"
)

type NoteHandler struct {
	base
	svc *note.Service
}

func NewNoteHandler(svc *note.Service, users Provisioner, log *slog.Logger) *NoteHandler {
	return &NoteHandler{base: base{users: users, log: log}, svc: svc}
}

type createNoteReq struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

func (h *NoteHandler) List(w http.ResponseWriter, r *http.Request) {
	ident, ok := requireIdentity(w, r, msgUnauthorized)
	if !ok {
		return
	}
	u, ok := h.provision(w, r, ident, noteRes, "fetch")
	if !ok {
		return
	}

	q := r.URL.Query()
	notes, err := h.svc.List(r.Context(), u.ID, note.ListFilter{Tag: q.Get("tag"), Query: q.Get("q")})
	if err != nil {
		h.fail(w, r, err, noteRes, "fetch")
		return
	}
	writeJSON(w, http.StatusOK, notes)
}

func (h *NoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	ident, ok := requireIdentity(w, r, msgUnauthorized+" to create notes")
	if !ok {
		return
	}
	var req createNoteReq
	if !decodeJSON(w, r, &req) {
		return
	}
	in := note.CreateInput{Title: req.Title, Content: req.Content}
	if err := in.Validate(); err != nil {
		h.fail(w, r, err, noteRes, "create")
		return
	}
	u, ok := h.provision(w, r, ident, noteRes, "create")
	if !ok {
		return
	}

	n, err := h.svc.Create(r.Context(), u.ID, in)
	if err != nil {
		h.fail(w, r, err, noteRes, "create")
		return
	}
	writeJSON(w, http.StatusCreated, n)
}

func (h *NoteHandler) Get(w http.ResponseWriter, r *http.Request) {
	ident, ok := requireIdentity(w, r, msgUnauthorized)
	if !ok {
		return
	}
	id, ok := parseID(w, r, noteRes)
	if !ok {
		return
	}
	u, ok := h.provision(w, r, ident, noteRes, "view")
	if !ok {
		return
	}

	n, err := h.svc.Get(r.Context(), u.ID, id)
	if err != nil {
		h.fail(w, r, err, noteRes, "view")
		return
	}
	writeJSON(w, http.StatusOK, n)
}

func (h *NoteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ident, ok := requireIdentity(w, r, msgUnauthorized)
	if !ok {
		return
	}
	id, ok := parseID(w, r, noteRes)
	if !ok {
		return
	}
	u, ok := h.provision(w, r, ident, noteRes, "delete")
	if !ok {
		return
	}

	if err := h.svc.Delete(r.Context(), u.ID, id); err != nil {
		h.fail(w, r, err, noteRes, "delete")
		return
	}
	writeDeleted(w)
}
