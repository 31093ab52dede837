package handler

import (
	"log/slog"
	"net/http"

	"voicenotes/internal/diary"
)

type DiaryHandler struct {
	base
	svc *diary.Service
}

func NewDiaryHandler(svc *diary.Service, users Provisioner, log *slog.Logger) *DiaryHandler {
	return &DiaryHandler{base: base{users: users, log: log}, svc: svc}
}

type createDiaryReq struct {
	Content string `json:"content"`
	Date    string `json:"date"` // RFC 3339 or YYYY-MM-DD, optional
}

func (h *DiaryHandler) List(w http.ResponseWriter, r *http.Request) {
	ident, ok := requireIdentity(w, r, msgUnauthorized)
	if !ok {
		return
	}
	u, ok := h.provision(w, r, ident, diaryRes, "fetch")
	if !ok {
		return
	}

	entries, err := h.svc.List(r.Context(), u.ID)
	if err != nil {
		h.fail(w, r, err, diaryRes, "fetch")
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *DiaryHandler) Create(w http.ResponseWriter, r *http.Request) {
	ident, ok := requireIdentity(w, r, msgUnauthorized)
	if !ok {
		return
	}
	var req createDiaryReq
	if !decodeJSON(w, r, &req) {
		return
	}
	in := diary.CreateInput{Content: req.Content, Date: req.Date}
	if err := in.Validate(); err != nil {
		h.fail(w, r, err, diaryRes, "create")
		return
	}
	u, ok := h.provision(w, r, ident, diaryRes, "create")
	if !ok {
		return
	}

	e, err := h.svc.Create(r.Context(), u.ID, in)
	if err != nil {
		h.fail(w, r, err, diaryRes, "create")
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

func (h *DiaryHandler) Get(w http.ResponseWriter, r *http.Request) {
	ident, ok := requireIdentity(w, r, msgUnauthorized)
	if !ok {
		return
	}
	id, ok := parseID(w, r, diaryRes)
	if !ok {
		return
	}
	u, ok := h.provision(w, r, ident, diaryRes, "view")
	if !ok {
		return
	}

	e, err := h.svc.Get(r.Context(), u.ID, id)
	if err != nil {
		h.fail(w, r, err, diaryRes, "view")
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (h *DiaryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ident, ok := requireIdentity(w, r, msgUnauthorized)
	if !ok {
		return
	}
	id, ok := parseID(w, r, diaryRes)
	if !ok {
		return
	}
	u, ok := h.provision(w, r, ident, diaryRes, "delete")
	if !ok {
		return
	}

	if err := h.svc.Delete(r.Context(), u.ID, id); err != nil {
		h.fail(w, r, err, diaryRes, "delete")
		return
	}
	writeDeleted(w)
}
