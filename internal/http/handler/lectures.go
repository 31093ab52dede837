package handler

import (
	"log/slog"
	"net/http"

	"voicenotes/internal/lecture"
)

type LectureHandler struct {
	base
	svc *lecture.Service
}

func NewLectureHandler(svc *lecture.Service, users Provisioner, log *slog.Logger) *LectureHandler {
	return &LectureHandler{base: base{users: users, log: log}, svc: svc}
}

type createLectureReq struct {
	Subject string `json:"subject"`
	Content string `json:"content"`
}

func (h *LectureHandler) List(w http.ResponseWriter, r *http.Request) {
	ident, ok := requireIdentity(w, r, msgUnauthorized)
	if !ok {
		return
	}
	u, ok := h.provision(w, r, ident, lectureRes, "fetch")
	if !ok {
		return
	}

	notes, err := h.svc.List(r.Context(), u.ID, r.URL.Query().Get("subject"))
	if err != nil {
		h.fail(w, r, err, lectureRes, "fetch")
		return
	}
	writeJSON(w, http.StatusOK, notes)
}

func (h *LectureHandler) Create(w http.ResponseWriter, r *http.Request) {
	ident, ok := requireIdentity(w, r, msgUnauthorized)
	if !ok {
		return
	}
	var req createLectureReq
	if !decodeJSON(w, r, &req) {
		return
	}
	in := lecture.CreateInput{Subject: req.Subject, Content: req.Content}
	if err := in.Validate(); err != nil {
		h.fail(w, r, err, lectureRes, "create")
		return
	}
	u, ok := h.provision(w, r, ident, lectureRes, "create")
	if !ok {
		return
	}

	n, err := h.svc.Create(r.Context(), u.ID, in)
	if err != nil {
		h.fail(w, r, err, lectureRes, "create")
		return
	}
	writeJSON(w, http.StatusCreated, n)
}

func (h *LectureHandler) Get(w http.ResponseWriter, r *http.Request) {
	ident, ok := requireIdentity(w, r, msgUnauthorized)
	if !ok {
		return
	}
	id, ok := parseID(w, r, lectureRes)
	if !ok {
		return
	}
	u, ok := h.provision(w, r, ident, lectureRes, "view")
	if !ok {
		return
	}

	n, err := h.svc.Get(r.Context(), u.ID, id)
	if err != nil {
		h.fail(w, r, err, lectureRes, "view")
		return
	}
	writeJSON(w, http.StatusOK, n)
}

func (h *LectureHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ident, ok := requireIdentity(w, r, msgUnauthorized)
	if !ok {
		return
	}
	id, ok := parseID(w, r, lectureRes)
	if !ok {
		return
	}
	u, ok := h.provision(w, r, ident, lectureRes, "delete")
	if !ok {
		return
	}

	if err := h.svc.Delete(r.Context(), u.ID, id); err != nil {
		h.fail(w, r, err, lectureRes, "delete")
		return
	}
	writeDeleted(w)
}
