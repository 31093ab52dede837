package handler

import (
	"log/slog"
	"net/http"

	"voicenotes/internal/task"
)

type TaskHandler struct {
	base
	svc *task.Service
}

func NewTaskHandler(svc *task.Service, users Provisioner, log *slog.Logger) *TaskHandler {
	return &TaskHandler{base: base{users: users, log: log}, svc: svc}
}

type createTaskReq struct {
	Description string `json:"description"`
	IsCompleted bool   `json:"isCompleted"`
}

// updateTaskReq uses pointers so an omitted field can be told apart from false or "".
type updateTaskReq struct {
	Description *string `json:"description"`
	IsCompleted *bool   `json:"isCompleted"`
}

func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	ident, ok := requireIdentity(w, r, msgUnauthorized)
	if !ok {
		return
	}
	u, ok := h.provision(w, r, ident, taskRes, "fetch")
	if !ok {
		return
	}

	tasks, err := h.svc.List(r.Context(), u.ID)
	if err != nil {
		h.fail(w, r, err, taskRes, "fetch")
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	ident, ok := requireIdentity(w, r, msgUnauthorized)
	if !ok {
		return
	}
	var req createTaskReq
	if !decodeJSON(w, r, &req) {
		return
	}
	in := task.CreateInput{Description: req.Description, IsCompleted: req.IsCompleted}
	if err := in.Validate(); err != nil {
		h.fail(w, r, err, taskRes, "create")
		return
	}
	u, ok := h.provision(w, r, ident, taskRes, "create")
	if !ok {
		return
	}

	t, err := h.svc.Create(r.Context(), u.ID, in)
	if err != nil {
		h.fail(w, r, err, taskRes, "create")
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	ident, ok := requireIdentity(w, r, msgUnauthorized)
	if !ok {
		return
	}
	id, ok := parseID(w, r, taskRes)
	if !ok {
		return
	}
	u, ok := h.provision(w, r, ident, taskRes, "view")
	if !ok {
		return
	}

	t, err := h.svc.Get(r.Context(), u.ID, id)
	if err != nil {
		h.fail(w, r, err, taskRes, "view")
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	ident, ok := requireIdentity(w, r, msgUnauthorized)
	if !ok {
		return
	}
	id, ok := parseID(w, r, taskRes)
	if !ok {
		return
	}
	var req updateTaskReq
	if !decodeJSON(w, r, &req) {
		return
	}
	in := task.UpdateInput{Description: req.Description, IsCompleted: req.IsCompleted}
	u, ok := h.provision(w, r, ident, taskRes, "update")
	if !ok {
		return
	}

	t, err := h.svc.Update(r.Context(), u.ID, id, in)
	if err != nil {
		h.fail(w, r, err, taskRes, "update")
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ident, ok := requireIdentity(w, r, msgUnauthorized)
	if !ok {
		return
	}
	id, ok := parseID(w, r, taskRes)
	if !ok {
		return
	}
	u, ok := h.provision(w, r, ident, taskRes, "delete")
	if !ok {
		return
	}

	if err := h.svc.Delete(r.Context(), u.ID, id); err != nil {
		h.fail(w, r, err, taskRes, "delete")
		return
	}
	writeDeleted(w)
}
