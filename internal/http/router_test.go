package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"voicenotes/internal/auth"
	"voicenotes/internal/diary"
	apphttp "voicenotes/internal/http"
	"voicenotes/internal/lecture"
	"voicenotes/internal/metrics"
	"voicenotes/internal/note"
	"voicenotes/internal/store/storetest"
	"voicenotes/internal/task"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type fakeUsers struct {
	mu      sync.Mutex
	byExt   map[string]*auth.User
	calls   int
	created int
	err     error
}

func (f *fakeUsers) Provision(_ context.Context, externalID string) (*auth.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if f.byExt == nil {
		f.byExt = map[string]*auth.User{}
	}
	if u, ok := f.byExt[externalID]; ok {
		return u, nil
	}
	f.created++
	u := &auth.User{ID: uint64(len(f.byExt) + 1), ExternalID: externalID, Name: auth.PlaceholderName}
	f.byExt[externalID] = u
	return u, nil
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

type env struct {
	t       *testing.T
	server  http.Handler
	users   *fakeUsers
	notes   *storetest.Mem[note.Note]
	tasks   *storetest.Mem[task.Task]
	jwt     *auth.JWT
	metrics *metrics.Collector
	reg     *prometheus.Registry
	logs    *bytes.Buffer
}

func newEnv(t *testing.T) *env {
	t.Helper()
	logs := &bytes.Buffer{}
	log := slog.New(slog.NewJSONHandler(logs, nil))
	reg := prometheus.NewRegistry()
	m := metrics.NewCollector(reg)

	notes := &storetest.Mem[note.Note]{
		SetID: func(n *note.Note, id uint64) { n.ID = id },
		Less:  func(a, b note.Note) bool { return a.ID > b.ID },
	}
	tasks := &storetest.Mem[task.Task]{
		SetID: func(x *task.Task, id uint64) { x.ID = id },
		Less:  func(a, b task.Task) bool { return a.ID > b.ID },
		Apply: func(x *task.Task, f map[string]any) {
			if v, ok := f["description"]; ok {
				x.Description = v.(string)
			}
			if v, ok := f["is_completed"]; ok {
				x.IsCompleted = v.(bool)
			}
		},
	}
	lectures := &storetest.Mem[lecture.Note]{SetID: func(n *lecture.Note, id uint64) { n.ID = id }}
	entries := &storetest.Mem[diary.Entry]{SetID: func(e *diary.Entry, id uint64) { e.ID = id }}

	users := &fakeUsers{}
	jwtSvc := auth.NewJWT(testSecret)

	e := &env{t: t, users: users, notes: notes, tasks: tasks, jwt: jwtSvc, metrics: m, reg: reg, logs: logs}
	e.server = apphttp.NewRouter(apphttp.Deps{
		Logger:   log,
		Resolver: auth.NewResolver(jwtSvc, auth.DefaultSessionCookie, true),
		Users:    users,
		DB:       stubPinger{},
		Notes:    note.NewService(notes, log, m),
		Tasks:    task.NewService(tasks, log, m),
		Lectures: lecture.NewService(lectures, log, m),
		Diary:    diary.NewService(entries, log, m),
		Metrics:  m,
		Gatherer: reg,
	})
	return e
}

// do sends a request as user (header fallback); user "" sends no identity.
func (e *env) do(method, path, user, body string) *httptest.ResponseRecorder {
	e.t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != "" {
		req.Header.Set(auth.UserIDHeader, user)
	}
	w := httptest.NewRecorder()
	e.server.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func errorMsg(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[map[string]string](t, w)["error"]
}

func TestCreateNote_Unauthenticated(t *testing.T) {
	e := newEnv(t)

	w := e.do(http.MethodPost, "/api/notes", "", `{"title":"t","content":"c"}`)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Unauthorized - You must be signed in to create notes", errorMsg(t, w))
	assert.Zero(t, e.notes.Len())
	assert.Zero(t, e.users.calls)
}

func TestUnauthenticated_AllRoutes(t *testing.T) {
	e := newEnv(t)

	for _, rt := range []struct{ method, path string }{
		{http.MethodGet, "/api/notes"},
		{http.MethodGet, "/api/notes/1"},
		{http.MethodDelete, "/api/notes/1"},
		{http.MethodGet, "/api/tasks"},
		{http.MethodPatch, "/api/tasks/1"},
		{http.MethodGet, "/api/lectures/1"},
		{http.MethodPost, "/api/diary"},
		{http.MethodGet, "/api/me"},
	} {
		w := e.do(rt.method, rt.path, "", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code, "%s %s", rt.method, rt.path)
		assert.True(t, strings.HasPrefix(errorMsg(t, w), "Unauthorized"))
	}
}

func TestNonNumericID_IsBadRequestBeforeLookup(t *testing.T) {
	e := newEnv(t)

	cases := []struct{ method, path, want string }{
		{http.MethodGet, "/api/notes/abc", "Invalid note ID"},
		{http.MethodDelete, "/api/notes/1.5", "Invalid note ID"},
		{http.MethodGet, "/api/tasks/x", "Invalid task ID"},
		{http.MethodPatch, "/api/tasks/-1", "Invalid task ID"},
		{http.MethodDelete, "/api/lectures/zero", "Invalid lecture note ID"},
		{http.MethodGet, "/api/diary/0", "Invalid diary entry ID"},
	}
	for _, tc := range cases {
		w := e.do(tc.method, tc.path, "user_a", `{"isCompleted":true}`)
		assert.Equal(t, http.StatusBadRequest, w.Code, tc.path)
		assert.Equal(t, tc.want, errorMsg(t, w))
	}
	assert.Zero(t, e.notes.Finds())
	assert.Zero(t, e.tasks.Finds())
	assert.Zero(t, e.users.calls)
}

func TestNote_RoundTripAndDelete(t *testing.T) {
	e := newEnv(t)

	w := e.do(http.MethodPost, "/api/notes", "user_a", `{"title":"Groceries","content":"milk and eggs #shopping"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[note.Note](t, w)
	assert.Equal(t, []string{"shopping"}, []string(created.Tags))

	w = e.do(http.MethodGet, "/api/notes/1", "user_a", "")
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[note.Note](t, w)
	assert.Equal(t, "Groceries", got.Title)
	assert.Equal(t, "milk and eggs #shopping", got.Content)
	assert.Equal(t, created.UserID, got.UserID)

	w = e.do(http.MethodGet, "/api/notes", "user_a", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]note.Note](t, w), 1)

	w = e.do(http.MethodDelete, "/api/notes/1", "user_a", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]bool{"success": true}, decode[map[string]bool](t, w))

	w = e.do(http.MethodGet, "/api/notes/1", "user_a", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Note not found", errorMsg(t, w))
}

func TestNote_ListEmptyIsArray(t *testing.T) {
	e := newEnv(t)

	w := e.do(http.MethodGet, "/api/notes", "user_a", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", strings.TrimSpace(w.Body.String()))
}

func TestNote_Validation(t *testing.T) {
	e := newEnv(t)

	w := e.do(http.MethodPost, "/api/notes", "user_a", `{"title":"","content":"x"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "title is required", errorMsg(t, w))

	w = e.do(http.MethodPost, "/api/notes", "user_a", `{"title":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid request body", errorMsg(t, w))

	assert.Zero(t, e.notes.Len())
	assert.Zero(t, e.users.calls)
}

func TestOwnership_Forbidden(t *testing.T) {
	e := newEnv(t)

	require.Equal(t, http.StatusCreated, e.do(http.MethodPost, "/api/notes", "owner", `{"title":"t","content":"c"}`).Code)
	require.Equal(t, http.StatusCreated, e.do(http.MethodPost, "/api/tasks", "owner", `{"description":"d"}`).Code)

	cases := []struct{ method, path, body, want string }{
		{http.MethodGet, "/api/notes/1", "", "Unauthorized - you do not have permission to view this note"},
		{http.MethodDelete, "/api/notes/1", "", "Unauthorized - you do not have permission to delete this note"},
		{http.MethodGet, "/api/tasks/1", "", "Unauthorized - you do not have permission to view this task"},
		{http.MethodPatch, "/api/tasks/1", `{"isCompleted":true}`, "Unauthorized - you do not have permission to update this task"},
		{http.MethodDelete, "/api/tasks/1", "", "Unauthorized - you do not have permission to delete this task"},
	}
	for _, tc := range cases {
		w := e.do(tc.method, tc.path, "intruder", tc.body)
		assert.Equal(t, http.StatusForbidden, w.Code, tc.path)
		assert.Equal(t, tc.want, errorMsg(t, w))
	}

	assert.Equal(t, 1, e.notes.Len())
	w := e.do(http.MethodGet, "/api/tasks/1", "owner", "")
	assert.False(t, decode[task.Task](t, w).IsCompleted)
}

func TestTask_PartialUpdate(t *testing.T) {
	e := newEnv(t)

	w := e.do(http.MethodPost, "/api/tasks", "user_a", `{"description":"file taxes"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.False(t, decode[task.Task](t, w).IsCompleted)

	w = e.do(http.MethodPatch, "/api/tasks/1", "user_a", `{"isCompleted":true}`)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[task.Task](t, w)
	assert.True(t, got.IsCompleted)
	assert.Equal(t, "file taxes", got.Description)

	w = e.do(http.MethodPatch, "/api/tasks/1", "user_a", `{"description":"file taxes today"}`)
	require.Equal(t, http.StatusOK, w.Code)
	got = decode[task.Task](t, w)
	assert.True(t, got.IsCompleted)
	assert.Equal(t, "file taxes today", got.Description)

	w = e.do(http.MethodPatch, "/api/tasks/1", "user_a", `{"isCompleted":false}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, decode[task.Task](t, w).IsCompleted)

	w = e.do(http.MethodPatch, "/api/tasks/1", "user_a", `{}`)
	require.Equal(t, http.StatusOK, w.Code)
	got = decode[task.Task](t, w)
	assert.False(t, got.IsCompleted)
	assert.Equal(t, "file taxes today", got.Description)

	w = e.do(http.MethodPatch, "/api/tasks/1", "user_a", `{"description":""}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "", decode[task.Task](t, w).Description)

	w = e.do(http.MethodPatch, "/api/tasks/1", "user_b", `{}`)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = e.do(http.MethodPatch, "/api/tasks/9", "user_a", `{"isCompleted":true}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Task not found", errorMsg(t, w))
}

func TestNote_StoresTextVerbatim(t *testing.T) {
	e := newEnv(t)

	w := e.do(http.MethodPost, "/api/notes", "user_a", `{"title":"Hello world. ","content":"  spoken text \n"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = e.do(http.MethodGet, "/api/notes/1", "user_a", "")
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[note.Note](t, w)
	assert.Equal(t, "Hello world. ", got.Title)
	assert.Equal(t, "  spoken text \n", got.Content)

	w = e.do(http.MethodPost, "/api/lectures", "user_a", `{"subject":" Physics","content":"waves "}`)
	require.Equal(t, http.StatusCreated, w.Code)
	lec := decode[lecture.Note](t, w)
	assert.Equal(t, " Physics", lec.Subject)
	assert.Equal(t, "waves ", lec.Content)

	w = e.do(http.MethodPost, "/api/tasks", "user_a", `{"description":" call back "}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, " call back ", decode[task.Task](t, w).Description)
}

func TestLecture_RoundTrip(t *testing.T) {
	e := newEnv(t)

	w := e.do(http.MethodPost, "/api/lectures", "user_a", `{"subject":"Biology","content":"mitochondria"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = e.do(http.MethodGet, "/api/lectures/1", "user_a", "")
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[lecture.Note](t, w)
	assert.Equal(t, "Biology", got.Subject)
	assert.Equal(t, "mitochondria", got.Content)

	w = e.do(http.MethodPost, "/api/lectures", "user_a", `{"subject":"Biology"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(http.MethodDelete, "/api/lectures/1", "user_b", "")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Unauthorized - you do not have permission to delete this lecture note", errorMsg(t, w))
}

func TestDiary_RoundTripAndDate(t *testing.T) {
	e := newEnv(t)

	w := e.do(http.MethodPost, "/api/diary", "user_a", `{"content":"long walk","date":"2024-02-29"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = e.do(http.MethodGet, "/api/diary/1", "user_a", "")
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[diary.Entry](t, w)
	assert.Equal(t, "long walk", got.Content)
	assert.True(t, got.Date.Equal(time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)))

	w = e.do(http.MethodPost, "/api/diary", "user_a", `{"content":"x","date":"last tuesday"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	before := time.Now().Add(-time.Minute)
	w = e.do(http.MethodPost, "/api/diary", "user_a", `{"content":"today"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, decode[diary.Entry](t, w).Date.After(before))
}

func TestProvisioning_OncePerIdentity(t *testing.T) {
	e := newEnv(t)

	e.do(http.MethodGet, "/api/notes", "newcomer", "")
	e.do(http.MethodGet, "/api/tasks", "newcomer", "")

	w := e.do(http.MethodGet, "/api/me", "newcomer", "")
	require.Equal(t, http.StatusOK, w.Code)
	me := decode[map[string]any](t, w)
	assert.Equal(t, "newcomer", me["externalId"])
	assert.Equal(t, auth.PlaceholderName, me["name"])
	assert.Equal(t, "header", me["authSource"])
	assert.Equal(t, 1, e.users.created)
	assert.Equal(t, 3, e.users.calls)
}

func TestSessionTokenWinsOverHeader(t *testing.T) {
	e := newEnv(t)
	token, err := e.jwt.Sign("session_user", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.AddCookie(&http.Cookie{Name: auth.DefaultSessionCookie, Value: token})
	req.Header.Set(auth.UserIDHeader, "header_user")
	w := httptest.NewRecorder()
	e.server.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	me := decode[map[string]any](t, w)
	assert.Equal(t, "session_user", me["externalId"])
	assert.Equal(t, "session", me["authSource"])
}

func TestPersistenceFailure_GenericMessage(t *testing.T) {
	e := newEnv(t)
	e.notes.Err = errors.New("connection refused: 10.0.0.5:5432")

	w := e.do(http.MethodGet, "/api/notes", "user_a", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Failed to fetch note", errorMsg(t, w))
	assert.NotContains(t, w.Body.String(), "10.0.0.5")
	assert.Contains(t, e.logs.String(), `"error":"list notes: connection refused: 10.0.0.5:5432"`)

	e.users.err = errors.New("db down")
	w = e.do(http.MethodPost, "/api/tasks", "user_a", `{"description":"x"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Failed to create task", errorMsg(t, w))
}

func TestHealthAndMetrics(t *testing.T) {
	e := newEnv(t)

	w := e.do(http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())

	e.do(http.MethodPost, "/api/notes", "user_a", `{"title":"t","content":"c"}`)
	w = e.do(http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `voicenotes_records_created_total{kind="note"} 1`)
	assert.Contains(t, body, `route="/api/notes`)
}

func TestHealth_DatabaseDown(t *testing.T) {
	var logs bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&logs, nil))
	srv := apphttp.NewRouter(apphttp.Deps{
		Logger:   log,
		Resolver: auth.HeaderResolver{},
		Users:    &fakeUsers{},
		DB:       stubPinger{err: errors.New("down")},
	})

	w := httptest.NewRecorder()
	srv.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, logs.String(), `"error":"down"`)
}
