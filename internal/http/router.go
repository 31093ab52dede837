package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"voicenotes/internal/auth"
	"voicenotes/internal/diary"
	"voicenotes/internal/http/handler"
	mw "voicenotes/internal/http/middleware"
	"voicenotes/internal/lecture"
	"voicenotes/internal/logger"
	"voicenotes/internal/metrics"
	"voicenotes/internal/note"
	"voicenotes/internal/task"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

// Pinger reports whether the database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps is everything the router wires together. Metrics and Gatherer are optional.
type Deps struct {
	Logger   *slog.Logger
	Resolver auth.Resolver
	Users    handler.Provisioner
	DB       Pinger

	Notes    *note.Service
	Tasks    *task.Service
	Lectures *lecture.Service
	Diary    *diary.Service

	Metrics  *metrics.Collector
	Gatherer prometheus.Gatherer

	CORSAllowedOrigins   []string
	CORSAllowCredentials bool
}

func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(mw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(auth.Resolve(d.Resolver))
	r.Use(mw.Logging(d.Logger))
	if d.Metrics != nil {
		r.Use(d.Metrics.Middleware)
	}
	r.Use(chimw.Recoverer)

	if len(d.CORSAllowedOrigins) > 0 {
		r.Use(mw.CORS(d.CORSAllowedOrigins, d.CORSAllowCredentials))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if d.DB != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := d.DB.Ping(ctx); err != nil {
				d.Logger.WarnContext(r.Context(), "health check failed", logger.Err(err))
				http.Error(w, "database unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	if d.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(d.Gatherer))
	}

	noteH := handler.NewNoteHandler(d.Notes, d.Users, d.Logger)
	taskH := handler.NewTaskHandler(d.Tasks, d.Users, d.Logger)
	lectureH := handler.NewLectureHandler(d.Lectures, d.Users, d.Logger)
	diaryH := handler.NewDiaryHandler(d.Diary, d.Users, d.Logger)
	me := handler.NewMeHandler(d.Users, d.Logger)

	r.Route("/api", func(r chi.Router) {
		r.Get("/me", me.Me)

		r.Route("/notes", func(r chi.Router) {
			r.Get("/", noteH.List)
			r.Post("/", noteH.Create)
			r.Get("/{id}", noteH.Get)
			r.Delete("/{id}", noteH.Delete)
		})

		r.Route("/tasks", func(r chi.Router) {
			r.Get("/", taskH.List)
			r.Post("/", taskH.Create)
			r.Get("/{id}", taskH.Get)
			r.Patch("/{id}", taskH.Update)
			r.Delete("/{id}", taskH.Delete)
		})

		r.Route("/lectures", func(r chi.Router) {
			r.Get("/", lectureH.List)
			r.Post("/", lectureH.Create)
			r.Get("/{id}", lectureH.Get)
			r.Delete("/{id}", lectureH.Delete)
		})

		r.Route("/diary", func(r chi.Router) {
			r.Get("/", diaryH.List)
			r.Post("/", diaryH.Create)
			r.Get("/{id}", diaryH.Get)
			r.Delete("/{id}", diaryH.Delete)
		})
	})

	return r
}
