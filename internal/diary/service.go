package diary

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"voicenotes/internal/domain"
	"voicenotes/internal/store"

	"gorm.io/gorm"
)

const dayLayout = "2006-01-02"

type repository interface {
	ListByOwner(ctx context.Context, userID uint64, scopes ...store.Scope) ([]Entry, error)
	Create(ctx context.Context, rec *Entry) error
	Find(ctx context.Context, id uint64) (*Entry, error)
	Delete(ctx context.Context, id, userID uint64) error
}

type recorder interface {
	RecordCreated(kind string)
	RecordDeleted(kind string)
}

// NewRepo returns the Postgres repository, latest date first.
func NewRepo(db *gorm.DB) *store.Repo[Entry] {
	return &store.Repo[Entry]{DB: db, Order: "date desc, id desc"}
}

type Service struct {
	repo    repository
	log     *slog.Logger
	metrics recorder
	now     func() time.Time
}

func NewService(repo repository, log *slog.Logger, metrics recorder) *Service {
	return &Service{
		repo:    repo,
		log:     log.With("service", Kind),
		metrics: metrics,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// CreateInput carries the raw date string; empty means "now".
type CreateInput struct {
	Content string
	Date    string
}

func (in CreateInput) Validate() error {
	var errs []domain.FieldError
	if strings.TrimSpace(in.Content) == "" {
		errs = append(errs, domain.FieldError{Field: "content", Message: "is required"})
	}
	if _, ok, err := ParseDate(in.Date); ok && err != nil {
		errs = append(errs, domain.FieldError{Field: "date", Message: "must be RFC 3339 or YYYY-MM-DD"})
	}
	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}

// ParseDate accepts an RFC 3339 timestamp or a calendar day (midnight UTC).
// ok is false when s is blank.
func ParseDate(s string) (t time.Time, ok bool, err error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), true, nil
	}
	t, err = time.Parse(dayLayout, s)
	if err != nil {
		return time.Time{}, true, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t, true, nil
}

func (s *Service) List(ctx context.Context, userID uint64) ([]Entry, error) {
	entries, err := s.repo.ListByOwner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list diary entries: %w", err)
	}
	return entries, nil
}

func (s *Service) Create(ctx context.Context, userID uint64, in CreateInput) (*Entry, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	date, ok, _ := ParseDate(in.Date)
	if !ok {
		date = s.now()
	}
	e := &Entry{
		UserID:  userID,
		Content: in.Content,
		Date:    date,
	}
	if err := s.repo.Create(ctx, e); err != nil {
		return nil, fmt.Errorf("create diary entry: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordCreated(Kind)
	}
	s.log.InfoContext(ctx, "diary entry created",
		slog.Uint64("user_id", userID),
		slog.Uint64("entry_id", e.ID),
		slog.Time("date", e.Date),
	)
	return e, nil
}

func (s *Service) Get(ctx context.Context, userID, id uint64) (*Entry, error) {
	e, err := s.repo.Find(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find diary entry %d: %w", id, err)
	}
	if err := store.Authorize(*e, userID); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *Service) Delete(ctx context.Context, userID, id uint64) error {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id, userID); err != nil {
		return fmt.Errorf("delete diary entry %d: %w", id, err)
	}
	if s.metrics != nil {
		s.metrics.RecordDeleted(Kind)
	}
	s.log.InfoContext(ctx, "diary entry deleted",
		slog.Uint64("user_id", userID),
		slog.Uint64("entry_id", id),
	)
	return nil
}
