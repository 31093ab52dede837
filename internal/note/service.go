package note

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"voicenotes/internal/domain"
	"voicenotes/internal/store"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

type repository interface {
	ListByOwner(ctx context.Context, userID uint64, scopes ...store.Scope) ([]Note, error)
	Create(ctx context.Context, rec *Note) error
	Find(ctx context.Context, id uint64) (*Note, error)
	Delete(ctx context.Context, id, userID uint64) error
}

type recorder interface {
	RecordCreated(kind string)
	RecordDeleted(kind string)
}

// NewRepo returns the Postgres repository, newest notes first.
func NewRepo(db *gorm.DB) *store.Repo[Note] {
	return &store.Repo[Note]{DB: db, Order: "created_at desc, id desc"}
}

type Service struct {
	repo    repository
	log     *slog.Logger
	metrics recorder
}

func NewService(repo repository, log *slog.Logger, metrics recorder) *Service {
	return &Service{
		repo:    repo,
		log:     log.With("service", Kind),
		metrics: metrics,
	}
}

type CreateInput struct {
	Title   string
	Content string
}

func (in CreateInput) Validate() error {
	var errs []domain.FieldError
	if strings.TrimSpace(in.Title) == "" {
		errs = append(errs, domain.FieldError{Field: "title", Message: "is required"})
	}
	if strings.TrimSpace(in.Content) == "" {
		errs = append(errs, domain.FieldError{Field: "content", Message: "is required"})
	}
	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}

// ListFilter narrows List. Zero value lists everything the user owns.
type ListFilter struct {
	Tag   string
	Query string
}

func (f ListFilter) scopes() []store.Scope {
	var out []store.Scope
	if tag := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(f.Tag), "#")); tag != "" {
		out = append(out, func(q *gorm.DB) *gorm.DB {
			return q.Where("? = any(tags)", tag)
		})
	}
	if text := strings.TrimSpace(f.Query); text != "" {
		like := "%" + text + "%"
		out = append(out, func(q *gorm.DB) *gorm.DB {
			return q.Where("(title ILIKE ? OR content ILIKE ?)", like, like)
		})
	}
	return out
}

func (s *Service) List(ctx context.Context, userID uint64, f ListFilter) ([]Note, error) {
	notes, err := s.repo.ListByOwner(ctx, userID, f.scopes()...)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	return notes, nil
}

func (s *Service) Create(ctx context.Context, userID uint64, in CreateInput) (*Note, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	n := &Note{
		UserID:  userID,
		Title:   in.Title,
		Content: in.Content,
		Tags:    pq.StringArray(ExtractTags(in.Content)),
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("create note: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordCreated(Kind)
	}
	s.log.InfoContext(ctx, "note created",
		slog.Uint64("user_id", userID),
		slog.Uint64("note_id", n.ID),
		slog.Int("tags", len(n.Tags)),
	)
	return n, nil
}

// Get returns the note if it exists and belongs to userID.
func (s *Service) Get(ctx context.Context, userID, id uint64) (*Note, error) {
	n, err := s.repo.Find(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find note %d: %w", id, err)
	}
	if err := store.Authorize(*n, userID); err != nil {
		return nil, err
	}
	return n, nil
}

func (s *Service) Delete(ctx context.Context, userID, id uint64) error {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id, userID); err != nil {
		return fmt.Errorf("delete note %d: %w", id, err)
	}

	if s.metrics != nil {
		s.metrics.RecordDeleted(Kind)
	}
	s.log.InfoContext(ctx, "note deleted",
		slog.Uint64("user_id", userID),
		slog.Uint64("note_id", id),
	)
	return nil
}
