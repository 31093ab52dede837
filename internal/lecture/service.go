package lecture

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"voicenotes/internal/domain"
	"voicenotes/internal/store"

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

func NewRepo(db *gorm.DB) *store.Repo[Note] {
	return &store.Repo[Note]{DB: db, Order: "created_at desc, id desc"}
}

type Service struct {
	repo    repository
	log     *slog.Logger
	metrics recorder
}

func NewService(repo repository, log *slog.Logger, metrics recorder) *Service {
	return &Service{repo: repo, log: log.With("service", Kind), metrics: metrics}
}

type CreateInput struct {
	Subject string
	Content string
}

func (in CreateInput) Validate() error {
	var errs []domain.FieldError
	if strings.TrimSpace(in.Subject) == "" {
		errs = append(errs, domain.FieldError{Field: "subject", Message: "is required"})
	}
	if strings.TrimSpace(in.Content) == "" {
		errs = append(errs, domain.FieldError{Field: "content", Message: "is required"})
	}
	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}

// List returns the user's lecture notes, optionally only those whose subject
// matches (case-insensitive).
func (s *Service) List(ctx context.Context, userID uint64, subject string) ([]Note, error) {
	var scopes []store.Scope
	if subject = strings.TrimSpace(subject); subject != "" {
		scopes = append(scopes, func(q *gorm.DB) *gorm.DB {
			return q.Where("lower(subject) = lower(?)", subject)
		})
	}
	notes, err := s.repo.ListByOwner(ctx, userID, scopes...)
	if err != nil {
		return nil, fmt.Errorf("list lecture notes: %w", err)
	}
	return notes, nil
}

func (s *Service) Create(ctx context.Context, userID uint64, in CreateInput) (*Note, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	n := &Note{
		UserID:  userID,
		Subject: in.Subject,
		Content: in.Content,
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("create lecture note: %w", err)
	}
	if s.metrics != nil {
		s.metrics.RecordCreated(Kind)
	}
	s.log.InfoContext(ctx, "lecture note created",
		slog.Uint64("user_id", userID),
		slog.Uint64("lecture_id", n.ID),
	)
	return n, nil
}

func (s *Service) Get(ctx context.Context, userID, id uint64) (*Note, error) {
	n, err := s.repo.Find(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find lecture note %d: %w", id, err)
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
		return fmt.Errorf("delete lecture note %d: %w", id, err)
	}
	if s.metrics != nil {
		s.metrics.RecordDeleted(Kind)
	}
	s.log.InfoContext(ctx, "lecture note deleted",
		slog.Uint64("user_id", userID),
		slog.Uint64("lecture_id", id),
	)
	return nil
}
