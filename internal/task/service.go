package task

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
	ListByOwner(ctx context.Context, userID uint64, scopes ...store.Scope) ([]Task, error)
	Create(ctx context.Context, rec *Task) error
	Find(ctx context.Context, id uint64) (*Task, error)
	Update(ctx context.Context, rec *Task, id, userID uint64, fields map[string]any) error
	Delete(ctx context.Context, id, userID uint64) error
}

type recorder interface {
	RecordCreated(kind string)
	RecordDeleted(kind string)
}

func NewRepo(db *gorm.DB) *store.Repo[Task] {
	return &store.Repo[Task]{DB: db, Order: "created_at desc, id desc"}
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
	Description string
	IsCompleted bool
}

func (in CreateInput) Validate() error {
	if strings.TrimSpace(in.Description) == "" {
		return domain.NewValidationError("description", "is required")
	}
	return nil
}

// UpdateInput is a partial update. Nil fields are left untouched; a non-nil
// false or empty value is applied as given. With no fields set, Update only
// checks ownership and returns the stored task.
type UpdateInput struct {
	Description *string
	IsCompleted *bool
}

func (in UpdateInput) fields() map[string]any {
	f := make(map[string]any, 2)
	if in.Description != nil {
		f["description"] = *in.Description
	}
	if in.IsCompleted != nil {
		f["is_completed"] = *in.IsCompleted
	}
	return f
}

func (s *Service) List(ctx context.Context, userID uint64) ([]Task, error) {
	tasks, err := s.repo.ListByOwner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

func (s *Service) Create(ctx context.Context, userID uint64, in CreateInput) (*Task, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	t := &Task{
		UserID:      userID,
		Description: in.Description,
		IsCompleted: in.IsCompleted,
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordCreated(Kind)
	}
	s.log.InfoContext(ctx, "task created",
		slog.Uint64("user_id", userID),
		slog.Uint64("task_id", t.ID),
	)
	return t, nil
}

func (s *Service) Get(ctx context.Context, userID, id uint64) (*Task, error) {
	t, err := s.repo.Find(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find task %d: %w", id, err)
	}
	if err := store.Authorize(*t, userID); err != nil {
		return nil, err
	}
	return t, nil
}

// Update applies in to the task after the ownership check and returns the
// stored result.
func (s *Service) Update(ctx context.Context, userID, id uint64, in UpdateInput) (*Task, error) {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return nil, err
	}

	var t Task
	if err := s.repo.Update(ctx, &t, id, userID, in.fields()); err != nil {
		return nil, fmt.Errorf("update task %d: %w", id, err)
	}

	s.log.InfoContext(ctx, "task updated",
		slog.Uint64("user_id", userID),
		slog.Uint64("task_id", id),
		slog.Bool("is_completed", t.IsCompleted),
	)
	return &t, nil
}

func (s *Service) Delete(ctx context.Context, userID, id uint64) error {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id, userID); err != nil {
		return fmt.Errorf("delete task %d: %w", id, err)
	}

	if s.metrics != nil {
		s.metrics.RecordDeleted(Kind)
	}
	s.log.InfoContext(ctx, "task deleted",
		slog.Uint64("user_id", userID),
		slog.Uint64("task_id", id),
	)
	return nil
}
