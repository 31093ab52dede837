package store

import (
	"context"
	"errors"

	"voicenotes/internal/domain"

	"gorm.io/gorm"
)

// Owned is implemented by every record kind that belongs to a user.
type Owned interface {
	OwnerID() uint64
}

// Authorize returns domain.ErrForbidden unless rec belongs to userID.
func Authorize[T Owned](rec T, userID uint64) error {
	if rec.OwnerID() != userID {
		return domain.ErrForbidden
	}
	return nil
}

// Scope narrows a list query (filters, extra ordering).
type Scope = func(*gorm.DB) *gorm.DB

// Repo is a gorm repository for one owned record kind.
// Order is applied to ListByOwner, e.g. "created_at desc, id desc".
type Repo[T any] struct {
	DB    *gorm.DB
	Order string
}

func (r *Repo[T]) ListByOwner(ctx context.Context, userID uint64, scopes ...Scope) ([]T, error) {
	q := r.DB.WithContext(ctx).Where("user_id = ?", userID).Scopes(scopes...)
	if r.Order != "" {
		q = q.Order(r.Order)
	}

	rows := make([]T, 0)
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Repo[T]) Create(ctx context.Context, rec *T) error {
	return r.DB.WithContext(ctx).Create(rec).Error
}

// Find loads one record by primary key. A missing row is domain.ErrNotFound.
func (r *Repo[T]) Find(ctx context.Context, id uint64) (*T, error) {
	var rec T
	if err := r.DB.WithContext(ctx).First(&rec, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &rec, nil
}

// Update writes only the given columns of the row (id, user_id) and reloads rec.
// Zero values in fields are written as-is. Empty fields only reloads.
func (r *Repo[T]) Update(ctx context.Context, rec *T, id, userID uint64, fields map[string]any) error {
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(fields) > 0 {
			res := tx.Model(new(T)).Where("id = ? AND user_id = ?", id, userID).Updates(fields)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return domain.ErrNotFound
			}
		}
		return tx.Where("user_id = ?", userID).First(rec, id).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotFound
	}
	return err
}

// Delete removes the row (id, user_id). A row that is already gone is domain.ErrNotFound.
func (r *Repo[T]) Delete(ctx context.Context, id, userID uint64) error {
	res := r.DB.WithContext(ctx).Where("user_id = ?", userID).Delete(new(T), id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
