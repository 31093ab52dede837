package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"voicenotes/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PlaceholderName is given to users created on first sight.
const PlaceholderName = "New User"

// User maps an identity-provider id to the internal id that owns records.
type User struct {
	ID         uint64    `gorm:"primaryKey" json:"id"`
	ExternalID string    `gorm:"uniqueIndex;not null" json:"externalId"`
	Name       string    `gorm:"not null" json:"name"`
	CreatedAt  time.Time `gorm:"not null" json:"createdAt"`
}

// UserStore persists users.
type UserStore interface {
	// FindByExternalID returns domain.ErrNotFound for an unknown id.
	FindByExternalID(ctx context.Context, externalID string) (*User, error)
	// CreateIfAbsent inserts u unless its external id already exists.
	// created reports whether this call inserted the row.
	CreateIfAbsent(ctx context.Context, u *User) (created bool, err error)
}

type provisionRecorder interface {
	RecordUserProvisioned()
}

// Provisioner finds or lazily creates the internal user for an external identity.
type Provisioner struct {
	users   UserStore
	log     *slog.Logger
	metrics provisionRecorder
}

func NewProvisioner(users UserStore, log *slog.Logger, metrics provisionRecorder) *Provisioner {
	return &Provisioner{
		users:   users,
		log:     log.With("component", "provisioner"),
		metrics: metrics,
	}
}

func (p *Provisioner) Provision(ctx context.Context, externalID string) (*User, error) {
	if externalID == "" {
		return nil, domain.ErrUnauthorized
	}

	u, err := p.users.FindByExternalID(ctx, externalID)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("find user: %w", err)
	}

	u = &User{ExternalID: externalID, Name: PlaceholderName}
	created, err := p.users.CreateIfAbsent(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	if !created {
		// a concurrent first request inserted the row between our read and write
		u, err = p.users.FindByExternalID(ctx, externalID)
		if err != nil {
			return nil, fmt.Errorf("reload user: %w", err)
		}
		return u, nil
	}

	if p.metrics != nil {
		p.metrics.RecordUserProvisioned()
	}
	p.log.InfoContext(ctx, "user provisioned",
		slog.Uint64("user_id", u.ID),
		slog.String("external_id", externalID),
	)
	return u, nil
}

// GormUserStore is the Postgres-backed UserStore.
type GormUserStore struct {
	DB *gorm.DB
}

func (s *GormUserStore) FindByExternalID(ctx context.Context, externalID string) (*User, error) {
	var u User
	if err := s.DB.WithContext(ctx).Where("external_id = ?", externalID).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (s *GormUserStore) CreateIfAbsent(ctx context.Context, u *User) (bool, error) {
	res := s.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "external_id"}},
			DoNothing: true,
		}).
		Create(u)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
