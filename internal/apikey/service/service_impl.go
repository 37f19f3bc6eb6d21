package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/frontdesklabs/frontdesk/internal/apikey/domain"
	"github.com/frontdesklabs/frontdesk/internal/clock"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	Clock  clock.Clock
	GenID  *snowflake.Node
	DB     *gorm.DB
	Logger *zap.Logger
}

type Impl struct {
	clock clock.Clock
	genID *snowflake.Node
	db    *gorm.DB
	log   *zap.Logger
}

func New(p Params) domain.Service {
	return &Impl{clock: p.Clock, genID: p.GenID, db: p.DB, log: p.Logger}
}

func (s *Impl) Create(ctx context.Context, name, role string, expiresAt *time.Time) (*domain.Created, error) {
	secret := domain.NewSecret()
	key := &domain.ApiKey{
		ID:        s.genID.Generate(),
		Name:      name,
		KeyHash:   domain.HashAPIKey(secret),
		Role:      role,
		IsActive:  true,
		ExpiresAt: expiresAt,
		CreatedAt: s.clock.Now(ctx),
	}
	if err := s.db.WithContext(ctx).Create(key).Error; err != nil {
		return nil, fmt.Errorf("create api key %q: %w", name, err)
	}

	s.log.Info("api key created",
		zap.String("key_id", key.ID.String()),
		zap.String("name", name),
		zap.String("role", role))
	return &domain.Created{Key: key, Secret: secret}, nil
}

func (s *Impl) Authenticate(ctx context.Context, secret string) (*domain.ApiKey, error) {
	hash := domain.HashAPIKey(secret)

	var key domain.ApiKey
	err := s.db.WithContext(ctx).Where("key_hash = ? AND is_active = ?", hash, true).First(&key).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUnauthorized
		}
		return nil, err
	}

	now := s.clock.Now(ctx)
	if key.ExpiresAt != nil && !key.ExpiresAt.After(now) {
		return nil, domain.ErrUnauthorized
	}
	if subtle.ConstantTimeCompare([]byte(key.KeyHash), []byte(hash)) != 1 {
		return nil, domain.ErrUnauthorized
	}

	// Last-use tracking is informational; a failed update never blocks
	// the request.
	if err := s.db.WithContext(ctx).Model(&domain.ApiKey{}).
		Where("id = ?", key.ID).
		Update("last_used_at", now).Error; err != nil {
		s.log.Warn("api key last_used_at not updated", zap.Error(err))
	}
	return &key, nil
}

func (s *Impl) List(ctx context.Context) ([]domain.ApiKey, error) {
	var keys []domain.ApiKey
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&keys).Error; err != nil {
		return nil, err
	}
	return keys, nil
}

func (s *Impl) Revoke(ctx context.Context, id snowflake.ID) error {
	result := s.db.WithContext(ctx).Model(&domain.ApiKey{}).
		Where("id = ?", id).
		Update("is_active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrKeyNotFound
	}
	return nil
}
