package service

import (
	"context"
	"encoding/json"

	"github.com/bwmarrin/snowflake"
	"github.com/frontdesklabs/frontdesk/internal/audit/domain"
	"github.com/frontdesklabs/frontdesk/internal/clock"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type RecorderParams struct {
	fx.In

	Clock  clock.Clock
	GenID  *snowflake.Node
	DB     *gorm.DB
	Logger *zap.Logger
}

type RecorderImpl struct {
	clock clock.Clock
	genID *snowflake.Node
	db    *gorm.DB
	log   *zap.Logger
}

func NewRecorder(p RecorderParams) domain.Recorder {
	return &RecorderImpl{
		clock: p.Clock,
		genID: p.GenID,
		db:    p.DB,
		log:   p.Logger,
	}
}

func (r *RecorderImpl) Record(ctx context.Context, actor, action, entityType, entityID string, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		r.log.Warn("audit payload not serializable",
			zap.String("action", action), zap.Error(err))
		raw = []byte("{}")
	}

	event := &domain.Event{
		ID:         r.genID.Generate(),
		Actor:      actor,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Payload:    raw,
		CreatedAt:  r.clock.Now(ctx),
	}
	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		r.log.Warn("audit event not recorded",
			zap.String("action", action),
			zap.String("entity_id", entityID),
			zap.Error(err))
	}
}
