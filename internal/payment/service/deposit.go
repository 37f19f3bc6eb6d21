package service

import (
	"context"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/frontdesklabs/frontdesk/internal/clock"
	"github.com/frontdesklabs/frontdesk/internal/observability"
	"github.com/frontdesklabs/frontdesk/internal/payment/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type DepositParams struct {
	fx.In

	Repo    domain.Repository
	Clock   clock.Clock
	GenID   *snowflake.Node
	DB      *gorm.DB
	Metrics *observability.Metrics
	Logger  *zap.Logger
}

type DepositManagerImpl struct {
	repo    domain.Repository
	clock   clock.Clock
	genID   *snowflake.Node
	db      *gorm.DB
	metrics *observability.Metrics
	log     *zap.Logger
}

func NewDepositManager(p DepositParams) domain.DepositManager {
	return &DepositManagerImpl{
		repo:    p.Repo,
		clock:   p.Clock,
		genID:   p.GenID,
		db:      p.DB,
		metrics: p.Metrics,
		log:     p.Logger,
	}
}

func (m *DepositManagerImpl) IsSettled(ctx context.Context, bookingID snowflake.ID, required decimal.Decimal) (bool, error) {
	if !required.IsPositive() {
		return true, nil
	}
	refund, err := m.repo.FindDepositRefund(ctx, m.db, bookingID)
	if err != nil {
		return false, fmt.Errorf("deposit status for booking %s: %w", bookingID, err)
	}
	return refund != nil, nil
}

func (m *DepositManagerImpl) Refund(ctx context.Context, bookingID snowflake.ID, method string, amount decimal.Decimal, createdBy string) (*domain.Payment, error) {
	if !amount.IsPositive() {
		return nil, domain.ErrNonPositiveAmount
	}

	// Client-side guard for the common case; the unique index on
	// (booking_id, status, is_deposit) semantics is enforced server-side
	// by checking again here before insert.
	existing, err := m.repo.FindDepositRefund(ctx, m.db, bookingID)
	if err != nil {
		return nil, fmt.Errorf("refund deposit for booking %s: %w", bookingID, err)
	}
	if existing != nil {
		return nil, domain.ErrDepositAlreadyRefunded
	}

	now := m.clock.Now(ctx)
	refund := &domain.Payment{
		ID:         m.genID.Generate(),
		BookingID:  bookingID,
		Amount:     amount,
		Method:     method,
		Status:     domain.StatusRefunded,
		IsDeposit:  true,
		Reference:  uuid.NewString(),
		Notes:      "room card deposit refund",
		ReceivedAt: now,
		CreatedBy:  createdBy,
		CreatedAt:  now,
	}

	if err := m.repo.Insert(ctx, m.db, refund); err != nil {
		return nil, fmt.Errorf("refund deposit for booking %s: %w", bookingID, err)
	}

	m.metrics.DepositRefunds.Inc()
	m.log.Info("deposit refunded",
		zap.String("booking_id", bookingID.String()),
		zap.String("amount", amount.String()),
		zap.String("method", method))
	return refund, nil
}
