package service

import (
	"context"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/frontdesklabs/frontdesk/internal/clock"
	"github.com/frontdesklabs/frontdesk/internal/payment/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type LedgerParams struct {
	fx.In

	Repo   domain.Repository
	Clock  clock.Clock
	GenID  *snowflake.Node
	DB     *gorm.DB
	Logger *zap.Logger
}

type LedgerImpl struct {
	repo  domain.Repository
	clock clock.Clock
	genID *snowflake.Node
	db    *gorm.DB
	log   *zap.Logger
}

func NewLedger(p LedgerParams) domain.Ledger {
	return &LedgerImpl{
		repo:  p.Repo,
		clock: p.Clock,
		genID: p.GenID,
		db:    p.DB,
		log:   p.Logger,
	}
}

func (l *LedgerImpl) Record(ctx context.Context, input domain.NewPayment) (*domain.Payment, error) {
	if !input.Amount.IsPositive() {
		return nil, domain.ErrNonPositiveAmount
	}

	now := l.clock.Now(ctx)
	payment := &domain.Payment{
		ID:         l.genID.Generate(),
		BookingID:  input.BookingID,
		Amount:     input.Amount,
		Method:     input.Method,
		Status:     domain.StatusCompleted,
		Reference:  uuid.NewString(),
		Notes:      input.Notes,
		ReceivedAt: now,
		CreatedBy:  input.CreatedBy,
		CreatedAt:  now,
	}

	if err := l.repo.Insert(ctx, l.db, payment); err != nil {
		return nil, fmt.Errorf("record payment for booking %s: %w", input.BookingID, err)
	}

	l.log.Info("payment recorded",
		zap.String("booking_id", input.BookingID.String()),
		zap.String("amount", input.Amount.String()),
		zap.String("method", input.Method))
	return payment, nil
}

func (l *LedgerImpl) ListByBooking(ctx context.Context, bookingID snowflake.ID) ([]domain.Payment, error) {
	return l.repo.ListByBooking(ctx, l.db, bookingID)
}

func (l *LedgerImpl) TotalCompleted(ctx context.Context, bookingID snowflake.ID) (decimal.Decimal, error) {
	return l.repo.SumCompleted(ctx, l.db, bookingID)
}

func (l *LedgerImpl) BalanceDue(ctx context.Context, bookingID snowflake.ID, grandTotal decimal.Decimal) (decimal.Decimal, error) {
	paid, err := l.repo.SumCompleted(ctx, l.db, bookingID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("balance due for booking %s: %w", bookingID, err)
	}
	return grandTotal.Sub(paid), nil
}
