package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/frontdesklabs/frontdesk/internal/clock"
	"github.com/frontdesklabs/frontdesk/internal/observability"
	"github.com/frontdesklabs/frontdesk/internal/payment/domain"
	"github.com/frontdesklabs/frontdesk/internal/payment/repository"
)

func newPaymentFixture(t *testing.T) (domain.Ledger, domain.DepositManager, *snowflake.Node) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Payment{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	fixed := clock.Fixed{At: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)}
	log := zap.NewNop()
	repo := repository.Provide()

	ledger := NewLedger(LedgerParams{
		Repo: repo, Clock: fixed, GenID: node, DB: db, Logger: log,
	})
	deposits := NewDepositManager(DepositParams{
		Repo: repo, Clock: fixed, GenID: node, DB: db,
		Metrics: observability.NewMetrics(), Logger: log,
	})
	return ledger, deposits, node
}

func TestRecordRejectsNonPositiveAmount(t *testing.T) {
	ledger, _, node := newPaymentFixture(t)
	bookingID := node.Generate()

	_, err := ledger.Record(context.Background(), domain.NewPayment{
		BookingID: bookingID, Amount: decimal.Zero, Method: "cash",
	})
	require.ErrorIs(t, err, domain.ErrNonPositiveAmount)

	_, err = ledger.Record(context.Background(), domain.NewPayment{
		BookingID: bookingID, Amount: decimal.NewFromInt(-5), Method: "cash",
	})
	require.ErrorIs(t, err, domain.ErrNonPositiveAmount)
}

func TestBalanceDueSubtractsCompletedPayments(t *testing.T) {
	ledger, _, node := newPaymentFixture(t)
	ctx := context.Background()
	bookingID := node.Generate()

	_, err := ledger.Record(ctx, domain.NewPayment{
		BookingID: bookingID, Amount: decimal.NewFromInt(150), Method: "card",
	})
	require.NoError(t, err)
	_, err = ledger.Record(ctx, domain.NewPayment{
		BookingID: bookingID, Amount: decimal.NewFromInt(50), Method: "cash",
	})
	require.NoError(t, err)

	total, err := ledger.TotalCompleted(ctx, bookingID)
	require.NoError(t, err)
	require.Equal(t, "200.00", total.StringFixed(2))

	due, err := ledger.BalanceDue(ctx, bookingID, decimal.NewFromInt(220))
	require.NoError(t, err)
	require.Equal(t, "20.00", due.StringFixed(2))
}

func TestBalanceDueKeepsOverpaymentNegative(t *testing.T) {
	ledger, _, node := newPaymentFixture(t)
	ctx := context.Background()
	bookingID := node.Generate()

	_, err := ledger.Record(ctx, domain.NewPayment{
		BookingID: bookingID, Amount: decimal.NewFromInt(300), Method: "card",
	})
	require.NoError(t, err)

	due, err := ledger.BalanceDue(ctx, bookingID, decimal.NewFromInt(220))
	require.NoError(t, err)
	require.Equal(t, "-80.00", due.StringFixed(2))
}

func TestDepositRefundExcludedFromTotals(t *testing.T) {
	ledger, deposits, node := newPaymentFixture(t)
	ctx := context.Background()
	bookingID := node.Generate()

	_, err := ledger.Record(ctx, domain.NewPayment{
		BookingID: bookingID, Amount: decimal.NewFromInt(220), Method: "card",
	})
	require.NoError(t, err)

	_, err = deposits.Refund(ctx, bookingID, "cash", decimal.NewFromInt(50), "desk")
	require.NoError(t, err)

	total, err := ledger.TotalCompleted(ctx, bookingID)
	require.NoError(t, err)
	require.Equal(t, "220.00", total.StringFixed(2))

	payments, err := ledger.ListByBooking(ctx, bookingID)
	require.NoError(t, err)
	require.Len(t, payments, 2)
}

func TestDepositRefundIsOneShot(t *testing.T) {
	_, deposits, node := newPaymentFixture(t)
	ctx := context.Background()
	bookingID := node.Generate()

	_, err := deposits.Refund(ctx, bookingID, "cash", decimal.NewFromInt(50), "desk")
	require.NoError(t, err)

	_, err = deposits.Refund(ctx, bookingID, "cash", decimal.NewFromInt(50), "desk")
	require.ErrorIs(t, err, domain.ErrDepositAlreadyRefunded)
}

func TestDepositSettlement(t *testing.T) {
	_, deposits, node := newPaymentFixture(t)
	ctx := context.Background()
	bookingID := node.Generate()

	// Nothing owed means nothing to settle.
	settled, err := deposits.IsSettled(ctx, bookingID, decimal.Zero)
	require.NoError(t, err)
	require.True(t, settled)

	settled, err = deposits.IsSettled(ctx, bookingID, decimal.NewFromInt(50))
	require.NoError(t, err)
	require.False(t, settled)

	_, err = deposits.Refund(ctx, bookingID, "cash", decimal.NewFromInt(50), "desk")
	require.NoError(t, err)

	settled, err = deposits.IsSettled(ctx, bookingID, decimal.NewFromInt(50))
	require.NoError(t, err)
	require.True(t, settled)
}
