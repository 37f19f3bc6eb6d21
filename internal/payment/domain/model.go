package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Payment is one append-only ledger entry against a stay. Refunds are
// new records with StatusRefunded, never edits of existing rows.
type Payment struct {
	ID        snowflake.ID    `json:"id" gorm:"primaryKey"`
	BookingID snowflake.ID    `json:"booking_id" gorm:"not null;index"`
	Amount    decimal.Decimal `json:"amount" gorm:"type:decimal(20,4);not null"`
	Method    string          `json:"method" gorm:"type:varchar(50);not null"`
	Status    string          `json:"status" gorm:"type:varchar(20);not null;index"`

	// IsDeposit tags room-card deposit movements; they settle separately
	// from the room/tax bill and never count toward the balance due.
	IsDeposit bool `json:"is_deposit" gorm:"not null;default:false"`

	Reference  string    `json:"reference" gorm:"type:varchar(64);not null;uniqueIndex"`
	Notes      string    `json:"notes" gorm:"type:text"`
	ReceivedAt time.Time `json:"received_at" gorm:"not null"`
	CreatedBy  string    `json:"created_by" gorm:"type:varchar(100)"`
	CreatedAt  time.Time `json:"created_at" gorm:"not null"`
}

func (Payment) TableName() string { return "payments" }

const (
	StatusCompleted = "completed"
	StatusRefunded  = "refunded"
)

var (
	ErrNonPositiveAmount      = errors.New("non_positive_amount")
	ErrDepositAlreadyRefunded = errors.New("deposit_already_refunded")
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, payment *Payment) error
	ListByBooking(ctx context.Context, db *gorm.DB, bookingID snowflake.ID) ([]Payment, error)

	// SumCompleted totals completed, non-deposit payments for the stay.
	SumCompleted(ctx context.Context, db *gorm.DB, bookingID snowflake.ID) (decimal.Decimal, error)

	// FindDepositRefund returns the deposit-refund record for the stay,
	// or nil when the deposit has not been returned.
	FindDepositRefund(ctx context.Context, db *gorm.DB, bookingID snowflake.ID) (*Payment, error)
}

type NewPayment struct {
	BookingID snowflake.ID    `json:"booking_id"`
	Amount    decimal.Decimal `json:"amount"`
	Method    string          `json:"method"`
	Notes     string          `json:"notes"`
	CreatedBy string          `json:"created_by"`
}

// Ledger tracks what has been paid toward a stay's bill.
type Ledger interface {
	Record(ctx context.Context, input NewPayment) (*Payment, error)
	ListByBooking(ctx context.Context, bookingID snowflake.ID) ([]Payment, error)
	TotalCompleted(ctx context.Context, bookingID snowflake.ID) (decimal.Decimal, error)

	// BalanceDue is grandTotal minus completed payments. Negative means
	// overpayment and is returned as-is, never clamped.
	BalanceDue(ctx context.Context, bookingID snowflake.ID, grandTotal decimal.Decimal) (decimal.Decimal, error)
}

// DepositManager settles the refundable room-card deposit.
type DepositManager interface {
	// IsSettled is true when no deposit is owed or it was already
	// returned.
	IsSettled(ctx context.Context, bookingID snowflake.ID, required decimal.Decimal) (bool, error)

	// Refund records the deposit return. A second call for the same stay
	// fails with ErrDepositAlreadyRefunded.
	Refund(ctx context.Context, bookingID snowflake.ID, method string, amount decimal.Decimal, createdBy string) (*Payment, error)
}
