package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrBookingNotFound = errors.New("booking_not_found")
	ErrBookingPosted   = errors.New("booking_posted")
	ErrInvalidStay     = errors.New("invalid_stay_dates")
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, booking *Booking) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Booking, error)

	// UpdateStatus rejects the change with ErrBookingPosted when the
	// booking has been locked by a night audit.
	UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status string) error

	// Checkout marks the booking checked out, recording the late
	// penalty and notes in the remarks when a penalty was charged.
	// Rejected with ErrBookingPosted on a locked booking.
	Checkout(ctx context.Context, db *gorm.DB, id snowflake.ID, penalty decimal.Decimal, notes string) error

	// MarkPosted locks the bookings for the audit date. Callers run it
	// inside the audit transaction.
	MarkPosted(ctx context.Context, db *gorm.DB, ids []snowflake.ID, date time.Time) error

	// SweepAutoCheckIn promotes reserved bookings due to check in today
	// once the check-in window has opened. Returns rows affected.
	SweepAutoCheckIn(ctx context.Context, db *gorm.DB, today time.Time) (int64, error)

	// SweepLateCheckout flags in-house bookings due out today that are
	// still in-house past the checkout cutoff. Returns rows affected.
	SweepLateCheckout(ctx context.Context, db *gorm.DB, today time.Time) (int64, error)
}

type SweepResult struct {
	CheckedIn  int64 `json:"checked_in"`
	MarkedLate int64 `json:"marked_late"`
}

type Service interface {
	Create(ctx context.Context, booking *Booking) (*Booking, error)
	Get(ctx context.Context, id snowflake.ID) (*Booking, error)
	IsPosted(ctx context.Context, id snowflake.ID) (bool, *time.Time, error)

	// Sweep applies the auto check-in and late-checkout settings to
	// today's bookings (front-office scheduled task).
	Sweep(ctx context.Context) (SweepResult, error)
}
