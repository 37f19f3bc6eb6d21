package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	roomdomain "github.com/frontdesklabs/frontdesk/internal/room/domain"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Run is one committed night audit. Runs are immutable and the unique
// index on audit_date is the hard guard against a second posting for
// the same date, whatever the callers race.
type Run struct {
	ID        snowflake.ID `json:"id" gorm:"primaryKey"`
	AuditDate time.Time    `json:"audit_date" gorm:"type:date;not null;uniqueIndex"`
	Notes     string       `json:"notes" gorm:"type:text"`
	RunBy     string       `json:"run_by" gorm:"type:varchar(100);not null"`

	TotalBookingsPosted int             `json:"total_bookings_posted" gorm:"not null"`
	TotalCheckIns       int             `json:"total_check_ins" gorm:"not null"`
	TotalCheckOuts      int             `json:"total_check_outs" gorm:"not null"`
	TotalRevenue        decimal.Decimal `json:"total_revenue" gorm:"type:decimal(20,4);not null"`

	RoomsTotal       int             `json:"rooms_total" gorm:"not null"`
	RoomsAvailable   int             `json:"rooms_available" gorm:"not null"`
	RoomsOccupied    int             `json:"rooms_occupied" gorm:"not null"`
	RoomsReserved    int             `json:"rooms_reserved" gorm:"not null"`
	RoomsMaintenance int             `json:"rooms_maintenance" gorm:"not null"`
	RoomsDirty       int             `json:"rooms_dirty" gorm:"not null"`
	OccupancyRate    decimal.Decimal `json:"occupancy_rate" gorm:"type:decimal(7,2);not null"`

	CreatedAt time.Time `json:"created_at" gorm:"not null"`
}

func (Run) TableName() string { return "night_audit_runs" }

// Snapshot returns the room counts the run recorded.
func (r Run) Snapshot() roomdomain.StatusCounts {
	return roomdomain.StatusCounts{
		Total:       r.RoomsTotal,
		Available:   r.RoomsAvailable,
		Occupied:    r.RoomsOccupied,
		Reserved:    r.RoomsReserved,
		Maintenance: r.RoomsMaintenance,
		Dirty:       r.RoomsDirty,
	}
}

// UnpostedBooking is one row of the audit worklist, joined with its
// guest and room for display.
type UnpostedBooking struct {
	ID            snowflake.ID    `json:"id"`
	BookingNumber string          `json:"booking_number"`
	GuestName     string          `json:"guest_name"`
	RoomNumber    string          `json:"room_number"`
	Status        string          `json:"status"`
	PaymentMethod string          `json:"payment_method"`
	Source        string          `json:"source"`
	CheckInDate   time.Time       `json:"check_in_date"`
	CheckOutDate  time.Time       `json:"check_out_date"`
	RoomRate      decimal.Decimal `json:"room_rate"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
}

// Occupied reports whether the stay actually took a room. Reserved
// rows are locked by a run but carry no revenue and no bucket.
func (b UnpostedBooking) Occupied() bool {
	switch b.Status {
	case "checked_in", "late_checkout", "checked_out":
		return true
	}
	return false
}

// Revenue is what the booking contributes to the audit total. Only
// stays that actually occupied a room count.
func (b UnpostedBooking) Revenue() decimal.Decimal {
	if !b.Occupied() {
		return decimal.Zero
	}
	if b.TotalAmount.IsPositive() {
		return b.TotalAmount
	}
	nights := int(b.CheckOutDate.Sub(b.CheckInDate).Hours() / 24)
	if nights <= 0 {
		return decimal.Zero
	}
	return b.RoomRate.Mul(decimal.NewFromInt(int64(nights)))
}

// BreakdownItem is one revenue bucket, per payment method or per
// booking source.
type BreakdownItem struct {
	Category string          `json:"category"`
	Count    int             `json:"count"`
	Amount   decimal.Decimal `json:"amount"`
}

// Preview is the read-only dry run of an audit date.
type Preview struct {
	AuditDate        time.Time               `json:"audit_date"`
	Unposted         []UnpostedBooking       `json:"unposted"`
	RoomSnapshot     roomdomain.StatusCounts `json:"room_snapshot"`
	EstimatedRevenue decimal.Decimal         `json:"estimated_revenue"`
	CheckIns         int                     `json:"check_ins"`
	CheckOuts        int                     `json:"check_outs"`
	ByPaymentMethod  []BreakdownItem         `json:"by_payment_method"`
	BySource         []BreakdownItem         `json:"by_source"`
}

// Details is a committed run plus the bookings it locked.
type Details struct {
	Run             Run               `json:"run"`
	PostedBookings  []UnpostedBooking `json:"posted_bookings"`
	ByPaymentMethod []BreakdownItem   `json:"by_payment_method"`
	BySource        []BreakdownItem   `json:"by_source"`
}

var (
	ErrAlreadyRun  = errors.New("night_audit_already_run")
	ErrRunNotFound = errors.New("night_audit_run_not_found")
)

type Repository interface {
	InsertRun(ctx context.Context, db *gorm.DB, run *Run) error
	FindRunByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Run, error)
	// FindRunByDate returns nil, nil when no run exists for the date.
	FindRunByDate(ctx context.Context, db *gorm.DB, date time.Time) (*Run, error)
	ListRuns(ctx context.Context, db *gorm.DB, limit int) ([]Run, error)

	// ListUnposted selects the bookings a run for the date would lock:
	// not yet posted, not cancelled or no-show, and either spanning the
	// date, checked out on the date, or created on the date. Status does
	// not matter for the date-window arm; a reserved stay covering the
	// date still posts, with zero revenue.
	ListUnposted(ctx context.Context, db *gorm.DB, date time.Time) ([]UnpostedBooking, error)

	// ListPostedOn returns the bookings a past run locked for the date.
	ListPostedOn(ctx context.Context, db *gorm.DB, date time.Time) ([]UnpostedBooking, error)
}

type Service interface {
	Preview(ctx context.Context, date time.Time) (*Preview, error)

	// Run posts the audit for the date atomically: either every eligible
	// booking is locked and the run recorded, or nothing changes.
	Run(ctx context.Context, date time.Time, notes, runBy string) (*Run, error)

	List(ctx context.Context, limit int) ([]Run, error)
	Get(ctx context.Context, id snowflake.ID) (*Run, error)
	Details(ctx context.Context, id snowflake.ID) (*Details, error)
}
