package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// Booking is a stay: one guest occupying one room for a date range.
// Owned by the booking system of record; the billing core reads it and
// requests mutations through the Repository.
type Booking struct {
	ID            snowflake.ID `json:"id" gorm:"primaryKey"`
	BookingNumber string       `json:"booking_number" gorm:"type:varchar(40);not null;uniqueIndex"`
	GuestID       snowflake.ID `json:"guest_id" gorm:"not null;index"`
	RoomID        snowflake.ID `json:"room_id" gorm:"not null;index"`

	// Calendar dates at UTC midnight, not timestamps.
	CheckInDate  time.Time `json:"check_in_date" gorm:"type:date;not null;index"`
	CheckOutDate time.Time `json:"check_out_date" gorm:"type:date;not null;index"`

	// RoomRate is the tax-inclusive nightly price agreed for the stay.
	RoomRate       decimal.Decimal `json:"room_rate" gorm:"type:decimal(20,4)"`
	TotalAmount    decimal.Decimal `json:"total_amount" gorm:"type:decimal(20,4)"`
	TourismTax     decimal.Decimal `json:"tourism_tax" gorm:"type:decimal(20,4)"`
	ExtraBedCharge decimal.Decimal `json:"extra_bed_charge" gorm:"type:decimal(20,4)"`

	// OccupantType decides tourism tax; Membership decides the deposit waiver.
	OccupantType string `json:"occupant_type" gorm:"type:varchar(20);not null;default:domestic"`
	Membership   string `json:"membership" gorm:"type:varchar(20);not null;default:non_member"`

	CompanyID   *snowflake.ID `json:"company_id" gorm:"index"`
	CompanyName string        `json:"company_name" gorm:"type:varchar(255)"`

	Status        string `json:"status" gorm:"type:varchar(30);not null;index"`
	PaymentStatus string `json:"payment_status" gorm:"type:varchar(30);not null;default:unpaid"`
	PaymentMethod string `json:"payment_method" gorm:"type:varchar(50)"`
	Source        string `json:"source" gorm:"type:varchar(50);not null;default:walk_in"`

	// Set by the night audit; a posted booking is locked against edits.
	IsPosted   bool       `json:"is_posted" gorm:"not null;default:false;index"`
	PostedDate *time.Time `json:"posted_date" gorm:"type:date"`

	Remarks   string    `json:"remarks" gorm:"type:text"`
	CreatedBy string    `json:"created_by" gorm:"type:varchar(100)"`
	CreatedAt time.Time `json:"created_at" gorm:"not null"`
	UpdatedAt time.Time `json:"updated_at" gorm:"not null"`
}

func (Booking) TableName() string { return "bookings" }

const (
	StatusReserved     = "reserved"
	StatusCheckedIn    = "checked_in"
	StatusLateCheckout = "late_checkout"
	StatusCheckedOut   = "checked_out"
	StatusCancelled    = "cancelled"
	StatusNoShow       = "no_show"
)

const (
	OccupantDomestic = "domestic"
	OccupantForeign  = "foreign"

	MembershipMember    = "member"
	MembershipNonMember = "non_member"
)

// Nights returns the stay length in nights. Zero or negative means the
// date range is invalid.
func (b Booking) Nights() int {
	return int(b.CheckOutDate.Sub(b.CheckInDate).Hours() / 24)
}

func (b Booking) IsCompanyBilled() bool {
	return b.CompanyID != nil && *b.CompanyID != 0
}

// InHouse reports whether the stay is active, late checkout included.
func (b Booking) InHouse() bool {
	return b.Status == StatusCheckedIn || b.Status == StatusLateCheckout
}
