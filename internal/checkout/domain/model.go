package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/frontdesklabs/frontdesk/internal/tariff"
	"github.com/shopspring/decimal"
)

// State is a step in the checkout walk. The flow moves forward
// PREVIEW -> LATE_CHECKOUT (only when the stay is past the cutoff) ->
// CONFIRM -> COMPLETED, and may move backward freely before COMPLETED.
type State string

const (
	StatePreview      State = "preview"
	StateLateCheckout State = "late_checkout"
	StateConfirm      State = "confirm"
	StateCompleted    State = "completed"
)

var (
	ErrIllegalTransition  = errors.New("illegal_checkout_transition")
	ErrDepositOutstanding = errors.New("deposit_outstanding")
	ErrFlowCompleted      = errors.New("checkout_completed")
	ErrNotInHouse         = errors.New("booking_not_in_house")
)

// Reconciliation is the working copy of one stay's checkout. It is held
// only while the operator walks the flow; abandoning before COMPLETED
// leaves no trace.
type Reconciliation struct {
	BookingID     snowflake.ID     `json:"booking_id"`
	BookingNumber string           `json:"booking_number"`
	GuestName     string           `json:"guest_name"`
	RoomNumber    string           `json:"room_number"`
	State         State            `json:"state"`
	Breakdown     tariff.Breakdown `json:"breakdown"`

	// IsLateCheckout is true when the stay checks out today and the
	// current time is past the hotel cutoff.
	IsLateCheckout bool            `json:"is_late_checkout"`
	Penalty        decimal.Decimal `json:"penalty"`
	PenaltyNotes   string          `json:"penalty_notes"`

	DepositRequired decimal.Decimal `json:"deposit_required"`
	DepositSettled  bool            `json:"deposit_settled"`

	TotalPaid  decimal.Decimal `json:"total_paid"`
	BalanceDue decimal.Decimal `json:"balance_due"`

	CompanyBilled bool      `json:"company_billed"`
	StartedAt     time.Time `json:"started_at"`
}

// Reconciler drives the checkout of one stay at a time.
type Reconciler interface {
	// Preview opens (or refreshes) the flow for a stay and returns the
	// PREVIEW reconciliation with penalty zero.
	Preview(ctx context.Context, bookingID snowflake.ID) (*Reconciliation, error)

	// Advance moves the flow one step forward. Leaving PREVIEW is gated
	// on the room-card deposit being settled.
	Advance(ctx context.Context, bookingID snowflake.ID) (*Reconciliation, error)

	// SetLateFee records the operator's penalty and notes; only legal in
	// the LATE_CHECKOUT step.
	SetLateFee(ctx context.Context, bookingID snowflake.ID, penalty decimal.Decimal, notes string) (*Reconciliation, error)

	// Back moves the flow one step backward, keeping the entered penalty
	// and notes.
	Back(ctx context.Context, bookingID snowflake.ID) (*Reconciliation, error)

	// Complete finishes the flow from CONFIRM: the booking checks out,
	// the room turns dirty, and a company-billed stay is posted to the
	// receivables ledger best effort.
	Complete(ctx context.Context, bookingID snowflake.ID, actor string) (*Reconciliation, error)

	// Abandon drops an unfinished flow with no side effects.
	Abandon(ctx context.Context, bookingID snowflake.ID) error
}
