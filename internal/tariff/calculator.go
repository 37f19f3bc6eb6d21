package tariff

import (
	"errors"

	bookingdomain "github.com/frontdesklabs/frontdesk/internal/booking/domain"
	settingsdomain "github.com/frontdesklabs/frontdesk/internal/settings/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	ErrNonPositiveNights = errors.New("non_positive_nights")
	ErrNoUsableRate      = errors.New("no_usable_rate")
	ErrNegativePenalty   = errors.New("negative_penalty")
)

// RateSource records which input supplied the nightly rate, so degraded
// inputs are visible downstream instead of silently producing a charge.
type RateSource string

const (
	RateSourceStay        RateSource = "stay_rate"
	RateSourceListPrice   RateSource = "room_list_price"
	RateSourceTotalAmount RateSource = "total_amount"
)

// Breakdown is the computed bill for a stay. It is derived fresh on
// every computation and never persisted.
type Breakdown struct {
	Nights      int             `json:"nights"`
	NightlyRate decimal.Decimal `json:"nightly_rate"` // tax-inclusive
	RateSource  RateSource      `json:"rate_source"`

	RoomCharge      decimal.Decimal `json:"room_charge"` // tax-exclusive
	ServiceTax      decimal.Decimal `json:"service_tax"`
	TourismTax      decimal.Decimal `json:"tourism_tax"`
	ExtraBedCharge  decimal.Decimal `json:"extra_bed_charge"`
	LateCheckoutFee decimal.Decimal `json:"late_checkout_fee"`
	Subtotal        decimal.Decimal `json:"subtotal"`

	// DepositRequired is what must be settled separately at checkout; it
	// never feeds into GrandTotal.
	DepositRequired decimal.Decimal `json:"deposit_required"`
	GrandTotal      decimal.Decimal `json:"grand_total"`
}

type Calculator struct {
	log *zap.Logger
}

func NewCalculator(log *zap.Logger) *Calculator {
	return &Calculator{log: log}
}

var one = decimal.NewFromInt(1)
var hundred = decimal.NewFromInt(100)

// Calculate derives the bill for a stay from hotel settings. The stored
// nightly rate is tax-inclusive, so the tax-exclusive room charge is
// back-calculated from the room subtotal; computing it in this order
// keeps roomCharge + serviceTax equal to rate x nights after rounding.
// The penalty is supplied by the checkout flow (zero outside it).
func (c *Calculator) Calculate(stay *bookingdomain.Booking, roomListPrice decimal.Decimal, hotel settingsdomain.Hotel, penalty decimal.Decimal) (Breakdown, error) {
	nights := stay.Nights()
	if nights <= 0 {
		return Breakdown{}, ErrNonPositiveNights
	}
	if penalty.IsNegative() {
		return Breakdown{}, ErrNegativePenalty
	}

	rate, source, err := c.resolveRate(stay, roomListPrice, nights)
	if err != nil {
		return Breakdown{}, err
	}

	nightsDec := decimal.NewFromInt(int64(nights))
	roomSubtotal := rate.Mul(nightsDec).Round(2)
	divisor := one.Add(hotel.ServiceTaxRate.Div(hundred))
	roomCharge := roomSubtotal.DivRound(divisor, 2)
	serviceTax := roomSubtotal.Sub(roomCharge)

	tourismTax := decimal.Zero
	if stay.OccupantType == bookingdomain.OccupantForeign {
		if stay.TourismTax.IsPositive() {
			tourismTax = stay.TourismTax
		} else {
			tourismTax = hotel.TourismTaxRate.Mul(nightsDec)
		}
	}

	deposit := hotel.RoomCardDeposit
	if stay.Membership == bookingdomain.MembershipMember || stay.IsCompanyBilled() {
		deposit = decimal.Zero
	}

	subtotal := roomCharge.
		Add(serviceTax).
		Add(tourismTax).
		Add(stay.ExtraBedCharge).
		Add(penalty).
		Round(2)

	return Breakdown{
		Nights:          nights,
		NightlyRate:     rate,
		RateSource:      source,
		RoomCharge:      roomCharge,
		ServiceTax:      serviceTax,
		TourismTax:      tourismTax,
		ExtraBedCharge:  stay.ExtraBedCharge,
		LateCheckoutFee: penalty,
		Subtotal:        subtotal,
		DepositRequired: deposit,
		GrandTotal:      subtotal,
	}, nil
}

// resolveRate falls back from the stay's agreed rate to the room list
// price, then to total_amount spread over the nights. Fallbacks are
// degraded inputs and get logged; all three absent is an input error,
// never a silent zero bill.
func (c *Calculator) resolveRate(stay *bookingdomain.Booking, roomListPrice decimal.Decimal, nights int) (decimal.Decimal, RateSource, error) {
	if stay.RoomRate.IsPositive() {
		return stay.RoomRate, RateSourceStay, nil
	}

	if roomListPrice.IsPositive() {
		c.log.Warn("stay has no nightly rate, falling back to room list price",
			zap.String("booking_number", stay.BookingNumber),
			zap.String("list_price", roomListPrice.String()))
		return roomListPrice, RateSourceListPrice, nil
	}

	if stay.TotalAmount.IsPositive() {
		derived := stay.TotalAmount.DivRound(decimal.NewFromInt(int64(nights)), 2)
		c.log.Warn("stay has no nightly rate or list price, deriving from total amount",
			zap.String("booking_number", stay.BookingNumber),
			zap.String("derived_rate", derived.String()))
		return derived, RateSourceTotalAmount, nil
	}

	return decimal.Zero, "", ErrNoUsableRate
}
