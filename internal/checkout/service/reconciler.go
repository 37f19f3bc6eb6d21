package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	auditdomain "github.com/frontdesklabs/frontdesk/internal/audit/domain"
	bookingdomain "github.com/frontdesklabs/frontdesk/internal/booking/domain"
	"github.com/frontdesklabs/frontdesk/internal/checkout/domain"
	"github.com/frontdesklabs/frontdesk/internal/clock"
	companydomain "github.com/frontdesklabs/frontdesk/internal/company/domain"
	guestdomain "github.com/frontdesklabs/frontdesk/internal/guest/domain"
	"github.com/frontdesklabs/frontdesk/internal/observability"
	paymentdomain "github.com/frontdesklabs/frontdesk/internal/payment/domain"
	roomdomain "github.com/frontdesklabs/frontdesk/internal/room/domain"
	settingsdomain "github.com/frontdesklabs/frontdesk/internal/settings/domain"
	"github.com/frontdesklabs/frontdesk/internal/tariff"
)

type Params struct {
	fx.In

	Bookings   bookingdomain.Repository
	Guests     guestdomain.Repository
	Rooms      roomdomain.Repository
	Calculator *tariff.Calculator
	Settings   settingsdomain.Service
	Ledger     paymentdomain.Ledger
	Deposits   paymentdomain.DepositManager
	Poster     companydomain.LedgerPoster
	Audit      auditdomain.Recorder
	Clock      clock.Clock
	DB         *gorm.DB
	Logger     *zap.Logger
	Metrics    *observability.Metrics
}

// Impl walks one stay at a time through the checkout states. Flows live
// in memory only; the walk has no durable state until COMPLETED fires
// the external mutations.
type Impl struct {
	bookings   bookingdomain.Repository
	guests     guestdomain.Repository
	rooms      roomdomain.Repository
	calculator *tariff.Calculator
	settings   settingsdomain.Service
	ledger     paymentdomain.Ledger
	deposits   paymentdomain.DepositManager
	poster     companydomain.LedgerPoster
	audit      auditdomain.Recorder
	clock      clock.Clock
	db         *gorm.DB
	log        *zap.Logger
	metrics    *observability.Metrics

	mu    sync.Mutex
	flows map[snowflake.ID]*flow
}

// flow pairs the operator-visible reconciliation with the stay it was
// computed from, so transitions don't refetch on every step. Its mutex
// serializes two terminals working the same booking; callers only ever
// see snapshots of rec.
type flow struct {
	mu      sync.Mutex
	rec     *domain.Reconciliation
	booking *bookingdomain.Booking
	room    *roomdomain.Room
}

func (f *flow) snapshot() *domain.Reconciliation {
	out := *f.rec
	return &out
}

func New(p Params) domain.Reconciler {
	return &Impl{
		bookings:   p.Bookings,
		guests:     p.Guests,
		rooms:      p.Rooms,
		calculator: p.Calculator,
		settings:   p.Settings,
		ledger:     p.Ledger,
		deposits:   p.Deposits,
		poster:     p.Poster,
		audit:      p.Audit,
		clock:      p.Clock,
		db:         p.DB,
		log:        p.Logger,
		metrics:    p.Metrics,
		flows:      make(map[snowflake.ID]*flow),
	}
}

func (s *Impl) Preview(ctx context.Context, bookingID snowflake.ID) (*domain.Reconciliation, error) {
	booking, err := s.bookings.FindByID(ctx, s.db, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status == bookingdomain.StatusCheckedOut {
		return nil, domain.ErrFlowCompleted
	}
	if !booking.InHouse() {
		return nil, domain.ErrNotInHouse
	}

	guest, err := s.guests.FindByID(ctx, s.db, booking.GuestID)
	if err != nil {
		return nil, fmt.Errorf("checkout preview booking %s: %w", booking.BookingNumber, err)
	}
	room, err := s.rooms.FindByID(ctx, s.db, booking.RoomID)
	if err != nil {
		return nil, fmt.Errorf("checkout preview booking %s: %w", booking.BookingNumber, err)
	}
	hotel, err := s.settings.Hotel(ctx)
	if err != nil {
		return nil, fmt.Errorf("checkout preview booking %s: %w", booking.BookingNumber, err)
	}

	now := s.clock.Now(ctx)
	late, err := s.isLateCheckout(booking, hotel, now)
	if err != nil {
		return nil, fmt.Errorf("checkout preview booking %s: %w", booking.BookingNumber, err)
	}

	s.mu.Lock()
	prior := s.flows[bookingID]
	s.mu.Unlock()

	// Reopening a flow keeps an already-entered penalty and its notes.
	penalty := decimal.Zero
	notes := ""
	if prior != nil {
		prior.mu.Lock()
		if prior.rec.State != domain.StateCompleted {
			penalty = prior.rec.Penalty
			notes = prior.rec.PenaltyNotes
		}
		prior.mu.Unlock()
	}

	breakdown, err := s.calculator.Calculate(booking, room.ListPrice, hotel, decimal.Zero)
	if err != nil {
		return nil, err
	}

	settled, err := s.deposits.IsSettled(ctx, bookingID, breakdown.DepositRequired)
	if err != nil {
		return nil, fmt.Errorf("checkout preview booking %s: %w", booking.BookingNumber, err)
	}
	paid, err := s.ledger.TotalCompleted(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("checkout preview booking %s: %w", booking.BookingNumber, err)
	}

	rec := &domain.Reconciliation{
		BookingID:       bookingID,
		BookingNumber:   booking.BookingNumber,
		GuestName:       guest.FullName(),
		RoomNumber:      room.RoomNumber,
		State:           domain.StatePreview,
		Breakdown:       breakdown,
		IsLateCheckout:  late,
		Penalty:         penalty,
		PenaltyNotes:    notes,
		DepositRequired: breakdown.DepositRequired,
		DepositSettled:  settled,
		TotalPaid:       paid,
		BalanceDue:      breakdown.GrandTotal.Sub(paid),
		CompanyBilled:   booking.IsCompanyBilled(),
		StartedAt:       now,
	}

	// Snapshot before publishing the flow; rec is shared once it lands
	// in the map.
	out := *rec
	s.mu.Lock()
	s.flows[bookingID] = &flow{rec: rec, booking: booking, room: room}
	s.mu.Unlock()
	return &out, nil
}

func (s *Impl) Advance(ctx context.Context, bookingID snowflake.ID) (*domain.Reconciliation, error) {
	f, err := s.flowFor(bookingID)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	switch f.rec.State {
	case domain.StatePreview:
		if f.rec.DepositRequired.IsPositive() {
			settled, err := s.deposits.IsSettled(ctx, bookingID, f.rec.DepositRequired)
			if err != nil {
				return nil, fmt.Errorf("checkout advance booking %s: %w", f.rec.BookingNumber, err)
			}
			f.rec.DepositSettled = settled
			if !settled {
				return nil, domain.ErrDepositOutstanding
			}
		}
		if f.rec.IsLateCheckout {
			f.rec.State = domain.StateLateCheckout
		} else {
			if err := s.reprice(ctx, f); err != nil {
				return nil, err
			}
			f.rec.State = domain.StateConfirm
		}
	case domain.StateLateCheckout:
		if err := s.reprice(ctx, f); err != nil {
			return nil, err
		}
		f.rec.State = domain.StateConfirm
	case domain.StateCompleted:
		return nil, domain.ErrFlowCompleted
	default:
		// CONFIRM advances through Complete, never Advance.
		return nil, domain.ErrIllegalTransition
	}

	return f.snapshot(), nil
}

func (s *Impl) SetLateFee(ctx context.Context, bookingID snowflake.ID, penalty decimal.Decimal, notes string) (*domain.Reconciliation, error) {
	f, err := s.flowFor(bookingID)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.rec.State != domain.StateLateCheckout {
		return nil, domain.ErrIllegalTransition
	}
	if penalty.IsNegative() {
		return nil, tariff.ErrNegativePenalty
	}

	f.rec.Penalty = penalty
	f.rec.PenaltyNotes = notes
	if err := s.reprice(ctx, f); err != nil {
		return nil, err
	}
	return f.snapshot(), nil
}

func (s *Impl) Back(ctx context.Context, bookingID snowflake.ID) (*domain.Reconciliation, error) {
	f, err := s.flowFor(bookingID)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	switch f.rec.State {
	case domain.StateConfirm:
		if f.rec.IsLateCheckout {
			f.rec.State = domain.StateLateCheckout
		} else {
			f.rec.State = domain.StatePreview
		}
	case domain.StateLateCheckout:
		f.rec.State = domain.StatePreview
	case domain.StateCompleted:
		return nil, domain.ErrFlowCompleted
	default:
		return nil, domain.ErrIllegalTransition
	}

	return f.snapshot(), nil
}

func (s *Impl) Complete(ctx context.Context, bookingID snowflake.ID, actor string) (*domain.Reconciliation, error) {
	f, err := s.flowFor(bookingID)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.rec.State == domain.StateCompleted {
		return nil, domain.ErrFlowCompleted
	}
	if f.rec.State != domain.StateConfirm {
		return nil, domain.ErrIllegalTransition
	}

	if err := s.bookings.Checkout(ctx, s.db, bookingID, f.rec.Penalty, f.rec.PenaltyNotes); err != nil {
		return nil, fmt.Errorf("checkout booking %s: %w", f.rec.BookingNumber, err)
	}
	if err := s.rooms.UpdateStatus(ctx, s.db, f.booking.RoomID, roomdomain.StatusDirty); err != nil {
		return nil, fmt.Errorf("turn room %s dirty after checkout %s: %w",
			f.rec.RoomNumber, f.rec.BookingNumber, err)
	}

	// Receivable posting is back office; it never blocks room turnover.
	if f.booking.IsCompanyBilled() {
		_, err := s.poster.Post(ctx, companydomain.Posting{
			BookingID:     bookingID,
			BookingNumber: f.rec.BookingNumber,
			CompanyID:     *f.booking.CompanyID,
			GuestName:     f.rec.GuestName,
			Amount:        f.rec.Breakdown.GrandTotal,
			Description:   fmt.Sprintf("Room %s, %d nights", f.rec.RoomNumber, f.rec.Breakdown.Nights),
		})
		if err != nil {
			s.log.Warn("company ledger posting failed, checkout completed anyway",
				zap.String("booking_number", f.rec.BookingNumber),
				zap.String("company_id", f.booking.CompanyID.String()),
				zap.Error(err))
		}
	}

	f.rec.State = domain.StateCompleted
	s.metrics.CheckoutsCompleted.Inc()
	s.audit.Record(ctx, actor, auditdomain.ActionCheckoutCompleted, "booking",
		f.rec.BookingNumber, map[string]any{
			"grand_total": f.rec.Breakdown.GrandTotal,
			"penalty":     f.rec.Penalty,
			"balance_due": f.rec.BalanceDue,
		})
	s.log.Info("checkout completed",
		zap.String("booking_number", f.rec.BookingNumber),
		zap.String("room", f.rec.RoomNumber),
		zap.String("grand_total", f.rec.Breakdown.GrandTotal.String()))

	s.mu.Lock()
	delete(s.flows, bookingID)
	s.mu.Unlock()
	return f.snapshot(), nil
}

func (s *Impl) Abandon(_ context.Context, bookingID snowflake.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.flows, bookingID)
	return nil
}

func (s *Impl) flowFor(bookingID snowflake.ID) (*flow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.flows[bookingID]
	if !ok {
		return nil, fmt.Errorf("checkout booking %s: %w", bookingID, domain.ErrIllegalTransition)
	}
	return f, nil
}

// reprice recomputes the breakdown with the flow's current penalty and
// refreshes the balance against completed payments.
func (s *Impl) reprice(ctx context.Context, f *flow) error {
	hotel, err := s.settings.Hotel(ctx)
	if err != nil {
		return fmt.Errorf("reprice booking %s: %w", f.rec.BookingNumber, err)
	}
	breakdown, err := s.calculator.Calculate(f.booking, f.room.ListPrice, hotel, f.rec.Penalty)
	if err != nil {
		return err
	}
	paid, err := s.ledger.TotalCompleted(ctx, f.rec.BookingID)
	if err != nil {
		return fmt.Errorf("reprice booking %s: %w", f.rec.BookingNumber, err)
	}

	f.rec.Breakdown = breakdown
	f.rec.TotalPaid = paid
	f.rec.BalanceDue = breakdown.GrandTotal.Sub(paid)
	return nil
}

func (s *Impl) isLateCheckout(booking *bookingdomain.Booking, hotel settingsdomain.Hotel, now time.Time) (bool, error) {
	if !clock.SameDate(now, booking.CheckOutDate) {
		return false, nil
	}
	cutoff, err := hotel.CheckOutCutoff(now)
	if err != nil {
		return false, err
	}
	return now.After(cutoff), nil
}
