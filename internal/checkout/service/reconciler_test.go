package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	auditdomain "github.com/frontdesklabs/frontdesk/internal/audit/domain"
	auditservice "github.com/frontdesklabs/frontdesk/internal/audit/service"
	bookingdomain "github.com/frontdesklabs/frontdesk/internal/booking/domain"
	bookingrepo "github.com/frontdesklabs/frontdesk/internal/booking/repository"
	"github.com/frontdesklabs/frontdesk/internal/checkout/domain"
	"github.com/frontdesklabs/frontdesk/internal/clock"
	companydomain "github.com/frontdesklabs/frontdesk/internal/company/domain"
	companyrepo "github.com/frontdesklabs/frontdesk/internal/company/repository"
	companyservice "github.com/frontdesklabs/frontdesk/internal/company/service"
	guestdomain "github.com/frontdesklabs/frontdesk/internal/guest/domain"
	guestrepo "github.com/frontdesklabs/frontdesk/internal/guest/repository"
	"github.com/frontdesklabs/frontdesk/internal/observability"
	paymentdomain "github.com/frontdesklabs/frontdesk/internal/payment/domain"
	paymentrepo "github.com/frontdesklabs/frontdesk/internal/payment/repository"
	paymentservice "github.com/frontdesklabs/frontdesk/internal/payment/service"
	roomdomain "github.com/frontdesklabs/frontdesk/internal/room/domain"
	roomrepo "github.com/frontdesklabs/frontdesk/internal/room/repository"
	settingsdomain "github.com/frontdesklabs/frontdesk/internal/settings/domain"
	settingsrepo "github.com/frontdesklabs/frontdesk/internal/settings/repository"
	settingsservice "github.com/frontdesklabs/frontdesk/internal/settings/service"
	"github.com/frontdesklabs/frontdesk/internal/tariff"
)

// fixture wires the reconciler over one in-memory database with every
// collaborator real, the way the handlers see it.
type fixture struct {
	db       *gorm.DB
	svc      domain.Reconciler
	ledger   paymentdomain.Ledger
	deposits paymentdomain.DepositManager
	company  companydomain.Service
	booking  *bookingdomain.Booking
	room     *roomdomain.Room
}

func newFixture(t *testing.T, at time.Time) *fixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&settingsdomain.SystemSetting{},
		&guestdomain.Guest{},
		&roomdomain.Room{},
		&bookingdomain.Booking{},
		&paymentdomain.Payment{},
		&companydomain.Company{},
		&companydomain.LedgerEntry{},
		&auditdomain.Event{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	fixed := clock.Fixed{At: at}
	log := zap.NewNop()
	metrics := observability.NewMetrics()
	ctx := context.Background()

	settings := settingsservice.New(settingsservice.Params{
		Repo:   settingsrepo.Provide(),
		DB:     db,
		Logger: log,
	})
	for key, value := range map[string]string{
		settingsdomain.KeyServiceTaxRate:  "6",
		settingsdomain.KeyTourismTaxRate:  "10",
		settingsdomain.KeyRoomCardDeposit: "50",
		settingsdomain.KeyCheckOutTime:    "12:00",
	} {
		_, err := settings.Update(ctx, key, value, "tester")
		require.NoError(t, err)
	}

	paymentRepo := paymentrepo.Provide()
	ledger := paymentservice.NewLedger(paymentservice.LedgerParams{
		Repo: paymentRepo, Clock: fixed, GenID: node, DB: db, Logger: log,
	})
	deposits := paymentservice.NewDepositManager(paymentservice.DepositParams{
		Repo: paymentRepo, Clock: fixed, GenID: node, DB: db, Metrics: metrics, Logger: log,
	})
	companyImpl := companyservice.New(companyservice.Params{
		Repo: companyrepo.Provide(), Clock: fixed, GenID: node, DB: db, Logger: log, Metrics: metrics,
	})
	recorder := auditservice.NewRecorder(auditservice.RecorderParams{
		Clock: fixed, GenID: node, DB: db, Logger: log,
	})

	guest := &guestdomain.Guest{
		ID: node.Generate(), FirstName: "Lim", LastName: "Wei",
		CreatedAt: at, UpdatedAt: at,
	}
	require.NoError(t, guestrepo.Provide().Insert(ctx, db, guest))

	room := &roomdomain.Room{
		ID: node.Generate(), RoomNumber: "204", RoomType: "deluxe",
		ListPrice: decimal.NewFromInt(120), Status: roomdomain.StatusOccupied,
		CreatedAt: at, UpdatedAt: at,
	}
	require.NoError(t, roomrepo.Provide().Insert(ctx, db, room))

	checkIn := clock.DateOf(at).AddDate(0, 0, -2)
	booking := &bookingdomain.Booking{
		ID:            node.Generate(),
		BookingNumber: "BK-TEST-1",
		GuestID:       guest.ID,
		RoomID:        room.ID,
		CheckInDate:   checkIn,
		CheckOutDate:  checkIn.AddDate(0, 0, 2),
		RoomRate:      decimal.NewFromInt(100),
		OccupantType:  bookingdomain.OccupantForeign,
		Membership:    bookingdomain.MembershipNonMember,
		Status:        bookingdomain.StatusCheckedIn,
		Source:        "walk_in",
		PaymentStatus: "unpaid",
		CreatedAt:     at,
		UpdatedAt:     at,
	}
	require.NoError(t, bookingrepo.Provide().Insert(ctx, db, booking))

	svc := New(Params{
		Bookings:   bookingrepo.Provide(),
		Guests:     guestrepo.Provide(),
		Rooms:      roomrepo.Provide(),
		Calculator: tariff.NewCalculator(log),
		Settings:   settings,
		Ledger:     ledger,
		Deposits:   deposits,
		Poster:     companyservice.NewLedgerPoster(companyImpl),
		Audit:      recorder,
		Clock:      fixed,
		DB:         db,
		Logger:     log,
		Metrics:    metrics,
	})

	return &fixture{
		db:       db,
		svc:      svc,
		ledger:   ledger,
		deposits: deposits,
		company:  companyservice.NewService(companyImpl),
		booking:  booking,
		room:     room,
	}
}

// 13:00 on the checkout date, past the 12:00 cutoff.
var lateAfternoon = time.Date(2026, 3, 10, 13, 0, 0, 0, time.UTC)

func (f *fixture) settleDeposit(t *testing.T) {
	t.Helper()
	_, err := f.deposits.Refund(context.Background(), f.booking.ID, "cash",
		decimal.NewFromInt(50), "desk")
	require.NoError(t, err)
}

func TestPreviewComputesBreakdownAndBalance(t *testing.T) {
	f := newFixture(t, lateAfternoon)
	ctx := context.Background()

	_, err := f.ledger.Record(ctx, paymentdomain.NewPayment{
		BookingID: f.booking.ID, Amount: decimal.NewFromInt(150), Method: "card",
	})
	require.NoError(t, err)

	rec, err := f.svc.Preview(ctx, f.booking.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatePreview, rec.State)
	require.Equal(t, "188.68", rec.Breakdown.RoomCharge.StringFixed(2))
	require.Equal(t, "11.32", rec.Breakdown.ServiceTax.StringFixed(2))
	require.Equal(t, "20.00", rec.Breakdown.TourismTax.StringFixed(2))
	require.Equal(t, "220.00", rec.Breakdown.GrandTotal.StringFixed(2))
	require.Equal(t, "70.00", rec.BalanceDue.StringFixed(2))
	require.Equal(t, "50.00", rec.DepositRequired.StringFixed(2))
	require.False(t, rec.DepositSettled)
	require.Equal(t, "Lim Wei", rec.GuestName)
	require.Equal(t, "204", rec.RoomNumber)
}

func TestLateCheckoutDetection(t *testing.T) {
	t.Run("past cutoff on checkout date", func(t *testing.T) {
		f := newFixture(t, lateAfternoon)
		rec, err := f.svc.Preview(context.Background(), f.booking.ID)
		require.NoError(t, err)
		require.True(t, rec.IsLateCheckout)
	})

	t.Run("before cutoff on checkout date", func(t *testing.T) {
		f := newFixture(t, time.Date(2026, 3, 10, 11, 0, 0, 0, time.UTC))
		rec, err := f.svc.Preview(context.Background(), f.booking.ID)
		require.NoError(t, err)
		require.False(t, rec.IsLateCheckout)
	})

	t.Run("checkout date already past", func(t *testing.T) {
		f := newFixture(t, lateAfternoon)
		require.NoError(t, f.db.Model(&bookingdomain.Booking{}).
			Where("id = ?", f.booking.ID).
			Update("check_out_date", clock.DateOf(lateAfternoon).AddDate(0, 0, -1)).Error)

		rec, err := f.svc.Preview(context.Background(), f.booking.ID)
		require.NoError(t, err)
		require.False(t, rec.IsLateCheckout)
	})
}

func TestAdvanceGatedOnDeposit(t *testing.T) {
	f := newFixture(t, time.Date(2026, 3, 10, 11, 0, 0, 0, time.UTC))
	ctx := context.Background()

	_, err := f.svc.Preview(ctx, f.booking.ID)
	require.NoError(t, err)

	_, err = f.svc.Advance(ctx, f.booking.ID)
	require.ErrorIs(t, err, domain.ErrDepositOutstanding)

	f.settleDeposit(t)
	rec, err := f.svc.Advance(ctx, f.booking.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StateConfirm, rec.State)
}

func TestPenaltyPreservedAcrossBackNavigation(t *testing.T) {
	f := newFixture(t, lateAfternoon)
	ctx := context.Background()
	f.settleDeposit(t)

	_, err := f.svc.Preview(ctx, f.booking.ID)
	require.NoError(t, err)

	rec, err := f.svc.Advance(ctx, f.booking.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StateLateCheckout, rec.State)

	rec, err = f.svc.SetLateFee(ctx, f.booking.ID, decimal.NewFromInt(70), "flight delayed")
	require.NoError(t, err)
	require.Equal(t, "290.00", rec.Breakdown.GrandTotal.StringFixed(2))

	rec, err = f.svc.Advance(ctx, f.booking.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StateConfirm, rec.State)

	rec, err = f.svc.Back(ctx, f.booking.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StateLateCheckout, rec.State)
	require.Equal(t, "70", rec.Penalty.String())
	require.Equal(t, "flight delayed", rec.PenaltyNotes)

	rec, err = f.svc.Back(ctx, f.booking.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatePreview, rec.State)
	require.Equal(t, "70", rec.Penalty.String())

	// Walking forward again still carries the penalty into the bill.
	_, err = f.svc.Advance(ctx, f.booking.ID)
	require.NoError(t, err)
	rec, err = f.svc.Advance(ctx, f.booking.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StateConfirm, rec.State)
	require.Equal(t, "290.00", rec.Breakdown.GrandTotal.StringFixed(2))
}

func TestSetLateFeeOnlyInLateStep(t *testing.T) {
	f := newFixture(t, time.Date(2026, 3, 10, 11, 0, 0, 0, time.UTC))
	ctx := context.Background()

	_, err := f.svc.Preview(ctx, f.booking.ID)
	require.NoError(t, err)

	_, err = f.svc.SetLateFee(ctx, f.booking.ID, decimal.NewFromInt(70), "")
	require.ErrorIs(t, err, domain.ErrIllegalTransition)
}

func TestConcurrentOperatorsSeeConsistentSnapshots(t *testing.T) {
	f := newFixture(t, lateAfternoon)
	ctx := context.Background()
	f.settleDeposit(t)

	_, err := f.svc.Preview(ctx, f.booking.ID)
	require.NoError(t, err)
	rec, err := f.svc.Advance(ctx, f.booking.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StateLateCheckout, rec.State)

	// Two terminals entering different penalties on the same stay. Each
	// returned reconciliation must be priced from the penalty of its own
	// call, never a half-applied mix of the two.
	const rounds = 20
	type result struct {
		penalty decimal.Decimal
		rec     *domain.Reconciliation
		err     error
	}
	results := make(chan result, 2*rounds)
	var wg sync.WaitGroup
	for _, amount := range []int64{30, 70} {
		wg.Add(1)
		go func(amount int64) {
			defer wg.Done()
			penalty := decimal.NewFromInt(amount)
			for i := 0; i < rounds; i++ {
				rec, err := f.svc.SetLateFee(ctx, f.booking.ID, penalty, "late")
				results <- result{penalty: penalty, rec: rec, err: err}
			}
		}(amount)
	}
	wg.Wait()
	close(results)

	for r := range results {
		require.NoError(t, r.err)
		require.Equal(t, domain.StateLateCheckout, r.rec.State)
		require.True(t, r.penalty.Equal(r.rec.Penalty))
		want := decimal.NewFromInt(220).Add(r.penalty)
		require.Equal(t, want.StringFixed(2), r.rec.Breakdown.GrandTotal.StringFixed(2))
	}
}

func TestCompleteChecksOutAndTurnsRoomDirty(t *testing.T) {
	f := newFixture(t, time.Date(2026, 3, 10, 11, 0, 0, 0, time.UTC))
	ctx := context.Background()
	f.settleDeposit(t)

	_, err := f.svc.Preview(ctx, f.booking.ID)
	require.NoError(t, err)
	_, err = f.svc.Advance(ctx, f.booking.ID)
	require.NoError(t, err)

	rec, err := f.svc.Complete(ctx, f.booking.ID, "desk")
	require.NoError(t, err)
	require.Equal(t, domain.StateCompleted, rec.State)

	var booking bookingdomain.Booking
	require.NoError(t, f.db.First(&booking, "id = ?", f.booking.ID).Error)
	require.Equal(t, bookingdomain.StatusCheckedOut, booking.Status)

	var room roomdomain.Room
	require.NoError(t, f.db.First(&room, "id = ?", f.room.ID).Error)
	require.Equal(t, roomdomain.StatusDirty, room.Status)

	var events []auditdomain.Event
	require.NoError(t, f.db.Find(&events).Error)
	require.Len(t, events, 1)
	require.Equal(t, auditdomain.ActionCheckoutCompleted, events[0].Action)
}

func TestCompleteIllegalOutsideConfirm(t *testing.T) {
	f := newFixture(t, time.Date(2026, 3, 10, 11, 0, 0, 0, time.UTC))
	ctx := context.Background()

	_, err := f.svc.Complete(ctx, f.booking.ID, "desk")
	require.ErrorIs(t, err, domain.ErrIllegalTransition)

	_, err = f.svc.Preview(ctx, f.booking.ID)
	require.NoError(t, err)
	_, err = f.svc.Complete(ctx, f.booking.ID, "desk")
	require.ErrorIs(t, err, domain.ErrIllegalTransition)
}

func TestCompletePostsCompanyReceivable(t *testing.T) {
	f := newFixture(t, time.Date(2026, 3, 10, 11, 0, 0, 0, time.UTC))
	ctx := context.Background()

	company, err := f.company.Create(ctx, companydomain.NewCompany{Name: "Acme Travel"})
	require.NoError(t, err)
	require.NoError(t, f.db.Model(&bookingdomain.Booking{}).
		Where("id = ?", f.booking.ID).
		Update("company_id", company.ID).Error)

	// Company billing waives the deposit, so the flow walks straight
	// through.
	_, err = f.svc.Preview(ctx, f.booking.ID)
	require.NoError(t, err)
	_, err = f.svc.Advance(ctx, f.booking.ID)
	require.NoError(t, err)
	_, err = f.svc.Complete(ctx, f.booking.ID, "desk")
	require.NoError(t, err)

	entries, err := f.company.ListEntries(ctx, companydomain.EntryFilter{CompanyID: &company.ID})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "220.00", entries[0].Amount.StringFixed(2))
	require.Equal(t, companydomain.EntryOutstanding, entries[0].Status)
}

func TestCompanyPostingFailureDoesNotBlockCheckout(t *testing.T) {
	f := newFixture(t, time.Date(2026, 3, 10, 11, 0, 0, 0, time.UTC))
	ctx := context.Background()

	// Dangling company reference makes the posting fail.
	require.NoError(t, f.db.Model(&bookingdomain.Booking{}).
		Where("id = ?", f.booking.ID).
		Update("company_id", snowflake.ID(999999)).Error)

	_, err := f.svc.Preview(ctx, f.booking.ID)
	require.NoError(t, err)
	_, err = f.svc.Advance(ctx, f.booking.ID)
	require.NoError(t, err)
	rec, err := f.svc.Complete(ctx, f.booking.ID, "desk")
	require.NoError(t, err)
	require.Equal(t, domain.StateCompleted, rec.State)

	var booking bookingdomain.Booking
	require.NoError(t, f.db.First(&booking, "id = ?", f.booking.ID).Error)
	require.Equal(t, bookingdomain.StatusCheckedOut, booking.Status)
}

func TestAbandonLeavesNoSideEffects(t *testing.T) {
	f := newFixture(t, time.Date(2026, 3, 10, 11, 0, 0, 0, time.UTC))
	ctx := context.Background()

	_, err := f.svc.Preview(ctx, f.booking.ID)
	require.NoError(t, err)
	require.NoError(t, f.svc.Abandon(ctx, f.booking.ID))

	var booking bookingdomain.Booking
	require.NoError(t, f.db.First(&booking, "id = ?", f.booking.ID).Error)
	require.Equal(t, bookingdomain.StatusCheckedIn, booking.Status)

	// The flow is gone; stepping it is illegal until a new preview.
	_, err = f.svc.Advance(ctx, f.booking.ID)
	require.ErrorIs(t, err, domain.ErrIllegalTransition)
}

func TestPreviewRejectsCheckedOutBooking(t *testing.T) {
	f := newFixture(t, time.Date(2026, 3, 10, 11, 0, 0, 0, time.UTC))
	ctx := context.Background()

	require.NoError(t, f.db.Model(&bookingdomain.Booking{}).
		Where("id = ?", f.booking.ID).
		Update("status", bookingdomain.StatusCheckedOut).Error)

	_, err := f.svc.Preview(ctx, f.booking.ID)
	require.ErrorIs(t, err, domain.ErrFlowCompleted)
}
