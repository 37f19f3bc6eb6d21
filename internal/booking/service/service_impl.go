package service

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/frontdesklabs/frontdesk/internal/booking/domain"
	"github.com/frontdesklabs/frontdesk/internal/clock"
	settingsdomain "github.com/frontdesklabs/frontdesk/internal/settings/domain"
	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	Repo     domain.Repository
	Settings settingsdomain.Service
	Clock    clock.Clock
	GenID    *snowflake.Node
	DB       *gorm.DB
	Logger   *zap.Logger
}

type Service struct {
	repo     domain.Repository
	settings settingsdomain.Service
	clock    clock.Clock
	genID    *snowflake.Node
	db       *gorm.DB
	log      *zap.Logger
}

func New(p Params) domain.Service {
	return &Service{
		repo:     p.Repo,
		settings: p.Settings,
		clock:    p.Clock,
		genID:    p.GenID,
		db:       p.DB,
		log:      p.Logger,
	}
}

func (s *Service) Create(ctx context.Context, booking *domain.Booking) (*domain.Booking, error) {
	booking.CheckInDate = clock.DateOf(booking.CheckInDate)
	booking.CheckOutDate = clock.DateOf(booking.CheckOutDate)
	if booking.Nights() <= 0 {
		return nil, domain.ErrInvalidStay
	}

	now := s.clock.Now(ctx)
	if booking.ID == 0 {
		booking.ID = s.genID.Generate()
	}
	if booking.BookingNumber == "" {
		booking.BookingNumber = newBookingNumber(now)
	}
	if booking.Status == "" {
		booking.Status = domain.StatusReserved
	}
	if booking.RoomRate.IsPositive() {
		booking.TotalAmount = booking.RoomRate.Mul(decimal.NewFromInt(int64(booking.Nights())))
	}
	booking.CreatedAt = now
	booking.UpdatedAt = now

	if err := s.repo.Insert(ctx, s.db, booking); err != nil {
		return nil, fmt.Errorf("create booking %s: %w", booking.BookingNumber, err)
	}
	return booking, nil
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (*domain.Booking, error) {
	return s.repo.FindByID(ctx, s.db, id)
}

func (s *Service) IsPosted(ctx context.Context, id snowflake.ID) (bool, *time.Time, error) {
	booking, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return false, nil, err
	}
	return booking.IsPosted, booking.PostedDate, nil
}

// Sweep applies the auto check-in window and the late-checkout cutoff to
// today's bookings, honoring the corresponding settings flags.
func (s *Service) Sweep(ctx context.Context) (domain.SweepResult, error) {
	hotel, err := s.settings.Hotel(ctx)
	if err != nil {
		return domain.SweepResult{}, fmt.Errorf("sweep: load settings: %w", err)
	}

	now := s.clock.Now(ctx)
	today := clock.DateOf(now)

	var result domain.SweepResult

	if hotel.AutoCheckInEnabled {
		open, err := cutoffToday(hotel.CheckInTime, today)
		if err != nil {
			return result, fmt.Errorf("sweep: parse check_in_time: %w", err)
		}
		if !now.Before(open) {
			n, err := s.repo.SweepAutoCheckIn(ctx, s.db, today)
			if err != nil {
				return result, fmt.Errorf("sweep auto check-in: %w", err)
			}
			result.CheckedIn = n
		}
	}

	if hotel.LateCheckoutEnabled {
		cutoff, err := hotel.CheckOutCutoff(today)
		if err != nil {
			return result, fmt.Errorf("sweep: parse check_out_time: %w", err)
		}
		if now.After(cutoff) {
			n, err := s.repo.SweepLateCheckout(ctx, s.db, today)
			if err != nil {
				return result, fmt.Errorf("sweep late checkout: %w", err)
			}
			result.MarkedLate = n
		}
	}

	if result.CheckedIn > 0 || result.MarkedLate > 0 {
		s.log.Info("front-office sweep applied",
			zap.Int64("checked_in", result.CheckedIn),
			zap.Int64("marked_late", result.MarkedLate))
	}
	return result, nil
}

func cutoffToday(hhmm string, today time.Time) (time.Time, error) {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return time.Time{}, err
	}
	y, m, d := today.Date()
	return time.Date(y, m, d, t.Hour(), t.Minute(), 0, 0, time.UTC), nil
}

func newBookingNumber(now time.Time) string {
	entropy := ulid.Monotonic(rand.New(rand.NewSource(now.UnixNano())), 0)
	return "BK-" + ulid.MustNew(ulid.Timestamp(now), entropy).String()
}
