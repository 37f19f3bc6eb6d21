package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	auditdomain "github.com/frontdesklabs/frontdesk/internal/audit/domain"
	bookingdomain "github.com/frontdesklabs/frontdesk/internal/booking/domain"
	"github.com/frontdesklabs/frontdesk/internal/clock"
	"github.com/frontdesklabs/frontdesk/internal/nightaudit/domain"
	"github.com/frontdesklabs/frontdesk/internal/observability"
	roomdomain "github.com/frontdesklabs/frontdesk/internal/room/domain"
)

type Params struct {
	fx.In

	Repo     domain.Repository
	Bookings bookingdomain.Repository
	Rooms    roomdomain.Repository
	Audit    auditdomain.Recorder
	Clock    clock.Clock
	GenID    *snowflake.Node
	DB       *gorm.DB
	Logger   *zap.Logger
	Metrics  *observability.Metrics
}

type Impl struct {
	repo     domain.Repository
	bookings bookingdomain.Repository
	rooms    roomdomain.Repository
	audit    auditdomain.Recorder
	clock    clock.Clock
	genID    *snowflake.Node
	db       *gorm.DB
	log      *zap.Logger
	metrics  *observability.Metrics
}

func New(p Params) domain.Service {
	return &Impl{
		repo:     p.Repo,
		bookings: p.Bookings,
		rooms:    p.Rooms,
		audit:    p.Audit,
		clock:    p.Clock,
		genID:    p.GenID,
		db:       p.DB,
		log:      p.Logger,
		metrics:  p.Metrics,
	}
}

func (s *Impl) Preview(ctx context.Context, date time.Time) (*domain.Preview, error) {
	date = clock.DateOf(date)

	unposted, err := s.repo.ListUnposted(ctx, s.db, date)
	if err != nil {
		return nil, fmt.Errorf("night audit preview %s: %w", date.Format("2006-01-02"), err)
	}
	snapshot, err := s.roomSnapshot(ctx, s.db, date)
	if err != nil {
		return nil, fmt.Errorf("night audit preview %s: %w", date.Format("2006-01-02"), err)
	}

	checkIns, checkOuts, revenue := tally(unposted, date)
	byMethod, bySource := breakdowns(unposted)

	return &domain.Preview{
		AuditDate:        date,
		Unposted:         unposted,
		RoomSnapshot:     snapshot,
		EstimatedRevenue: revenue,
		CheckIns:         checkIns,
		CheckOuts:        checkOuts,
		ByPaymentMethod:  byMethod,
		BySource:         bySource,
	}, nil
}

func (s *Impl) Run(ctx context.Context, date time.Time, notes, runBy string) (*domain.Run, error) {
	date = clock.DateOf(date)

	var run *domain.Run
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.repo.FindRunByDate(ctx, tx, date)
		if err != nil {
			return err
		}
		if existing != nil {
			return domain.ErrAlreadyRun
		}

		unposted, err := s.repo.ListUnposted(ctx, tx, date)
		if err != nil {
			return err
		}
		snapshot, err := s.roomSnapshot(ctx, tx, date)
		if err != nil {
			return err
		}

		ids := make([]snowflake.ID, len(unposted))
		for i, b := range unposted {
			ids[i] = b.ID
		}
		if err := s.bookings.MarkPosted(ctx, tx, ids, date); err != nil {
			return err
		}

		checkIns, checkOuts, revenue := tally(unposted, date)
		run = &domain.Run{
			ID:                  s.genID.Generate(),
			AuditDate:           date,
			Notes:               notes,
			RunBy:               runBy,
			TotalBookingsPosted: len(unposted),
			TotalCheckIns:       checkIns,
			TotalCheckOuts:      checkOuts,
			TotalRevenue:        revenue,
			RoomsTotal:          snapshot.Total,
			RoomsAvailable:      snapshot.Available,
			RoomsOccupied:       snapshot.Occupied,
			RoomsReserved:       snapshot.Reserved,
			RoomsMaintenance:    snapshot.Maintenance,
			RoomsDirty:          snapshot.Dirty,
			OccupancyRate:       occupancyRate(snapshot),
			CreatedAt:           s.clock.Now(ctx),
		}
		return s.repo.InsertRun(ctx, tx, run)
	})
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyRun) {
			s.metrics.NightAuditRuns.WithLabelValues("conflict").Inc()
			return nil, domain.ErrAlreadyRun
		}
		s.metrics.NightAuditRuns.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("night audit run %s: %w", date.Format("2006-01-02"), err)
	}

	s.metrics.NightAuditRuns.WithLabelValues("success").Inc()
	s.audit.Record(ctx, runBy, auditdomain.ActionNightAuditRun, "night_audit_run",
		run.ID.String(), map[string]any{
			"audit_date":      date.Format("2006-01-02"),
			"bookings_posted": run.TotalBookingsPosted,
			"total_revenue":   run.TotalRevenue,
		})
	s.log.Info("night audit run committed",
		zap.String("audit_date", date.Format("2006-01-02")),
		zap.Int("bookings_posted", run.TotalBookingsPosted),
		zap.String("total_revenue", run.TotalRevenue.String()))
	return run, nil
}

func (s *Impl) List(ctx context.Context, limit int) ([]domain.Run, error) {
	return s.repo.ListRuns(ctx, s.db, limit)
}

func (s *Impl) Get(ctx context.Context, id snowflake.ID) (*domain.Run, error) {
	return s.repo.FindRunByID(ctx, s.db, id)
}

func (s *Impl) Details(ctx context.Context, id snowflake.ID) (*domain.Details, error) {
	run, err := s.repo.FindRunByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}

	posted, err := s.repo.ListPostedOn(ctx, s.db, run.AuditDate)
	if err != nil {
		return nil, fmt.Errorf("night audit details %s: %w", run.ID, err)
	}

	byMethod, bySource := breakdowns(posted)
	return &domain.Details{
		Run:             *run,
		PostedBookings:  posted,
		ByPaymentMethod: byMethod,
		BySource:        bySource,
	}, nil
}

// roomSnapshot takes the raw status counts and reconciles occupancy
// against the bookings actually in house, since housekeeping status can
// lag behind the front desk.
func (s *Impl) roomSnapshot(ctx context.Context, db *gorm.DB, date time.Time) (roomdomain.StatusCounts, error) {
	snapshot, err := s.rooms.CountByStatus(ctx, db)
	if err != nil {
		return roomdomain.StatusCounts{}, err
	}
	inHouse, err := s.rooms.CountOccupiedOn(ctx, db, date)
	if err != nil {
		return roomdomain.StatusCounts{}, err
	}
	if inHouse > snapshot.Occupied {
		snapshot.Occupied = inHouse
	}
	return snapshot, nil
}

func tally(rows []domain.UnpostedBooking, date time.Time) (checkIns, checkOuts int, revenue decimal.Decimal) {
	revenue = decimal.Zero
	for _, b := range rows {
		if clock.SameDate(b.CheckInDate, date) {
			checkIns++
		}
		if clock.SameDate(b.CheckOutDate, date) && b.Status == bookingdomain.StatusCheckedOut {
			checkOuts++
		}
		revenue = revenue.Add(b.Revenue())
	}
	return checkIns, checkOuts, revenue
}

// breakdowns buckets revenue by payment method and booking source.
// Only occupying stays are bucketed; locked reserved rows stay out.
func breakdowns(rows []domain.UnpostedBooking) (byMethod, bySource []domain.BreakdownItem) {
	methods := make(map[string]*domain.BreakdownItem)
	sources := make(map[string]*domain.BreakdownItem)

	bucket := func(m map[string]*domain.BreakdownItem, category string, amount decimal.Decimal) {
		if category == "" {
			category = "unspecified"
		}
		item, ok := m[category]
		if !ok {
			item = &domain.BreakdownItem{Category: category, Amount: decimal.Zero}
			m[category] = item
		}
		item.Count++
		item.Amount = item.Amount.Add(amount)
	}

	for _, b := range rows {
		if !b.Occupied() {
			continue
		}
		revenue := b.Revenue()
		bucket(methods, b.PaymentMethod, revenue)
		bucket(sources, b.Source, revenue)
	}

	return sorted(methods), sorted(sources)
}

func sorted(m map[string]*domain.BreakdownItem) []domain.BreakdownItem {
	items := make([]domain.BreakdownItem, 0, len(m))
	for _, item := range m {
		items = append(items, *item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Category < items[j].Category })
	return items
}

func occupancyRate(snapshot roomdomain.StatusCounts) decimal.Decimal {
	if snapshot.Total == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(snapshot.Occupied)).
		Mul(decimal.NewFromInt(100)).
		DivRound(decimal.NewFromInt(int64(snapshot.Total)), 2)
}
