package service

import (
	"context"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/frontdesklabs/frontdesk/internal/clock"
	"github.com/frontdesklabs/frontdesk/internal/company/domain"
	"github.com/frontdesklabs/frontdesk/internal/observability"
	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	Repo    domain.Repository
	Clock   clock.Clock
	GenID   *snowflake.Node
	DB      *gorm.DB
	Logger  *zap.Logger
	Metrics *observability.Metrics
}

type Impl struct {
	repo    domain.Repository
	clock   clock.Clock
	genID   *snowflake.Node
	db      *gorm.DB
	log     *zap.Logger
	metrics *observability.Metrics
}

func New(p Params) *Impl {
	return &Impl{
		repo:    p.Repo,
		clock:   p.Clock,
		genID:   p.GenID,
		db:      p.DB,
		log:     p.Logger,
		metrics: p.Metrics,
	}
}

func NewService(impl *Impl) domain.Service { return impl }

func NewLedgerPoster(impl *Impl) domain.LedgerPoster { return impl }

func (s *Impl) Create(ctx context.Context, input domain.NewCompany) (*domain.Company, error) {
	now := s.clock.Now(ctx)
	company := &domain.Company{
		ID:           s.genID.Generate(),
		Name:         input.Name,
		Code:         slug.Make(input.Name),
		ContactEmail: input.ContactEmail,
		Phone:        input.Phone,
		Address:      input.Address,
		CreditLimit:  input.CreditLimit,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.InsertCompany(ctx, s.db, company); err != nil {
		return nil, fmt.Errorf("create company %q: %w", input.Name, err)
	}

	s.log.Info("company created",
		zap.String("company_id", company.ID.String()),
		zap.String("code", company.Code))
	return company, nil
}

func (s *Impl) Get(ctx context.Context, id snowflake.ID) (*domain.Company, error) {
	return s.repo.FindCompanyByID(ctx, s.db, id)
}

func (s *Impl) List(ctx context.Context) ([]domain.Company, error) {
	return s.repo.ListCompanies(ctx, s.db)
}

func (s *Impl) ListEntries(ctx context.Context, filter domain.EntryFilter) ([]domain.LedgerEntry, error) {
	return s.repo.ListEntries(ctx, s.db, filter)
}

func (s *Impl) Settle(ctx context.Context, entryID snowflake.ID, settledBy string) (*domain.LedgerEntry, error) {
	if err := s.repo.SettleEntry(ctx, s.db, entryID, settledBy, s.clock.Now(ctx)); err != nil {
		return nil, err
	}

	entry, err := s.repo.FindEntryByID(ctx, s.db, entryID)
	if err != nil {
		return nil, err
	}
	s.log.Info("company ledger entry settled",
		zap.String("entry_id", entry.ID.String()),
		zap.String("company_id", entry.CompanyID.String()),
		zap.String("settled_by", settledBy))
	return entry, nil
}

func (s *Impl) Outstanding(ctx context.Context, companyID snowflake.ID) (decimal.Decimal, error) {
	if _, err := s.repo.FindCompanyByID(ctx, s.db, companyID); err != nil {
		return decimal.Zero, err
	}
	return s.repo.SumOutstanding(ctx, s.db, companyID)
}

// Post puts the receivable for a completed company-billed stay onto the
// ledger. Reposting the same stay returns the existing entry unchanged,
// so a retried checkout never double-bills the company.
func (s *Impl) Post(ctx context.Context, posting domain.Posting) (*domain.LedgerEntry, error) {
	if posting.CompanyID == 0 {
		return nil, domain.ErrNotCompanyBilled
	}

	company, err := s.repo.FindCompanyByID(ctx, s.db, posting.CompanyID)
	if err != nil {
		return nil, err
	}
	if !company.IsActive {
		return nil, domain.ErrCompanyInactive
	}

	existing, err := s.repo.FindEntryByBooking(ctx, s.db, posting.BookingID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	now := s.clock.Now(ctx)
	entry := &domain.LedgerEntry{
		ID:            s.genID.Generate(),
		CompanyID:     posting.CompanyID,
		BookingID:     posting.BookingID,
		BookingNumber: posting.BookingNumber,
		GuestName:     posting.GuestName,
		Description:   posting.Description,
		Amount:        posting.Amount,
		Status:        domain.EntryOutstanding,
		PostedAt:      now,
		CreatedAt:     now,
	}
	if err := s.repo.InsertEntry(ctx, s.db, entry); err != nil {
		return nil, fmt.Errorf("post receivable for booking %s: %w", posting.BookingNumber, err)
	}

	s.metrics.CompanyLedgerPostings.Inc()
	s.log.Info("receivable posted to company ledger",
		zap.String("company_id", posting.CompanyID.String()),
		zap.String("booking_number", posting.BookingNumber),
		zap.String("amount", posting.Amount.String()))
	return entry, nil
}
