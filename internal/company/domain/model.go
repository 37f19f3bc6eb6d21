package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Company is a corporate account whose stays are billed to a
// receivables ledger instead of being settled at the desk.
type Company struct {
	ID           snowflake.ID    `json:"id" gorm:"primaryKey"`
	Name         string          `json:"name" gorm:"type:varchar(255);not null"`
	Code         string          `json:"code" gorm:"type:varchar(100);not null;uniqueIndex"`
	ContactEmail string          `json:"contact_email" gorm:"type:varchar(255)"`
	Phone        string          `json:"phone" gorm:"type:varchar(50)"`
	Address      string          `json:"address" gorm:"type:text"`
	CreditLimit  decimal.Decimal `json:"credit_limit" gorm:"type:decimal(20,4)"`
	IsActive     bool            `json:"is_active" gorm:"not null;default:true"`
	CreatedAt    time.Time       `json:"created_at" gorm:"not null"`
	UpdatedAt    time.Time       `json:"updated_at" gorm:"not null"`
}

func (Company) TableName() string { return "companies" }

// LedgerEntry is one receivable posted against a company, one per
// company-billed stay.
type LedgerEntry struct {
	ID            snowflake.ID    `json:"id" gorm:"primaryKey"`
	CompanyID     snowflake.ID    `json:"company_id" gorm:"not null;index"`
	BookingID     snowflake.ID    `json:"booking_id" gorm:"not null;uniqueIndex"`
	BookingNumber string          `json:"booking_number" gorm:"type:varchar(40);not null"`
	GuestName     string          `json:"guest_name" gorm:"type:varchar(255)"`
	Description   string          `json:"description" gorm:"type:text"`
	Amount        decimal.Decimal `json:"amount" gorm:"type:decimal(20,4);not null"`
	Status        string          `json:"status" gorm:"type:varchar(20);not null;index"`
	PostedAt      time.Time       `json:"posted_at" gorm:"not null"`
	SettledAt     *time.Time      `json:"settled_at"`
	SettledBy     string          `json:"settled_by" gorm:"type:varchar(100)"`
	CreatedAt     time.Time       `json:"created_at" gorm:"not null"`
}

func (LedgerEntry) TableName() string { return "company_ledger_entries" }

const (
	EntryOutstanding = "outstanding"
	EntrySettled     = "settled"
)

var (
	ErrCompanyNotFound  = errors.New("company_not_found")
	ErrCompanyInactive  = errors.New("company_inactive")
	ErrEntryNotFound    = errors.New("ledger_entry_not_found")
	ErrEntrySettled     = errors.New("ledger_entry_settled")
	ErrNotCompanyBilled = errors.New("booking_not_company_billed")
)

// EntryFilter narrows ledger listings.
type EntryFilter struct {
	CompanyID *snowflake.ID
	Status    string
}

type Repository interface {
	InsertCompany(ctx context.Context, db *gorm.DB, company *Company) error
	FindCompanyByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Company, error)
	ListCompanies(ctx context.Context, db *gorm.DB) ([]Company, error)

	InsertEntry(ctx context.Context, db *gorm.DB, entry *LedgerEntry) error
	FindEntryByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*LedgerEntry, error)
	// FindEntryByBooking returns nil, nil when the stay has no entry yet.
	FindEntryByBooking(ctx context.Context, db *gorm.DB, bookingID snowflake.ID) (*LedgerEntry, error)
	ListEntries(ctx context.Context, db *gorm.DB, filter EntryFilter) ([]LedgerEntry, error)
	SettleEntry(ctx context.Context, db *gorm.DB, id snowflake.ID, settledBy string, at time.Time) error

	// SumOutstanding totals outstanding receivables for a company.
	SumOutstanding(ctx context.Context, db *gorm.DB, companyID snowflake.ID) (decimal.Decimal, error)
}

type NewCompany struct {
	Name         string          `json:"name"`
	ContactEmail string          `json:"contact_email"`
	Phone        string          `json:"phone"`
	Address      string          `json:"address"`
	CreditLimit  decimal.Decimal `json:"credit_limit"`
}

type Service interface {
	Create(ctx context.Context, input NewCompany) (*Company, error)
	Get(ctx context.Context, id snowflake.ID) (*Company, error)
	List(ctx context.Context) ([]Company, error)
	ListEntries(ctx context.Context, filter EntryFilter) ([]LedgerEntry, error)
	Settle(ctx context.Context, entryID snowflake.ID, settledBy string) (*LedgerEntry, error)
	Outstanding(ctx context.Context, companyID snowflake.ID) (decimal.Decimal, error)
}

// Posting describes the receivable a checkout wants on the ledger.
type Posting struct {
	BookingID     snowflake.ID
	BookingNumber string
	CompanyID     snowflake.ID
	GuestName     string
	Amount        decimal.Decimal
	Description   string
}

// LedgerPoster puts a completed company-billed stay onto the ledger.
// Posting the same stay twice returns the existing entry.
type LedgerPoster interface {
	Post(ctx context.Context, posting Posting) (*LedgerEntry, error)
}
