package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SystemSetting is one key/value row of hotel-wide configuration.
// Values are stored as text and parsed into the typed Hotel view.
type SystemSetting struct {
	Key       string    `json:"key" gorm:"primaryKey;type:varchar(100)"`
	Category  string    `json:"category" gorm:"type:varchar(50);not null;index"`
	Value     string    `json:"value" gorm:"type:text;not null"`
	UpdatedBy string    `json:"updated_by" gorm:"type:varchar(100)"`
	UpdatedAt time.Time `json:"updated_at" gorm:"not null"`
}

func (SystemSetting) TableName() string { return "system_settings" }

// Setting keys read by the billing core.
const (
	KeyServiceTaxRate      = "service_tax_rate"
	KeyTourismTaxRate      = "tourism_tax_rate"
	KeyRoomCardDeposit     = "room_card_deposit"
	KeyCheckInTime         = "check_in_time"
	KeyCheckOutTime        = "check_out_time"
	KeyAutoCheckInEnabled  = "auto_checkin_enabled"
	KeyLateCheckoutEnabled = "late_checkout_enabled"
	KeyCurrency            = "currency"
)

// Hotel is the typed view of the settings the tariff and checkout logic
// depend on. It is an explicit input, never ambient state.
type Hotel struct {
	ServiceTaxRate      decimal.Decimal // percent, e.g. 6
	TourismTaxRate      decimal.Decimal // per foreign-occupant night
	RoomCardDeposit     decimal.Decimal
	CheckInTime         string // "14:00"
	CheckOutTime        string // "12:00"
	AutoCheckInEnabled  bool
	LateCheckoutEnabled bool
	Currency            string
}

// CheckOutCutoff returns the checkout cutoff on the given date, in UTC.
func (h Hotel) CheckOutCutoff(date time.Time) (time.Time, error) {
	t, err := time.Parse("15:04", h.CheckOutTime)
	if err != nil {
		return time.Time{}, err
	}
	y, m, d := date.UTC().Date()
	return time.Date(y, m, d, t.Hour(), t.Minute(), 0, 0, time.UTC), nil
}

var (
	ErrSettingNotFound = errors.New("setting_not_found")
)

type Repository interface {
	List(ctx context.Context, db *gorm.DB) ([]SystemSetting, error)
	Get(ctx context.Context, db *gorm.DB, key string) (*SystemSetting, error)
	Upsert(ctx context.Context, db *gorm.DB, setting *SystemSetting) error
}

type Service interface {
	List(ctx context.Context) ([]SystemSetting, error)
	Update(ctx context.Context, key, value, updatedBy string) (*SystemSetting, error)
	Hotel(ctx context.Context) (Hotel, error)
}
