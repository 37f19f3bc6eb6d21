package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	apikeydomain "github.com/frontdesklabs/frontdesk/internal/apikey/domain"
	companydomain "github.com/frontdesklabs/frontdesk/internal/company/domain"
	guestdomain "github.com/frontdesklabs/frontdesk/internal/guest/domain"
	roomdomain "github.com/frontdesklabs/frontdesk/internal/room/domain"
	settingsdomain "github.com/frontdesklabs/frontdesk/internal/settings/domain"
)

const bootstrapKeyName = "bootstrap admin"

// defaultSettings are the rows installed on first boot. Existing rows
// are never overwritten; changing a value goes through the settings API.
func defaultSettings() []settingsdomain.SystemSetting {
	return []settingsdomain.SystemSetting{
		{Key: settingsdomain.KeyServiceTaxRate, Category: "tax", Value: "6"},
		{Key: settingsdomain.KeyTourismTaxRate, Category: "tax", Value: "10"},
		{Key: settingsdomain.KeyRoomCardDeposit, Category: "deposit", Value: "50"},
		{Key: settingsdomain.KeyCheckInTime, Category: "schedule", Value: "14:00"},
		{Key: settingsdomain.KeyCheckOutTime, Category: "schedule", Value: "12:00"},
		{Key: settingsdomain.KeyAutoCheckInEnabled, Category: "schedule", Value: "false"},
		{Key: settingsdomain.KeyLateCheckoutEnabled, Category: "schedule", Value: "true"},
		{Key: settingsdomain.KeyCurrency, Category: "general", Value: "MYR"},
	}
}

// EnsureDefaults installs settings defaults and, when the api_keys table
// is empty, a bootstrap admin key. The plaintext key is logged exactly
// once; it cannot be recovered afterwards.
func EnsureDefaults(db *gorm.DB, log *zap.Logger) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureSettings(tx); err != nil {
			return err
		}
		return ensureBootstrapKey(tx, node, log)
	})
}

func ensureSettings(tx *gorm.DB) error {
	now := time.Now().UTC()
	for _, setting := range defaultSettings() {
		var count int64
		if err := tx.Model(&settingsdomain.SystemSetting{}).
			Where("key = ?", setting.Key).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			continue
		}
		setting.UpdatedBy = "seed"
		setting.UpdatedAt = now
		if err := tx.Create(&setting).Error; err != nil {
			return err
		}
	}
	return nil
}

func ensureBootstrapKey(tx *gorm.DB, node *snowflake.Node, log *zap.Logger) error {
	var count int64
	if err := tx.Model(&apikeydomain.ApiKey{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	secret := apikeydomain.NewSecret()
	key := &apikeydomain.ApiKey{
		ID:        node.Generate(),
		Name:      bootstrapKeyName,
		KeyHash:   apikeydomain.HashAPIKey(secret),
		Role:      apikeydomain.RoleAdmin,
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	}
	if err := tx.Create(key).Error; err != nil {
		return err
	}

	log.Info("bootstrap admin api key created, store it now",
		zap.String("name", bootstrapKeyName),
		zap.String("secret", secret))
	return nil
}

// SampleRooms populates a small inventory for local development. It does
// nothing when any room already exists.
func SampleRooms(db *gorm.DB) error {
	var count int64
	if err := db.Model(&roomdomain.Room{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	rooms := []roomdomain.Room{
		{RoomNumber: "101", RoomType: "standard", ListPrice: decimal.NewFromInt(100)},
		{RoomNumber: "102", RoomType: "standard", ListPrice: decimal.NewFromInt(100)},
		{RoomNumber: "201", RoomType: "deluxe", ListPrice: decimal.NewFromInt(150)},
		{RoomNumber: "202", RoomType: "deluxe", ListPrice: decimal.NewFromInt(150)},
		{RoomNumber: "301", RoomType: "suite", ListPrice: decimal.NewFromInt(280)},
	}
	for i := range rooms {
		rooms[i].ID = node.Generate()
		rooms[i].Status = roomdomain.StatusAvailable
		rooms[i].CreatedAt = now
		rooms[i].UpdatedAt = now
	}
	return db.Create(&rooms).Error
}

// SampleGuests populates a few guest records for local development.
func SampleGuests(db *gorm.DB) error {
	var count int64
	if err := db.Model(&guestdomain.Guest{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	guests := []guestdomain.Guest{
		{FirstName: "Lim", LastName: "Wei", Nationality: "Malaysia"},
		{FirstName: "Aisha", LastName: "Rahman", Nationality: "Malaysia"},
		{FirstName: "Hana", LastName: "Sato", Nationality: "Japan"},
	}
	for i := range guests {
		guests[i].ID = node.Generate()
		guests[i].CreatedAt = now
		guests[i].UpdatedAt = now
	}
	return db.Create(&guests).Error
}

// SampleCompany creates one corporate account for local development.
func SampleCompany(db *gorm.DB) error {
	var count int64
	if err := db.Model(&companydomain.Company{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	company := &companydomain.Company{
		ID:           node.Generate(),
		Name:         "Acme Travel Sdn Bhd",
		Code:         slug.Make("Acme Travel Sdn Bhd"),
		ContactEmail: "billing@acmetravel.example",
		CreditLimit:  decimal.NewFromInt(10000),
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	return db.Create(company).Error
}
