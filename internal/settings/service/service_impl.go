package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/frontdesklabs/frontdesk/internal/settings/domain"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	hotelCacheKey = "frontdesk:settings:hotel"
	hotelCacheTTL = 5 * time.Minute
)

type Params struct {
	fx.In

	Repo   domain.Repository
	DB     *gorm.DB
	Redis  *redis.Client `optional:"true"`
	Logger *zap.Logger
}

type Service struct {
	repo  domain.Repository
	db    *gorm.DB
	cache *redis.Client
	log   *zap.Logger
}

func New(p Params) domain.Service {
	return &Service{
		repo:  p.Repo,
		db:    p.DB,
		cache: p.Redis,
		log:   p.Logger,
	}
}

func (s *Service) List(ctx context.Context) ([]domain.SystemSetting, error) {
	return s.repo.List(ctx, s.db)
}

func (s *Service) Update(ctx context.Context, key, value, updatedBy string) (*domain.SystemSetting, error) {
	setting := &domain.SystemSetting{
		Key:       key,
		Category:  categoryFor(key),
		Value:     value,
		UpdatedBy: updatedBy,
		UpdatedAt: time.Now().UTC(),
	}
	if err := s.repo.Upsert(ctx, s.db, setting); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return setting, nil
}

// Hotel assembles the typed settings view. Reads go through the redis
// cache when one is configured; a cache miss or error falls back to the
// database.
func (s *Service) Hotel(ctx context.Context) (domain.Hotel, error) {
	if s.cache != nil {
		raw, err := s.cache.Get(ctx, hotelCacheKey).Bytes()
		if err == nil {
			var cached cachedHotel
			if err := json.Unmarshal(raw, &cached); err == nil {
				return cached.toHotel(), nil
			}
		} else if err != redis.Nil {
			s.log.Warn("settings cache read failed", zap.Error(err))
		}
	}

	settings, err := s.repo.List(ctx, s.db)
	if err != nil {
		return domain.Hotel{}, err
	}

	hotel := hotelDefaults()
	for _, setting := range settings {
		applySetting(&hotel, setting)
	}

	if s.cache != nil {
		if raw, err := json.Marshal(fromHotel(hotel)); err == nil {
			if err := s.cache.Set(ctx, hotelCacheKey, raw, hotelCacheTTL).Err(); err != nil {
				s.log.Warn("settings cache write failed", zap.Error(err))
			}
		}
	}
	return hotel, nil
}

func (s *Service) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, hotelCacheKey).Err(); err != nil {
		s.log.Warn("settings cache invalidation failed", zap.Error(err))
	}
}

func hotelDefaults() domain.Hotel {
	return domain.Hotel{
		CheckInTime:  "14:00",
		CheckOutTime: "12:00",
		Currency:     "MYR",
	}
}

func applySetting(hotel *domain.Hotel, setting domain.SystemSetting) {
	switch setting.Key {
	case domain.KeyServiceTaxRate:
		if d, err := decimal.NewFromString(setting.Value); err == nil {
			hotel.ServiceTaxRate = d
		}
	case domain.KeyTourismTaxRate:
		if d, err := decimal.NewFromString(setting.Value); err == nil {
			hotel.TourismTaxRate = d
		}
	case domain.KeyRoomCardDeposit:
		if d, err := decimal.NewFromString(setting.Value); err == nil {
			hotel.RoomCardDeposit = d
		}
	case domain.KeyCheckInTime:
		hotel.CheckInTime = setting.Value
	case domain.KeyCheckOutTime:
		hotel.CheckOutTime = setting.Value
	case domain.KeyAutoCheckInEnabled:
		hotel.AutoCheckInEnabled = setting.Value == "true"
	case domain.KeyLateCheckoutEnabled:
		hotel.LateCheckoutEnabled = setting.Value == "true"
	case domain.KeyCurrency:
		hotel.Currency = setting.Value
	}
}

func categoryFor(key string) string {
	switch key {
	case domain.KeyServiceTaxRate, domain.KeyTourismTaxRate, domain.KeyRoomCardDeposit, domain.KeyCurrency:
		return "billing"
	case domain.KeyCheckInTime, domain.KeyCheckOutTime, domain.KeyAutoCheckInEnabled, domain.KeyLateCheckoutEnabled:
		return "front_office"
	default:
		return "general"
	}
}

// cachedHotel keeps the cache payload stable regardless of how
// decimal.Decimal serializes.
type cachedHotel struct {
	ServiceTaxRate      string `json:"service_tax_rate"`
	TourismTaxRate      string `json:"tourism_tax_rate"`
	RoomCardDeposit     string `json:"room_card_deposit"`
	CheckInTime         string `json:"check_in_time"`
	CheckOutTime        string `json:"check_out_time"`
	AutoCheckInEnabled  bool   `json:"auto_checkin_enabled"`
	LateCheckoutEnabled bool   `json:"late_checkout_enabled"`
	Currency            string `json:"currency"`
}

func fromHotel(h domain.Hotel) cachedHotel {
	return cachedHotel{
		ServiceTaxRate:      h.ServiceTaxRate.String(),
		TourismTaxRate:      h.TourismTaxRate.String(),
		RoomCardDeposit:     h.RoomCardDeposit.String(),
		CheckInTime:         h.CheckInTime,
		CheckOutTime:        h.CheckOutTime,
		AutoCheckInEnabled:  h.AutoCheckInEnabled,
		LateCheckoutEnabled: h.LateCheckoutEnabled,
		Currency:            h.Currency,
	}
}

func (c cachedHotel) toHotel() domain.Hotel {
	hotel := domain.Hotel{
		CheckInTime:         c.CheckInTime,
		CheckOutTime:        c.CheckOutTime,
		AutoCheckInEnabled:  c.AutoCheckInEnabled,
		LateCheckoutEnabled: c.LateCheckoutEnabled,
		Currency:            c.Currency,
	}
	if d, err := decimal.NewFromString(c.ServiceTaxRate); err == nil {
		hotel.ServiceTaxRate = d
	}
	if d, err := decimal.NewFromString(c.TourismTaxRate); err == nil {
		hotel.TourismTaxRate = d
	}
	if d, err := decimal.NewFromString(c.RoomCardDeposit); err == nil {
		hotel.RoomCardDeposit = d
	}
	return hotel
}
