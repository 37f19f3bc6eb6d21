package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/frontdesklabs/frontdesk/internal/booking/domain"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, booking *domain.Booking) error {
	return db.WithContext(ctx).Create(booking).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Booking, error) {
	var booking domain.Booking
	err := db.WithContext(ctx).Where("id = ?", id).First(&booking).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrBookingNotFound
		}
		return nil, err
	}
	return &booking, nil
}

func (r *repo) UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status string) error {
	booking, err := r.FindByID(ctx, db, id)
	if err != nil {
		return err
	}
	if booking.IsPosted {
		return domain.ErrBookingPosted
	}

	return db.WithContext(ctx).
		Model(&domain.Booking{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": status, "updated_at": time.Now().UTC()}).Error
}

func (r *repo) Checkout(ctx context.Context, db *gorm.DB, id snowflake.ID, penalty decimal.Decimal, notes string) error {
	booking, err := r.FindByID(ctx, db, id)
	if err != nil {
		return err
	}
	if booking.IsPosted {
		return domain.ErrBookingPosted
	}

	updates := map[string]any{
		"status":     domain.StatusCheckedOut,
		"updated_at": time.Now().UTC(),
	}
	if penalty.IsPositive() {
		remarks := fmt.Sprintf("late checkout penalty %s", penalty.StringFixed(2))
		if notes != "" {
			remarks += ": " + notes
		}
		if booking.Remarks != "" {
			remarks = booking.Remarks + "\n" + remarks
		}
		updates["remarks"] = remarks
	}

	return db.WithContext(ctx).
		Model(&domain.Booking{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repo) MarkPosted(ctx context.Context, db *gorm.DB, ids []snowflake.ID, date time.Time) error {
	if len(ids) == 0 {
		return nil
	}

	result := db.WithContext(ctx).
		Model(&domain.Booking{}).
		Where("id IN ? AND is_posted = ?", ids, false).
		Updates(map[string]any{
			"is_posted":   true,
			"posted_date": date,
			"updated_at":  time.Now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected != int64(len(ids)) {
		// A booking slipped into posted state between select and update;
		// the surrounding transaction must roll the whole run back.
		return fmt.Errorf("mark posted: expected %d bookings, locked %d", len(ids), result.RowsAffected)
	}
	return nil
}

func (r *repo) SweepAutoCheckIn(ctx context.Context, db *gorm.DB, today time.Time) (int64, error) {
	result := db.WithContext(ctx).
		Model(&domain.Booking{}).
		Where("status = ? AND check_in_date = ? AND is_posted = ?", domain.StatusReserved, today, false).
		Updates(map[string]any{"status": domain.StatusCheckedIn, "updated_at": time.Now().UTC()})
	return result.RowsAffected, result.Error
}

func (r *repo) SweepLateCheckout(ctx context.Context, db *gorm.DB, today time.Time) (int64, error) {
	result := db.WithContext(ctx).
		Model(&domain.Booking{}).
		Where("status = ? AND check_out_date = ? AND is_posted = ?", domain.StatusCheckedIn, today, false).
		Updates(map[string]any{"status": domain.StatusLateCheckout, "updated_at": time.Now().UTC()})
	return result.RowsAffected, result.Error
}
