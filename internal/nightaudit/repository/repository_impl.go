package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	bookingdomain "github.com/frontdesklabs/frontdesk/internal/booking/domain"
	"github.com/frontdesklabs/frontdesk/internal/nightaudit/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) InsertRun(ctx context.Context, db *gorm.DB, run *domain.Run) error {
	return db.WithContext(ctx).Create(run).Error
}

func (r *repo) FindRunByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Run, error) {
	var run domain.Run
	err := db.WithContext(ctx).Where("id = ?", id).First(&run).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrRunNotFound
		}
		return nil, err
	}
	return &run, nil
}

func (r *repo) FindRunByDate(ctx context.Context, db *gorm.DB, date time.Time) (*domain.Run, error) {
	var run domain.Run
	err := db.WithContext(ctx).Where("audit_date = ?", date).First(&run).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &run, nil
}

func (r *repo) ListRuns(ctx context.Context, db *gorm.DB, limit int) ([]domain.Run, error) {
	query := db.WithContext(ctx).Order("audit_date DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var runs []domain.Run
	if err := query.Find(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}

const unpostedFilter = `bookings.is_posted = ?
AND bookings.status NOT IN (?, ?)
AND (
  (bookings.check_in_date <= ? AND bookings.check_out_date >= ?)
  OR (bookings.status = ? AND bookings.check_out_date = ?)
  OR DATE(bookings.created_at) = DATE(?)
)`

func (r *repo) ListUnposted(ctx context.Context, db *gorm.DB, date time.Time) ([]domain.UnpostedBooking, error) {
	var rows []domain.UnpostedBooking
	err := r.joined(ctx, db).
		Where(unpostedFilter,
			false,
			bookingdomain.StatusCancelled, bookingdomain.StatusNoShow,
			date, date,
			bookingdomain.StatusCheckedOut, date,
			date).
		Order("bookings.booking_number").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repo) ListPostedOn(ctx context.Context, db *gorm.DB, date time.Time) ([]domain.UnpostedBooking, error) {
	var rows []domain.UnpostedBooking
	err := r.joined(ctx, db).
		Where("bookings.is_posted = ? AND bookings.posted_date = ?", true, date).
		Order("bookings.booking_number").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repo) joined(ctx context.Context, db *gorm.DB) *gorm.DB {
	return db.WithContext(ctx).
		Model(&bookingdomain.Booking{}).
		Select(`bookings.id, bookings.booking_number, bookings.status,
bookings.payment_method, bookings.source,
bookings.check_in_date, bookings.check_out_date,
bookings.room_rate, bookings.total_amount,
guests.first_name || CASE WHEN guests.last_name = '' THEN '' ELSE ' ' || guests.last_name END AS guest_name,
rooms.room_number`).
		Joins("LEFT JOIN guests ON guests.id = bookings.guest_id").
		Joins("LEFT JOIN rooms ON rooms.id = bookings.room_id")
}
