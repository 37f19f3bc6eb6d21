package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/frontdesklabs/frontdesk/internal/room/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, room *domain.Room) error {
	return db.WithContext(ctx).Create(room).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Room, error) {
	var room domain.Room
	err := db.WithContext(ctx).Where("id = ?", id).First(&room).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrRoomNotFound
		}
		return nil, err
	}
	return &room, nil
}

func (r *repo) UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status string) error {
	result := db.WithContext(ctx).
		Model(&domain.Room{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": status, "updated_at": time.Now().UTC()})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrRoomNotFound
	}
	return nil
}

func (r *repo) CountByStatus(ctx context.Context, db *gorm.DB) (domain.StatusCounts, error) {
	var rows []struct {
		Status string
		N      int
	}
	err := db.WithContext(ctx).
		Model(&domain.Room{}).
		Select("status, count(*) as n").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return domain.StatusCounts{}, err
	}

	var counts domain.StatusCounts
	for _, row := range rows {
		counts.Total += row.N
		switch row.Status {
		case domain.StatusAvailable:
			counts.Available += row.N
		case domain.StatusOccupied:
			counts.Occupied += row.N
		case domain.StatusReserved:
			counts.Reserved += row.N
		case domain.StatusMaintenance:
			counts.Maintenance += row.N
		case domain.StatusDirty:
			counts.Dirty += row.N
		}
	}
	return counts, nil
}

func (r *repo) CountOccupiedOn(ctx context.Context, db *gorm.DB, date time.Time) (int, error) {
	var n int
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(DISTINCT r.id)
		 FROM rooms r
		 JOIN bookings b ON r.id = b.room_id
		 WHERE b.status = 'checked_in'
		   AND b.check_in_date <= ?
		   AND b.check_out_date > ?`,
		date, date,
	).Scan(&n).Error
	if err != nil {
		return 0, err
	}
	return n, nil
}
