package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Room struct {
	ID         snowflake.ID    `json:"id" gorm:"primaryKey"`
	RoomNumber string          `json:"room_number" gorm:"type:varchar(20);not null;uniqueIndex"`
	RoomType   string          `json:"room_type" gorm:"type:varchar(50);not null"`
	ListPrice  decimal.Decimal `json:"list_price" gorm:"type:decimal(20,4);not null"`
	Status     string          `json:"status" gorm:"type:varchar(30);not null;index"`
	CreatedAt  time.Time       `json:"created_at" gorm:"not null"`
	UpdatedAt  time.Time       `json:"updated_at" gorm:"not null"`
}

func (Room) TableName() string { return "rooms" }

const (
	StatusAvailable   = "available"
	StatusOccupied    = "occupied"
	StatusReserved    = "reserved"
	StatusMaintenance = "maintenance"
	StatusDirty       = "dirty"
)

// StatusCounts is the room-status snapshot recorded by a night audit run.
type StatusCounts struct {
	Total       int `json:"total"`
	Available   int `json:"available"`
	Occupied    int `json:"occupied"`
	Reserved    int `json:"reserved"`
	Maintenance int `json:"maintenance"`
	Dirty       int `json:"dirty"`
}

var ErrRoomNotFound = errors.New("room_not_found")

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, room *Room) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Room, error)
	UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status string) error
	CountByStatus(ctx context.Context, db *gorm.DB) (StatusCounts, error)
	// CountOccupiedOn counts distinct rooms with a checked-in booking
	// covering the date. The audit snapshot takes the max of this and the
	// raw room-status count, since housekeeping status can lag.
	CountOccupiedOn(ctx context.Context, db *gorm.DB, date time.Time) (int, error)
}
