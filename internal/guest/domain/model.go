package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Guest struct {
	ID          snowflake.ID `json:"id" gorm:"primaryKey"`
	FirstName   string       `json:"first_name" gorm:"type:varchar(100);not null"`
	LastName    string       `json:"last_name" gorm:"type:varchar(100)"`
	Email       string       `json:"email" gorm:"type:varchar(255);index"`
	Phone       string       `json:"phone" gorm:"type:varchar(50)"`
	Nationality string       `json:"nationality" gorm:"type:varchar(100)"`
	CreatedAt   time.Time    `json:"created_at" gorm:"not null"`
	UpdatedAt   time.Time    `json:"updated_at" gorm:"not null"`
}

func (Guest) TableName() string { return "guests" }

func (g Guest) FullName() string {
	if g.LastName == "" {
		return g.FirstName
	}
	return g.FirstName + " " + g.LastName
}

var ErrGuestNotFound = errors.New("guest_not_found")

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, guest *Guest) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Guest, error)
}
