package domain

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
)

// ApiKey authenticates a front-desk terminal or integration. Only the
// hash is stored; the plaintext key is shown once at creation.
type ApiKey struct {
	ID         snowflake.ID `json:"id" gorm:"primaryKey"`
	Name       string       `json:"name" gorm:"type:varchar(100);not null"`
	KeyHash    string       `json:"-" gorm:"type:varchar(64);not null;uniqueIndex"`
	Role       string       `json:"role" gorm:"type:varchar(50);not null"`
	IsActive   bool         `json:"is_active" gorm:"not null;default:true"`
	ExpiresAt  *time.Time   `json:"expires_at"`
	LastUsedAt *time.Time   `json:"last_used_at"`
	CreatedAt  time.Time    `json:"created_at" gorm:"not null"`
}

func (ApiKey) TableName() string { return "api_keys" }

// Roles assignable to keys; permissions per role live with the
// authorization enforcer.
const (
	RoleAdmin     = "admin"
	RoleManager   = "manager"
	RoleAuditor   = "auditor"
	RoleFrontDesk = "front_desk"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrKeyNotFound  = errors.New("api_key_not_found")
)

func HashAPIKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// NewSecret mints a plaintext key. The fd_ prefix makes keys easy to
// spot in config files and support tickets.
func NewSecret() string {
	return "fd_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Created carries the one-time plaintext key back to the caller.
type Created struct {
	Key    *ApiKey `json:"key"`
	Secret string  `json:"secret"`
}

type Service interface {
	Create(ctx context.Context, name, role string, expiresAt *time.Time) (*Created, error)

	// Authenticate resolves a presented plaintext key to its active,
	// unexpired record, returning ErrUnauthorized otherwise.
	Authenticate(ctx context.Context, secret string) (*ApiKey, error)

	List(ctx context.Context) ([]ApiKey, error)
	Revoke(ctx context.Context, id snowflake.ID) error
}
