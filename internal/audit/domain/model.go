package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Event is one append-only audit trail record. Events are written when
// operational actions complete (night audit runs, guest checkouts) and
// are never updated or deleted.
type Event struct {
	ID         snowflake.ID   `json:"id" gorm:"primaryKey"`
	Actor      string         `json:"actor" gorm:"type:varchar(100);not null"`
	Action     string         `json:"action" gorm:"type:varchar(100);not null;index"`
	EntityType string         `json:"entity_type" gorm:"type:varchar(50);not null;index"`
	EntityID   string         `json:"entity_id" gorm:"type:varchar(40);not null"`
	Payload    datatypes.JSON `json:"payload"`
	CreatedAt  time.Time      `json:"created_at" gorm:"not null;index"`
}

func (Event) TableName() string { return "audit_events" }

// Actions recorded by the billing core.
const (
	ActionCheckoutCompleted = "checkout.completed"
	ActionNightAuditRun     = "night_audit.run"
	ActionSettingUpdated    = "setting.updated"
	ActionLedgerSettled     = "company_ledger.settled"
)

// Recorder appends events to the trail. Recording is best effort from
// the caller's point of view; a failed write is logged, never fatal.
type Recorder interface {
	Record(ctx context.Context, actor, action, entityType, entityID string, payload any)
}

// ExportFormat selects the trail export encoding.
type ExportFormat string

const (
	ExportFormatCSV  ExportFormat = "csv"
	ExportFormatJSON ExportFormat = "json"
)

type ExportRequest struct {
	StartDate time.Time
	EndDate   time.Time
	Format    ExportFormat
	Actions   []string
}

// ExportResult carries the encoded trail plus a checksum so the
// recipient can verify integrity.
type ExportResult struct {
	Data     []byte
	Checksum string
	Format   ExportFormat
	Count    int
}

type ExportService interface {
	Export(ctx context.Context, req ExportRequest) (*ExportResult, error)
}
