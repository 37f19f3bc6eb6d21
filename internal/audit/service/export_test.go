package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/frontdesklabs/frontdesk/internal/audit/domain"
	"github.com/frontdesklabs/frontdesk/internal/clock"
)

func newTestRecorder(t *testing.T) (*RecorderImpl, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Event{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	rec := NewRecorder(RecorderParams{
		Clock:  clock.Fixed{At: time.Date(2026, 3, 10, 22, 0, 0, 0, time.UTC)},
		GenID:  node,
		DB:     db,
		Logger: zap.NewNop(),
	})
	return rec.(*RecorderImpl), db
}

func TestRecordAppendsEvent(t *testing.T) {
	rec, db := newTestRecorder(t)

	rec.Record(context.Background(), "auditor", domain.ActionNightAuditRun,
		"night_audit_run", "42", map[string]any{"bookings_posted": 3})

	var events []domain.Event
	require.NoError(t, db.Find(&events).Error)
	require.Len(t, events, 1)
	require.Equal(t, domain.ActionNightAuditRun, events[0].Action)
	require.Contains(t, string(events[0].Payload), "bookings_posted")
}

func TestExportCSVWithChecksum(t *testing.T) {
	rec, db := newTestRecorder(t)
	ctx := context.Background()

	rec.Record(ctx, "desk", domain.ActionCheckoutCompleted, "booking", "BK-1", nil)
	rec.Record(ctx, "auditor", domain.ActionNightAuditRun, "night_audit_run", "7", nil)

	svc := NewExportService(db)
	result, err := svc.Export(ctx, domain.ExportRequest{
		StartDate: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		Format:    domain.ExportFormatCSV,
	})
	require.NoError(t, err)
	require.Equal(t, 2, result.Count)

	sum := sha256.Sum256(result.Data)
	require.Equal(t, hex.EncodeToString(sum[:]), result.Checksum)

	lines := strings.Split(strings.TrimSpace(string(result.Data)), "\n")
	require.Len(t, lines, 3)
	require.Contains(t, lines[0], "entity_type")
}

func TestExportFiltersByAction(t *testing.T) {
	rec, db := newTestRecorder(t)
	ctx := context.Background()

	rec.Record(ctx, "desk", domain.ActionCheckoutCompleted, "booking", "BK-1", nil)
	rec.Record(ctx, "auditor", domain.ActionNightAuditRun, "night_audit_run", "7", nil)

	svc := NewExportService(db)
	result, err := svc.Export(ctx, domain.ExportRequest{
		StartDate: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		Format:    domain.ExportFormatJSON,
		Actions:   []string{domain.ActionNightAuditRun},
	})
	require.NoError(t, err)
	require.Equal(t, 1, result.Count)
}
