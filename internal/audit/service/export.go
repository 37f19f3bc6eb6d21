package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/frontdesklabs/frontdesk/internal/audit/domain"
	"gorm.io/gorm"
)

type ExportService struct {
	db *gorm.DB
}

func NewExportService(db *gorm.DB) domain.ExportService {
	return &ExportService{db: db}
}

func (s *ExportService) Export(ctx context.Context, req domain.ExportRequest) (*domain.ExportResult, error) {
	query := s.db.WithContext(ctx).Model(&domain.Event{}).
		Where("created_at >= ? AND created_at < ?", req.StartDate, req.EndDate)

	if len(req.Actions) > 0 {
		query = query.Where("action IN ?", req.Actions)
	}

	var events []domain.Event
	if err := query.Order("created_at ASC").Find(&events).Error; err != nil {
		return nil, err
	}

	var data []byte
	var err error
	switch req.Format {
	case domain.ExportFormatCSV:
		data, err = formatCSV(events)
	case domain.ExportFormatJSON:
		data, err = json.Marshal(events)
	default:
		return nil, fmt.Errorf("unsupported export format: %s", req.Format)
	}
	if err != nil {
		return nil, err
	}

	sum := sha256.Sum256(data)
	return &domain.ExportResult{
		Data:     data,
		Checksum: hex.EncodeToString(sum[:]),
		Format:   req.Format,
		Count:    len(events),
	}, nil
}

func formatCSV(events []domain.Event) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"timestamp", "actor", "action", "entity_type", "entity_id", "payload"}
	if err := w.Write(header); err != nil {
		return nil, err
	}

	for _, event := range events {
		row := []string{
			event.CreatedAt.Format(time.RFC3339),
			event.Actor,
			event.Action,
			event.EntityType,
			event.EntityID,
			string(event.Payload),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
