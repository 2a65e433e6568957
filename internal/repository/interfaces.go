package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/quant-edge/internal/models"
)

// ArchivedReport is a published report together with its archive metadata.
type ArchivedReport struct {
	ID             uuid.UUID
	RunDate        models.Date
	Status         models.ReportStatus
	Plays          int
	ManualOverride bool
	GeneratedAt    time.Time
	ArchivedAt     time.Time
	Report         *models.Report
}

// ReportRepository archives every report a run publishes
type ReportRepository interface {
	Save(ctx context.Context, report *models.Report) (uuid.UUID, error)
	GetByID(ctx context.Context, id uuid.UUID) (*ArchivedReport, error)
	GetLatest(ctx context.Context, runDate models.Date) (*ArchivedReport, error)
	ListRecent(ctx context.Context, limit int) ([]*ArchivedReport, error)
}
