package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/yourusername/quant-edge/internal/database"
	"github.com/yourusername/quant-edge/internal/models"
)

const selectArchived = `
	SELECT id, run_date::text, status, plays, manual_override, generated_at, archived_at, report
	FROM report_archive`

// PostgresReportRepository implements ReportRepository for PostgreSQL
type PostgresReportRepository struct {
	db  database.Querier
	now func() time.Time
}

// NewPostgresReportRepository creates a new report repository
func NewPostgresReportRepository(db database.Querier) *PostgresReportRepository {
	return &PostgresReportRepository{db: db, now: time.Now}
}

// Save inserts report under a new record ID. Reports are never updated in place.
func (r *PostgresReportRepository) Save(ctx context.Context, report *models.Report) (uuid.UUID, error) {
	if report == nil {
		return uuid.Nil, fmt.Errorf("report is required")
	}

	body, err := json.Marshal(report)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to encode report: %w", err)
	}

	query := `
		INSERT INTO report_archive (id, run_date, status, plays, manual_override, generated_at, report, archived_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	id := uuid.New()
	_, err = r.db.Exec(ctx, query,
		id, report.RunDate.String(), string(report.Status), len(report.Plays),
		report.ManualOverrideUsed, report.GeneratedAt, body, r.now().UTC(),
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to archive report: %w", err)
	}

	return id, nil
}

// GetByID retrieves an archived report by record ID
func (r *PostgresReportRepository) GetByID(ctx context.Context, id uuid.UUID) (*ArchivedReport, error) {
	rec, err := scanArchived(r.db.QueryRow(ctx, selectArchived+` WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get report: %w", err)
	}
	return rec, nil
}

// GetLatest retrieves the most recently generated report for runDate
func (r *PostgresReportRepository) GetLatest(ctx context.Context, runDate models.Date) (*ArchivedReport, error) {
	query := selectArchived + `
		WHERE run_date = $1
		ORDER BY generated_at DESC
		LIMIT 1`

	rec, err := scanArchived(r.db.QueryRow(ctx, query, runDate.String()))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest report: %w", err)
	}
	return rec, nil
}

// ListRecent returns up to limit archived reports, newest first
func (r *PostgresReportRepository) ListRecent(ctx context.Context, limit int) ([]*ArchivedReport, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := r.db.Query(ctx, selectArchived+`
		ORDER BY generated_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query reports: %w", err)
	}
	defer rows.Close()

	var out []*ArchivedReport
	for rows.Next() {
		rec, err := scanArchived(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		out = append(out, rec)
	}

	return out, rows.Err()
}

func scanArchived(row pgx.Row) (*ArchivedReport, error) {
	var (
		rec     ArchivedReport
		runDate string
		status  string
		body    []byte
	)
	if err := row.Scan(
		&rec.ID, &runDate, &status, &rec.Plays, &rec.ManualOverride,
		&rec.GeneratedAt, &rec.ArchivedAt, &body,
	); err != nil {
		return nil, err
	}

	d, err := models.ParseDate(runDate)
	if err != nil {
		return nil, err
	}
	rec.RunDate = d
	rec.Status = models.ReportStatus(status)

	var report models.Report
	if err := json.Unmarshal(body, &report); err != nil {
		return nil, fmt.Errorf("decode archived report: %w", err)
	}
	rec.Report = &report
	return &rec, nil
}
