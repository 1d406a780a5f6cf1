package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"visitdesk/internal/models"

	"github.com/google/uuid"
)

// VisitLogRepository is append-only: rows are created on lifecycle actions
// and read back for history and analytics. There is deliberately no update
// or delete method.
type VisitLogRepository interface {
	Create(ctx context.Context, log *models.VisitLog) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.VisitLog, error)
	List(ctx context.Context, tenantID uuid.UUID, filters *models.VisitLogFilters) ([]*models.VisitLog, error)
	GetByVisitor(ctx context.Context, tenantID, visitorID uuid.UUID) ([]*models.VisitLog, error)

	// AverageDuration aggregates over checked_out rows with a recorded
	// duration only.
	AverageDuration(ctx context.Context, tenantID uuid.UUID, from, to time.Time) (float64, error)
	RecentActivity(ctx context.Context, tenantID uuid.UUID, limit int) ([]*models.VisitLog, error)
}

type visitLogRepo struct {
	db Database
}

func NewVisitLogRepo(db Database) VisitLogRepository {
	return &visitLogRepo{db: db}
}

const visitLogColumns = `id, visitor_id, tenant_id, host_id, receptionist_id, action, performed_by,
	location, device, details, duration_minutes, created_at`

func scanVisitLog(row interface{ Scan(...interface{}) error }) (*models.VisitLog, error) {
	l := &models.VisitLog{}
	var detailsBytes []byte
	err := row.Scan(&l.ID, &l.VisitorID, &l.TenantID, &l.HostID, &l.ReceptionistID, &l.Action,
		&l.PerformedBy, &l.Location, &l.Device, &detailsBytes, &l.DurationMinutes, &l.CreatedAt)
	if err != nil {
		return nil, err
	}
	if len(detailsBytes) > 0 {
		if err := json.Unmarshal(detailsBytes, &l.Details); err != nil {
			return nil, fmt.Errorf("failed to unmarshal details: %w", err)
		}
	}
	return l, nil
}

func (r *visitLogRepo) Create(ctx context.Context, log *models.VisitLog) error {
	log.CreatedAt = time.Now()
	if log.ID == uuid.Nil {
		log.ID = uuid.New()
	}

	var detailsBytes []byte
	var err error
	if log.Details != nil {
		detailsBytes, err = json.Marshal(log.Details)
		if err != nil {
			return fmt.Errorf("failed to marshal details: %w", err)
		}
	}

	query := `
		INSERT INTO visit_logs (id, visitor_id, tenant_id, host_id, receptionist_id, action, performed_by,
			location, device, details, duration_minutes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err = r.db.Exec(ctx, query, log.ID, log.VisitorID, log.TenantID, log.HostID, log.ReceptionistID,
		log.Action, log.PerformedBy, log.Location, log.Device, detailsBytes, log.DurationMinutes, log.CreatedAt)
	return err
}

func (r *visitLogRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.VisitLog, error) {
	query := `SELECT ` + visitLogColumns + ` FROM visit_logs WHERE tenant_id = $1 AND id = $2`
	return scanVisitLog(r.db.QueryRow(ctx, query, tenantID, id))
}

func (r *visitLogRepo) List(ctx context.Context, tenantID uuid.UUID, filters *models.VisitLogFilters) ([]*models.VisitLog, error) {
	if filters == nil {
		filters = &models.VisitLogFilters{}
	}

	query := `SELECT ` + visitLogColumns + ` FROM visit_logs WHERE tenant_id = $1`
	args := []interface{}{tenantID}
	argIdx := 1

	if filters.VisitorID != nil {
		argIdx++
		query += fmt.Sprintf(" AND visitor_id = $%d", argIdx)
		args = append(args, *filters.VisitorID)
	}
	if filters.HostID != nil {
		argIdx++
		query += fmt.Sprintf(" AND host_id = $%d", argIdx)
		args = append(args, *filters.HostID)
	}
	if filters.Action != nil {
		argIdx++
		query += fmt.Sprintf(" AND action = $%d", argIdx)
		args = append(args, *filters.Action)
	}
	if filters.StartDate != nil {
		argIdx++
		query += fmt.Sprintf(" AND created_at >= $%d", argIdx)
		args = append(args, *filters.StartDate)
	}
	if filters.EndDate != nil {
		argIdx++
		query += fmt.Sprintf(" AND created_at <= $%d", argIdx)
		args = append(args, *filters.EndDate)
	}

	query += " ORDER BY created_at DESC"
	if filters.Limit > 0 {
		argIdx++
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, filters.Limit)
	}
	if filters.Offset > 0 {
		argIdx++
		query += fmt.Sprintf(" OFFSET $%d", argIdx)
		args = append(args, filters.Offset)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []*models.VisitLog
	for rows.Next() {
		l, err := scanVisitLog(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

func (r *visitLogRepo) GetByVisitor(ctx context.Context, tenantID, visitorID uuid.UUID) ([]*models.VisitLog, error) {
	query := `SELECT ` + visitLogColumns + ` FROM visit_logs WHERE tenant_id = $1 AND visitor_id = $2 ORDER BY created_at`
	rows, err := r.db.Query(ctx, query, tenantID, visitorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []*models.VisitLog
	for rows.Next() {
		l, err := scanVisitLog(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

func (r *visitLogRepo) AverageDuration(ctx context.Context, tenantID uuid.UUID, from, to time.Time) (float64, error) {
	var avg *float64
	query := `
		SELECT AVG(duration_minutes)
		FROM visit_logs
		WHERE tenant_id = $1 AND action = $2 AND duration_minutes IS NOT NULL
			AND created_at >= $3 AND created_at <= $4
	`
	err := r.db.QueryRow(ctx, query, tenantID, models.ActionCheckedOut, from, to).Scan(&avg)
	if err != nil {
		return 0, err
	}
	if avg == nil {
		return 0, nil
	}
	return *avg, nil
}

func (r *visitLogRepo) RecentActivity(ctx context.Context, tenantID uuid.UUID, limit int) ([]*models.VisitLog, error) {
	query := `SELECT ` + visitLogColumns + ` FROM visit_logs WHERE tenant_id = $1 ORDER BY created_at DESC LIMIT $2`
	rows, err := r.db.Query(ctx, query, tenantID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []*models.VisitLog
	for rows.Next() {
		l, err := scanVisitLog(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
