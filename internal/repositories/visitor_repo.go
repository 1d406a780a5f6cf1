package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"visitdesk/internal/models"

	"github.com/google/uuid"
)

type VisitorRepository interface {
	Create(ctx context.Context, visitor *models.Visitor) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Visitor, error)
	List(ctx context.Context, tenantID uuid.UUID, filter *models.VisitorSearchFilter) ([]*models.Visitor, error)
	Update(ctx context.Context, visitor *models.Visitor) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error

	// Transition methods apply the status change as a single conditional
	// update: the row moves only if its current status is a legal
	// predecessor, so exactly one of two racing conflicting requests wins.
	Approve(ctx context.Context, tenantID, id, approvedBy uuid.UUID, at time.Time) (bool, error)
	Reject(ctx context.Context, tenantID, id uuid.UUID, reason string, rejectedBy uuid.UUID) (bool, error)
	Checkout(ctx context.Context, tenantID, id uuid.UUID, at time.Time) (bool, error)
	MarkNoShow(ctx context.Context, tenantID, id uuid.UUID) (bool, error)

	FindInProgressByContact(ctx context.Context, tenantID uuid.UUID, phoneOrEmail string) ([]*models.Visitor, error)
	ListOverdueScheduled(ctx context.Context, tenantID uuid.UUID, cutoff time.Time) ([]*models.Visitor, error)
	SetBadgePrinted(ctx context.Context, tenantID, id uuid.UUID, badgeNumber string, at time.Time) error
	SetDocuments(ctx context.Context, tenantID, id uuid.UUID, docs *models.VisitorDocuments) error

	// Analytics aggregates over the visitors table. Visitors with no visit
	// log rows still count here.
	StatusCounts(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]*models.StatusCount, error)
	CountByDay(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]*models.DayCount, error)
	CountByHour(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]*models.HourCount, error)
	TopHosts(ctx context.Context, tenantID uuid.UUID, from, to time.Time, limit int) ([]*models.HostCount, error)
}

type visitorRepo struct {
	db Database
}

func NewVisitorRepo(db Database) VisitorRepository {
	return &visitorRepo{db: db}
}

const visitorColumns = `id, tenant_id, host_id, receptionist_id, name, email, phone, purpose, visitor_type,
	scheduled_at, check_in_time, check_out_time, status, rejection_reason, approved_by, approved_at,
	badge_number, badge_printed, badge_printed_at, photo_key, id_proof_key, signature_key,
	notes, metadata, created_at, updated_at`

func scanVisitor(row interface{ Scan(...interface{}) error }) (*models.Visitor, error) {
	v := &models.Visitor{}
	var metadataBytes []byte
	err := row.Scan(
		&v.ID, &v.TenantID, &v.HostID, &v.ReceptionistID, &v.Name, &v.Email, &v.Phone, &v.Purpose, &v.VisitorType,
		&v.ScheduledAt, &v.CheckInTime, &v.CheckOutTime, &v.Status, &v.RejectionReason, &v.ApprovedBy, &v.ApprovedAt,
		&v.Badge.Number, &v.Badge.Printed, &v.Badge.PrintedAt,
		&v.Documents.PhotoKey, &v.Documents.IDProofKey, &v.Documents.SignatureKey,
		&v.Notes, &metadataBytes, &v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(metadataBytes) > 0 {
		if err := json.Unmarshal(metadataBytes, &v.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}
	return v, nil
}

func (r *visitorRepo) Create(ctx context.Context, visitor *models.Visitor) error {
	visitor.CreatedAt = time.Now()
	if visitor.ID == uuid.Nil {
		visitor.ID = uuid.New()
	}

	var metadataBytes []byte
	var err error
	if visitor.Metadata != nil {
		metadataBytes, err = json.Marshal(visitor.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal metadata: %w", err)
		}
	}

	query := `
		INSERT INTO visitors (id, tenant_id, host_id, receptionist_id, name, email, phone, purpose, visitor_type,
			scheduled_at, check_in_time, check_out_time, status, rejection_reason, approved_by, approved_at,
			badge_number, badge_printed, badge_printed_at, photo_key, id_proof_key, signature_key,
			notes, metadata, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
			$17, $18, $19, $20, $21, $22, $23, $24, NOW(), NOW())
	`
	_, err = r.db.Exec(ctx, query,
		visitor.ID, visitor.TenantID, visitor.HostID, visitor.ReceptionistID, visitor.Name, visitor.Email,
		visitor.Phone, visitor.Purpose, visitor.VisitorType, visitor.ScheduledAt, visitor.CheckInTime,
		visitor.CheckOutTime, visitor.Status, visitor.RejectionReason, visitor.ApprovedBy, visitor.ApprovedAt,
		visitor.Badge.Number, visitor.Badge.Printed, visitor.Badge.PrintedAt,
		visitor.Documents.PhotoKey, visitor.Documents.IDProofKey, visitor.Documents.SignatureKey,
		visitor.Notes, metadataBytes,
	)
	return err
}

func (r *visitorRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Visitor, error) {
	query := `SELECT ` + visitorColumns + ` FROM visitors WHERE tenant_id = $1 AND id = $2`
	return scanVisitor(r.db.QueryRow(ctx, query, tenantID, id))
}

func (r *visitorRepo) List(ctx context.Context, tenantID uuid.UUID, filter *models.VisitorSearchFilter) ([]*models.Visitor, error) {
	if filter == nil {
		filter = &models.VisitorSearchFilter{}
	}

	query := `SELECT ` + visitorColumns + ` FROM visitors WHERE tenant_id = $1`
	args := []interface{}{tenantID}
	argIdx := 1

	if filter.Status != nil {
		argIdx++
		query += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, *filter.Status)
	}
	if filter.HostID != nil {
		argIdx++
		query += fmt.Sprintf(" AND host_id = $%d", argIdx)
		args = append(args, *filter.HostID)
	}
	if filter.VisitorType != nil {
		argIdx++
		query += fmt.Sprintf(" AND visitor_type = $%d", argIdx)
		args = append(args, *filter.VisitorType)
	}
	if filter.Query != "" {
		argIdx++
		query += fmt.Sprintf(" AND (name ILIKE $%d OR email ILIKE $%d OR phone ILIKE $%d)", argIdx, argIdx, argIdx)
		args = append(args, "%"+filter.Query+"%")
	}
	if filter.From != nil {
		argIdx++
		query += fmt.Sprintf(" AND created_at >= $%d", argIdx)
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		argIdx++
		query += fmt.Sprintf(" AND created_at <= $%d", argIdx)
		args = append(args, *filter.To)
	}

	query += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		argIdx++
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		argIdx++
		query += fmt.Sprintf(" OFFSET $%d", argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var visitors []*models.Visitor
	for rows.Next() {
		v, err := scanVisitor(rows)
		if err != nil {
			return nil, err
		}
		visitors = append(visitors, v)
	}
	return visitors, rows.Err()
}

// Update patches non-identity, non-status fields only. Lifecycle fields move
// through the transition methods.
func (r *visitorRepo) Update(ctx context.Context, visitor *models.Visitor) error {
	var metadataBytes []byte
	var err error
	if visitor.Metadata != nil {
		metadataBytes, err = json.Marshal(visitor.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal metadata: %w", err)
		}
	}

	query := `
		UPDATE visitors
		SET name = $1, email = $2, phone = $3, purpose = $4, visitor_type = $5,
			scheduled_at = $6, notes = $7, metadata = $8, updated_at = NOW()
		WHERE tenant_id = $9 AND id = $10
	`
	_, err = r.db.Exec(ctx, query, visitor.Name, visitor.Email, visitor.Phone, visitor.Purpose,
		visitor.VisitorType, visitor.ScheduledAt, visitor.Notes, metadataBytes, visitor.TenantID, visitor.ID)
	return err
}

func (r *visitorRepo) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	query := `DELETE FROM visitors WHERE tenant_id = $1 AND id = $2`
	_, err := r.db.Exec(ctx, query, tenantID, id)
	return err
}

func (r *visitorRepo) Approve(ctx context.Context, tenantID, id, approvedBy uuid.UUID, at time.Time) (bool, error) {
	query := `
		UPDATE visitors
		SET status = $1, check_in_time = $2, approved_by = $3, approved_at = $2, updated_at = NOW()
		WHERE tenant_id = $4 AND id = $5 AND status IN ($6, $7)
	`
	tag, err := r.db.Exec(ctx, query, models.VisitorCheckedIn, at, approvedBy, tenantID, id,
		models.VisitorPending, models.VisitorScheduled)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *visitorRepo) Reject(ctx context.Context, tenantID, id uuid.UUID, reason string, rejectedBy uuid.UUID) (bool, error) {
	query := `
		UPDATE visitors
		SET status = $1, rejection_reason = $2, approved_by = $3, updated_at = NOW()
		WHERE tenant_id = $4 AND id = $5 AND status IN ($6, $7)
	`
	tag, err := r.db.Exec(ctx, query, models.VisitorRejected, reason, rejectedBy, tenantID, id,
		models.VisitorPending, models.VisitorScheduled)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *visitorRepo) Checkout(ctx context.Context, tenantID, id uuid.UUID, at time.Time) (bool, error) {
	query := `
		UPDATE visitors
		SET status = $1, check_out_time = $2, updated_at = NOW()
		WHERE tenant_id = $3 AND id = $4 AND status IN ($5, $6)
	`
	tag, err := r.db.Exec(ctx, query, models.VisitorCheckedOut, at, tenantID, id,
		models.VisitorCheckedIn, models.VisitorApproved)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// MarkNoShow accepts the same in-progress states as Checkout in addition to
// the pre-arrival ones, so rows imported with a legacy approved status stay
// reachable from both paths.
func (r *visitorRepo) MarkNoShow(ctx context.Context, tenantID, id uuid.UUID) (bool, error) {
	query := `
		UPDATE visitors
		SET status = $1, updated_at = NOW()
		WHERE tenant_id = $2 AND id = $3 AND status IN ($4, $5, $6, $7)
	`
	tag, err := r.db.Exec(ctx, query, models.VisitorNoShow, tenantID, id,
		models.VisitorPending, models.VisitorScheduled, models.VisitorCheckedIn, models.VisitorApproved)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *visitorRepo) FindInProgressByContact(ctx context.Context, tenantID uuid.UUID, phoneOrEmail string) ([]*models.Visitor, error) {
	query := `SELECT ` + visitorColumns + `
		FROM visitors
		WHERE tenant_id = $1 AND (phone = $2 OR email = $2) AND status IN ($3, $4)
		ORDER BY check_in_time DESC NULLS LAST
	`
	rows, err := r.db.Query(ctx, query, tenantID, phoneOrEmail, models.VisitorCheckedIn, models.VisitorApproved)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var visitors []*models.Visitor
	for rows.Next() {
		v, err := scanVisitor(rows)
		if err != nil {
			return nil, err
		}
		visitors = append(visitors, v)
	}
	return visitors, rows.Err()
}

func (r *visitorRepo) ListOverdueScheduled(ctx context.Context, tenantID uuid.UUID, cutoff time.Time) ([]*models.Visitor, error) {
	query := `SELECT ` + visitorColumns + `
		FROM visitors
		WHERE tenant_id = $1 AND status = $2 AND scheduled_at < $3
		ORDER BY scheduled_at
	`
	rows, err := r.db.Query(ctx, query, tenantID, models.VisitorScheduled, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var visitors []*models.Visitor
	for rows.Next() {
		v, err := scanVisitor(rows)
		if err != nil {
			return nil, err
		}
		visitors = append(visitors, v)
	}
	return visitors, rows.Err()
}

func (r *visitorRepo) SetBadgePrinted(ctx context.Context, tenantID, id uuid.UUID, badgeNumber string, at time.Time) error {
	query := `
		UPDATE visitors
		SET badge_number = $1, badge_printed = true, badge_printed_at = $2, updated_at = NOW()
		WHERE tenant_id = $3 AND id = $4
	`
	_, err := r.db.Exec(ctx, query, badgeNumber, at, tenantID, id)
	return err
}

func (r *visitorRepo) SetDocuments(ctx context.Context, tenantID, id uuid.UUID, docs *models.VisitorDocuments) error {
	query := `
		UPDATE visitors
		SET photo_key = COALESCE($1, photo_key),
			id_proof_key = COALESCE($2, id_proof_key),
			signature_key = COALESCE($3, signature_key),
			updated_at = NOW()
		WHERE tenant_id = $4 AND id = $5
	`
	_, err := r.db.Exec(ctx, query, docs.PhotoKey, docs.IDProofKey, docs.SignatureKey, tenantID, id)
	return err
}

func (r *visitorRepo) StatusCounts(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]*models.StatusCount, error) {
	query := `
		SELECT status, COUNT(*)
		FROM visitors
		WHERE tenant_id = $1 AND created_at >= $2 AND created_at <= $3
		GROUP BY status
		ORDER BY COUNT(*) DESC
	`
	rows, err := r.db.Query(ctx, query, tenantID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []*models.StatusCount
	for rows.Next() {
		sc := &models.StatusCount{}
		if err := rows.Scan(&sc.Status, &sc.Count); err != nil {
			return nil, err
		}
		counts = append(counts, sc)
	}
	return counts, rows.Err()
}

func (r *visitorRepo) CountByDay(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]*models.DayCount, error) {
	query := `
		SELECT date_trunc('day', created_at) AS day, COUNT(*)
		FROM visitors
		WHERE tenant_id = $1 AND created_at >= $2 AND created_at <= $3
		GROUP BY day
		ORDER BY day
	`
	rows, err := r.db.Query(ctx, query, tenantID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []*models.DayCount
	for rows.Next() {
		dc := &models.DayCount{}
		if err := rows.Scan(&dc.Day, &dc.Count); err != nil {
			return nil, err
		}
		counts = append(counts, dc)
	}
	return counts, rows.Err()
}

func (r *visitorRepo) CountByHour(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]*models.HourCount, error) {
	query := `
		SELECT EXTRACT(HOUR FROM check_in_time)::int AS hour, COUNT(*)
		FROM visitors
		WHERE tenant_id = $1 AND check_in_time IS NOT NULL AND check_in_time >= $2 AND check_in_time <= $3
		GROUP BY hour
		ORDER BY hour
	`
	rows, err := r.db.Query(ctx, query, tenantID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []*models.HourCount
	for rows.Next() {
		hc := &models.HourCount{}
		if err := rows.Scan(&hc.Hour, &hc.Count); err != nil {
			return nil, err
		}
		counts = append(counts, hc)
	}
	return counts, rows.Err()
}

func (r *visitorRepo) TopHosts(ctx context.Context, tenantID uuid.UUID, from, to time.Time, limit int) ([]*models.HostCount, error) {
	query := `
		SELECT v.host_id, u.name, COUNT(*)
		FROM visitors v
		JOIN users u ON u.id = v.host_id
		WHERE v.tenant_id = $1 AND v.created_at >= $2 AND v.created_at <= $3
		GROUP BY v.host_id, u.name
		ORDER BY COUNT(*) DESC
		LIMIT $4
	`
	rows, err := r.db.Query(ctx, query, tenantID, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []*models.HostCount
	for rows.Next() {
		hc := &models.HostCount{}
		if err := rows.Scan(&hc.HostID, &hc.HostName, &hc.Count); err != nil {
			return nil, err
		}
		counts = append(counts, hc)
	}
	return counts, rows.Err()
}
