package repositories

import (
	"context"
	"fmt"
	"time"

	"visitdesk/internal/models"

	"github.com/google/uuid"
)

type TenantRepository interface {
	Create(ctx context.Context, tenant *models.Tenant) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
	GetByEmail(ctx context.Context, email string) (*models.Tenant, error)
	Update(ctx context.Context, tenant *models.Tenant) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	List(ctx context.Context, limit, offset int) ([]*models.Tenant, error)

	// Atomic usage operations. IncrementUsage applies the increment only when
	// the result stays within the stored limit, in a single statement, and
	// reports whether it was applied. This is the one write path for usage
	// counters under concurrent creation requests.
	IncrementUsage(ctx context.Context, id uuid.UUID, limitType string, count int) (bool, error)
	DecrementUsage(ctx context.Context, id uuid.UUID, limitType string, count int) error
	ResetMonthlyUsage(ctx context.Context, id uuid.UUID, asOf time.Time) (bool, error)
	UpdateSubscription(ctx context.Context, id uuid.UUID, sub *models.TenantSubscription, limits *models.TenantLimits) error
	ListActive(ctx context.Context) ([]*models.Tenant, error)
}

type tenantRepo struct {
	db Database
}

func NewTenantRepo(db Database) TenantRepository {
	return &tenantRepo{db: db}
}

const tenantColumns = `id, name, email, phone, address, is_active,
	plan_id, subscription_status, subscription_start, subscription_end, auto_renew,
	limit_monthly_visitors, limit_employees, limit_locations, limit_storage_mb,
	usage_month_visitors, usage_employees, usage_storage_mb, usage_last_reset,
	created_at, updated_at`

func scanTenant(row interface{ Scan(...interface{}) error }) (*models.Tenant, error) {
	t := &models.Tenant{}
	err := row.Scan(
		&t.ID, &t.Name, &t.Email, &t.Phone, &t.Address, &t.IsActive,
		&t.Subscription.PlanID, &t.Subscription.Status, &t.Subscription.StartDate,
		&t.Subscription.EndDate, &t.Subscription.AutoRenew,
		&t.Limits.MonthlyVisitors, &t.Limits.Employees, &t.Limits.Locations, &t.Limits.StorageMB,
		&t.Usage.CurrentMonthVisitors, &t.Usage.TotalEmployees, &t.Usage.StorageUsedMB, &t.Usage.LastResetDate,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (r *tenantRepo) Create(ctx context.Context, tenant *models.Tenant) error {
	query := `
		INSERT INTO tenants (id, name, email, phone, address, is_active,
			plan_id, subscription_status, subscription_start, subscription_end, auto_renew,
			limit_monthly_visitors, limit_employees, limit_locations, limit_storage_mb,
			usage_month_visitors, usage_employees, usage_storage_mb, usage_last_reset,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query,
		tenant.ID, tenant.Name, tenant.Email, tenant.Phone, tenant.Address, tenant.IsActive,
		tenant.Subscription.PlanID, tenant.Subscription.Status, tenant.Subscription.StartDate,
		tenant.Subscription.EndDate, tenant.Subscription.AutoRenew,
		tenant.Limits.MonthlyVisitors, tenant.Limits.Employees, tenant.Limits.Locations, tenant.Limits.StorageMB,
		tenant.Usage.CurrentMonthVisitors, tenant.Usage.TotalEmployees, tenant.Usage.StorageUsedMB, tenant.Usage.LastResetDate,
	)
	return err
}

func (r *tenantRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM tenants WHERE id = $1`
	return scanTenant(r.db.QueryRow(ctx, query, id))
}

func (r *tenantRepo) GetByEmail(ctx context.Context, email string) (*models.Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM tenants WHERE email = $1`
	return scanTenant(r.db.QueryRow(ctx, query, email))
}

func (r *tenantRepo) Update(ctx context.Context, tenant *models.Tenant) error {
	query := `
		UPDATE tenants
		SET name = $1, email = $2, phone = $3, address = $4, is_active = $5, updated_at = NOW()
		WHERE id = $6
	`
	_, err := r.db.Exec(ctx, query, tenant.Name, tenant.Email, tenant.Phone, tenant.Address, tenant.IsActive, tenant.ID)
	return err
}

func (r *tenantRepo) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	query := `UPDATE tenants SET is_active = $1, updated_at = NOW() WHERE id = $2`
	_, err := r.db.Exec(ctx, query, active, id)
	return err
}

func (r *tenantRepo) List(ctx context.Context, limit, offset int) ([]*models.Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM tenants ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tenants []*models.Tenant
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, err
		}
		tenants = append(tenants, t)
	}
	return tenants, rows.Err()
}

func (r *tenantRepo) ListActive(ctx context.Context) ([]*models.Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM tenants WHERE is_active = true ORDER BY created_at`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tenants []*models.Tenant
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, err
		}
		tenants = append(tenants, t)
	}
	return tenants, rows.Err()
}

// usage column pairs per limit type. Unknown types are rejected by callers
// before reaching here.
var usageColumns = map[string][2]string{
	models.LimitMonthlyVisitors: {"usage_month_visitors", "limit_monthly_visitors"},
	models.LimitEmployees:       {"usage_employees", "limit_employees"},
	models.LimitStorageMB:       {"usage_storage_mb", "limit_storage_mb"},
}

func (r *tenantRepo) IncrementUsage(ctx context.Context, id uuid.UUID, limitType string, count int) (bool, error) {
	cols, ok := usageColumns[limitType]
	if !ok {
		return false, fmt.Errorf("unknown limit type %q", limitType)
	}
	// Check and increment in one statement so concurrent creations cannot
	// push usage past the limit.
	query := fmt.Sprintf(`
		UPDATE tenants
		SET %[1]s = %[1]s + $1, updated_at = NOW()
		WHERE id = $2 AND %[1]s + $1 <= %[2]s
	`, cols[0], cols[1])
	tag, err := r.db.Exec(ctx, query, count, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *tenantRepo) DecrementUsage(ctx context.Context, id uuid.UUID, limitType string, count int) error {
	cols, ok := usageColumns[limitType]
	if !ok {
		return fmt.Errorf("unknown limit type %q", limitType)
	}
	query := fmt.Sprintf(`
		UPDATE tenants
		SET %[1]s = GREATEST(%[1]s - $1, 0), updated_at = NOW()
		WHERE id = $2
	`, cols[0])
	_, err := r.db.Exec(ctx, query, count, id)
	return err
}

func (r *tenantRepo) ResetMonthlyUsage(ctx context.Context, id uuid.UUID, asOf time.Time) (bool, error) {
	// Zero the monthly counter only when asOf has crossed a month boundary
	// relative to the stored reset date. The comparison runs server-side so
	// concurrent sweeps reset at most once.
	query := `
		UPDATE tenants
		SET usage_month_visitors = 0, usage_last_reset = $1, updated_at = NOW()
		WHERE id = $2 AND date_trunc('month', usage_last_reset) < date_trunc('month', $1::timestamptz)
	`
	tag, err := r.db.Exec(ctx, query, asOf, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *tenantRepo) UpdateSubscription(ctx context.Context, id uuid.UUID, sub *models.TenantSubscription, limits *models.TenantLimits) error {
	query := `
		UPDATE tenants
		SET plan_id = $1, subscription_status = $2, subscription_start = $3, subscription_end = $4, auto_renew = $5,
			limit_monthly_visitors = $6, limit_employees = $7, limit_locations = $8, limit_storage_mb = $9,
			updated_at = NOW()
		WHERE id = $10
	`
	_, err := r.db.Exec(ctx, query,
		sub.PlanID, sub.Status, sub.StartDate, sub.EndDate, sub.AutoRenew,
		limits.MonthlyVisitors, limits.Employees, limits.Locations, limits.StorageMB, id)
	return err
}
