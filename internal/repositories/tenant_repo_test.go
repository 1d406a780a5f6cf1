package repositories

import (
	"context"
	"testing"
	"time"

	"visitdesk/internal/models"

	"github.com/google/uuid"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

type TenantRepoTestSuite struct {
	suite.Suite
	mock     pgxmock.PgxPoolIface
	repo     TenantRepository
	tenantID uuid.UUID
	context  context.Context
}

func (suite *TenantRepoTestSuite) SetupTest() {
	mock, err := pgxmock.NewPool()
	assert.NoError(suite.T(), err)
	suite.mock = mock

	suite.repo = NewTenantRepo(mock)
	suite.tenantID = uuid.New()
	suite.context = context.Background()
}

func (suite *TenantRepoTestSuite) TearDownTest() {
	suite.mock.Close()
}

func TestTenantRepoTestSuite(t *testing.T) {
	suite.Run(t, new(TenantRepoTestSuite))
}

func (suite *TenantRepoTestSuite) TestIncrementUsage_WithinLimit() {
	suite.mock.ExpectExec(`
		UPDATE tenants
		SET usage_month_visitors = usage_month_visitors \+ \$1, updated_at = NOW\(\)
		WHERE id = \$2 AND usage_month_visitors \+ \$1 <= limit_monthly_visitors
	`).WithArgs(1, suite.tenantID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	applied, err := suite.repo.IncrementUsage(suite.context, suite.tenantID, models.LimitMonthlyVisitors, 1)
	assert.NoError(suite.T(), err)
	assert.True(suite.T(), applied)
}

func (suite *TenantRepoTestSuite) TestIncrementUsage_AtLimit() {
	// The guard in the WHERE clause filters the row out once the counter is full.
	suite.mock.ExpectExec(`
		UPDATE tenants
		SET usage_month_visitors = usage_month_visitors \+ \$1, updated_at = NOW\(\)
		WHERE id = \$2 AND usage_month_visitors \+ \$1 <= limit_monthly_visitors
	`).WithArgs(1, suite.tenantID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	applied, err := suite.repo.IncrementUsage(suite.context, suite.tenantID, models.LimitMonthlyVisitors, 1)
	assert.NoError(suite.T(), err)
	assert.False(suite.T(), applied)
}

func (suite *TenantRepoTestSuite) TestIncrementUsage_UnknownLimitType() {
	_, err := suite.repo.IncrementUsage(suite.context, suite.tenantID, "parking_spots", 1)
	assert.Error(suite.T(), err)
	assert.Contains(suite.T(), err.Error(), "unknown limit type")
}

func (suite *TenantRepoTestSuite) TestDecrementUsage_ClampedAtZero() {
	suite.mock.ExpectExec(`
		UPDATE tenants
		SET usage_employees = GREATEST\(usage_employees - \$1, 0\), updated_at = NOW\(\)
		WHERE id = \$2
	`).WithArgs(3, suite.tenantID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := suite.repo.DecrementUsage(suite.context, suite.tenantID, models.LimitEmployees, 3)
	assert.NoError(suite.T(), err)
}

func (suite *TenantRepoTestSuite) TestResetMonthlyUsage_NewMonth() {
	asOf := time.Date(2025, 7, 1, 0, 15, 0, 0, time.UTC)

	suite.mock.ExpectExec(`
		UPDATE tenants
		SET usage_month_visitors = 0, usage_last_reset = \$1, updated_at = NOW\(\)
		WHERE id = \$2 AND date_trunc\('month', usage_last_reset\) < date_trunc\('month', \$1::timestamptz\)
	`).WithArgs(asOf, suite.tenantID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	reset, err := suite.repo.ResetMonthlyUsage(suite.context, suite.tenantID, asOf)
	assert.NoError(suite.T(), err)
	assert.True(suite.T(), reset)
}

func (suite *TenantRepoTestSuite) TestResetMonthlyUsage_AlreadyResetThisMonth() {
	asOf := time.Date(2025, 7, 1, 1, 15, 0, 0, time.UTC)

	suite.mock.ExpectExec(`
		UPDATE tenants
		SET usage_month_visitors = 0, usage_last_reset = \$1, updated_at = NOW\(\)
		WHERE id = \$2 AND date_trunc\('month', usage_last_reset\) < date_trunc\('month', \$1::timestamptz\)
	`).WithArgs(asOf, suite.tenantID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	reset, err := suite.repo.ResetMonthlyUsage(suite.context, suite.tenantID, asOf)
	assert.NoError(suite.T(), err)
	assert.False(suite.T(), reset)
}

func (suite *TenantRepoTestSuite) TestUpdateSubscription() {
	planID := uuid.New()
	start := time.Now()
	end := start.AddDate(0, 1, 0)
	sub := &models.TenantSubscription{
		PlanID:    &planID,
		Status:    models.SubscriptionActive,
		StartDate: &start,
		EndDate:   &end,
		AutoRenew: true,
	}
	limits := &models.TenantLimits{
		MonthlyVisitors: 1000,
		Employees:       50,
		Locations:       5,
		StorageMB:       4096,
	}

	suite.mock.ExpectExec(`
		UPDATE tenants
		SET plan_id = \$1, subscription_status = \$2, subscription_start = \$3, subscription_end = \$4, auto_renew = \$5,
			limit_monthly_visitors = \$6, limit_employees = \$7, limit_locations = \$8, limit_storage_mb = \$9,
			updated_at = NOW\(\)
		WHERE id = \$10
	`).WithArgs(sub.PlanID, sub.Status, sub.StartDate, sub.EndDate, sub.AutoRenew,
		limits.MonthlyVisitors, limits.Employees, limits.Locations, limits.StorageMB, suite.tenantID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := suite.repo.UpdateSubscription(suite.context, suite.tenantID, sub, limits)
	assert.NoError(suite.T(), err)
}

func (suite *TenantRepoTestSuite) TestSetActive() {
	suite.mock.ExpectExec(`
		UPDATE tenants
		SET is_active = \$1, updated_at = NOW\(\)
		WHERE id = \$2
	`).WithArgs(false, suite.tenantID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := suite.repo.SetActive(suite.context, suite.tenantID, false)
	assert.NoError(suite.T(), err)
}
