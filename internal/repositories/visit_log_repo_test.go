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

type VisitLogRepoTestSuite struct {
	suite.Suite
	mock      pgxmock.PgxPoolIface
	repo      VisitLogRepository
	tenantID  uuid.UUID
	visitorID uuid.UUID
	hostID    uuid.UUID
	context   context.Context
}

func (suite *VisitLogRepoTestSuite) SetupTest() {
	mock, err := pgxmock.NewPool()
	assert.NoError(suite.T(), err)
	suite.mock = mock

	suite.repo = NewVisitLogRepo(mock)
	suite.tenantID = uuid.New()
	suite.visitorID = uuid.New()
	suite.hostID = uuid.New()
	suite.context = context.Background()
}

func (suite *VisitLogRepoTestSuite) TearDownTest() {
	suite.mock.Close()
}

func TestVisitLogRepoTestSuite(t *testing.T) {
	suite.Run(t, new(VisitLogRepoTestSuite))
}

var visitLogRowColumns = []string{
	"id", "visitor_id", "tenant_id", "host_id", "receptionist_id", "action", "performed_by",
	"location", "device", "details", "duration_minutes", "created_at",
}

func (suite *VisitLogRepoTestSuite) TestCreate_WithDetails() {
	entry := &models.VisitLog{
		VisitorID: suite.visitorID,
		TenantID:  suite.tenantID,
		HostID:    suite.hostID,
		Action:    models.ActionRejected,
		Details:   models.JSONB{"reason": "No appointment"},
	}

	suite.mock.ExpectExec(`
		INSERT INTO visit_logs \(id, visitor_id, tenant_id, host_id, receptionist_id, action, performed_by,
			location, device, details, duration_minutes, created_at\)
		VALUES \(\$1, \$2, \$3, \$4, \$5, \$6, \$7, \$8, \$9, \$10, \$11, \$12\)
	`).WithArgs(pgxmock.AnyArg(), entry.VisitorID, entry.TenantID, entry.HostID, entry.ReceptionistID,
		entry.Action, entry.PerformedBy, entry.Location, entry.Device,
		[]byte(`{"reason":"No appointment"}`), entry.DurationMinutes, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := suite.repo.Create(suite.context, entry)
	assert.NoError(suite.T(), err)
	assert.NotEqual(suite.T(), uuid.Nil, entry.ID)
}

func (suite *VisitLogRepoTestSuite) TestGetByVisitor() {
	now := time.Now()
	duration := 47
	rows := pgxmock.NewRows(visitLogRowColumns).
		AddRow(uuid.New(), suite.visitorID, suite.tenantID, suite.hostID, nil, models.ActionCreated,
			nil, nil, nil, []byte(nil), nil, now.Add(-time.Hour)).
		AddRow(uuid.New(), suite.visitorID, suite.tenantID, suite.hostID, nil, models.ActionCheckedOut,
			nil, nil, nil, []byte(nil), &duration, now)

	suite.mock.ExpectQuery(`SELECT .+ FROM visit_logs WHERE tenant_id = \$1 AND visitor_id = \$2 ORDER BY created_at`).
		WithArgs(suite.tenantID, suite.visitorID).
		WillReturnRows(rows)

	result, err := suite.repo.GetByVisitor(suite.context, suite.tenantID, suite.visitorID)
	assert.NoError(suite.T(), err)
	assert.Len(suite.T(), result, 2)
	assert.Equal(suite.T(), models.ActionCreated, result[0].Action)
	assert.Equal(suite.T(), models.ActionCheckedOut, result[1].Action)
	assert.Equal(suite.T(), 47, *result[1].DurationMinutes)
}

func (suite *VisitLogRepoTestSuite) TestList_FilteredByAction() {
	action := models.ActionCheckedIn
	filters := &models.VisitLogFilters{Action: &action, Limit: 20}

	rows := pgxmock.NewRows(visitLogRowColumns).
		AddRow(uuid.New(), suite.visitorID, suite.tenantID, suite.hostID, nil, models.ActionCheckedIn,
			nil, nil, nil, []byte(nil), nil, time.Now())

	suite.mock.ExpectQuery(`SELECT .+ FROM visit_logs WHERE tenant_id = \$1 AND action = \$2 ORDER BY created_at DESC LIMIT \$3`).
		WithArgs(suite.tenantID, action, 20).
		WillReturnRows(rows)

	result, err := suite.repo.List(suite.context, suite.tenantID, filters)
	assert.NoError(suite.T(), err)
	assert.Len(suite.T(), result, 1)
	assert.Equal(suite.T(), models.ActionCheckedIn, result[0].Action)
}

func (suite *VisitLogRepoTestSuite) TestAverageDuration() {
	from := time.Now().AddDate(0, -1, 0)
	to := time.Now()

	suite.mock.ExpectQuery(`
		SELECT AVG\(duration_minutes\)
		FROM visit_logs
		WHERE tenant_id = \$1 AND action = \$2 AND duration_minutes IS NOT NULL
			AND created_at >= \$3 AND created_at <= \$4
	`).WithArgs(suite.tenantID, models.ActionCheckedOut, from, to).
		WillReturnRows(pgxmock.NewRows([]string{"avg"}).AddRow(floatPtr(42.5)))

	avg, err := suite.repo.AverageDuration(suite.context, suite.tenantID, from, to)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), 42.5, avg)
}

func (suite *VisitLogRepoTestSuite) TestAverageDuration_NoCompletedVisits() {
	from := time.Now().AddDate(0, -1, 0)
	to := time.Now()

	suite.mock.ExpectQuery(`SELECT AVG\(duration_minutes\) FROM visit_logs`).
		WithArgs(suite.tenantID, models.ActionCheckedOut, from, to).
		WillReturnRows(pgxmock.NewRows([]string{"avg"}).AddRow((*float64)(nil)))

	avg, err := suite.repo.AverageDuration(suite.context, suite.tenantID, from, to)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), 0.0, avg)
}

func (suite *VisitLogRepoTestSuite) TestRecentActivity() {
	rows := pgxmock.NewRows(visitLogRowColumns).
		AddRow(uuid.New(), suite.visitorID, suite.tenantID, suite.hostID, nil, models.ActionCheckedIn,
			nil, nil, nil, []byte(nil), nil, time.Now())

	suite.mock.ExpectQuery(`SELECT .+ FROM visit_logs WHERE tenant_id = \$1 ORDER BY created_at DESC LIMIT \$2`).
		WithArgs(suite.tenantID, 20).
		WillReturnRows(rows)

	result, err := suite.repo.RecentActivity(suite.context, suite.tenantID, 20)
	assert.NoError(suite.T(), err)
	assert.Len(suite.T(), result, 1)
}

func floatPtr(f float64) *float64 {
	return &f
}
