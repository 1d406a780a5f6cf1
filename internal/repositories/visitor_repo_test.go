package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"visitdesk/internal/models"

	"github.com/google/uuid"
	pgx "github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

type VisitorRepoTestSuite struct {
	suite.Suite
	mock      pgxmock.PgxPoolIface
	repo      VisitorRepository
	tenantID1 uuid.UUID
	tenantID2 uuid.UUID
	visitorID uuid.UUID
	hostID    uuid.UUID
	context   context.Context
}

func (suite *VisitorRepoTestSuite) SetupTest() {
	mock, err := pgxmock.NewPool()
	assert.NoError(suite.T(), err)
	suite.mock = mock

	suite.repo = NewVisitorRepo(mock)
	suite.tenantID1 = uuid.New()
	suite.tenantID2 = uuid.New()
	suite.visitorID = uuid.New()
	suite.hostID = uuid.New()
	suite.context = context.Background()
}

func (suite *VisitorRepoTestSuite) TearDownTest() {
	suite.mock.Close()
}

func TestVisitorRepoTestSuite(t *testing.T) {
	suite.Run(t, new(VisitorRepoTestSuite))
}

var visitorRowColumns = []string{
	"id", "tenant_id", "host_id", "receptionist_id", "name", "email", "phone", "purpose", "visitor_type",
	"scheduled_at", "check_in_time", "check_out_time", "status", "rejection_reason", "approved_by", "approved_at",
	"badge_number", "badge_printed", "badge_printed_at", "photo_key", "id_proof_key", "signature_key",
	"notes", "metadata", "created_at", "updated_at",
}

func (suite *VisitorRepoTestSuite) visitorRow(status string) *pgxmock.Rows {
	now := time.Now()
	return pgxmock.NewRows(visitorRowColumns).AddRow(
		suite.visitorID, suite.tenantID1, suite.hostID, nil, "Vera Visitor", "vera@example.com",
		"+14155550123", "Interview", nil,
		nil, nil, nil, status, nil, nil, nil,
		nil, false, nil, nil, nil, nil,
		nil, []byte(nil), now, now,
	)
}

func (suite *VisitorRepoTestSuite) TestCreate_Success() {
	visitor := &models.Visitor{
		TenantID: suite.tenantID1,
		HostID:   suite.hostID,
		Name:     "Vera Visitor",
		Email:    "vera@example.com",
		Phone:    "+14155550123",
		Purpose:  "Interview",
		Status:   models.VisitorPending,
	}

	suite.mock.ExpectExec(`INSERT INTO visitors`).
		WithArgs(pgxmock.AnyArg(), visitor.TenantID, visitor.HostID, visitor.ReceptionistID, visitor.Name,
			visitor.Email, visitor.Phone, visitor.Purpose, visitor.VisitorType, visitor.ScheduledAt,
			visitor.CheckInTime, visitor.CheckOutTime, visitor.Status, visitor.RejectionReason,
			visitor.ApprovedBy, visitor.ApprovedAt, visitor.Badge.Number, visitor.Badge.Printed,
			visitor.Badge.PrintedAt, visitor.Documents.PhotoKey, visitor.Documents.IDProofKey,
			visitor.Documents.SignatureKey, visitor.Notes, []byte(nil)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := suite.repo.Create(suite.context, visitor)
	assert.NoError(suite.T(), err)
	assert.NotEqual(suite.T(), uuid.Nil, visitor.ID)
}

func (suite *VisitorRepoTestSuite) TestGetByID_Success() {
	suite.mock.ExpectQuery(`SELECT .+ FROM visitors WHERE tenant_id = \$1 AND id = \$2`).
		WithArgs(suite.tenantID1, suite.visitorID).
		WillReturnRows(suite.visitorRow(models.VisitorPending))

	result, err := suite.repo.GetByID(suite.context, suite.tenantID1, suite.visitorID)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), suite.visitorID, result.ID)
	assert.Equal(suite.T(), models.VisitorPending, result.Status)
}

func (suite *VisitorRepoTestSuite) TestGetByID_WrongTenant() {
	suite.mock.ExpectQuery(`SELECT .+ FROM visitors WHERE tenant_id = \$1 AND id = \$2`).
		WithArgs(suite.tenantID2, suite.visitorID).
		WillReturnError(pgx.ErrNoRows)

	result, err := suite.repo.GetByID(suite.context, suite.tenantID2, suite.visitorID)
	assert.Error(suite.T(), err)
	assert.ErrorIs(suite.T(), err, pgx.ErrNoRows)
	assert.Nil(suite.T(), result)
}

func (suite *VisitorRepoTestSuite) TestApprove_FromPending() {
	at := time.Now()
	approver := uuid.New()

	suite.mock.ExpectExec(`
		UPDATE visitors
		SET status = \$1, check_in_time = \$2, approved_by = \$3, approved_at = \$2, updated_at = NOW\(\)
		WHERE tenant_id = \$4 AND id = \$5 AND status IN \(\$6, \$7\)
	`).WithArgs(models.VisitorCheckedIn, at, approver, suite.tenantID1, suite.visitorID,
		models.VisitorPending, models.VisitorScheduled).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	applied, err := suite.repo.Approve(suite.context, suite.tenantID1, suite.visitorID, approver, at)
	assert.NoError(suite.T(), err)
	assert.True(suite.T(), applied)
}

func (suite *VisitorRepoTestSuite) TestApprove_AlreadyDecided() {
	at := time.Now()
	approver := uuid.New()

	// Status already moved past pending/scheduled; the guard filters the row out.
	suite.mock.ExpectExec(`
		UPDATE visitors
		SET status = \$1, check_in_time = \$2, approved_by = \$3, approved_at = \$2, updated_at = NOW\(\)
		WHERE tenant_id = \$4 AND id = \$5 AND status IN \(\$6, \$7\)
	`).WithArgs(models.VisitorCheckedIn, at, approver, suite.tenantID1, suite.visitorID,
		models.VisitorPending, models.VisitorScheduled).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	applied, err := suite.repo.Approve(suite.context, suite.tenantID1, suite.visitorID, approver, at)
	assert.NoError(suite.T(), err)
	assert.False(suite.T(), applied)
}

func (suite *VisitorRepoTestSuite) TestReject_FromPending() {
	rejecter := uuid.New()

	suite.mock.ExpectExec(`
		UPDATE visitors
		SET status = \$1, rejection_reason = \$2, approved_by = \$3, updated_at = NOW\(\)
		WHERE tenant_id = \$4 AND id = \$5 AND status IN \(\$6, \$7\)
	`).WithArgs(models.VisitorRejected, "No appointment", rejecter, suite.tenantID1, suite.visitorID,
		models.VisitorPending, models.VisitorScheduled).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	applied, err := suite.repo.Reject(suite.context, suite.tenantID1, suite.visitorID, "No appointment", rejecter)
	assert.NoError(suite.T(), err)
	assert.True(suite.T(), applied)
}

func (suite *VisitorRepoTestSuite) TestCheckout_FromCheckedIn() {
	at := time.Now()

	suite.mock.ExpectExec(`
		UPDATE visitors
		SET status = \$1, check_out_time = \$2, updated_at = NOW\(\)
		WHERE tenant_id = \$3 AND id = \$4 AND status IN \(\$5, \$6\)
	`).WithArgs(models.VisitorCheckedOut, at, suite.tenantID1, suite.visitorID,
		models.VisitorCheckedIn, models.VisitorApproved).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	applied, err := suite.repo.Checkout(suite.context, suite.tenantID1, suite.visitorID, at)
	assert.NoError(suite.T(), err)
	assert.True(suite.T(), applied)
}

func (suite *VisitorRepoTestSuite) TestCheckout_AlreadyOut() {
	at := time.Now()

	suite.mock.ExpectExec(`
		UPDATE visitors
		SET status = \$1, check_out_time = \$2, updated_at = NOW\(\)
		WHERE tenant_id = \$3 AND id = \$4 AND status IN \(\$5, \$6\)
	`).WithArgs(models.VisitorCheckedOut, at, suite.tenantID1, suite.visitorID,
		models.VisitorCheckedIn, models.VisitorApproved).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	applied, err := suite.repo.Checkout(suite.context, suite.tenantID1, suite.visitorID, at)
	assert.NoError(suite.T(), err)
	assert.False(suite.T(), applied)
}

func (suite *VisitorRepoTestSuite) TestMarkNoShow_FromScheduled() {
	suite.mock.ExpectExec(`
		UPDATE visitors
		SET status = \$1, updated_at = NOW\(\)
		WHERE tenant_id = \$2 AND id = \$3 AND status IN \(\$4, \$5, \$6, \$7\)
	`).WithArgs(models.VisitorNoShow, suite.tenantID1, suite.visitorID,
		models.VisitorPending, models.VisitorScheduled, models.VisitorCheckedIn, models.VisitorApproved).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	applied, err := suite.repo.MarkNoShow(suite.context, suite.tenantID1, suite.visitorID)
	assert.NoError(suite.T(), err)
	assert.True(suite.T(), applied)
}
func (suite *VisitorRepoTestSuite) TestFindInProgressByContact() {
	suite.mock.ExpectQuery(`SELECT .+ FROM visitors WHERE tenant_id = \$1 AND \(phone = \$2 OR email = \$2\) AND status IN \(\$3, \$4\)`).
		WithArgs(suite.tenantID1, "+14155550123", models.VisitorCheckedIn, models.VisitorApproved).
		WillReturnRows(suite.visitorRow(models.VisitorCheckedIn))

	result, err := suite.repo.FindInProgressByContact(suite.context, suite.tenantID1, "+14155550123")
	assert.NoError(suite.T(), err)
	assert.Len(suite.T(), result, 1)
	assert.Equal(suite.T(), models.VisitorCheckedIn, result[0].Status)
}

func (suite *VisitorRepoTestSuite) TestDelete_Success() {
	suite.mock.ExpectExec(`DELETE FROM visitors WHERE tenant_id = \$1 AND id = \$2`).
		WithArgs(suite.tenantID1, suite.visitorID).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	err := suite.repo.Delete(suite.context, suite.tenantID1, suite.visitorID)
	assert.NoError(suite.T(), err)
}

func (suite *VisitorRepoTestSuite) TestSetDocuments_PartialUpdate() {
	photo := "t1/v1/photo"
	docs := &models.VisitorDocuments{PhotoKey: &photo}

	suite.mock.ExpectExec(`
		UPDATE visitors
		SET photo_key = COALESCE\(\$1, photo_key\),
			id_proof_key = COALESCE\(\$2, id_proof_key\),
			signature_key = COALESCE\(\$3, signature_key\),
			updated_at = NOW\(\)
		WHERE tenant_id = \$4 AND id = \$5
	`).WithArgs(docs.PhotoKey, docs.IDProofKey, docs.SignatureKey, suite.tenantID1, suite.visitorID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := suite.repo.SetDocuments(suite.context, suite.tenantID1, suite.visitorID, docs)
	assert.NoError(suite.T(), err)
}

func (suite *VisitorRepoTestSuite) TestStatusCounts() {
	from := time.Now().AddDate(0, -1, 0)
	to := time.Now()

	rows := pgxmock.NewRows([]string{"status", "count"}).
		AddRow(models.VisitorCheckedOut, 12).
		AddRow(models.VisitorCheckedIn, 3)

	suite.mock.ExpectQuery(`SELECT status, COUNT\(\*\) FROM visitors WHERE tenant_id = \$1 AND created_at >= \$2 AND created_at <= \$3 GROUP BY status`).
		WithArgs(suite.tenantID1, from, to).
		WillReturnRows(rows)

	result, err := suite.repo.StatusCounts(suite.context, suite.tenantID1, from, to)
	assert.NoError(suite.T(), err)
	assert.Len(suite.T(), result, 2)
	assert.Equal(suite.T(), models.VisitorCheckedOut, result[0].Status)
	assert.Equal(suite.T(), 12, result[0].Count)
}

func (suite *VisitorRepoTestSuite) TestCreate_DatabaseError() {
	visitor := &models.Visitor{
		TenantID: suite.tenantID1,
		HostID:   suite.hostID,
		Name:     "Vera Visitor",
		Email:    "vera@example.com",
		Phone:    "+14155550123",
		Purpose:  "Interview",
		Status:   models.VisitorPending,
	}

	suite.mock.ExpectExec(`INSERT INTO visitors`).
		WithArgs(pgxmock.AnyArg(), visitor.TenantID, visitor.HostID, visitor.ReceptionistID, visitor.Name,
			visitor.Email, visitor.Phone, visitor.Purpose, visitor.VisitorType, visitor.ScheduledAt,
			visitor.CheckInTime, visitor.CheckOutTime, visitor.Status, visitor.RejectionReason,
			visitor.ApprovedBy, visitor.ApprovedAt, visitor.Badge.Number, visitor.Badge.Printed,
			visitor.Badge.PrintedAt, visitor.Documents.PhotoKey, visitor.Documents.IDProofKey,
			visitor.Documents.SignatureKey, visitor.Notes, []byte(nil)).
		WillReturnError(errors.New("database connection failed"))

	err := suite.repo.Create(suite.context, visitor)
	assert.Error(suite.T(), err)
	assert.Contains(suite.T(), err.Error(), "database connection failed")
}
