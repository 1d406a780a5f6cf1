package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"visitdesk/internal/models"

	"github.com/google/uuid"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

type NotificationRepoTestSuite struct {
	suite.Suite
	mock      pgxmock.PgxPoolIface
	repo      NotificationRepository
	tenantID  uuid.UUID
	visitorID uuid.UUID
	context   context.Context
}

func (suite *NotificationRepoTestSuite) SetupTest() {
	mock, err := pgxmock.NewPool()
	assert.NoError(suite.T(), err)
	suite.mock = mock

	suite.repo = NewNotificationRepo(mock)
	suite.tenantID = uuid.New()
	suite.visitorID = uuid.New()
	suite.context = context.Background()
}

func (suite *NotificationRepoTestSuite) TearDownTest() {
	suite.mock.Close()
}

func TestNotificationRepoTestSuite(t *testing.T) {
	suite.Run(t, new(NotificationRepoTestSuite))
}

func (suite *NotificationRepoTestSuite) TestCreate_SentDelivery() {
	sentAt := time.Now().UTC()
	record := &models.Notification{
		TenantID:  suite.tenantID,
		Type:      models.NotificationTypeEmail,
		EventType: models.EventVisitorApproved,
		VisitorID: &suite.visitorID,
		Recipient: "vera@example.com",
		Body:      "Your visit has been approved. Welcome, Vera Visitor!",
		Status:    "sent",
		SentAt:    &sentAt,
	}

	suite.mock.ExpectExec(`
		INSERT INTO notifications \(id, tenant_id, type, event_type, visitor_id, recipient,
			subject, body, status, error, sent_at, retry_count, created_at\)
		VALUES \(\$1, \$2, \$3, \$4, \$5, \$6, \$7, \$8, \$9, \$10, \$11, \$12, \$13\)
	`).WithArgs(pgxmock.AnyArg(), record.TenantID, record.Type, record.EventType, record.VisitorID,
		record.Recipient, record.Subject, record.Body, record.Status, record.Error,
		record.SentAt, record.RetryCount, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := suite.repo.Create(suite.context, record)
	assert.NoError(suite.T(), err)
	assert.NotEqual(suite.T(), uuid.Nil, record.ID)
	assert.False(suite.T(), record.CreatedAt.IsZero())
}

func (suite *NotificationRepoTestSuite) TestCreate_DatabaseError() {
	record := &models.Notification{
		TenantID:  suite.tenantID,
		Type:      models.NotificationTypeWebhook,
		EventType: models.EventVisitorCreated,
		Recipient: "host@example.com",
		Status:    "failed",
	}

	suite.mock.ExpectExec(`INSERT INTO notifications`).
		WithArgs(pgxmock.AnyArg(), record.TenantID, record.Type, record.EventType, record.VisitorID,
			record.Recipient, record.Subject, record.Body, record.Status, record.Error,
			record.SentAt, record.RetryCount, pgxmock.AnyArg()).
		WillReturnError(errors.New("connection reset"))

	err := suite.repo.Create(suite.context, record)
	assert.Error(suite.T(), err)
}
