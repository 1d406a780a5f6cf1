package analytics

import (
	"context"
	"errors"
	"testing"
	"time"

	"visitdesk/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// MockVisitorRepository mocks the VisitorRepository interface for testing
type MockVisitorRepository struct {
	mock.Mock
}

func (m *MockVisitorRepository) Create(ctx context.Context, visitor *models.Visitor) error {
	args := m.Called(ctx, visitor)
	return args.Error(0)
}

func (m *MockVisitorRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Visitor, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Visitor), args.Error(1)
}

func (m *MockVisitorRepository) List(ctx context.Context, tenantID uuid.UUID, filter *models.VisitorSearchFilter) ([]*models.Visitor, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]*models.Visitor), args.Error(1)
}

func (m *MockVisitorRepository) Update(ctx context.Context, visitor *models.Visitor) error {
	args := m.Called(ctx, visitor)
	return args.Error(0)
}

func (m *MockVisitorRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

func (m *MockVisitorRepository) Approve(ctx context.Context, tenantID, id, approvedBy uuid.UUID, at time.Time) (bool, error) {
	args := m.Called(ctx, tenantID, id, approvedBy, at)
	return args.Bool(0), args.Error(1)
}

func (m *MockVisitorRepository) Reject(ctx context.Context, tenantID, id uuid.UUID, reason string, rejectedBy uuid.UUID) (bool, error) {
	args := m.Called(ctx, tenantID, id, reason, rejectedBy)
	return args.Bool(0), args.Error(1)
}

func (m *MockVisitorRepository) Checkout(ctx context.Context, tenantID, id uuid.UUID, at time.Time) (bool, error) {
	args := m.Called(ctx, tenantID, id, at)
	return args.Bool(0), args.Error(1)
}

func (m *MockVisitorRepository) MarkNoShow(ctx context.Context, tenantID, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, tenantID, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockVisitorRepository) FindInProgressByContact(ctx context.Context, tenantID uuid.UUID, phoneOrEmail string) ([]*models.Visitor, error) {
	args := m.Called(ctx, tenantID, phoneOrEmail)
	return args.Get(0).([]*models.Visitor), args.Error(1)
}

func (m *MockVisitorRepository) ListOverdueScheduled(ctx context.Context, tenantID uuid.UUID, cutoff time.Time) ([]*models.Visitor, error) {
	args := m.Called(ctx, tenantID, cutoff)
	return args.Get(0).([]*models.Visitor), args.Error(1)
}

func (m *MockVisitorRepository) SetBadgePrinted(ctx context.Context, tenantID, id uuid.UUID, badgeNumber string, at time.Time) error {
	args := m.Called(ctx, tenantID, id, badgeNumber, at)
	return args.Error(0)
}

func (m *MockVisitorRepository) SetDocuments(ctx context.Context, tenantID, id uuid.UUID, docs *models.VisitorDocuments) error {
	args := m.Called(ctx, tenantID, id, docs)
	return args.Error(0)
}

func (m *MockVisitorRepository) StatusCounts(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]*models.StatusCount, error) {
	args := m.Called(ctx, tenantID, from, to)
	return args.Get(0).([]*models.StatusCount), args.Error(1)
}

func (m *MockVisitorRepository) CountByDay(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]*models.DayCount, error) {
	args := m.Called(ctx, tenantID, from, to)
	return args.Get(0).([]*models.DayCount), args.Error(1)
}

func (m *MockVisitorRepository) CountByHour(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]*models.HourCount, error) {
	args := m.Called(ctx, tenantID, from, to)
	return args.Get(0).([]*models.HourCount), args.Error(1)
}

func (m *MockVisitorRepository) TopHosts(ctx context.Context, tenantID uuid.UUID, from, to time.Time, limit int) ([]*models.HostCount, error) {
	args := m.Called(ctx, tenantID, from, to, limit)
	return args.Get(0).([]*models.HostCount), args.Error(1)
}

// MockVisitLogRepository mocks the VisitLogRepository interface for testing
type MockVisitLogRepository struct {
	mock.Mock
}

func (m *MockVisitLogRepository) Create(ctx context.Context, entry *models.VisitLog) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockVisitLogRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.VisitLog, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.VisitLog), args.Error(1)
}

func (m *MockVisitLogRepository) List(ctx context.Context, tenantID uuid.UUID, filters *models.VisitLogFilters) ([]*models.VisitLog, error) {
	args := m.Called(ctx, tenantID, filters)
	return args.Get(0).([]*models.VisitLog), args.Error(1)
}

func (m *MockVisitLogRepository) GetByVisitor(ctx context.Context, tenantID, visitorID uuid.UUID) ([]*models.VisitLog, error) {
	args := m.Called(ctx, tenantID, visitorID)
	return args.Get(0).([]*models.VisitLog), args.Error(1)
}

func (m *MockVisitLogRepository) AverageDuration(ctx context.Context, tenantID uuid.UUID, from, to time.Time) (float64, error) {
	args := m.Called(ctx, tenantID, from, to)
	return args.Get(0).(float64), args.Error(1)
}

func (m *MockVisitLogRepository) RecentActivity(ctx context.Context, tenantID uuid.UUID, limit int) ([]*models.VisitLog, error) {
	args := m.Called(ctx, tenantID, limit)
	return args.Get(0).([]*models.VisitLog), args.Error(1)
}

// MockCacheService mocks the CacheService interface for testing
type MockCacheService struct {
	mock.Mock
}

func (m *MockCacheService) GetVisitor(ctx context.Context, tenantID, visitorID uuid.UUID) (*models.Visitor, error) {
	args := m.Called(ctx, tenantID, visitorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Visitor), args.Error(1)
}

func (m *MockCacheService) SetVisitor(ctx context.Context, tenantID uuid.UUID, visitor *models.Visitor, ttl time.Duration) error {
	args := m.Called(ctx, tenantID, visitor, ttl)
	return args.Error(0)
}

func (m *MockCacheService) DeleteVisitor(ctx context.Context, tenantID, visitorID uuid.UUID) error {
	args := m.Called(ctx, tenantID, visitorID)
	return args.Error(0)
}

func (m *MockCacheService) GetTenantAnalytics(ctx context.Context, tenantID uuid.UUID, key string) (map[string]interface{}, error) {
	args := m.Called(ctx, tenantID, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]interface{}), args.Error(1)
}

func (m *MockCacheService) SetTenantAnalytics(ctx context.Context, tenantID uuid.UUID, key string, data map[string]interface{}, ttl time.Duration) error {
	args := m.Called(ctx, tenantID, key, data, ttl)
	return args.Error(0)
}

func (m *MockCacheService) InvalidateTenantCache(ctx context.Context, tenantID uuid.UUID) error {
	args := m.Called(ctx, tenantID)
	return args.Error(0)
}

func (m *MockCacheService) IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	args := m.Called(ctx, key, limit, window)
	return args.Bool(0), args.Error(1)
}

func (m *MockCacheService) IncrementRateLimit(ctx context.Context, key string, window time.Duration) error {
	args := m.Called(ctx, key, window)
	return args.Error(0)
}

func (m *MockCacheService) SetString(ctx context.Context, key string, value string, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

func (m *MockCacheService) GetString(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *MockCacheService) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

type AnalyticsServiceTestSuite struct {
	suite.Suite
	visitorRepo  *MockVisitorRepository
	visitLogRepo *MockVisitLogRepository
	cacheSvc     *MockCacheService
	service      *AnalyticsService

	ctx      context.Context
	tenantID uuid.UUID
	from     time.Time
	to       time.Time
}

func (suite *AnalyticsServiceTestSuite) SetupTest() {
	suite.visitorRepo = &MockVisitorRepository{}
	suite.visitLogRepo = &MockVisitLogRepository{}
	suite.cacheSvc = &MockCacheService{}
	suite.service = NewAnalyticsService(suite.visitorRepo, suite.visitLogRepo, suite.cacheSvc)

	suite.ctx = context.Background()
	suite.tenantID = uuid.New()
	suite.from = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	suite.to = time.Date(2025, 6, 30, 23, 59, 59, 0, time.UTC)

	suite.visitorRepo.Test(suite.T())
	suite.visitLogRepo.Test(suite.T())
	suite.cacheSvc.Test(suite.T())
}

func (suite *AnalyticsServiceTestSuite) TearDownTest() {
	suite.visitorRepo.AssertExpectations(suite.T())
	suite.visitLogRepo.AssertExpectations(suite.T())
	suite.cacheSvc.AssertExpectations(suite.T())
}

func TestAnalyticsServiceTestSuite(t *testing.T) {
	suite.Run(t, new(AnalyticsServiceTestSuite))
}

func (suite *AnalyticsServiceTestSuite) TestVisitorSummary_CacheMiss() {
	counts := []*models.StatusCount{
		{Status: models.VisitorCheckedOut, Count: 30},
		{Status: models.VisitorCheckedIn, Count: 5},
	}
	hours := []*models.HourCount{
		{Hour: 9, Count: 12},
		{Hour: 14, Count: 20},
	}

	suite.cacheSvc.On("GetTenantAnalytics", suite.ctx, suite.tenantID, mock.AnythingOfType("string")).
		Return(nil, errors.New("cache miss"))
	suite.visitorRepo.On("StatusCounts", suite.ctx, suite.tenantID, suite.from, suite.to).Return(counts, nil)
	suite.visitLogRepo.On("AverageDuration", suite.ctx, suite.tenantID, suite.from, suite.to).Return(42.5, nil)
	suite.visitorRepo.On("CountByHour", suite.ctx, suite.tenantID, suite.from, suite.to).Return(hours, nil)
	suite.cacheSvc.On("SetTenantAnalytics", suite.ctx, suite.tenantID, mock.AnythingOfType("string"),
		mock.Anything, summaryCacheTTL).Return(nil)

	summary, err := suite.service.VisitorSummary(suite.ctx, suite.tenantID, suite.from, suite.to)

	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), 35, summary.TotalVisitors)
	assert.Equal(suite.T(), 42.5, summary.AvgDurationMins)
	assert.Equal(suite.T(), 14, summary.PeakHour)
}

func (suite *AnalyticsServiceTestSuite) TestVisitorSummary_CacheHit() {
	cached := map[string]interface{}{
		"company_id":           suite.tenantID.String(),
		"from":                 suite.from.Format(time.RFC3339),
		"to":                   suite.to.Format(time.RFC3339),
		"total_visitors":       float64(35),
		"status_counts":        []interface{}{map[string]interface{}{"status": models.VisitorCheckedOut, "count": float64(35)}},
		"avg_duration_minutes": 42.5,
		"peak_hour":            float64(14),
		"last_updated":         time.Now().Format(time.RFC3339),
	}

	suite.cacheSvc.On("GetTenantAnalytics", suite.ctx, suite.tenantID, mock.AnythingOfType("string")).
		Return(cached, nil)

	summary, err := suite.service.VisitorSummary(suite.ctx, suite.tenantID, suite.from, suite.to)

	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), 35, summary.TotalVisitors)
	assert.Equal(suite.T(), 14, summary.PeakHour)
	suite.visitorRepo.AssertNotCalled(suite.T(), "StatusCounts", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *AnalyticsServiceTestSuite) TestVisitorSummary_MalformedCacheFallsThrough() {
	// Unusable cache shape forces a recompute instead of failing.
	cached := map[string]interface{}{"from": 12345}

	suite.cacheSvc.On("GetTenantAnalytics", suite.ctx, suite.tenantID, mock.AnythingOfType("string")).
		Return(cached, nil)
	suite.visitorRepo.On("StatusCounts", suite.ctx, suite.tenantID, suite.from, suite.to).
		Return([]*models.StatusCount{}, nil)
	suite.visitLogRepo.On("AverageDuration", suite.ctx, suite.tenantID, suite.from, suite.to).Return(0.0, nil)
	suite.visitorRepo.On("CountByHour", suite.ctx, suite.tenantID, suite.from, suite.to).
		Return([]*models.HourCount{}, nil)
	suite.cacheSvc.On("SetTenantAnalytics", suite.ctx, suite.tenantID, mock.AnythingOfType("string"),
		mock.Anything, summaryCacheTTL).Return(nil)

	summary, err := suite.service.VisitorSummary(suite.ctx, suite.tenantID, suite.from, suite.to)

	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), 0, summary.TotalVisitors)
}

func (suite *AnalyticsServiceTestSuite) TestPeakHour_NoData() {
	suite.visitorRepo.On("CountByHour", suite.ctx, suite.tenantID, suite.from, suite.to).
		Return([]*models.HourCount{}, nil)

	peak, err := suite.service.PeakHour(suite.ctx, suite.tenantID, suite.from, suite.to)

	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), -1, peak)
}

func (suite *AnalyticsServiceTestSuite) TestTopHosts_ClampsLimit() {
	hosts := []*models.HostCount{{HostID: uuid.New(), HostName: "Hope Host", Count: 8}}

	suite.visitorRepo.On("TopHosts", suite.ctx, suite.tenantID, suite.from, suite.to, 10).Return(hosts, nil)

	result, err := suite.service.TopHosts(suite.ctx, suite.tenantID, suite.from, suite.to, 500)

	assert.NoError(suite.T(), err)
	assert.Len(suite.T(), result, 1)
}

func (suite *AnalyticsServiceTestSuite) TestRecentActivity_DefaultLimit() {
	suite.visitLogRepo.On("RecentActivity", suite.ctx, suite.tenantID, 20).
		Return([]*models.VisitLog{}, nil)

	result, err := suite.service.RecentActivity(suite.ctx, suite.tenantID, 0)

	assert.NoError(suite.T(), err)
	assert.Empty(suite.T(), result)
}
