package services

import (
	"context"
	"errors"
	"testing"

	"visitdesk/internal/apperrors"
	"visitdesk/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

type UserServiceTestSuite struct {
	suite.Suite
	userRepo  *MockUserRepository
	tenantSvc *MockTenantService
	service   UserService

	ctx      context.Context
	tenantID uuid.UUID
}

func (suite *UserServiceTestSuite) SetupTest() {
	suite.userRepo = &MockUserRepository{}
	suite.tenantSvc = &MockTenantService{}
	suite.userRepo.Test(suite.T())
	suite.tenantSvc.Test(suite.T())

	suite.service = NewUserService(suite.userRepo, suite.tenantSvc)

	suite.ctx = context.Background()
	suite.tenantID = uuid.New()
}

func (suite *UserServiceTestSuite) TearDownTest() {
	suite.userRepo.AssertExpectations(suite.T())
	suite.tenantSvc.AssertExpectations(suite.T())
}

func TestUserServiceTestSuite(t *testing.T) {
	suite.Run(t, new(UserServiceTestSuite))
}

func (suite *UserServiceTestSuite) TestCountActive_ReportsHeadCount() {
	suite.userRepo.On("CountActive", suite.ctx, suite.tenantID).Return(7, nil)

	count, err := suite.service.CountActive(suite.ctx, suite.tenantID)

	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), 7, count)
}

func (suite *UserServiceTestSuite) TestCountActive_WrapsRepoError() {
	suite.userRepo.On("CountActive", suite.ctx, suite.tenantID).Return(0, errors.New("connection reset"))

	_, err := suite.service.CountActive(suite.ctx, suite.tenantID)

	assert.Error(suite.T(), err)
	assert.Equal(suite.T(), apperrors.CodeInternal, apperrors.CodeOf(err))
}

func (suite *UserServiceTestSuite) TestGetByID_OtherTenantHidden() {
	id := uuid.New()
	otherTenant := uuid.New()
	suite.userRepo.On("GetByID", suite.ctx, id).Return(&models.User{ID: id, TenantID: &otherTenant}, nil)

	_, err := suite.service.GetByID(suite.ctx, suite.tenantID, id)

	assert.Error(suite.T(), err)
	assert.Equal(suite.T(), apperrors.CodeNotFound, apperrors.CodeOf(err))
}
