package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"rentgrid/internal/models"
	"rentgrid/internal/probe"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type DiscoveryServiceTestSuite struct {
	suite.Suite
	tenantRepo   *MockTenantRepository
	instanceRepo *MockServiceInstanceRepository
	auditSvc     *MockAuditLogsService
	prober       *MockProber
	service      DiscoveryService
	ctx          context.Context
}

func (suite *DiscoveryServiceTestSuite) SetupTest() {
	suite.tenantRepo = &MockTenantRepository{}
	suite.instanceRepo = &MockServiceInstanceRepository{}
	suite.auditSvc = &MockAuditLogsService{}
	suite.prober = &MockProber{}
	suite.service = NewDiscoveryService(suite.tenantRepo, suite.instanceRepo, suite.auditSvc, suite.prober)
	suite.ctx = context.Background()
}

func activeTenant(slug string) *models.Tenant {
	return &models.Tenant{
		ID:     uuid.New(),
		Name:   slug,
		Slug:   slug,
		Domain: slug + ".example.com",
		Status: models.TenantStatusActive,
	}
}

func healthyResult() probe.Result {
	return probe.Result{Reachable: true, StatusCode: 200, ResponseTime: 12 * time.Millisecond}
}

func (suite *DiscoveryServiceTestSuite) TestScan_RegistersReachableEndpoints() {
	// Arrange
	tenant := activeTenant("acme")
	suite.tenantRepo.On("ListByStatus", suite.ctx, models.TenantStatusActive).Return([]*models.Tenant{tenant}, nil)

	backendURL := fmt.Sprintf("http://%s:8081/health", tenant.Domain)
	frontendURL := fmt.Sprintf("http://%s:3000/", tenant.Domain)
	suite.prober.On("ProbeHTTP", suite.ctx, backendURL).Return(healthyResult())
	suite.prober.On("ProbeHTTP", suite.ctx, frontendURL).Return(healthyResult())

	suite.instanceRepo.On("Upsert", suite.ctx, mock.AnythingOfType("*models.ServiceInstance")).Return(true, nil)
	suite.auditSvc.On("LogSystemEvent", suite.ctx, models.ActionServiceRegistered,
		models.ResourceServiceInstance, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	// Act
	err := suite.service.Scan(suite.ctx)

	// Assert
	assert.NoError(suite.T(), err)
	suite.instanceRepo.AssertNumberOfCalls(suite.T(), "Upsert", 2)
	suite.auditSvc.AssertNumberOfCalls(suite.T(), "LogSystemEvent", 2)
}

func (suite *DiscoveryServiceTestSuite) TestScan_UnreachableEndpointNotRegistered() {
	// Arrange
	tenant := activeTenant("acme")
	suite.tenantRepo.On("ListByStatus", suite.ctx, models.TenantStatusActive).Return([]*models.Tenant{tenant}, nil)

	suite.prober.On("ProbeHTTP", suite.ctx, mock.Anything).Return(probe.Result{
		Err: errors.New("connection refused"),
	})

	// Act
	err := suite.service.Scan(suite.ctx)

	// Assert
	assert.NoError(suite.T(), err)
	suite.instanceRepo.AssertNotCalled(suite.T(), "Upsert", mock.Anything, mock.Anything)
}

func (suite *DiscoveryServiceTestSuite) TestScan_OneTenantFailureDoesNotAbortOthers() {
	// Arrange
	broken := activeTenant("broken")
	working := activeTenant("working")
	suite.tenantRepo.On("ListByStatus", suite.ctx, models.TenantStatusActive).Return([]*models.Tenant{broken, working}, nil)

	suite.prober.On("ProbeHTTP", suite.ctx, mock.MatchedBy(func(url string) bool {
		return url == fmt.Sprintf("http://%s:8081/health", broken.Domain) ||
			url == fmt.Sprintf("http://%s:3000/", broken.Domain)
	})).Return(probe.Result{Err: errors.New("timeout")})

	suite.prober.On("ProbeHTTP", suite.ctx, mock.MatchedBy(func(url string) bool {
		return url == fmt.Sprintf("http://%s:8081/health", working.Domain) ||
			url == fmt.Sprintf("http://%s:3000/", working.Domain)
	})).Return(healthyResult())

	suite.instanceRepo.On("Upsert", suite.ctx, mock.Anything).Return(true, nil)
	suite.auditSvc.On("LogSystemEvent", mock.Anything, mock.Anything, mock.Anything,
		mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	// Act
	err := suite.service.Scan(suite.ctx)

	// Assert
	assert.NoError(suite.T(), err)
	suite.instanceRepo.AssertNumberOfCalls(suite.T(), "Upsert", 2)
}

func (suite *DiscoveryServiceTestSuite) TestScan_RediscoveryDoesNotAuditAgain() {
	// Arrange
	tenant := activeTenant("acme")
	suite.tenantRepo.On("ListByStatus", suite.ctx, models.TenantStatusActive).Return([]*models.Tenant{tenant}, nil)
	suite.prober.On("ProbeHTTP", suite.ctx, mock.Anything).Return(healthyResult())

	// Upsert reports the rows already existed
	suite.instanceRepo.On("Upsert", suite.ctx, mock.Anything).Return(false, nil)

	// Act
	err := suite.service.Scan(suite.ctx)

	// Assert
	assert.NoError(suite.T(), err)
	suite.auditSvc.AssertNotCalled(suite.T(), "LogSystemEvent",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *DiscoveryServiceTestSuite) TestScan_DegradedResponseStillRegistered() {
	// Arrange
	tenant := activeTenant("acme")
	suite.tenantRepo.On("ListByStatus", suite.ctx, models.TenantStatusActive).Return([]*models.Tenant{tenant}, nil)
	suite.prober.On("ProbeHTTP", suite.ctx, mock.Anything).Return(probe.Result{
		Reachable:  true,
		StatusCode: 503,
	})

	var statuses []string
	suite.instanceRepo.On("Upsert", suite.ctx, mock.Anything).Run(func(args mock.Arguments) {
		statuses = append(statuses, args.Get(1).(*models.ServiceInstance).Status)
	}).Return(false, nil)

	// Act
	err := suite.service.Scan(suite.ctx)

	// Assert
	assert.NoError(suite.T(), err)
	assert.Len(suite.T(), statuses, 2)
	for _, status := range statuses {
		assert.Equal(suite.T(), models.ServiceStatusDegraded, status)
	}
}

func (suite *DiscoveryServiceTestSuite) TestDiscoverTenant_NotActive() {
	// Arrange
	tenant := activeTenant("acme")
	tenant.Status = models.TenantStatusInactive
	suite.tenantRepo.On("GetByID", suite.ctx, tenant.ID).Return(tenant, nil)

	// Act
	err := suite.service.DiscoverTenant(suite.ctx, tenant.ID)

	// Assert
	assert.ErrorIs(suite.T(), err, ErrTenantNotActive)
	suite.prober.AssertNotCalled(suite.T(), "ProbeHTTP", mock.Anything, mock.Anything)
}

func (suite *DiscoveryServiceTestSuite) TestDiscoverTenant_Success() {
	// Arrange
	tenant := activeTenant("acme")
	suite.tenantRepo.On("GetByID", suite.ctx, tenant.ID).Return(tenant, nil)
	suite.prober.On("ProbeHTTP", suite.ctx, mock.Anything).Return(healthyResult())
	suite.instanceRepo.On("Upsert", suite.ctx, mock.Anything).Return(false, nil)

	// Act
	err := suite.service.DiscoverTenant(suite.ctx, tenant.ID)

	// Assert
	assert.NoError(suite.T(), err)
	suite.instanceRepo.AssertNumberOfCalls(suite.T(), "Upsert", 2)
}

func TestDiscoveryServiceTestSuite(t *testing.T) {
	suite.Run(t, new(DiscoveryServiceTestSuite))
}
