package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"rentgrid/internal/models"
	"rentgrid/internal/push"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type SyncServiceTestSuite struct {
	suite.Suite
	hub          *push.Hub
	tenantRepo   *MockTenantRepository
	configRepo   *MockTenantConfigRepository
	instanceRepo *MockServiceInstanceRepository
	deliverer    *MockDeliverer
	cacheSvc     *MockCacheService
	service      ConfigSyncService
	tenantID     uuid.UUID
	ctx          context.Context
}

func (suite *SyncServiceTestSuite) SetupTest() {
	suite.hub = push.NewHub()
	suite.tenantRepo = &MockTenantRepository{}
	suite.configRepo = &MockTenantConfigRepository{}
	suite.instanceRepo = &MockServiceInstanceRepository{}
	suite.deliverer = &MockDeliverer{}
	suite.cacheSvc = &MockCacheService{}
	suite.service = NewConfigSyncService(suite.hub, suite.tenantRepo, suite.configRepo,
		suite.instanceRepo, suite.deliverer, suite.cacheSvc)
	suite.tenantID = uuid.New()
	suite.ctx = context.Background()
}

func (suite *SyncServiceTestSuite) tenantConfig() *models.TenantConfiguration {
	return &models.TenantConfiguration{
		ID:          uuid.New(),
		TenantID:    suite.tenantID,
		DisplayName: "Acme Rentals",
		Currency:    "USD",
		Timezone:    "UTC",
	}
}

func (suite *SyncServiceTestSuite) TestSyncConfig_PushesToAllOpenChannels() {
	// Arrange
	config := suite.tenantConfig()
	suite.configRepo.On("GetByTenantID", suite.ctx, suite.tenantID).Return(config, nil)

	first := suite.hub.Register(suite.tenantID)
	second := suite.hub.Register(suite.tenantID)

	// Act
	err := suite.service.SyncConfig(suite.ctx, suite.tenantID)

	// Assert
	assert.NoError(suite.T(), err)
	for _, ch := range []*push.Channel{first, second} {
		select {
		case data := <-ch.Outbound():
			var msg map[string]interface{}
			assert.NoError(suite.T(), json.Unmarshal(data, &msg))
			assert.Equal(suite.T(), push.MessageConfigUpdate, msg["type"])
		case <-time.After(time.Second):
			suite.T().Fatal("expected config_update on channel")
		}
	}
	suite.instanceRepo.AssertNotCalled(suite.T(), "GetBackendByTenant", mock.Anything, mock.Anything)
	suite.deliverer.AssertNotCalled(suite.T(), "PostJSON", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *SyncServiceTestSuite) TestSyncConfig_NoCrossTenantDelivery() {
	// Arrange
	config := suite.tenantConfig()
	suite.configRepo.On("GetByTenantID", suite.ctx, suite.tenantID).Return(config, nil)

	mine := suite.hub.Register(suite.tenantID)
	other := suite.hub.Register(uuid.New())

	// Act
	err := suite.service.SyncConfig(suite.ctx, suite.tenantID)

	// Assert
	assert.NoError(suite.T(), err)
	select {
	case <-mine.Outbound():
	case <-time.After(time.Second):
		suite.T().Fatal("expected delivery on own channel")
	}
	select {
	case <-other.Outbound():
		suite.T().Fatal("message leaked to another tenant's channel")
	default:
	}
}

func (suite *SyncServiceTestSuite) TestSyncConfig_FallsBackToDirectDelivery() {
	// Arrange: no open channels
	config := suite.tenantConfig()
	instance := &models.ServiceInstance{
		ID:       uuid.New(),
		TenantID: suite.tenantID,
		Type:     models.ServiceTypeBackend,
		Host:     "acme.example.com",
		Port:     8081,
	}

	suite.configRepo.On("GetByTenantID", suite.ctx, suite.tenantID).Return(config, nil)
	suite.instanceRepo.On("GetBackendByTenant", suite.ctx, suite.tenantID).Return(instance, nil)
	url := fmt.Sprintf("http://%s:%d/internal/config", instance.Host, instance.Port)
	suite.deliverer.On("PostJSON", suite.ctx, url, mock.Anything).Return(nil)

	// Act
	err := suite.service.SyncConfig(suite.ctx, suite.tenantID)

	// Assert
	assert.NoError(suite.T(), err)
	suite.deliverer.AssertExpectations(suite.T())
}

func (suite *SyncServiceTestSuite) TestSyncConfig_NoChannelNoBackend() {
	// Arrange
	config := suite.tenantConfig()
	suite.configRepo.On("GetByTenantID", suite.ctx, suite.tenantID).Return(config, nil)
	suite.instanceRepo.On("GetBackendByTenant", suite.ctx, suite.tenantID).Return(nil, pgx.ErrNoRows)

	// Act
	err := suite.service.SyncConfig(suite.ctx, suite.tenantID)

	// Assert
	assert.ErrorIs(suite.T(), err, ErrServiceNotFound)
}

func (suite *SyncServiceTestSuite) TestSyncConfig_DirectDeliveryFailureSurfaced() {
	// Arrange
	config := suite.tenantConfig()
	instance := &models.ServiceInstance{
		ID:       uuid.New(),
		TenantID: suite.tenantID,
		Type:     models.ServiceTypeBackend,
		Host:     "acme.example.com",
		Port:     8081,
	}

	suite.configRepo.On("GetByTenantID", suite.ctx, suite.tenantID).Return(config, nil)
	suite.instanceRepo.On("GetBackendByTenant", suite.ctx, suite.tenantID).Return(instance, nil)
	suite.deliverer.On("PostJSON", suite.ctx, mock.Anything, mock.Anything).Return(errors.New("connection refused"))

	// Act
	err := suite.service.SyncConfig(suite.ctx, suite.tenantID)

	// Assert: single attempt, no retry
	assert.Error(suite.T(), err)
	suite.deliverer.AssertNumberOfCalls(suite.T(), "PostJSON", 1)
}

func (suite *SyncServiceTestSuite) TestSyncAllTenants_FailuresIsolated() {
	// Arrange
	tenants := make([]*models.Tenant, 5)
	for i := range tenants {
		tenants[i] = &models.Tenant{ID: uuid.New(), Slug: fmt.Sprintf("tenant-%d", i), Status: models.TenantStatusActive}
	}
	suite.tenantRepo.On("ListByStatus", suite.ctx, models.TenantStatusActive).Return(tenants, nil)

	// Tenant 2 has no configuration row; the rest sync over open channels
	for i, tenant := range tenants {
		if i == 2 {
			suite.configRepo.On("GetByTenantID", suite.ctx, tenant.ID).Return(nil, pgx.ErrNoRows)
			continue
		}
		config := &models.TenantConfiguration{ID: uuid.New(), TenantID: tenant.ID}
		suite.configRepo.On("GetByTenantID", suite.ctx, tenant.ID).Return(config, nil)
		suite.hub.Register(tenant.ID)
	}

	// Act
	report, err := suite.service.SyncAllTenants(suite.ctx)

	// Assert
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), 4, report.Succeeded)
	assert.Equal(suite.T(), 1, report.Failed)
}

func (suite *SyncServiceTestSuite) TestBroadcast_ReachesEveryChannel() {
	// Arrange
	first := suite.hub.Register(uuid.New())
	second := suite.hub.Register(uuid.New())

	// Act
	sent, err := suite.service.Broadcast(map[string]interface{}{"type": "maintenance", "message": "upgrade at 02:00 UTC"})

	// Assert
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), 2, sent)
	for _, ch := range []*push.Channel{first, second} {
		select {
		case <-ch.Outbound():
		case <-time.After(time.Second):
			suite.T().Fatal("expected broadcast on channel")
		}
	}
}

func (suite *SyncServiceTestSuite) TestHeartbeat_RecordsLastSeen() {
	// Arrange
	suite.cacheSvc.On("SetTenantLastSeen", suite.ctx, suite.tenantID, mock.AnythingOfType("time.Time")).Return(nil)

	// Act
	err := suite.service.Heartbeat(suite.ctx, suite.tenantID)

	// Assert
	assert.NoError(suite.T(), err)
	suite.cacheSvc.AssertExpectations(suite.T())
}

func TestSyncServiceTestSuite(t *testing.T) {
	suite.Run(t, new(SyncServiceTestSuite))
}
