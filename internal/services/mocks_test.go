package services

import (
	"context"
	"time"

	"rentgrid/internal/models"
	"rentgrid/internal/probe"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// Mock repositories and collaborators shared across the service tests.

type MockTenantRepository struct {
	mock.Mock
}

func (m *MockTenantRepository) Create(ctx context.Context, tenant *models.Tenant) error {
	args := m.Called(ctx, tenant)
	return args.Error(0)
}

func (m *MockTenantRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Tenant), args.Error(1)
}

func (m *MockTenantRepository) GetBySlug(ctx context.Context, slug string) (*models.Tenant, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Tenant), args.Error(1)
}

func (m *MockTenantRepository) Update(ctx context.Context, tenant *models.Tenant) error {
	args := m.Called(ctx, tenant)
	return args.Error(0)
}

func (m *MockTenantRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockTenantRepository) List(ctx context.Context, limit, offset int) ([]*models.Tenant, error) {
	args := m.Called(ctx, limit, offset)
	return args.Get(0).([]*models.Tenant), args.Error(1)
}

func (m *MockTenantRepository) ListByStatus(ctx context.Context, status string) ([]*models.Tenant, error) {
	args := m.Called(ctx, status)
	return args.Get(0).([]*models.Tenant), args.Error(1)
}

func (m *MockTenantRepository) CountByStatus(ctx context.Context) (map[string]int, error) {
	args := m.Called(ctx)
	return args.Get(0).(map[string]int), args.Error(1)
}

type MockTenantConfigRepository struct {
	mock.Mock
}

func (m *MockTenantConfigRepository) GetByTenantID(ctx context.Context, tenantID uuid.UUID) (*models.TenantConfiguration, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TenantConfiguration), args.Error(1)
}

func (m *MockTenantConfigRepository) Upsert(ctx context.Context, config *models.TenantConfiguration) error {
	args := m.Called(ctx, config)
	return args.Error(0)
}

type MockServiceInstanceRepository struct {
	mock.Mock
}

func (m *MockServiceInstanceRepository) Upsert(ctx context.Context, instance *models.ServiceInstance) (bool, error) {
	args := m.Called(ctx, instance)
	return args.Bool(0), args.Error(1)
}

func (m *MockServiceInstanceRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ServiceInstance, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ServiceInstance), args.Error(1)
}

func (m *MockServiceInstanceRepository) ListAll(ctx context.Context) ([]*models.ServiceInstance, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*models.ServiceInstance), args.Error(1)
}

func (m *MockServiceInstanceRepository) ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]*models.ServiceInstance, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).([]*models.ServiceInstance), args.Error(1)
}

func (m *MockServiceInstanceRepository) GetBackendByTenant(ctx context.Context, tenantID uuid.UUID) (*models.ServiceInstance, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ServiceInstance), args.Error(1)
}

func (m *MockServiceInstanceRepository) UpdateHealth(ctx context.Context, id uuid.UUID, status string, metadata models.JSONB, checkedAt time.Time) error {
	args := m.Called(ctx, id, status, metadata, checkedAt)
	return args.Error(0)
}

func (m *MockServiceInstanceRepository) Update(ctx context.Context, instance *models.ServiceInstance) error {
	args := m.Called(ctx, instance)
	return args.Error(0)
}

func (m *MockServiceInstanceRepository) CountByStatus(ctx context.Context) (map[string]int, error) {
	args := m.Called(ctx)
	return args.Get(0).(map[string]int), args.Error(1)
}

type MockAuditLogsRepository struct {
	mock.Mock
}

func (m *MockAuditLogsRepository) Create(ctx context.Context, auditLog *models.AuditLog) error {
	args := m.Called(ctx, auditLog)
	return args.Error(0)
}

func (m *MockAuditLogsRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.AuditLog, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AuditLog), args.Error(1)
}

func (m *MockAuditLogsRepository) List(ctx context.Context, filters *models.AuditLogFilters) ([]*models.AuditLog, error) {
	args := m.Called(ctx, filters)
	return args.Get(0).([]*models.AuditLog), args.Error(1)
}

func (m *MockAuditLogsRepository) ListUnarchivedBefore(ctx context.Context, cutoff time.Time, limit int) ([]*models.AuditLog, error) {
	args := m.Called(ctx, cutoff, limit)
	return args.Get(0).([]*models.AuditLog), args.Error(1)
}

func (m *MockAuditLogsRepository) MarkArchived(ctx context.Context, ids []uuid.UUID) error {
	args := m.Called(ctx, ids)
	return args.Error(0)
}

type MockPlatformUserRepository struct {
	mock.Mock
}

func (m *MockPlatformUserRepository) Create(ctx context.Context, user *models.PlatformUser) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockPlatformUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.PlatformUser, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PlatformUser), args.Error(1)
}

func (m *MockPlatformUserRepository) GetByEmail(ctx context.Context, email string) (*models.PlatformUser, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PlatformUser), args.Error(1)
}

func (m *MockPlatformUserRepository) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

type MockAuditLogsService struct {
	mock.Mock
}

func (m *MockAuditLogsService) LogActivity(ctx context.Context, action, resourceType, resourceID, actorType string, actorID *uuid.UUID, oldValues, newValues, metadata models.JSONB) error {
	args := m.Called(ctx, action, resourceType, resourceID, actorType, actorID, oldValues, newValues, metadata)
	return args.Error(0)
}

func (m *MockAuditLogsService) GetAuditLog(ctx context.Context, id uuid.UUID) (*models.AuditLog, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AuditLog), args.Error(1)
}

func (m *MockAuditLogsService) ListAuditLogs(ctx context.Context, filters *models.AuditLogFilters) ([]*models.AuditLog, error) {
	args := m.Called(ctx, filters)
	return args.Get(0).([]*models.AuditLog), args.Error(1)
}

func (m *MockAuditLogsService) LogSystemEvent(ctx context.Context, action, resourceType, resourceID string, oldValues, newValues, metadata models.JSONB) error {
	args := m.Called(ctx, action, resourceType, resourceID, oldValues, newValues, metadata)
	return args.Error(0)
}

func (m *MockAuditLogsService) LogUserAction(ctx context.Context, userID uuid.UUID, action, resourceType, resourceID string, oldValues, newValues models.JSONB) error {
	args := m.Called(ctx, userID, action, resourceType, resourceID, oldValues, newValues)
	return args.Error(0)
}

func (m *MockAuditLogsService) ValidateAuditFilters(filters *models.AuditLogFilters) error {
	args := m.Called(filters)
	return args.Error(0)
}

type MockProber struct {
	mock.Mock
}

func (m *MockProber) ProbeHTTP(ctx context.Context, url string) probe.Result {
	args := m.Called(ctx, url)
	return args.Get(0).(probe.Result)
}

func (m *MockProber) ProbeTCP(ctx context.Context, host string, port int) probe.Result {
	args := m.Called(ctx, host, port)
	return args.Get(0).(probe.Result)
}

type MockDeliverer struct {
	mock.Mock
}

func (m *MockDeliverer) PostJSON(ctx context.Context, url string, payload interface{}) error {
	args := m.Called(ctx, url, payload)
	return args.Error(0)
}

type MockCacheService struct {
	mock.Mock
}

func (m *MockCacheService) GetPlatformStats(ctx context.Context) (map[string]interface{}, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]interface{}), args.Error(1)
}

func (m *MockCacheService) SetPlatformStats(ctx context.Context, stats map[string]interface{}, ttl time.Duration) error {
	args := m.Called(ctx, stats, ttl)
	return args.Error(0)
}

func (m *MockCacheService) InvalidatePlatformStats(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockCacheService) SetTenantLastSeen(ctx context.Context, tenantID uuid.UUID, at time.Time) error {
	args := m.Called(ctx, tenantID, at)
	return args.Error(0)
}

func (m *MockCacheService) GetTenantLastSeen(ctx context.Context, tenantID uuid.UUID) (*time.Time, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*time.Time), args.Error(1)
}

func (m *MockCacheService) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type MockObjectStore struct {
	mock.Mock
}

func (m *MockObjectStore) Put(ctx context.Context, objectName string, data []byte) error {
	args := m.Called(ctx, objectName, data)
	return args.Error(0)
}

func (m *MockObjectStore) EnsureBucketExists(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
