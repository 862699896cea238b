package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"rentgrid/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type ArchiveServiceTestSuite struct {
	suite.Suite
	auditRepo *MockAuditLogsRepository
	store     *MockObjectStore
	service   ArchiveService
	ctx       context.Context
}

func (suite *ArchiveServiceTestSuite) SetupTest() {
	suite.auditRepo = &MockAuditLogsRepository{}
	suite.store = &MockObjectStore{}
	suite.service = NewArchiveService(suite.auditRepo, suite.store, 90*24*time.Hour)
	suite.ctx = context.Background()
}

func agedEntries(n int) []*models.AuditLog {
	entries := make([]*models.AuditLog, n)
	for i := range entries {
		entries[i] = &models.AuditLog{
			ID:        uuid.New(),
			Action:    models.ActionTenantUpdate,
			CreatedAt: time.Now().AddDate(0, -4, 0),
		}
	}
	return entries
}

func (suite *ArchiveServiceTestSuite) TestArchive_ExportsAndMarks() {
	// Arrange
	batch := agedEntries(3)
	ids := make([]uuid.UUID, len(batch))
	for i, entry := range batch {
		ids[i] = entry.ID
	}

	suite.auditRepo.On("ListUnarchivedBefore", suite.ctx, mock.AnythingOfType("time.Time"), 1000).
		Return(batch, nil).Once()
	suite.store.On("Put", suite.ctx, mock.AnythingOfType("string"), mock.Anything).Return(nil)
	suite.auditRepo.On("MarkArchived", suite.ctx, ids).Return(nil)

	// Act
	err := suite.service.ArchiveAuditLogs(suite.ctx)

	// Assert
	assert.NoError(suite.T(), err)
	suite.store.AssertExpectations(suite.T())
	suite.auditRepo.AssertExpectations(suite.T())
}

func (suite *ArchiveServiceTestSuite) TestArchive_NothingToArchive() {
	suite.auditRepo.On("ListUnarchivedBefore", suite.ctx, mock.Anything, 1000).
		Return([]*models.AuditLog{}, nil)

	err := suite.service.ArchiveAuditLogs(suite.ctx)

	assert.NoError(suite.T(), err)
	suite.store.AssertNotCalled(suite.T(), "Put", mock.Anything, mock.Anything, mock.Anything)
	suite.auditRepo.AssertNotCalled(suite.T(), "MarkArchived", mock.Anything, mock.Anything)
}

func (suite *ArchiveServiceTestSuite) TestArchive_UploadFailureLeavesRowsUnmarked() {
	// Arrange
	batch := agedEntries(2)
	suite.auditRepo.On("ListUnarchivedBefore", suite.ctx, mock.Anything, 1000).Return(batch, nil)
	suite.store.On("Put", suite.ctx, mock.Anything, mock.Anything).Return(errors.New("bucket unavailable"))

	// Act
	err := suite.service.ArchiveAuditLogs(suite.ctx)

	// Assert: the rows stay unarchived for the next run
	assert.Error(suite.T(), err)
	suite.auditRepo.AssertNotCalled(suite.T(), "MarkArchived", mock.Anything, mock.Anything)
}

func TestArchiveServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ArchiveServiceTestSuite))
}
