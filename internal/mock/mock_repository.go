package mock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/metaflame/pkg/model"
)

// MockExportRepository is a mock implementation of ExportRepository.
type MockExportRepository struct {
	mock.Mock
}

// Create mocks the Create method.
func (m *MockExportRepository) Create(ctx context.Context, exp *model.Export) error {
	args := m.Called(ctx, exp)
	return args.Error(0)
}

// Get mocks the Get method.
func (m *MockExportRepository) Get(ctx context.Context, id int64) (*model.Export, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Export), args.Error(1)
}

// List mocks the List method.
func (m *MockExportRepository) List(ctx context.Context, dataset string, limit int) ([]*model.Export, error) {
	args := m.Called(ctx, dataset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Export), args.Error(1)
}

// ExpectCreate sets up an expectation for Create with any export.
func (m *MockExportRepository) ExpectCreate(err error) *mock.Call {
	return m.On("Create", mock.Anything, mock.AnythingOfType("*model.Export")).Return(err)
}

// ExpectList sets up an expectation for List.
func (m *MockExportRepository) ExpectList(dataset string, limit int, exports []*model.Export, err error) *mock.Call {
	return m.On("List", mock.Anything, dataset, limit).Return(exports, err)
}
