package mocks

import (
	"context"

	"recordapi/internal/model"
	"recordapi/internal/repository"

	"github.com/stretchr/testify/mock"
)

type MockRecordRepository struct {
	mock.Mock
}

func (m *MockRecordRepository) Create(ctx context.Context, doc *model.RecordDocument) (*model.RecordDocument, error) {
	args := m.Called(ctx, doc)
	if f, ok := args.Get(0).(func(context.Context, *model.RecordDocument) *model.RecordDocument); ok {
		return f(ctx, doc), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.RecordDocument), args.Error(1)
}

func (m *MockRecordRepository) FindByID(ctx context.Context, id string) (*model.RecordDocument, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.RecordDocument), args.Error(1)
}

func (m *MockRecordRepository) Reload(ctx context.Context, id string) (*model.RecordDocument, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.RecordDocument), args.Error(1)
}

func (m *MockRecordRepository) Update(ctx context.Context, doc *model.RecordDocument) (*model.RecordDocument, error) {
	args := m.Called(ctx, doc)
	if f, ok := args.Get(0).(func(context.Context, *model.RecordDocument) *model.RecordDocument); ok {
		return f(ctx, doc), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.RecordDocument), args.Error(1)
}

func (m *MockRecordRepository) List(ctx context.Context, pq repository.PageQuery) (*repository.PageResult[model.RecordDocument], error) {
	args := m.Called(ctx, pq)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PageResult[model.RecordDocument]), args.Error(1)
}

func (m *MockRecordRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
