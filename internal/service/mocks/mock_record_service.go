package mocks

import (
	"context"
	"time"

	"recordapi/internal/attachment"
	"recordapi/internal/audit"
	"recordapi/internal/record"
	"recordapi/internal/service"

	"github.com/stretchr/testify/mock"
)

type MockRecordService struct {
	mock.Mock
}

func (m *MockRecordService) record(args mock.Arguments) (*record.Record, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*record.Record), args.Error(1)
}

func (m *MockRecordService) attachment(args mock.Arguments) (*attachment.Attachment, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*attachment.Attachment), args.Error(1)
}

func (m *MockRecordService) Create(ctx context.Context, in service.CreateInput) (*record.Record, error) {
	return m.record(m.Called(ctx, in))
}

func (m *MockRecordService) Get(ctx context.Context, id string) (*record.Record, error) {
	return m.record(m.Called(ctx, id))
}

func (m *MockRecordService) Save(ctx context.Context, rec *record.Record) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *MockRecordService) Update(ctx context.Context, id string, fields map[string]any) (*record.Record, error) {
	return m.record(m.Called(ctx, id, fields))
}

func (m *MockRecordService) AddPhotos(ctx context.Context, id string, photos []attachment.Upload) (*record.Record, error) {
	return m.record(m.Called(ctx, id, photos))
}

func (m *MockRecordService) DeletePhotos(ctx context.Context, id string, names []string) (*record.Record, error) {
	return m.record(m.Called(ctx, id, names))
}

func (m *MockRecordService) RotatePhoto(ctx context.Context, id string, degrees int) (*record.Record, error) {
	return m.record(m.Called(ctx, id, degrees))
}

func (m *MockRecordService) SetPrimaryPhoto(ctx context.Context, id, name string) (*record.Record, error) {
	return m.record(m.Called(ctx, id, name))
}

func (m *MockRecordService) SetAudio(ctx context.Context, id string, audio attachment.Upload) (*record.Record, error) {
	return m.record(m.Called(ctx, id, audio))
}

func (m *MockRecordService) Audio(ctx context.Context, id string) (*attachment.Attachment, error) {
	return m.attachment(m.Called(ctx, id))
}

func (m *MockRecordService) PrimaryPhoto(ctx context.Context, id string) (*attachment.Attachment, error) {
	return m.attachment(m.Called(ctx, id))
}

func (m *MockRecordService) OpenAttachment(ctx context.Context, id, name string) (*attachment.Attachment, error) {
	return m.attachment(m.Called(ctx, id, name))
}

func (m *MockRecordService) PhotoVariant(ctx context.Context, id, name string, width, height int) (*attachment.Attachment, error) {
	return m.attachment(m.Called(ctx, id, name, width, height))
}

func (m *MockRecordService) AttachmentURL(ctx context.Context, id, name string, expiry time.Duration) (string, error) {
	args := m.Called(ctx, id, name, expiry)
	return args.String(0), args.Error(1)
}

func (m *MockRecordService) Histories(ctx context.Context, id string) ([]audit.Entry, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]audit.Entry), args.Error(1)
}

func (m *MockRecordService) List(ctx context.Context, limit, offset int) (*service.RecordListResult, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.RecordListResult), args.Error(1)
}

func (m *MockRecordService) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
