package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"recordapi/internal/attachment"
	"recordapi/internal/audit"
	"recordapi/internal/model"
	"recordapi/internal/record"
	"recordapi/internal/repository"
	repoMocks "recordapi/internal/repository/mocks"
	"recordapi/internal/schema"
	"recordapi/internal/storage"
	storeMocks "recordapi/internal/storage/mocks"
)

const (
	photoKey   = "photo-aaaaaaaa-2010-01-20T171032"
	variantKey = photoKey + "_160x160"
)

var saveTime = time.Date(2010, 2, 20, 12, 4, 32, 0, time.UTC)

type fakeImages struct{}

func (fakeImages) Rotate(data []byte, _ string, degrees int) ([]byte, error) {
	return append([]byte(fmt.Sprintf("rot%d:", degrees)), data...), nil
}

func (fakeImages) Resize(data []byte, _ string, w, h int) ([]byte, error) {
	return append([]byte(fmt.Sprintf("%dx%d:", w, h)), data...), nil
}

type failingSchema struct{}

func (failingSchema) TrackableFields(context.Context, string) ([]schema.FieldDescriptor, error) {
	return nil, errors.New("schema store offline")
}

func newTestService(mRepo *repoMocks.MockRecordRepository, mStore *storeMocks.MockStorage, schemaProvider schema.Provider) *recordService {
	svc := NewRecordService(mRepo, mStore, Options{
		Schema:              schemaProvider,
		Images:              fakeImages{},
		Clock:               &attachment.FixedClock{T: saveTime},
		FormName:            "basic_details",
		DefaultOrganisation: "UNICEF",
	}).(*recordService)
	svc.nextID = func() string { return "rec-new" }
	return svc
}

func storedDoc() *model.RecordDocument {
	return &model.RecordDocument{
		ID:                  "rec-1",
		Revision:            2,
		CreatedBy:           "jdoe",
		CreatedOrganisation: "stc",
		Fields:              map[string]any{"name": "Ann", "flag": false},
		PhotoKeys:           []string{photoKey},
		Attachments: []model.AttachmentMeta{
			{Name: photoKey, ContentType: "image/png", Size: 5, Digest: attachment.Digest([]byte("photo"))},
			{Name: variantKey, ContentType: "image/png", Size: 3, ParentKey: photoKey},
		},
		Histories: []audit.Entry{{
			Changes:          map[string]audit.Change{audit.CreatedKey: {Kind: audit.Created}},
			UserName:         "jdoe",
			UserOrganisation: "stc",
		}},
	}
}

// echo returns the written document as stored at the next revision.
func echo(_ context.Context, d *model.RecordDocument) *model.RecordDocument {
	out := *d
	out.Revision++
	return &out
}

func body(s string) io.ReadCloser { return io.NopCloser(strings.NewReader(s)) }

func TestRecordService_Create(t *testing.T) {
	ctx := audit.WithUser(context.Background(), audit.User{UserName: "field_worker", Organisation: "unicef"})

	photo := attachment.BytesUpload{Filename: "face.png", Type: "image/png", Data: []byte("photo")}
	audio := attachment.BytesUpload{Filename: "voice.mp3", Type: "audio/mpeg", Data: []byte("audio")}

	tests := []struct {
		name       string
		in         CreateInput
		setupMocks func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockRecordRepository)
		wantErr    error
		check      func(t *testing.T, rec *record.Record)
	}{
		{
			name: "happy path",
			in: CreateInput{
				Fields: map[string]any{"name": "Ann", "created_by": "jdoe", "current_photo_key": "face.png"},
				Photos: []attachment.Upload{photo},
				Audio:  audio,
			},
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockRecordRepository) {
				mStore.On("Put", mock.Anything, mock.MatchedBy(func(key string) bool {
					return strings.HasPrefix(key, "records/rec-new/photo-") || key == "records/rec-new/audio-2010-02-20T120432"
				}), mock.Anything, mock.Anything).Return(storage.ObjectInfo{}, nil).Twice()
				mRepo.On("Create", mock.Anything, mock.MatchedBy(func(d *model.RecordDocument) bool {
					return d.ID == "rec-new" && len(d.Histories) == 1
				})).Return(echo, nil)
			},
			check: func(t *testing.T, rec *record.Record) {
				assert.Equal(t, "rec-new", rec.ID)
				assert.Equal(t, int64(1), rec.Revision)
				require.Len(t, rec.PhotoKeys, 1)
				assert.Equal(t, rec.PhotoKeys[0], rec.PrimaryPhotoID)
				require.Len(t, rec.Histories, 1)
				entry := rec.Histories[0]
				assert.Nil(t, entry.Datetime)
				assert.Equal(t, "jdoe", entry.UserName)
				assert.Equal(t, "unicef", entry.UserOrganisation)
				assert.Contains(t, entry.Changes, audit.CreatedKey)
				assert.Empty(t, rec.Attachments.Pending())
				require.NotNil(t, rec.Audio())
				assert.Equal(t, "audio-2010-02-20T120432", rec.AudioAttachments["mp3"])
			},
		},
		{
			name: "keyed photos without current_photo_key",
			in: CreateInput{
				Fields: map[string]any{"name": "Ann"},
				KeyedPhotos: map[string]attachment.Upload{
					"1": attachment.BytesUpload{Filename: "b.png", Type: "image/png", Data: []byte("photo B")},
					"0": attachment.BytesUpload{Filename: "a.png", Type: "image/png", Data: []byte("photo A")},
				},
			},
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockRecordRepository) {
				mStore.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(storage.ObjectInfo{}, nil).Twice()
				mRepo.On("Create", mock.Anything, mock.Anything).Return(echo, nil)
			},
			check: func(t *testing.T, rec *record.Record) {
				photos := rec.Photos()
				require.Len(t, photos, 2)
				assert.Equal(t, "photo-"+attachment.Digest([]byte("photo A"))[:8]+"-2010-02-20T120432", photos[0].Name)
				assert.Equal(t, photos[0].Name, rec.PrimaryPhoto().Name)
			},
		},
		{
			name: "unsupported photo is rejected before any write",
			in: CreateInput{
				Photos: []attachment.Upload{attachment.BytesUpload{Filename: "notes.txt", Type: "text/plain", Data: []byte("x")}},
			},
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockRecordRepository) {},
			wantErr:    attachment.ErrUnsupportedFormat,
		},
		{
			name: "document write fails and uploads are rolled back",
			in:   CreateInput{Fields: map[string]any{"name": "Ann"}, Photos: []attachment.Upload{photo}},
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockRecordRepository) {
				mStore.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(storage.ObjectInfo{}, nil).Once()
				mRepo.On("Create", mock.Anything, mock.Anything).Return(nil, errors.New("db down"))
				mStore.On("Delete", mock.Anything, mock.MatchedBy(func(key string) bool {
					return strings.HasPrefix(key, "records/rec-new/photo-")
				})).Return(nil).Once()
			},
			wantErr: ErrPersistence,
		},
		{
			name: "storage fails before the document is written",
			in:   CreateInput{Photos: []attachment.Upload{photo}},
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockRecordRepository) {
				mStore.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(storage.ObjectInfo{}, errors.New("bucket gone"))
			},
			wantErr: ErrPersistence,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mStore := new(storeMocks.MockStorage)
			mRepo := new(repoMocks.MockRecordRepository)
			tt.setupMocks(mStore, mRepo)

			svc := newTestService(mRepo, mStore, schema.StaticProvider{{Name: "name"}})
			rec, err := svc.Create(ctx, tt.in)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, rec)
			} else {
				require.NoError(t, err)
				tt.check(t, rec)
			}
			mStore.AssertExpectations(t)
			mRepo.AssertExpectations(t)
			mRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
		})
	}
}

func TestRecordService_Update(t *testing.T) {
	user := audit.User{UserName: "editor", Organisation: "unicef"}
	baseCtx := audit.WithUser(context.Background(), user)

	tests := []struct {
		name        string
		ctx         context.Context
		schema      schema.Provider
		fields      map[string]any
		updateErr   error
		wantErr     error
		wantEntries int
		checkEntry  func(t *testing.T, e audit.Entry)
	}{
		{
			name:        "changed field is logged",
			ctx:         baseCtx,
			schema:      schema.StaticProvider{{Name: "name"}},
			fields:      map[string]any{"name": "Bob"},
			wantEntries: 2,
			checkEntry: func(t *testing.T, e audit.Entry) {
				assert.Equal(t, audit.Change{Kind: audit.ValueChange, From: "Ann", To: "Bob"}, e.Changes["name"])
				require.NotNil(t, e.Datetime)
				assert.Equal(t, "2010-02-20 12:04:32UTC", *e.Datetime)
				assert.Equal(t, "editor", e.UserName)
				assert.Equal(t, "unicef", e.UserOrganisation)
			},
		},
		{
			name:        "two changed fields share one entry",
			ctx:         baseCtx,
			schema:      schema.StaticProvider{{Name: "name"}},
			fields:      map[string]any{"name": "Bob", "flag": true},
			wantEntries: 2,
			checkEntry: func(t *testing.T, e audit.Entry) {
				assert.Len(t, e.Changes, 2)
				assert.Equal(t, audit.Change{Kind: audit.ValueChange, From: "Ann", To: "Bob"}, e.Changes["name"])
				assert.Equal(t, audit.Change{Kind: audit.ValueChange, From: false, To: true}, e.Changes["flag"])
			},
		},
		{
			name:        "whitespace only edit is not logged",
			ctx:         baseCtx,
			schema:      schema.StaticProvider{{Name: "name"}},
			fields:      map[string]any{"name": "  Ann "},
			wantEntries: 1,
		},
		{
			name:        "untracked field is not logged",
			ctx:         baseCtx,
			schema:      schema.StaticProvider{{Name: "name"}},
			fields:      map[string]any{"nickname": "Annie"},
			wantEntries: 1,
		},
		{
			name:        "suppressed context writes no entry",
			ctx:         audit.WithoutHistories(baseCtx),
			schema:      schema.StaticProvider{{Name: "name"}},
			fields:      map[string]any{"name": "Bob"},
			wantEntries: 1,
		},
		{
			name:        "schema failure falls back to default fields",
			ctx:         baseCtx,
			schema:      failingSchema{},
			fields:      map[string]any{"name": "Bob", "flag": true},
			wantEntries: 2,
			checkEntry: func(t *testing.T, e audit.Entry) {
				assert.Contains(t, e.Changes, "flag")
				assert.NotContains(t, e.Changes, "name")
			},
		},
		{
			name:        "unknown user falls back to creator",
			ctx:         context.Background(),
			schema:      schema.StaticProvider{{Name: "name"}},
			fields:      map[string]any{"name": "Bob"},
			wantEntries: 2,
			checkEntry: func(t *testing.T, e audit.Entry) {
				assert.Equal(t, "jdoe", e.UserName)
				assert.Equal(t, "stc", e.UserOrganisation)
			},
		},
		{
			name:      "conflict leaves nothing committed",
			ctx:       baseCtx,
			schema:    schema.StaticProvider{{Name: "name"}},
			fields:    map[string]any{"name": "Bob"},
			updateErr: repository.ErrConflict,
			wantErr:   ErrPersistence,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mStore := new(storeMocks.MockStorage)
			mRepo := new(repoMocks.MockRecordRepository)
			mRepo.On("FindByID", tt.ctx, "rec-1").Return(storedDoc(), nil)
			var written *model.RecordDocument
			capture := mock.MatchedBy(func(d *model.RecordDocument) bool { written = d; return true })
			if tt.updateErr != nil {
				mRepo.On("Update", mock.Anything, capture).Return(nil, tt.updateErr)
			} else {
				mRepo.On("Update", mock.Anything, capture).Return(echo, nil)
			}

			svc := newTestService(mRepo, mStore, tt.schema)
			rec, err := svc.Update(tt.ctx, "rec-1", tt.fields)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.ErrorIs(t, err, tt.updateErr)
				assert.Nil(t, rec)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, int64(3), rec.Revision)
			require.Len(t, rec.Histories, tt.wantEntries)
			assert.Equal(t, written.Histories, rec.Histories)
			assert.Contains(t, rec.Histories[len(rec.Histories)-1].Changes, audit.CreatedKey)
			if tt.checkEntry != nil {
				tt.checkEntry(t, rec.Histories[0])
			}
			mStore.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestRecordService_CreateWithoutHistories(t *testing.T) {
	ctx := audit.WithoutHistories(audit.WithUser(context.Background(), audit.User{UserName: "importer"}))
	mStore := new(storeMocks.MockStorage)
	mRepo := new(repoMocks.MockRecordRepository)
	mRepo.On("Create", mock.Anything, mock.MatchedBy(func(d *model.RecordDocument) bool {
		return len(d.Histories) == 0
	})).Return(echo, nil).Once()

	svc := newTestService(mRepo, mStore, schema.StaticProvider{{Name: "name"}})
	rec, err := svc.Create(ctx, CreateInput{Fields: map[string]any{"name": "Ann"}})

	require.NoError(t, err)
	assert.Equal(t, "rec-new", rec.ID)
	assert.Empty(t, rec.Histories)
	mRepo.AssertExpectations(t)
}

func TestRecordService_SequentialSaves(t *testing.T) {
	ctx := audit.WithUser(context.Background(), audit.User{UserName: "editor", Organisation: "unicef"})
	mStore := new(storeMocks.MockStorage)
	mRepo := new(repoMocks.MockRecordRepository)
	mRepo.On("FindByID", ctx, "rec-1").Return(storedDoc(), nil).Once()
	mRepo.On("Update", mock.Anything, mock.Anything).Return(echo, nil)

	svc := newTestService(mRepo, mStore, schema.StaticProvider{{Name: "name"}})
	rec, err := svc.Get(ctx, "rec-1")
	require.NoError(t, err)

	rec.Set("name", "Bob")
	require.NoError(t, svc.Save(ctx, rec))
	rec.Set("name", "Cy")
	require.NoError(t, svc.Save(ctx, rec))

	require.Len(t, rec.Histories, 3)
	assert.Equal(t, audit.Change{Kind: audit.ValueChange, From: "Bob", To: "Cy"}, rec.Histories[0].Changes["name"])
	assert.Equal(t, audit.Change{Kind: audit.ValueChange, From: "Ann", To: "Bob"}, rec.Histories[1].Changes["name"])
	assert.Contains(t, rec.Histories[2].Changes, audit.CreatedKey)
	assert.Equal(t, int64(4), rec.Revision)

	rec.Set("name", " Cy  ")
	require.NoError(t, svc.Save(ctx, rec))
	assert.Len(t, rec.Histories, 3)
	assert.Equal(t, int64(5), rec.Revision)
}

func TestRecordService_Get(t *testing.T) {
	ctx := context.Background()

	t.Run("not found", func(t *testing.T) {
		mRepo := new(repoMocks.MockRecordRepository)
		mRepo.On("FindByID", ctx, "missing").Return(nil, sql.ErrNoRows)

		svc := newTestService(mRepo, new(storeMocks.MockStorage), nil)
		rec, err := svc.Get(ctx, "missing")

		assert.ErrorIs(t, err, ErrNotFound)
		assert.Nil(t, rec)
	})

	t.Run("id required", func(t *testing.T) {
		svc := newTestService(new(repoMocks.MockRecordRepository), new(storeMocks.MockStorage), nil)
		_, err := svc.Get(ctx, "")
		assert.ErrorIs(t, err, ErrIDRequired)
	})
}

func TestRecordService_DeletePhotos(t *testing.T) {
	ctx := context.Background()
	mStore := new(storeMocks.MockStorage)
	mRepo := new(repoMocks.MockRecordRepository)

	mRepo.On("FindByID", ctx, "rec-1").Return(storedDoc(), nil)
	mRepo.On("Update", mock.Anything, mock.MatchedBy(func(d *model.RecordDocument) bool {
		return len(d.PhotoKeys) == 0 && len(d.Attachments) == 0
	})).Return(echo, nil)
	mStore.On("Delete", mock.Anything, "records/rec-1/"+photoKey).Return(nil).Once()
	mStore.On("Delete", mock.Anything, "records/rec-1/"+variantKey).Return(errors.New("flaky")).Once()

	svc := newTestService(mRepo, mStore, nil)
	rec, err := svc.DeletePhotos(ctx, "rec-1", []string{photoKey})

	require.NoError(t, err)
	assert.Empty(t, rec.PhotoKeys)
	assert.Nil(t, rec.PrimaryPhoto())
	require.Len(t, rec.Histories, 2)
	change := rec.Histories[0].Changes[audit.PhotoKeysField]
	assert.Equal(t, []string{photoKey}, change.Deleted)
	mStore.AssertExpectations(t)
}

func TestRecordService_RotatePhoto(t *testing.T) {
	ctx := context.Background()
	mStore := new(storeMocks.MockStorage)
	mRepo := new(repoMocks.MockRecordRepository)

	mRepo.On("FindByID", ctx, "rec-1").Return(storedDoc(), nil)
	mStore.On("Get", ctx, "records/rec-1/"+photoKey).Return(body("photo"), storage.ObjectInfo{}, nil)
	mStore.On("Put", mock.Anything, mock.MatchedBy(func(key string) bool {
		return strings.HasPrefix(key, "records/rec-1/photo-") && strings.HasSuffix(key, "-2010-02-20T120432")
	}), mock.Anything, mock.Anything).Return(storage.ObjectInfo{}, nil).Once()
	mRepo.On("Update", mock.Anything, mock.Anything).Return(echo, nil)
	mStore.On("Delete", mock.Anything, "records/rec-1/"+photoKey).Return(nil)
	mStore.On("Delete", mock.Anything, "records/rec-1/"+variantKey).Return(nil)

	svc := newTestService(mRepo, mStore, nil)
	rec, err := svc.RotatePhoto(ctx, "rec-1", 90)

	require.NoError(t, err)
	require.Len(t, rec.PhotoKeys, 1)
	assert.NotEqual(t, photoKey, rec.PhotoKeys[0])
	assert.Equal(t, rec.PhotoKeys[0], rec.PrimaryPhoto().Name)
	assert.Equal(t, []byte("rot90:photo"), rec.PrimaryPhoto().Data)
	assert.False(t, rec.Attachments.Has(variantKey))
	mStore.AssertExpectations(t)
}

func TestRecordService_PhotoVariant(t *testing.T) {
	ctx := context.Background()

	t.Run("existing variant is served from storage", func(t *testing.T) {
		mStore := new(storeMocks.MockStorage)
		mRepo := new(repoMocks.MockRecordRepository)
		mRepo.On("FindByID", ctx, "rec-1").Return(storedDoc(), nil)
		mStore.On("Get", ctx, "records/rec-1/"+variantKey).Return(body("thumb"), storage.ObjectInfo{}, nil)

		svc := newTestService(mRepo, mStore, nil)
		v, err := svc.PhotoVariant(ctx, "rec-1", photoKey, 160, 160)

		require.NoError(t, err)
		assert.Equal(t, []byte("thumb"), v.Data)
		mRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("missing variant is generated and stored", func(t *testing.T) {
		mStore := new(storeMocks.MockStorage)
		mRepo := new(repoMocks.MockRecordRepository)
		mRepo.On("FindByID", ctx, "rec-1").Return(storedDoc(), nil)
		mStore.On("Get", ctx, "records/rec-1/"+photoKey).Return(body("photo"), storage.ObjectInfo{}, nil)
		mStore.On("Put", mock.Anything, "records/rec-1/"+photoKey+"_328", mock.Anything, mock.Anything).
			Return(storage.ObjectInfo{}, nil)
		mRepo.On("Update", mock.Anything, mock.MatchedBy(func(d *model.RecordDocument) bool {
			return len(d.Histories) == 1
		})).Return(echo, nil)

		svc := newTestService(mRepo, mStore, nil)
		v, err := svc.PhotoVariant(ctx, "rec-1", photoKey, 328, 0)

		require.NoError(t, err)
		assert.Equal(t, photoKey+"_328", v.Name)
		assert.Equal(t, photoKey, v.ParentKey)
		assert.Equal(t, []byte("328x0:photo"), v.Data)
		mStore.AssertExpectations(t)
		mRepo.AssertExpectations(t)
	})

	t.Run("size not offered is refused before loading", func(t *testing.T) {
		mRepo := new(repoMocks.MockRecordRepository)
		mStore := new(storeMocks.MockStorage)

		svc := newTestService(mRepo, mStore, nil)
		v, err := svc.PhotoVariant(ctx, "rec-1", photoKey, 4096, 4096)

		assert.ErrorIs(t, err, ErrVariantSize)
		assert.Nil(t, v)
		mRepo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
		mRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("configured sizes replace the defaults", func(t *testing.T) {
		mRepo := new(repoMocks.MockRecordRepository)
		mRepo.On("FindByID", ctx, "rec-1").Return(storedDoc(), nil)

		svc := newTestService(mRepo, new(storeMocks.MockStorage), nil)
		svc.opts.VariantSizes = []VariantSize{{Width: 64, Height: 64}}

		_, err := svc.PhotoVariant(ctx, "rec-1", photoKey, 160, 160)
		assert.ErrorIs(t, err, ErrVariantSize)

		_, err = svc.PhotoVariant(ctx, "rec-1", "photo-nope", 64, 64)
		assert.ErrorIs(t, err, ErrAttachmentNotFound)
	})

	t.Run("unknown photo", func(t *testing.T) {
		mRepo := new(repoMocks.MockRecordRepository)
		mRepo.On("FindByID", ctx, "rec-1").Return(storedDoc(), nil)

		svc := newTestService(mRepo, new(storeMocks.MockStorage), nil)
		_, err := svc.PhotoVariant(ctx, "rec-1", "photo-nope", 160, 160)

		assert.ErrorIs(t, err, ErrAttachmentNotFound)
	})
}

func TestParseVariantSize(t *testing.T) {
	tests := []struct {
		in      string
		want    VariantSize
		wantErr bool
	}{
		{in: "328", want: VariantSize{Width: 328}},
		{in: "160x160", want: VariantSize{Width: 160, Height: 160}},
		{in: " 64X48 ", want: VariantSize{Width: 64, Height: 48}},
		{in: "0", wantErr: true},
		{in: "160x", wantErr: true},
		{in: "x160", wantErr: true},
		{in: "big", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseVariantSize(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrVariantSize)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRecordService_Audio(t *testing.T) {
	ctx := context.Background()

	t.Run("never set", func(t *testing.T) {
		mRepo := new(repoMocks.MockRecordRepository)
		mRepo.On("FindByID", ctx, "rec-1").Return(storedDoc(), nil)

		svc := newTestService(mRepo, new(storeMocks.MockStorage), nil)
		a, err := svc.Audio(ctx, "rec-1")

		assert.ErrorIs(t, err, ErrAttachmentNotFound)
		assert.Nil(t, a)
	})

	t.Run("replacing keeps the previous recording by default", func(t *testing.T) {
		doc := storedDoc()
		doc.AudioAttachments = map[string]string{"original": "audio-2010-01-01T000000", "mp3": "audio-2010-01-01T000000"}
		doc.Attachments = append(doc.Attachments, model.AttachmentMeta{Name: "audio-2010-01-01T000000", ContentType: "audio/mpeg"})

		mStore := new(storeMocks.MockStorage)
		mRepo := new(repoMocks.MockRecordRepository)
		mRepo.On("FindByID", ctx, "rec-1").Return(doc, nil)
		mStore.On("Put", mock.Anything, "records/rec-1/audio-2010-02-20T120432", mock.Anything, mock.Anything).
			Return(storage.ObjectInfo{}, nil)
		mRepo.On("Update", mock.Anything, mock.Anything).Return(echo, nil)

		svc := newTestService(mRepo, mStore, nil)
		rec, err := svc.SetAudio(ctx, "rec-1", attachment.BytesUpload{Filename: "new.mp3", Type: "audio/mpeg", Data: []byte("new")})

		require.NoError(t, err)
		assert.Equal(t, "audio-2010-02-20T120432", rec.Audio().Name)
		assert.True(t, rec.Attachments.Has("audio-2010-01-01T000000"))
		mStore.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})
}

func TestRecordService_List(t *testing.T) {
	ctx := context.Background()
	mRepo := new(repoMocks.MockRecordRepository)
	mRepo.On("List", ctx, repository.PageQuery{Limit: 10, Offset: 0}).
		Return(&repository.PageResult[model.RecordDocument]{Items: []model.RecordDocument{*storedDoc()}, Total: 1}, nil)

	svc := newTestService(mRepo, new(storeMocks.MockStorage), nil)
	res, err := svc.List(ctx, 0, -5)

	require.NoError(t, err)
	assert.Equal(t, 1, res.Total)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "rec-1", res.Items[0].ID)
}

func TestRecordService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("removes document then bytes", func(t *testing.T) {
		mStore := new(storeMocks.MockStorage)
		mRepo := new(repoMocks.MockRecordRepository)
		mRepo.On("FindByID", ctx, "rec-1").Return(storedDoc(), nil)
		mRepo.On("Delete", ctx, "rec-1").Return(nil)
		mStore.On("Delete", mock.Anything, "records/rec-1/"+photoKey).Return(nil)
		mStore.On("Delete", mock.Anything, "records/rec-1/"+variantKey).Return(nil)

		svc := newTestService(mRepo, mStore, nil)
		require.NoError(t, svc.Delete(ctx, "rec-1"))
		mStore.AssertExpectations(t)
	})

	t.Run("document delete failure keeps bytes", func(t *testing.T) {
		mStore := new(storeMocks.MockStorage)
		mRepo := new(repoMocks.MockRecordRepository)
		mRepo.On("FindByID", ctx, "rec-1").Return(storedDoc(), nil)
		mRepo.On("Delete", ctx, "rec-1").Return(errors.New("db down"))

		svc := newTestService(mRepo, mStore, nil)
		assert.Error(t, svc.Delete(ctx, "rec-1"))
		mStore.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})
}

func TestRecordService_AttachmentURL(t *testing.T) {
	ctx := context.Background()
	mStore := new(storeMocks.MockStorage)
	mRepo := new(repoMocks.MockRecordRepository)
	mRepo.On("FindByID", ctx, "rec-1").Return(storedDoc(), nil)
	mStore.On("PresignGet", ctx, "records/rec-1/"+photoKey, time.Hour).Return("https://minio.local/signed", nil)

	svc := newTestService(mRepo, mStore, nil)

	url, err := svc.AttachmentURL(ctx, "rec-1", photoKey, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, "https://minio.local/signed", url)

	_, err = svc.AttachmentURL(ctx, "rec-1", "audio-missing", time.Hour)
	assert.ErrorIs(t, err, ErrAttachmentNotFound)
	mStore.AssertExpectations(t)
}
