package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"recordapi/internal/attachment"
	"recordapi/internal/audit"
	"recordapi/internal/logger"
	"recordapi/internal/model"
	"recordapi/internal/record"
	"recordapi/internal/repository"
	"recordapi/internal/schema"
	"recordapi/internal/storage"
)

var tracer = otel.Tracer("recordapi/internal/service")

var (
	ErrIDRequired         = errors.New("id is required")
	ErrNotFound           = errors.New("record not found")
	ErrAttachmentNotFound = errors.New("attachment not found")
	ErrVariantSize        = errors.New("photo size is not offered")

	// ErrPersistence wraps any failure to write a record or its attachment bytes.
	ErrPersistence = errors.New("record could not be saved")
)

// VariantSize is a resized photo PhotoVariant may generate. A zero Height keeps the aspect ratio.
type VariantSize struct {
	Width  int
	Height int
}

// DefaultVariantSizes are the list thumbnail and the square profile picture.
var DefaultVariantSizes = []VariantSize{{Width: 328}, {Width: 160, Height: 160}}

// ParseVariantSize reads "W" or "WxH".
func ParseVariantSize(s string) (VariantSize, error) {
	w, h, hasHeight := strings.Cut(strings.ToLower(strings.TrimSpace(s)), "x")
	var out VariantSize
	var err error
	if out.Width, err = strconv.Atoi(w); err != nil || out.Width <= 0 {
		return VariantSize{}, fmt.Errorf("%w: %q", ErrVariantSize, s)
	}
	if hasHeight {
		if out.Height, err = strconv.Atoi(h); err != nil || out.Height <= 0 {
			return VariantSize{}, fmt.Errorf("%w: %q", ErrVariantSize, s)
		}
	}
	return out, nil
}

// RecordListResult is the service-level DTO for paginated records.
type RecordListResult struct {
	Items []*record.Record
	Total int
}

// CreateInput carries everything submitted when a record is first created.
type CreateInput struct {
	Fields map[string]any
	Photos []attachment.Upload
	// KeyedPhotos are photos submitted as photo[0], photo[1]... and are added after Photos in
	// numeric key order.
	KeyedPhotos map[string]attachment.Upload
	Audio       attachment.Upload
}

// RecordService defines the use cases for handling records and their attachments.
// Every mutating call loads the record, applies the change and runs the save lifecycle.
type RecordService interface {
	// Create builds a record from form input and saves it. It writes the creation history entry.
	Create(ctx context.Context, in CreateInput) (*record.Record, error)

	// Get loads a record. Attachment bytes are fetched on demand.
	Get(ctx context.Context, id string) (*record.Record, error)

	// Save validates rec, records the changes since it was loaded, uploads new attachment bytes
	// and persists the document. On failure nothing is committed and rec.Histories is unchanged.
	Save(ctx context.Context, rec *record.Record) error

	// Update assigns fields and saves.
	Update(ctx context.Context, id string, fields map[string]any) (*record.Record, error)

	AddPhotos(ctx context.Context, id string, photos []attachment.Upload) (*record.Record, error)
	DeletePhotos(ctx context.Context, id string, names []string) (*record.Record, error)
	RotatePhoto(ctx context.Context, id string, degrees int) (*record.Record, error)
	SetPrimaryPhoto(ctx context.Context, id, name string) (*record.Record, error)
	SetAudio(ctx context.Context, id string, audio attachment.Upload) (*record.Record, error)

	// Audio returns the original recording with its bytes loaded.
	Audio(ctx context.Context, id string) (*attachment.Attachment, error)

	// PrimaryPhoto returns the primary photo with its bytes loaded.
	PrimaryPhoto(ctx context.Context, id string) (*attachment.Attachment, error)

	// OpenAttachment returns any named attachment with its bytes loaded.
	OpenAttachment(ctx context.Context, id, name string) (*attachment.Attachment, error)

	// PhotoVariant returns a resized copy of a photo, generating and saving it on first use.
	// Only the configured sizes are offered; others fail with ErrVariantSize.
	PhotoVariant(ctx context.Context, id, name string, width, height int) (*attachment.Attachment, error)
	// AttachmentURL returns a presigned download link valid for expiry.
	AttachmentURL(ctx context.Context, id, name string, expiry time.Duration) (string, error)

	// Histories returns the history log, most recent first.
	Histories(ctx context.Context, id string) ([]audit.Entry, error)

	List(ctx context.Context, limit, offset int) (*RecordListResult, error)

	// Delete removes the record and then its attachment bytes.
	Delete(ctx context.Context, id string) error
}

// Options configure a RecordService. Zero values fall back to sensible defaults.
type Options struct {
	Schema               schema.Provider
	Images               record.ImageProcessor
	Users                audit.UserProvider
	Clock                attachment.Clock
	Policy               attachment.Policy
	VariantSizes         []VariantSize
	FormName             string
	DefaultOrganisation  string
	PurgeSupersededAudio bool
}

type recordService struct {
	repo   repository.RecordRepository
	store  storage.Storage
	opts   Options
	log    *logrus.Entry
	nextID func() string
}

// NewRecordService constructs a new RecordService.
func NewRecordService(repo repository.RecordRepository, store storage.Storage, opts Options) RecordService {
	if opts.Users == nil {
		opts.Users = audit.ContextUsers{}
	}
	if opts.Clock == nil {
		opts.Clock = attachment.SystemClock{}
	}
	if opts.Policy.MaxBytes == 0 {
		opts.Policy = attachment.DefaultPolicy()
	}
	if opts.Schema == nil {
		opts.Schema = schema.StaticProvider(nil)
	}
	if len(opts.VariantSizes) == 0 {
		opts.VariantSizes = DefaultVariantSizes
	}
	return &recordService{
		repo:   repo,
		store:  store,
		opts:   opts,
		log:    logger.Component("record_service"),
		nextID: uuid.NewString,
	}
}

func (s *recordService) Create(ctx context.Context, in CreateInput) (*record.Record, error) {
	rec := record.New(in.Fields)
	rec.PurgeSupersededAudio = s.opts.PurgeSupersededAudio
	if err := rec.SetPhotos(s.opts.Clock, in.Photos); err != nil {
		return nil, err
	}
	if len(in.KeyedPhotos) > 0 {
		if err := rec.SetPhotosKeyed(s.opts.Clock, in.KeyedPhotos); err != nil {
			return nil, err
		}
	}
	if in.Audio != nil {
		if err := rec.SetAudio(s.opts.Clock, in.Audio); err != nil {
			return nil, err
		}
	}
	if err := s.Save(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *recordService) Get(ctx context.Context, id string) (*record.Record, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	rec := record.FromDocument(*doc)
	rec.PurgeSupersededAudio = s.opts.PurgeSupersededAudio
	return rec, nil
}

func (s *recordService) Save(ctx context.Context, rec *record.Record) (err error) {
	start := time.Now()
	creating := rec.IsNew()
	operation := "update"
	if creating {
		operation = "create"
	}
	ctx, span := tracer.Start(ctx, "RecordService.Save")
	defer func() {
		span.SetAttributes(attribute.String("record.id", rec.ID), attribute.String("record.operation", operation))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "save failed")
		}
		span.End()
	}()
	log := s.log.WithFields(logrus.Fields{"event": "record_save", "operation": operation})

	if verr := rec.Validate(s.opts.Policy); verr != nil {
		recordsSavedTotal.WithLabelValues(operation, "invalid").Inc()
		return verr
	}
	if creating && rec.ID == "" {
		rec.ID = s.nextID()
	}
	log = log.WithField("record_id", rec.ID)

	doc := rec.ToDocument()
	entry, logged := s.historyEntry(ctx, rec, creating)
	if logged {
		doc.Histories = audit.Prepend(doc.Histories, entry)
	}

	uploaded, err := s.uploadPending(ctx, rec)
	if err != nil {
		s.rollback(ctx, rec.ID, uploaded)
		recordsSavedTotal.WithLabelValues(operation, "error").Inc()
		log.WithError(err).Error("attachment upload failed")
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	var stored *model.RecordDocument
	if creating {
		stored, err = s.repo.Create(ctx, &doc)
	} else {
		stored, err = s.repo.Update(ctx, &doc)
	}
	if err != nil {
		s.rollback(ctx, rec.ID, uploaded)
		recordsSavedTotal.WithLabelValues(operation, "error").Inc()
		log.WithError(err).Error("document write failed")
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	removed := rec.Attachments.Removed()
	rec.CommitSave(*stored)
	s.purge(ctx, rec.ID, removed)

	if logged {
		historyEntriesTotal.Inc()
	}
	recordsSavedTotal.WithLabelValues(operation, "success").Inc()
	log.WithFields(logrus.Fields{
		"status":      "success",
		"revision":    rec.Revision,
		"uploaded":    len(uploaded),
		"purged":      len(removed),
		"history":     logged,
		"duration_ms": time.Since(start).Milliseconds(),
	}).Info()
	return nil
}

// historyEntry builds the entry for this save. A schema lookup failure degrades to the
// default tracked fields and never blocks the save.
func (s *recordService) historyEntry(ctx context.Context, rec *record.Record, creating bool) (audit.Entry, bool) {
	if audit.Suppressed(ctx) {
		return audit.Entry{}, false
	}
	author := rec.Author(s.opts.DefaultOrganisation)
	if creating {
		return audit.CreationEntry(ctx, s.opts.Users, author), true
	}
	return audit.UpdateEntry(ctx, s.opts.Users, author, rec.Changes(s.trackableFields(ctx)), s.opts.Clock.Now())
}

func (s *recordService) trackableFields(ctx context.Context) []string {
	fields := append([]string(nil), audit.DefaultFields...)
	descs, err := s.opts.Schema.TrackableFields(ctx, s.opts.FormName)
	if err != nil {
		s.log.WithFields(logrus.Fields{"event": "schema_lookup", "form": s.opts.FormName}).
			WithError(err).Warn("falling back to default tracked fields")
		return fields
	}
	return append(fields, schema.Names(descs)...)
}

func (s *recordService) uploadPending(ctx context.Context, rec *record.Record) ([]string, error) {
	var uploaded []string
	for _, a := range rec.Attachments.Pending() {
		key := storage.AttachmentKey(rec.ID, a.Name)
		_, err := s.store.Put(ctx, key, bytes.NewReader(a.Data), storage.PutObjectOptions{
			Size:        a.Size,
			ContentType: a.ContentType,
			Metadata:    map[string]string{"digest": a.Digest},
		})
		if err != nil {
			return uploaded, fmt.Errorf("upload %s: %w", a.Name, err)
		}
		uploaded = append(uploaded, key)
		attachmentBytesTotal.WithLabelValues(attachmentKind(a)).Add(float64(a.Size))
	}
	return uploaded, nil
}

func (s *recordService) rollback(ctx context.Context, id string, keys []string) {
	for _, key := range keys {
		if err := s.store.Delete(ctx, key); err != nil {
			s.log.WithFields(logrus.Fields{"event": "attachment_rollback", "record_id": id, "key": key}).
				WithError(err).Warn("rollback delete failed")
		}
	}
}

// purge deletes bytes of attachments the record no longer references. Failures leave orphans
// and are only logged since the document is already committed.
func (s *recordService) purge(ctx context.Context, id string, names []string) {
	for _, name := range names {
		key := storage.AttachmentKey(id, name)
		if err := s.store.Delete(ctx, key); err != nil {
			s.log.WithFields(logrus.Fields{"event": "attachment_purge", "record_id": id, "key": key}).
				WithError(err).Warn("purge failed")
		}
	}
}

// mutate loads a record, applies fn and saves it.
func (s *recordService) mutate(ctx context.Context, id string, fn func(*record.Record) error) (*record.Record, error) {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(rec); err != nil {
		return nil, err
	}
	if err := s.Save(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *recordService) Update(ctx context.Context, id string, fields map[string]any) (*record.Record, error) {
	return s.mutate(ctx, id, func(rec *record.Record) error {
		for k, v := range fields {
			rec.Set(k, v)
		}
		return nil
	})
}

func (s *recordService) AddPhotos(ctx context.Context, id string, photos []attachment.Upload) (*record.Record, error) {
	return s.mutate(ctx, id, func(rec *record.Record) error {
		return rec.SetPhotos(s.opts.Clock, photos)
	})
}

func (s *recordService) DeletePhotos(ctx context.Context, id string, names []string) (*record.Record, error) {
	return s.mutate(ctx, id, func(rec *record.Record) error {
		rec.DeletePhotos(names)
		return nil
	})
}

func (s *recordService) RotatePhoto(ctx context.Context, id string, degrees int) (*record.Record, error) {
	return s.mutate(ctx, id, func(rec *record.Record) error {
		primary := rec.PrimaryPhoto()
		if primary == nil {
			return record.ErrNoPrimaryPhoto
		}
		if err := s.load(ctx, rec.ID, primary); err != nil {
			return err
		}
		return rec.RotatePhoto(s.opts.Clock, s.opts.Images, degrees)
	})
}

func (s *recordService) SetPrimaryPhoto(ctx context.Context, id, name string) (*record.Record, error) {
	return s.mutate(ctx, id, func(rec *record.Record) error {
		return rec.SetPrimaryPhoto(name)
	})
}

func (s *recordService) SetAudio(ctx context.Context, id string, audio attachment.Upload) (*record.Record, error) {
	return s.mutate(ctx, id, func(rec *record.Record) error {
		return rec.SetAudio(s.opts.Clock, audio)
	})
}

func (s *recordService) Audio(ctx context.Context, id string) (*attachment.Attachment, error) {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	a := rec.Audio()
	if a == nil {
		return nil, ErrAttachmentNotFound
	}
	return a, s.load(ctx, rec.ID, a)
}

func (s *recordService) PrimaryPhoto(ctx context.Context, id string) (*attachment.Attachment, error) {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	a := rec.PrimaryPhoto()
	if a == nil {
		return nil, ErrAttachmentNotFound
	}
	return a, s.load(ctx, rec.ID, a)
}

func (s *recordService) OpenAttachment(ctx context.Context, id, name string) (*attachment.Attachment, error) {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	a := rec.Attachments.Get(name)
	if a == nil {
		return nil, fmt.Errorf("%w: %s", ErrAttachmentNotFound, name)
	}
	return a, s.load(ctx, rec.ID, a)
}

func (s *recordService) PhotoVariant(ctx context.Context, id, name string, width, height int) (*attachment.Attachment, error) {
	if !slices.Contains(s.opts.VariantSizes, VariantSize{Width: width, Height: height}) {
		return nil, fmt.Errorf("%w: %dx%d", ErrVariantSize, width, height)
	}
	rec, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	v, created, err := rec.PhotoVariant(s.opts.Images, name, width, height)
	if errors.Is(err, record.ErrNotLoaded) {
		if err := s.load(ctx, rec.ID, rec.Attachments.Get(name)); err != nil {
			return nil, err
		}
		v, created, err = rec.PhotoVariant(s.opts.Images, name, width, height)
	}
	if err != nil {
		if errors.Is(err, record.ErrPhotoNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrAttachmentNotFound, name)
		}
		return nil, err
	}
	if !created {
		return v, s.load(ctx, rec.ID, v)
	}
	// A variant that fails to store is regenerated on the next request.
	if err := s.Save(audit.WithoutHistories(ctx), rec); err != nil {
		s.log.WithFields(logrus.Fields{"event": "photo_variant", "record_id": rec.ID, "name": v.Name}).
			WithError(err).Warn("variant not stored")
	}
	return v, nil
}

func (s *recordService) AttachmentURL(ctx context.Context, id, name string, expiry time.Duration) (string, error) {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	a := rec.Attachments.Get(name)
	if a == nil || a.Pending {
		return "", fmt.Errorf("%w: %s", ErrAttachmentNotFound, name)
	}
	return s.store.PresignGet(ctx, storage.AttachmentKey(rec.ID, name), expiry)
}

func (s *recordService) Histories(ctx context.Context, id string) ([]audit.Entry, error) {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return rec.Histories, nil
}

// List returns paginated records without exposing repository types.
func (s *recordService) List(ctx context.Context, limit, offset int) (*RecordListResult, error) {
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}
	res, err := s.repo.List(ctx, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	items := make([]*record.Record, 0, len(res.Items))
	for _, doc := range res.Items {
		items = append(items, record.FromDocument(doc))
	}
	return &RecordListResult{Items: items, Total: res.Total}, nil
}

// Delete removes the document first so a storage failure can only leave orphaned bytes.
func (s *recordService) Delete(ctx context.Context, id string) error {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.purge(ctx, id, rec.Attachments.Keys())
	return nil
}

// load fetches attachment bytes from object storage when they are not in memory.
func (s *recordService) load(ctx context.Context, id string, a *attachment.Attachment) error {
	if a == nil || a.Data != nil {
		return nil
	}
	data, _, err := storage.ReadAll(ctx, s.store, storage.AttachmentKey(id, a.Name))
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return fmt.Errorf("%w: %s", ErrAttachmentNotFound, a.Name)
		}
		return fmt.Errorf("load %s: %w", a.Name, err)
	}
	a.Data = data
	return nil
}
