// Package record holds the record aggregate: structured fields, photo and audio attachments and
// the bookkeeping needed to audit changes between saves.
package record

import (
	"errors"
	"sort"
	"time"

	"recordapi/internal/attachment"
	"recordapi/internal/audit"
)

// Derived field names. They are not stored in Fields but can be tracked by the form.
const (
	CurrentPhotoKeyField = "current_photo_key"
	RecordedAudioField   = "recorded_audio"
)

var (
	ErrNoPrimaryPhoto = errors.New("record has no photo")
	ErrPhotoNotFound  = errors.New("photo not found")
	ErrNotLoaded      = errors.New("attachment data not loaded")

	// ErrRotationUnchanged means the rotated bytes match the current photo within the same second.
	ErrRotationUnchanged = errors.New("rotation left the photo unchanged")
)

// ImageProcessor transforms encoded image bytes.
type ImageProcessor interface {
	Rotate(data []byte, contentType string, degrees int) ([]byte, error)
	Resize(data []byte, contentType string, width, height int) ([]byte, error)
}

// Record is a case record with its attachments and history log.
type Record struct {
	ID                  string
	Revision            int64
	CreatedAt           time.Time
	UpdatedAt           time.Time
	CreatedBy           string
	CreatedOrganisation string
	// Fields holds untyped form data.
	Fields           map[string]any
	PhotoKeys        []string
	PrimaryPhotoID   string
	AudioAttachments map[string]string
	Attachments      *attachment.Store
	// Histories is most recent first.
	Histories []audit.Entry

	// PurgeSupersededAudio removes the previous persisted audio when a new one is set.
	PurgeSupersededAudio bool

	baseline      snapshot
	pendingPhotos map[string]bool
	pendingAudio  string
	// requestedPrimary is an upload filename named by current_photo_key before photos exist.
	requestedPrimary string
	uploadNames      map[string]string
}

type snapshot struct {
	fields    map[string]any
	photoKeys []string
	primary   string
	audio     map[string]string
}

// New builds an unsaved record from form fields. created_by, created_organisation and
// current_photo_key are lifted out of fields.
func New(fields map[string]any) *Record {
	r := &Record{
		Fields:           make(map[string]any),
		AudioAttachments: make(map[string]string),
		Attachments:      attachment.NewStore(),
		pendingPhotos:    make(map[string]bool),
		uploadNames:      make(map[string]string),
	}
	for k, v := range fields {
		r.Set(k, v)
	}
	return r
}

// IsNew reports whether the record has never been persisted.
func (r *Record) IsNew() bool { return r.Revision == 0 }

// Get returns a field value, resolving derived fields.
func (r *Record) Get(name string) any {
	return valueOf(name, r.Fields, r.PhotoKeys, r.PrimaryPhotoID, r.AudioAttachments)
}

// Set assigns a field. current_photo_key selects the primary photo, either by photo key or by
// the original filename of a photo uploaded in the same request.
func (r *Record) Set(name string, v any) {
	switch name {
	case "created_by":
		r.CreatedBy, _ = v.(string)
	case "created_organisation":
		r.CreatedOrganisation, _ = v.(string)
	case CurrentPhotoKeyField:
		s, _ := v.(string)
		if s == "" {
			return
		}
		if r.SetPrimaryPhoto(s) != nil {
			r.requestedPrimary = s
			r.resolveRequestedPrimary()
		}
	case RecordedAudioField, "photo", "audio", "photo_keys", "histories", "_attachments":
		// managed through the attachment methods
	default:
		r.Fields[name] = v
	}
}

// State is the auditable view of the record over fields.
func (r *Record) State(fields []string) audit.State {
	return stateOf(fields, r.Fields, r.PhotoKeys, r.PrimaryPhotoID, r.AudioAttachments)
}

// PriorState is the auditable view of the record as last loaded or saved.
func (r *Record) PriorState(fields []string) audit.State {
	b := r.baseline
	return stateOf(fields, b.fields, b.photoKeys, b.primary, b.audio)
}

// Changes diffs the last persisted state against the pending one.
func (r *Record) Changes(fields []string) map[string]audit.Change {
	return audit.Diff(r.PriorState(fields), r.State(fields), fields)
}

// Attach stores a raw attachment, e.g. a resized variant named "<photo>_<suffix>".
func (r *Record) Attach(a *attachment.Attachment) {
	r.Attachments.Put(a)
}

// Validate checks every attachment assigned since the last save.
func (r *Record) Validate(p attachment.Policy) error {
	var errs attachment.ValidationErrors
	names := make([]string, 0, len(r.pendingPhotos))
	for n := range r.pendingPhotos {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		if a := r.Attachments.Get(n); a != nil {
			if err := p.ValidatePhoto(a); err != nil {
				errs = append(errs, err)
			}
		}
	}
	if a := r.Attachments.Get(r.pendingAudio); a != nil {
		if err := p.ValidateAudio(a); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Valid is shorthand for Validate(p) == nil.
func (r *Record) Valid(p attachment.Policy) bool {
	return r.Validate(p) == nil
}

func (r *Record) snapshot() snapshot {
	fields := make(map[string]any, len(r.Fields))
	for k, v := range r.Fields {
		fields[k] = v
	}
	audio := make(map[string]string, len(r.AudioAttachments))
	for k, v := range r.AudioAttachments {
		audio[k] = v
	}
	return snapshot{
		fields:    fields,
		photoKeys: append([]string(nil), r.PhotoKeys...),
		primary:   r.PrimaryPhotoID,
		audio:     audio,
	}
}

func stateOf(fields []string, values map[string]any, photoKeys []string, primary string, audio map[string]string) audit.State {
	s := audit.State{
		Values:    make(map[string]any, len(fields)),
		PhotoKeys: append([]string(nil), photoKeys...),
	}
	for _, f := range fields {
		s.Values[f] = valueOf(f, values, photoKeys, primary, audio)
	}
	return s
}

func valueOf(name string, fields map[string]any, photoKeys []string, primary string, audio map[string]string) any {
	switch name {
	case CurrentPhotoKeyField:
		if primary != "" {
			return primary
		}
		if len(photoKeys) > 0 {
			return photoKeys[0]
		}
		return nil
	case RecordedAudioField:
		if v, ok := audio[originalVariant]; ok {
			return v
		}
		return nil
	default:
		return fields[name]
	}
}
