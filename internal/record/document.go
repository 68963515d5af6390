package record

import (
	"recordapi/internal/attachment"
	"recordapi/internal/audit"
	"recordapi/internal/model"
)

// ToDocument renders the record in its persisted shape. Histories is copied so the caller may
// prepend to it without touching the record.
func (r *Record) ToDocument() model.RecordDocument {
	fields := make(map[string]any, len(r.Fields))
	for k, v := range r.Fields {
		fields[k] = v
	}
	audio := make(map[string]string, len(r.AudioAttachments))
	for k, v := range r.AudioAttachments {
		audio[k] = v
	}
	return model.RecordDocument{
		ID:                  r.ID,
		Revision:            r.Revision,
		CreatedAt:           r.CreatedAt,
		UpdatedAt:           r.UpdatedAt,
		CreatedBy:           r.CreatedBy,
		CreatedOrganisation: r.CreatedOrganisation,
		Fields:              fields,
		PhotoKeys:           append([]string{}, r.PhotoKeys...),
		PrimaryPhotoID:      r.PrimaryPhotoID,
		AudioAttachments:    audio,
		Attachments:         r.Attachments.Meta(),
		Histories:           append([]audit.Entry{}, r.Histories...),
	}
}

// FromDocument rebuilds a persisted record. Attachment bytes are not loaded.
func FromDocument(doc model.RecordDocument) *Record {
	r := &Record{
		ID:                  doc.ID,
		Revision:            doc.Revision,
		CreatedAt:           doc.CreatedAt,
		UpdatedAt:           doc.UpdatedAt,
		CreatedBy:           doc.CreatedBy,
		CreatedOrganisation: doc.CreatedOrganisation,
		Fields:              make(map[string]any, len(doc.Fields)),
		PhotoKeys:           append([]string(nil), doc.PhotoKeys...),
		PrimaryPhotoID:      doc.PrimaryPhotoID,
		AudioAttachments:    make(map[string]string, len(doc.AudioAttachments)),
		Attachments:         attachment.LoadStore(doc.Attachments),
		Histories:           append([]audit.Entry(nil), doc.Histories...),
		pendingPhotos:       make(map[string]bool),
		uploadNames:         make(map[string]string),
	}
	for k, v := range doc.Fields {
		r.Fields[k] = v
	}
	for k, v := range doc.AudioAttachments {
		r.AudioAttachments[k] = v
	}
	r.baseline = r.snapshot()
	return r
}

// CommitSave adopts the state that was just persisted: revision, timestamps and history log.
// Pending attachments are marked written and the baseline for the next diff is reset.
func (r *Record) CommitSave(doc model.RecordDocument) {
	r.ID = doc.ID
	r.Revision = doc.Revision
	r.CreatedAt = doc.CreatedAt
	r.UpdatedAt = doc.UpdatedAt
	r.Histories = doc.Histories
	r.Attachments.MarkPersisted()
	r.pendingPhotos = make(map[string]bool)
	r.pendingAudio = ""
	r.requestedPrimary = ""
	r.baseline = r.snapshot()
}

// Author returns the attribution fallbacks for history entries.
func (r *Record) Author(defaultOrganisation string) audit.Author {
	return audit.Author{
		CreatedBy:           r.CreatedBy,
		CreatedOrganisation: r.CreatedOrganisation,
		DefaultOrganisation: defaultOrganisation,
	}
}
