package model

import (
	"time"

	"recordapi/internal/audit"
)

// AttachmentMeta is the persisted description of an attachment. The bytes live in object storage.
type AttachmentMeta struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
	Digest      string `json:"digest"`
	ParentKey   string `json:"parent_key,omitempty"`
}

// RecordDocument is the persisted shape of a record.
// It is stored as a single JSON document so the whole record commits atomically.
type RecordDocument struct {
	ID                  string            `json:"id"`
	Revision            int64             `json:"revision"`
	CreatedAt           time.Time         `json:"created_at"`
	UpdatedAt           time.Time         `json:"updated_at"`
	CreatedBy           string            `json:"created_by"`
	CreatedOrganisation string            `json:"created_organisation"`
	Fields              map[string]any    `json:"fields"`
	PhotoKeys           []string          `json:"photo_keys"`
	PrimaryPhotoID      string            `json:"primary_photo_id,omitempty"`
	AudioAttachments    map[string]string `json:"audio_attachments,omitempty"`
	Attachments         []AttachmentMeta  `json:"_attachments"`
	Histories           []audit.Entry     `json:"histories"`
}
