package handler

import (
	"time"

	"github.com/go-playground/validator/v10"

	"recordapi/internal/audit"
	"recordapi/internal/record"
)

var validate = validator.New()

type listQuery struct {
	Limit  int `query:"limit" validate:"min=1,max=100"`
	Offset int `query:"offset" validate:"min=0"`
}

type updateRecordRequest struct {
	Fields map[string]any `json:"fields" validate:"required,min=1"`
}

type deletePhotosRequest struct {
	Names []string `json:"names" validate:"required,min=1,dive,required"`
}

type rotatePhotoRequest struct {
	Degrees int `json:"degrees" validate:"required,oneof=90 180 270 -90 -180 -270"`
}

type primaryPhotoRequest struct {
	Name string `json:"name" validate:"required"`
}

type urlQuery struct {
	Expires int `validate:"min=60,max=86400"`
}

type variantSize struct {
	Width  int `validate:"min=1,max=4096"`
	Height int `validate:"min=0,max=4096"`
}

type attachmentResponse struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
	ParentKey   string `json:"parent_key,omitempty"`
}

type recordResponse struct {
	ID                  string               `json:"id"`
	Revision            int64                `json:"revision"`
	CreatedAt           time.Time            `json:"created_at"`
	UpdatedAt           time.Time            `json:"updated_at"`
	CreatedBy           string               `json:"created_by,omitempty"`
	CreatedOrganisation string               `json:"created_organisation,omitempty"`
	Fields              map[string]any       `json:"fields"`
	PhotoKeys           []string             `json:"photo_keys"`
	CurrentPhotoKey     any                  `json:"current_photo_key"`
	RecordedAudio       any                  `json:"recorded_audio"`
	AudioAttachments    map[string]string    `json:"audio_attachments"`
	Attachments         []attachmentResponse `json:"attachments"`
	Histories           []audit.Entry        `json:"histories"`
}

type listResponse struct {
	Items []recordResponse `json:"data"`
	Total int              `json:"total"`
}

type attachmentURLResponse struct {
	URL       string `json:"url"`
	ExpiresIn int    `json:"expires_in"`
}

type historiesResponse struct {
	Items []audit.Entry `json:"data"`
}

func toRecordResponse(rec *record.Record) recordResponse {
	doc := rec.ToDocument()
	atts := make([]attachmentResponse, 0, len(doc.Attachments))
	for _, m := range doc.Attachments {
		atts = append(atts, attachmentResponse{
			Name:        m.Name,
			ContentType: m.ContentType,
			Size:        m.Size,
			ParentKey:   m.ParentKey,
		})
	}
	histories := doc.Histories
	if histories == nil {
		histories = []audit.Entry{}
	}
	return recordResponse{
		ID:                  doc.ID,
		Revision:            doc.Revision,
		CreatedAt:           doc.CreatedAt,
		UpdatedAt:           doc.UpdatedAt,
		CreatedBy:           doc.CreatedBy,
		CreatedOrganisation: doc.CreatedOrganisation,
		Fields:              doc.Fields,
		PhotoKeys:           doc.PhotoKeys,
		CurrentPhotoKey:     rec.Get(record.CurrentPhotoKeyField),
		RecordedAudio:       rec.Get(record.RecordedAudioField),
		AudioAttachments:    doc.AudioAttachments,
		Attachments:         atts,
		Histories:           histories,
	}
}
