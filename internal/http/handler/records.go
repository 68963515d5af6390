package handler

import (
	"mime/multipart"
	"regexp"
	"sort"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"recordapi/internal/attachment"
	"recordapi/internal/audit"
	"recordapi/internal/service"
)

var keyedPhotoField = regexp.MustCompile(`^photo\[(\d+)\]$`)

// recordID validates the :id path parameter. It writes the error response when invalid.
func recordID(c *fiber.Ctx) (string, bool) {
	id := c.Params("id")
	if _, err := uuid.Parse(id); err != nil {
		_ = writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		return "", false
	}
	return id, true
}

// ListRecords returns records newest first.
//
// @Summary  List records
// @Tags     records
// @Produce  json
// @Param    limit  query int false "page size (1-100)" default(10)
// @Param    offset query int false "offset" default(0)
// @Success  200 {object} listResponse
// @Failure  400 {object} errorPayload
// @Router   /records [get]
func ListRecords(svc service.RecordService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		q := listQuery{Limit: 10}
		if err := c.QueryParser(&q); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_QUERY", "invalid limit or offset")
		}
		if err := validate.Struct(q); err != nil {
			return writeValidationError(c, err)
		}

		res, err := svc.List(c.UserContext(), q.Limit, q.Offset)
		if err != nil {
			return writeServiceError(c, err)
		}
		out := listResponse{Items: make([]recordResponse, 0, len(res.Items)), Total: res.Total}
		for _, rec := range res.Items {
			out.Items = append(out.Items, toRecordResponse(rec))
		}
		return c.JSON(out)
	}
}

// CreateRecord creates a record from a multipart form or a JSON object of fields.
// Multipart: "photo" (repeatable) or "photo[N]" files, an optional "audio" file, every other
// value becomes a field.
//
// @Summary  Create record
// @Tags     records
// @Accept   mpfd,json
// @Produce  json
// @Param    photo formData file false "photo (png or jpeg)"
// @Param    audio formData file false "audio recording (mp3 or amr)"
// @Success  201 {object} recordResponse
// @Failure  400 {object} errorPayload
// @Failure  422 {object} errorPayload
// @Router   /records [post]
func CreateRecord(svc service.RecordService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in service.CreateInput
		if strings.HasPrefix(string(c.Request().Header.ContentType()), fiber.MIMEMultipartForm) {
			form, err := c.MultipartForm()
			if err != nil {
				return writeError(c, fiber.StatusBadRequest, "INVALID_FORM", "invalid multipart form")
			}
			in = createInputFromForm(form)
		} else {
			if err := c.BodyParser(&in.Fields); err != nil {
				return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "body must be a JSON object")
			}
		}

		rec, err := svc.Create(c.UserContext(), in)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(toRecordResponse(rec))
	}
}

func createInputFromForm(form *multipart.Form) service.CreateInput {
	in := service.CreateInput{Fields: make(map[string]any, len(form.Value))}
	for k, vs := range form.Value {
		switch len(vs) {
		case 0:
		case 1:
			in.Fields[k] = vs[0]
		default:
			in.Fields[k] = vs
		}
	}
	in.Photos = uploads(form.File["photo"])

	keys := make([]string, 0, len(form.File))
	for k := range form.File {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		m := keyedPhotoField.FindStringSubmatch(k)
		if m == nil || len(form.File[k]) == 0 {
			continue
		}
		if in.KeyedPhotos == nil {
			in.KeyedPhotos = make(map[string]attachment.Upload)
		}
		in.KeyedPhotos[m[1]] = attachment.FileHeaderUpload{Header: form.File[k][0]}
	}

	if files := form.File["audio"]; len(files) > 0 {
		in.Audio = attachment.FileHeaderUpload{Header: files[0]}
	}
	return in
}

func uploads(files []*multipart.FileHeader) []attachment.Upload {
	out := make([]attachment.Upload, 0, len(files))
	for _, fh := range files {
		out = append(out, attachment.FileHeaderUpload{Header: fh})
	}
	return out
}

// GetRecord returns one record.
//
// @Summary  Get record
// @Tags     records
// @Produce  json
// @Param    id path string true "record id"
// @Success  200 {object} recordResponse
// @Failure  404 {object} errorPayload
// @Router   /records/{id} [get]
func GetRecord(svc service.RecordService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := recordID(c)
		if !ok {
			return nil
		}
		rec, err := svc.Get(c.UserContext(), id)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(toRecordResponse(rec))
	}
}

// UpdateRecord assigns fields and saves. Tracked changes are added to the history log.
//
// @Summary  Update record fields
// @Tags     records
// @Accept   json
// @Produce  json
// @Param    id   path string              true "record id"
// @Param    body body updateRecordRequest true "fields to set"
// @Success  200 {object} recordResponse
// @Failure  400 {object} errorPayload
// @Failure  409 {object} errorPayload
// @Router   /records/{id} [patch]
func UpdateRecord(svc service.RecordService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := recordID(c)
		if !ok {
			return nil
		}
		var req updateRecordRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid JSON body")
		}
		if err := validate.Struct(req); err != nil {
			return writeValidationError(c, err)
		}
		rec, err := svc.Update(c.UserContext(), id, req.Fields)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(toRecordResponse(rec))
	}
}

// DeleteRecord removes a record and its attachments.
//
// @Summary  Delete record
// @Tags     records
// @Param    id path string true "record id"
// @Success  204
// @Failure  404 {object} errorPayload
// @Router   /records/{id} [delete]
func DeleteRecord(svc service.RecordService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := recordID(c)
		if !ok {
			return nil
		}
		if err := svc.Delete(c.UserContext(), id); err != nil {
			return writeServiceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// GetHistories returns the change log, most recent first.
//
// @Summary  Record history
// @Tags     records
// @Produce  json
// @Param    id path string true "record id"
// @Success  200 {object} historiesResponse
// @Failure  404 {object} errorPayload
// @Router   /records/{id}/histories [get]
func GetHistories(svc service.RecordService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := recordID(c)
		if !ok {
			return nil
		}
		entries, err := svc.Histories(c.UserContext(), id)
		if err != nil {
			return writeServiceError(c, err)
		}
		if entries == nil {
			entries = []audit.Entry{}
		}
		return c.JSON(historiesResponse{Items: entries})
	}
}
