package handler

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"recordapi/internal/attachment"
	"recordapi/internal/service"
)

// sendAttachment writes attachment bytes with their stored content type.
func sendAttachment(c *fiber.Ctx, a *attachment.Attachment) error {
	c.Set(fiber.HeaderContentType, a.ContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("inline; filename=%q", a.Name))
	c.Set(fiber.HeaderETag, strconv.Quote(a.Digest))
	return c.Send(a.Data)
}

// parseSize reads "WxH" or "W".
func parseSize(s string) (variantSize, error) {
	w, h, _ := strings.Cut(strings.ToLower(s), "x")
	var out variantSize
	var err error
	if out.Width, err = strconv.Atoi(w); err != nil {
		return out, err
	}
	if h != "" {
		if out.Height, err = strconv.Atoi(h); err != nil {
			return out, err
		}
	}
	return out, validate.Struct(out)
}

// AddPhotos appends uploaded "photo" files to a record.
//
// @Summary  Add photos
// @Tags     photos
// @Accept   mpfd
// @Produce  json
// @Param    id    path     string true "record id"
// @Param    photo formData file   true "photo (repeatable)"
// @Success  200 {object} recordResponse
// @Failure  422 {object} errorPayload
// @Router   /records/{id}/photos [post]
func AddPhotos(svc service.RecordService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := recordID(c)
		if !ok {
			return nil
		}
		form, err := c.MultipartForm()
		if err != nil || len(form.File["photo"]) == 0 {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "photo is required")
		}
		rec, err := svc.AddPhotos(c.UserContext(), id, uploads(form.File["photo"]))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(toRecordResponse(rec))
	}
}

// DeletePhotos removes photos and their resized variants.
//
// @Summary  Delete photos
// @Tags     photos
// @Accept   json
// @Produce  json
// @Param    id   path string              true "record id"
// @Param    body body deletePhotosRequest true "photo names"
// @Success  200 {object} recordResponse
// @Router   /records/{id}/photos [delete]
func DeletePhotos(svc service.RecordService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := recordID(c)
		if !ok {
			return nil
		}
		var req deletePhotosRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid JSON body")
		}
		if err := validate.Struct(req); err != nil {
			return writeValidationError(c, err)
		}
		rec, err := svc.DeletePhotos(c.UserContext(), id, req.Names)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(toRecordResponse(rec))
	}
}

// RotatePhoto rotates the primary photo clockwise by a multiple of 90 degrees.
//
// @Summary  Rotate primary photo
// @Tags     photos
// @Accept   json
// @Produce  json
// @Param    id   path string             true "record id"
// @Param    body body rotatePhotoRequest true "angle"
// @Success  200 {object} recordResponse
// @Router   /records/{id}/photos/rotate [post]
func RotatePhoto(svc service.RecordService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := recordID(c)
		if !ok {
			return nil
		}
		var req rotatePhotoRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid JSON body")
		}
		if err := validate.Struct(req); err != nil {
			return writeValidationError(c, err)
		}
		rec, err := svc.RotatePhoto(c.UserContext(), id, req.Degrees)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(toRecordResponse(rec))
	}
}

// SetPrimaryPhoto designates the photo shown first.
//
// @Summary  Set primary photo
// @Tags     photos
// @Accept   json
// @Produce  json
// @Param    id   path string              true "record id"
// @Param    body body primaryPhotoRequest true "photo name"
// @Success  200 {object} recordResponse
// @Router   /records/{id}/photos/primary [put]
func SetPrimaryPhoto(svc service.RecordService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := recordID(c)
		if !ok {
			return nil
		}
		var req primaryPhotoRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid JSON body")
		}
		if err := validate.Struct(req); err != nil {
			return writeValidationError(c, err)
		}
		rec, err := svc.SetPrimaryPhoto(c.UserContext(), id, req.Name)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(toRecordResponse(rec))
	}
}

// GetPrimaryPhoto streams the primary photo.
//
// @Summary  Primary photo bytes
// @Tags     photos
// @Produce  png,jpeg
// @Param    id path string true "record id"
// @Success  200 {file} binary
// @Router   /records/{id}/photos/primary [get]
func GetPrimaryPhoto(svc service.RecordService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := recordID(c)
		if !ok {
			return nil
		}
		a, err := svc.PrimaryPhoto(c.UserContext(), id)
		if err != nil {
			return writeServiceError(c, err)
		}
		return sendAttachment(c, a)
	}
}

// GetPhoto streams a named photo, or a resized variant of it when size=WxH is given.
//
// @Summary  Photo bytes
// @Tags     photos
// @Produce  png,jpeg
// @Param    id   path  string true  "record id"
// @Param    name path  string true  "photo name"
// @Param    size query string false "WxH"
// @Success  200 {file} binary
// @Router   /records/{id}/photos/{name} [get]
func GetPhoto(svc service.RecordService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := recordID(c)
		if !ok {
			return nil
		}
		name := c.Params("name")
		if s := c.Query("size"); s != "" {
			size, err := parseSize(s)
			if err != nil {
				return writeError(c, fiber.StatusBadRequest, "INVALID_SIZE", "size must be WxH within 1..4096")
			}
			a, err := svc.PhotoVariant(c.UserContext(), id, name, size.Width, size.Height)
			if err != nil {
				return writeServiceError(c, err)
			}
			return sendAttachment(c, a)
		}
		a, err := svc.OpenAttachment(c.UserContext(), id, name)
		if err != nil {
			return writeServiceError(c, err)
		}
		return sendAttachment(c, a)
	}
}

// GetAttachmentURL returns a presigned link to download an attachment straight from object storage.
//
// @Summary  Presigned attachment URL
// @Tags     photos
// @Produce  json
// @Param    id      path  string true  "record id"
// @Param    name    path  string true  "attachment name"
// @Param    expires query int    false "seconds (60-86400)" default(900)
// @Success  200 {object} attachmentURLResponse
// @Router   /records/{id}/attachments/{name}/url [get]
func GetAttachmentURL(svc service.RecordService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := recordID(c)
		if !ok {
			return nil
		}
		q := urlQuery{Expires: c.QueryInt("expires", 900)}
		if err := validate.Struct(q); err != nil {
			return writeValidationError(c, err)
		}
		expiry := time.Duration(q.Expires) * time.Second
		url, err := svc.AttachmentURL(c.UserContext(), id, c.Params("name"), expiry)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(attachmentURLResponse{URL: url, ExpiresIn: q.Expires})
	}
}

// SetAudio replaces the record's recording with the uploaded "audio" file.
//
// @Summary  Set audio
// @Tags     audio
// @Accept   mpfd
// @Produce  json
// @Param    id    path     string true "record id"
// @Param    audio formData file   true "mp3 or amr"
// @Success  200 {object} recordResponse
// @Router   /records/{id}/audio [put]
func SetAudio(svc service.RecordService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := recordID(c)
		if !ok {
			return nil
		}
		fh, err := c.FormFile("audio")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "audio is required")
		}
		rec, err := svc.SetAudio(c.UserContext(), id, attachment.FileHeaderUpload{Header: fh})
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(toRecordResponse(rec))
	}
}

// GetAudio streams the original recording.
//
// @Summary  Audio bytes
// @Tags     audio
// @Produce  octet-stream
// @Param    id path string true "record id"
// @Success  200 {file} binary
// @Router   /records/{id}/audio [get]
func GetAudio(svc service.RecordService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := recordID(c)
		if !ok {
			return nil
		}
		a, err := svc.Audio(c.UserContext(), id)
		if err != nil {
			return writeServiceError(c, err)
		}
		return sendAttachment(c, a)
	}
}
