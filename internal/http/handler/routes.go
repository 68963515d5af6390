package handler

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"

	"recordapi/internal/service"
)

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
func RegisterRoutes(app *fiber.App, db *sql.DB, svc service.RecordService) {
	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())

	records := app.Group("/records")
	records.Get("/", ListRecords(svc))
	records.Post("/", CreateRecord(svc))
	records.Get("/:id", GetRecord(svc))
	records.Patch("/:id", UpdateRecord(svc))
	records.Delete("/:id", DeleteRecord(svc))
	records.Get("/:id/histories", GetHistories(svc))

	records.Post("/:id/photos", AddPhotos(svc))
	records.Delete("/:id/photos", DeletePhotos(svc))
	records.Post("/:id/photos/rotate", RotatePhoto(svc))
	records.Put("/:id/photos/primary", SetPrimaryPhoto(svc))
	records.Get("/:id/photos/primary", GetPrimaryPhoto(svc))
	records.Get("/:id/photos/:name", GetPhoto(svc))

	records.Get("/:id/attachments/:name/url", GetAttachmentURL(svc))

	records.Put("/:id/audio", SetAudio(svc))
	records.Get("/:id/audio", GetAudio(svc))
}
