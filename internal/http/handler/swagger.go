package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"

	"recordapi/docs"
)

// RegisterDocs serves the Swagger UI under /swagger.
// Host and schemes are left out of the document so the UI calls whichever host and scheme
// served it, including X-Forwarded-Proto behind a proxy.
func RegisterDocs(app *fiber.App) {
	docs.SwaggerInfo.Host = ""
	docs.SwaggerInfo.Schemes = []string{}
	app.Get("/swagger/*", swagger.HandlerDefault)
}
