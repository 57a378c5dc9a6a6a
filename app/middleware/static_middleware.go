package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// PlugForm serves page on GET / and answers browser .well-known requests so
// they do not reach the API error handler.
func PlugForm(page []byte) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Method() != fiber.MethodGet {
			return c.Next()
		}

		path := c.Path()

		if strings.HasPrefix(path, "/.well-known/") {
			return c.JSON(fiber.Map{
				"status": "ignored",
			})
		}

		if path == "/" || path == "/index.html" {
			c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
			return c.Send(page)
		}

		return c.Next()
	}
}
