// Package requestid tags every request with a unique ID for log correlation.
package requestid

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Header carries the request ID on the response.
const Header = "X-Request-Id"

// New returns a middleware that assigns a request ID to each request. An
// incoming X-Request-Id header is honored so callers can propagate their own.
func New() fiber.Handler {
	return func(c *fiber.Ctx) error {
		rid := c.Get(Header)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Locals("request_id", rid)
		c.Set(Header, rid)
		return c.Next()
	}
}
