package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// Auth returns a bearer-token guard for the registration and admin endpoints.
// The comparison is constant-time. An empty configured token fails every
// request, so a deployment without ADMIN_TOKEN has its guarded routes locked
// rather than open.
func Auth(token string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		presented, ok := strings.CutPrefix(c.Get(fiber.HeaderAuthorization), "Bearer ")
		if !ok || token == "" || subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
			return fiber.ErrUnauthorized
		}
		return c.Next()
	}
}
