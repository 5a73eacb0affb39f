package serverutils

import (
	"os"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
)

// AdminKeyMiddleware guards knowledge-ingestion routes. ADMIN_KEY_HASH holds
// a bcrypt hash of the shared key; requests present the plain key in
// X-Admin-Key.
func AdminKeyMiddleware(ctx *fiber.Ctx) error {
	hash := os.Getenv("ADMIN_KEY_HASH")
	if hash == "" {
		return ctx.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse("Admin access is not configured"))
	}

	key := ctx.Get("X-Admin-Key")
	if key == "" {
		return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse("Missing admin key"))
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(key)); err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse("Invalid admin key"))
	}

	return ctx.Next()
}
