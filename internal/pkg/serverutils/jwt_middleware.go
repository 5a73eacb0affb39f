package serverutils

import (
	"os"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// JwtMiddleware guards the advisor routes. The bearer token is verified
// against JWT_SECRET with HMAC signing only; the user_id claim is exposed to
// handlers through ctx.Locals.
func JwtMiddleware(ctx *fiber.Ctx) error {
	tokenStr, ok := bearerToken(ctx.Get("Authorization"))
	if !ok {
		return unauthorized(ctx, "Missing token")
	}

	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(os.Getenv("JWT_SECRET")), nil
	})
	if err != nil || !token.Valid {
		return unauthorized(ctx, "Invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return unauthorized(ctx, "Invalid claims")
	}

	ctx.Locals("user_id", claims["user_id"])
	return ctx.Next()
}

func bearerToken(header string) (string, bool) {
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || token == "" {
		return "", false
	}
	return token, true
}

func unauthorized(ctx *fiber.Ctx, message string) error {
	return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": message})
}
