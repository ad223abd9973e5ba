package middleware

import (
	"strings"

	"github.com/civicfix/civicfix-backend/internal/config"
	"github.com/civicfix/civicfix-backend/internal/dto"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// SubmitterLocal is the fiber.Ctx local holding the resolved submitter id.
const SubmitterLocal = "submitter_id"

// SubmitterIdentity resolves the submitter from a bearer token issued by
// the external identity provider. When no valid token is present the
// configured fallback identifier is used if anonymous reporting is
// enabled, otherwise the request is rejected.
func SubmitterIdentity(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if sub := subjectFromBearer(c, cfg); sub != "" {
			c.Locals(SubmitterLocal, sub)
			return c.Next()
		}

		if cfg.AllowAnonymousReport {
			c.Locals(SubmitterLocal, cfg.FallbackSubmitterID)
			return c.Next()
		}

		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized: sign in to submit a report",
		})
	}
}

// Submitter returns the submitter id resolved by SubmitterIdentity.
func Submitter(c *fiber.Ctx) string {
	sub, _ := c.Locals(SubmitterLocal).(string)
	return sub
}

func subjectFromBearer(c *fiber.Ctx, cfg *config.Config) string {
	if cfg.JWTSecret == "" {
		return ""
	}
	auth := c.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return ""
	}

	token, err := jwt.Parse(strings.TrimPrefix(auth, "Bearer "), func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return ""
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return ""
	}
	sub, _ := claims["sub"].(string)
	return sub
}
