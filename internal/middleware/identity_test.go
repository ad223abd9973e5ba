package middleware

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/civicfix/civicfix-backend/internal/config"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

func identityApp(cfg *config.Config) *fiber.App {
	app := fiber.New()
	app.Get("/whoami", SubmitterIdentity(cfg), func(c *fiber.Ctx) error {
		return c.SendString(Submitter(c))
	})
	return app
}

func TestSubmitterIdentityFallsBackWhenAnonymousAllowed(t *testing.T) {
	cfg := &config.Config{AllowAnonymousReport: true, FallbackSubmitterID: "demo-user"}
	app := identityApp(cfg)

	resp, err := app.Test(httptest.NewRequest("GET", "/whoami", nil))
	if err != nil {
		t.Fatalf("request error: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "demo-user" {
		t.Fatalf("expected fallback submitter, got %q", body)
	}
}

func TestSubmitterIdentityRejectsWhenAnonymousDisabled(t *testing.T) {
	cfg := &config.Config{AllowAnonymousReport: false, JWTSecret: "secret"}
	app := identityApp(cfg)

	resp, err := app.Test(httptest.NewRequest("GET", "/whoami", nil))
	if err != nil {
		t.Fatalf("request error: %v", err)
	}
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestSubmitterIdentityUsesTokenSubject(t *testing.T) {
	cfg := &config.Config{AllowAnonymousReport: true, FallbackSubmitterID: "demo-user", JWTSecret: "secret"}
	app := identityApp(cfg)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "alice",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}

	req := httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+signed)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request error: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "alice" {
		t.Fatalf("expected token subject, got %q", body)
	}
}

func TestSubmitterIdentityIgnoresInvalidToken(t *testing.T) {
	cfg := &config.Config{AllowAnonymousReport: true, FallbackSubmitterID: "demo-user", JWTSecret: "secret"}
	app := identityApp(cfg)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "mallory"})
	signed, err := token.SignedString([]byte("wrong-secret"))
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}

	req := httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+signed)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request error: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "demo-user" {
		t.Fatalf("invalid token must fall back, got %q", body)
	}
}
