package middleware

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

func newAuthedApp(secret []byte, captured *uuid.UUID) *fiber.App {
	app := fiber.New()
	app.Get("/protected", Auth(secret), func(c *fiber.Ctx) error {
		id, ok := UserID(c)
		if !ok {
			return c.SendStatus(fiber.StatusInternalServerError)
		}
		*captured = id
		return c.SendStatus(fiber.StatusOK)
	})
	return app
}

func TestAuth_ValidToken(t *testing.T) {
	secret := []byte("test-secret")
	userID := uuid.New()
	var captured uuid.UUID
	app := newAuthedApp(secret, &captured)

	token, err := SignToken(secret, userID, time.Hour)
	if err != nil {
		t.Fatalf("SignToken: %v", err)
	}

	req := httptest.NewRequest(fiber.MethodGet, "/protected", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if captured != userID {
		t.Fatalf("resolved owner %s, want %s", captured, userID)
	}
}

func TestAuth_Rejections(t *testing.T) {
	secret := []byte("test-secret")
	var captured uuid.UUID
	app := newAuthedApp(secret, &captured)

	wrongKey, err := SignToken([]byte("other-secret"), uuid.New(), time.Hour)
	if err != nil {
		t.Fatalf("SignToken: %v", err)
	}
	expired, err := SignToken(secret, uuid.New(), -time.Minute)
	if err != nil {
		t.Fatalf("SignToken: %v", err)
	}

	tests := []struct {
		name   string
		header string
	}{
		{name: "missing header", header: ""},
		{name: "not bearer", header: "Basic abc"},
		{name: "garbage token", header: "Bearer not.a.jwt"},
		{name: "wrong key", header: "Bearer " + wrongKey},
		{name: "expired", header: "Bearer " + expired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(fiber.MethodGet, "/protected", nil)
			if tt.header != "" {
				req.Header.Set(fiber.HeaderAuthorization, tt.header)
			}
			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("app.Test: %v", err)
			}
			if resp.StatusCode != fiber.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", resp.StatusCode)
			}
		})
	}
}
