package middleware

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"hydrofund/internal/models"
	"hydrofund/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

func newApp(limiter *CommandLimiter) *fiber.App {
	app := fiber.New()
	auth := NewAuthMiddleware(secret)
	whoami := func(c *fiber.Ctx) error {
		actor, err := utils.GetActor(c)
		if err != nil {
			return err
		}
		return utils.Success(c, actor)
	}
	app.Get("/me", auth.Handler, whoami)
	app.Get("/admin", auth.Handler, AdminAuthMiddleware, whoami)
	if limiter != nil {
		app.Post("/cmd", auth.Handler, limiter.Handler, whoami)
	}
	return app
}

func token(t *testing.T, actor models.Actor, ttl time.Duration) string {
	t.Helper()
	tok, err := utils.GenerateToken(secret, actor, ttl)
	require.NoError(t, err)
	return "Bearer " + tok
}

func TestAuthMiddleware(t *testing.T) {
	app := newApp(nil)
	user := models.Actor{UserID: 7, Role: models.RoleUser}

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", fiber.StatusUnauthorized},
		{"not bearer", "Basic abc", fiber.StatusUnauthorized},
		{"garbage", "Bearer abc.def.ghi", fiber.StatusUnauthorized},
		{"expired", token(t, user, -time.Minute), fiber.StatusUnauthorized},
		{"valid", token(t, user, time.Hour), fiber.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestAuthMiddleware_WrongSecret(t *testing.T) {
	app := newApp(nil)
	tok, err := utils.GenerateToken("other", models.Actor{UserID: 7, Role: models.RoleUser}, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestAdminAuthMiddleware(t *testing.T) {
	app := newApp(nil)

	req := httptest.NewRequest("GET", "/admin", nil)
	req.Header.Set("Authorization", token(t, models.Actor{UserID: 7, Role: models.RoleUser}, time.Hour))
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	var body utils.Envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "error", body.Status)
	assert.Equal(t, "FORBIDDEN", body.Reason)

	req = httptest.NewRequest("GET", "/admin", nil)
	req.Header.Set("Authorization", token(t, models.Actor{UserID: 1, Role: models.RoleAdmin}, time.Hour))
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestCommandLimiter(t *testing.T) {
	limiter := NewCommandLimiter(0.001, 2)
	app := newApp(limiter)
	alice := token(t, models.Actor{UserID: 7, Role: models.RoleUser}, time.Hour)
	bob := token(t, models.Actor{UserID: 8, Role: models.RoleUser}, time.Hour)

	codes := func(header string) int {
		req := httptest.NewRequest("POST", "/cmd", nil)
		req.Header.Set("Authorization", header)
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp.StatusCode
	}

	assert.Equal(t, fiber.StatusOK, codes(alice))
	assert.Equal(t, fiber.StatusOK, codes(alice))
	assert.Equal(t, fiber.StatusTooManyRequests, codes(alice))
	// limits are per user
	assert.Equal(t, fiber.StatusOK, codes(bob))

	assert.Equal(t, 0, limiter.Sweep(time.Hour))
	assert.Equal(t, 2, limiter.Sweep(-time.Second))
}
