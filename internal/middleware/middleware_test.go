package middleware

import (
	"net/http/httptest"
	"testing"
	"time"

	"FaceSignal/internal/entity"
	jwtPkg "FaceSignal/pkg/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T, cfg Config) (*fiber.App, *test.Hook) {
	t.Helper()
	log, hook := test.NewNullLogger()
	m := New(log, cfg)

	app := fiber.New()
	app.Use(m.NewRequestIDMiddleware())
	app.Use(m.NewLoggingMiddleware())
	app.Get("/open", m.NewRateLimiter, func(c *fiber.Ctx) error {
		return c.SendString(m.GetRequestID(c))
	})
	app.Get("/operator", m.NewTokenMiddleware, func(c *fiber.Ctx) error {
		operator, err := jwtPkg.GetOperatorLoginData(c)
		if err != nil {
			return err
		}
		return c.SendString(operator.Username)
	})
	return app, hook
}

func TestRequestIDIsGeneratedAndEchoed(t *testing.T) {
	app, _ := newTestApp(t, Config{})

	resp, err := app.Test(httptest.NewRequest("GET", "/open", nil))
	require.NoError(t, err)
	assert.Len(t, resp.Header.Get(RequestIDKey), 26)

	req := httptest.NewRequest("GET", "/open", nil)
	req.Header.Set(RequestIDKey, "caller-id")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "caller-id", resp.Header.Get(RequestIDKey))
}

func TestLoggingMiddlewareRecordsRequest(t *testing.T) {
	app, hook := newTestApp(t, Config{})

	_, err := app.Test(httptest.NewRequest("GET", "/open", nil))
	require.NoError(t, err)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, "Success", entry.Message)
	assert.Equal(t, "/open", entry.Data["path"])
}

func TestRateLimiter(t *testing.T) {
	app, _ := newTestApp(t, Config{RateLimit: 0.001, RateBurst: 2})

	for i := 0; i < 2; i++ {
		resp, err := app.Test(httptest.NewRequest("GET", "/open", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	}

	resp, err := app.Test(httptest.NewRequest("GET", "/open", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
}

func TestTokenMiddleware(t *testing.T) {
	t.Setenv(AccessTokenSecret, "middleware-secret")
	app, _ := newTestApp(t, Config{})

	token, _, err := jwtPkg.SignOperator(entity.OperatorLoginData{ID: "op-1", Username: "booth"}, time.Minute)
	require.NoError(t, err)

	cases := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", fiber.StatusUnauthorized},
		{"wrong scheme", "Basic abc", fiber.StatusUnauthorized},
		{"garbage token", "Bearer not-a-token", fiber.StatusUnauthorized},
		{"valid token", "Bearer " + token, fiber.StatusOK},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/operator", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tc.status, resp.StatusCode)
		})
	}
}

func TestTokenMiddlewareRequiresOperatorClaims(t *testing.T) {
	t.Setenv(AccessTokenSecret, "middleware-secret")
	app, _ := newTestApp(t, Config{})

	token, _, err := jwtPkg.Sign(map[string]interface{}{"id": "op-1"}, time.Minute)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/operator", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
