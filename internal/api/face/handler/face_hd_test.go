package faceHandler

import (
	"context"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"FaceSignal/internal/api/face"
	"FaceSignal/internal/entity"
	"FaceSignal/internal/middleware"
	"FaceSignal/pkg/hub"
	jwtPkg "FaceSignal/pkg/jwt"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSampler struct {
	startErr    error
	snapshotErr error
	started     bool
	upload      bool
	latest      entity.SignalUpdate
}

func (f *fakeSampler) Start(context.Context) error {
	if f.startErr != nil {
		return f.startErr
	}
	f.started = true
	return nil
}

func (f *fakeSampler) Stop() error {
	f.started = false
	return nil
}

func (f *fakeSampler) Tick(context.Context) face.TickOutcome { return face.TickNoFace }
func (f *fakeSampler) Signals() entity.SignalSet             { return f.latest.Signals }
func (f *fakeSampler) Latest() entity.SignalUpdate           { return f.latest }
func (f *fakeSampler) Subscribe() *entity.SignalState        { return entity.NewSignalState() }
func (f *fakeSampler) IngestFrame([]byte) error              { return nil }

func (f *fakeSampler) Status() face.StatusResponse {
	return face.StatusResponse{Capturing: f.started, Interval: "200ms"}
}

func (f *fakeSampler) CaptureSnapshot(_ context.Context, upload bool) (*entity.Snapshot, error) {
	if f.snapshotErr != nil {
		return nil, f.snapshotErr
	}
	f.upload = upload
	return &entity.Snapshot{Width: 4, Height: 3, MimeType: "image/png", DataURL: "data:image/png;base64,AAAA"}, nil
}

func newTestApp(t *testing.T, sampler *fakeSampler) *fiber.App {
	t.Helper()
	t.Setenv(middleware.AccessTokenSecret, "handler-secret")

	log, _ := test.NewNullLogger()
	m := middleware.New(log, middleware.Config{})

	app := fiber.New()
	app.Use(m.NewRequestIDMiddleware())
	New(log, validator.New(), m, sampler, hub.New(log)).Start(app.Group("/api/v1"))
	return app
}

func operatorToken(t *testing.T) string {
	t.Helper()
	token, _, err := jwtPkg.SignOperator(entity.OperatorLoginData{ID: "op-1", Username: "booth"}, time.Minute)
	require.NoError(t, err)
	return token
}

func decode(t *testing.T, body io.Reader, dst interface{}) {
	t.Helper()
	raw, err := io.ReadAll(body)
	require.NoError(t, err)
	require.NoError(t, jsoniter.Unmarshal(raw, dst))
}

func TestGetSignals(t *testing.T) {
	sampler := &fakeSampler{latest: entity.SignalUpdate{TickID: "tick-9", Signals: entity.InitialSignals()}}
	app := newTestApp(t, sampler)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/face/signals", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body face.SignalsResponse
	decode(t, resp.Body, &body)
	assert.Equal(t, "tick-9", body.TickID)
	assert.Equal(t, entity.InitialSignals(), body.Signals)
}

func TestCaptureLifecycle(t *testing.T) {
	sampler := &fakeSampler{}
	app := newTestApp(t, sampler)

	resp, err := app.Test(httptest.NewRequest("POST", "/api/v1/face/capture/start", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.True(t, sampler.started)

	resp, err = app.Test(httptest.NewRequest("GET", "/api/v1/face/status", nil))
	require.NoError(t, err)
	var status face.StatusResponse
	decode(t, resp.Body, &status)
	assert.True(t, status.Capturing)

	resp, err = app.Test(httptest.NewRequest("POST", "/api/v1/face/capture/stop", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.False(t, sampler.started)
}

func TestStartCapture_Unavailable(t *testing.T) {
	sampler := &fakeSampler{startErr: fmt.Errorf("%w: %v", face.ErrCaptureUnavailable, "device busy")}
	app := newTestApp(t, sampler)

	resp, err := app.Test(httptest.NewRequest("POST", "/api/v1/face/capture/start", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)

	var body map[string]string
	decode(t, resp.Body, &body)
	assert.Equal(t, "CAPTURE_UNAVAILABLE", body["code"])
	assert.Contains(t, body["error"], "device busy")
}

func TestSnapshot_RequiresToken(t *testing.T) {
	app := newTestApp(t, &fakeSampler{})

	resp, err := app.Test(httptest.NewRequest("POST", "/api/v1/face/snapshot", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestSnapshot(t *testing.T) {
	sampler := &fakeSampler{}
	app := newTestApp(t, sampler)

	req := httptest.NewRequest("POST", "/api/v1/face/snapshot", strings.NewReader(`{"upload":true}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+operatorToken(t))

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.True(t, sampler.upload)

	var body face.SnapshotResponse
	decode(t, resp.Body, &body)
	assert.Equal(t, 4, body.Width)
	assert.Equal(t, "data:image/png;base64,AAAA", body.DataURL)
}

func TestSnapshot_InvalidFrame(t *testing.T) {
	app := newTestApp(t, &fakeSampler{snapshotErr: face.ErrInvalidFrame})

	req := httptest.NewRequest("POST", "/api/v1/face/snapshot", nil)
	req.Header.Set("Authorization", "Bearer "+operatorToken(t))

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	var body map[string]string
	decode(t, resp.Body, &body)
	assert.Equal(t, "cannot capture frame: video dimensions are invalid", body["error"])
}

func TestSignalsWebSocket_RequiresUpgrade(t *testing.T) {
	app := newTestApp(t, &fakeSampler{})

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/face/signals/ws", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUpgradeRequired, resp.StatusCode)
}
