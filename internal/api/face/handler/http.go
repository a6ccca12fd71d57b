package faceHandler

import (
	faceService "FaceSignal/internal/api/face/service"
	"FaceSignal/internal/middleware"
	"FaceSignal/pkg/hub"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"
)

type FaceHandler struct {
	log            *logrus.Logger
	validator      *validator.Validate
	middleware     middleware.Middleware
	samplerService faceService.ISamplerService
	hub            hub.IHub
}

func New(
	log *logrus.Logger,
	validator *validator.Validate,
	middleware middleware.Middleware,
	ss faceService.ISamplerService,
	hub hub.IHub,
) *FaceHandler {
	return &FaceHandler{
		log:            log,
		validator:      validator,
		middleware:     middleware,
		samplerService: ss,
		hub:            hub,
	}
}

func (h *FaceHandler) Start(srv fiber.Router) {
	wsMiddleware := func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}

	face := srv.Group("/face")

	face.Get("/signals", h.GetSignals)
	face.Get("/status", h.GetStatus)

	face.Use("/signals/ws", wsMiddleware)
	face.Get("/signals/ws", websocket.New(h.handleSignalsWebSocket))

	face.Use("/stream/ws", wsMiddleware)
	face.Get("/stream/ws", websocket.New(h.handleStreamWebSocket))

	capture := face.Group("/capture")
	capture.Post("/start", h.StartCapture)
	capture.Post("/stop", h.StopCapture)

	face.Post("/snapshot", h.middleware.NewTokenMiddleware, h.middleware.NewRateLimiter, h.CaptureSnapshot)
}
