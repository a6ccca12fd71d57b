package config

import (
	faceHandler "FaceSignal/internal/api/face/handler"
	faceService "FaceSignal/internal/api/face/service"
	"FaceSignal/internal/middleware"
	"FaceSignal/pkg/camera"
	"FaceSignal/pkg/facemetric"
	"FaceSignal/pkg/hub"
	"FaceSignal/pkg/mqtt"
	"FaceSignal/pkg/redis"
	"FaceSignal/pkg/s3"
	"FaceSignal/pkg/utils"
	websocketPkg "FaceSignal/pkg/websocket"
	"fmt"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
	"time"
)

type ServerOption func(*Server) error

type Server struct {
	engine         *fiber.App
	log            *logrus.Logger
	config         *AppConfig
	middleware     middleware.Middleware
	validator      *validator.Validate
	utils          utils.IUtils
	handlers       []handler
	frameSource    camera.Source
	faceWebsocket  websocketPkg.IWebsocket
	signalHub      *hub.Hub
	redisServer    redis.ISignalPublisher
	mqttEmitter    mqtt.IEmitter
	s3Client       s3.ItfS3
	samplerService faceService.ISamplerService
	stopHub        context.CancelFunc
}

type handler interface {
	Start(srv fiber.Router)
}

func NewServer(options ...ServerOption) (*Server, error) {
	server := &Server{}

	for _, option := range options {
		if err := option(server); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if server.engine == nil {
		return nil, fmt.Errorf("fiber app is required")
	}
	if server.log == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if server.config == nil {
		return nil, fmt.Errorf("app config is required")
	}
	if server.frameSource == nil {
		return nil, fmt.Errorf("frame source is required")
	}
	if server.faceWebsocket == nil {
		return nil, fmt.Errorf("face detector is required")
	}

	return server, nil
}

func WithFiber(fiberApp *fiber.App) ServerOption {
	return func(s *Server) error {
		s.engine = fiberApp
		return nil
	}
}

func WithLogger(logger *logrus.Logger) ServerOption {
	return func(s *Server) error {
		s.log = logger
		return nil
	}
}

func WithValidator(validator *validator.Validate) ServerOption {
	return func(s *Server) error {
		s.validator = validator
		return nil
	}
}

func WithAppConfig(cfg *AppConfig) ServerOption {
	return func(s *Server) error {
		s.config = cfg
		return nil
	}
}

func WithFrameSource() ServerOption {
	return func(s *Server) error {
		if s.log == nil || s.config == nil {
			return fmt.Errorf("logger and app config must be initialized before the frame source")
		}
		source, err := camera.NewSource(s.config.Source.Driver, s.config.SourceArgs(s.log)...)
		if err != nil {
			s.log.Errorf("Failed to create frame source %q: %v", s.config.Source.Driver, err)
			return fmt.Errorf("failed to create frame source: %w", err)
		}
		s.frameSource = source
		return nil
	}
}

func WithWebSocket(webSocket websocketPkg.IWebsocket) ServerOption {
	return func(s *Server) error {
		s.faceWebsocket = webSocket
		return nil
	}
}

func WithSignalHub() ServerOption {
	return func(s *Server) error {
		if s.log == nil {
			return fmt.Errorf("logger must be initialized before the signal hub")
		}
		s.signalHub = hub.New(s.log)
		return nil
	}
}

func WithRedisServer(redisServer redis.ISignalPublisher) ServerOption {
	return func(s *Server) error {
		s.redisServer = redisServer
		return nil
	}
}

func WithMQTTEmitter(ctx context.Context, emitter mqtt.IEmitter) ServerOption {
	return func(s *Server) error {
		if emitter == nil {
			return nil
		}
		if err := emitter.Connect(ctx); err != nil {
			if s.log != nil {
				s.log.Errorf("Failed to connect MQTT emitter: %v", err)
			}
			return fmt.Errorf("failed to connect MQTT emitter: %w", err)
		}
		s.mqttEmitter = emitter
		return nil
	}
}

func WithMiddleware() ServerOption {
	return func(s *Server) error {
		if s.log == nil {
			return fmt.Errorf("logger must be initialized before middleware")
		}
		var cfg middleware.Config
		if s.config != nil {
			cfg = s.config.Middleware
		}
		s.middleware = middleware.New(s.log, cfg)
		return nil
	}
}

func WithS3Client(cfg *s3.Config) ServerOption {
	return func(s *Server) error {
		if cfg == nil {
			return nil
		}
		client, err := s3.New(*cfg)
		if err != nil {
			if s.log != nil {
				s.log.Errorf("Failed to initialize S3 client: %v", err)
			}
			return fmt.Errorf("failed to create S3 client: %w", err)
		}
		s.s3Client = client
		return nil
	}
}

func WithUtils() ServerOption {
	return func(s *Server) error {
		s.utils = utils.New()
		return nil
	}
}

func (s *Server) sinks() []faceService.Sink {
	var sinks []faceService.Sink
	if s.signalHub != nil {
		sinks = append(sinks, s.signalHub)
	}
	if s.redisServer != nil {
		sinks = append(sinks, s.redisServer)
	}
	if s.mqttEmitter != nil {
		sinks = append(sinks, s.mqttEmitter)
	}
	return sinks
}

func (s *Server) RegisterHandler() {
	if s.utils == nil {
		s.utils = utils.New()
	}
	if s.signalHub == nil {
		s.signalHub = hub.New(s.log)
	}

	// Face Domain
	engine := facemetric.New(s.log, s.config.Thresholds)
	s.samplerService = faceService.NewSamplerService(
		s.log,
		s.config.Sampler,
		s.frameSource,
		s.faceWebsocket,
		engine,
		s.s3Client,
		s.utils,
		s.sinks()...,
	)
	faceHandlers := faceHandler.New(s.log, s.validator, s.middleware, s.samplerService, s.signalHub)

	s.setupHealthCheck()
	s.handlers = append(s.handlers, faceHandlers)
}

// StartCapture begins sampling right away instead of waiting for
// POST /capture/start.
func (s *Server) StartCapture(ctx context.Context) error {
	return s.samplerService.Start(ctx)
}

func (s *Server) Run() error {
	s.engine.Use(s.middleware.NewRequestIDMiddleware())
	s.engine.Use(s.middleware.NewLoggingMiddleware())
	router := s.engine.Group("/api/v1")

	for _, h := range s.handlers {
		h.Start(router)
	}

	hubCtx, cancel := context.WithCancel(context.Background())
	s.stopHub = cancel
	go s.signalHub.Run(hubCtx)

	if err := s.engine.Listen(fmt.Sprintf(":%s", s.config.Port)); err != nil {
		return err
	}

	return nil
}

// Shutdown stops sampling before closing the transports it publishes to.
func (s *Server) Shutdown(timeout time.Duration) error {
	if s.samplerService != nil {
		if err := s.samplerService.Stop(); err != nil {
			s.log.WithError(err).Warn("Failed to stop sampler")
		}
	}

	if s.stopHub != nil {
		s.stopHub()
	}

	err := s.engine.ShutdownWithTimeout(timeout)

	s.faceWebsocket.CloseConnections()
	if s.mqttEmitter != nil {
		s.mqttEmitter.Disconnect()
	}
	if s.redisServer != nil {
		if closeErr := s.redisServer.Close(); closeErr != nil {
			s.log.WithError(closeErr).Warn("Failed to close redis client")
		}
	}

	return err
}

func (s *Server) setupHealthCheck() {
	s.engine.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.JSON(fiber.Map{
			"message": "Server is Healthy!",
		})
	})
}
