package main

import (
	"FaceSignal/internal/config"
	"FaceSignal/pkg/log"
	"FaceSignal/pkg/mqtt"
	"FaceSignal/pkg/redis"
	websocketPkg "FaceSignal/pkg/websocket"
	"errors"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"golang.org/x/net/context"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func main() {
	envFile := pflag.String("env-file", ".env", "path to the .env file")
	startCapture := pflag.Bool("start-capture", false, "start sampling as soon as the server is up")
	pflag.Parse()

	logger := log.NewLogger()
	if err := godotenv.Load(*envFile); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logger.Fatalf("Error loading %s: %v", *envFile, err)
		}
		logger.Warnf("No %s file, using process environment", *envFile)
	}

	validator := config.NewValidator()
	appConfig, err := config.LoadAppConfig(validator)
	if err != nil {
		logger.Fatal(err)
	}

	fiberApp := config.NewFiber(logger)
	websocket := websocketPkg.NewAIWebSocketClient(logger, appConfig.Detector)

	var redisServer redis.ISignalPublisher
	if appConfig.RedisEnabled() {
		redisServer = redis.New(logger, appConfig.Redis)
	}

	var mqttEmitter mqtt.IEmitter
	if appConfig.MQTTEnabled() {
		mqttEmitter = mqtt.New(logger, appConfig.MQTT)
	}

	connectCtx, cancelConnect := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelConnect()

	server, err := config.NewServer(
		config.WithFiber(fiberApp),
		config.WithLogger(logger),
		config.WithValidator(validator),
		config.WithAppConfig(appConfig),
		config.WithFrameSource(),
		config.WithWebSocket(websocket),
		config.WithSignalHub(),
		config.WithRedisServer(redisServer),
		config.WithMQTTEmitter(connectCtx, mqttEmitter),
		config.WithMiddleware(),
		config.WithS3Client(appConfig.S3),
		config.WithUtils(),
	)
	if err != nil {
		logger.Fatal(err)
	}

	server.RegisterHandler()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.Run(); err != nil {
			logger.Fatalf("Error starting server: %v", err)
		}
	}()

	logger.Info("Server started successfully")

	if *startCapture {
		if err := server.StartCapture(context.Background()); err != nil {
			logger.WithError(err).Error("Failed to start video capture")
		}
	}

	<-sigChan
	logger.Info("Shutting down server...")

	if err := server.Shutdown(10 * time.Second); err != nil {
		logger.WithError(err).Error("Error during shutdown")
	}
}
