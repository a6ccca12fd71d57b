package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	faceService "FaceSignal/internal/api/face/service"
	"FaceSignal/internal/entity"
	"FaceSignal/internal/middleware"
	"FaceSignal/pkg/facemetric"
	"FaceSignal/pkg/mqtt"
	"FaceSignal/pkg/redis"
	"FaceSignal/pkg/s3"
	websocketPkg "FaceSignal/pkg/websocket"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

const DefaultDetector = "tiny_face_detector"

type SourceConfig struct {
	Driver   string        `validate:"oneof=mailbox directory device"`
	Path     string        `validate:"required_if=Driver directory"`
	DeviceID int           `validate:"gte=0"`
	Settle   time.Duration `validate:"gte=0"`
}

type AppConfig struct {
	Port           string `validate:"required,numeric"`
	Env            string
	Sampler        faceService.Config
	Thresholds     facemetric.Thresholds
	ThresholdsFile string
	Detector       websocketPkg.Config
	Source         SourceConfig
	Redis          redis.Config
	MQTT           mqtt.Config
	S3             *s3.Config
	Middleware     middleware.Config
}

// LoadAppConfig reads the process environment. Thresholds start from the
// defaults, then THRESHOLDS_FILE, then the individual env overrides.
func LoadAppConfig(validate *validator.Validate) (*AppConfig, error) {
	detectorOptions, err := parseDetectorOptions(os.Getenv("DETECTOR_OPTIONS"))
	if err != nil {
		return nil, err
	}

	cfg := &AppConfig{
		Port:           getEnv("APP_PORT", "3000"),
		Env:            getEnv("APP_ENV", "development"),
		ThresholdsFile: os.Getenv("THRESHOLDS_FILE"),
		Sampler: faceService.Config{
			Interval:        getEnvDuration("SAMPLER_INTERVAL", faceService.DefaultInterval),
			DetectorTimeout: getEnvDuration("DETECTOR_TIMEOUT", faceService.DefaultDetectorTimeout),
			Detector: entity.DetectorOptions{
				Detector: getEnv("DETECTOR_TYPE", DefaultDetector),
				Options:  detectorOptions,
			},
		},
		Detector: websocketPkg.Config{
			URL:          getEnv("AI_FACE_DETECTION_URL", websocketPkg.DefaultConfig().URL),
			PingInterval: getEnvDuration("DETECTOR_PING_INTERVAL", websocketPkg.DefaultConfig().PingInterval),
			ReadTimeout:  getEnvDuration("DETECTOR_READ_TIMEOUT", websocketPkg.DefaultConfig().ReadTimeout),
			WriteTimeout: getEnvDuration("DETECTOR_WRITE_TIMEOUT", websocketPkg.DefaultConfig().WriteTimeout),
		},
		Source: SourceConfig{
			Driver:   getEnv("FRAME_SOURCE", "mailbox"),
			Path:     os.Getenv("FRAME_SOURCE_PATH"),
			DeviceID: getEnvInt("FRAME_SOURCE_DEVICE_ID", 0),
			Settle:   getEnvDuration("FRAME_SOURCE_SETTLE", 0),
		},
		Redis: redis.Config{
			Address:  os.Getenv("REDIS_ADDRESS"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getEnvInt("REDIS_DB", 0),
			Channel:  getEnv("REDIS_SIGNAL_CHANNEL", redis.DefaultSignalChannel),
		},
		MQTT: mqtt.Config{
			Broker:   os.Getenv("MQTT_BROKER"),
			ClientID: getEnv("MQTT_CLIENT_ID", "facesignal"),
			Topic:    getEnv("MQTT_SIGNAL_TOPIC", mqtt.DefaultSignalTopic),
			QoS:      byte(getEnvInt("MQTT_QOS", 0)),
		},
		Middleware: middleware.Config{
			RateLimit: cast.ToFloat64(getEnv("RATE_LIMIT", "0")),
			RateBurst: getEnvInt("RATE_BURST", 0),
		},
	}

	if bucket := os.Getenv("AWS_BUCKET_NAME"); bucket != "" {
		cfg.S3 = &s3.Config{
			Region:          os.Getenv("AWS_REGION"),
			AccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
			Bucket:          bucket,
			Endpoint:        os.Getenv("AWS_ENDPOINT"),
			Prefix:          getEnv("AWS_SNAPSHOT_PREFIX", "snapshots"),
		}
	}

	thresholds := facemetric.Thresholds{}
	if cfg.ThresholdsFile != "" {
		thresholds, err = LoadThresholdsFile(cfg.ThresholdsFile)
		if err != nil {
			return nil, err
		}
	}
	cfg.Thresholds = thresholdsFromEnv(thresholds).Merge(facemetric.DefaultThresholds())

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *AppConfig) RedisEnabled() bool {
	return c.Redis.Address != ""
}

func (c *AppConfig) MQTTEnabled() bool {
	return c.MQTT.Broker != ""
}

// SourceArgs turns the source settings into the key/value pairs the frame
// source driver expects.
func (c *AppConfig) SourceArgs(logger *logrus.Logger) []interface{} {
	args := []interface{}{"logger", logger}

	switch c.Source.Driver {
	case "directory":
		args = append(args, "path", c.Source.Path)
		if c.Source.Settle > 0 {
			args = append(args, "settle", c.Source.Settle)
		}
	case "device":
		args = append(args, "device_id", c.Source.DeviceID)
	}

	return args
}

func LoadThresholdsFile(path string) (facemetric.Thresholds, error) {
	var thresholds facemetric.Thresholds

	raw, err := os.ReadFile(path)
	if err != nil {
		return thresholds, fmt.Errorf("failed to read thresholds file: %w", err)
	}

	if err := yaml.Unmarshal(raw, &thresholds); err != nil {
		return thresholds, fmt.Errorf("failed to parse thresholds file %s: %w", path, err)
	}

	return thresholds, nil
}

func thresholdsFromEnv(t facemetric.Thresholds) facemetric.Thresholds {
	if v, ok := lookupFloat("SMILE_THRESHOLD"); ok {
		t.Smile = v
	}
	if v, ok := lookupFloat("EYE_ASPECT_RATIO_THRESHOLD"); ok {
		t.EyeAspectRatio = v
	}
	if v, ok := lookupFloat("MOUTH_OPEN_THRESHOLD"); ok {
		t.MouthOpen = v
	}
	if v, ok := lookupFloat("HEAD_POSE_DELTA"); ok {
		t.HeadPoseDelta = v
	}
	return t
}

// parseDetectorOptions reads "key=value,key=value". Numeric and boolean
// values keep their type so the detector receives them unquoted.
func parseDetectorOptions(raw string) (map[string]interface{}, error) {
	options := map[string]interface{}{}
	if strings.TrimSpace(raw) == "" {
		return options, nil
	}

	for _, pair := range strings.Split(raw, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid DETECTOR_OPTIONS entry %q", pair)
		}

		if f, err := cast.ToFloat64E(value); err == nil {
			options[key] = f
		} else if b, err := cast.ToBoolE(value); err == nil {
			options[key] = b
		} else {
			options[key] = value
		}
	}

	return options, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	i, err := cast.ToIntE(value)
	if err != nil {
		return fallback
	}
	return i
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	d, err := cast.ToDurationE(value)
	if err != nil {
		return fallback
	}
	return d
}

func lookupFloat(key string) (float64, bool) {
	value := os.Getenv(key)
	if value == "" {
		return 0, false
	}
	f, err := cast.ToFloat64E(value)
	if err != nil {
		return 0, false
	}
	return f, true
}
