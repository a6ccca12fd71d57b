package log

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"golang.org/x/net/context"
)

func TestLevelFromEnv(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, levelFromEnv(""))
	assert.Equal(t, logrus.InfoLevel, levelFromEnv("info"))
	assert.Equal(t, logrus.WarnLevel, levelFromEnv("WARN"))
	assert.Equal(t, logrus.DebugLevel, levelFromEnv("chatty"))
}

func TestWithRequestID(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	NewLogger()

	entry := WithRequestID(context.WithValue(context.Background(), RequestIDKey, "req-42"))
	assert.Equal(t, "req-42", entry.Data["request_id"])

	entry = WithRequestID(context.Background())
	assert.Equal(t, "unknown", entry.Data["request_id"])
}
