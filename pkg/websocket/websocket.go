package websocketPkg

import (
	"encoding/base64"
	"errors"
	"fmt"
	"sync"
	"time"

	"FaceSignal/internal/entity"
	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cast"
	"golang.org/x/net/context"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	ErrNotConnected   = errors.New("not connected to face detection service")
	ErrDetectorFailed = errors.New("face detection service reported an error")
)

// Sub-requests the face service must compose on the single detected face.
var faceSubRequests = []string{"landmarks", "expressions", "age_gender"}

const handshakeTimeout = 10 * time.Second

type IWebsocket interface {
	DetectFace(ctx context.Context, frame *entity.Frame, opts entity.DetectorOptions) (entity.DetectionResult, error)
	IsConnected() bool
	Reconnect(ctx context.Context) error
	CloseConnections()
}

type Config struct {
	URL          string        `validate:"required,url"`
	PingInterval time.Duration `validate:"gt=0"`
	ReadTimeout  time.Duration `validate:"gt=0"`
	WriteTimeout time.Duration `validate:"gt=0"`
}

func DefaultConfig() Config {
	return Config{
		URL:          "ws://localhost:8000/api/v1/face/ws",
		PingInterval: 30 * time.Second,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 5 * time.Second,
	}
}

type webSocketClient struct {
	log      *logrus.Logger
	cfg      Config
	faceConn *websocket.Conn
	mu       sync.Mutex
	// exchange serializes request/response pairs on the shared connection.
	exchange sync.Mutex
}

func NewAIWebSocketClient(log *logrus.Logger, cfg Config) IWebsocket {
	client := &webSocketClient{
		log: log,
		cfg: cfg,
	}

	go client.connectInBackground()

	return client
}

func (c *webSocketClient) connectInBackground() {
	if err := c.Reconnect(context.Background()); err != nil {
		c.log.WithError(err).Warn("Initial connection to face detection service failed, will retry on demand")
		return
	}
	c.log.Info("Successfully connected to face detection service")
}

func (c *webSocketClient) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.faceConn != nil
}

// Reconnect replaces the current connection. The handshake is bounded by
// handshakeTimeout and by ctx, whichever ends first.
func (c *webSocketClient) Reconnect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.faceConn != nil {
		c.faceConn.Close()
		c.faceConn = nil
	}

	if c.cfg.URL == "" {
		return fmt.Errorf("URL for face detection not configured")
	}

	c.log.WithField("url", c.cfg.URL).Info("Connecting to face detection service")

	dialer := *websocket.DefaultDialer
	dialer.HandshakeTimeout = handshakeTimeout

	conn, _, err := dialer.DialContext(ctx, c.cfg.URL, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", c.cfg.URL, err)
	}

	conn.SetPingHandler(func(appData string) error {
		err := conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(c.cfg.WriteTimeout))
		if err != nil {
			c.log.WithError(err).Warn("Error sending pong")
		}
		return nil
	})

	c.faceConn = conn

	go c.keepAlive(conn)

	return nil
}

func (c *webSocketClient) CloseConnections() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.faceConn != nil {
		c.faceConn.Close()
		c.faceConn = nil
	}
}

func (c *webSocketClient) keepAlive(conn *websocket.Conn) {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer ticker.Stop()

	for range ticker.C {
		c.mu.Lock()
		if c.faceConn != conn {
			c.mu.Unlock()
			return
		}

		err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(c.cfg.WriteTimeout))
		if err != nil {
			c.log.WithError(err).Warn("Ping failed for face detection service, marking connection as dead")
			c.faceConn = nil
			conn.Close()
			c.mu.Unlock()
			return
		}

		c.mu.Unlock()
	}
}

func (c *webSocketClient) getConnection() (*websocket.Conn, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.faceConn == nil {
		return nil, ErrNotConnected
	}

	return c.faceConn, nil
}

func (c *webSocketClient) dropConnection(conn *websocket.Conn) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.faceConn == conn {
		c.faceConn = nil
	}
	conn.Close()
}

// DetectFace sends one frame and blocks until the service answers, the
// read timeout passes, or ctx is done. A reply without a face is Absent,
// not an error.
func (c *webSocketClient) DetectFace(ctx context.Context, frame *entity.Frame, opts entity.DetectorOptions) (entity.DetectionResult, error) {
	if frame == nil {
		return entity.Absent(), fmt.Errorf("no frame to send")
	}

	conn, err := c.getConnection()
	if err != nil {
		if err := c.Reconnect(ctx); err != nil {
			return entity.Absent(), fmt.Errorf("cannot connect to face detection service: %w", err)
		}
		conn, err = c.getConnection()
		if err != nil {
			return entity.Absent(), err
		}
	}

	payload, err := json.Marshal(entity.FaceDetectionRequest{
		Detector: opts.Detector,
		Options:  opts.Options,
		With:     faceSubRequests,
		Width:    frame.Width,
		Height:   frame.Height,
		Format:   frame.Format,
		Image:    base64.StdEncoding.EncodeToString(frame.Data),
	})
	if err != nil {
		return entity.Absent(), fmt.Errorf("error encoding face request: %w", err)
	}

	c.exchange.Lock()
	defer c.exchange.Unlock()

	conn.SetWriteDeadline(deadline(ctx, c.cfg.WriteTimeout))

	c.log.WithFields(logrus.Fields{
		"seq":  frame.Seq,
		"size": len(payload),
	}).Debug("Sending face frame")

	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		c.dropConnection(conn)
		return entity.Absent(), fmt.Errorf("error sending face frame: %w", err)
	}

	conn.SetReadDeadline(deadline(ctx, c.cfg.ReadTimeout))

	_, message, err := conn.ReadMessage()
	if err != nil {
		c.dropConnection(conn)
		return entity.Absent(), fmt.Errorf("error reading face message: %w", err)
	}

	conn.SetReadDeadline(time.Time{})
	conn.SetWriteDeadline(time.Time{})

	var response entity.FaceDetectionResponse
	if err := json.Unmarshal(message, &response); err != nil {
		return entity.Absent(), fmt.Errorf("error unmarshaling face response: %w", err)
	}

	return toDetectionResult(response)
}

func toDetectionResult(response entity.FaceDetectionResponse) (entity.DetectionResult, error) {
	if response.Error != "" {
		return entity.Absent(), fmt.Errorf("%w: %s", ErrDetectorFailed, response.Error)
	}
	if response.Face == nil {
		return entity.Absent(), nil
	}

	face := response.Face
	expressions := make(map[string]float64, len(face.Expressions))
	for label, raw := range face.Expressions {
		score, err := cast.ToFloat64E(raw)
		if err != nil {
			return entity.Absent(), fmt.Errorf("expression %q: %w", label, err)
		}
		expressions[label] = score
	}

	return entity.Present(entity.Detection{
		Landmarks:         face.Landmarks.LandmarkSet(),
		Expressions:       expressions,
		Age:               face.Age,
		Gender:            face.Gender,
		GenderProbability: face.GenderProbability,
		Score:             face.Score,
		Box:               face.Box,
	}), nil
}

func deadline(ctx context.Context, timeout time.Duration) time.Time {
	d := time.Now().Add(timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(d) {
		return ctxDeadline
	}
	return d
}
