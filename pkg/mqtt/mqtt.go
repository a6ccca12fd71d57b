package mqtt

import (
	"fmt"
	"sync"
	"time"

	"FaceSignal/internal/entity"
	paho "github.com/eclipse/paho.mqtt.golang"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

const DefaultSignalTopic = "face/signals"

type Config struct {
	Broker   string
	ClientID string
	Topic    string
	QoS      byte `validate:"lte=2"`
}

type IEmitter interface {
	Connect(ctx context.Context) error
	Publish(ctx context.Context, update entity.SignalUpdate) error
	Disconnect()
	Stats() Stats
}

type Stats struct {
	Connected bool   `json:"connected"`
	Published uint64 `json:"published"`
	Errors    uint64 `json:"errors"`
}

type emitter struct {
	cfg    Config
	client paho.Client
	log    *logrus.Logger

	mu        sync.RWMutex
	connected bool
	published uint64
	errors    uint64
}

func New(log *logrus.Logger, cfg Config) IEmitter {
	if cfg.Topic == "" {
		cfg.Topic = DefaultSignalTopic
	}
	if cfg.ClientID == "" {
		cfg.ClientID = "facesignal"
	}

	return &emitter{cfg: cfg, log: log}
}

func (e *emitter) Connect(ctx context.Context) error {
	opts := paho.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s", e.cfg.Broker))
	opts.SetClientID(e.cfg.ClientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(2 * time.Second)
	opts.SetMaxReconnectInterval(30 * time.Second)

	opts.OnConnect = func(paho.Client) {
		e.setConnected(true)
		e.log.WithFields(logrus.Fields{
			"broker":    e.cfg.Broker,
			"client_id": e.cfg.ClientID,
		}).Info("MQTT connection established")
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		e.setConnected(false)
		e.log.WithError(err).WithField("broker", e.cfg.Broker).Warn("MQTT connection lost, will auto-reconnect")
	}

	e.client = paho.NewClient(opts)

	e.log.WithField("broker", e.cfg.Broker).Info("Connecting to MQTT broker")

	token := e.client.Connect()
	select {
	case <-token.Done():
	case <-ctx.Done():
		return fmt.Errorf("mqtt connection: %w", ctx.Err())
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connection failed: %w", err)
	}

	e.setConnected(true)
	return nil
}

func (e *emitter) Publish(ctx context.Context, update entity.SignalUpdate) error {
	if !e.isConnected() {
		e.countError()
		return fmt.Errorf("mqtt not connected")
	}

	payload, err := jsoniter.Marshal(update)
	if err != nil {
		e.countError()
		return fmt.Errorf("failed to marshal signal update: %w", err)
	}

	token := e.client.Publish(e.cfg.Topic, e.cfg.QoS, false, payload)
	select {
	case <-token.Done():
	case <-ctx.Done():
		e.countError()
		return fmt.Errorf("publish: %w", ctx.Err())
	}
	if err := token.Error(); err != nil {
		e.countError()
		return fmt.Errorf("publish failed: %w", err)
	}

	e.mu.Lock()
	e.published++
	e.mu.Unlock()

	e.log.WithFields(logrus.Fields{
		"topic": e.cfg.Topic,
		"qos":   e.cfg.QoS,
		"size":  len(payload),
	}).Debug("Signal update published")

	return nil
}

func (e *emitter) Disconnect() {
	if e.client != nil && e.client.IsConnected() {
		e.client.Disconnect(250)
		e.log.Info("MQTT disconnected")
	}
	e.setConnected(false)
}

func (e *emitter) Stats() Stats {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return Stats{
		Connected: e.connected,
		Published: e.published,
		Errors:    e.errors,
	}
}

func (e *emitter) setConnected(v bool) {
	e.mu.Lock()
	e.connected = v
	e.mu.Unlock()
}

func (e *emitter) isConnected() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.connected
}

func (e *emitter) countError() {
	e.mu.Lock()
	e.errors++
	e.mu.Unlock()
}
