package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"FaceSignal/internal/entity"
	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const DefaultSignalChannel = "face:signals"

var ErrNoChannel = errors.New("redis signal channel not configured")

type Config struct {
	Address  string
	Password string
	DB       int
	Channel  string
}

// ISignalPublisher fans signal updates out over redis pub/sub. Nothing is
// stored under a key: subscribers that are offline miss the update.
type ISignalPublisher interface {
	Publish(ctx context.Context, update entity.SignalUpdate) error
	Close() error
}

type publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
	Close() error
}

type redisClient struct {
	client  publisher
	channel string
	log     *logrus.Logger
}

func New(log *logrus.Logger, cfg Config) ISignalPublisher {
	if cfg.Channel == "" {
		cfg.Channel = DefaultSignalChannel
	}

	log.Info(fmt.Sprintf("Connecting to Redis at %s...", cfg.Address))

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		log.Error(fmt.Sprintf("Failed to connect to Redis: %v", err))
	} else {
		log.Info("Successfully connected to Redis")
	}

	return &redisClient{client: client, channel: cfg.Channel, log: log}
}

func (r *redisClient) Publish(ctx context.Context, update entity.SignalUpdate) error {
	if r.channel == "" {
		return ErrNoChannel
	}

	payload, err := jsoniter.Marshal(update)
	if err != nil {
		return fmt.Errorf("error encoding signal update: %w", err)
	}

	receivers, err := r.client.Publish(ctx, r.channel, payload).Result()
	if err != nil {
		r.log.WithError(err).WithField("channel", r.channel).Error("Error publishing signal update")
		return err
	}

	r.log.WithFields(logrus.Fields{
		"channel":   r.channel,
		"tick_id":   update.TickID,
		"receivers": receivers,
	}).Debug("Published signal update")
	return nil
}

func (r *redisClient) Close() error {
	return r.client.Close()
}
