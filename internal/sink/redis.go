package sink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hslog/hslog-go/pkg/hslog/event"
)

const (
	// lastResultSuffix names the key holding the most recent GameOver envelope.
	lastResultSuffix = ":last_result"

	lastResultExpiration = 24 * time.Hour
	dialTimeout          = 5 * time.Second
)

// RedisOptions configures DialRedis.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Channel  string
}

// Redis publishes envelopes on a pub/sub channel. The last GameOver envelope
// is also stored under <channel>:last_result so late subscribers can read
// the previous result.
type Redis struct {
	client  *redis.Client
	channel string
	log     *slog.Logger
}

// NewRedis wraps an existing client.
func NewRedis(client *redis.Client, channel string, logger *slog.Logger) *Redis {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Redis{
		client:  client,
		channel: channel,
		log:     logger.With("component", "redis", "channel", channel),
	}
}

// DialRedis connects and pings the server.
func DialRedis(ctx context.Context, opts RedisOptions, logger *slog.Logger) (*Redis, error) {
	if opts.Channel == "" {
		return nil, errors.New("redis channel must not be empty")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis %s: %w", opts.Addr, err)
	}
	return NewRedis(client, opts.Channel, logger), nil
}

// Publish sends env to the channel.
func (r *Redis) Publish(ctx context.Context, env Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}
	if err := r.client.Publish(ctx, r.channel, data).Err(); err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	if env.Type == event.TypeGameOver {
		if err := r.client.Set(ctx, r.channel+lastResultSuffix, data, lastResultExpiration).Err(); err != nil {
			return fmt.Errorf("redis store result: %w", err)
		}
	}
	r.log.Debug("published", "seq", env.Seq, "type", env.Type)
	return nil
}

// LastResult returns the stored GameOver envelope, or nil when there is none.
func (r *Redis) LastResult(ctx context.Context) (*Envelope, error) {
	data, err := r.client.Get(ctx, r.channel+lastResultSuffix).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode last result: %w", err)
	}
	return &env, nil
}

// Close closes the client.
func (r *Redis) Close() error {
	return r.client.Close()
}
