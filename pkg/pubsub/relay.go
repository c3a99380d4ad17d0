// Package pubsub relays messages between service replicas over Redis pub/sub.
package pubsub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Envelope wraps a payload with the replica that sent it.
type Envelope struct {
	Origin  string          `json:"origin"`
	Payload json.RawMessage `json:"payload"`
}

// Relay publishes to and receives from one Redis channel.
type Relay struct {
	client  *redis.Client
	channel string
	origin  string
}

// NewRedisRelay connects to Redis and verifies the connection.
func NewRedisRelay(opts ...Option) (*Relay, error) {
	cfg := &Config{
		Addr:        "localhost:6379",
		PoolSize:    10,
		PoolTimeout: 30 * time.Second,
		Channel:     "findash:updates",
	}

	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.Origin == "" {
		cfg.Origin = uuid.NewString()
	}

	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		PoolSize:    cfg.PoolSize,
		PoolTimeout: cfg.PoolTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &Relay{client: client, channel: cfg.Channel, origin: cfg.Origin}, nil
}

// Origin is this replica's name on the channel.
func (r *Relay) Origin() string { return r.origin }

// Publish JSON-encodes payload and sends it to the channel.
func (r *Relay) Publish(ctx context.Context, payload interface{}) error {
	data, err := Encode(r.origin, payload)
	if err != nil {
		return err
	}
	if err := r.client.Publish(ctx, r.channel, data).Err(); err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	return nil
}

// Run delivers messages from other replicas to handle until ctx ends.
// Malformed messages are skipped.
func (r *Relay) Run(ctx context.Context, handle func(origin string, payload []byte)) error {
	sub := r.client.Subscribe(ctx, r.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return fmt.Errorf("redis subscribe: %w", err)
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			env, err := Decode([]byte(msg.Payload))
			if err != nil || env.Origin == r.origin {
				continue
			}
			handle(env.Origin, env.Payload)
		}
	}
}

// Close closes the Redis connection.
func (r *Relay) Close() error {
	return r.client.Close()
}

// Encode builds the wire form of a message.
func Encode(origin string, payload interface{}) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return json.Marshal(Envelope{Origin: origin, Payload: raw})
}

// Decode parses the wire form of a message.
func Decode(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	if env.Origin == "" {
		return Envelope{}, errors.New("envelope without origin")
	}
	return env, nil
}
