// Package event relays worker broadcasts between server instances.
package event

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Erickgiber/debts-my-clients/internal/domain/offline"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DefaultChannel is the Pub/Sub channel used when none is configured
const DefaultChannel = "ventas:sw:messages"

// Envelope is the wire form of a relayed message
type Envelope struct {
	Origin    string          `json:"origin"`
	Message   offline.Message `json:"message"`
	Timestamp int64           `json:"ts"`
}

// Deliverer receives messages relayed from other instances
type Deliverer interface {
	Broadcast(ctx context.Context, msg offline.Message) int
}

type relayedKey struct{}

// IsRelayed reports whether ctx carries a message that arrived over the relay
func IsRelayed(ctx context.Context) bool {
	v, _ := ctx.Value(relayedKey{}).(bool)
	return v
}

// RedisMessageRelay publishes local broadcasts on a Redis channel and
// re-broadcasts messages published by other instances. It is a Client of
// the local worker registry.
type RedisMessageRelay struct {
	client  redis.UniversalClient
	channel string
	origin  string
	logger  *zap.Logger
	types   map[offline.MessageType]bool

	mu      sync.Mutex
	running bool
}

// RelayOption configures a RedisMessageRelay
type RelayOption func(*RedisMessageRelay)

// WithChannel sets the Pub/Sub channel name
func WithChannel(channel string) RelayOption {
	return func(r *RedisMessageRelay) {
		if channel != "" {
			r.channel = channel
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) RelayOption {
	return func(r *RedisMessageRelay) {
		r.logger = logger
	}
}

// WithOrigin sets the instance id used to drop our own messages
func WithOrigin(origin string) RelayOption {
	return func(r *RedisMessageRelay) {
		r.origin = origin
	}
}

// WithMessageTypes limits which message types are published. By default
// only activation broadcasts leave the instance.
func WithMessageTypes(types ...offline.MessageType) RelayOption {
	return func(r *RedisMessageRelay) {
		r.types = make(map[offline.MessageType]bool, len(types))
		for _, t := range types {
			r.types[t] = true
		}
	}
}

// NewRedisMessageRelay creates a relay on an existing client. The caller
// keeps ownership of the client.
func NewRedisMessageRelay(client redis.UniversalClient, opts ...RelayOption) *RedisMessageRelay {
	r := &RedisMessageRelay{
		client:  client,
		channel: DefaultChannel,
		origin:  uuid.NewString(),
		logger:  zap.NewNop(),
		types:   map[offline.MessageType]bool{offline.MessageActivated: true},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ID implements the registry Client interface
func (r *RedisMessageRelay) ID() string {
	return "relay:" + r.origin
}

// Origin returns the instance id stamped on published envelopes
func (r *RedisMessageRelay) Origin() string {
	return r.origin
}

// PostMessage publishes msg unless it arrived over the relay or its type is
// not relayed.
func (r *RedisMessageRelay) PostMessage(ctx context.Context, msg offline.Message) error {
	if IsRelayed(ctx) || !r.types[msg.Type] {
		return nil
	}
	return r.Publish(ctx, msg)
}

// Publish sends msg to every subscribed instance
func (r *RedisMessageRelay) Publish(ctx context.Context, msg offline.Message) error {
	data, err := json.Marshal(Envelope{Origin: r.origin, Message: msg, Timestamp: time.Now().UnixNano()})
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	if err := r.client.Publish(ctx, r.channel, data).Err(); err != nil {
		r.logger.Error("Failed to publish relay message",
			zap.String("channel", r.channel),
			zap.String("type", string(msg.Type)),
			zap.Error(err))
		return fmt.Errorf("failed to publish message: %w", err)
	}
	r.logger.Debug("Published relay message",
		zap.String("channel", r.channel),
		zap.String("type", string(msg.Type)),
		zap.String("version", msg.Version.String()))
	return nil
}

// Subscribe delivers messages from other instances to target until ctx is
// done. It blocks; run it in a goroutine.
func (r *RedisMessageRelay) Subscribe(ctx context.Context, target Deliverer) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return errors.New("subscription already running")
	}
	r.running = true
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		r.running = false
		r.mu.Unlock()
	}()

	pubsub := r.client.Subscribe(ctx, r.channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to channel: %w", err)
	}
	r.logger.Info("Subscribed to relay channel", zap.String("channel", r.channel))

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Relay subscription stopped")
			return ctx.Err()
		case raw, ok := <-ch:
			if !ok {
				r.logger.Warn("Relay channel closed")
				return nil
			}
			r.handle(ctx, raw.Payload, target)
		}
	}
}

func (r *RedisMessageRelay) handle(ctx context.Context, payload string, target Deliverer) {
	var env Envelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		r.logger.Warn("Failed to unmarshal relay message", zap.String("payload", payload), zap.Error(err))
		return
	}
	if env.Origin == r.origin {
		return
	}
	n := target.Broadcast(context.WithValue(ctx, relayedKey{}, true), env.Message)
	r.logger.Debug("Relayed message delivered",
		zap.String("origin", env.Origin),
		zap.String("type", string(env.Message.Type)),
		zap.Int("clients", n))
}
