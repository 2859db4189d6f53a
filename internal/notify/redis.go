package notify

import (
	"context"
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"

	"github.com/andresmejia3/maskwatch/internal/log"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type RedisOptions struct {
	Address     string
	Password    string
	DB          int
	ReminderTTL time.Duration
}

type redisPublisher struct {
	client      *redis.Client
	reminderTTL time.Duration
}

// NewRedis connects to Redis and fails if the server does not answer a ping.
func NewRedis(ctx context.Context, opts RedisOptions) (Publisher, error) {
	log.Info(log.Fields{"address": opts.Address, "db": opts.DB}, "[notify.NewRedis] connecting to redis")

	client := redis.NewClient(&redis.Options{
		Addr:     opts.Address,
		Password: opts.Password,
		DB:       opts.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", opts.Address, err)
	}

	return &redisPublisher{client: client, reminderTTL: opts.ReminderTTL}, nil
}

func (r *redisPublisher) publish(ctx context.Context, channel string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", channel, err)
	}
	if err := r.client.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", channel, err)
	}
	return nil
}

func (r *redisPublisher) PublishResult(ctx context.Context, ev ResultEvent) error {
	return r.publish(ctx, ResultChannel, ev)
}

func (r *redisPublisher) PublishLocation(ctx context.Context, ev LocationEvent) error {
	return r.publish(ctx, LocationChannel, ev)
}

// Remind stores the offending result under ReminderKey so a UI can show it
// until the TTL lapses or the next compliant round cancels it.
func (r *redisPublisher) Remind(ctx context.Context, ev ResultEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to encode reminder: %w", err)
	}
	if err := r.client.Set(ctx, ReminderKey, payload, r.reminderTTL).Err(); err != nil {
		return fmt.Errorf("failed to set reminder: %w", err)
	}
	log.Debug(log.Fields{log.RoundIDKey: ev.RoundID, "ttl": r.reminderTTL.String()}, "[notify.Remind] reminder raised")
	return nil
}

func (r *redisPublisher) CancelReminder(ctx context.Context) error {
	n, err := r.client.Del(ctx, ReminderKey).Result()
	if err != nil {
		return fmt.Errorf("failed to cancel reminder: %w", err)
	}
	if n > 0 {
		log.Debug(nil, "[notify.CancelReminder] reminder cleared")
	}
	return nil
}

func (r *redisPublisher) Close() error {
	return r.client.Close()
}
