package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	goAccount "github.com/MrEthical07/goAccount"
	"github.com/redis/go-redis/v9"
)

// ErrRedisUnavailable wraps failures talking to Redis.
var ErrRedisUnavailable = errors.New("redis unavailable")

const defaultPrefix = "goaccount:mail"

// Keys names the Redis lists used by the outbox and the worker.
type Keys struct {
	Queue      string
	Processing string
	Dead       string
}

// KeysWithPrefix derives the list names from prefix.
func KeysWithPrefix(prefix string) Keys {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return Keys{
		Queue:      prefix + ":queue",
		Processing: prefix + ":processing",
		Dead:       prefix + ":dead",
	}
}

// Outbox queues notifications on a Redis list.
type Outbox struct {
	redis redis.UniversalClient
	keys  Keys
	now   func() time.Time
}

var _ goAccount.Notifier = (*Outbox)(nil)

// NewOutbox returns an Outbox writing to keys.Queue.
func NewOutbox(rdb redis.UniversalClient, keys Keys) *Outbox {
	return &Outbox{redis: rdb, keys: keys, now: time.Now}
}

// SendConfirmation queues a registration confirmation link.
func (o *Outbox) SendConfirmation(ctx context.Context, email, token string) error {
	return o.enqueue(ctx, Message{Kind: KindConfirmation, To: email, Token: token})
}

// SendPasswordReset queues a password reset link.
func (o *Outbox) SendPasswordReset(ctx context.Context, email, token string) error {
	return o.enqueue(ctx, Message{Kind: KindPasswordReset, To: email, Token: token})
}

func (o *Outbox) enqueue(ctx context.Context, m Message) error {
	m.EnqueuedAt = o.now().UTC()
	data, err := m.encode()
	if err != nil {
		return err
	}
	if err := o.redis.LPush(ctx, o.keys.Queue, data).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Depth reports the number of queued, in-flight and dead messages.
func (o *Outbox) Depth(ctx context.Context) (queued, processing, dead int64, err error) {
	cmds, err := o.redis.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LLen(ctx, o.keys.Queue)
		pipe.LLen(ctx, o.keys.Processing)
		pipe.LLen(ctx, o.keys.Dead)
		return nil
	})
	if err != nil {
		return 0, 0, 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return cmds[0].(*redis.IntCmd).Val(), cmds[1].(*redis.IntCmd).Val(), cmds[2].(*redis.IntCmd).Val(), nil
}

// Ping measures the round trip to Redis.
func (o *Outbox) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := o.redis.Ping(ctx).Err(); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return time.Since(start), nil
}
