package notify

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/MrEthical07/goAccount/logging"
	"github.com/redis/go-redis/v9"
)

// WorkerConfig configures a Worker.
type WorkerConfig struct {
	Keys Keys
	// MaxAttempts is how many sends a message gets before it is dead-lettered.
	MaxAttempts int
	// PollTimeout bounds each blocking pop so Run notices cancellation.
	PollTimeout time.Duration
	Logger      logging.Logger
}

// WorkerStats counts worker outcomes since start.
type WorkerStats struct {
	Sent         uint64
	Retried      uint64
	DeadLettered uint64
}

// Worker drains the outbox queue.
type Worker struct {
	redis    redis.UniversalClient
	renderer *Renderer
	sender   Sender
	keys     Keys
	attempts int
	poll     time.Duration
	logger   logging.Logger

	sent    atomic.Uint64
	retried atomic.Uint64
	dead    atomic.Uint64
}

// NewWorker returns a Worker reading cfg.Keys.Queue.
func NewWorker(rdb redis.UniversalClient, renderer *Renderer, sender Sender, cfg WorkerConfig) *Worker {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = 2 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Nop()
	}
	if cfg.Keys.Queue == "" {
		cfg.Keys = KeysWithPrefix("")
	}
	return &Worker{
		redis:    rdb,
		renderer: renderer,
		sender:   sender,
		keys:     cfg.Keys,
		attempts: cfg.MaxAttempts,
		poll:     cfg.PollTimeout,
		logger:   cfg.Logger.With("component", "mail_worker"),
	}
}

// Stats returns a snapshot of the outcome counters.
func (w *Worker) Stats() WorkerStats {
	return WorkerStats{
		Sent:         w.sent.Load(),
		Retried:      w.retried.Load(),
		DeadLettered: w.dead.Load(),
	}
}

// Run processes messages until ctx is cancelled. Messages left in the
// processing list by a previous crash are requeued first.
func (w *Worker) Run(ctx context.Context) error {
	if n, err := w.Recover(ctx); err != nil {
		return err
	} else if n > 0 {
		w.logger.Warn(ctx, "requeued in-flight mail", "count", n)
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		if _, err := w.ProcessOne(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			w.logger.Error(ctx, "mail worker step failed", "error", err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Second):
			}
		}
	}
}

// Recover moves everything in the processing list back onto the queue.
func (w *Worker) Recover(ctx context.Context) (int, error) {
	n := 0
	for {
		err := w.redis.LMove(ctx, w.keys.Processing, w.keys.Queue, "RIGHT", "RIGHT").Err()
		if errors.Is(err, redis.Nil) {
			return n, nil
		}
		if err != nil {
			return n, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
		n++
	}
}

// ProcessOne handles at most one message. It reports whether a message was
// taken off the queue.
func (w *Worker) ProcessOne(ctx context.Context) (bool, error) {
	raw, err := w.redis.BLMove(ctx, w.keys.Queue, w.keys.Processing, "RIGHT", "LEFT", w.poll).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	msg, err := decodeMessage([]byte(raw))
	if err != nil {
		w.logger.Error(ctx, "undecodable mail message", "error", err)
		return true, w.deadLetter(ctx, raw, raw)
	}
	log := w.logger.With("kind", string(msg.Kind), "to", logging.RedactEmail(msg.To))

	mail, err := w.renderer.Render(msg)
	if err != nil {
		log.Error(ctx, "mail render failed", "error", err)
		return true, w.deadLetter(ctx, raw, raw)
	}

	if err := w.sender.Send(ctx, mail); err != nil {
		msg.Attempts++
		next, encErr := msg.encode()
		if encErr != nil {
			return true, encErr
		}
		if msg.Attempts >= w.attempts {
			log.Error(ctx, "mail dead-lettered", "attempts", msg.Attempts, "error", err)
			return true, w.deadLetter(ctx, raw, string(next))
		}
		log.Warn(ctx, "mail send failed, requeued", "attempts", msg.Attempts, "error", err)
		return true, w.requeue(ctx, raw, string(next))
	}

	if err := w.redis.LRem(ctx, w.keys.Processing, 1, raw).Err(); err != nil {
		return true, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	w.sent.Add(1)
	log.Info(ctx, "mail sent")
	return true, nil
}

func (w *Worker) requeue(ctx context.Context, raw, next string) error {
	_, err := w.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LRem(ctx, w.keys.Processing, 1, raw)
		pipe.LPush(ctx, w.keys.Queue, next)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	w.retried.Add(1)
	return nil
}

func (w *Worker) deadLetter(ctx context.Context, raw, payload string) error {
	_, err := w.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LRem(ctx, w.keys.Processing, 1, raw)
		pipe.LPush(ctx, w.keys.Dead, payload)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	w.dead.Add(1)
	return nil
}
