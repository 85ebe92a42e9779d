// Package idempotency guards event handlers against duplicate deliveries.
package idempotency

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrAlreadyInProgress means another worker holds the key.
	ErrAlreadyInProgress = errors.New("operation already in progress")
	// ErrAlreadyCompleted means the key was processed before.
	ErrAlreadyCompleted = errors.New("operation already completed")
	// ErrInvalidState means the stored value is not a known state.
	ErrInvalidState = errors.New("invalid state")
)

// State is the stored progress of a key.
type State string

const (
	StateNone       State = "none"
	StateInProgress State = "in_progress"
	StateCompleted  State = "completed"
)

const (
	defaultLockDuration = time.Minute
	defaultStateTTL     = 24 * time.Hour
)

// Idempotency runs a function at most once per key.
type Idempotency interface {
	Exec(ctx context.Context, key string, fn func(context.Context) error, opts ...Option) error
}

// Option tunes Exec.
type Option func(*execOptions)

type execOptions struct {
	lockDuration time.Duration
	stateTTL     time.Duration
}

// WithLockDuration bounds how long a crashed worker keeps the key locked.
func WithLockDuration(d time.Duration) Option {
	return func(o *execOptions) { o.lockDuration = d }
}

// WithStateTTL sets how long a completed key is remembered.
func WithStateTTL(d time.Duration) Option {
	return func(o *execOptions) { o.stateTTL = d }
}

// StateTracker stores key states in redis.
type StateTracker struct {
	client redis.UniversalClient
	prefix string
}

// New returns a tracker that namespaces keys under "idempotency:".
func New(client redis.UniversalClient) *StateTracker {
	return &StateTracker{client: client, prefix: "idempotency:"}
}

// Acquire locks key for lockDuration. It returns StateNone when the caller
// owns the key, otherwise the state that blocked it.
func (s *StateTracker) Acquire(ctx context.Context, key string, lockDuration time.Duration) (State, error) {
	fk := s.prefix + key

	ok, err := s.client.SetNX(ctx, fk, string(StateInProgress), lockDuration).Result()
	if err != nil {
		return "", err
	}
	if ok {
		return StateNone, nil
	}

	val, err := s.client.Get(ctx, fk).Result()
	if errors.Is(err, redis.Nil) {
		// expired between SETNX and GET, try once more.
		return s.Acquire(ctx, key, lockDuration)
	}
	if err != nil {
		return "", err
	}

	switch State(val) {
	case StateInProgress, StateCompleted:
		return State(val), nil
	default:
		return "", ErrInvalidState
	}
}

// Exec runs fn unless key is completed or locked. A failing fn releases the
// key so a redelivery can retry.
func (s *StateTracker) Exec(ctx context.Context, key string, fn func(context.Context) error, opts ...Option) error {
	o := execOptions{lockDuration: defaultLockDuration, stateTTL: defaultStateTTL}
	for _, opt := range opts {
		opt(&o)
	}
	if o.lockDuration <= 0 {
		o.lockDuration = defaultLockDuration
	}
	if o.stateTTL <= 0 {
		o.stateTTL = defaultStateTTL
	}

	state, err := s.Acquire(ctx, key, o.lockDuration)
	if err != nil {
		return err
	}
	switch state {
	case StateInProgress:
		return ErrAlreadyInProgress
	case StateCompleted:
		return ErrAlreadyCompleted
	}

	if err := fn(ctx); err != nil {
		return errors.Join(err, s.client.Del(ctx, s.prefix+key).Err())
	}

	return s.client.Set(ctx, s.prefix+key, string(StateCompleted), o.stateTTL).Err()
}
