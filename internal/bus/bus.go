// Package bus is the in-process channel the fetch and rename surfaces use to
// talk to each other. Payloads cross it JSON encoded.
package bus

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ErrClosed is returned by Flush after Close.
var ErrClosed = errors.New("bus closed")

// MalformedPayloadError reports a payload that failed to decode or validate.
// It is logged by the dispatch loop and never reaches a handler.
type MalformedPayloadError struct {
	Channel string
	Err     error
}

func (e *MalformedPayloadError) Error() string {
	return fmt.Sprintf("malformed %s payload: %v", e.Channel, e.Err)
}

func (e *MalformedPayloadError) Unwrap() error {
	return e.Err
}

type subscriber struct {
	id      uuid.UUID
	channel string
	deliver func([]byte) error
	closed  atomic.Bool
}

type envelope struct {
	channel string
	payload []byte
	targets []*subscriber
	barrier chan struct{}
}

// Bus delivers published payloads to the subscribers of a channel on a single
// dispatch goroutine, in publish order.
type Bus struct {
	mu     sync.Mutex
	subs   map[string][]*subscriber
	queue  chan envelope
	closed bool
	done   chan struct{}
	log    *logrus.Entry
}

// Option configures a Bus.
type Option func(*busConfig)

type busConfig struct {
	queueSize int
	logger    *logrus.Logger
}

// WithQueueSize sets how many envelopes may wait for dispatch before new
// publishes are dropped.
func WithQueueSize(n int) Option {
	return func(c *busConfig) {
		c.queueSize = n
	}
}

// WithLogger sets the logger used for dropped and malformed payloads.
func WithLogger(l *logrus.Logger) Option {
	return func(c *busConfig) {
		c.logger = l
	}
}

// New starts a bus and its dispatch loop. Call Close to stop it.
func New(opts ...Option) *Bus {
	cfg := busConfig{queueSize: 64, logger: logrus.StandardLogger()}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.queueSize < 1 {
		cfg.queueSize = 1
	}

	b := &Bus{
		subs:  make(map[string][]*subscriber),
		queue: make(chan envelope, cfg.queueSize),
		done:  make(chan struct{}),
		log:   cfg.logger.WithField("component", "bus"),
	}
	go b.run()
	return b
}

func (b *Bus) run() {
	defer close(b.done)
	for env := range b.queue {
		if env.barrier != nil {
			close(env.barrier)
			continue
		}
		for _, sub := range env.targets {
			if sub.closed.Load() {
				continue
			}
			b.dispatch(sub, env)
		}
	}
}

func (b *Bus) dispatch(sub *subscriber, env envelope) {
	defer func() {
		if r := recover(); r != nil {
			b.log.WithFields(logrus.Fields{
				"channel":      env.channel,
				"subscription": sub.id,
			}).Errorf("handler panicked: %v", r)
		}
	}()

	if err := sub.deliver(env.payload); err != nil {
		b.log.WithFields(logrus.Fields{
			"channel":      env.channel,
			"subscription": sub.id,
		}).WithError(err).Warn("dropping payload")
	}
}

// PublishRaw queues an encoded payload for every current subscriber of
// channel. Subscribers added later never see it. When the queue is full the
// payload is dropped.
func (b *Bus) PublishRaw(channel string, payload []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	targets := append([]*subscriber(nil), b.subs[channel]...)
	if len(targets) == 0 {
		return
	}

	select {
	case b.queue <- envelope{channel: channel, payload: payload, targets: targets}:
	default:
		b.log.WithField("channel", channel).Warn("queue full, dropping payload")
	}
}

func (b *Bus) subscribe(channel string, deliver func([]byte) error) *Subscription {
	sub := &subscriber{id: uuid.New(), channel: channel, deliver: deliver}

	b.mu.Lock()
	if b.closed {
		sub.closed.Store(true)
	} else {
		b.subs[channel] = append(b.subs[channel], sub)
	}
	b.mu.Unlock()

	return &Subscription{bus: b, sub: sub}
}

func (b *Bus) unsubscribe(sub *subscriber) {
	sub.closed.Store(true)

	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subs[sub.channel]
	for i, s := range subs {
		if s == sub {
			b.subs[sub.channel] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	if len(b.subs[sub.channel]) == 0 {
		delete(b.subs, sub.channel)
	}
}

// Subscribers returns the number of live subscriptions on channel.
func (b *Bus) Subscribers(channel string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[channel])
}

// Flush waits until everything published before the call has been dispatched.
func (b *Bus) Flush(ctx context.Context) error {
	barrier := make(chan struct{})
	for {
		b.mu.Lock()
		if b.closed {
			b.mu.Unlock()
			return ErrClosed
		}
		select {
		case b.queue <- envelope{barrier: barrier}:
			b.mu.Unlock()
			select {
			case <-barrier:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		default:
			b.mu.Unlock()
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(5 * time.Millisecond):
		}
	}
}

// Close stops accepting publishes, dispatches what is queued and waits for the
// loop to exit. It is safe to call more than once.
func (b *Bus) Close() {
	b.mu.Lock()
	if !b.closed {
		b.closed = true
		close(b.queue)
	}
	b.mu.Unlock()
	<-b.done
}

// Subscription is a live registration. Close releases it.
type Subscription struct {
	bus  *Bus
	sub  *subscriber
	once sync.Once
}

// ID identifies the subscription in logs.
func (s *Subscription) ID() uuid.UUID {
	return s.sub.id
}

// Channel returns the subscribed channel name.
func (s *Subscription) Channel() string {
	return s.sub.channel
}

// Close removes the subscription. Payloads already queued are not delivered
// to it afterwards.
func (s *Subscription) Close() {
	if s == nil {
		return
	}
	s.once.Do(func() {
		s.bus.unsubscribe(s.sub)
	})
}

// Topic binds a channel name to a payload type and its validation.
type Topic[T any] struct {
	Name     string
	Validate func(T) error
}

func (t Topic[T]) check(payload T) error {
	if t.Validate == nil {
		return nil
	}
	return t.Validate(payload)
}

// Publish encodes payload and queues it on the topic's channel. Only encoding
// or validation failures are returned; delivery is best effort.
func Publish[T any](b *Bus, topic Topic[T], payload T) error {
	if err := topic.check(payload); err != nil {
		return &MalformedPayloadError{Channel: topic.Name, Err: err}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", topic.Name, err)
	}
	b.PublishRaw(topic.Name, data)
	return nil
}

// Subscribe registers handler for the topic. Payloads that do not decode into
// T or fail validation are logged and dropped before reaching handler.
func Subscribe[T any](b *Bus, topic Topic[T], handler func(T)) *Subscription {
	return b.subscribe(topic.Name, func(data []byte) error {
		var payload T
		if err := json.Unmarshal(data, &payload); err != nil {
			return &MalformedPayloadError{Channel: topic.Name, Err: err}
		}
		if err := topic.check(payload); err != nil {
			return &MalformedPayloadError{Channel: topic.Name, Err: err}
		}
		handler(payload)
		return nil
	})
}
