package handshake

import (
	"context"
	"slices"
	"sync"
)

// Bus delivers cross-window messages to listeners. Subscribe returns the
// message channel, the companion error channel and a function that ends the
// subscription; nothing is delivered after it returns.
type Bus interface {
	Subscribe() (msgs <-chan Message, errs <-chan error, cancel func())
}

// ChannelBus is an in-process Bus. Every subscriber receives every message.
type ChannelBus struct {
	mu   sync.RWMutex
	subs []*subscription
}

type subscription struct {
	msgs chan Message
	errs chan error
	done chan struct{}
	once sync.Once
}

var _ Bus = (*ChannelBus)(nil)

func NewChannelBus() *ChannelBus {
	return &ChannelBus{}
}

func (b *ChannelBus) Subscribe() (<-chan Message, <-chan error, func()) {
	sub := &subscription{
		msgs: make(chan Message),
		errs: make(chan error),
		done: make(chan struct{}),
	}

	b.mu.Lock()
	b.subs = append(b.subs, sub)
	b.mu.Unlock()

	cancel := func() {
		sub.once.Do(func() {
			close(sub.done)

			b.mu.Lock()
			b.subs = slices.DeleteFunc(b.subs, func(s *subscription) bool { return s == sub })
			b.mu.Unlock()
		})
	}

	return sub.msgs, sub.errs, cancel
}

// Post delivers msg to every current subscriber, blocking until each one has
// received it, unsubscribed, or ctx is done.
func (b *ChannelBus) Post(ctx context.Context, msg Message) error {
	for _, sub := range b.snapshot() {
		select {
		case sub.msgs <- msg:
		case <-sub.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// PostError delivers a message-level error, the equivalent of a messageerror event.
func (b *ChannelBus) PostError(ctx context.Context, err error) error {
	for _, sub := range b.snapshot() {
		select {
		case sub.errs <- err:
		case <-sub.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Subscribers returns the number of active subscriptions.
func (b *ChannelBus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

func (b *ChannelBus) snapshot() []*subscription {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return slices.Clone(b.subs)
}
