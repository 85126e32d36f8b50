// Package sampler caches the latest PM table frame and fans it out to subscribers.
package sampler

import (
	"errors"
	"log/slog"
	"sync"
)

// ErrClosed is returned when subscribing to a closed hub.
var ErrClosed = errors.New("sampler: hub closed")

// Hub keeps the most recent sample and broadcasts new ones. Slow subscribers
// lose their oldest pending sample rather than blocking the publisher.
type Hub struct {
	logger *slog.Logger

	mu          sync.RWMutex
	latest      Sample
	hasLatest   bool
	published   uint64
	subscribers map[*subscriber]struct{}
	closed      bool
}

// NewHub returns an empty hub.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		logger:      logger.With("component", "sampler_hub"),
		subscribers: make(map[*subscriber]struct{}),
	}
}

// Publish stores sample as the latest frame and delivers it to subscribers.
func (h *Hub) Publish(sample Sample) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.latest = sample
	h.hasLatest = true
	h.published++

	targetSubs := make([]*subscriber, 0, len(h.subscribers))
	for sub := range h.subscribers {
		targetSubs = append(targetSubs, sub)
	}
	h.mu.Unlock()

	for _, sub := range targetSubs {
		sub.send(sample)
	}
}

// Latest returns the most recent sample.
func (h *Hub) Latest() (Sample, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.latest, h.hasLatest
}

// Ready reports whether at least one sample has been published.
func (h *Hub) Ready() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.hasLatest
}

// Published returns the number of samples published so far.
func (h *Hub) Published() uint64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.published
}

// Subscribers returns the number of live subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// Subscribe registers a listener. The latest sample, if any, is delivered
// immediately. The returned function cancels the subscription.
func (h *Hub) Subscribe() (<-chan Sample, func(), error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, nil, ErrClosed
	}

	sub := newSubscriber()
	h.subscribers[sub] = struct{}{}
	if h.hasLatest {
		sub.send(h.latest)
	}

	unsubscribe := func() {
		h.removeSubscriber(sub)
	}
	return sub.channel(), unsubscribe, nil
}

func (h *Hub) removeSubscriber(sub *subscriber) {
	h.mu.Lock()
	delete(h.subscribers, sub)
	h.mu.Unlock()
	sub.close()
}

// Close ends every subscription. Safe for repeated use.
func (h *Hub) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	subs := h.subscribers
	h.subscribers = make(map[*subscriber]struct{})
	h.mu.Unlock()

	for sub := range subs {
		sub.close()
	}
	h.logger.Debug("hub closed", "subscribers", len(subs))
	return nil
}

type subscriber struct {
	ch     chan Sample
	mu     sync.Mutex
	closed bool
}

func newSubscriber() *subscriber {
	return &subscriber{
		ch: make(chan Sample, 1),
	}
}

func (s *subscriber) channel() <-chan Sample {
	return s.ch
}

func (s *subscriber) send(sample Sample) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.ch <- sample:
		return
	default:
		// Drop oldest to make room for new sample.
		select {
		case <-s.ch:
		default:
		}
		select {
		case s.ch <- sample:
		default:
		}
	}
}

func (s *subscriber) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	close(s.ch)
	s.closed = true
}
