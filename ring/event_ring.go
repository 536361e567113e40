// Package ring provides the bounded SPSC queue that carries trade
// events from the matching goroutine to the outbox writer.
package ring

import (
	"sync/atomic"

	"mimir/event"
)

// EventRing is a single-producer single-consumer ring. The matcher is
// the only producer, the outbox drain job the only consumer; head and
// tail sit on separate cache lines so neither side false-shares.
type EventRing struct {
	head  uint64
	_pad1 [56]byte
	tail  uint64
	_pad2 [56]byte

	buf  []*event.Trade
	mask uint64
}

// New allocates a fixed-size circular buffer. Size must be a power of
// two.
func New(pow2 uint64) *EventRing {
	if pow2 == 0 || pow2&(pow2-1) != 0 {
		panic("ring: size must be a power of two")
	}
	return &EventRing{buf: make([]*event.Trade, pow2), mask: pow2 - 1}
}

// Enqueue pushes a trade event. Returns false if the ring is full; the
// producer then persists the event synchronously instead of dropping
// it.
func (q *EventRing) Enqueue(t *event.Trade) bool {
	h := q.head
	tl := atomic.LoadUint64(&q.tail)
	if h-tl == uint64(len(q.buf)) {
		return false
	}
	q.buf[h&q.mask] = t
	atomic.StoreUint64(&q.head, h+1)
	return true
}

// Dequeue pops the oldest event, or nil when empty.
func (q *EventRing) Dequeue() *event.Trade {
	tl := q.tail
	h := atomic.LoadUint64(&q.head)
	if tl == h {
		return nil
	}
	t := q.buf[tl&q.mask]
	q.buf[tl&q.mask] = nil
	atomic.StoreUint64(&q.tail, tl+1)
	return t
}

// Len returns the number of events currently queued.
func (q *EventRing) Len() int {
	h := atomic.LoadUint64(&q.head)
	tl := atomic.LoadUint64(&q.tail)
	return int(h - tl)
}

// Cap returns the total capacity of the ring.
func (q *EventRing) Cap() int {
	return len(q.buf)
}
