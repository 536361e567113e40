// Package sequence issues the strictly monotonic sequence numbers that
// order every command applied to a book. Because the service also uses
// sequence numbers as resting-order identifiers, a WAL replay that
// resets the sequencer reproduces the exact ids of the original run.
package sequence

import "sync/atomic"

type Sequencer struct {
	next atomic.Uint64
}

// New creates a sequencer. Pass 0 on a fresh start, or the last
// replayed sequence after WAL replay.
func New(start uint64) *Sequencer {
	s := &Sequencer{}
	s.next.Store(start)
	return s
}

// Next returns the next sequence number.
func (s *Sequencer) Next() uint64 {
	return s.next.Add(1)
}

// Current returns the last issued sequence number.
func (s *Sequencer) Current() uint64 {
	return s.next.Load()
}

// Reset rewinds the sequencer. Only valid after replay, before the
// book takes traffic.
func (s *Sequencer) Reset(v uint64) {
	s.next.Store(v)
}

// NextID implements orderbook.IDSource: resting-order ids are sequence
// numbers, so they are unique and deterministic under replay.
func (s *Sequencer) NextID() uint64 {
	return s.Next()
}
