// Package outbox is the durable staging area between the matching
// engine and Kafka. Trade events are written here first; the
// broadcaster drains pending entries, publishes them, and marks them
// acked. Entries survive restarts, and WAL replay re-stages any fill
// whose event had not reached the outbox yet, so a crash between match
// and publish never loses a trade.
package outbox

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/cockroachdb/pebble"
)

// ErrNotFound reports a sequence number with no outbox entry.
var ErrNotFound = errors.New("outbox: entry not found")

type State uint8

const (
	StateNew State = iota
	StateSent
	StateAcked
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "NEW"
	case StateSent:
		return "SENT"
	case StateAcked:
		return "ACKED"
	case StateFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// Entry layout on disk: [state:1][retries:4][lastAttempt:8][payload].
type Entry struct {
	Seq         uint64
	State       State
	Retries     uint32
	LastAttempt int64
	Payload     []byte
}

const headerSize = 1 + 4 + 8

func encodeEntry(e Entry) []byte {
	buf := make([]byte, headerSize+len(e.Payload))
	buf[0] = byte(e.State)
	binary.BigEndian.PutUint32(buf[1:5], e.Retries)
	binary.BigEndian.PutUint64(buf[5:13], uint64(e.LastAttempt))
	copy(buf[headerSize:], e.Payload)
	return buf
}

func decodeEntry(seq uint64, b []byte) (Entry, error) {
	if len(b) < headerSize {
		return Entry{}, errors.New("outbox: entry too short")
	}
	return Entry{
		Seq:         seq,
		State:       State(b[0]),
		Retries:     binary.BigEndian.Uint32(b[1:5]),
		LastAttempt: int64(binary.BigEndian.Uint64(b[5:13])),
		Payload:     append([]byte(nil), b[headerSize:]...),
	}, nil
}

type Outbox struct {
	db     *pebble.DB
	closed bool
}

func Open(dir string) (*Outbox, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("outbox: open: %w", err)
	}
	return &Outbox{db: db}, nil
}

func (o *Outbox) Close() error {
	if o.closed {
		return nil
	}
	o.closed = true
	return o.db.Close()
}

// Put stages a new pending trade event keyed by its sequence number.
func (o *Outbox) Put(seq uint64, payload []byte) error {
	e := Entry{State: StateNew, Payload: payload}
	return o.db.Set(keyFor(seq), encodeEntry(e), pebble.Sync)
}

// Get returns the entry for a sequence number.
func (o *Outbox) Get(seq uint64) (Entry, error) {
	val, closer, err := o.db.Get(keyFor(seq))
	if errors.Is(err, pebble.ErrNotFound) {
		return Entry{}, fmt.Errorf("seq %d: %w", seq, ErrNotFound)
	}
	if err != nil {
		return Entry{}, err
	}
	defer closer.Close()
	return decodeEntry(seq, val)
}

// MarkSent flags an entry as handed to the producer, bumping its retry
// count.
func (o *Outbox) MarkSent(seq uint64) error {
	return o.transition(seq, StateSent)
}

// MarkAcked flags an entry as acknowledged by the broker.
func (o *Outbox) MarkAcked(seq uint64) error {
	return o.transition(seq, StateAcked)
}

// MarkFailed flags an entry so the broadcaster retries it later.
func (o *Outbox) MarkFailed(seq uint64) error {
	return o.transition(seq, StateFailed)
}

func (o *Outbox) transition(seq uint64, state State) error {
	e, err := o.Get(seq)
	if err != nil {
		return err
	}
	e.State = state
	e.LastAttempt = time.Now().UnixNano()
	if state == StateSent {
		e.Retries++
	}
	return o.db.Set(keyFor(seq), encodeEntry(e), pebble.Sync)
}

// ScanPending visits entries awaiting publication (NEW or FAILED) in
// sequence order.
func (o *Outbox) ScanPending(fn func(Entry) error) error {
	iter, err := o.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(keyPrefix),
		UpperBound: []byte(keyPrefix + "~"),
	})
	if err != nil {
		return err
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		seq, err := parseKey(iter.Key())
		if err != nil {
			return err
		}
		e, err := decodeEntry(seq, iter.Value())
		if err != nil {
			return err
		}
		if e.State != StateNew && e.State != StateFailed {
			continue
		}
		if err := fn(e); err != nil {
			return err
		}
	}
	return iter.Error()
}

// DeleteAckedUpTo removes acked entries with Seq <= seq. Called by the
// snapshot job once a snapshot covers them.
func (o *Outbox) DeleteAckedUpTo(seq uint64) error {
	iter, err := o.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(keyPrefix),
		UpperBound: append(keyFor(seq), '~'),
	})
	if err != nil {
		return err
	}
	defer iter.Close()

	var doomed [][]byte
	for iter.First(); iter.Valid(); iter.Next() {
		if len(iter.Value()) >= 1 && State(iter.Value()[0]) == StateAcked {
			doomed = append(doomed, append([]byte(nil), iter.Key()...))
		}
	}
	if err := iter.Error(); err != nil {
		return err
	}
	for _, key := range doomed {
		if err := o.db.Delete(key, pebble.Sync); err != nil {
			return err
		}
	}
	return nil
}

const keyPrefix = "trade/"

func keyFor(seq uint64) []byte {
	return []byte(fmt.Sprintf("%s%020d", keyPrefix, seq))
}

func parseKey(b []byte) (uint64, error) {
	var seq uint64
	if _, err := fmt.Sscanf(string(b[len(keyPrefix):]), "%d", &seq); err != nil {
		return 0, fmt.Errorf("outbox: bad key %q: %w", b, err)
	}
	return seq, nil
}
