// Package service orchestrates the core components of the matching
// engine: order book, sequencer, WAL, outbox and event ring. It is the
// only write entry point; every mutation is sequenced and logged
// before it touches the book, and the mutex makes the service the
// serialization boundary the single-writer book requires.
package service

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"mimir/event"
	"mimir/orderbook"
	"mimir/outbox"
	"mimir/ring"
	"mimir/sequence"
	"mimir/wal"
)

// ErrInvalidOrder rejects non-positive price or quantity at the
// service edge, before anything is logged.
var ErrInvalidOrder = errors.New("service: price and qty must be positive")

type Config struct {
	SnapshotDir      string
	SnapshotInterval time.Duration
	DrainInterval    time.Duration
}

type OrderService struct {
	mu     sync.Mutex
	cfg    Config
	book   *orderbook.OrderBook
	seq    *sequence.Sequencer
	wal    wal.WAL
	box    *outbox.Outbox
	events *ring.EventRing
}

// New wires all dependencies. The book must have been created with the
// sequencer as its id source, so WAL replay reproduces resting-order
// ids.
func New(
	book *orderbook.OrderBook,
	seq *sequence.Sequencer,
	w wal.WAL,
	box *outbox.Outbox,
	events *ring.EventRing,
	cfg Config,
) *OrderService {
	return &OrderService{
		cfg:    cfg,
		book:   book,
		seq:    seq,
		wal:    w,
		box:    box,
		events: events,
	}
}

// PlaceLimit sequences, logs and applies one limit order, then stages
// a trade event per filled level for broadcast.
func (s *OrderService) PlaceLimit(side orderbook.Side, price, qty int64) (orderbook.FillResult, error) {
	if price <= 0 || qty <= 0 {
		return orderbook.FillResult{}, ErrInvalidOrder
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	seq := s.seq.Next()
	rec := &wal.Record{
		Type: wal.RecordPlace,
		Seq:  seq,
		Time: time.Now().UnixNano(),
		Data: encodePlace(side, price, qty),
	}
	if err := s.wal.Append(rec); err != nil {
		return orderbook.FillResult{}, fmt.Errorf("place: %w", err)
	}

	res := s.book.AddLimitOrder(side, price, qty)

	for _, f := range res.Fills {
		s.stage(&event.Trade{
			Seq:    s.seq.Next(),
			Symbol: s.book.Symbol(),
			Side:   int32(side),
			Price:  f.Price,
			Qty:    f.Qty,
		})
	}
	return res, nil
}

// Cancel sequences, logs and applies one cancellation. The WAL keeps
// failed cancels too; replay fails them identically.
func (s *OrderService) Cancel(id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := &wal.Record{
		Type: wal.RecordCancel,
		Seq:  s.seq.Next(),
		Time: time.Now().UnixNano(),
		Data: encodeCancel(id),
	}
	if err := s.wal.Append(rec); err != nil {
		return fmt.Errorf("cancel: %w", err)
	}
	return s.book.CancelOrder(id)
}

// stage hands a trade event to the outbox writer. A full ring falls
// back to a synchronous durable write rather than dropping the event.
func (s *OrderService) stage(t *event.Trade) {
	if s.events.Enqueue(t) {
		return
	}
	if err := s.box.Put(t.Seq, t.Marshal()); err != nil {
		log.Printf("[service] outbox put seq=%d: %v", t.Seq, err)
	}
}

// Quote returns the current best bid/offer.
func (s *OrderService) Quote() (orderbook.Quote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.book.BBO()
}

// Depth returns the aggregate resting quantity at a price.
func (s *OrderService) Depth(side orderbook.Side, price int64) (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.book.Depth(side, price)
}

// RestingOrder is one row of the depth listing.
type RestingOrder struct {
	ID    uint64
	Side  orderbook.Side
	Price int64
	Qty   int64
}

// Resting lists all resting orders, bids best-first then asks
// best-first.
func (s *OrderService) Resting() []RestingOrder {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]RestingOrder, 0, 256)
	s.book.Resting(func(side orderbook.Side, price int64, o orderbook.Order) bool {
		out = append(out, RestingOrder{ID: o.ID, Side: side, Price: price, Qty: o.Qty})
		return true
	})
	return out
}
