package service

import (
	"errors"
	"fmt"
	"log"

	"mimir/event"
	"mimir/orderbook"
	"mimir/outbox"
	"mimir/snapshot"
	"mimir/wal"
)

// Restore rebuilds in-memory state before the service takes traffic:
// snapshot first, then every WAL record above the snapshot watermark.
// The sequencer is pinned to each record's sequence before the record
// is applied, so the book hands out the same resting-order ids it did
// in the original run. Fills produced by replayed places are re-staged
// into the outbox, recovering trade events that were still in the ring
// when the process died.
func (s *OrderService) Restore() error {
	watermark, err := snapshot.Load(s.cfg.SnapshotDir, s.book)
	if err != nil {
		return fmt.Errorf("restore: %w", err)
	}
	s.seq.Reset(watermark)

	replayed := 0
	err = s.wal.ReplayFrom(watermark, func(rec *wal.Record) error {
		s.seq.Reset(rec.Seq)
		switch rec.Type {
		case wal.RecordPlace:
			side, price, qty, err := decodePlace(rec.Data)
			if err != nil {
				return err
			}
			res := s.book.AddLimitOrder(side, price, qty)
			for _, f := range res.Fills {
				if err := s.restage(s.seq.Next(), side, f); err != nil {
					return err
				}
			}
		case wal.RecordCancel:
			id, err := decodeCancel(rec.Data)
			if err != nil {
				return err
			}
			// a cancel that failed live fails identically here
			if err := s.book.CancelOrder(id); err != nil && !errors.Is(err, orderbook.ErrUnknownOrder) {
				return err
			}
		default:
			return fmt.Errorf("restore: unknown record type %d", rec.Type)
		}
		replayed++
		return nil
	})
	if err != nil {
		return fmt.Errorf("restore: %w", err)
	}

	log.Printf("[service] restore complete: snapshot seq=%d, replayed=%d, next seq=%d",
		watermark, replayed, s.seq.Current()+1)
	return nil
}

// restage writes a replayed fill's trade event back to the outbox.
// Events the pre-crash run already drained keep their entry and state.
// Consuming the event's sequence number either way walks the sequencer
// past it, so new events never reuse a pre-crash key.
func (s *OrderService) restage(seq uint64, side orderbook.Side, f orderbook.Fill) error {
	_, err := s.box.Get(seq)
	if err == nil {
		return nil
	}
	if !errors.Is(err, outbox.ErrNotFound) {
		return err
	}
	t := &event.Trade{
		Seq:    seq,
		Symbol: s.book.Symbol(),
		Side:   int32(side),
		Price:  f.Price,
		Qty:    f.Qty,
	}
	return s.box.Put(seq, t.Marshal())
}
