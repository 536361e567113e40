package service

import (
	"context"
	"log"
	"time"

	"mimir/snapshot"
)

// StartOutboxDrain moves staged trade events from the ring into the
// durable outbox. Run exactly one drain goroutine: the ring is SPSC.
func (s *OrderService) StartOutboxDrain(ctx context.Context) {
	interval := s.cfg.DrainInterval
	if interval == 0 {
		interval = 50 * time.Millisecond
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				s.drainOnce()
				return
			case <-ticker.C:
				s.drainOnce()
			}
		}
	}()
}

func (s *OrderService) drainOnce() {
	for {
		t := s.events.Dequeue()
		if t == nil {
			return
		}
		if err := s.box.Put(t.Seq, t.Marshal()); err != nil {
			log.Printf("[service] outbox put seq=%d: %v", t.Seq, err)
		}
	}
}

// StartSnapshotJob periodically persists the resting set, then GCs WAL
// segments and acked outbox entries the snapshot has made redundant.
func (s *OrderService) StartSnapshotJob(ctx context.Context) {
	interval := s.cfg.SnapshotInterval
	if interval == 0 {
		interval = 30 * time.Second
	}
	w := &snapshot.Writer{Dir: s.cfg.SnapshotDir}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.mu.Lock()
				seq := s.seq.Current()
				err := w.Write(seq, s.book)
				s.mu.Unlock()
				if err != nil {
					log.Printf("[service] snapshot at seq=%d: %v", seq, err)
					continue
				}
				// ring entries may predate the watermark; keep
				// their WAL records until the drain catches up
				if s.events.Len() > 0 {
					continue
				}
				if err := s.wal.TruncateBefore(seq); err != nil {
					log.Printf("[service] wal truncate: %v", err)
				}
				if err := s.box.DeleteAckedUpTo(seq); err != nil {
					log.Printf("[service] outbox gc: %v", err)
				}
			}
		}
	}()
}
