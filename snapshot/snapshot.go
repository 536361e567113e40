// Package snapshot persists and restores the set of resting orders.
// A snapshot plus the WAL records above its sequence watermark is
// enough to rebuild a book exactly.
package snapshot

import "time"

type Snapshot struct {
	Seq     uint64
	Symbol  string
	Created time.Time
	Orders  []OrderEntry
}

type OrderEntry struct {
	ID    uint64
	Side  int
	Price int64
	Qty   int64
}
