package snapshot

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	"mimir/orderbook"
)

// Load seeds a freshly created book from the snapshot in dir and
// returns the sequence watermark to resume WAL replay from. A missing
// snapshot is not an error: the book starts empty at watermark 0.
func Load(dir string, book *orderbook.OrderBook) (uint64, error) {
	f, err := os.Open(filepath.Join(dir, fileName))
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	defer f.Close()

	var s Snapshot
	if err := gob.NewDecoder(f).Decode(&s); err != nil {
		return 0, fmt.Errorf("snapshot: decode: %w", err)
	}
	for _, e := range s.Orders {
		if err := book.RestoreOrder(orderbook.Side(e.Side), e.Price, e.Qty, e.ID); err != nil {
			return 0, fmt.Errorf("snapshot: restore order %d: %w", e.ID, err)
		}
	}
	return s.Seq, nil
}
