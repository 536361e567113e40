package snapshot

import (
	"encoding/gob"
	"os"
	"path/filepath"
	"time"

	"mimir/orderbook"
)

const fileName = "snapshot.bin"

type Writer struct {
	Dir string
}

// Write dumps every resting order at the given sequence watermark. The
// snapshot is written to a temp file and renamed into place so a crash
// mid-write never clobbers the previous snapshot.
func (w *Writer) Write(seq uint64, book *orderbook.OrderBook) error {
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return err
	}

	s := Snapshot{
		Seq:     seq,
		Symbol:  book.Symbol(),
		Created: time.Now(),
		Orders:  make([]OrderEntry, 0, 1024),
	}
	book.Resting(func(side orderbook.Side, price int64, o orderbook.Order) bool {
		s.Orders = append(s.Orders, OrderEntry{
			ID:    o.ID,
			Side:  int(side),
			Price: price,
			Qty:   o.Qty,
		})
		return true
	})

	tmp := filepath.Join(w.Dir, fileName+".tmp")
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if err := gob.NewEncoder(f).Encode(&s); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, filepath.Join(w.Dir, fileName))
}
