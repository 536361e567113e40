package orderbook

// halfBook is one side of the market: a sorted price index plus a
// growable arena of level queues addressed by slot. Slots, once
// allocated, are never reused or compacted — a drained price keeps its
// slot for the life of the book, so slot references held by the
// location map stay valid without generation counters.
type halfBook struct {
	side   Side
	prices *priceIndex
	slots  []levelQueue
}

func newHalfBook(side Side) halfBook {
	return halfBook{
		side:   side,
		prices: newPriceIndex(),
		slots:  make([]levelQueue, 0, 1024),
	}
}

// slotFor returns the slot for price, allocating a fresh one (empty
// queue appended to the arena) the first time the price is seen.
func (h *halfBook) slotFor(price int64) int {
	if slot, ok := h.prices.get(price); ok {
		return slot
	}
	slot := len(h.slots)
	h.slots = append(h.slots, nil)
	h.prices.insert(price, slot)
	return slot
}

// totalQty sums the resting quantity at price. The second return is
// false when the price was never registered on this side.
func (h *halfBook) totalQty(price int64) (int64, bool) {
	slot, ok := h.prices.get(price)
	if !ok {
		return 0, false
	}
	return h.slots[slot].totalQty(), true
}

// walk visits levels best price first: descending for bids, ascending
// for asks. This ordering is what implements price priority.
func (h *halfBook) walk(fn func(price int64, slot int) bool) {
	if h.side == Bid {
		h.prices.descend(fn)
	} else {
		h.prices.ascend(fn)
	}
}
