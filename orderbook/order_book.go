package orderbook

import (
	"errors"
	"fmt"
	"math"
)

// ErrUnknownOrder is returned by CancelOrder for identifiers with no
// resting quantity in the book.
var ErrUnknownOrder = errors.New("orderbook: unknown order id")

// ErrEmptyBook is returned by BBO when either side has never held
// liquidity, so no meaningful quote exists.
var ErrEmptyBook = errors.New("orderbook: empty book")

// location records where a resting order lives, for O(1) cancel.
type location struct {
	side Side
	slot int
}

// OrderBook owns both half books, the order-location map and the
// cached best bid/offer. It is not safe for concurrent use.
type OrderBook struct {
	symbol    string
	bestBid   int64
	bestOffer int64
	bids      halfBook
	asks      halfBook
	loc       map[uint64]location
	ids       IDSource
}

type Option func(*OrderBook)

// WithIDSource replaces the default random order-id source.
func WithIDSource(ids IDSource) Option {
	return func(b *OrderBook) { b.ids = ids }
}

// New creates an empty book for one instrument. The best bid/offer
// caches start at the extreme sentinels (MinInt64 / MaxInt64) until
// the first add on each side.
func New(symbol string, opts ...Option) *OrderBook {
	b := &OrderBook{
		symbol:    symbol,
		bestBid:   math.MinInt64,
		bestOffer: math.MaxInt64,
		bids:      newHalfBook(Bid),
		asks:      newHalfBook(Ask),
		loc:       make(map[uint64]location, 1024),
		ids:       randIDs{},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *OrderBook) Symbol() string { return b.symbol }

func (b *OrderBook) side(s Side) *halfBook {
	if s == Bid {
		return &b.bids
	}
	return &b.asks
}

// AddLimitOrder submits a limit order. It first crosses against the
// opposite side in price-time priority, then rests any remainder at
// the limit price on its own side. The best bid/offer cache is
// refreshed before returning.
func (b *OrderBook) AddLimitOrder(side Side, price, qty int64) FillResult {
	res := FillResult{}
	rem := qty

	opp := b.side(side.Opposite())
	opp.walk(func(levelPrice int64, slot int) bool {
		if side == Bid && levelPrice > price {
			return false
		}
		if side == Ask && levelPrice < price {
			return false
		}
		matched := b.matchLevel(&opp.slots[slot], &rem)
		if matched != 0 {
			res.Fills = append(res.Fills, Fill{Qty: matched, Price: levelPrice})
		}
		return rem > 0
	})

	res.RemainingQty = rem
	if rem != 0 {
		if rem == qty {
			res.Status = Created
		} else {
			res.Status = PartiallyFilled
		}
		res.RestingID = b.rest(side, price, rem)
	} else {
		res.Status = Filled
	}
	b.updateBBO()
	return res
}

// matchLevel consumes one level FIFO. Fully consumed resting orders
// are dropped from the queue and deregistered from the location map;
// a partial consume reduces the front order in place.
func (b *OrderBook) matchLevel(q *levelQueue, rem *int64) int64 {
	var done int64
	for i := range *q {
		if *rem == 0 {
			break
		}
		o := &(*q)[i]
		if o.Qty <= *rem {
			*rem -= o.Qty
			done += o.Qty
			o.Qty = 0
			delete(b.loc, o.ID)
		} else {
			o.Qty -= *rem
			done += *rem
			*rem = 0
		}
	}
	q.dropFilled()
	return done
}

// rest places an unfilled remainder as a new resting order on the
// order's own side and registers it for cancellation.
func (b *OrderBook) rest(side Side, price, qty int64) uint64 {
	var id uint64
	for {
		id = b.ids.NextID()
		if _, taken := b.loc[id]; !taken {
			break
		}
	}
	h := b.side(side)
	slot := h.slotFor(price)
	h.slots[slot].push(Order{ID: id, Qty: qty})
	b.loc[id] = location{side: side, slot: slot}
	return id
}

// CancelOrder removes a resting order by id. It returns
// ErrUnknownOrder, with no state change, when the id is not resting.
// The best bid/offer cache is not refreshed here: cancelling the last
// order at the best price leaves the cached quote stale until the next
// add.
func (b *OrderBook) CancelOrder(id uint64) error {
	l, ok := b.loc[id]
	if !ok {
		return fmt.Errorf("cancel %d: %w", id, ErrUnknownOrder)
	}
	b.side(l.side).slots[l.slot].remove(id)
	delete(b.loc, id)
	return nil
}

// updateBBO rescans each side from the inside out for the first
// non-empty level. A fully drained side leaves its cached price
// untouched, so the cache can go stale until that side sees liquidity
// again.
func (b *OrderBook) updateBBO() {
	b.bids.prices.descend(func(price int64, slot int) bool {
		if len(b.bids.slots[slot]) == 0 {
			return true
		}
		b.bestBid = price
		return false
	})
	b.asks.prices.ascend(func(price int64, slot int) bool {
		if len(b.asks.slots[slot]) == 0 {
			return true
		}
		b.bestOffer = price
		return false
	})
}

// Quote is a point-in-time view of the top of the book. Spread is
// relative: (offer - bid) / offer.
type Quote struct {
	BidPrice int64
	BidQty   int64
	AskPrice int64
	AskQty   int64
	Spread   float64
}

// BBO reports the cached best bid/offer with their aggregate resting
// quantities. It returns ErrEmptyBook while either side has never held
// liquidity.
func (b *OrderBook) BBO() (Quote, error) {
	if b.bestBid == math.MinInt64 || b.bestOffer == math.MaxInt64 {
		return Quote{}, ErrEmptyBook
	}
	bidQty, _ := b.bids.totalQty(b.bestBid)
	askQty, _ := b.asks.totalQty(b.bestOffer)
	return Quote{
		BidPrice: b.bestBid,
		BidQty:   bidQty,
		AskPrice: b.bestOffer,
		AskQty:   askQty,
		Spread:   float64(b.bestOffer-b.bestBid) / float64(b.bestOffer),
	}, nil
}

// Depth returns the aggregate resting quantity at a price. The second
// return is false when the price was never registered on that side.
func (b *OrderBook) Depth(side Side, price int64) (int64, bool) {
	return b.side(side).totalQty(price)
}

// Orders returns the number of resting orders in the book.
func (b *OrderBook) Orders() int { return len(b.loc) }

// RestoreOrder reinserts a resting order verbatim, bypassing matching.
// It is the rebuild path for snapshot loads and must only be called on
// a book that is not yet taking traffic.
func (b *OrderBook) RestoreOrder(side Side, price, qty int64, id uint64) error {
	if qty <= 0 {
		return fmt.Errorf("restore %d: non-positive qty %d", id, qty)
	}
	if _, taken := b.loc[id]; taken {
		return fmt.Errorf("restore %d: id already resting", id)
	}
	h := b.side(side)
	slot := h.slotFor(price)
	h.slots[slot].push(Order{ID: id, Qty: qty})
	b.loc[id] = location{side: side, slot: slot}
	b.updateBBO()
	return nil
}

// Resting visits every resting order, bids best-first then asks
// best-first, until fn returns false. Snapshot writers and the gRPC
// depth query are the consumers; fn must not mutate the book.
func (b *OrderBook) Resting(fn func(side Side, price int64, o Order) bool) {
	stopped := false
	b.bids.walk(func(price int64, slot int) bool {
		for _, o := range b.bids.slots[slot] {
			if !fn(Bid, price, o) {
				stopped = true
				return false
			}
		}
		return true
	})
	if stopped {
		return
	}
	b.asks.walk(func(price int64, slot int) bool {
		for _, o := range b.asks.slots[slot] {
			if !fn(Ask, price, o) {
				return false
			}
		}
		return true
	})
}
