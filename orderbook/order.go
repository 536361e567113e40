package orderbook

import "math/rand/v2"

type Side int

const (
	Bid Side = iota
	Ask
)

func (s Side) String() string {
	if s == Ask {
		return "ASK"
	}
	return "BID"
}

// Opposite returns the side an incoming order matches against.
func (s Side) Opposite() Side {
	if s == Bid {
		return Ask
	}
	return Bid
}

// Order is one resting unit of liquidity. While an order sits in a
// level queue its Qty is always positive; an order driven to zero is
// removed in the same operation that zeroed it.
type Order struct {
	ID  uint64
	Qty int64
}

// IDSource produces identifiers for resting orders. The book asks for
// a fresh id every time an unfilled remainder is about to rest.
// Injecting a deterministic source makes tests and WAL replay
// reproducible; the default is process randomness.
type IDSource interface {
	NextID() uint64
}

type randIDs struct{}

func (randIDs) NextID() uint64 { return rand.Uint64() }
