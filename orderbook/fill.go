package orderbook

import "errors"

type Status int

const (
	Uninitialized Status = iota
	Created
	Filled
	PartiallyFilled
)

func (s Status) String() string {
	switch s {
	case Created:
		return "CREATED"
	case Filled:
		return "FILLED"
	case PartiallyFilled:
		return "PARTIALLY_FILLED"
	default:
		return "UNINITIALIZED"
	}
}

// Fill is the traded quantity at one price level. Field order is
// quantity first, then price, matching the wire shape consumers of
// FillResult already depend on.
type Fill struct {
	Qty   int64
	Price int64
}

// FillResult is the outcome of one AddLimitOrder call. Fills holds one
// entry per price level touched, best price first, in consumption
// order. RestingID is the identifier assigned to the rested remainder,
// or zero when nothing rested.
type FillResult struct {
	Fills        []Fill
	RemainingQty int64
	Status       Status
	RestingID    uint64
}

// ErrNoFills is returned by AvgFillPrice when the result contains no
// fills at all.
var ErrNoFills = errors.New("orderbook: no fills")

// AvgFillPrice returns the quantity-weighted average price over all
// fills.
func (r *FillResult) AvgFillPrice() (float64, error) {
	var paid, qty int64
	for _, f := range r.Fills {
		paid += f.Qty * f.Price
		qty += f.Qty
	}
	if qty == 0 {
		return 0, ErrNoFills
	}
	return float64(paid) / float64(qty), nil
}

// FilledQty returns the total quantity matched across all levels.
func (r *FillResult) FilledQty() int64 {
	var qty int64
	for _, f := range r.Fills {
		qty += f.Qty
	}
	return qty
}
