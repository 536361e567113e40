package orderbook

// levelQueue holds all resting orders at one price on one side, oldest
// first. Matching consumes from the front; new remainders append to
// the back.
type levelQueue []Order

func (q *levelQueue) push(o Order) {
	*q = append(*q, o)
}

// remove drops the order with the given id, preserving the order of
// everything else. Reports whether the id was present.
func (q *levelQueue) remove(id uint64) bool {
	for i := range *q {
		if (*q)[i].ID == id {
			*q = append((*q)[:i], (*q)[i+1:]...)
			return true
		}
	}
	return false
}

// dropFilled removes every zero-quantity order left behind by a
// matching pass.
func (q *levelQueue) dropFilled() {
	kept := (*q)[:0]
	for _, o := range *q {
		if o.Qty != 0 {
			kept = append(kept, o)
		}
	}
	*q = kept
}

func (q levelQueue) totalQty() int64 {
	var sum int64
	for _, o := range q {
		sum += o.Qty
	}
	return sum
}
