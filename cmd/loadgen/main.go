package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"time"

	"mimir/orderbook"
)

// Synthetic in-process flow: preload one side of the book with
// normally distributed resting orders, then fire crossing waves from
// the other side and report throughput and the resulting BBO.
func main() {
	var (
		symbol    = flag.String("symbol", "BTC-USD", "instrument symbol")
		resting   = flag.Int("resting", 100_000, "resting bids to preload")
		waves     = flag.Int("waves", 10, "crossing ask waves to fire")
		waveSize  = flag.Int("wave-size", 10_000, "orders per wave")
		mid       = flag.Float64("mid", 50_000, "mean price")
		stddev    = flag.Float64("stddev", 500, "price standard deviation")
		maxQty    = flag.Int64("max-qty", 100, "max order quantity")
		cancelPct = flag.Int("cancel-pct", 10, "percent of resting orders to cancel between waves")
		seed      = flag.Uint64("seed", 0, "rng seed, 0 uses the current time")
	)
	flag.Parse()

	s := *seed
	if s == 0 {
		s = uint64(time.Now().UnixNano())
	}
	rng := rand.New(rand.NewPCG(s, s^0x9e3779b97f4a7c15))

	book := orderbook.New(*symbol)

	price := func() int64 {
		p := int64(rng.NormFloat64()**stddev + *mid)
		if p < 1 {
			p = 1
		}
		return p
	}
	qty := func() int64 { return rng.Int64N(*maxQty) + 1 }

	log.Printf("seed=%d preloading %d bids on %s", s, *resting, *symbol)

	ids := make([]uint64, 0, *resting)
	start := time.Now()
	for i := 0; i < *resting; i++ {
		res := book.AddLimitOrder(orderbook.Bid, price(), qty())
		if res.RestingID != 0 {
			ids = append(ids, res.RestingID)
		}
	}
	elapsed := time.Since(start)
	log.Printf("preload done in %v (%.0f orders/s)", elapsed,
		float64(*resting)/elapsed.Seconds())

	var fills, cancelled int
	for w := 0; w < *waves; w++ {
		start = time.Now()
		for i := 0; i < *waveSize; i++ {
			res := book.AddLimitOrder(orderbook.Ask, price(), qty())
			fills += len(res.Fills)
		}
		elapsed = time.Since(start)
		log.Printf("wave %d: %d orders in %v (%.0f orders/s)",
			w+1, *waveSize, elapsed, float64(*waveSize)/elapsed.Seconds())

		for i := 0; i < len(ids)**cancelPct/100; i++ {
			id := ids[rng.IntN(len(ids))]
			if book.CancelOrder(id) == nil {
				cancelled++
			}
		}

		if q, err := book.BBO(); err == nil {
			fmt.Printf("  bbo bid=%d(%d) ask=%d(%d) spread=%.6f\n",
				q.BidPrice, q.BidQty, q.AskPrice, q.AskQty, q.Spread)
		}
	}

	log.Printf("done: %d fills, %d cancels", fills, cancelled)
}
