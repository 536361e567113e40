package orderbook

import (
	"math/rand/v2"
	"testing"
)

func BenchmarkAddRestingOrders(b *testing.B) {
	book := New("BENCH", WithIDSource(&seqIDs{}))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		book.AddLimitOrder(Bid, int64(i%500+1), 10)
	}
}

func BenchmarkAddAndMatch(b *testing.B) {
	rng := rand.New(rand.NewPCG(1, 2))
	book := New("BENCH", WithIDSource(&seqIDs{}))
	// preload resting liquidity on both sides around a 5000 mid
	for i := 0; i < 100_000; i++ {
		side := Bid
		if rng.Uint64()%2 == 0 {
			side = Ask
		}
		price := int64(rng.NormFloat64()*500 + 5000)
		if price < 1 {
			price = 1
		}
		book.AddLimitOrder(side, price, int64(rng.Uint64()%500+1))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		price := int64(rng.NormFloat64()*500 + 5000)
		if price < 1 {
			price = 1
		}
		book.AddLimitOrder(Ask, price, int64(rng.Uint64()%500+1))
	}
}

func BenchmarkCancel(b *testing.B) {
	book := New("BENCH", WithIDSource(&seqIDs{}))
	ids := make([]uint64, b.N)
	for i := 0; i < b.N; i++ {
		ids[i] = book.AddLimitOrder(Bid, int64(i%1000+1), 10).RestingID
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = book.CancelOrder(ids[i])
	}
}
