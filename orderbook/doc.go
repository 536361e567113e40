// Package orderbook implements an in-memory single-instrument limit
// order book. Incoming limit orders are matched against resting
// liquidity on the opposite side under price-time priority; any
// unfilled remainder rests in the book. The book keeps three
// interlocking containers consistent: a sorted price index per side, a
// permanent slot arena of per-price FIFO queues, and an order-location
// map that makes cancellation O(1).
//
// The book is a purely sequential structure: one logical writer per
// instrument, no internal locking. Callers that need concurrent access
// must serialize externally (one goroutine per instrument, or an
// actor boundary such as the service layer).
package orderbook
