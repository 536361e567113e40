package feed

import (
	"strconv"
	"testing"
	"time"

	"mimir/orderbook"
	"mimir/outbox"
	"mimir/ring"
	"mimir/sequence"
	"mimir/service"
	"mimir/wal"
)

func newTestConsumer(t *testing.T) *Consumer {
	t.Helper()
	w, err := wal.Open(wal.Config{Dir: t.TempDir(), FlushInterval: time.Hour})
	if err != nil {
		t.Fatalf("open wal: %v", err)
	}
	t.Cleanup(func() { w.Close() })
	box, err := outbox.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open outbox: %v", err)
	}
	t.Cleanup(func() { box.Close() })

	seq := sequence.New(0)
	book := orderbook.New("BTC-USD", orderbook.WithIDSource(seq))
	svc := service.New(book, seq, w, box, ring.New(16), service.Config{SnapshotDir: t.TempDir()})
	return &Consumer{svc: svc}
}

func TestApplyPlaceCommand(t *testing.T) {
	c := newTestConsumer(t)
	if err := c.apply([]byte(`{"op":"place","side":"bid","price":100,"qty":5}`)); err != nil {
		t.Fatalf("apply place: %v", err)
	}
	if depth, ok := c.svc.Depth(orderbook.Bid, 100); !ok || depth != 5 {
		t.Errorf("depth = %d,%v, want 5,true", depth, ok)
	}
}

func TestApplyCancelCommand(t *testing.T) {
	c := newTestConsumer(t)
	res, err := c.svc.PlaceLimit(orderbook.Ask, 101, 3)
	if err != nil {
		t.Fatal(err)
	}
	cmd := []byte(`{"op":"cancel","order_id":` + strconv.FormatUint(res.RestingID, 10) + `}`)
	if err := c.apply(cmd); err != nil {
		t.Fatalf("apply cancel: %v", err)
	}
	if depth, _ := c.svc.Depth(orderbook.Ask, 101); depth != 0 {
		t.Errorf("depth after cancel = %d, want 0", depth)
	}
}

func TestApplyRejectsBadInput(t *testing.T) {
	c := newTestConsumer(t)
	cases := []string{
		`not json`,
		`{"op":"nope"}`,
		`{"op":"place","side":"sideways","price":1,"qty":1}`,
		`{"op":"place","side":"bid","price":0,"qty":1}`,
		`{"op":"cancel","order_id":99999}`,
	}
	for _, in := range cases {
		if err := c.apply([]byte(in)); err == nil {
			t.Errorf("apply(%s) succeeded, want error", in)
		}
	}
}
