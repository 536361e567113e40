package api

import (
	"context"
	"testing"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"mimir/orderbook"
	"mimir/outbox"
	"mimir/ring"
	"mimir/sequence"
	"mimir/service"
	"mimir/wal"
)

func newTestServer(t *testing.T) *Server {
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
	return NewServer(svc)
}

func TestPlaceCancelOverAPI(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	resp, err := s.PlaceOrder(ctx, &PlaceOrderRequest{Side: int32(orderbook.Bid), Price: 100, Qty: 10})
	if err != nil {
		t.Fatalf("place: %v", err)
	}
	if resp.Status != int32(orderbook.Created) || resp.RestingID == 0 {
		t.Fatalf("resp = %+v", resp)
	}

	if _, err := s.CancelOrder(ctx, &CancelOrderRequest{OrderID: resp.RestingID}); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	_, err = s.CancelOrder(ctx, &CancelOrderRequest{OrderID: resp.RestingID})
	if status.Code(err) != codes.NotFound {
		t.Errorf("second cancel code = %v, want NotFound", status.Code(err))
	}
}

func TestPlaceOrderValidation(t *testing.T) {
	s := newTestServer(t)
	_, err := s.PlaceOrder(context.Background(), &PlaceOrderRequest{Side: int32(orderbook.Bid), Price: 0, Qty: 1})
	if status.Code(err) != codes.InvalidArgument {
		t.Errorf("code = %v, want InvalidArgument", status.Code(err))
	}
}

func TestGetBBO(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	_, err := s.GetBBO(ctx, &GetBBORequest{})
	if status.Code(err) != codes.FailedPrecondition {
		t.Errorf("empty book code = %v, want FailedPrecondition", status.Code(err))
	}

	s.PlaceOrder(ctx, &PlaceOrderRequest{Side: int32(orderbook.Bid), Price: 100, Qty: 5})
	s.PlaceOrder(ctx, &PlaceOrderRequest{Side: int32(orderbook.Ask), Price: 104, Qty: 3})

	resp, err := s.GetBBO(ctx, &GetBBORequest{})
	if err != nil {
		t.Fatalf("bbo: %v", err)
	}
	if resp.BidPrice != 100 || resp.AskPrice != 104 || resp.BidQty != 5 || resp.AskQty != 3 {
		t.Errorf("bbo = %+v", resp)
	}
}

func TestMessageRoundTrips(t *testing.T) {
	codec := Codec{}

	in := &PlaceOrderResponse{
		Status:       int32(orderbook.PartiallyFilled),
		RemainingQty: 4,
		RestingID:    99,
		Fills:        []Fill{{Qty: 5, Price: 95}, {Qty: 2, Price: 90}},
	}
	data, err := codec.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	out := &PlaceOrderResponse{}
	if err := codec.Unmarshal(data, out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Status != in.Status || out.RemainingQty != in.RemainingQty || out.RestingID != in.RestingID {
		t.Errorf("scalars = %+v, want %+v", out, in)
	}
	if len(out.Fills) != 2 || out.Fills[0] != in.Fills[0] || out.Fills[1] != in.Fills[1] {
		t.Errorf("fills = %v, want %v", out.Fills, in.Fills)
	}

	bbo := &GetBBOResponse{BidPrice: 100, BidQty: 5, AskPrice: 104, AskQty: 3, Spread: 4.0 / 104}
	data, _ = codec.Marshal(bbo)
	got := &GetBBOResponse{}
	if err := codec.Unmarshal(data, got); err != nil {
		t.Fatalf("unmarshal bbo: %v", err)
	}
	if *got != *bbo {
		t.Errorf("bbo = %+v, want %+v", got, bbo)
	}
}

func TestCodecRejectsForeignTypes(t *testing.T) {
	codec := Codec{}
	if _, err := codec.Marshal(struct{}{}); err == nil {
		t.Error("marshal of non-wire type should fail")
	}
	if err := codec.Unmarshal(nil, struct{}{}); err == nil {
		t.Error("unmarshal into non-wire type should fail")
	}
}
