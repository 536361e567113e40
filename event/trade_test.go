package event

import "testing"

func TestTradeRoundTrip(t *testing.T) {
	in := Trade{Seq: 42, Symbol: "BTC-USD", Side: 1, Price: 10050, Qty: 7}
	var out Trade
	if err := out.Unmarshal(in.Marshal()); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out != in {
		t.Errorf("round trip = %+v, want %+v", out, in)
	}
}

func TestTradeUnmarshalGarbage(t *testing.T) {
	var tr Trade
	if err := tr.Unmarshal([]byte{0xff, 0xff, 0xff}); err == nil {
		t.Error("expected error on garbage input")
	}
}
