// Package event defines the trade events emitted by the matching
// engine and their wire encoding. Events are encoded with the raw
// protobuf wire format (encoding/protowire) so downstream consumers
// can decode them with any protobuf toolchain from the matching field
// numbers.
package event

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// Trade records one price level traded against by an incoming order.
// Side is the taker side of the trade.
type Trade struct {
	Seq    uint64
	Symbol string
	Side   int32
	Price  int64
	Qty    int64
}

// Field numbers are part of the wire contract; never renumber.
const (
	fieldSeq    = 1
	fieldSymbol = 2
	fieldSide   = 3
	fieldPrice  = 4
	fieldQty    = 5
)

func (t *Trade) Marshal() []byte {
	b := make([]byte, 0, 32+len(t.Symbol))
	b = protowire.AppendTag(b, fieldSeq, protowire.VarintType)
	b = protowire.AppendVarint(b, t.Seq)
	b = protowire.AppendTag(b, fieldSymbol, protowire.BytesType)
	b = protowire.AppendString(b, t.Symbol)
	b = protowire.AppendTag(b, fieldSide, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(t.Side))
	b = protowire.AppendTag(b, fieldPrice, protowire.VarintType)
	b = protowire.AppendVarint(b, protowire.EncodeZigZag(t.Price))
	b = protowire.AppendTag(b, fieldQty, protowire.VarintType)
	b = protowire.AppendVarint(b, protowire.EncodeZigZag(t.Qty))
	return b
}

func (t *Trade) Unmarshal(data []byte) error {
	*t = Trade{}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return fmt.Errorf("event: bad tag: %w", protowire.ParseError(n))
		}
		data = data[n:]
		switch {
		case num == fieldSymbol && typ == protowire.BytesType:
			s, n := protowire.ConsumeString(data)
			if n < 0 {
				return fmt.Errorf("event: bad symbol: %w", protowire.ParseError(n))
			}
			t.Symbol = s
			data = data[n:]
		case typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return fmt.Errorf("event: bad varint: %w", protowire.ParseError(n))
			}
			switch num {
			case fieldSeq:
				t.Seq = v
			case fieldSide:
				t.Side = int32(v)
			case fieldPrice:
				t.Price = protowire.DecodeZigZag(v)
			case fieldQty:
				t.Qty = protowire.DecodeZigZag(v)
			}
			data = data[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return fmt.Errorf("event: bad field %d: %w", num, protowire.ParseError(n))
			}
			data = data[n:]
		}
	}
	return nil
}
