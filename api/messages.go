package api

import (
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

// Request/response messages, framed with the protobuf wire format. The
// pack ships no generated pb code, so each message hand-encodes its
// fields; field numbers are the wire contract.

type PlaceOrderRequest struct {
	Side  int32
	Price int64
	Qty   int64
}

func (m *PlaceOrderRequest) MarshalWire() []byte {
	b := make([]byte, 0, 24)
	b = appendVarintField(b, 1, uint64(m.Side))
	b = appendZigZagField(b, 2, m.Price)
	b = appendZigZagField(b, 3, m.Qty)
	return b
}

func (m *PlaceOrderRequest) UnmarshalWire(data []byte) error {
	*m = PlaceOrderRequest{}
	return eachField(data, func(num protowire.Number, typ protowire.Type, v uint64, raw []byte) error {
		switch num {
		case 1:
			m.Side = int32(v)
		case 2:
			m.Price = protowire.DecodeZigZag(v)
		case 3:
			m.Qty = protowire.DecodeZigZag(v)
		}
		return nil
	})
}

type Fill struct {
	Qty   int64
	Price int64
}

func (f *Fill) marshal() []byte {
	b := make([]byte, 0, 16)
	b = appendZigZagField(b, 1, f.Qty)
	b = appendZigZagField(b, 2, f.Price)
	return b
}

func (f *Fill) unmarshal(data []byte) error {
	*f = Fill{}
	return eachField(data, func(num protowire.Number, typ protowire.Type, v uint64, raw []byte) error {
		switch num {
		case 1:
			f.Qty = protowire.DecodeZigZag(v)
		case 2:
			f.Price = protowire.DecodeZigZag(v)
		}
		return nil
	})
}

type PlaceOrderResponse struct {
	Status       int32
	RemainingQty int64
	RestingID    uint64
	Fills        []Fill
}

func (m *PlaceOrderResponse) MarshalWire() []byte {
	b := make([]byte, 0, 48)
	b = appendVarintField(b, 1, uint64(m.Status))
	b = appendZigZagField(b, 2, m.RemainingQty)
	b = appendVarintField(b, 3, m.RestingID)
	for i := range m.Fills {
		b = protowire.AppendTag(b, 4, protowire.BytesType)
		b = protowire.AppendBytes(b, m.Fills[i].marshal())
	}
	return b
}

func (m *PlaceOrderResponse) UnmarshalWire(data []byte) error {
	*m = PlaceOrderResponse{}
	return eachField(data, func(num protowire.Number, typ protowire.Type, v uint64, raw []byte) error {
		switch num {
		case 1:
			m.Status = int32(v)
		case 2:
			m.RemainingQty = protowire.DecodeZigZag(v)
		case 3:
			m.RestingID = v
		case 4:
			var f Fill
			if err := f.unmarshal(raw); err != nil {
				return err
			}
			m.Fills = append(m.Fills, f)
		}
		return nil
	})
}

type CancelOrderRequest struct {
	OrderID uint64
}

func (m *CancelOrderRequest) MarshalWire() []byte {
	return appendVarintField(nil, 1, m.OrderID)
}

func (m *CancelOrderRequest) UnmarshalWire(data []byte) error {
	*m = CancelOrderRequest{}
	return eachField(data, func(num protowire.Number, typ protowire.Type, v uint64, raw []byte) error {
		if num == 1 {
			m.OrderID = v
		}
		return nil
	})
}

type CancelOrderResponse struct{}

func (m *CancelOrderResponse) MarshalWire() []byte             { return nil }
func (m *CancelOrderResponse) UnmarshalWire(data []byte) error { return nil }

type GetBBORequest struct{}

func (m *GetBBORequest) MarshalWire() []byte             { return nil }
func (m *GetBBORequest) UnmarshalWire(data []byte) error { return nil }

type GetBBOResponse struct {
	BidPrice int64
	BidQty   int64
	AskPrice int64
	AskQty   int64
	Spread   float64
}

func (m *GetBBOResponse) MarshalWire() []byte {
	b := make([]byte, 0, 48)
	b = appendZigZagField(b, 1, m.BidPrice)
	b = appendZigZagField(b, 2, m.BidQty)
	b = appendZigZagField(b, 3, m.AskPrice)
	b = appendZigZagField(b, 4, m.AskQty)
	b = protowire.AppendTag(b, 5, protowire.Fixed64Type)
	b = protowire.AppendFixed64(b, math.Float64bits(m.Spread))
	return b
}

func (m *GetBBOResponse) UnmarshalWire(data []byte) error {
	*m = GetBBOResponse{}
	return eachField(data, func(num protowire.Number, typ protowire.Type, v uint64, raw []byte) error {
		switch num {
		case 1:
			m.BidPrice = protowire.DecodeZigZag(v)
		case 2:
			m.BidQty = protowire.DecodeZigZag(v)
		case 3:
			m.AskPrice = protowire.DecodeZigZag(v)
		case 4:
			m.AskQty = protowire.DecodeZigZag(v)
		case 5:
			m.Spread = math.Float64frombits(v)
		}
		return nil
	})
}

type GetDepthRequest struct {
	Side  int32
	Price int64
}

func (m *GetDepthRequest) MarshalWire() []byte {
	b := appendVarintField(nil, 1, uint64(m.Side))
	return appendZigZagField(b, 2, m.Price)
}

func (m *GetDepthRequest) UnmarshalWire(data []byte) error {
	*m = GetDepthRequest{}
	return eachField(data, func(num protowire.Number, typ protowire.Type, v uint64, raw []byte) error {
		switch num {
		case 1:
			m.Side = int32(v)
		case 2:
			m.Price = protowire.DecodeZigZag(v)
		}
		return nil
	})
}

type GetDepthResponse struct {
	Qty   int64
	Known bool
}

func (m *GetDepthResponse) MarshalWire() []byte {
	b := appendZigZagField(nil, 1, m.Qty)
	known := uint64(0)
	if m.Known {
		known = 1
	}
	return appendVarintField(b, 2, known)
}

func (m *GetDepthResponse) UnmarshalWire(data []byte) error {
	*m = GetDepthResponse{}
	return eachField(data, func(num protowire.Number, typ protowire.Type, v uint64, raw []byte) error {
		switch num {
		case 1:
			m.Qty = protowire.DecodeZigZag(v)
		case 2:
			m.Known = v != 0
		}
		return nil
	})
}

// --- wire helpers ---

func appendVarintField(b []byte, num protowire.Number, v uint64) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendZigZagField(b []byte, num protowire.Number, v int64) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, protowire.EncodeZigZag(v))
}

// eachField walks every field, handing varint and fixed64 values in v
// and length-delimited payloads in raw.
func eachField(data []byte, fn func(num protowire.Number, typ protowire.Type, v uint64, raw []byte) error) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return fmt.Errorf("api: bad tag: %w", protowire.ParseError(n))
		}
		data = data[n:]
		switch typ {
		case protowire.VarintType:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return fmt.Errorf("api: bad varint: %w", protowire.ParseError(n))
			}
			if err := fn(num, typ, v, nil); err != nil {
				return err
			}
			data = data[n:]
		case protowire.Fixed64Type:
			v, n := protowire.ConsumeFixed64(data)
			if n < 0 {
				return fmt.Errorf("api: bad fixed64: %w", protowire.ParseError(n))
			}
			if err := fn(num, typ, v, nil); err != nil {
				return err
			}
			data = data[n:]
		case protowire.BytesType:
			raw, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return fmt.Errorf("api: bad bytes: %w", protowire.ParseError(n))
			}
			if err := fn(num, typ, 0, raw); err != nil {
				return err
			}
			data = data[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return fmt.Errorf("api: bad field %d: %w", num, protowire.ParseError(n))
			}
			data = data[n:]
		}
	}
	return nil
}
