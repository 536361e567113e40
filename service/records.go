package service

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"mimir/orderbook"
)

// WAL payload layouts. Place: side(1), price(2), qty(3).
// Cancel: order id(1). Field numbers are part of the on-disk contract.

const (
	placeFieldSide  = 1
	placeFieldPrice = 2
	placeFieldQty   = 3

	cancelFieldID = 1
)

func encodePlace(side orderbook.Side, price, qty int64) []byte {
	b := make([]byte, 0, 24)
	b = protowire.AppendTag(b, placeFieldSide, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(side))
	b = protowire.AppendTag(b, placeFieldPrice, protowire.VarintType)
	b = protowire.AppendVarint(b, protowire.EncodeZigZag(price))
	b = protowire.AppendTag(b, placeFieldQty, protowire.VarintType)
	b = protowire.AppendVarint(b, protowire.EncodeZigZag(qty))
	return b
}

func decodePlace(data []byte) (side orderbook.Side, price, qty int64, err error) {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 || typ != protowire.VarintType {
			return 0, 0, 0, fmt.Errorf("service: bad place payload")
		}
		data = data[n:]
		v, n := protowire.ConsumeVarint(data)
		if n < 0 {
			return 0, 0, 0, fmt.Errorf("service: bad place payload")
		}
		switch num {
		case placeFieldSide:
			side = orderbook.Side(v)
		case placeFieldPrice:
			price = protowire.DecodeZigZag(v)
		case placeFieldQty:
			qty = protowire.DecodeZigZag(v)
		}
		data = data[n:]
	}
	return side, price, qty, nil
}

func encodeCancel(id uint64) []byte {
	b := make([]byte, 0, 12)
	b = protowire.AppendTag(b, cancelFieldID, protowire.VarintType)
	b = protowire.AppendVarint(b, id)
	return b
}

func decodeCancel(data []byte) (uint64, error) {
	num, typ, n := protowire.ConsumeTag(data)
	if n < 0 || num != cancelFieldID || typ != protowire.VarintType {
		return 0, fmt.Errorf("service: bad cancel payload")
	}
	id, n2 := protowire.ConsumeVarint(data[n:])
	if n2 < 0 {
		return 0, fmt.Errorf("service: bad cancel payload")
	}
	return id, nil
}
