package wal

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"

	"google.golang.org/protobuf/encoding/protowire"
)

var ErrCorruptRecord = errors.New("wal: corrupted record")

// Serializer converts records to self-delimiting frames and back. A
// frame is [bodyLen:4][crc32:4][body]; Decode receives the full frame.
type Serializer interface {
	Encode(*Record) ([]byte, error)
	Decode([]byte) (*Record, error)
}

const frameHeaderSize = 8

// WireSerializer encodes record bodies with the protobuf wire format
// and guards them with a CRC-32 over the body.
type WireSerializer struct{}

const (
	fieldType = 1
	fieldSeq  = 2
	fieldTime = 3
	fieldData = 4
)

func (WireSerializer) Encode(rec *Record) ([]byte, error) {
	body := make([]byte, 0, 24+len(rec.Data))
	body = protowire.AppendTag(body, fieldType, protowire.VarintType)
	body = protowire.AppendVarint(body, uint64(rec.Type))
	body = protowire.AppendTag(body, fieldSeq, protowire.VarintType)
	body = protowire.AppendVarint(body, rec.Seq)
	body = protowire.AppendTag(body, fieldTime, protowire.VarintType)
	body = protowire.AppendVarint(body, protowire.EncodeZigZag(rec.Time))
	body = protowire.AppendTag(body, fieldData, protowire.BytesType)
	body = protowire.AppendBytes(body, rec.Data)

	frame := make([]byte, frameHeaderSize, frameHeaderSize+len(body))
	binary.LittleEndian.PutUint32(frame[:4], uint32(len(body)))
	binary.LittleEndian.PutUint32(frame[4:8], crc32.ChecksumIEEE(body))
	return append(frame, body...), nil
}

func (WireSerializer) Decode(frame []byte) (*Record, error) {
	if len(frame) < frameHeaderSize {
		return nil, ErrCorruptRecord
	}
	body := frame[frameHeaderSize:]
	if uint32(len(body)) != binary.LittleEndian.Uint32(frame[:4]) {
		return nil, ErrCorruptRecord
	}
	if crc32.ChecksumIEEE(body) != binary.LittleEndian.Uint32(frame[4:8]) {
		return nil, ErrCorruptRecord
	}

	rec := &Record{}
	for len(body) > 0 {
		num, typ, n := protowire.ConsumeTag(body)
		if n < 0 {
			return nil, fmt.Errorf("%w: bad tag", ErrCorruptRecord)
		}
		body = body[n:]
		switch {
		case num == fieldData && typ == protowire.BytesType:
			data, n := protowire.ConsumeBytes(body)
			if n < 0 {
				return nil, fmt.Errorf("%w: bad data field", ErrCorruptRecord)
			}
			rec.Data = append([]byte(nil), data...)
			body = body[n:]
		case typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(body)
			if n < 0 {
				return nil, fmt.Errorf("%w: bad varint", ErrCorruptRecord)
			}
			switch num {
			case fieldType:
				rec.Type = RecordType(v)
			case fieldSeq:
				rec.Seq = v
			case fieldTime:
				rec.Time = protowire.DecodeZigZag(v)
			}
			body = body[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, body)
			if n < 0 {
				return nil, fmt.Errorf("%w: bad field %d", ErrCorruptRecord, num)
			}
			body = body[n:]
		}
	}
	return rec, nil
}
