package wal

type RecordType byte

const (
	RecordPlace  RecordType = 1
	RecordCancel RecordType = 2
)

// Record is one logged command. Seq orders records across segments;
// Data carries the command payload (see service/records.go for the
// payload layout).
type Record struct {
	Type RecordType
	Seq  uint64
	Time int64
	Data []byte
}
