package wal

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func openTestWAL(t *testing.T, dir string) WAL {
	t.Helper()
	w, err := Open(Config{Dir: dir, FlushInterval: time.Hour})
	if err != nil {
		t.Fatalf("open wal: %v", err)
	}
	return w
}

func TestAppendAndReplay(t *testing.T) {
	dir := t.TempDir()
	w := openTestWAL(t, dir)

	for seq := uint64(1); seq <= 5; seq++ {
		rec := &Record{Type: RecordPlace, Seq: seq, Time: time.Now().UnixNano(), Data: []byte{byte(seq)}}
		if err := w.Append(rec); err != nil {
			t.Fatalf("append %d: %v", seq, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	// reopen and replay everything
	w = openTestWAL(t, dir)
	defer w.Close()

	var seqs []uint64
	err := w.ReplayFrom(0, func(rec *Record) error {
		seqs = append(seqs, rec.Seq)
		return nil
	})
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if len(seqs) != 5 {
		t.Fatalf("replayed %d records, want 5", len(seqs))
	}
	for i, seq := range seqs {
		if seq != uint64(i+1) {
			t.Errorf("record %d has seq %d", i, seq)
		}
	}
}

func TestReplaySkipsUpToSeq(t *testing.T) {
	dir := t.TempDir()
	w := openTestWAL(t, dir)
	defer w.Close()

	for seq := uint64(1); seq <= 10; seq++ {
		if err := w.Append(&Record{Type: RecordPlace, Seq: seq}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	count := 0
	if err := w.ReplayFrom(7, func(rec *Record) error {
		if rec.Seq <= 7 {
			t.Errorf("record %d should have been skipped", rec.Seq)
		}
		count++
		return nil
	}); err != nil {
		t.Fatalf("replay: %v", err)
	}
	if count != 3 {
		t.Errorf("replayed %d records, want 3", count)
	}
}

func TestReplayToleratesTornTail(t *testing.T) {
	dir := t.TempDir()
	w := openTestWAL(t, dir)
	if err := w.Append(&Record{Type: RecordPlace, Seq: 1, Data: []byte("ok")}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	// simulate a torn write at the tail
	path := filepath.Join(dir, activeSegment)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.Write([]byte{0x10, 0x00, 0x00, 0x00, 0xde}); err != nil {
		t.Fatal(err)
	}
	f.Close()

	w = openTestWAL(t, dir)
	defer w.Close()
	count := 0
	if err := w.ReplayFrom(0, func(rec *Record) error {
		count++
		return nil
	}); err != nil {
		t.Fatalf("replay with torn tail: %v", err)
	}
	if count != 1 {
		t.Errorf("replayed %d records, want 1", count)
	}
}

func TestRotationAndTruncate(t *testing.T) {
	dir := t.TempDir()
	// tiny segment size so every append rotates
	w, err := Open(Config{Dir: dir, SegmentSize: 1, FlushInterval: time.Hour})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer w.Close()

	for seq := uint64(1); seq <= 3; seq++ {
		if err := w.Append(&Record{Type: RecordPlace, Seq: seq}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	count := 0
	if err := w.ReplayFrom(0, func(*Record) error { count++; return nil }); err != nil {
		t.Fatalf("replay: %v", err)
	}
	if count != 3 {
		t.Fatalf("replayed %d across segments, want 3", count)
	}

	if err := w.TruncateBefore(2); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	count = 0
	if err := w.ReplayFrom(0, func(*Record) error { count++; return nil }); err != nil {
		t.Fatalf("replay after truncate: %v", err)
	}
	// records 1 and 2 lived in their own rotated segments
	if count != 1 {
		t.Errorf("replayed %d after truncate, want 1", count)
	}
}

func TestSerializerRejectsCorruption(t *testing.T) {
	s := WireSerializer{}
	frame, err := s.Encode(&Record{Type: RecordCancel, Seq: 9, Time: 123, Data: []byte("x")})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	rec, err := s.Decode(frame)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rec.Type != RecordCancel || rec.Seq != 9 || rec.Time != 123 || string(rec.Data) != "x" {
		t.Errorf("decoded %+v", rec)
	}

	frame[len(frame)-1] ^= 0xff
	if _, err := s.Decode(frame); !errors.Is(err, ErrCorruptRecord) {
		t.Errorf("decode of corrupt frame = %v, want ErrCorruptRecord", err)
	}
}

func TestAppendSurvivesRotateFailure(t *testing.T) {
	dir := t.TempDir()
	w, err := Open(Config{Dir: dir, SegmentSize: 1, FlushInterval: time.Hour})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer w.Close()

	orig := renameSegment
	defer func() { renameSegment = orig }()
	renameSegment = func(string, string) error { return errors.New("no space left") }

	// the size limit forces a rotation attempt after each append; the
	// failure must not wedge the log
	for seq := uint64(1); seq <= 2; seq++ {
		if err := w.Append(&Record{Type: RecordPlace, Seq: seq}); err != nil {
			t.Fatalf("append %d with rotation failing: %v", seq, err)
		}
	}

	renameSegment = orig
	if err := w.Append(&Record{Type: RecordPlace, Seq: 3}); err != nil {
		t.Fatalf("append after rotation recovered: %v", err)
	}

	var seqs []uint64
	if err := w.ReplayFrom(0, func(rec *Record) error {
		seqs = append(seqs, rec.Seq)
		return nil
	}); err != nil {
		t.Fatalf("replay: %v", err)
	}
	if len(seqs) != 3 || seqs[0] != 1 || seqs[1] != 2 || seqs[2] != 3 {
		t.Errorf("replayed seqs = %v, want [1 2 3]", seqs)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	w := openTestWAL(t, t.TempDir())
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second close: %v", err)
	}
}
