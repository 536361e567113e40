// Package wal is the append-only command log in front of the matching
// engine. Every place/cancel is framed, checksummed and appended
// before it is applied to the book, so a restart can rebuild the book
// by replaying records above the last snapshot's sequence.
package wal

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

const activeSegment = "wal.log"

type Config struct {
	Dir             string
	SegmentSize     int64
	SegmentDuration time.Duration
	FlushInterval   time.Duration
	Serializer      Serializer
}

type WAL interface {
	Append(*Record) error
	ReplayFrom(seq uint64, fn func(*Record) error) error
	TruncateBefore(seq uint64) error
	Sync() error
	Close() error
}

type walImpl struct {
	cfg   Config
	mu    sync.Mutex
	file  *os.File
	bytes int64
	start time.Time
	done  chan struct{}
}

func Open(cfg Config) (WAL, error) {
	if cfg.Dir == "" {
		cfg.Dir = "./wal_data"
	}
	if cfg.SegmentSize == 0 {
		cfg.SegmentSize = 2 * 1024 * 1024
	}
	if cfg.SegmentDuration == 0 {
		cfg.SegmentDuration = 5 * time.Minute
	}
	if cfg.FlushInterval == 0 {
		cfg.FlushInterval = 100 * time.Millisecond
	}
	if cfg.Serializer == nil {
		cfg.Serializer = WireSerializer{}
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("wal: create dir: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(cfg.Dir, activeSegment), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("wal: open segment: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	w := &walImpl{
		cfg:   cfg,
		file:  f,
		bytes: info.Size(),
		start: time.Now(),
		done:  make(chan struct{}),
	}
	go w.autoFlush()
	return w, nil
}

func (w *walImpl) Append(rec *Record) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	frame, err := w.cfg.Serializer.Encode(rec)
	if err != nil {
		return err
	}
	n, err := w.file.Write(frame)
	if err != nil {
		return fmt.Errorf("wal: append: %w", err)
	}
	w.bytes += int64(n)
	if w.bytes > w.cfg.SegmentSize || time.Since(w.start) > w.cfg.SegmentDuration {
		// the record is already written; a failed rotation is
		// retried on the next append
		if err := w.rotate(); err != nil {
			log.Printf("[wal] rotate: %v", err)
		}
	}
	return nil
}

// renameSegment is swapped out in tests to exercise rotation failures.
var renameSegment = os.Rename

// rotate renames the active segment to a timestamped file and starts a
// fresh one. The old handle stays in place until the replacement is
// open, so a failed rotation leaves the log writable. Caller holds the
// mutex.
func (w *walImpl) rotate() error {
	if err := w.file.Sync(); err != nil {
		return err
	}
	active := filepath.Join(w.cfg.Dir, activeSegment)
	rotated := filepath.Join(w.cfg.Dir, time.Now().UTC().Format("20060102_150405.000000000")+".log")
	// a missing active segment means a prior rotation renamed it but
	// could not open its successor; proceed straight to the open
	if err := renameSegment(active, rotated); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("wal: rotate: %w", err)
	}
	f, err := os.OpenFile(active, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("wal: rotate: %w", err)
	}
	old := w.file
	w.file = f
	w.bytes = 0
	w.start = time.Now()
	return old.Close()
}

// segments returns all segment paths, oldest first, active last.
// Rotated names are UTC timestamps so lexical order is time order.
func (w *walImpl) segments() ([]string, error) {
	entries, err := os.ReadDir(w.cfg.Dir)
	if err != nil {
		return nil, err
	}
	var rotated []string
	active := ""
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".log") {
			continue
		}
		if e.Name() == activeSegment {
			active = filepath.Join(w.cfg.Dir, e.Name())
			continue
		}
		rotated = append(rotated, filepath.Join(w.cfg.Dir, e.Name()))
	}
	sort.Strings(rotated)
	if active != "" {
		rotated = append(rotated, active)
	}
	return rotated, nil
}

// ReplayFrom applies every record with Seq > seq to fn, across all
// segments in order. A torn frame at the tail of a segment ends that
// segment's replay cleanly; corruption in the middle is an error.
func (w *walImpl) ReplayFrom(seq uint64, fn func(*Record) error) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	segs, err := w.segments()
	if err != nil {
		return err
	}
	for _, path := range segs {
		if err := w.replaySegment(path, seq, fn); err != nil {
			return err
		}
	}
	return nil
}

func (w *walImpl) replaySegment(path string, seq uint64, fn func(*Record) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	for {
		rec, err := readFrame(f, w.cfg.Serializer)
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("wal: replay %s: %w", filepath.Base(path), err)
		}
		if rec.Seq <= seq {
			continue
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
}

func readFrame(r io.Reader, s Serializer) (*Record, error) {
	header := make([]byte, frameHeaderSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, err
	}
	bodyLen := binary.LittleEndian.Uint32(header[:4])
	frame := make([]byte, frameHeaderSize+int(bodyLen))
	copy(frame, header)
	if _, err := io.ReadFull(r, frame[frameHeaderSize:]); err != nil {
		return nil, err
	}
	return s.Decode(frame)
}

// TruncateBefore deletes rotated segments whose records all have
// Seq <= seq. Called after a snapshot has made those records
// redundant. The active segment is never removed.
func (w *walImpl) TruncateBefore(seq uint64) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	segs, err := w.segments()
	if err != nil {
		return err
	}
	for _, path := range segs {
		if filepath.Base(path) == activeSegment {
			continue
		}
		maxSeq, err := segmentMaxSeq(path, w.cfg.Serializer)
		if err != nil {
			return err
		}
		if maxSeq <= seq {
			if err := os.Remove(path); err != nil {
				return err
			}
		}
	}
	return nil
}

func segmentMaxSeq(path string, s Serializer) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	var maxSeq uint64
	for {
		rec, err := readFrame(f, s)
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return maxSeq, nil
		}
		if err != nil {
			return 0, err
		}
		if rec.Seq > maxSeq {
			maxSeq = rec.Seq
		}
	}
}

func (w *walImpl) Sync() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Sync()
}

func (w *walImpl) autoFlush() {
	ticker := time.NewTicker(w.cfg.FlushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-w.done:
			return
		case <-ticker.C:
			w.mu.Lock()
			_ = w.file.Sync()
			w.mu.Unlock()
		}
	}
}

func (w *walImpl) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	select {
	case <-w.done:
		return nil
	default:
	}
	close(w.done)
	if err := w.file.Sync(); err != nil {
		return err
	}
	return w.file.Close()
}
