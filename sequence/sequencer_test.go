package sequence

import "testing"

func TestSequencerMonotonic(t *testing.T) {
	s := New(0)
	if s.Next() != 1 || s.Next() != 2 {
		t.Error("expected 1, 2 from a fresh sequencer")
	}
	if s.Current() != 2 {
		t.Errorf("current = %d, want 2", s.Current())
	}
}

func TestSequencerReset(t *testing.T) {
	s := New(0)
	s.Reset(100)
	if got := s.Next(); got != 101 {
		t.Errorf("next after reset = %d, want 101", got)
	}
}
