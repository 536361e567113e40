package broadcaster

import (
	"errors"
	"testing"
	"time"

	"github.com/IBM/sarama/mocks"

	"mimir/outbox"
)

func openTestOutbox(t *testing.T) *outbox.Outbox {
	t.Helper()
	box, err := outbox.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open outbox: %v", err)
	}
	t.Cleanup(func() { box.Close() })
	return box
}

func TestDrainPublishesAndAcks(t *testing.T) {
	box := openTestOutbox(t)
	for seq := uint64(1); seq <= 3; seq++ {
		if err := box.Put(seq, []byte{byte(seq)}); err != nil {
			t.Fatal(err)
		}
	}

	cfg := mocks.NewTestConfig()
	cfg.Producer.Return.Successes = true
	producer := mocks.NewSyncProducer(t, cfg)
	for i := 0; i < 3; i++ {
		producer.ExpectSendMessageAndSucceed()
	}

	b := newWithProducer(box, producer, "trades", time.Second)
	b.drainOnce()

	for seq := uint64(1); seq <= 3; seq++ {
		e, err := box.Get(seq)
		if err != nil {
			t.Fatalf("get %d: %v", seq, err)
		}
		if e.State != outbox.StateAcked {
			t.Errorf("seq %d state = %v, want ACKED", seq, e.State)
		}
	}
}

func TestDrainMarksFailedForRetry(t *testing.T) {
	box := openTestOutbox(t)
	if err := box.Put(1, []byte("x")); err != nil {
		t.Fatal(err)
	}

	cfg := mocks.NewTestConfig()
	cfg.Producer.Return.Successes = true
	producer := mocks.NewSyncProducer(t, cfg)
	producer.ExpectSendMessageAndFail(errors.New("broker down"))

	b := newWithProducer(box, producer, "trades", time.Second)
	b.drainOnce()

	e, err := box.Get(1)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if e.State != outbox.StateFailed {
		t.Errorf("state = %v, want FAILED", e.State)
	}

	// next tick retries the failed entry
	producer.ExpectSendMessageAndSucceed()
	b.drainOnce()
	e, _ = box.Get(1)
	if e.State != outbox.StateAcked {
		t.Errorf("state after retry = %v, want ACKED", e.State)
	}
}
