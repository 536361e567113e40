// Package broadcaster drains the durable outbox to Kafka. Publishing
// is at-least-once: an entry is only marked acked after the broker
// confirms it, and failed sends are retried on the next tick.
package broadcaster

import (
	"context"
	"log"
	"strconv"
	"time"

	"github.com/IBM/sarama"

	"mimir/outbox"
)

type Broadcaster struct {
	box      *outbox.Outbox
	producer sarama.SyncProducer
	topic    string
	interval time.Duration
}

// New connects a sync producer with full-ack durability.
func New(box *outbox.Outbox, brokers []string, topic string, interval time.Duration) (*Broadcaster, error) {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 5

	producer, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, err
	}
	return newWithProducer(box, producer, topic, interval), nil
}

func newWithProducer(box *outbox.Outbox, producer sarama.SyncProducer, topic string, interval time.Duration) *Broadcaster {
	if interval == 0 {
		interval = 250 * time.Millisecond
	}
	return &Broadcaster{box: box, producer: producer, topic: topic, interval: interval}
}

// Start runs the drain loop until ctx is cancelled.
func (b *Broadcaster) Start(ctx context.Context) {
	log.Printf("[broadcaster] started, topic=%s", b.topic)
	go func() {
		ticker := time.NewTicker(b.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				b.drainOnce()
			}
		}
	}()
}

func (b *Broadcaster) drainOnce() {
	err := b.box.ScanPending(func(e outbox.Entry) error {
		if err := b.box.MarkSent(e.Seq); err != nil {
			return err
		}
		msg := &sarama.ProducerMessage{
			Topic: b.topic,
			Key:   sarama.StringEncoder(strconv.FormatUint(e.Seq, 10)),
			Value: sarama.ByteEncoder(e.Payload),
		}
		if _, _, err := b.producer.SendMessage(msg); err != nil {
			log.Printf("[broadcaster] send seq=%d: %v", e.Seq, err)
			return b.box.MarkFailed(e.Seq)
		}
		return b.box.MarkAcked(e.Seq)
	})
	if err != nil {
		log.Printf("[broadcaster] drain: %v", err)
	}
}

func (b *Broadcaster) Close() error {
	return b.producer.Close()
}
