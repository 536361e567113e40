// Package feed consumes order commands from a Kafka topic and applies
// them to the order service. This is the host process's own command
// transport, not a decoder for external exchange feeds.
package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/segmentio/kafka-go"

	"mimir/orderbook"
	"mimir/service"
)

// Command is the JSON envelope producers write to the order topic.
type Command struct {
	Op      string `json:"op"` // "place" or "cancel"
	Side    string `json:"side,omitempty"`
	Price   int64  `json:"price,omitempty"`
	Qty     int64  `json:"qty,omitempty"`
	OrderID uint64 `json:"order_id,omitempty"`
}

type Config struct {
	Brokers []string
	Topic   string
	GroupID string
}

type Consumer struct {
	reader *kafka.Reader
	svc    *service.OrderService
}

func New(cfg Config, svc *service.OrderService) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		Topic:       cfg.Topic,
		GroupID:     cfg.GroupID,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: kafka.LastOffset,
	})
	return &Consumer{reader: reader, svc: svc}
}

// Run reads commands until ctx is cancelled. Malformed or rejected
// commands are logged and skipped; only transport errors stop the
// loop.
func (c *Consumer) Run(ctx context.Context) error {
	log.Printf("[feed] consuming %s", c.reader.Config().Topic)
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("feed: read: %w", err)
		}
		if err := c.apply(msg.Value); err != nil {
			log.Printf("[feed] offset=%d: %v", msg.Offset, err)
		}
	}
}

func (c *Consumer) apply(value []byte) error {
	var cmd Command
	if err := json.Unmarshal(value, &cmd); err != nil {
		return fmt.Errorf("decode command: %w", err)
	}
	switch cmd.Op {
	case "place":
		side, err := parseSide(cmd.Side)
		if err != nil {
			return err
		}
		res, err := c.svc.PlaceLimit(side, cmd.Price, cmd.Qty)
		if err != nil {
			return err
		}
		log.Printf("[feed] placed %s %d@%d status=%s resting=%d",
			side, cmd.Qty, cmd.Price, res.Status, res.RestingID)
		return nil
	case "cancel":
		return c.svc.Cancel(cmd.OrderID)
	default:
		return fmt.Errorf("unknown op %q", cmd.Op)
	}
}

func parseSide(s string) (orderbook.Side, error) {
	switch strings.ToLower(s) {
	case "bid", "buy":
		return orderbook.Bid, nil
	case "ask", "sell":
		return orderbook.Ask, nil
	default:
		return 0, fmt.Errorf("unknown side %q", s)
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
