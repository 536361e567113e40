package main

import (
	"context"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"google.golang.org/grpc"

	"mimir/api"
	"mimir/broadcaster"
	"mimir/feed"
	"mimir/orderbook"
	"mimir/outbox"
	"mimir/ring"
	"mimir/sequence"
	"mimir/service"
	"mimir/wal"
)

type config struct {
	Symbol           string        `env:"MIMIR_SYMBOL" envDefault:"BTC-USD"`
	GRPCAddr         string        `env:"MIMIR_GRPC_ADDR" envDefault:":50051"`
	WALDir           string        `env:"MIMIR_WAL_DIR" envDefault:"./data/wal"`
	SnapshotDir      string        `env:"MIMIR_SNAPSHOT_DIR" envDefault:"./data/snapshot"`
	OutboxDir        string        `env:"MIMIR_OUTBOX_DIR" envDefault:"./data/outbox"`
	SnapshotInterval time.Duration `env:"MIMIR_SNAPSHOT_INTERVAL" envDefault:"30s"`
	EventRingSize    uint64        `env:"MIMIR_EVENT_RING" envDefault:"262144"`
	KafkaBrokers     []string      `env:"MIMIR_KAFKA_BROKERS" envSeparator:","`
	TradeTopic       string        `env:"MIMIR_TRADE_TOPIC" envDefault:"trades"`
	OrderTopic       string        `env:"MIMIR_ORDER_TOPIC"`
	FeedGroup        string        `env:"MIMIR_FEED_GROUP" envDefault:"mimir-engine"`
}

func main() {
	_ = godotenv.Load()

	var cfg config
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("config: %v", err)
	}

	// ---------------- Durability ----------------

	w, err := wal.Open(wal.Config{Dir: cfg.WALDir})
	if err != nil {
		log.Fatalf("wal init failed: %v", err)
	}
	defer w.Close()

	box, err := outbox.Open(cfg.OutboxDir)
	if err != nil {
		log.Fatalf("outbox init failed: %v", err)
	}
	defer box.Close()

	// ---------------- Domain ----------------

	seq := sequence.New(0)
	book := orderbook.New(cfg.Symbol, orderbook.WithIDSource(seq))

	svc := service.New(book, seq, w, box, ring.New(cfg.EventRingSize), service.Config{
		SnapshotDir:      cfg.SnapshotDir,
		SnapshotInterval: cfg.SnapshotInterval,
	})

	if err := svc.Restore(); err != nil {
		log.Fatalf("restore failed: %v", err)
	}

	// ---------------- Background jobs ----------------

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	svc.StartOutboxDrain(ctx)
	svc.StartSnapshotJob(ctx)

	if len(cfg.KafkaBrokers) > 0 {
		bc, err := broadcaster.New(box, cfg.KafkaBrokers, cfg.TradeTopic, 0)
		if err != nil {
			log.Fatalf("broadcaster init failed: %v", err)
		}
		defer bc.Close()
		bc.Start(ctx)

		if cfg.OrderTopic != "" {
			consumer := feed.New(feed.Config{
				Brokers: cfg.KafkaBrokers,
				Topic:   cfg.OrderTopic,
				GroupID: cfg.FeedGroup,
			}, svc)
			defer consumer.Close()
			go func() {
				if err := consumer.Run(ctx); err != nil {
					log.Printf("feed stopped: %v", err)
				}
			}()
		}
	}

	// ---------------- gRPC ----------------

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		log.Fatalf("listen failed: %v", err)
	}

	grpcSrv := grpc.NewServer(grpc.ForceServerCodec(api.Codec{}))
	api.Register(grpcSrv, api.NewServer(svc))

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		log.Println("shutting down")
		cancel()
		grpcSrv.GracefulStop()
	}()

	log.Printf("engine for %s listening on %s", cfg.Symbol, cfg.GRPCAddr)
	if err := grpcSrv.Serve(lis); err != nil {
		log.Fatalf("grpc server exited: %v", err)
	}
}
