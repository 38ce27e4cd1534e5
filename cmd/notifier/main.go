package main

import (
	"context"
	"github.com/ariefcatur/go-preorder-cart.git/internal/config"
	kafkax "github.com/ariefcatur/go-preorder-cart.git/internal/kafka"
	"github.com/ariefcatur/go-preorder-cart.git/internal/notify"
	"github.com/ariefcatur/go-preorder-cart.git/internal/postgres"
	"github.com/ariefcatur/go-preorder-cart.git/internal/preorder"
	"github.com/ariefcatur/go-preorder-cart.git/internal/redisx"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producer; lifecycle is driven by Close after the workers stop,
	// never by context, so late publishes cannot hit a closed inbox.
	prod := kafkax.NewProducer(cfg.KafkaBrokers, 1024)
	prod.Start(context.Background())

	relay := &notify.Relay{DB: db, Redis: rdb, Producer: prod, ServiceName: cfg.ServiceName}
	inv := &notify.Invalidator{Redis: rdb}
	consumer := kafkax.NewConsumer(cfg.KafkaBrokers, "preorder-cache-invalidator", preorder.TopicMenuChanged, 1)

	g, gctx := errgroup.WithContext(ctx)

	// change feed -> kafka, with reconnect
	g.Go(func() error {
		for {
			err := relay.Run(gctx)
			if gctx.Err() != nil {
				return nil
			}
			log.Printf("relay stopped: %v; reconnecting", err)
			select {
			case <-gctx.Done():
				return nil
			case <-time.After(2 * time.Second):
			}
		}
	})

	// menu changes -> drop cached menu entries
	g.Go(func() error {
		return consumer.Start(gctx, inv.HandleMenuChanged)
	})

	// wait signal
	g.Go(func() error {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-sig:
			log.Println("shutting down...")
			cancel()
		case <-gctx.Done():
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Printf("notifier stopped: %v", err)
	}

	prod.Close()      // flush & close writer
	prod.WaitClosed() // drain
}
