package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ariefcatur/go-skip-selector/internal/catalog"
	"github.com/ariefcatur/go-skip-selector/internal/config"
	"github.com/ariefcatur/go-skip-selector/internal/httpx"
	kafkax "github.com/ariefcatur/go-skip-selector/internal/kafka"
	"github.com/ariefcatur/go-skip-selector/internal/postgres"
	"github.com/ariefcatur/go-skip-selector/internal/redisx"
	"github.com/ariefcatur/go-skip-selector/internal/selection"
	"github.com/ariefcatur/go-skip-selector/internal/session"
	"github.com/ariefcatur/go-skip-selector/internal/skips"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Redis: shared catalog cache + dedup (+ selection slot kalau backend=redis)
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Selection persistence
	slot, closeSlot, err := openSlot(ctx, cfg, rdb)
	if err != nil {
		log.Fatalf("selection slot: %v", err)
	}
	defer closeSlot()

	// Catalog
	client := catalog.NewClient(cfg.CatalogBaseURL)
	cache := catalog.NewCache(client, catalog.Options{
		StaleAfter:  cfg.StaleAfter,
		MaxAttempts: cfg.MaxAttempts,
		RetryBase:   cfg.RetryBase,
		Shared:      &catalog.RedisStore{Redis: rdb},
	})

	// Kafka producer: selection confirmed
	prod := kafkax.NewProducer(cfg.KafkaBrokers, skips.TopicSelectionConfirmed, 1024)
	prod.Start(ctx)

	// Kafka consumer: catalog invalidations, satu group per instance
	host, _ := os.Hostname()
	instance := cfg.ServiceName + "-" + host
	inv := &catalog.Invalidator{Cache: cache, Redis: rdb, Instance: instance}
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, instance, skips.TopicCatalogInvalidated, 1)
	go func() {
		log.Printf("invalidation consumer started: group=%s topic=%s", instance, skips.TopicCatalogInvalidated)
		if err := cons.Start(ctx, inv.HandleCatalogInvalidated); err != nil {
			log.Printf("consumer exit: %v", err)
		}
	}()

	defaults := skips.Query{Postcode: cfg.DefaultPostcode, Area: cfg.DefaultArea}
	sessions := session.NewManager(ctx, session.ManagerConfig{
		Source:   cache,
		Slot:     slot,
		Emitter:  kafkax.EnvelopeEmitter{P: prod},
		Producer: cfg.ServiceName,
		Defaults: defaults,
	})
	go sweep(ctx, sessions)

	router := httpx.NewRouter()
	(&httpx.CatalogHandler{Catalog: cache, Defaults: defaults}).Register(router)
	(&httpx.SessionsHandler{Sessions: sessions}).Register(router)

	// HTTP server
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	// graceful shutdown
	go func() {
		log.Printf("HTTP listening at %s (catalog=%s selection=%s)", cfg.HTTPAddr, cfg.CatalogBaseURL, cfg.SelectionBackend)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	// wait signal
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	sessions.CloseAll()
	prod.Close()      // tutup inbox -> flush & close writer
	cancel()          // stop consumer loop
	prod.WaitClosed() // drain
}

func openSlot(ctx context.Context, cfg config.Config, rdb *redis.Client) (selection.Slot, func(), error) {
	noop := func() {}
	switch cfg.SelectionBackend {
	case "memory":
		return selection.NewMemorySlot(), noop, nil
	case "file":
		return &selection.FileSlot{Dir: cfg.SelectionDir}, noop, nil
	case "redis":
		return &selection.RedisSlot{Redis: rdb, TTL: redisx.TTLSelection}, noop, nil
	case "postgres":
		db, err := postgres.Connect(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("db connect: %w", err)
		}
		slot := &selection.PostgresSlot{DB: db}
		if err := slot.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("db schema: %w", err)
		}
		return slot, db.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown SELECTION_BACKEND %q", cfg.SelectionBackend)
}

func sweep(ctx context.Context, m *session.Manager) {
	t := time.NewTicker(time.Minute)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := m.Sweep(30 * time.Minute); n > 0 {
				log.Printf("closed %d idle session(s)", n)
			}
		}
	}
}
