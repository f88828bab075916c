package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ariefcatur/go-pos-backoffice.git/internal/audit"
	"github.com/ariefcatur/go-pos-backoffice.git/internal/config"
	kafkax "github.com/ariefcatur/go-pos-backoffice.git/internal/kafka"
	"github.com/ariefcatur/go-pos-backoffice.git/internal/postgres"
	"github.com/ariefcatur/go-pos-backoffice.git/internal/redisx"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	if err := postgres.Migrate(ctx, db); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Sink
	sink := &audit.Sink{DB: db, Redis: rdb}

	// Consumer
	group := getenv("AUDIT_GROUP", "audit-sink")
	workers := mustAtoi(os.Getenv("AUDIT_WORKERS"), "4")
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, group, audit.TopicRecorded, workers)

	go func() {
		log.Printf("audit consumer started: group=%s topic=%s workers=%d", group, audit.TopicRecorded, workers)
		if err := cons.Start(ctx, sink.HandleRecorded); err != nil {
			log.Printf("consumer exit: %v", err)
			cancel()
		}
	}()

	// graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down consumer...")
	cancel()
	time.Sleep(500 * time.Millisecond)
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func mustAtoi(s, def string) int {
	if s == "" {
		s = def
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return 1
	}
	return i
}
