package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ariefcatur/go-pos-backoffice.git/internal/audit"
	"github.com/ariefcatur/go-pos-backoffice.git/internal/config"
	"github.com/ariefcatur/go-pos-backoffice.git/internal/httpx"
	kafkax "github.com/ariefcatur/go-pos-backoffice.git/internal/kafka"
	"github.com/ariefcatur/go-pos-backoffice.git/internal/pos"
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
		log.Fatalf("db connect: %v", err)
	}
	defer db.Close()

	if err := postgres.Migrate(ctx, db); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producer for the audit trail
	prod := kafkax.NewProducer(cfg.KafkaBrokers, audit.TopicRecorded, 1024)
	prod.Start(ctx)
	recorder := &audit.Recorder{Producer: prod, Service: cfg.ServiceName}

	// Repos & handlers
	seq := &pos.Sequencer{DB: db, Prefix: cfg.InvoicePrefix, MaxLen: cfg.InvoiceCodeMaxLen}
	repo := pos.NewRepo(db, seq)
	catalog := &pos.Catalog{DB: db}

	router := httpx.NewRouter()
	ih := &httpx.InvoicesHandler{Repo: repo, Redis: rdb, Audit: recorder}
	ih.Register(router)
	ch := &httpx.CatalogHandler{Catalog: catalog, Audit: recorder}
	ch.Register(router)

	// HTTP server
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	// graceful shutdown
	go func() {
		log.Printf("HTTP listening at %s", cfg.HTTPAddr)
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
	prod.Close()      // close inbox -> flush & close writer
	prod.WaitClosed() // drain
	cancel()
}
