package main

import (
	"log"

	"github.com/hibiken/asynq"

	"github.com/rasencioDatabrain/ChatManager/internal/bulk"
	"github.com/rasencioDatabrain/ChatManager/internal/config"
	"github.com/rasencioDatabrain/ChatManager/internal/database"
	"github.com/rasencioDatabrain/ChatManager/internal/gateway"
)

// The worker consumes per-recipient bulk delivery tasks enqueued by the
// API server.
func main() {
	cfg := config.LoadConfig()
	if cfg.RedisURL == "" {
		log.Fatal("REDIS_URL is required to run the worker")
	}

	db, err := database.Init(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	opt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to parse REDIS_URL: %v", err)
	}

	srv := asynq.NewServer(opt, asynq.Config{
		Concurrency: 10,
	})

	deliverer := bulk.NewDeliverer(db, gateway.NewClient(cfg))

	mux := asynq.NewServeMux()
	mux.HandleFunc(bulk.TypeDeliver, deliverer.HandleTask)

	log.Println("Bulk delivery worker starting")
	if err := srv.Run(mux); err != nil {
		log.Fatalf("Failed to run worker: %v", err)
	}
}
