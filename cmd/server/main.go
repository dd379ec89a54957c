package main

import (
	"context"
	"log"

	"github.com/rasencioDatabrain/ChatManager/internal/api"
	"github.com/rasencioDatabrain/ChatManager/internal/bulk"
	"github.com/rasencioDatabrain/ChatManager/internal/config"
	"github.com/rasencioDatabrain/ChatManager/internal/database"
	"github.com/rasencioDatabrain/ChatManager/internal/gateway"
	"github.com/rasencioDatabrain/ChatManager/internal/inbound"
	"github.com/rasencioDatabrain/ChatManager/internal/models"
	"github.com/rasencioDatabrain/ChatManager/internal/session"
	syncpkg "github.com/rasencioDatabrain/ChatManager/internal/sync"
	"github.com/rasencioDatabrain/ChatManager/internal/ws"
)

func main() {
	cfg := config.LoadConfig()

	db, err := database.Init(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	var sessions session.Store
	if cfg.RedisURL != "" {
		sessions, err = session.NewRedisStore(cfg.RedisURL, cfg.SessionTTL)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
	} else {
		log.Println("REDIS_URL not set, using in-memory session store")
		sessions = session.NewMemoryStore(cfg.SessionTTL)
	}
	defer sessions.Close()

	var enqueuer *bulk.Enqueuer
	if cfg.RedisURL != "" {
		enqueuer, err = bulk.NewEnqueuer(cfg.RedisURL)
		if err != nil {
			log.Fatalf("Failed to create bulk enqueuer: %v", err)
		}
		defer enqueuer.Close()
	} else {
		log.Println("REDIS_URL not set, bulk messages will be delivered inline")
	}

	hub := ws.NewHub()
	go hub.Run()

	// The conversations poller drives the change feed: connected consoles
	// receive a fresh ordered snapshot every interval instead of polling
	// the API themselves.
	poller := syncpkg.NewPoller(cfg.PollInterval, func(ctx context.Context) ([]models.Conversation, error) {
		var conversations []models.Conversation
		err := database.OrderByActivity(db.WithContext(ctx)).Find(&conversations).Error
		return conversations, err
	})
	poller.OnUpdate(func(conversations []models.Conversation) {
		hub.NotifyChange("conversations", "refresh", conversations)
	})
	poller.Start(context.Background())
	defer poller.Stop()

	gw := gateway.NewClient(cfg)
	if !gw.Enabled() {
		log.Println("GATEWAY_URL not set, outbound messages are recorded locally only")
	}

	if cfg.AMQPURL != "" {
		service := inbound.NewService(db, hub, cfg)
		consumer, err := inbound.NewConsumer(cfg.AMQPURL, cfg.AMQPQueue, service)
		if err != nil {
			log.Fatalf("Failed to connect to AMQP: %v", err)
		}
		if err := consumer.Start(); err != nil {
			log.Fatalf("Failed to start AMQP consumer: %v", err)
		}
		defer consumer.Close()
	}

	r := api.NewRouter(api.Deps{
		Config:   cfg,
		DB:       db,
		Hub:      hub,
		Sessions: sessions,
		Gateway:  gw,
		Enqueuer: enqueuer,
	})

	log.Printf("Server starting on port %s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to run server: %v", err)
	}
}
