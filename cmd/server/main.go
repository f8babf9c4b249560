package main

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"

	"github.com/mnw01/scan-order/internal/cache"
	"github.com/mnw01/scan-order/internal/config"
	"github.com/mnw01/scan-order/internal/database"
	"github.com/mnw01/scan-order/internal/feed"
	"github.com/mnw01/scan-order/internal/migrate"
	"github.com/mnw01/scan-order/internal/router"
	"github.com/mnw01/scan-order/internal/stream"
	"github.com/mnw01/scan-order/internal/ws"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	if err := migrate.Apply(ctx, cfg.DatabaseURL); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("connect database: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("ping database: %v", err)
	}

	queries := database.New(pool)

	hub := ws.NewHub()
	go hub.Run()

	listener := feed.NewListener(cfg.DatabaseURL, hub)
	go listener.Run(ctx)

	var restaurantCache *cache.RestaurantCache
	if cfg.RedisAddr != "" {
		restaurantCache = cache.NewRestaurantCache(
			redis.NewClient(&redis.Options{Addr: cfg.RedisAddr}),
			10*time.Minute,
		)
		log.Printf("restaurant cache enabled via %s", cfg.RedisAddr)
	}

	var publisher *stream.Publisher
	if cfg.KafkaBrokers != "" {
		publisher = stream.NewPublisher(&kafka.Writer{
			Addr:     kafka.TCP(strings.Split(cfg.KafkaBrokers, ",")...),
			Topic:    cfg.KafkaTopic,
			Balancer: &kafka.Hash{},
		})
		log.Printf("order event stream enabled via %s (topic %s)", cfg.KafkaBrokers, cfg.KafkaTopic)
	}

	r := router.New(cfg, queries, pool, hub, restaurantCache, publisher)

	log.Printf("Starting server on :%s", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		log.Fatal(err)
	}
}
