package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/salepoint/api/internal/cache"
	"github.com/salepoint/api/internal/config"
	"github.com/salepoint/api/internal/router"
	"github.com/salepoint/api/internal/store/postgres"
	"github.com/salepoint/api/internal/ws"
)

func main() {
	cfg := config.Load()

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Unable to create connection pool: %v", err)
	}
	defer pool.Close()

	repo := postgres.New(pool)
	if err := repo.Ping(ctx); err != nil {
		log.Fatalf("Unable to ping database: %v", err)
	}
	log.Println("Connected to database")

	var catalogCache cache.CatalogCache = cache.NoopCatalogCache{}
	if cfg.RedisAddr != "" {
		redisCache := cache.NewRedisCatalogCache(cfg.RedisAddr, "", 0)
		if err := redisCache.Ping(ctx); err != nil {
			log.Printf("ERROR: redis unreachable, catalog caching disabled: %v", err)
		} else {
			defer redisCache.Close()
			catalogCache = redisCache
			log.Println("Connected to redis")
		}
	}

	hub := ws.NewHub()
	go hub.Run()

	r := router.New(cfg, repo, catalogCache, hub)

	log.Printf("Starting server on :%s", cfg.Port)
	if err := http.ListenAndServe(fmt.Sprintf(":%s", cfg.Port), r); err != nil {
		log.Fatal(err)
	}
}
