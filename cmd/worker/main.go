package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/windscape-energy/go-site-backend/config"
	"github.com/windscape-energy/go-site-backend/internal/bootstrap"
	cronjob "github.com/windscape-energy/go-site-backend/internal/sites/cron"
	"github.com/windscape-energy/go-site-backend/internal/sites/repository"
	"github.com/windscape-energy/go-site-backend/internal/sites/service"
	"github.com/windscape-energy/go-site-backend/internal/sites/slug"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx := context.Background()

	redisClient, err := bootstrap.OpenRedis(ctx, bootstrap.RedisOptions{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Fatalf("connect redis: %v", err)
	}
	defer redisClient.Close()

	var store service.RecordStore
	if cfg.Store.Backend == "postgres" {
		var db *sql.DB
		db, err = bootstrap.OpenDB(ctx, bootstrap.DBOptions{DSN: cfg.Store.DSN})
		if err != nil {
			log.Fatalf("connect postgres: %v", err)
		}
		defer db.Close()
		store = repository.NewPGRecordRepository(db)
	} else {
		store = repository.NewRecordRepository(redisClient)
	}

	cache := repository.NewResolutionCache(redisClient)
	sessions := repository.NewSessionRepository(redisClient)
	scans := repository.NewScanRepository(redisClient)
	normalizer := slug.NewNormalizer(store)

	lifecycle := service.NewLifecycleService(store, cache, sessions, normalizer, cfg.Store.DefaultRadiusKm)

	scheduler := cronjob.NewScheduler(lifecycle, scans, cfg.Store.DefaultRadiusKm)
	c, err := scheduler.Start()
	if err != nil {
		log.Fatalf("start scheduler: %v", err)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Println("shutting down worker")
	<-c.Stop().Done()
}
