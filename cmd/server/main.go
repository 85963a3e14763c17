package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"kfolx-backend-go/internal/config"
	"kfolx-backend-go/internal/db"
	httpapi "kfolx-backend-go/internal/http"
	"kfolx-backend-go/internal/logging"
	"kfolx-backend-go/internal/migrations"
	"kfolx-backend-go/internal/ratelimit"
	"kfolx-backend-go/internal/services"
	"kfolx-backend-go/internal/store"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	logs := logging.NewDailyFile(cfg.LogDir, cfg.LogRetentionDays)
	if err := logs.Start(); err != nil {
		log.Printf("logger setup failed: %v", err)
	} else {
		defer logs.Close()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	database, err := db.Open(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer database.Close()
	if err := migrations.Apply(ctx, database, cfg.MigrationsDir); err != nil {
		log.Fatalf("migrations: %v", err)
	}
	gateway := store.New(database)

	if cfg.NormalizeImagePaths {
		resolver := services.NewResolver(cfg.PublicDir, cfg.UploadPrefix)
		fixed, err := resolver.NormalizeImagePaths(ctx, gateway)
		if err != nil {
			log.Fatalf("normalize image paths: %v", err)
		}
		log.Printf("normalized %d image paths", fixed)
	}

	var limiter *ratelimit.Limiter
	if cfg.RedisAddr != "" {
		limiter, err = ratelimit.Dial(ctx, cfg.RedisAddr, cfg.RedisPassword, "kfolx:ratelimit", cfg.RateLimitPerMinute, time.Minute)
		if err != nil {
			log.Fatalf("rate limiter: %v", err)
		}
		defer limiter.Close()
	} else {
		log.Printf("REDIS_ADDR not set, rate limiting disabled")
	}

	feed := services.NewListingHub()
	go feed.Run(ctx)

	server := httpapi.NewServer(cfg, gateway, feed, limiter)

	addr := ":" + cfg.Port
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("listening on %s (%s)", addr, cfg.DatabaseDriver)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGTERM, syscall.SIGINT)
	<-stop
	cancel()
	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	_ = httpServer.Shutdown(ctxShutdown)
	log.Printf("shutdown complete")
}
