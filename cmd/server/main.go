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

	"ogbarber/backend/internal/config"
	"ogbarber/backend/internal/domain"
	"ogbarber/backend/internal/httpapi"
	"ogbarber/backend/internal/service"
	"ogbarber/backend/internal/store"
	"ogbarber/backend/internal/store/memory"
	pgstore "ogbarber/backend/internal/store/postgres"
	redisstore "ogbarber/backend/internal/store/redis"
)

func main() {
	cfg := config.Load()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	repo, closers, err := buildRepository(ctx, cfg)
	if err != nil {
		log.Fatalf("%v; refusing to start with in-memory fallback", err)
	}

	svc := service.New(repo)
	api := httpapi.New(svc, cfg.AllowedOrigin)

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("ledger backend listening on %s", cfg.Address())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}

	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			log.Printf("close error: %v", err)
		}
	}

	log.Println("server stopped")
}

// buildRepository selects the backing store from the configuration. A
// configured but unreachable postgres or redis is an error, never a silent
// downgrade to the in-memory store.
func buildRepository(ctx context.Context, cfg config.Config) (store.Repository, []func() error, error) {
	priceDefaults := domain.Prices{Plain: cfg.DefaultPlainPrice, Combo: cfg.DefaultComboPrice}

	switch {
	case cfg.DatabaseURL != "":
		pg, err := pgstore.New(ctx, cfg.DatabaseURL, priceDefaults)
		if err != nil {
			return nil, nil, fmt.Errorf("postgres unavailable (%w) and DATABASE_URL is set", err)
		}
		log.Println("repository: postgres")
		return pg, []func() error{pg.Close}, nil
	case cfg.RedisAddr != "":
		rs := redisstore.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, priceDefaults)
		if err := rs.Ping(ctx); err != nil {
			return nil, nil, fmt.Errorf("redis unavailable (%w) and REDIS_ADDR is set", err)
		}
		log.Println("repository: redis")
		return rs, []func() error{rs.Close}, nil
	default:
		log.Println("repository: in-memory")
		return memory.NewSeeded(priceDefaults), nil, nil
	}
}
