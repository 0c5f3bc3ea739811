package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mithai/internal/backend"
	"mithai/internal/catalog"
	"mithai/internal/config"
	httpapi "mithai/internal/http"
	"mithai/internal/repository"
	"mithai/internal/service"

	_ "mithai/docs"
)

func main() {
	configPath := flag.String("config", os.Getenv("MITHAI_CONFIG"), "path to YAML config")
	useMockCatalog := flag.Bool("mock-catalog", false, "serve the built-in catalog instead of the remote one")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	var store repository.SessionRepository
	if cfg.RedisURL != "" {
		redisStore, err := repository.NewRedisStore(cfg.RedisURL, cfg.SessionTTL)
		if err != nil {
			log.Fatalf("redis error: %v", err)
		}
		defer redisStore.Close()
		store = redisStore
		log.Printf("sessions stored in redis")
	} else {
		store = repository.NewMemoryStore()
		log.Printf("sessions stored in memory")
	}

	api := backend.NewClient(cfg.BackendURL, cfg.Timeout)

	var products catalog.Provider
	if *useMockCatalog {
		products = catalog.NewMock()
	} else {
		products = catalog.NewRemote(api)
	}

	sessionsSvc := service.NewSessionService(store)
	authSvc := service.NewAuthService(store, api)
	cartSvc := service.NewCartService(store)
	checkoutSvc := service.NewCheckoutService(store, api, cfg.DeliveryFee)

	srv := httpapi.NewServer(sessionsSvc, authSvc, cartSvc, checkoutSvc, products)

	httpServer := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: srv.Engine(),
	}

	go func() {
		log.Printf("HTTP server listening on %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
