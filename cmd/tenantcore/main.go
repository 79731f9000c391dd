package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/riandyrn/otelchi"

	"github.com/avencia/tenantcore/internal/adapter/fsm"
	"github.com/avencia/tenantcore/internal/adapter/otel"
	riveradapter "github.com/avencia/tenantcore/internal/adapter/river"
	"github.com/avencia/tenantcore/internal/adapter/sqlite"
	"github.com/avencia/tenantcore/internal/app"
	"github.com/avencia/tenantcore/internal/domain"

	handler "github.com/avencia/tenantcore/internal/adapter/http"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("tenantcore: %v", err)
	}
}

func run() error {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	port := envOrDefault("PORT", "8080")
	dbPath := envOrDefault("DATABASE_PATH", "tenantcore.db")

	ctx := context.Background()

	// --- Telemetry ---
	providers, err := otel.Setup(ctx, otel.ConfigFromEnv())
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			log.Printf("otel shutdown: %v", err)
		}
	}()

	// --- Adapters (out) ---
	db, err := otel.OpenDB(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	repo, err := sqlite.NewFromDB(db)
	if err != nil {
		return err
	}

	riverClient, err := riveradapter.Setup(ctx, db)
	if err != nil {
		return err
	}
	if err := riverClient.Start(ctx); err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := riverClient.Stop(stopCtx); err != nil {
			log.Printf("river stop: %v", err)
		}
	}()

	publisher := otel.NewTracingPublisher(riveradapter.NewPublisher(riverClient))
	resources := otel.NewTracingRepository(repo)
	clock := app.SystemClock{}

	// --- Application ---
	svc := handler.Services{
		Resources: app.NewResourceService(resources, publisher, fsm.New(), clock),
		Ledger:    app.NewLedgerService(repo, publisher, clock),
		Purge:     app.NewPurgeService(repo, publisher, domain.DefaultRegistry()),
		Settings:  app.NewSettingsService(repo),
	}

	// --- Adapters (in) ---
	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(otelchi.Middleware("tenantcore", otelchi.WithChiRoutes(router)))

	api := humachi.New(router, huma.DefaultConfig("tenantcore", "0.1.0"))
	handler.Register(api, svc)

	// --- Server ---
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		log.Printf("tenantcore listening on :%s", port)
		log.Printf("API docs: http://localhost:%s/docs", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return err
	case <-done:
	}
	log.Println("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}

	log.Println("stopped")
	return nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
