package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"worksflow/agreement"
	"worksflow/config"
	"worksflow/db"
	"worksflow/httpapi"
	"worksflow/jobsys"
	"worksflow/logger"
)

func main() {
	log, err := logger.New(os.Getenv("LOG_MODE"))
	if err != nil {
		fmt.Printf("init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	cfg := config.Load(log)

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("bootstrap database pool", "error", err)
	}
	defer pool.Close()

	store := agreement.NewRepository(pool)
	audit := agreement.NewPGIngestLog(pool)
	jobs := jobsys.NewHTTPClient(cfg.JobSystemBaseURL, cfg.JobSystemAPIKey)

	ingestService := agreement.NewService(store, jobs, audit, log, cfg.ThresholdCents)
	crudService := agreement.NewCRUDService(store, audit, log)

	router := httpapi.NewRouter(httpapi.RouterConfig{
		Webhook:      httpapi.NewWebhookHandler(ingestService, cfg.WebhookSecret, log),
		Agreements:   httpapi.NewAgreementsHandler(crudService, log),
		APIJWTSecret: cfg.APIJWTSecret,
		Log:          log,
	})

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Info("agreement service listening", "port", cfg.Port, "thresholdCents", cfg.ThresholdCents)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("serve", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown", "error", err)
	}
}
