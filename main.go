package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"backend/internal/clients/maps"
	intconfig "backend/internal/config"
	router "backend/internal/http"
	"backend/internal/mail"
	"backend/internal/repositories"
	"backend/internal/services"
	"backend/internal/utils"
)

func main() {
	env := intconfig.LoadEnv()
	utils.InitLogger(env.LogFile)
	if env.GinMode != "" {
		gin.SetMode(env.GinMode)
	}

	db := intconfig.ConnectDB(env)
	defer intconfig.CloseDB()

	routes := maps.NewClient(env.RouteBaseURL, env.RouteTimeout)
	mailer := mail.NewMailer(env)

	idem := services.IdempotencyService{
		Repo: repositories.IdempotencyRepository{DB: db},
		TTL:  env.IdempotencyTTL,
	}
	outbox := services.OutboxService{
		Repo:      repositories.OutboxRepository{DB: db},
		Mailer:    mailer,
		BatchSize: env.OutboxBatchSize,
	}

	// Background sweeps: idempotency expiry and email retry.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go idem.Run(ctx, env.IdempotencySweepInterval)
	go outbox.Run(ctx, env.OutboxSweepInterval)

	r := router.NewRouter(env, db, routes, mailer, idem)

	srv := &http.Server{
		Addr:              env.AppAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       20 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("server listening on %s", env.AppAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server shutdown failed: %v", err)
	}

	log.Println("server stopped cleanly.")
}
