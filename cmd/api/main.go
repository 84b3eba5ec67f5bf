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

	"github.com/go-auth-flow/internal/application/authflow"
	"github.com/go-auth-flow/internal/config"
	"github.com/go-auth-flow/internal/infrastructure/authapi"
	"github.com/go-auth-flow/internal/infrastructure/dynamo"
	jwtinfra "github.com/go-auth-flow/internal/infrastructure/jwt"
	"github.com/go-auth-flow/internal/pkg/i18n"
	"github.com/go-auth-flow/internal/pkg/validate"
	transporthttp "github.com/go-auth-flow/internal/transport/http"
	"github.com/go-auth-flow/internal/ui"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()
	if err := validate.Struct(cfg); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// Bootstrap DynamoDB tables (creates them if they don't exist).
	dynamoClient, err := dynamo.NewClient(ctx, cfg)
	if err != nil {
		log.Fatalf("dynamodb client: %v", err)
	}
	dynamo.Bootstrap(ctx, dynamoClient, cfg.DynamoTables)

	// Every flow route needs a verified token, so the public key is mandatory.
	jwtProvider, err := jwtinfra.NewProvider(cfg)
	if err != nil {
		log.Fatalf("jwt provider: %v", err)
	}

	locales, err := i18n.NewBundle(cfg.DefaultLocale)
	if err != nil {
		log.Fatalf("locales: %v", err)
	}
	theme, err := ui.LoadTheme(cfg.ThemePath)
	if err != nil {
		log.Fatalf("theme: %v", err)
	}

	api := authapi.NewClient(cfg.AuthAPIURL, cfg.AuthAPITimeout)

	deps := &transporthttp.Deps{
		FlowRepo:    dynamo.NewFlowRepo(dynamoClient, cfg.DynamoTables.AuthFlows),
		Clients:     func(bearer string) authflow.UserClient { return api.ForToken(bearer) },
		JWTProvider: jwtProvider,
		Locales:     locales,
		Theme:       theme,
	}

	router := transporthttp.NewRouter(ctx, cfg, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15*time.Second + cfg.AuthAPITimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on :%s (env=%s)", cfg.AppPort, cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}
	stop()
	log.Println("Server stopped")
}
