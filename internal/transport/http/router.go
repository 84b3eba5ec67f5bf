package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-auth-flow/internal/application/authflow"
	"github.com/go-auth-flow/internal/application/verifycontact"
	"github.com/go-auth-flow/internal/config"
	"github.com/go-auth-flow/internal/transport/http/handler"
	appmiddleware "github.com/go-auth-flow/internal/transport/http/middleware"
	"github.com/go-auth-flow/internal/ui"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"
)

const actionsBase = "/v1/flow/verify-contact/"

// NewRouter builds and returns the application router. Background work
// started here stops when ctx is cancelled.
func NewRouter(ctx context.Context, cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	if cfg.TrustProxy {
		r.Use(chimiddleware.RealIP)
	}
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Accept-Language", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	actionRL := appmiddleware.NewRateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst)
	go func() {
		<-ctx.Done()
		actionRL.Stop()
	}()

	flowSvc := authflow.NewService(deps.FlowRepo, deps.Clients, authflow.Options{
		SessionTTL: cfg.FlowSessionTTL,
		BusyTTL:    cfg.FlowBusyTTL,
		Hide:       cfg.FlowHide,
		Theme:      deps.Theme.OrDefault(),
		Actions: verifycontact.Actions{
			Verify: actionsBase + authflow.ActionVerify,
			Submit: actionsBase + authflow.ActionSubmit,
			Skip:   actionsBase + authflow.ActionSkip,
		},
	}, slog.Default())

	healthH := handler.NewHealthHandler()
	flowH := handler.NewFlowHandler(flowSvc, deps.Locales, ui.NewRenderer(), cfg.FlowSignedInURL)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/health-check/{action}", healthH.Ping)

		r.Group(func(r chi.Router) {
			r.Use(appmiddleware.Auth(deps.JWTProvider))

			r.Get("/flow", flowH.Show)
			r.With(actionRL.Limit, appmiddleware.CookieCSRF(cfg.AllowedOrigins)).
				Post("/flow/verify-contact/{action}", flowH.Action)
		})
	})

	return r
}
