package http

import (
	"github.com/go-auth-flow/internal/application/authflow"
	jwtinfra "github.com/go-auth-flow/internal/infrastructure/jwt"
	"github.com/go-auth-flow/internal/pkg/i18n"
	"github.com/go-auth-flow/internal/ui"
)

// FlowRepository is the minimal interface the router requires from a flow-session store.
type FlowRepository interface {
	authflow.FlowStore
}

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	FlowRepo FlowRepository
	// Clients binds the auth backend to the caller's access token.
	Clients     authflow.ClientFactory
	JWTProvider *jwtinfra.Provider
	Locales     *i18n.Bundle
	Theme       *ui.Theme
}
