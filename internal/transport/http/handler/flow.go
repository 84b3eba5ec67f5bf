package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-auth-flow/internal/application/authflow"
	"github.com/go-auth-flow/internal/domain"
	"github.com/go-auth-flow/internal/pkg/i18n"
	"github.com/go-auth-flow/internal/pkg/validate"
	"github.com/go-auth-flow/internal/transport/http/middleware"
	"github.com/go-auth-flow/internal/ui"
	"github.com/go-chi/chi/v5"
)

const maxFormBytes = 16 << 10

// FlowService runs the authentication flow for one session.
type FlowService interface {
	Render(ctx context.Context, who authflow.Identity, tr *i18n.Translator) (*authflow.Screen, error)
	Act(ctx context.Context, who authflow.Identity, tr *i18n.Translator, action string, form map[string]string) (*authflow.Screen, error)
}

// FlowHandler serves flow screens as HTML pages or, for clients that accept
// application/json, as view trees.
type FlowHandler struct {
	svc         FlowService
	locales     *i18n.Bundle
	renderer    *ui.Renderer
	signedInURL string
}

func NewFlowHandler(svc FlowService, locales *i18n.Bundle, renderer *ui.Renderer, signedInURL string) *FlowHandler {
	return &FlowHandler{svc: svc, locales: locales, renderer: renderer, signedInURL: signedInURL}
}

// actionForm is the union of fields any step action accepts.
type actionForm struct {
	Email       string `validate:"omitempty,contact_attr"`
	PhoneNumber string `validate:"omitempty,contact_attr"`
	Code        string `validate:"omitempty,max=64,printascii"`
}

// Show renders the session's current screen.
func (h *FlowHandler) Show(w http.ResponseWriter, r *http.Request) {
	who, ok := identity(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	tr := h.locales.ForAcceptLanguage(r.Header.Get("Accept-Language"))
	screen, err := h.svc.Render(r.Context(), who, tr)
	if err != nil {
		httpError(w, err)
		return
	}
	h.writeScreen(w, r, tr, screen, http.StatusOK)
}

// Action runs verify, submit or skip on the verify-contact step.
func (h *FlowHandler) Action(w http.ResponseWriter, r *http.Request) {
	who, ok := identity(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	action := chi.URLParam(r, "action")
	switch action {
	case authflow.ActionVerify, authflow.ActionSubmit, authflow.ActionSkip:
	default:
		writeError(w, http.StatusBadRequest, "unknown action")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form body")
		return
	}
	form := map[string]string{
		"email":        strings.TrimSpace(r.PostForm.Get("email")),
		"phone_number": strings.TrimSpace(r.PostForm.Get("phone_number")),
		"code":         strings.TrimSpace(r.PostForm.Get("code")),
	}
	if err := validate.Struct(actionForm{
		Email:       form["email"],
		PhoneNumber: form["phone_number"],
		Code:        form["code"],
	}); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	tr := h.locales.ForAcceptLanguage(r.Header.Get("Accept-Language"))
	screen, err := h.svc.Act(r.Context(), who, tr, action, form)
	status := http.StatusOK
	if err != nil {
		if screen == nil || !errors.Is(err, domain.ErrBusy) {
			httpError(w, err)
			return
		}
		status = http.StatusConflict
	}
	h.writeScreen(w, r, tr, screen, status)
}

func (h *FlowHandler) writeScreen(w http.ResponseWriter, r *http.Request, tr *i18n.Translator, screen *authflow.Screen, status int) {
	w.Header().Set("Cache-Control", "no-store")
	state := screen.Session.AuthState
	if wantsJSON(r) {
		env := FlowEnvelope{AuthState: state, View: screen.Root, Errors: screen.Errors}
		if state == domain.StateSignedIn {
			env.Redirect = h.signedInURL
		}
		writeJSON(w, status, env)
		return
	}
	if state == domain.StateSignedIn {
		http.Redirect(w, r, h.signedInURL, http.StatusSeeOther)
		return
	}
	if screen.Root == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = h.renderer.Page(w, tr.Lang(), tr.Get("Verify Contact"), screen.Root)
}

func identity(r *http.Request) (authflow.Identity, bool) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		return authflow.Identity{}, false
	}
	token, _ := middleware.TokenFromContext(r.Context())
	return authflow.Identity{SessionID: claims.SessionID, UserID: claims.UserID, Bearer: token}, true
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}
