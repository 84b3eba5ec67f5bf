package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-auth-flow/internal/application/authflow"
	"github.com/go-auth-flow/internal/domain"
	jwtinfra "github.com/go-auth-flow/internal/infrastructure/jwt"
	"github.com/go-auth-flow/internal/pkg/i18n"
	"github.com/go-auth-flow/internal/transport/http/middleware"
	"github.com/go-auth-flow/internal/ui"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mock ---

type mockFlowService struct{ mock.Mock }

func (m *mockFlowService) Render(ctx context.Context, who authflow.Identity, tr *i18n.Translator) (*authflow.Screen, error) {
	args := m.Called(ctx, who, tr)
	if s, _ := args.Get(0).(*authflow.Screen); s != nil {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockFlowService) Act(ctx context.Context, who authflow.Identity, tr *i18n.Translator, action string, form map[string]string) (*authflow.Screen, error) {
	args := m.Called(ctx, who, tr, action, form)
	if s, _ := args.Get(0).(*authflow.Screen); s != nil {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

// --- helpers ---

var testWho = authflow.Identity{SessionID: "s1", UserID: "u1", Bearer: "tok"}

func newFlowHandler(t *testing.T, svc FlowService) *FlowHandler {
	t.Helper()
	b, err := i18n.NewBundle("en")
	require.NoError(t, err)
	return NewFlowHandler(svc, b, ui.NewRenderer(), "/home")
}

func withIdentity(r *http.Request) *http.Request {
	claims := &jwtinfra.Claims{UserID: testWho.UserID, SessionID: testWho.SessionID}
	return r.WithContext(middleware.WithClaims(r.Context(), claims, testWho.Bearer))
}

func withAction(r *http.Request, action string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("action", action)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func postForm(action string, form url.Values) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/v1/flow/verify-contact/"+action, strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return withAction(withIdentity(r), action)
}

func verifyScreen() *authflow.Screen {
	th := &ui.DefaultTheme
	root := ui.Section(th,
		ui.Header(th, "Verify Contact"),
		ui.Body(th, ui.Form("/v1/flow/verify-contact/verify",
			ui.RadioRow(th, "email", "Email"),
			ui.ButtonRow(th, "Verify", false),
		)),
		ui.Footer(th, ui.Link(th, "/v1/flow/verify-contact/skip", "Skip")),
	)
	return &authflow.Screen{
		Session: &domain.FlowSession{SessionID: "s1", UserID: "u1", AuthState: domain.StateVerifyContact},
		Root:    root,
	}
}

func signedInScreen() *authflow.Screen {
	return &authflow.Screen{Session: &domain.FlowSession{SessionID: "s1", UserID: "u1", AuthState: domain.StateSignedIn}}
}

// --- Show ---

func TestShow_NoIdentity(t *testing.T) {
	h := newFlowHandler(t, &mockFlowService{})
	w := httptest.NewRecorder()
	h.Show(w, httptest.NewRequest(http.MethodGet, "/v1/flow", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestShow_RendersHTML(t *testing.T) {
	svc := &mockFlowService{}
	svc.On("Render", mock.Anything, testWho, mock.Anything).Return(verifyScreen(), nil)
	h := newFlowHandler(t, svc)

	w := httptest.NewRecorder()
	h.Show(w, withIdentity(httptest.NewRequest(http.MethodGet, "/v1/flow", nil)))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
	body := w.Body.String()
	assert.Contains(t, body, `name="email"`)
	assert.Contains(t, body, `action="/v1/flow/verify-contact/verify"`)
	assert.Contains(t, body, `action="/v1/flow/verify-contact/skip"`)
}

func TestShow_PicksTranslatorFromAcceptLanguage(t *testing.T) {
	svc := &mockFlowService{}
	svc.On("Render", mock.Anything, testWho, mock.MatchedBy(func(tr *i18n.Translator) bool {
		return tr.Lang() == "es"
	})).Return(verifyScreen(), nil)
	h := newFlowHandler(t, svc)

	r := withIdentity(httptest.NewRequest(http.MethodGet, "/v1/flow", nil))
	r.Header.Set("Accept-Language", "es-MX,es;q=0.9")
	w := httptest.NewRecorder()
	h.Show(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `<html lang="es">`)
	assert.Contains(t, w.Body.String(), "<title>Verificar contacto</title>")
	svc.AssertExpectations(t)
}

func TestShow_SignedInRedirects(t *testing.T) {
	svc := &mockFlowService{}
	svc.On("Render", mock.Anything, testWho, mock.Anything).Return(signedInScreen(), nil)
	h := newFlowHandler(t, svc)

	w := httptest.NewRecorder()
	h.Show(w, withIdentity(httptest.NewRequest(http.MethodGet, "/v1/flow", nil)))

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/home", w.Header().Get("Location"))
}

func TestShow_NothingToRender(t *testing.T) {
	svc := &mockFlowService{}
	screen := verifyScreen()
	screen.Root = nil
	svc.On("Render", mock.Anything, testWho, mock.Anything).Return(screen, nil)
	h := newFlowHandler(t, svc)

	w := httptest.NewRecorder()
	h.Show(w, withIdentity(httptest.NewRequest(http.MethodGet, "/v1/flow", nil)))

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestShow_JSON(t *testing.T) {
	svc := &mockFlowService{}
	svc.On("Render", mock.Anything, testWho, mock.Anything).Return(verifyScreen(), nil)
	h := newFlowHandler(t, svc)

	r := withIdentity(httptest.NewRequest(http.MethodGet, "/v1/flow", nil))
	r.Header.Set("Accept", "application/json")
	w := httptest.NewRecorder()
	h.Show(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	var env FlowEnvelope
	require.NoError(t, json.NewDecoder(w.Body).Decode(&env))
	assert.Equal(t, domain.StateVerifyContact, env.AuthState)
	require.NotNil(t, env.View)
	assert.Equal(t, 1, env.View.Count(ui.KindRadio))
	assert.Empty(t, env.Redirect)
}

func TestShow_JSON_SignedInCarriesRedirect(t *testing.T) {
	svc := &mockFlowService{}
	svc.On("Render", mock.Anything, testWho, mock.Anything).Return(signedInScreen(), nil)
	h := newFlowHandler(t, svc)

	r := withIdentity(httptest.NewRequest(http.MethodGet, "/v1/flow", nil))
	r.Header.Set("Accept", "application/json")
	w := httptest.NewRecorder()
	h.Show(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	var env FlowEnvelope
	require.NoError(t, json.NewDecoder(w.Body).Decode(&env))
	assert.Equal(t, domain.StateSignedIn, env.AuthState)
	assert.Equal(t, "/home", env.Redirect)
	assert.Nil(t, env.View)
}

func TestShow_ErrorMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{fmt.Errorf("wrap: %w", domain.ErrForbidden), http.StatusForbidden},
		{fmt.Errorf("wrap: %w", domain.ErrUnauthorized), http.StatusUnauthorized},
		{fmt.Errorf("wrap: %w", domain.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		svc := &mockFlowService{}
		svc.On("Render", mock.Anything, testWho, mock.Anything).Return(nil, tc.err)
		h := newFlowHandler(t, svc)

		w := httptest.NewRecorder()
		h.Show(w, withIdentity(httptest.NewRequest(http.MethodGet, "/v1/flow", nil)))
		assert.Equal(t, tc.status, w.Code, tc.err.Error())
	}
}

func TestShow_InternalErrorHidesDetail(t *testing.T) {
	svc := &mockFlowService{}
	svc.On("Render", mock.Anything, testWho, mock.Anything).Return(nil, fmt.Errorf("dynamodb: secret table detail"))
	h := newFlowHandler(t, svc)

	w := httptest.NewRecorder()
	h.Show(w, withIdentity(httptest.NewRequest(http.MethodGet, "/v1/flow", nil)))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "secret")
}

// --- Action ---

func TestAction_UnknownAction(t *testing.T) {
	svc := &mockFlowService{}
	h := newFlowHandler(t, svc)

	w := httptest.NewRecorder()
	h.Action(w, postForm("delete", url.Values{}))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertNotCalled(t, "Act", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAction_NoIdentity(t *testing.T) {
	h := newFlowHandler(t, &mockFlowService{})
	r := httptest.NewRequest(http.MethodPost, "/v1/flow/verify-contact/skip", nil)
	w := httptest.NewRecorder()
	h.Action(w, withAction(r, "skip"))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAction_PassesTrimmedForm(t *testing.T) {
	svc := &mockFlowService{}
	svc.On("Act", mock.Anything, testWho, mock.Anything, authflow.ActionSubmit, map[string]string{
		"email":        "",
		"phone_number": "",
		"code":         "123456",
	}).Return(signedInScreen(), nil)
	h := newFlowHandler(t, svc)

	w := httptest.NewRecorder()
	h.Action(w, postForm("submit", url.Values{"code": {" 123456 "}}))

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/home", w.Header().Get("Location"))
	svc.AssertExpectations(t)
}

func TestAction_VerifyRerendersStep(t *testing.T) {
	svc := &mockFlowService{}
	svc.On("Act", mock.Anything, testWho, mock.Anything, authflow.ActionVerify, mock.MatchedBy(func(f map[string]string) bool {
		return f["email"] == "email"
	})).Return(verifyScreen(), nil)
	h := newFlowHandler(t, svc)

	w := httptest.NewRecorder()
	h.Action(w, postForm("verify", url.Values{"email": {"email"}}))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "<form")
	svc.AssertExpectations(t)
}

func TestAction_RejectsUnknownRadioValue(t *testing.T) {
	svc := &mockFlowService{}
	h := newFlowHandler(t, svc)

	w := httptest.NewRecorder()
	h.Action(w, postForm("verify", url.Values{"email": {"someone@example.com"}}))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertNotCalled(t, "Act", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAction_RejectsOversizedCode(t *testing.T) {
	svc := &mockFlowService{}
	h := newFlowHandler(t, svc)

	w := httptest.NewRecorder()
	h.Action(w, postForm("submit", url.Values{"code": {strings.Repeat("9", 65)}}))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAction_BusyRendersWithConflict(t *testing.T) {
	svc := &mockFlowService{}
	screen := verifyScreen()
	screen.Errors = []string{"A request is already in progress"}
	svc.On("Act", mock.Anything, testWho, mock.Anything, authflow.ActionVerify, mock.Anything).
		Return(screen, fmt.Errorf("verify: %w", domain.ErrBusy))
	h := newFlowHandler(t, svc)

	w := httptest.NewRecorder()
	h.Action(w, postForm("verify", url.Values{"email": {"email"}}))

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "<form")
}

func TestAction_BusyWithoutScreen(t *testing.T) {
	svc := &mockFlowService{}
	svc.On("Act", mock.Anything, testWho, mock.Anything, authflow.ActionVerify, mock.Anything).
		Return(nil, domain.ErrBusy)
	h := newFlowHandler(t, svc)

	w := httptest.NewRecorder()
	h.Action(w, postForm("verify", url.Values{"email": {"email"}}))

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "error")
}

func TestAction_WrongStateIsConflict(t *testing.T) {
	svc := &mockFlowService{}
	svc.On("Act", mock.Anything, testWho, mock.Anything, authflow.ActionSkip, mock.Anything).
		Return(nil, fmt.Errorf("no skip action in state signedIn: %w", domain.ErrConflict))
	h := newFlowHandler(t, svc)

	w := httptest.NewRecorder()
	h.Action(w, postForm("skip", url.Values{}))

	assert.Equal(t, http.StatusConflict, w.Code)
}
