package middleware

import (
	"crypto/rand"
	"crypto/rsa"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-auth-flow/internal/config"
	jwtinfra "github.com/go-auth-flow/internal/infrastructure/jwt"
	"github.com/go-auth-flow/internal/pkg/testkeys"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestProvider returns a provider backed by a fresh key pair in t.TempDir().
func newTestProvider(t *testing.T) *jwtinfra.Provider {
	t.Helper()
	privPath, pubPath := testkeys.Write(t)
	p, err := jwtinfra.NewProvider(&config.Config{
		JWTPrivateKeyPath: privPath,
		JWTPublicKeyPath:  pubPath,
		JWTExpiry:         24 * time.Hour,
	})
	require.NoError(t, err)
	return p
}

func okHandler(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }

func TestAuth_MissingHeader(t *testing.T) {
	p := newTestProvider(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()

	Auth(p)(http.HandlerFunc(okHandler)).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.JSONEq(t, `{"error":"missing or invalid authorization header"}`, rr.Body.String())
}

func TestAuth_NonBearerScheme(t *testing.T) {
	p := newTestProvider(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	rr := httptest.NewRecorder()

	Auth(p)(http.HandlerFunc(okHandler)).ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAuth_BadToken(t *testing.T) {
	p := newTestProvider(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer not-a-real-token")
	rr := httptest.NewRecorder()

	Auth(p)(http.HandlerFunc(okHandler)).ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAuth_ForeignKeyToken(t *testing.T) {
	privKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	claims := &jwtinfra.Claims{
		UserID:    "u1",
		SessionID: "s1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(privKey)
	require.NoError(t, err)

	p := newTestProvider(t) // different key pair — will fail verification
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rr := httptest.NewRecorder()

	Auth(p)(http.HandlerFunc(okHandler)).ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAuth_ValidToken_InjectsClaimsAndToken(t *testing.T) {
	p := newTestProvider(t)
	signed, err := p.Sign("u1", "dev1", "user", "sess1")
	require.NoError(t, err)

	var gotClaims *jwtinfra.Claims
	var gotToken string
	captureHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotClaims, _ = ClaimsFromContext(r.Context())
		gotToken, _ = TokenFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rr := httptest.NewRecorder()
	Auth(p)(captureHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	require.NotNil(t, gotClaims)
	assert.Equal(t, "u1", gotClaims.UserID)
	assert.Equal(t, "sess1", gotClaims.SessionID)
	assert.Equal(t, signed, gotToken)
}

func TestAuth_CookieFallback(t *testing.T) {
	p := newTestProvider(t)
	signed, err := p.Sign("u1", "dev1", "user", "sess1")
	require.NoError(t, err)

	var viaCookie bool
	captureHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		viaCookie = CookieAuthenticated(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.AddCookie(&http.Cookie{Name: TokenCookie, Value: signed})
	rr := httptest.NewRecorder()

	Auth(p)(captureHandler).ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, viaCookie)
}

func TestAuth_HeaderIsNotCookieAuthenticated(t *testing.T) {
	p := newTestProvider(t)
	signed, err := p.Sign("u1", "dev1", "user", "sess1")
	require.NoError(t, err)

	viaCookie := true
	captureHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		viaCookie = CookieAuthenticated(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	req.AddCookie(&http.Cookie{Name: TokenCookie, Value: signed})
	rr := httptest.NewRecorder()

	Auth(p)(captureHandler).ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.False(t, viaCookie)
}
