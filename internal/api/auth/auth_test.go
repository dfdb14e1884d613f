package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/eventsphere/eventsphere/internal/cache"
	"github.com/eventsphere/eventsphere/internal/config"
	"github.com/eventsphere/eventsphere/internal/database"
	"github.com/eventsphere/eventsphere/internal/engine"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"golang.org/x/oauth2"
)

type fakeUsers map[uint]*database.User

func (f fakeUsers) GetUser(_ context.Context, id uint) (*database.User, error) {
	if u, ok := f[id]; ok {
		return u, nil
	}
	return nil, engine.ErrUserNotFound
}

type AuthTestSuite struct {
	suite.Suite
	cfg    *config.AuthConfig
	users  fakeUsers
	auth   *Authenticator
	router *gin.Engine
}

func (s *AuthTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)

	s.cfg = &config.AuthConfig{
		JWTSecret:  "0123456789abcdef0123456789abcdef",
		TokenTTL:   time.Hour,
		CookieName: "authToken",
	}
	s.users = fakeUsers{
		1: {ID: 1, Name: "alice", IsActive: true},
		2: {ID: 2, Name: "root", IsActive: true, IsAdmin: true},
		3: {ID: 3, Name: "banned", IsActive: false},
	}
	appCache, err := cache.New(&config.CacheConfig{Type: config.CacheTypeMemory})
	s.Require().NoError(err)
	s.auth = NewAuthenticator(s.cfg, s.users, appCache)

	s.router = gin.New()
	ok := func(c *gin.Context) {
		user, _ := CurrentUser(c)
		name := ""
		if user != nil {
			name = user.Name
		}
		c.JSON(http.StatusOK, gin.H{"name": name})
	}
	s.router.GET("/protected", s.auth.RequireAuth(), ok)
	s.router.GET("/admin", s.auth.RequireAuth(), s.auth.RequireAdmin(), ok)
	s.router.GET("/optional", s.auth.OptionalAuth(), ok)
	s.router.POST("/login/:id", func(c *gin.Context) {
		user := s.users[1]
		if c.Param("id") == "2" {
			user = s.users[2]
		}
		s.Require().NoError(s.auth.SignIn(c, user))
		c.Status(http.StatusNoContent)
	})
	s.router.POST("/logout", func(c *gin.Context) {
		s.auth.SignOut(c)
		c.Status(http.StatusNoContent)
	})
}

func (s *AuthTestSuite) token(user *database.User) string {
	token, _, err := s.auth.Tokens().Issue(user)
	s.Require().NoError(err)
	return token
}

func (s *AuthTestSuite) get(path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.AddCookie(&http.Cookie{Name: s.cfg.CookieName, Value: token})
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *AuthTestSuite) TestRequireAuth_NoToken() {
	w := s.get("/protected", "")
	s.Equal(http.StatusUnauthorized, w.Code)
	s.JSONEq(`{"message":"Unauthorized"}`, w.Body.String())
}

func (s *AuthTestSuite) TestRequireAuth_InvalidToken() {
	w := s.get("/protected", "not-a-jwt")
	s.Equal(http.StatusForbidden, w.Code)
	s.JSONEq(`{"message":"Invalid token"}`, w.Body.String())
}

func (s *AuthTestSuite) TestRequireAuth_ExpiredToken() {
	expired := &TokenManager{secret: []byte(s.cfg.JWTSecret), ttl: -time.Minute}
	token, _, err := expired.Issue(s.users[1])
	s.Require().NoError(err)

	w := s.get("/protected", token)
	s.Equal(http.StatusForbidden, w.Code)
}

func (s *AuthTestSuite) TestRequireAuth_WrongSecret() {
	other := &TokenManager{secret: []byte("another-secret-another-secret-xx"), ttl: time.Hour}
	token, _, err := other.Issue(s.users[1])
	s.Require().NoError(err)

	w := s.get("/protected", token)
	s.Equal(http.StatusForbidden, w.Code)
}

func (s *AuthTestSuite) TestRequireAuth_ValidToken() {
	w := s.get("/protected", s.token(s.users[1]))
	s.Equal(http.StatusOK, w.Code)
	s.JSONEq(`{"name":"alice"}`, w.Body.String())
}

func (s *AuthTestSuite) TestRequireAuth_BannedUser() {
	w := s.get("/protected", s.token(s.users[3]))
	s.Equal(http.StatusForbidden, w.Code)
	s.JSONEq(`{"message":"Your account has been banned or deactivated"}`, w.Body.String())
}

func (s *AuthTestSuite) TestRequireAuth_UnknownUser() {
	w := s.get("/protected", s.token(&database.User{ID: 42}))
	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *AuthTestSuite) TestRequireAdmin() {
	s.Equal(http.StatusForbidden, s.get("/admin", s.token(s.users[1])).Code)
	s.Equal(http.StatusOK, s.get("/admin", s.token(s.users[2])).Code)
	s.Equal(http.StatusUnauthorized, s.get("/admin", "").Code)
}

func (s *AuthTestSuite) TestRequireAdmin_UsesStoredRole() {
	// the token still claims admin but the account was demoted
	token := s.token(s.users[2])
	s.users[2].IsAdmin = false

	s.Equal(http.StatusForbidden, s.get("/admin", token).Code)
}

func (s *AuthTestSuite) TestOptionalAuth() {
	s.JSONEq(`{"name":""}`, s.get("/optional", "").Body.String())
	s.JSONEq(`{"name":""}`, s.get("/optional", "garbage").Body.String())
	s.JSONEq(`{"name":"alice"}`, s.get("/optional", s.token(s.users[1])).Body.String())
}

func (s *AuthTestSuite) TestSignInAndSignOut() {
	req := httptest.NewRequest(http.MethodPost, "/login/1", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	s.Require().Equal(http.StatusNoContent, w.Code)

	cookies := w.Result().Cookies()
	s.Require().Len(cookies, 1)
	authCookie := cookies[0]
	s.Equal(s.cfg.CookieName, authCookie.Name)
	s.True(authCookie.HttpOnly)
	s.Equal(http.StatusOK, s.get("/protected", authCookie.Value).Code)

	req = httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.AddCookie(authCookie)
	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	s.Require().Equal(http.StatusNoContent, w.Code)
	s.Require().NotEmpty(w.Result().Cookies())
	s.Equal(-1, w.Result().Cookies()[0].MaxAge)

	// the token is revoked even if a client keeps sending it
	s.Equal(http.StatusForbidden, s.get("/protected", authCookie.Value).Code)
}

func TestAuthTestSuite(t *testing.T) {
	suite.Run(t, new(AuthTestSuite))
}

func TestTokenManager_Claims(t *testing.T) {
	m := NewTokenManager(&config.AuthConfig{JWTSecret: "0123456789abcdef0123456789abcdef", TokenTTL: time.Hour})

	token, issued, err := m.Issue(&database.User{ID: 7, IsAdmin: true})
	require.NoError(t, err)
	assert.NotEmpty(t, issued.ID)

	claims, err := m.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.True(t, claims.IsAdmin)
	assert.Equal(t, issued.ID, claims.ID)

	_, second, err := m.Issue(&database.User{ID: 7})
	require.NoError(t, err)
	assert.NotEqual(t, issued.ID, second.ID)
}

func TestTokenManager_RejectsOtherAlgorithms(t *testing.T) {
	m := NewTokenManager(&config.AuthConfig{JWTSecret: "0123456789abcdef0123456789abcdef", TokenTTL: time.Hour})

	// {"alg":"none"} token with an id claim
	_, err := m.Parse("eyJhbGciOiJub25lIiwidHlwIjoiSldUIn0.eyJpZCI6MSwiZXhwIjo0MTAyNDQ0ODAwfQ.")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func newOIDCTestRouter(p *OIDCProvider) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	store := cookie.NewStore([]byte("test-secret"))
	router.Use(sessions.Sessions("eventsphere_session", store))
	router.GET("/login", p.Login)
	router.GET("/callback", p.Callback)
	return router
}

func TestOIDCProvider_LoginWithPKCE(t *testing.T) {
	p := &OIDCProvider{
		cfg: &config.OIDCConfig{UsePKCE: true},
		config: &oauth2.Config{
			ClientID:    "eventsphere",
			RedirectURL: "http://localhost:5000/api/auth/oidc/callback",
			Endpoint:    oauth2.Endpoint{AuthURL: "https://idp.example.com/authorize", TokenURL: "https://idp.example.com/token"},
		},
	}
	router := newOIDCTestRouter(p)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/login", nil))

	require.Equal(t, http.StatusFound, w.Code)
	location, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "idp.example.com", location.Host)
	assert.NotEmpty(t, location.Query().Get("state"))
	assert.NotEmpty(t, location.Query().Get("code_challenge"))
	assert.Equal(t, "S256", location.Query().Get("code_challenge_method"))
	assert.NotEmpty(t, w.Result().Cookies())
}

func TestOIDCProvider_CallbackRejectsUnknownState(t *testing.T) {
	p := &OIDCProvider{
		cfg:    &config.OIDCConfig{},
		config: &oauth2.Config{Endpoint: oauth2.Endpoint{AuthURL: "https://idp.example.com/authorize"}},
	}
	router := newOIDCTestRouter(p)

	// start a login to get a session cookie with a state
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/login", nil))
	require.Equal(t, http.StatusFound, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/callback?state=forged&code=abc", nil)
	for _, c := range w.Result().Cookies() {
		req.AddCookie(c)
	}
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestNewOIDCProvider_InvalidIssuer(t *testing.T) {
	cfg := &config.OIDCConfig{
		Enabled:      true,
		Issuer:       "invalid-issuer-url",
		ClientID:     "test-client-id",
		ClientSecret: "test-client-secret",
		RedirectURL:  "http://localhost:5000/api/auth/oidc/callback",
	}

	provider, err := NewOIDCProvider(t.Context(), cfg, nil, nil, "/")
	assert.Error(t, err)
	assert.Nil(t, provider)
}
