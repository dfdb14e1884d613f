package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/eventsphere/eventsphere/internal/cache"
	"github.com/eventsphere/eventsphere/internal/config"
	"github.com/eventsphere/eventsphere/internal/database"
	"github.com/eventsphere/eventsphere/internal/engine"
	"github.com/gin-gonic/gin"
)

// Keys under which the middlewares store the caller in the gin context.
const (
	ContextKeyUser   = "user"
	ContextKeyClaims = "claims"
)

var errNoToken = errors.New("no auth token")

// UserLoader loads the current state of an account.
type UserLoader interface {
	GetUser(ctx context.Context, id uint) (*database.User, error)
}

// Authenticator guards routes with the auth cookie.
type Authenticator struct {
	cfg    *config.AuthConfig
	tokens *TokenManager
	users  UserLoader
	cache  *cache.AppCache
}

func NewAuthenticator(cfg *config.AuthConfig, users UserLoader, appCache *cache.AppCache) *Authenticator {
	return &Authenticator{
		cfg:    cfg,
		tokens: NewTokenManager(cfg),
		users:  users,
		cache:  appCache,
	}
}

// Tokens returns the token manager used to sign the auth cookie.
func (a *Authenticator) Tokens() *TokenManager {
	return a.tokens
}

func (a *Authenticator) claims(c *gin.Context) (*Claims, error) {
	raw, err := c.Cookie(a.cfg.CookieName)
	if err != nil || raw == "" {
		return nil, errNoToken
	}
	claims, err := a.tokens.Parse(raw)
	if err != nil {
		return nil, err
	}
	if a.cache != nil && a.cache.IsTokenRevoked(c.Request.Context(), claims.ID) {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// PeekClaims returns the claims of a valid token without loading the user, or nil.
func (a *Authenticator) PeekClaims(c *gin.Context) *Claims {
	claims, err := a.claims(c)
	if err != nil {
		return nil
	}
	return claims
}

// RequireAuth rejects requests without a valid token for an active account.
// A missing token is 401, an invalid, expired or revoked token is 403.
func (a *Authenticator) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := a.claims(c)
		if errors.Is(err, errNoToken) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
			return
		}
		if err != nil {
			log.Debug("rejected auth token", "error", err)
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Invalid token"})
			return
		}

		user, err := a.users.GetUser(c.Request.Context(), claims.UserID)
		if errors.Is(err, engine.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "User not found"})
			return
		}
		if err != nil {
			log.Error("failed to load authenticated user", "user_id", claims.UserID, "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
			return
		}
		if !user.IsActive {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": engine.AccountDisabledMessage})
			return
		}

		c.Set(ContextKeyClaims, claims)
		c.Set(ContextKeyUser, user)
		c.Next()
	}
}

// OptionalAuth identifies the caller when a valid token is present and never rejects the request.
func (a *Authenticator) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := a.claims(c)
		if err == nil {
			user, err := a.users.GetUser(c.Request.Context(), claims.UserID)
			if err == nil && user.IsActive {
				c.Set(ContextKeyClaims, claims)
				c.Set(ContextKeyUser, user)
			}
		}
		c.Next()
	}
}

// RequireAdmin must run after RequireAuth. The admin flag is read from the stored account,
// not from the token, so a revoked role takes effect immediately.
func (a *Authenticator) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Authentication required"})
			return
		}
		if !user.IsAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Admin access required"})
			return
		}
		c.Next()
	}
}

// CurrentUser returns the user stored by RequireAuth or OptionalAuth.
func CurrentUser(c *gin.Context) (*database.User, bool) {
	v, ok := c.Get(ContextKeyUser)
	if !ok {
		return nil, false
	}
	user, ok := v.(*database.User)
	return user, ok && user != nil
}

// SignIn issues a token for the user and stores it in the auth cookie.
func (a *Authenticator) SignIn(c *gin.Context, user *database.User) error {
	token, _, err := a.tokens.Issue(user)
	if err != nil {
		return err
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(a.cfg.CookieName, token, int(a.tokens.TTL().Seconds()), "/", a.cfg.CookieDomain, a.cfg.CookieSecure, true)
	return nil
}

// SignOut clears the auth cookie and revokes the token it carried until it expires.
func (a *Authenticator) SignOut(c *gin.Context) {
	if claims := a.PeekClaims(c); claims != nil && a.cache != nil && claims.ExpiresAt != nil {
		if err := a.cache.RevokeToken(c.Request.Context(), claims.ID, claims.ExpiresAt.Time); err != nil {
			log.Error("failed to revoke token", "user_id", claims.UserID, "error", err)
		}
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(a.cfg.CookieName, "", -1, "/", a.cfg.CookieDomain, a.cfg.CookieSecure, true)
}
