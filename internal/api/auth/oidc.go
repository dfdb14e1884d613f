package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"

	"github.com/charmbracelet/log"
	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/eventsphere/eventsphere/internal/config"
	"github.com/eventsphere/eventsphere/internal/database"
	"github.com/eventsphere/eventsphere/internal/engine"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

const (
	sessionKeyState    = "oidc_state"
	sessionKeyVerifier = "oidc_verifier"
)

// OIDCAccounts maps an OpenID Connect identity to a local account.
type OIDCAccounts interface {
	LoginOIDC(ctx context.Context, email, name string, inAdminGroup bool) (*database.User, error)
}

// OIDCProvider implements the authorization code flow. The state and the PKCE verifier live
// in a short lived cookie session; the result is the regular auth cookie.
type OIDCProvider struct {
	provider *oidc.Provider
	verifier *oidc.IDTokenVerifier
	config   *oauth2.Config
	cfg      *config.OIDCConfig
	accounts OIDCAccounts
	auth     *Authenticator
	// redirectTo is where the browser lands after a successful login.
	redirectTo string
}

func NewOIDCProvider(ctx context.Context, cfg *config.OIDCConfig, accounts OIDCAccounts, auth *Authenticator, redirectTo string) (*OIDCProvider, error) {
	p := OIDCProvider{
		cfg:        cfg,
		accounts:   accounts,
		auth:       auth,
		redirectTo: redirectTo,
	}
	if p.redirectTo == "" {
		p.redirectTo = "/"
	}

	var err error
	p.provider, err = oidc.NewProvider(ctx, cfg.Issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to discover oidc provider: %w", err)
	}

	p.config = &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Endpoint:     p.provider.Endpoint(),
		Scopes:       []string{oidc.ScopeOpenID, "profile", "email", "groups"},
	}

	p.verifier = p.provider.Verifier(&oidc.Config{ClientID: cfg.ClientID})
	return &p, nil
}

// Name returns the display name of the provider.
func (p *OIDCProvider) Name() string {
	return p.cfg.Name
}

func (p *OIDCProvider) Login(c *gin.Context) {
	state := uuid.NewString()
	session := sessions.Default(c)
	session.Set(sessionKeyState, state)

	var opts []oauth2.AuthCodeOption
	if p.cfg.UsePKCE {
		verifier := oauth2.GenerateVerifier()
		session.Set(sessionKeyVerifier, verifier)
		opts = append(opts, oauth2.S256ChallengeOption(verifier))
	}

	if err := session.Save(); err != nil {
		log.Error("failed to save oidc session", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	c.Redirect(http.StatusFound, p.config.AuthCodeURL(state, opts...))
}

func (p *OIDCProvider) Callback(c *gin.Context) {
	ctx := c.Request.Context()
	session := sessions.Default(c)

	expectedState, _ := session.Get(sessionKeyState).(string)
	verifier, _ := session.Get(sessionKeyVerifier).(string)
	session.Delete(sessionKeyState)
	session.Delete(sessionKeyVerifier)
	if err := session.Save(); err != nil {
		log.Warn("failed to clear oidc session", "error", err)
	}

	if expectedState == "" || c.Query("state") != expectedState {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid login state"})
		return
	}

	var opts []oauth2.AuthCodeOption
	if p.cfg.UsePKCE {
		if verifier == "" {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid login state"})
			return
		}
		opts = append(opts, oauth2.VerifierOption(verifier))
	}

	oauth2Token, err := p.config.Exchange(ctx, c.Query("code"), opts...)
	if err != nil {
		log.Warn("oidc code exchange failed", "error", err)
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
		return
	}

	rawIDToken, ok := oauth2Token.Extra("id_token").(string)
	if !ok {
		log.Error("oidc token response has no id_token")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	idToken, err := p.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		log.Warn("oidc id token verification failed", "error", err)
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
		return
	}

	var claims struct {
		Email             string   `json:"email"`
		Name              string   `json:"name"`
		PreferredUsername string   `json:"preferred_username"`
		Groups            []string `json:"groups"`
	}
	if err := idToken.Claims(&claims); err != nil {
		log.Error("failed to decode oidc claims", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	name := claims.Name
	if name == "" {
		name = claims.PreferredUsername
	}
	isAdmin := p.cfg.AdminGroup != "" && slices.Contains(claims.Groups, p.cfg.AdminGroup)

	user, err := p.accounts.LoginOIDC(ctx, claims.Email, name, isAdmin)
	if err != nil {
		switch {
		case errors.Is(err, engine.ErrAccountDisabled):
			c.JSON(http.StatusForbidden, gin.H{"message": engine.AccountDisabledMessage})
		case errors.Is(err, engine.ErrForbidden):
			c.JSON(http.StatusForbidden, gin.H{"message": "Forbidden"})
		case engine.IsValidationError(err):
			c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		default:
			log.Error("oidc login failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		}
		return
	}

	if err := p.auth.SignIn(c, user); err != nil {
		log.Error("failed to issue auth token", "user_id", user.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	c.Redirect(http.StatusFound, p.redirectTo)
}
