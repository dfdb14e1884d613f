package engine

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/eventsphere/eventsphere/internal/database"
	"github.com/eventsphere/eventsphere/internal/gravatar"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const minPasswordLength = 8

var errNameOrEmailTaken = &ValidationError{Message: "name or email already exists"}

// Register creates a regular, active user account.
func (e *Engine) Register(ctx context.Context, name, email, password string) (*database.User, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" || email == "" || password == "" {
		return nil, validationErrorf("all fields are required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, validationErrorf("invalid email address")
	}
	if len(password) < minPasswordLength {
		return nil, validationErrorf("password must be at least %d characters", minPasswordLength)
	}
	if !e.settingEnabled(ctx, database.SettingUserRegistration) {
		return nil, ErrRegistrationDisabled
	}

	exists, err := e.db.UserExists(ctx, name, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if exists {
		return nil, errNameOrEmailTaken
	}

	user, err := e.createUser(ctx, name, email, password, false)
	if err != nil {
		return nil, err
	}
	log.Info("user registered", "user_id", user.ID)
	return user, nil
}

func (e *Engine) createUser(ctx context.Context, name, email, password string, isAdmin bool) (*database.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	// email delivery is not wired up, so accounts start out verified
	user := &database.User{
		Name:          name,
		Email:         email,
		Password:      string(hash),
		IsAdmin:       isAdmin,
		IsActive:      true,
		EmailVerified: true,
		Avatar:        gravatar.AvatarURL(email, e.cfg.Gravatar),
	}
	if err := e.db.CreateUser(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, errNameOrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// Login verifies the credentials. Banned users get ErrAccountDisabled.
func (e *Engine) Login(ctx context.Context, email, password string) (*database.User, error) {
	user, err := e.db.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Debug("login failed, unknown email")
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if !user.IsActive {
		log.Debug("login failed, account disabled", "user_id", user.ID)
		return nil, ErrAccountDisabled
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		log.Debug("login failed, wrong password", "user_id", user.ID)
		return nil, ErrInvalidCredentials
	}
	log.Info("user logged in", "user_id", user.ID)
	return user, nil
}

// LoginOIDC returns the local account for an OIDC identity, creating it on first login.
// When an admin group is configured the admin flag follows the group membership.
func (e *Engine) LoginOIDC(ctx context.Context, email, name string, inAdminGroup bool) (*database.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, validationErrorf("the identity provider did not return an email address")
	}

	user, err := e.db.GetUserByEmail(ctx, email)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		if !e.settingEnabled(ctx, database.SettingUserRegistration) {
			return nil, ErrRegistrationDisabled
		}
		name = strings.TrimSpace(name)
		if name == "" {
			name = email
		}
		user, err = e.createUser(ctx, name, email, uuid.NewString(), inAdminGroup)
		if errors.Is(err, errNameOrEmailTaken) {
			// display name collides with an existing account
			user, err = e.createUser(ctx, email, email, uuid.NewString(), inAdminGroup)
		}
		if err != nil {
			return nil, err
		}
		log.Info("created user from oidc login", "user_id", user.ID)
		return user, nil
	case err != nil:
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if !user.IsActive {
		return nil, ErrAccountDisabled
	}
	if e.oidcAdminGroupConfigured() && user.IsAdmin != inAdminGroup {
		if err := e.db.UpdateUserRole(ctx, user.ID, inAdminGroup); err != nil {
			return nil, fmt.Errorf("failed to sync admin role: %w", err)
		}
		user.IsAdmin = inAdminGroup
	}
	return user, nil
}

func (e *Engine) oidcAdminGroupConfigured() bool {
	return e.cfg.Auth != nil && e.cfg.Auth.OIDC != nil && e.cfg.Auth.OIDC.AdminGroup != ""
}

// VerifyEmail marks the account owning the token as verified.
func (e *Engine) VerifyEmail(ctx context.Context, token string) error {
	if token == "" {
		return ErrInvalidVerificationToken
	}
	user, err := e.db.GetUserByVerificationToken(ctx, token)
	if err != nil {
		return notFound(err, ErrInvalidVerificationToken)
	}
	if err := e.db.MarkEmailVerified(ctx, user.ID); err != nil {
		return fmt.Errorf("failed to verify email: %w", err)
	}
	return nil
}

// GetUser returns a user by id.
func (e *Engine) GetUser(ctx context.Context, id uint) (*database.User, error) {
	user, err := e.db.GetUserByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	return user, nil
}

// SetUserRole grants or revokes admin rights. actorID is the admin making the change,
// zero for system callers. Admins cannot revoke their own role.
func (e *Engine) SetUserRole(ctx context.Context, actorID, id uint, isAdmin bool) error {
	if actorID != 0 && actorID == id && !isAdmin {
		return ErrSelfDemotion
	}
	if err := e.db.UpdateUserRole(ctx, id, isAdmin); err != nil {
		return notFound(err, ErrUserNotFound)
	}
	return nil
}

// SetUserStatus bans (false) or reactivates (true) a user. Banned users are rejected by the
// auth middleware on their next request. actorID is the acting admin.
// Admins cannot deactivate themselves.
func (e *Engine) SetUserStatus(ctx context.Context, actorID, id uint, isActive bool) error {
	if actorID != 0 && actorID == id && !isActive {
		return ErrSelfDeactivation
	}
	if err := e.db.UpdateUserStatus(ctx, id, isActive); err != nil {
		return notFound(err, ErrUserNotFound)
	}
	return nil
}

// ensureAdmin creates the configured bootstrap admin when no account uses its email yet.
func (e *Engine) ensureAdmin(ctx context.Context) error {
	admin := e.cfg.Admin
	if admin == nil || admin.Email == "" {
		return nil
	}
	email := strings.ToLower(strings.TrimSpace(admin.Email))

	_, err := e.db.GetUserByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	name := admin.Name
	if name == "" {
		name = "admin"
	}
	user, err := e.createUser(ctx, name, email, admin.Password, true)
	if err != nil {
		return err
	}
	log.Info("created admin account", "user_id", user.ID, "email", email)
	return nil
}
