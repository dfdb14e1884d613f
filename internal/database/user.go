package database

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"
	"gorm.io/gorm"
)

// User represents an account. Users are never hard deleted; banning sets IsActive to false.
type User struct {
	ID                uint    `gorm:"primaryKey"`
	Name              string  `gorm:"uniqueIndex;not null"`
	Email             string  `gorm:"uniqueIndex;not null"`
	Password          string  `gorm:"not null"`
	IsAdmin           bool    `gorm:"not null"`
	IsActive          bool    `gorm:"not null;index"`
	EmailVerified     bool    `gorm:"not null"`
	VerificationToken *string `gorm:"index"`
	Avatar            string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// UserDB defines the interface for user-related database operations.
type UserDB interface {
	CreateUser(ctx context.Context, user *User) error
	GetUserByID(ctx context.Context, id uint) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetUserByVerificationToken(ctx context.Context, token string) (*User, error)
	UserExists(ctx context.Context, name, email string) (bool, error)
	MarkEmailVerified(ctx context.Context, id uint) error
	UpdateUserRole(ctx context.Context, id uint, isAdmin bool) error
	UpdateUserStatus(ctx context.Context, id uint, isActive bool) error
	UpdateUserAvatar(ctx context.Context, id uint, avatar string) error
	ListUsers(ctx context.Context, page Pagination) ([]User, int64, error)
}

func (c *Client) CreateUser(ctx context.Context, user *User) error {
	if err := c.db.WithContext(ctx).Create(user).Error; err != nil {
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			log.Error("failed to create user", "error", err)
		}
		return err
	}
	return nil
}

func (c *Client) GetUserByID(ctx context.Context, id uint) (*User, error) {
	var user User
	if err := c.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Error("failed to get user by ID", "error", err)
		}
		return nil, err
	}
	return &user, nil
}

func (c *Client) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	var user User
	if err := c.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Error("failed to get user by email", "error", err)
		}
		return nil, err
	}
	return &user, nil
}

func (c *Client) GetUserByVerificationToken(ctx context.Context, token string) (*User, error) {
	var user User
	if err := c.db.WithContext(ctx).Where("verification_token = ?", token).First(&user).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Error("failed to get user by verification token", "error", err)
		}
		return nil, err
	}
	return &user, nil
}

// UserExists reports whether the name or the email is already taken.
func (c *Client) UserExists(ctx context.Context, name, email string) (bool, error) {
	var count int64
	if err := c.db.WithContext(ctx).
		Model(&User{}).
		Where("name = ? OR email = ?", name, email).
		Count(&count).Error; err != nil {
		log.Error("failed to check existing user", "error", err)
		return false, err
	}
	return count > 0, nil
}

func (c *Client) MarkEmailVerified(ctx context.Context, id uint) error {
	return c.updateUser(ctx, id, map[string]any{
		"email_verified":     true,
		"verification_token": nil,
	})
}

func (c *Client) UpdateUserRole(ctx context.Context, id uint, isAdmin bool) error {
	return c.updateUser(ctx, id, map[string]any{"is_admin": isAdmin})
}

func (c *Client) UpdateUserStatus(ctx context.Context, id uint, isActive bool) error {
	return c.updateUser(ctx, id, map[string]any{"is_active": isActive})
}

func (c *Client) UpdateUserAvatar(ctx context.Context, id uint, avatar string) error {
	return c.updateUser(ctx, id, map[string]any{"avatar": avatar})
}

// updateUser applies the column updates and reports gorm.ErrRecordNotFound when no user matched.
func (c *Client) updateUser(ctx context.Context, id uint, updates map[string]any) error {
	result := c.db.WithContext(ctx).Model(&User{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		log.Error("failed to update user", "user_id", id, "error", result.Error)
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (c *Client) ListUsers(ctx context.Context, page Pagination) ([]User, int64, error) {
	page = page.Normalize()

	var total int64
	if err := c.db.WithContext(ctx).Model(&User{}).Count(&total).Error; err != nil {
		log.Error("failed to count users", "error", err)
		return nil, 0, err
	}

	var users []User
	if err := c.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(page.Limit).
		Offset(page.Offset()).
		Find(&users).Error; err != nil {
		log.Error("failed to list users", "error", err)
		return nil, 0, err
	}
	return users, total, nil
}
