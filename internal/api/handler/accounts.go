package handler

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/eventsphere/eventsphere/internal/api/models"
	"github.com/gin-gonic/gin"
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "All fields are required"})
		return
	}

	user, err := h.engine.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		respondError(c, err, "failed to register user")
		return
	}

	log.Info("user registered", "user_id", user.ID)
	c.JSON(http.StatusCreated, gin.H{"message": "User registered successfully"})
}

func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Email and password are required"})
		return
	}

	user, err := h.engine.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		log.Debug("login failed", "error", err)
		respondError(c, err, "failed to log in")
		return
	}

	if err := h.auth.SignIn(c, user); err != nil {
		respondError(c, err, "failed to issue auth token")
		return
	}

	c.JSON(http.StatusOK, models.ToAuthUser(user))
}

func (h *Handler) Logout(c *gin.Context) {
	h.auth.SignOut(c)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

// Check returns the authenticated caller.
func (h *Handler) Check(c *gin.Context) {
	c.JSON(http.StatusOK, models.ToAuthUser(mustUser(c)))
}

func (h *Handler) VerifyEmail(c *gin.Context) {
	if err := h.engine.VerifyEmail(c.Request.Context(), c.Param("token")); err != nil {
		respondError(c, err, "failed to verify email")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Email verified successfully"})
}

// AuthProviders lists the available login methods for the frontend.
func (h *Handler) AuthProviders(c *gin.Context) {
	providers := gin.H{"password": true}
	if h.config.Auth != nil && h.config.Auth.OIDC != nil && h.config.Auth.OIDC.Enabled {
		providers["oidc"] = gin.H{
			"name":     h.config.Auth.OIDC.Name,
			"loginUrl": "/api/auth/oidc/login",
		}
	}
	c.JSON(http.StatusOK, providers)
}
