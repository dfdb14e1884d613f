package handler

import (
	"net/http"
	"strconv"

	"github.com/ccoveille/go-safecast"
	"github.com/eventsphere/eventsphere/internal/api/auth"
	"github.com/eventsphere/eventsphere/internal/config"
	"github.com/eventsphere/eventsphere/internal/database"
	"github.com/eventsphere/eventsphere/internal/engine"
	"github.com/gin-gonic/gin"
)

// Handler serves the public and user facing API.
type Handler struct {
	engine *engine.Engine
	auth   *auth.Authenticator
	config *config.Config
}

func New(eng *engine.Engine, authenticator *auth.Authenticator, cfg *config.Config) *Handler {
	return &Handler{
		engine: eng,
		auth:   authenticator,
		config: cfg,
	}
}

// Health reports that the server is up.
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func parseUintParam(param string) (uint, error) {
	var id uint64
	var err error
	if id, err = strconv.ParseUint(param, 10, 0); err != nil {
		return 0, err
	}
	return uint(id), nil
}

// idParam parses the named path parameter and writes a 400 response when it is not a valid id.
func idParam(c *gin.Context, name, label string) (uint, bool) {
	id, err := parseUintParam(c.Param(name))
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid " + label + " ID"})
		return 0, false
	}
	return id, true
}

// parsePagination reads the page and limit query parameters. Invalid values fall back to the defaults.
func parsePagination(c *gin.Context) database.Pagination {
	page := database.Pagination{Page: 1, Limit: database.DefaultPageSize}

	if pageStr := c.Query("page"); pageStr != "" {
		if p, err := parseUintParam(pageStr); err == nil && p > 0 {
			if v, err := safecast.Convert[int](p); err == nil {
				page.Page = v
			}
		}
	}
	if limitStr := c.Query("limit"); limitStr != "" {
		if l, err := parseUintParam(limitStr); err == nil && l > 0 {
			if v, err := safecast.Convert[int](l); err == nil {
				page.Limit = v
			}
		}
	}
	return page.Normalize()
}

func viewerOf(c *gin.Context) *engine.Viewer {
	user, ok := auth.CurrentUser(c)
	if !ok {
		return nil
	}
	return &engine.Viewer{UserID: user.ID, IsAdmin: user.IsAdmin}
}

func mustUser(c *gin.Context) *database.User {
	return c.MustGet(auth.ContextKeyUser).(*database.User)
}
