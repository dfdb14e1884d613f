package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/eventsphere/eventsphere/internal/database"
	"github.com/eventsphere/eventsphere/internal/engine"
	"github.com/eventsphere/eventsphere/internal/scheduler"
	"github.com/gin-gonic/gin"
)

// statusFor maps an error to the HTTP status and the message shown to the client.
// Unknown errors are internal and their details are not exposed.
func statusFor(err error) (int, string) {
	var validation *engine.ValidationError
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest, validation.Message
	case errors.Is(err, engine.ErrNotFound), errors.Is(err, scheduler.ErrJobNotFound):
		return http.StatusNotFound, capitalize(err.Error())
	case errors.Is(err, engine.ErrCapacityExceeded),
		errors.Is(err, engine.ErrInvalidVerificationToken),
		errors.Is(err, database.ErrUnknownMetric),
		errors.Is(err, database.ErrUnknownExport):
		return http.StatusBadRequest, capitalize(err.Error())
	case errors.Is(err, engine.ErrEventHidden):
		return http.StatusForbidden, capitalize(err.Error())
	case errors.Is(err, engine.ErrAccountDisabled):
		return http.StatusForbidden, engine.AccountDisabledMessage
	case errors.Is(err, engine.ErrForbidden):
		return http.StatusForbidden, forbiddenMessage(err)
	case errors.Is(err, engine.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid credentials"
	}
	return http.StatusInternalServerError, "Internal server error"
}

// respondError writes the {message} body for err. Internal errors are logged.
func respondError(c *gin.Context, err error, msg string) {
	status, message := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Error(msg, "path", c.FullPath(), "error", err)
	}
	c.JSON(status, gin.H{"message": message})
}

// forbiddenMessage strips the "forbidden: " prefix of the engine's forbidden errors.
func forbiddenMessage(err error) string {
	if msg, ok := strings.CutPrefix(err.Error(), engine.ErrForbidden.Error()+": "); ok && msg != "" {
		return capitalize(msg)
	}
	return "Forbidden"
}

func capitalize(s string) string {
	if s == "" || s[0] < 'a' || s[0] > 'z' {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}
