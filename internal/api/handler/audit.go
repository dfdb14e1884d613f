package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/eventsphere/eventsphere/internal/database"
	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
)

const (
	auditDetailsKey  = "audit_details"
	auditTargetIDKey = "audit_target_id"
)

// Audit action types.
const (
	ActionEventStatus    = "event_status_change"
	ActionEventUnhide    = "event_unhide"
	ActionEventDelete    = "event_delete"
	ActionUserRole       = "user_role_change"
	ActionUserStatus     = "user_status_change"
	ActionReportStatus   = "report_status_change"
	ActionReportModerate = "report_moderation"
	ActionAnnouncement   = "announcement_create"
	ActionSettings       = "settings_update"
	ActionJobRun         = "job_run"
	ActionJobToggle      = "job_toggle"
)

func setAuditDetails(c *gin.Context, details any) {
	c.Set(auditDetailsKey, details)
}

func setAuditTarget(c *gin.Context, id uint) {
	c.Set(auditTargetIDKey, strconv.FormatUint(uint64(id), 10))
}

// Audit records the admin action once the wrapped handler has answered successfully.
// The target id defaults to the :id path parameter.
func (h *AdminHandler) Audit(action, targetType string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Status() >= http.StatusBadRequest {
			return
		}
		actor := adminID(c)
		if actor == 0 {
			return
		}

		targetID := c.Param("id")
		if v, ok := c.Get(auditTargetIDKey); ok {
			targetID, _ = v.(string)
		}

		entry := &database.AuditLog{
			UserID:     actor,
			ActionType: action,
			TargetType: targetType,
			TargetID:   targetID,
		}
		if details, ok := c.Get(auditDetailsKey); ok {
			raw, err := json.Marshal(details)
			if err != nil {
				log.Warn("failed to encode audit details", "action", action, "error", err)
			} else {
				entry.Details = datatypes.JSON(raw)
			}
		}

		// the response is already written, a cancelled request must not drop the entry
		ctx := context.WithoutCancel(c.Request.Context())
		if err := h.db.CreateAuditLog(ctx, entry); err != nil {
			log.Error("failed to write audit log", "action", action, "target", targetID, "error", err)
		}
	}
}
