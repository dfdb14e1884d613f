package handler

import (
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/eventsphere/eventsphere/internal/api/auth"
	"github.com/eventsphere/eventsphere/internal/api/models"
	"github.com/eventsphere/eventsphere/internal/cache"
	"github.com/eventsphere/eventsphere/internal/config"
	"github.com/eventsphere/eventsphere/internal/database"
	"github.com/eventsphere/eventsphere/internal/engine"
	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
)

// ClientCounter reports the number of connected realtime clients.
type ClientCounter interface {
	Count() int
}

// AdminHandler serves the /api/admin routes. Every route is behind RequireAdmin.
type AdminHandler struct {
	engine  *engine.Engine
	db      database.DB
	cache   *cache.AppCache
	clients ClientCounter
	config  *config.Config
}

func NewAdmin(eng *engine.Engine, db database.DB, appCache *cache.AppCache, clients ClientCounter, cfg *config.Config) *AdminHandler {
	return &AdminHandler{
		engine:  eng,
		db:      db,
		cache:   appCache,
		clients: clients,
		config:  cfg,
	}
}

type statusRequest struct {
	Status string `json:"status"`
}

type roleRequest struct {
	IsAdmin *bool `json:"is_admin"`
}

type activeRequest struct {
	IsActive *bool `json:"is_active"`
}

type moderationRequest struct {
	HideEvent     bool   `json:"action_hide_event"`
	BanCreator    bool   `json:"action_ban_creator"`
	ResolveStatus string `json:"action_resolve_status"`
}

type announcementRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type settingEntry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// ListEvents returns every event with its creator name and attending count, newest first.
func (h *AdminHandler) ListEvents(c *gin.Context) {
	page := parsePagination(c)
	events, total, err := h.db.ListEventSummaries(c.Request.Context(), page)
	if err != nil {
		respondError(c, err, "failed to list events")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"events":     models.ToAdminEvents(events),
		"pagination": models.NewPagination(page, total),
	})
}

func (h *AdminHandler) ListHiddenEvents(c *gin.Context) {
	events, err := h.db.ListHiddenEvents(c.Request.Context())
	if err != nil {
		respondError(c, err, "failed to list hidden events")
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": models.ToAdminEvents(events)})
}

func (h *AdminHandler) SetEventStatus(c *gin.Context) {
	eventID, ok := idParam(c, "id", "event")
	if !ok {
		return
	}
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid status"})
		return
	}

	if err := h.engine.SetEventStatus(c.Request.Context(), eventID, database.EventStatus(req.Status)); err != nil {
		respondError(c, err, "failed to update event status")
		return
	}
	setAuditDetails(c, gin.H{"status": req.Status})
	c.JSON(http.StatusOK, gin.H{"message": "Event status updated successfully"})
}

func (h *AdminHandler) UnhideEvent(c *gin.Context) {
	eventID, ok := idParam(c, "id", "event")
	if !ok {
		return
	}
	if err := h.engine.UnhideEvent(c.Request.Context(), eventID); err != nil {
		respondError(c, err, "failed to unhide event")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Event unhidden (activated) successfully"})
}

func (h *AdminHandler) DeleteEvent(c *gin.Context) {
	eventID, ok := idParam(c, "id", "event")
	if !ok {
		return
	}
	if err := h.engine.DeleteEvent(c.Request.Context(), eventID); err != nil {
		respondError(c, err, "failed to delete event")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Event deleted successfully"})
}

func (h *AdminHandler) ListAttendees(c *gin.Context) {
	eventID, ok := idParam(c, "id", "event")
	if !ok {
		return
	}
	attendees, err := h.engine.ListAttendees(c.Request.Context(), eventID)
	if err != nil {
		respondError(c, err, "failed to list attendees")
		return
	}
	c.JSON(http.StatusOK, models.ToAttendees(attendees, true))
}

func (h *AdminHandler) ListUsers(c *gin.Context) {
	page := parsePagination(c)
	users, total, err := h.db.ListUsers(c.Request.Context(), page)
	if err != nil {
		respondError(c, err, "failed to list users")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"users":      models.ToUsers(users),
		"pagination": models.NewPagination(page, total),
	})
}

func (h *AdminHandler) SetUserRole(c *gin.Context) {
	userID, ok := idParam(c, "id", "user")
	if !ok {
		return
	}
	var req roleRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.IsAdmin == nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "is_admin is required"})
		return
	}

	if err := h.engine.SetUserRole(c.Request.Context(), mustUser(c).ID, userID, *req.IsAdmin); err != nil {
		respondError(c, err, "failed to update user role")
		return
	}
	setAuditDetails(c, gin.H{"is_admin": *req.IsAdmin})
	c.JSON(http.StatusOK, gin.H{"message": "User role updated successfully"})
}

func (h *AdminHandler) SetUserStatus(c *gin.Context) {
	userID, ok := idParam(c, "id", "user")
	if !ok {
		return
	}
	var req activeRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.IsActive == nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "is_active is required"})
		return
	}

	if err := h.engine.SetUserStatus(c.Request.Context(), mustUser(c).ID, userID, *req.IsActive); err != nil {
		respondError(c, err, "failed to update user status")
		return
	}
	setAuditDetails(c, gin.H{"is_active": *req.IsActive})
	c.JSON(http.StatusOK, gin.H{"message": "User status updated successfully"})
}

// ListReports returns reports newest first, optionally filtered by ?status=pending,resolved.
func (h *AdminHandler) ListReports(c *gin.Context) {
	var statuses []database.ReportStatus
	if raw := c.Query("status"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			status := database.ReportStatus(strings.TrimSpace(s))
			if !status.Valid() {
				c.JSON(http.StatusBadRequest, gin.H{"message": fmt.Sprintf("Invalid status %q", s)})
				return
			}
			statuses = append(statuses, status)
		}
	}
	h.listReports(c, statuses)
}

func (h *AdminHandler) ListResolvedReports(c *gin.Context) {
	h.listReports(c, []database.ReportStatus{database.ReportStatusResolved, database.ReportStatusDismissed})
}

func (h *AdminHandler) listReports(c *gin.Context, statuses []database.ReportStatus) {
	page := parsePagination(c)
	reports, total, err := h.db.ListReports(c.Request.Context(), statuses, page)
	if err != nil {
		respondError(c, err, "failed to list reports")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"reports":    models.ToReports(reports),
		"pagination": models.NewPagination(page, total),
	})
}

func (h *AdminHandler) SetReportStatus(c *gin.Context) {
	reportID, ok := idParam(c, "id", "report")
	if !ok {
		return
	}
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid status"})
		return
	}

	if err := h.engine.SetReportStatus(c.Request.Context(), reportID, database.ReportStatus(req.Status)); err != nil {
		respondError(c, err, "failed to update report status")
		return
	}
	setAuditDetails(c, gin.H{"status": req.Status})
	c.JSON(http.StatusOK, gin.H{"message": "Report status updated successfully"})
}

func (h *AdminHandler) GetReportDetails(c *gin.Context) {
	reportID, ok := idParam(c, "id", "report")
	if !ok {
		return
	}
	details, err := h.engine.GetReportDetails(c.Request.Context(), reportID)
	if err != nil {
		respondError(c, err, "failed to get report details")
		return
	}
	c.JSON(http.StatusOK, models.ToReportDetails(details))
}

// ModerateReport applies the hide, ban and resolve decisions of an admin in one step.
func (h *AdminHandler) ModerateReport(c *gin.Context) {
	reportID, ok := idParam(c, "id", "report")
	if !ok {
		return
	}
	var req moderationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid moderation action"})
		return
	}

	err := h.engine.ModerateReport(c.Request.Context(), reportID, engine.ModerationAction{
		ActorID:       mustUser(c).ID,
		HideEvent:     req.HideEvent,
		BanCreator:    req.BanCreator,
		ResolveStatus: database.ReportStatus(req.ResolveStatus),
	})
	if err != nil {
		respondError(c, err, "failed to moderate report")
		return
	}
	setAuditDetails(c, req)
	c.JSON(http.StatusOK, gin.H{"message": "Admin action completed successfully"})
}

func (h *AdminHandler) CreateAnnouncement(c *gin.Context) {
	var req announcementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Title and content are required"})
		return
	}

	announcement, err := h.engine.CreateAnnouncement(c.Request.Context(), mustUser(c).ID, req.Title, req.Content)
	if err != nil {
		respondError(c, err, "failed to create announcement")
		return
	}
	setAuditTarget(c, announcement.ID)
	setAuditDetails(c, gin.H{"title": announcement.Title})
	c.JSON(http.StatusCreated, gin.H{
		"id":      announcement.ID,
		"message": "Announcement created successfully",
	})
}

// GetSettings returns all settings as key/value rows sorted by key.
func (h *AdminHandler) GetSettings(c *gin.Context) {
	settings, err := h.engine.Settings(c.Request.Context())
	if err != nil {
		respondError(c, err, "failed to get settings")
		return
	}
	keys := lo.Keys(settings)
	slices.Sort(keys)
	c.JSON(http.StatusOK, lo.Map(keys, func(k string, _ int) settingEntry {
		return settingEntry{Key: k, Value: settings[k]}
	}))
}

// UpdateSettings accepts a JSON object of key/value pairs. Non string values are stored in
// their JSON text form.
func (h *AdminHandler) UpdateSettings(c *gin.Context) {
	var req map[string]any
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid settings"})
		return
	}
	updates := lo.MapValues(req, func(v any, _ string) string {
		if s, ok := v.(string); ok {
			return s
		}
		return fmt.Sprint(v)
	})

	if err := h.engine.UpdateSettings(c.Request.Context(), updates); err != nil {
		respondError(c, err, "failed to update settings")
		return
	}
	setAuditDetails(c, updates)
	c.JSON(http.StatusOK, gin.H{"message": "Settings updated successfully"})
}

func (h *AdminHandler) ListAuditLogs(c *gin.Context) {
	page := parsePagination(c)
	entries, total, err := h.db.ListAuditLogs(c.Request.Context(), page)
	if err != nil {
		respondError(c, err, "failed to list audit logs")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"logs":       models.ToAuditLogs(entries, time.Now()),
		"pagination": models.NewPagination(page, total),
	})
}

// GetSchedulerJobs returns all scheduler jobs as JSON.
func (h *AdminHandler) GetSchedulerJobs(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"jobs": h.engine.GetScheduler().GetJobs()})
}

// RunSchedulerJob manually triggers a scheduler job.
func (h *AdminHandler) RunSchedulerJob(c *gin.Context) {
	if err := h.engine.GetScheduler().RunJobNow(c.Param("id")); err != nil {
		respondError(c, err, "failed to run job")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Job triggered successfully"})
}

func (h *AdminHandler) EnableSchedulerJob(c *gin.Context) {
	h.setJobEnabled(c, true)
}

func (h *AdminHandler) DisableSchedulerJob(c *gin.Context) {
	h.setJobEnabled(c, false)
}

func (h *AdminHandler) setJobEnabled(c *gin.Context, enabled bool) {
	if err := h.engine.GetScheduler().SetJobEnabled(c.Param("id"), enabled); err != nil {
		respondError(c, err, "failed to update job")
		return
	}
	state := "disabled"
	if enabled {
		state = "enabled"
	}
	c.JSON(http.StatusOK, gin.H{"message": "Job " + state + " successfully"})
}

// GetCacheStats returns the hit and miss counters of the application caches.
func (h *AdminHandler) GetCacheStats(c *gin.Context) {
	if h.cache == nil {
		c.JSON(http.StatusOK, gin.H{"stats": []any{}})
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": h.cache.GetStats()})
}

// adminID returns the id of the admin performing the request.
func adminID(c *gin.Context) uint {
	user, _ := auth.CurrentUser(c)
	if user == nil {
		return 0
	}
	return user.ID
}
