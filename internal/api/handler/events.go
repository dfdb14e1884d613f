package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/eventsphere/eventsphere/internal/api/models"
	"github.com/eventsphere/eventsphere/internal/database"
	"github.com/eventsphere/eventsphere/internal/engine"
	"github.com/gin-gonic/gin"
)

// eventDateLayouts are the accepted formats of an event date, most specific first.
var eventDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseEventDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range eventDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

type createEventRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Location    string   `json:"location"`
	Date        string   `json:"date"`
	Capacity    int      `json:"capacity"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	ImageURL    string   `json:"image_url"`
}

type rsvpRequest struct {
	Status string `json:"status"`
}

type reportRequest struct {
	Reason string `json:"reason"`
}

// ListEvents returns the active events, optionally filtered by ?date=YYYY-MM-DD and ?location=.
func (h *Handler) ListEvents(c *gin.Context) {
	filter := database.EventFilter{Location: c.Query("location")}
	if dateStr := c.Query("date"); dateStr != "" {
		day, err := time.Parse(time.DateOnly, dateStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid date, expected YYYY-MM-DD"})
			return
		}
		filter.Date = &day
	}

	events, err := h.engine.ListEvents(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err, "failed to list events")
		return
	}
	c.JSON(http.StatusOK, models.ToEvents(events))
}

func (h *Handler) GetEvent(c *gin.Context) {
	eventID, ok := idParam(c, "id", "event")
	if !ok {
		return
	}

	viewer := viewerOf(c)
	details, err := h.engine.GetEvent(c.Request.Context(), eventID, viewer)
	if err != nil {
		respondError(c, err, "failed to get event")
		return
	}
	c.JSON(http.StatusOK, models.ToEventDetails(details, viewer != nil && viewer.IsAdmin))
}

func (h *Handler) CreateEvent(c *gin.Context) {
	var req createEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid event data"})
		return
	}
	date, ok := parseEventDate(req.Date)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid event date"})
		return
	}

	event, err := h.engine.CreateEvent(c.Request.Context(), viewerOf(c), engine.CreateEventInput{
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		Date:        date,
		Capacity:    req.Capacity,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		respondError(c, err, "failed to create event")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":       event.ID,
		"message":  "Event created successfully",
		"imageUrl": event.ImageURL,
	})
}

func (h *Handler) SubmitRSVP(c *gin.Context) {
	eventID, ok := idParam(c, "id", "event")
	if !ok {
		return
	}
	var req rsvpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Status is required"})
		return
	}

	result, err := h.engine.SubmitRSVP(c.Request.Context(), eventID, mustUser(c).ID, database.RSVPStatus(req.Status))
	if err != nil {
		respondError(c, err, "failed to update rsvp")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":           "RSVP updated successfully",
		"remainingCapacity": result.RemainingCapacity,
	})
}

func (h *Handler) GetRSVP(c *gin.Context) {
	eventID, ok := idParam(c, "id", "event")
	if !ok {
		return
	}

	status, err := h.engine.GetRSVPStatus(c.Request.Context(), eventID, mustUser(c).ID)
	if err != nil {
		respondError(c, err, "failed to get rsvp status")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": status})
}

func (h *Handler) ReportEvent(c *gin.Context) {
	eventID, ok := idParam(c, "id", "event")
	if !ok {
		return
	}
	var req reportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "A valid reason is required"})
		return
	}

	report, err := h.engine.ReportEvent(c.Request.Context(), eventID, mustUser(c).ID, req.Reason)
	if err != nil {
		respondError(c, err, "failed to report event")
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message":  "Event reported successfully",
		"reportId": report.ID,
	})
}
