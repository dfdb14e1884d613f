package models

import (
	"encoding/json"
	"time"
)

// AuthUser is the caller's identity as returned by login and the auth check.
type AuthUser struct {
	ID      uint   `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"isAdmin"`
	Avatar  string `json:"avatar,omitempty"`
}

// User is a user row in the admin listing. Credentials are never exposed.
type User struct {
	ID            uint      `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	IsAdmin       bool      `json:"is_admin"`
	IsActive      bool      `json:"is_active"`
	EmailVerified bool      `json:"email_verified"`
	Avatar        string    `json:"avatar,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// Event is the public representation of an event.
type Event struct {
	ID          uint      `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	Date        time.Time `json:"date"`
	Capacity    int       `json:"capacity"`
	Latitude    *float64  `json:"latitude"`
	Longitude   *float64  `json:"longitude"`
	ImageURL    string    `json:"image_url,omitempty"`
	Status      string    `json:"status"`
	CreatedBy   *uint     `json:"created_by"`
	CreatorName *string   `json:"creator_name,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// EventDetails is a single event with its attendee list.
type EventDetails struct {
	Event
	Attendees     []Attendee `json:"attendees"`
	AttendeeCount int        `json:"attendeeCount"`
	AdminHidden   bool       `json:"_admin_hidden,omitempty"`
}

// AdminEvent is an event row in the admin listings.
type AdminEvent struct {
	Event
	AttendeeCount int64 `json:"attendee_count"`
}

// Attendee is one RSVP of an event. Email is only filled for admins.
type Attendee struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// Report is a report row, optionally joined with the event title and reporter name.
type Report struct {
	ID           uint      `json:"id"`
	EventID      uint      `json:"event_id"`
	ReportedBy   uint      `json:"reported_by"`
	Reason       string    `json:"reason"`
	Status       string    `json:"status"`
	EventTitle   *string   `json:"event_title,omitempty"`
	ReporterName *string   `json:"reporter_name,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ReportCreator is the event creator shown in the report details.
type ReportCreator struct {
	ID       uint   `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	IsAdmin  bool   `json:"is_admin"`
	IsActive bool   `json:"is_active"`
}

// ReportDetails joins a report with its event and creator. Both may be null.
type ReportDetails struct {
	Report  Report         `json:"report"`
	Event   *Event         `json:"event"`
	Creator *ReportCreator `json:"creator"`
}

// Announcement is a published announcement.
type Announcement struct {
	ID         uint      `json:"id"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	CreatedBy  *uint     `json:"created_by"`
	AuthorName string    `json:"author_name,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Notification is an entry of the caller's inbox.
type Notification struct {
	ID        uint      `json:"id"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

// AuditLog is an audit log entry with the actor's name.
type AuditLog struct {
	ID         uint            `json:"id"`
	UserID     uint            `json:"user_id"`
	UserName   string          `json:"user_name,omitempty"`
	ActionType string          `json:"action_type"`
	TargetType string          `json:"target_type"`
	TargetID   string          `json:"target_id"`
	Details    json.RawMessage `json:"details,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	// CreatedAgo is a human readable age like "3 hours ago".
	CreatedAgo string `json:"created_ago"`
}

// Pagination describes the page returned by a listing.
type Pagination struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int64 `json:"totalPages"`
}

// SystemMetrics describes the storage used by the database.
type SystemMetrics struct {
	DatabasePath      string  `json:"database_path"`
	DatabaseSize      uint64  `json:"database_size"`
	DatabaseSizeHuman string  `json:"database_size_human"`
	DiskTotal         uint64  `json:"disk_total"`
	DiskFree          uint64  `json:"disk_free"`
	DiskFreeHuman     string  `json:"disk_free_human"`
	DiskUsedPercent   float64 `json:"disk_used_percent"`
	RealtimeClients   int     `json:"realtime_clients"`
}
