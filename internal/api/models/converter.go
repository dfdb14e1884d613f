package models

import (
	"encoding/json"
	"time"

	"github.com/eventsphere/eventsphere/internal/database"
	"github.com/eventsphere/eventsphere/internal/engine"
	"github.com/mergestat/timediff"
	"github.com/samber/lo"
)

// ToAuthUser converts a database.User to the caller identity.
func ToAuthUser(u *database.User) AuthUser {
	return AuthUser{
		ID:      u.ID,
		Name:    u.Name,
		Email:   u.Email,
		IsAdmin: u.IsAdmin,
		Avatar:  u.Avatar,
	}
}

// ToUser converts a database.User for the admin user listing.
func ToUser(u database.User) User {
	return User{
		ID:            u.ID,
		Name:          u.Name,
		Email:         u.Email,
		IsAdmin:       u.IsAdmin,
		IsActive:      u.IsActive,
		EmailVerified: u.EmailVerified,
		Avatar:        u.Avatar,
		CreatedAt:     u.CreatedAt,
	}
}

// ToUsers converts a slice of database.User.
func ToUsers(users []database.User) []User {
	return lo.Map(users, func(u database.User, _ int) User {
		return ToUser(u)
	})
}

// ToEvent converts a database.Event. The creator name is filled when the creator was preloaded.
func ToEvent(e *database.Event) Event {
	event := Event{
		ID:          e.ID,
		Title:       e.Title,
		Description: e.Description,
		Location:    e.Location,
		Date:        e.Date,
		Capacity:    e.Capacity,
		Latitude:    e.Latitude,
		Longitude:   e.Longitude,
		ImageURL:    e.ImageURL,
		Status:      string(e.Status),
		CreatedBy:   e.CreatedBy,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
	if e.Creator != nil {
		event.CreatorName = &e.Creator.Name
	}
	return event
}

// ToEvents converts a slice of database.Event.
func ToEvents(events []database.Event) []Event {
	return lo.Map(events, func(e database.Event, _ int) Event {
		return ToEvent(&e)
	})
}

// ToEventDetails converts an engine.EventDetails. Attendee emails are only included for admins.
func ToEventDetails(d *engine.EventDetails, includeEmail bool) EventDetails {
	return EventDetails{
		Event:         ToEvent(d.Event),
		Attendees:     ToAttendees(d.Attendees, includeEmail),
		AttendeeCount: d.AttendeeCount,
		AdminHidden:   d.AdminHidden,
	}
}

// ToAdminEvents converts the admin event summaries.
func ToAdminEvents(events []database.EventSummary) []AdminEvent {
	return lo.Map(events, func(e database.EventSummary, _ int) AdminEvent {
		event := ToEvent(&e.Event)
		event.CreatorName = e.CreatorName
		return AdminEvent{
			Event:         event,
			AttendeeCount: e.AttendeeCount,
		}
	})
}

// ToAttendees converts RSVPs with a preloaded user.
func ToAttendees(rsvps []database.RSVP, includeEmail bool) []Attendee {
	return lo.Map(rsvps, func(r database.RSVP, _ int) Attendee {
		a := Attendee{
			ID:        r.UserID,
			Status:    string(r.Status),
			CreatedAt: r.CreatedAt,
		}
		if r.User != nil {
			a.Name = r.User.Name
			if includeEmail {
				a.Email = r.User.Email
			}
		}
		return a
	})
}

// ToReport converts a database.Report.
func ToReport(r *database.Report) Report {
	report := Report{
		ID:         r.ID,
		EventID:    r.EventID,
		ReportedBy: r.ReportedBy,
		Reason:     r.Reason,
		Status:     string(r.Status),
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
	if r.Reporter != nil {
		report.ReporterName = &r.Reporter.Name
	}
	return report
}

// ToReports converts report summaries of the admin listing.
func ToReports(reports []database.ReportSummary) []Report {
	return lo.Map(reports, func(r database.ReportSummary, _ int) Report {
		report := ToReport(&r.Report)
		report.EventTitle = r.EventTitle
		report.ReporterName = r.ReporterName
		return report
	})
}

// ToReportDetails converts an engine.ReportDetails.
func ToReportDetails(d *engine.ReportDetails) ReportDetails {
	details := ReportDetails{Report: ToReport(d.Report)}
	if d.Event != nil {
		event := ToEvent(d.Event)
		details.Event = &event
		details.Report.EventTitle = &d.Event.Title
	}
	if d.Creator != nil {
		details.Creator = &ReportCreator{
			ID:       d.Creator.ID,
			Name:     d.Creator.Name,
			Email:    d.Creator.Email,
			IsAdmin:  d.Creator.IsAdmin,
			IsActive: d.Creator.IsActive,
		}
	}
	return details
}

// ToAnnouncements converts announcements with a preloaded author.
func ToAnnouncements(announcements []database.Announcement) []Announcement {
	return lo.Map(announcements, func(a database.Announcement, _ int) Announcement {
		return ToAnnouncement(&a)
	})
}

// ToAnnouncement converts a database.Announcement.
func ToAnnouncement(a *database.Announcement) Announcement {
	announcement := Announcement{
		ID:        a.ID,
		Title:     a.Title,
		Content:   a.Content,
		CreatedBy: a.CreatedBy,
		CreatedAt: a.CreatedAt,
	}
	if a.Author != nil {
		announcement.AuthorName = a.Author.Name
	}
	return announcement
}

// ToNotifications converts inbox rows.
func ToNotifications(notifications []database.Notification) []Notification {
	return lo.Map(notifications, func(n database.Notification, _ int) Notification {
		return Notification{
			ID:        n.ID,
			Type:      string(n.Type),
			Message:   n.Message,
			IsRead:    n.IsRead,
			CreatedAt: n.CreatedAt,
		}
	})
}

// ToAuditLogs converts audit log entries with a preloaded actor.
func ToAuditLogs(entries []database.AuditLog, now time.Time) []AuditLog {
	return lo.Map(entries, func(a database.AuditLog, _ int) AuditLog {
		entry := AuditLog{
			ID:         a.ID,
			UserID:     a.UserID,
			ActionType: a.ActionType,
			TargetType: a.TargetType,
			TargetID:   a.TargetID,
			CreatedAt:  a.CreatedAt,
			CreatedAgo: timediff.TimeDiff(a.CreatedAt, timediff.WithStartTime(now)),
		}
		if len(a.Details) > 0 {
			entry.Details = json.RawMessage(a.Details)
		}
		if a.User != nil {
			entry.UserName = a.User.Name
		}
		return entry
	})
}

// NewPagination builds the pagination block of a listing response.
func NewPagination(page database.Pagination, total int64) Pagination {
	page = page.Normalize()
	return Pagination{
		Total:      total,
		Page:       page.Page,
		Limit:      page.Limit,
		TotalPages: page.TotalPages(total),
	}
}
