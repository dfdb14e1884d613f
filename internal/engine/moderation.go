package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/log"
	"github.com/eventsphere/eventsphere/internal/database"
	"gorm.io/gorm"
)

const minReportReasonLength = 3

// ReportEvent files a pending report against an existing event.
func (e *Engine) ReportEvent(ctx context.Context, eventID, userID uint, reason string) (*database.Report, error) {
	reason = strings.TrimSpace(reason)
	if utf8.RuneCountInString(reason) < minReportReasonLength {
		return nil, validationErrorf("a valid reason is required")
	}

	event, err := e.db.GetEventByID(ctx, eventID)
	if err != nil {
		return nil, notFound(err, ErrEventNotFound)
	}

	report := &database.Report{
		EventID:    eventID,
		ReportedBy: userID,
		Reason:     reason,
		Status:     database.ReportStatusPending,
	}
	if err := e.db.CreateReport(ctx, report); err != nil {
		return nil, fmt.Errorf("failed to create report: %w", err)
	}
	log.Info("event reported", "report_id", report.ID, "event_id", eventID, "user_id", userID)

	if e.ntfy != nil {
		reporter := fmt.Sprintf("user #%d", userID)
		if user, err := e.db.GetUserByID(ctx, userID); err == nil {
			reporter = user.Name
		}
		if err := e.ntfy.SendReportAlert(ctx, event.Title, reporter, reason, e.adminURL("/admin/reports")); err != nil {
			log.Error("failed to send report alert", "report_id", report.ID, "error", err)
		}
	}

	return report, nil
}

// ModerationAction is an admin decision on a report.
type ModerationAction struct {
	// ActorID is the admin applying the action. Admins cannot ban themselves.
	ActorID    uint
	HideEvent  bool
	BanCreator bool
	// ResolveStatus is applied when it is "resolved" or "dismissed" and ignored otherwise.
	ResolveStatus database.ReportStatus
}

// ModerateReport applies the action to the reported event, its creator and the report itself.
// All writes happen in one transaction.
func (e *Engine) ModerateReport(ctx context.Context, reportID uint, action ModerationAction) error {
	report, err := e.db.GetReportByID(ctx, reportID)
	if err != nil {
		return notFound(err, ErrReportNotFound)
	}
	event, err := e.db.GetEventByID(ctx, report.EventID)
	if err != nil {
		return notFound(err, ErrEventNotFound)
	}

	m := database.Moderation{
		ReportID:  report.ID,
		EventID:   event.ID,
		HideEvent: action.HideEvent,
	}
	if action.BanCreator && event.CreatedBy != nil {
		if action.ActorID != 0 && *event.CreatedBy == action.ActorID {
			return ErrSelfDeactivation
		}
		m.BanUserID = event.CreatedBy
	}
	switch action.ResolveStatus {
	case database.ReportStatusResolved, database.ReportStatusDismissed:
		status := action.ResolveStatus
		m.ResolveStatus = &status
		m.Notify = reporterNotification(report, event, status)
	}

	if err := e.db.ApplyModeration(ctx, m); err != nil {
		return fmt.Errorf("failed to moderate report %d: %w", reportID, err)
	}

	log.Info("report moderated",
		"report_id", reportID,
		"event_id", event.ID,
		"hide_event", m.HideEvent,
		"banned_user", m.BanUserID != nil,
		"status", action.ResolveStatus,
	)
	return nil
}

func reporterNotification(report *database.Report, event *database.Event, status database.ReportStatus) *database.Notification {
	n := &database.Notification{UserID: report.ReportedBy}
	if status == database.ReportStatusResolved {
		n.Type = database.NotificationTypeReportResolved
		n.Message = fmt.Sprintf("Your report about %q has been reviewed and resolved.", event.Title)
	} else {
		n.Type = database.NotificationTypeReportDismissed
		n.Message = fmt.Sprintf("Your report about %q has been reviewed and dismissed.", event.Title)
	}
	return n
}

// ReportDetails joins a report with its event and the event's creator.
// Event and Creator are nil when they no longer exist.
type ReportDetails struct {
	Report  *database.Report
	Event   *database.Event
	Creator *database.User
}

// GetReportDetails returns the report with its event and creator. Only a missing report is an error.
func (e *Engine) GetReportDetails(ctx context.Context, reportID uint) (*ReportDetails, error) {
	report, err := e.db.GetReportByID(ctx, reportID)
	if err != nil {
		return nil, notFound(err, ErrReportNotFound)
	}

	details := &ReportDetails{Report: report}

	event, err := e.db.GetEventByID(ctx, report.EventID)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return details, nil
	case err != nil:
		return nil, fmt.Errorf("failed to load reported event: %w", err)
	}
	details.Event = event
	// the creator is preloaded with the event and is nil when the account is gone
	details.Creator = event.Creator
	return details, nil
}

// SetReportStatus changes the status of a report without any other moderation step.
func (e *Engine) SetReportStatus(ctx context.Context, reportID uint, status database.ReportStatus) error {
	if !status.Valid() {
		return validationErrorf("invalid status %q", status)
	}
	if err := e.db.UpdateReportStatus(ctx, reportID, status); err != nil {
		return notFound(err, ErrReportNotFound)
	}
	return nil
}

func (e *Engine) adminURL(path string) string {
	if e.cfg.ServerURL == "" {
		return ""
	}
	return strings.TrimRight(e.cfg.ServerURL, "/") + path
}
