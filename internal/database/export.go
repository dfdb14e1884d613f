package database

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/samber/lo"
)

// ExportType selects the table exported as CSV.
type ExportType string

const (
	ExportUsers  ExportType = "users"
	ExportEvents ExportType = "events"
	ExportRSVPs  ExportType = "rsvps"
	ExportLogs   ExportType = "logs"
)

// ErrUnknownExport is returned for unsupported export types.
var ErrUnknownExport = errors.New("unknown export type")

// ExportDB defines the interface for the tabular admin exports.
type ExportDB interface {
	Export(ctx context.Context, kind ExportType) ([]string, [][]string, error)
}

// Export returns a header row and the data rows of the requested table.
// Credential columns are never part of an export.
func (c *Client) Export(ctx context.Context, kind ExportType) ([]string, [][]string, error) {
	switch kind {
	case ExportUsers:
		var users []User
		if err := c.db.WithContext(ctx).Order("id ASC").Find(&users).Error; err != nil {
			log.Error("failed to export users", "error", err)
			return nil, nil, err
		}
		header := []string{"id", "name", "email", "is_admin", "is_active", "email_verified", "created_at"}
		return header, lo.Map(users, func(u User, _ int) []string {
			return []string{
				formatID(u.ID), u.Name, u.Email,
				strconv.FormatBool(u.IsAdmin), strconv.FormatBool(u.IsActive), strconv.FormatBool(u.EmailVerified),
				formatTime(u.CreatedAt),
			}
		}), nil

	case ExportEvents:
		var events []Event
		if err := c.db.WithContext(ctx).Order("id ASC").Find(&events).Error; err != nil {
			log.Error("failed to export events", "error", err)
			return nil, nil, err
		}
		header := []string{"id", "title", "location", "date", "capacity", "status", "created_by", "created_at"}
		return header, lo.Map(events, func(e Event, _ int) []string {
			createdBy := ""
			if e.CreatedBy != nil {
				createdBy = formatID(*e.CreatedBy)
			}
			return []string{
				formatID(e.ID), e.Title, e.Location, formatTime(e.Date),
				strconv.Itoa(e.Capacity), string(e.Status), createdBy, formatTime(e.CreatedAt),
			}
		}), nil

	case ExportRSVPs:
		var rsvps []RSVP
		if err := c.db.WithContext(ctx).Order("id ASC").Find(&rsvps).Error; err != nil {
			log.Error("failed to export rsvps", "error", err)
			return nil, nil, err
		}
		header := []string{"id", "user_id", "event_id", "status", "created_at", "updated_at"}
		return header, lo.Map(rsvps, func(r RSVP, _ int) []string {
			return []string{
				formatID(r.ID), formatID(r.UserID), formatID(r.EventID),
				string(r.Status), formatTime(r.CreatedAt), formatTime(r.UpdatedAt),
			}
		}), nil

	case ExportLogs:
		var entries []AuditLog
		if err := c.db.WithContext(ctx).Order("id ASC").Find(&entries).Error; err != nil {
			log.Error("failed to export audit logs", "error", err)
			return nil, nil, err
		}
		header := []string{"id", "user_id", "action_type", "target_type", "target_id", "details", "created_at"}
		return header, lo.Map(entries, func(a AuditLog, _ int) []string {
			return []string{
				formatID(a.ID), formatID(a.UserID), a.ActionType, a.TargetType, a.TargetID,
				string(a.Details), formatTime(a.CreatedAt),
			}
		}), nil
	}

	return nil, nil, fmt.Errorf("%w: %q", ErrUnknownExport, kind)
}

func formatID(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
