package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// DashboardMetrics are the headline counters of the admin dashboard.
type DashboardMetrics struct {
	TotalEvents    int64 `json:"total_events"`
	UpcomingEvents int64 `json:"upcoming_events"`
	TotalUsers     int64 `json:"total_users"`
	TotalAttendees int64 `json:"total_attendees"`
	PendingReports int64 `json:"pending_reports"`
}

// TimeSeriesType selects the entity counted per month.
type TimeSeriesType string

const (
	TimeSeriesUsers   TimeSeriesType = "users"
	TimeSeriesEvents  TimeSeriesType = "events"
	TimeSeriesReports TimeSeriesType = "reports"
)

// TimeSeriesPoint is the count for one calendar month (YYYY-MM).
// Pending and Resolved are only filled for reports.
type TimeSeriesPoint struct {
	Month    string `json:"month"`
	Count    int64  `json:"count"`
	Pending  *int64 `json:"pending,omitempty"`
	Resolved *int64 `json:"resolved,omitempty"`
}

// BreakdownType selects the grouping of a breakdown.
type BreakdownType string

const (
	BreakdownUserRoles     BreakdownType = "userRoles"
	BreakdownEventStatuses BreakdownType = "eventStatuses"
)

// BreakdownEntry is one slice of a breakdown chart.
type BreakdownEntry struct {
	Label string `json:"label"`
	Count int64  `json:"count"`
}

// ErrUnknownMetric is returned for unsupported time series or breakdown types.
var ErrUnknownMetric = errors.New("unknown metric type")

// MetricsDB defines the interface for the admin dashboard aggregations.
type MetricsDB interface {
	GetDashboardMetrics(ctx context.Context, now time.Time) (*DashboardMetrics, error)
	GetTimeSeries(ctx context.Context, kind TimeSeriesType) ([]TimeSeriesPoint, error)
	GetBreakdown(ctx context.Context, kind BreakdownType) ([]BreakdownEntry, error)
}

// GetDashboardMetrics gathers all dashboard counters concurrently.
func (c *Client) GetDashboardMetrics(ctx context.Context, now time.Time) (*DashboardMetrics, error) {
	var m DashboardMetrics
	g, gctx := errgroup.WithContext(ctx)

	count := func(dst *int64, model any, scope func(*gorm.DB) *gorm.DB) {
		g.Go(func() error {
			query := c.db.WithContext(gctx).Model(model)
			if scope != nil {
				query = scope(query)
			}
			return query.Count(dst).Error
		})
	}

	count(&m.TotalEvents, &Event{}, nil)
	count(&m.UpcomingEvents, &Event{}, func(db *gorm.DB) *gorm.DB {
		return db.Where("date > ?", now.UTC())
	})
	count(&m.TotalUsers, &User{}, nil)
	count(&m.TotalAttendees, &RSVP{}, func(db *gorm.DB) *gorm.DB {
		return db.Where("status = ?", RSVPStatusAttending)
	})
	count(&m.PendingReports, &Report{}, func(db *gorm.DB) *gorm.DB {
		return db.Where("status = ?", ReportStatusPending)
	})

	if err := g.Wait(); err != nil {
		log.Error("failed to get dashboard metrics", "error", err)
		return nil, err
	}
	return &m, nil
}

func (c *Client) GetTimeSeries(ctx context.Context, kind TimeSeriesType) ([]TimeSeriesPoint, error) {
	var (
		query string
		table string
	)
	switch kind {
	case TimeSeriesUsers:
		table = "users"
	case TimeSeriesEvents:
		table = "events"
	case TimeSeriesReports:
		query = `
			SELECT strftime('%Y-%m', created_at) AS month,
				COUNT(*) AS count,
				SUM(CASE WHEN status = 'pending' THEN 1 ELSE 0 END) AS pending,
				SUM(CASE WHEN status <> 'pending' THEN 1 ELSE 0 END) AS resolved
			FROM reports
			GROUP BY month
			ORDER BY month ASC`
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMetric, kind)
	}
	if query == "" {
		query = fmt.Sprintf(`
			SELECT strftime('%%Y-%%m', created_at) AS month, COUNT(*) AS count
			FROM %s
			GROUP BY month
			ORDER BY month ASC`, table)
	}

	var points []TimeSeriesPoint
	if err := c.db.WithContext(ctx).Raw(query).Scan(&points).Error; err != nil {
		log.Error("failed to get time series", "type", kind, "error", err)
		return nil, err
	}
	return points, nil
}

func (c *Client) GetBreakdown(ctx context.Context, kind BreakdownType) ([]BreakdownEntry, error) {
	var query string
	switch kind {
	case BreakdownUserRoles:
		query = `
			SELECT CASE WHEN is_admin THEN 'admin' ELSE 'user' END AS label, COUNT(*) AS count
			FROM users
			GROUP BY label
			ORDER BY label ASC`
	case BreakdownEventStatuses:
		query = `
			SELECT status AS label, COUNT(*) AS count
			FROM events
			GROUP BY status
			ORDER BY status ASC`
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMetric, kind)
	}

	var entries []BreakdownEntry
	if err := c.db.WithContext(ctx).Raw(query).Scan(&entries).Error; err != nil {
		log.Error("failed to get breakdown", "type", kind, "error", err)
		return nil, err
	}
	return entries, nil
}
