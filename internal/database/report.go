package database

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"
	"gorm.io/gorm"
)

// ReportStatus represents the moderation state of a report.
type ReportStatus string

const (
	ReportStatusPending   ReportStatus = "pending"
	ReportStatusResolved  ReportStatus = "resolved"
	ReportStatusDismissed ReportStatus = "dismissed"
)

// Valid reports whether s is a known report status.
func (s ReportStatus) Valid() bool {
	switch s {
	case ReportStatusPending, ReportStatusResolved, ReportStatusDismissed:
		return true
	}
	return false
}

// Report is a user's abuse report against an event.
// EventID deliberately carries no foreign key: reports survive the deletion of their event.
type Report struct {
	ID         uint         `gorm:"primaryKey"`
	EventID    uint         `gorm:"not null;index"`
	ReportedBy uint         `gorm:"not null;index"`
	Reporter   *User        `gorm:"foreignKey:ReportedBy"`
	Reason     string       `gorm:"not null"`
	Status     ReportStatus `gorm:"not null;index"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ReportSummary is a report row joined with the names shown in the admin listing.
type ReportSummary struct {
	Report
	EventTitle   *string
	ReporterName *string
}

// ReportDB defines the interface for report-related database operations.
type ReportDB interface {
	CreateReport(ctx context.Context, report *Report) error
	GetReportByID(ctx context.Context, id uint) (*Report, error)
	ListReports(ctx context.Context, statuses []ReportStatus, page Pagination) ([]ReportSummary, int64, error)
	UpdateReportStatus(ctx context.Context, id uint, status ReportStatus) error
}

func (c *Client) CreateReport(ctx context.Context, report *Report) error {
	if report.Status == "" {
		report.Status = ReportStatusPending
	}
	if err := c.db.WithContext(ctx).Create(report).Error; err != nil {
		log.Error("failed to create report", "error", err)
		return err
	}
	return nil
}

func (c *Client) GetReportByID(ctx context.Context, id uint) (*Report, error) {
	var report Report
	if err := c.db.WithContext(ctx).Preload("Reporter").First(&report, id).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Error("failed to get report by ID", "error", err)
		}
		return nil, err
	}
	return &report, nil
}

// ListReports returns reports newest first. An empty statuses slice lists every report.
func (c *Client) ListReports(ctx context.Context, statuses []ReportStatus, page Pagination) ([]ReportSummary, int64, error) {
	page = page.Normalize()

	count := c.db.WithContext(ctx).Model(&Report{})
	if len(statuses) > 0 {
		count = count.Where("status IN ?", statuses)
	}
	var total int64
	if err := count.Count(&total).Error; err != nil {
		log.Error("failed to count reports", "error", err)
		return nil, 0, err
	}

	query := c.db.WithContext(ctx).
		Table("reports").
		Select("reports.*, events.title AS event_title, users.name AS reporter_name").
		Joins("LEFT JOIN events ON events.id = reports.event_id").
		Joins("LEFT JOIN users ON users.id = reports.reported_by")
	if len(statuses) > 0 {
		query = query.Where("reports.status IN ?", statuses)
	}

	var reports []ReportSummary
	if err := query.
		Order("reports.created_at DESC").
		Limit(page.Limit).
		Offset(page.Offset()).
		Scan(&reports).Error; err != nil {
		log.Error("failed to list reports", "error", err)
		return nil, 0, err
	}
	return reports, total, nil
}

func (c *Client) UpdateReportStatus(ctx context.Context, id uint, status ReportStatus) error {
	result := c.db.WithContext(ctx).Model(&Report{}).Where("id = ?", id).Update("status", status)
	if result.Error != nil {
		log.Error("failed to update report status", "report_id", id, "error", result.Error)
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
