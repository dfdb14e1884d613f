package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/eventsphere/eventsphere/internal/database"
)

// Job ids, usable with the scheduler's RunJobNow.
const (
	JobAuditRetention        = "audit_retention"
	JobNotificationRetention = "notification_retention"
)

const (
	defaultLogRetentionDays          = 90
	defaultNotificationRetentionDays = 30
)

// setupJobs configures all scheduled jobs.
func (e *Engine) setupJobs() error {
	if e.cfg.Jobs == nil {
		log.Warn("no job schedules configured, maintenance jobs are disabled")
		return nil
	}

	if err := e.scheduler.AddCronJob(
		JobAuditRetention,
		"Audit Log Retention",
		"Deletes audit log entries older than the log_retention_days setting",
		e.cfg.Jobs.AuditRetentionSchedule,
		true,
		e.runAuditRetention,
	); err != nil {
		return fmt.Errorf("failed to add audit retention job: %w", err)
	}

	if err := e.scheduler.AddCronJob(
		JobNotificationRetention,
		"Notification Retention",
		"Deletes read notifications older than the notification_retention_days setting",
		e.cfg.Jobs.NotificationRetentionSchedule,
		true,
		e.runNotificationRetention,
	); err != nil {
		return fmt.Errorf("failed to add notification retention job: %w", err)
	}

	log.Info("Scheduled jobs configured successfully")
	return nil
}

func (e *Engine) runAuditRetention(ctx context.Context) error {
	days := e.settingInt(ctx, database.SettingLogRetentionDays, defaultLogRetentionDays)
	cutoff := time.Now().UTC().AddDate(0, 0, -days)

	deleted, err := e.db.DeleteAuditLogsBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("failed to delete old audit logs: %w", err)
	}
	log.Info("audit log retention finished", "deleted", deleted, "retention_days", days)
	return nil
}

func (e *Engine) runNotificationRetention(ctx context.Context) error {
	days := e.settingInt(ctx, database.SettingNotificationRetentionDays, defaultNotificationRetentionDays)
	cutoff := time.Now().UTC().AddDate(0, 0, -days)

	deleted, err := e.db.DeleteReadNotificationsBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("failed to delete old notifications: %w", err)
	}
	log.Info("notification retention finished", "deleted", deleted, "retention_days", days)
	return nil
}
