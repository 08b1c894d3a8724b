package notification

import (
	"context"
	"log/slog"
	"time"
)

// CleanupService removes notifications that fell out of the retention window.
type CleanupService struct {
	repo *Repository
}

func NewCleanupService(repo *Repository) *CleanupService {
	return &CleanupService{repo: repo}
}

// CleanupOld removes notifications older than daysToKeep days.
func (c *CleanupService) CleanupOld(ctx context.Context, daysToKeep int) error {
	start := time.Now()

	deleted, err := c.repo.DeleteOlderThan(ctx, time.Duration(daysToKeep)*24*time.Hour)
	if err != nil {
		slog.Error("notification cleanup failed", "error", err)
		return err
	}

	slog.Info("notification cleanup completed", "deleted", deleted, "duration", time.Since(start))
	return nil
}

// CleanupConfig holds configuration for scheduled cleanup.
type CleanupConfig struct {
	RetentionDays int           // Keep notifications for N days
	Interval      time.Duration // How often to run
}

// DefaultCleanupConfig returns the default cleanup configuration.
func DefaultCleanupConfig() CleanupConfig {
	return CleanupConfig{
		RetentionDays: 90,
		Interval:      24 * time.Hour,
	}
}

// Schedule starts a background goroutine for periodic cleanup. Closing the
// returned channel or cancelling ctx stops it.
func (c *CleanupService) Schedule(ctx context.Context, config CleanupConfig) chan struct{} {
	stopCh := make(chan struct{})

	go func() {
		ticker := time.NewTicker(config.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if err := c.CleanupOld(ctx, config.RetentionDays); err != nil {
					slog.Error("scheduled cleanup error", "error", err)
				}
			case <-stopCh:
				slog.Info("scheduled cleanup stopped")
				return
			case <-ctx.Done():
				slog.Info("scheduled cleanup stopped", "reason", "context done")
				return
			}
		}
	}()

	slog.Info("scheduled cleanup started", "interval", config.Interval, "retention_days", config.RetentionDays)
	return stopCh
}
