package storage

import (
	"alcyxob/wellness-app/internal/domain"
	"context"
)

// MetricsExporter ships a day's calendar metrics to object storage for
// the trend/analytics consumers. One object per run date.
type MetricsExporter interface {
	// ExportMetrics writes the day's metrics as JSON lines and returns
	// the object key. Re-exporting the same date overwrites the object.
	ExportMetrics(ctx context.Context, date string, metrics []domain.DailyCalendarMetrics) (string, error)
}
