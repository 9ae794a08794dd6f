// Package entity defines the job log model.
package entity

import "time"

// Run statuses.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// SyncRun records one execution of a sync job. It is created as running and receives
// exactly one terminal update.
type SyncRun struct {
	ID               uint      `gorm:"primaryKey"`
	JobName          string    `gorm:"size:64;not null;index:idx_sync_log_job_status,priority:1"`
	Status           string    `gorm:"size:16;not null;index:idx_sync_log_job_status,priority:2"`
	StartedAt        time.Time `gorm:"not null"`
	CompletedAt      *time.Time
	RecordsProcessed int
	ErrorMessage     *string
}

// TableName keeps the historical table name.
func (SyncRun) TableName() string {
	return "sync_log"
}
