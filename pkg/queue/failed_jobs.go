package queue

import (
	"time"

	"github.com/shashiranjanraj/farmlink/pkg/logger"
)

// FailedJobRecord is a persisted job failure. The table is created by the
// failed-jobs migration.
type FailedJobRecord struct {
	ID       uint      `gorm:"primaryKey;autoIncrement"`
	JobType  string    `gorm:"size:255;not null;index"`
	Payload  string    `gorm:"type:text;not null"`
	Error    string    `gorm:"type:text"`
	Attempts int       `gorm:"not null;default:0"`
	FailedAt time.Time `gorm:"autoCreateTime"`
}

func (FailedJobRecord) TableName() string { return "farmlink_failed_jobs" }

func (m *Manager) recordFailed(env envelope, lastErr error) {
	now := time.Now()
	m.mu.Lock()
	m.failed = append(m.failed, FailedJob{
		Type: env.Type, Payload: env.Payload, Err: lastErr, FailedAt: now, Attempts: m.opts.MaxRetry,
	})
	m.mu.Unlock()

	if m.opts.DB == nil {
		return
	}
	msg := ""
	if lastErr != nil {
		msg = lastErr.Error()
	}
	rec := FailedJobRecord{
		JobType:  env.Type,
		Payload:  string(env.Payload),
		Error:    msg,
		Attempts: m.opts.MaxRetry,
		FailedAt: now,
	}
	if err := m.opts.DB.Create(&rec).Error; err != nil {
		logger.Error("queue: persist failed job", "type", env.Type, "error", err)
	}
}
