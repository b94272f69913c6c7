package services

import (
	"time"

	"github.com/robfig/cron/v3"
	"github.com/takumin/shiftboard/internal/models"
	"github.com/takumin/shiftboard/pkg/logger"
	"gorm.io/gorm"
)

var auditDB *gorm.DB

// InitAuditLogger wires the audit writer to the database. Call once
// during startup, before any request handling.
func InitAuditLogger(db *gorm.DB) {
	auditDB = db
}

// Record writes one audit row. Failures are logged and swallowed so an
// audit problem never fails the request that triggered it.
func Record(level, module, action, message string, userID *uint, ip, userAgent, extra string) {
	if auditDB == nil {
		return
	}
	entry := models.AuditLog{
		Level:     level,
		Module:    module,
		Action:    action,
		Message:   message,
		UserID:    userID,
		IP:        ip,
		UserAgent: userAgent,
		Extra:     extra,
	}
	if err := auditDB.Create(&entry).Error; err != nil {
		logger.Errorf("write audit log: %v", err)
	}
}

type AuditService struct {
	db   *gorm.DB
	cron *cron.Cron
}

func NewAuditService(db *gorm.DB) *AuditService {
	return &AuditService{db: db}
}

type AuditListQuery struct {
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
	Level    string `form:"level"`
	Module   string `form:"module"`
}

type AuditListResult struct {
	Total int64             `json:"total"`
	Items []models.AuditLog `json:"items"`
}

func (s *AuditService) List(q *AuditListQuery) (*AuditListResult, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 || q.PageSize > 200 {
		q.PageSize = 50
	}

	query := s.db.Model(&models.AuditLog{})
	if q.Level != "" {
		query = query.Where("level = ?", q.Level)
	}
	if q.Module != "" {
		query = query.Where("module = ?", q.Module)
	}

	var result AuditListResult
	if err := query.Count(&result.Total).Error; err != nil {
		return nil, err
	}
	err := query.Order("created_at DESC").
		Offset((q.Page - 1) * q.PageSize).Limit(q.PageSize).
		Find(&result.Items).Error
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// CleanupOldLogs deletes audit rows older than the retention window.
func (s *AuditService) CleanupOldLogs(retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		return 0, nil
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	result := s.db.Where("created_at < ?", cutoff).Delete(&models.AuditLog{})
	return result.RowsAffected, result.Error
}

// StartCleanupScheduler runs retention cleanup every night at 03:00.
func (s *AuditService) StartCleanupScheduler(retentionDays int) error {
	s.cron = cron.New()
	_, err := s.cron.AddFunc("0 3 * * *", func() {
		deleted, err := s.CleanupOldLogs(retentionDays)
		if err != nil {
			logger.Errorf("audit log cleanup: %v", err)
			return
		}
		if deleted > 0 {
			logger.Infof("audit log cleanup removed %d rows", deleted)
		}
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

func (s *AuditService) StopCleanupScheduler() {
	if s.cron != nil {
		s.cron.Stop()
	}
}
