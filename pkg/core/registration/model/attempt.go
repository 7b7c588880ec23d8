package model

import (
	"time"

	"gorm.io/gorm"
)

// Outcome of one registration attempt as seen by the frontend.
type Outcome string

const (
	OutcomeRegistered      Outcome = "registered"
	OutcomeMismatch        Outcome = "password_mismatch"
	OutcomeChallengeFailed Outcome = "challenge_failed"
	OutcomeUsernameTaken   Outcome = "username_taken"
	OutcomeRejected        Outcome = "rejected"
	OutcomeBackendError    Outcome = "backend_error"
	OutcomeLoginFailed     Outcome = "login_failed"
)

// Attempt is the audit row for a registration attempt. Passwords and tokens are never stored.
type Attempt struct {
	ID         string    `gorm:"type:char(36);primaryKey"`
	Username   string    `gorm:"type:varchar(100);index;not null"`
	Outcome    Outcome   `gorm:"type:varchar(32);index;not null"`
	StatusCode int       `gorm:"not null;default:0"`
	ClientIP   string    `gorm:"type:varchar(64)"`
	CreatedAt  time.Time `gorm:"index;autoCreateTime"`
}

// TableName 定义映射表名
func (Attempt) TableName() string {
	return "registration_attempts"
}

func AutoMigrate(db *gorm.DB) error {
	return db.Set("gorm:table_options", "COMMENT='注册尝试记录'").
		AutoMigrate(&Attempt{})
}
