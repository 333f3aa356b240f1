package models

import "time"

// VersionRecordModel stores the last shell version a foreground client saw
type VersionRecordModel struct {
	ClientID  string    `gorm:"type:varchar(100);primaryKey"`
	Version   string    `gorm:"type:varchar(100);not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (VersionRecordModel) TableName() string {
	return "offline_version_records"
}
