package models

import (
	"time"

	"gorm.io/datatypes"
)

// StoredValue is one key of the SQL-backed client storage.
type StoredValue struct {
	Key       string         `gorm:"column:storage_key;primaryKey;size:191"`
	Value     datatypes.JSON `gorm:"not null"`
	ExpiresAt *time.Time     `gorm:"index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (StoredValue) TableName() string { return "client_storage" }
