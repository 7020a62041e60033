package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/eliotaldersonfsociety/texasstore-api/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SQLStore keeps values in the client_storage table. Expired rows are
// treated as absent and deleted lazily.
type SQLStore struct {
	DB  *gorm.DB
	now func() time.Time
}

func NewSQLStore(db *gorm.DB) *SQLStore {
	return &SQLStore{DB: db, now: time.Now}
}

func (s *SQLStore) Get(ctx context.Context, key string) (string, error) {
	var row models.StoredValue
	err := s.DB.WithContext(ctx).Where("storage_key = ?", key).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to load %s: %w", key, err)
	}

	if row.ExpiresAt != nil && !s.now().Before(*row.ExpiresAt) {
		s.DB.WithContext(ctx).Delete(&models.StoredValue{}, "storage_key = ?", key)
		return "", ErrNotFound
	}

	var value string
	if err := json.Unmarshal(row.Value, &value); err != nil {
		return "", fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return value, nil
}

func (s *SQLStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}

	row := models.StoredValue{Key: key, Value: datatypes.JSON(encoded)}
	if ttl > 0 {
		expiresAt := s.now().Add(ttl)
		row.ExpiresAt = &expiresAt
	}

	err = s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "storage_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "expires_at", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}

func (s *SQLStore) Remove(ctx context.Context, key string) error {
	if err := s.DB.WithContext(ctx).Delete(&models.StoredValue{}, "storage_key = ?", key).Error; err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}
