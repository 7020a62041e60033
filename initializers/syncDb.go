package initializers

import (
	"fmt"
	"log"

	"github.com/eliotaldersonfsociety/texasstore-api/models"
	"gorm.io/gorm"
)

func SyncDatabase(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.StoredValue{}); err != nil {
		return fmt.Errorf("failed to migrate client storage: %w", err)
	}
	log.Println("Database synced successfully.")
	return nil
}
