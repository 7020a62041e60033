package initializers

import (
	"fmt"
	"log"

	"github.com/eliotaldersonfsociety/texasstore-api/storage"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func ConnectToDB(driver, dsn string) (*gorm.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("DB_DSN is not set")
	}

	var dialector gorm.Dialector
	switch driver {
	case "mysql":
		dialector = mysql.Open(dsn)
	case "postgres":
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Printf("Connected to %s database.", driver)
	return db, nil
}

func ConnectToRedis(cfg *Config) (*redis.Client, error) {
	client, err := storage.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return nil, err
	}
	log.Printf("Connected to redis at %s.", cfg.RedisAddr)
	return client, nil
}

// NewStorage builds the backend named by STORAGE_DRIVER. The returned
// closer releases its connection.
func NewStorage(cfg *Config) (storage.Storage, func() error, error) {
	switch cfg.StorageDriver {
	case "memory":
		log.Println("Using in-memory client storage; state is lost on restart.")
		return storage.NewMemoryStore(), func() error { return nil }, nil

	case "sql":
		db, err := ConnectToDB(cfg.DBDriver, cfg.DBDSN)
		if err != nil {
			return nil, nil, err
		}
		if err := SyncDatabase(db); err != nil {
			return nil, nil, err
		}
		closer := func() error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		}
		return storage.NewSQLStore(db), closer, nil

	case "redis":
		client, err := ConnectToRedis(cfg)
		if err != nil {
			return nil, nil, err
		}
		store := storage.NewRedisStore(client)
		return store, store.Close, nil
	}
	return nil, nil, fmt.Errorf("unsupported STORAGE_DRIVER %q", cfg.StorageDriver)
}
