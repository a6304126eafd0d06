package database

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"volunteer_backend/internal/config"
	"volunteer_backend/internal/logger"
	"volunteer_backend/internal/models"
)

// Connect открывает GORM по настройкам database.* и проверяет соединение
func Connect(ctx context.Context, cfg *config.Config) (*gorm.DB, error) {
	gormCfg := &gorm.Config{}
	if !cfg.Server.Debug {
		gormCfg.Logger = gormlogger.Default.LogMode(gormlogger.Silent)
	}

	db, err := gorm.Open(postgres.Open(cfg.Database.DSN), gormCfg)
	if err != nil {
		return nil, eris.Wrap(err, "open gorm")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, eris.Wrap(err, "get *sql.DB from gorm")
	}
	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, eris.Wrap(err, "database unavailable")
	}
	return db, nil
}

// индексы, которые не выражаются тегами gorm
var extraIndexes = []string{
	`CREATE INDEX IF NOT EXISTS idx_opportunities_categories ON opportunities USING GIN (categories)`,
	`CREATE INDEX IF NOT EXISTS idx_users_categories ON users USING GIN (categories)`,
	`CREATE INDEX IF NOT EXISTS idx_opportunities_location ON opportunities (latitude, longitude) WHERE latitude IS NOT NULL AND longitude IS NOT NULL`,
	`CREATE INDEX IF NOT EXISTS idx_users_volunteer_location ON users (latitude, longitude) WHERE role = 'volunteer'`,
}

// AutoMigrate - схема users/opportunities/applications и дополнительные индексы
func AutoMigrate(ctx context.Context, db *gorm.DB) error {
	db = db.WithContext(ctx)

	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`).Error; err != nil {
		return eris.Wrap(err, "create uuid-ossp extension")
	}

	err := db.AutoMigrate(
		&models.User{},
		&models.Opportunity{},
		&models.Application{},
	)
	if err != nil {
		return eris.Wrap(err, "auto migrate")
	}

	for _, stmt := range extraIndexes {
		if err := db.Exec(stmt).Error; err != nil {
			return eris.Wrapf(err, "create index: %s", stmt)
		}
	}

	logger.Info("AutoMigrate completed")
	return nil
}
