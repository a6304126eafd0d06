//go:build integration

package helpers

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"volunteer_backend/database"
)

// TestDB - postgres в контейнере с примененными миграциями
type TestDB struct {
	DB        *gorm.DB
	DSN       string
	container *tcpostgres.PostgresContainer
}

func StartPostgres(ctx context.Context) (*TestDB, error) {
	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("volunteer_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		tcpostgres.BasicWaitStrategies(),
	)
	if err != nil {
		return nil, eris.Wrap(err, "start postgres container")
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = testcontainers.TerminateContainer(container)
		return nil, eris.Wrap(err, "postgres connection string")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormlogger.Discard})
	if err != nil {
		_ = testcontainers.TerminateContainer(container)
		return nil, eris.Wrap(err, "open gorm")
	}

	migrateCtx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()
	if err := database.AutoMigrate(migrateCtx, db); err != nil {
		_ = testcontainers.TerminateContainer(container)
		return nil, err
	}

	return &TestDB{DB: db, DSN: dsn, container: container}, nil
}

// Truncate очищает все таблицы между тестами
func (t *TestDB) Truncate() error {
	return t.DB.Exec("TRUNCATE TABLE applications, opportunities, users RESTART IDENTITY CASCADE").Error
}

func (t *TestDB) Close() {
	if sqlDB, err := t.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
	_ = testcontainers.TerminateContainer(t.container)
}
