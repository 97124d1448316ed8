package postgres

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

const pingTimeout = 5 * time.Second

func Connect(ctx context.Context, databaseURL string, maxConns int32) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		PrepareStmt:    true,
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("gorm sql db: %w", err)
	}
	if maxConns > 0 {
		sqlDB.SetMaxOpenConns(int(maxConns))
		idle := int(maxConns) / 2
		if idle < 2 {
			idle = 2
		}
		sqlDB.SetMaxIdleConns(idle)
	}
	sqlDB.SetConnMaxIdleTime(10 * time.Minute)
	sqlDB.SetConnMaxLifetime(time.Hour)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// RunMigrations applies every embedded migration file in lexical order.
// Statements are written to be re-runnable (IF NOT EXISTS, ON CONFLICT DO
// NOTHING), so there is no version table.
func RunMigrations(ctx context.Context, db *gorm.DB) error {
	paths, err := fs.Glob(migrationFS, "migrations/*.sql")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	for _, path := range paths {
		raw, readErr := migrationFS.ReadFile(path)
		if readErr != nil {
			return fmt.Errorf("read migration %s: %w", path, readErr)
		}
		if execErr := db.WithContext(ctx).Exec(string(raw)).Error; execErr != nil {
			return fmt.Errorf("apply migration %s: %w", path, execErr)
		}
	}
	return nil
}
