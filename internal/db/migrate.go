package db

import (
	"context"
	"fmt"

	"github.com/ikkim/littlelemon-backend/internal/app/model"
	"github.com/ikkim/littlelemon-backend/internal/db/migrations"
	"github.com/ikkim/littlelemon-backend/pkg/logger"
	"github.com/pressly/goose/v3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Models is every table the API owns, in dependency order
var Models = []interface{}{
	&model.Group{},
	&model.User{},
	&model.Category{},
	&model.MenuItem{},
	&model.Cart{},
	&model.CartItem{},
	&model.Order{},
	&model.OrderItem{},
}

// Migrate applies the embedded goose migrations and seeds the role groups
func Migrate(ctx context.Context) error {
	logger.Info("Running database migrations...")

	if err := RunGoose(ctx, DB, "up"); err != nil {
		logger.Error("Failed to run migrations", err)
		return err
	}

	if err := Seed(DB); err != nil {
		logger.Error("Failed to seed initial data during migration", err)
		return err
	}

	logger.Info("Database migrations completed successfully", logger.Fields{
		"models_count": len(Models),
	})
	return nil
}

// RunGoose executes a goose command (up, down, status, ...) against the
// embedded postgres migrations.
func RunGoose(ctx context.Context, gdb *gorm.DB, command string, args ...string) error {
	sqlDB, err := gdb.DB()
	if err != nil {
		return fmt.Errorf("get sql db: %w", err)
	}

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.RunContext(ctx, command, sqlDB, ".", args...); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}
	return nil
}

// Seed inserts the role groups. Existing rows are left alone.
func Seed(gdb *gorm.DB) error {
	groups := make([]model.Group, 0, len(model.KnownGroups))
	for _, name := range model.KnownGroups {
		groups = append(groups, model.Group{Name: name})
	}

	err := gdb.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoNothing: true,
	}).Create(&groups).Error
	if err != nil {
		return fmt.Errorf("seed groups: %w", err)
	}

	logger.Info("Role groups seeded", logger.Fields{"groups": model.KnownGroups})
	return nil
}
