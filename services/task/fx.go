package task

import (
	"github.com/gtn1024/puratodo-sub001/pkg/config"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("task.service",
	fx.Provide(
		NewStore,
		NewService,
	),
	fx.Invoke(registerMigration),
)

// Migrate creates or alters the tasks table.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&Task{})
}

func registerMigration(cfg *config.Config, db *gorm.DB) error {
	if !cfg.Database.AutoMigrate {
		return nil
	}

	if err := Migrate(db); err != nil {
		zap.L().Error("failed to migrate tasks table", zap.Error(err))
		return err
	}
	return nil
}
