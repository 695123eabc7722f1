package main

import (
	"github.com/gtn1024/puratodo-sub001/internal/httpapi"
	"github.com/gtn1024/puratodo-sub001/pkg/asynq"
	"github.com/gtn1024/puratodo-sub001/pkg/clock"
	"github.com/gtn1024/puratodo-sub001/pkg/config"
	"github.com/gtn1024/puratodo-sub001/pkg/db"
	"github.com/gtn1024/puratodo-sub001/pkg/gen"
	"github.com/gtn1024/puratodo-sub001/pkg/health"
	"github.com/gtn1024/puratodo-sub001/pkg/logger"
	"github.com/gtn1024/puratodo-sub001/pkg/redis"
	"github.com/gtn1024/puratodo-sub001/pkg/server"
	"github.com/gtn1024/puratodo-sub001/services/recurrence"
	"github.com/gtn1024/puratodo-sub001/services/task"
	"github.com/gtn1024/puratodo-sub001/services/taskevent"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	opts := []fx.Option{
		fx.Supply(cfg),
		logger.Module,
		db.Module,
		gen.Module,
		clock.Module,
		health.Module,
		task.Module,
		recurrence.Module,
		httpapi.Module,
		server.Module,
		fxLogger,
	}

	// Redis is only needed when occurrences are published.
	if cfg.Recurrence.PublishEvents {
		opts = append(opts,
			redis.Module,
			asynq.Client,
			taskevent.PublisherModule,
		)
	}

	fx.New(opts...).Run()
}

var fxLogger = fx.WithLogger(func(cfg *config.Config, log *zap.Logger) fxevent.Logger {
	if cfg.AppEnv == "production" {
		return fxevent.NopLogger
	}
	return &fxevent.ZapLogger{Logger: log}
})
