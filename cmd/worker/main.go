package main

import (
	"github.com/gtn1024/puratodo-sub001/pkg/asynq"
	"github.com/gtn1024/puratodo-sub001/pkg/config"
	"github.com/gtn1024/puratodo-sub001/pkg/logger"
	"github.com/gtn1024/puratodo-sub001/services/taskevent"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
)

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		asynq.Server,
		taskevent.WorkerModule,
		fx.WithLogger(func() fxevent.Logger { return fxevent.NopLogger }),
	)

	app.Run()
}
