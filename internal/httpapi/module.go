package httpapi

import (
	"net/http"

	"github.com/gtn1024/puratodo-sub001/pkg/config"
	"github.com/gtn1024/puratodo-sub001/pkg/health"
	"github.com/gtn1024/puratodo-sub001/pkg/middleware"
	"github.com/gtn1024/puratodo-sub001/services/recurrence"
	"github.com/gtn1024/puratodo-sub001/services/task"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("httpapi",
	fx.Provide(NewRouter),
)

type Params struct {
	fx.In
	Config     *config.Config `optional:"true"`
	Tasks      *task.Service
	Recurrence *recurrence.Service
	Health     health.HealthService `optional:"true"`
	Logger     *zap.Logger          `optional:"true"`
}

// NewRouter builds the gin engine serving the task API and health probes.
func NewRouter(p Params) http.Handler {
	if p.Config != nil && p.Config.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery(), middleware.Error())

	if p.Health != nil {
		r.GET("/healthz", p.Health.Liveness)
		r.GET("/readyz", p.Health.Readiness)
	}

	NewHandler(p.Tasks, p.Recurrence, p.Logger).Register(r)
	return r
}
