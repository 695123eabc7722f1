package health

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

var Module = fx.Module("health", fx.Provide(ProvideHealth))

const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"

	checkTimeout = 2 * time.Second
)

type Dependency struct {
	Name    string `json:"name"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

type Health struct {
	Status  string       `json:"status"`
	Message string       `json:"message"`
	Deps    []Dependency `json:"deps,omitempty"`
}

type HealthService interface {
	Liveness(c *gin.Context)
	Readiness(c *gin.Context)
}

type health struct {
	db    *gorm.DB
	redis *redis.Client
}

type HealthParams struct {
	fx.In
	DB    *gorm.DB      `optional:"true"`
	Redis *redis.Client `optional:"true"`
}

func ProvideHealth(p HealthParams) HealthService {
	return &health{
		db:    p.DB,
		redis: p.Redis,
	}
}

func (h *health) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, &Health{
		Status:  StatusHealthy,
		Message: "OK",
	})
}

// Readiness pings every configured dependency concurrently and answers 503
// when any of them fails.
func (h *health) Readiness(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), checkTimeout)
	defer cancel()

	var (
		mu   sync.Mutex
		deps []Dependency
	)
	record := func(name string, err error) {
		dep := Dependency{Name: name, Status: StatusHealthy, Message: "OK"}
		if err != nil {
			dep.Status = StatusUnhealthy
			dep.Message = err.Error()
		}
		mu.Lock()
		deps = append(deps, dep)
		mu.Unlock()
	}

	var g errgroup.Group
	if h.db != nil {
		g.Go(func() error {
			record("database:"+h.db.Dialector.Name(), pingDB(ctx, h.db))
			return nil
		})
	}
	if h.redis != nil {
		g.Go(func() error {
			record("redis", h.redis.Ping(ctx).Err())
			return nil
		})
	}
	_ = g.Wait()

	this := &Health{Status: StatusHealthy, Message: "OK", Deps: deps}
	code := http.StatusOK
	for _, dep := range deps {
		if dep.Status != StatusHealthy {
			this.Status = StatusUnhealthy
			this.Message = "dependency check failed"
			code = http.StatusServiceUnavailable
			break
		}
	}

	c.JSON(code, this)
}

func pingDB(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
