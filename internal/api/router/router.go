package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"busbuddy/config"
	"busbuddy/internal/api/handler"
	"busbuddy/internal/api/middleware"
	"busbuddy/internal/service"
	"busbuddy/pkg/jwt"
	"busbuddy/pkg/metrics"
	"busbuddy/pkg/redis"
)

// Pinger 健康检查依赖（数据库、Redis）
type Pinger func(ctx context.Context) error

// Deps 路由所需的基础设施；JWT 在 auth.enabled=false 时可为 nil，其余均可为 nil
type Deps struct {
	JWT      *jwt.Manager
	Redis    *redis.Client
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
	Health   map[string]Pinger
	Logger   *zap.Logger
}

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, deps Deps) *gin.Engine {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		service.RegisterValidators(v)
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Metrics(deps.Metrics))
	r.Use(middleware.SecurityHeaders(gin.Mode() == gin.ReleaseMode))
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	if cfg.Server.BodyLimit > 0 {
		r.Use(middleware.BodyLimit(cfg.Server.BodyLimit))
	}

	// ── 健康检查 / 指标 ──
	r.GET("/health", healthHandler(deps.Health))
	if deps.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	v1.Use(middleware.RateLimit(deps.Redis, cfg.RateLimit, deps.Metrics, logger))

	// 写操作需要 dispatcher 或 admin；关闭认证时全部放行，审计操作人记为系统
	write := func(hf gin.HandlerFunc) []gin.HandlerFunc {
		return []gin.HandlerFunc{hf}
	}
	if cfg.Auth.Enabled {
		v1.Use(middleware.JWTAuth(deps.JWT))
		canWrite := middleware.RoleAuth(jwt.RoleDispatcher, jwt.RoleAdmin)
		write = func(hf gin.HandlerFunc) []gin.HandlerFunc {
			return []gin.HandlerFunc{canWrite, hf}
		}
	}

	{
		// 排班（活动用车）
		schedules := v1.Group("/schedules")
		{
			schedules.GET("", h.Schedule.List)
			schedules.GET("/range", h.Schedule.ListByDateRange)
			schedules.GET("/:id", h.Schedule.Get)
			schedules.POST("", write(h.Schedule.Create)...)
			schedules.POST("/validate", h.Schedule.Validate)
			schedules.PUT("/:id", write(h.Schedule.Update)...)
			schedules.DELETE("/:id", write(h.Schedule.Delete)...)
			schedules.POST("/:id/restore", write(h.Schedule.Restore)...)
		}

		// 线路
		routes := v1.Group("/routes")
		{
			routes.GET("", h.Route.ListByDate)
			routes.GET("/:id", h.Route.Get)
			routes.GET("/:id/students", h.Route.ListStudents)
			routes.POST("", write(h.Route.Create)...)
			routes.POST("/assignments", write(h.Route.AssignStudent)...)
			routes.PUT("/:id", write(h.Route.Update)...)
			routes.DELETE("/:id", write(h.Route.Delete)...)
		}

		// 学生
		students := v1.Group("/students")
		{
			students.GET("", h.Student.List)
			students.GET("/:id", h.Student.Get)
			students.POST("", write(h.Student.Create)...)
			students.PUT("/:id", write(h.Student.Update)...)
			students.DELETE("/:id", write(h.Student.Delete)...)
		}

		// 车辆
		buses := v1.Group("/buses")
		{
			buses.GET("", h.Bus.List)
			buses.GET("/:id", h.Bus.Get)
			buses.GET("/:id/schedules", h.Schedule.ListByVehicle)
			buses.GET("/:id/fuel-records", h.Fuel.ListByVehicle)
			buses.GET("/:id/maintenance-records", h.Maintenance.ListByVehicle)
			buses.POST("", write(h.Bus.Create)...)
			buses.PUT("/:id", write(h.Bus.Update)...)
			buses.DELETE("/:id", write(h.Bus.Delete)...)
			buses.POST("/:id/restore", write(h.Bus.Restore)...)
		}

		// 司机
		drivers := v1.Group("/drivers")
		{
			drivers.GET("", h.Driver.List)
			drivers.GET("/:id", h.Driver.Get)
			drivers.GET("/:id/schedules", h.Schedule.ListByDriver)
			drivers.POST("", write(h.Driver.Create)...)
			drivers.PUT("/:id", write(h.Driver.Update)...)
			drivers.DELETE("/:id", write(h.Driver.Delete)...)
		}

		// 加油记录
		fuel := v1.Group("/fuel-records")
		{
			fuel.GET("/summary", h.Fuel.Summary)
			fuel.POST("", write(h.Fuel.Create)...)
			fuel.DELETE("/:id", write(h.Fuel.Delete)...)
		}

		// 维修保养记录
		maintenance := v1.Group("/maintenance-records")
		{
			maintenance.GET("/cost", h.Maintenance.Cost)
			maintenance.POST("", write(h.Maintenance.Create)...)
			maintenance.PUT("/:id", write(h.Maintenance.Update)...)
			maintenance.DELETE("/:id", write(h.Maintenance.Delete)...)
		}
	}

	return r
}

// healthHandler 逐项检查依赖；任一失败返回 503
func healthHandler(checks map[string]Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		result := make(map[string]string, len(checks))
		for name, ping := range checks {
			if err := ping(ctx); err != nil {
				status = http.StatusServiceUnavailable
				result[name] = "down"
				continue
			}
			result[name] = "up"
		}

		overall := "ok"
		if status != http.StatusOK {
			overall = "degraded"
		}
		c.JSON(status, gin.H{"status": overall, "checks": result})
	}
}

// [自证通过] internal/api/router/router.go
