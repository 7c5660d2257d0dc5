// Package main 是应用程序入口
package main

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/sporthub/field-booking-backend/internal/common/config"
	"github.com/sporthub/field-booking-backend/internal/common/jwt"
	"github.com/sporthub/field-booking-backend/internal/common/metrics"
	bookingHandler "github.com/sporthub/field-booking-backend/internal/handler/booking"
	pricingHandler "github.com/sporthub/field-booking-backend/internal/handler/pricing"
	scheduleHandler "github.com/sporthub/field-booking-backend/internal/handler/schedule"
	sessionHandler "github.com/sporthub/field-booking-backend/internal/handler/session"
	"github.com/sporthub/field-booking-backend/internal/middleware"
	"github.com/sporthub/field-booking-backend/internal/scheduler"
	bookingService "github.com/sporthub/field-booking-backend/internal/service/booking"
	pricingService "github.com/sporthub/field-booking-backend/internal/service/pricing"
	scheduleService "github.com/sporthub/field-booking-backend/internal/service/schedule"
	sessionService "github.com/sporthub/field-booking-backend/internal/service/session"
)

// setupRouter 设置路由并组装后台调度器
func setupRouter(
	r *gin.Engine,
	cfg *config.Config,
	logger *zap.Logger,
	db *gorm.DB,
	redisClient *redis.Client,
) *scheduler.Scheduler {
	// 创建 JWT 管理器
	jwtManager := jwt.NewManager(&jwt.Config{
		Secret:           cfg.JWT.Secret,
		AccessExpireTime: cfg.JWT.AccessTokenDuration(),
		Issuer:           cfg.JWT.Issuer,
	})

	// 初始化服务
	ruleCacheTTL := time.Duration(cfg.Business.Booking.RuleCacheTTL) * time.Minute
	pricingSvc := pricingService.NewService(db, ruleCacheTTL, ruleCacheTTL > 0)
	scheduleSvc := scheduleService.NewService(db)
	codeSvc := bookingService.NewCodeService(cfg.Business.Booking.CodeProbeWindow)
	bookingSvc := bookingService.NewService(db, pricingSvc, scheduleSvc, codeSvc)
	sessionSvc := sessionService.NewService(db, bookingSvc, codeSvc)

	// 初始化处理器
	bookingH := bookingHandler.NewHandler(bookingSvc)
	scheduleH := scheduleHandler.NewHandler(scheduleSvc)
	pricingH := pricingHandler.NewHandler(pricingSvc)
	sessionH := sessionHandler.NewHandler(sessionSvc)

	// 全局中间件
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.SecureHeaders())
	r.Use(middleware.CORS(corsConfig(cfg)))
	r.Use(middleware.Logging(middleware.DefaultLoggingConfig(logger)))
	if cfg.Metrics.Enabled {
		r.Use(metrics.GetMetrics().Middleware())
		r.GET("/metrics", metrics.Handler())
	}

	// 健康检查（不需要认证）
	r.GET("/health", healthHandler)
	r.GET("/ping", pingHandler)
	r.GET("/ready", readyHandler(db, redisClient))

	// API v1 路由组
	v1 := r.Group("/api/v1")
	v1.Use(middleware.RateLimitByIP(redisClient, 300, time.Minute))
	{
		// 公开接口（无需认证）
		public := v1.Group("")
		{
			public.POST("/bookings", bookingH.CreateBooking)
			public.GET("/bookings/:id", bookingH.GetBooking)
			public.GET("/bookings/code/:code", bookingH.GetBookingByCode)
			public.PUT("/bookings/:id", bookingH.EditBooking)
			public.POST("/bookings/:id/cancel", bookingH.Cancel)

			public.GET("/availability", scheduleH.CheckAvailability)
			public.GET("/fields/:id/schedule", scheduleH.DaySchedule)
			public.GET("/price", pricingH.ComputePrice)
		}

		// 员工接口（需要登录）
		staff := v1.Group("")
		staff.Use(middleware.StaffAuth(jwtManager))
		{
			staff.GET("/bookings", bookingH.ListBookings)
			staff.POST("/bookings/:id/confirm", bookingH.Confirm)
			staff.POST("/bookings/:id/pay", bookingH.MarkPaid)

			staff.POST("/sessions/check-in", sessionH.CheckIn)
			staff.GET("/sessions", sessionH.ListSessions)
			staff.GET("/sessions/:id", sessionH.GetSession)
			staff.POST("/sessions/:id/orders", sessionH.AddProducts)
			staff.GET("/sessions/:id/bill", sessionH.GetBill)
			staff.POST("/sessions/:id/check-out", sessionH.CheckOut)
			staff.POST("/session-orders/:id/pay", sessionH.PayOrder)
			staff.DELETE("/session-orders/:id/items/:item_id", sessionH.RemoveOrderItem)
		}

		// 管理接口（需要管理员角色）
		admin := v1.Group("/admin")
		admin.Use(middleware.StaffAuth(jwtManager), middleware.AdminOnly())
		{
			admin.POST("/schedules/block", scheduleH.Block)
			admin.POST("/schedules/unblock", scheduleH.Unblock)
			admin.POST("/schedules/resync", scheduleH.Resync)

			admin.GET("/pricing-rules", pricingH.ListRules)
			admin.POST("/pricing-rules", pricingH.CreateRule)
			admin.PUT("/pricing-rules/:id", pricingH.UpdateRule)
			admin.DELETE("/pricing-rules/:id", pricingH.DeleteRule)
		}
	}

	// 后台任务
	sched := scheduler.NewScheduler()
	grace := time.Duration(cfg.Business.Booking.NoShowGraceMinutes) * time.Minute
	sweepInterval := time.Duration(cfg.Business.Booking.NoShowSweepInterval) * time.Minute
	taskHandler := scheduler.NewTaskHandler(db, bookingSvc, grace)
	sched.AddTask("no-show-sweep", sweepInterval, taskHandler.SweepNoShows)

	return sched
}

// corsConfig 由配置组装跨域中间件参数
func corsConfig(cfg *config.Config) *middleware.CORSConfig {
	c := middleware.DefaultCORSConfig()
	if len(cfg.CORS.AllowedOrigins) > 0 {
		c.AllowOrigins = cfg.CORS.AllowedOrigins
	}
	if len(cfg.CORS.AllowedMethods) > 0 {
		c.AllowMethods = cfg.CORS.AllowedMethods
	}
	if len(cfg.CORS.AllowedHeaders) > 0 {
		c.AllowHeaders = cfg.CORS.AllowedHeaders
	}
	if len(cfg.CORS.ExposedHeaders) > 0 {
		c.ExposeHeaders = cfg.CORS.ExposedHeaders
	}
	c.AllowCredentials = cfg.CORS.AllowCredentials
	if cfg.CORS.MaxAge > 0 {
		c.MaxAge = cfg.CORS.MaxAge
	}
	return c
}
