package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Churchly/controllers"
	"github.com/Churchly/initializers"
	"github.com/Churchly/metrics"
	"github.com/Churchly/middlewares"
	"github.com/Churchly/models"
	"github.com/Churchly/repositories"
	"github.com/Churchly/services"
)

func init() {
	initializers.LoadEnv()
	initializers.InitLogger(initializers.Cfg)
	gin.SetMode(initializers.Cfg.GinMode)
	models.RegisterValidations()

	initializers.ConnectDB()
	initializers.ConnectMongo()

	repo := repositories.NewPrayerRequestRepo(initializers.Mongo, initializers.Cfg.PrayerRequestTTL)
	ctx, cancel := context.WithTimeout(context.Background(), initializers.Cfg.MongoTimeout)
	defer cancel()
	if err := repo.EnsureIndexes(ctx); err != nil {
		initializers.Log.WithError(err).Fatal("failed to create prayer request indexes")
	}
	repositories.PrayerRequests = repo

	services.InitPushNotificationService()
	services.InitEmailService()
}

func setupRouter() *gin.Engine {
	router := gin.New()
	router.Use(middlewares.RequestID, middlewares.RequestLogger, gin.Recovery(), middlewares.Metrics)

	getKey := func(c *gin.Context) string {
		if gin.Mode() == gin.DebugMode {
			return c.FullPath()
		}
		return c.ClientIP()
	}

	router.GET("/metrics", gin.WrapH(metrics.Handler()))
	router.GET("/ping", middlewares.RateLimitMiddleware(2, 2, getKey), controllers.Ping)
	router.GET("/health", controllers.Health)

	router.POST("/auth/signup", middlewares.RateLimitMiddleware(2, 2, getKey), controllers.UserSignup)
	router.POST("/auth/login", middlewares.RateLimitMiddleware(2, 2, getKey), controllers.UserLogin)
	router.POST("/auth/admin/login", middlewares.RateLimitMiddleware(2, 2, getKey), controllers.AdminLogin)

	// Password reset endpoints
	router.POST("/auth/forgot-password", middlewares.RateLimitMiddleware(2, 2, getKey), controllers.ForgotPassword)
	router.POST("/auth/verify-reset-code", middlewares.RateLimitMiddleware(5, 5, getKey), controllers.VerifyResetCode)
	router.POST("/auth/reset-password", middlewares.RateLimitMiddleware(2, 2, getKey), controllers.ResetPassword)

	auth := router.Group("/")
	auth.Use(middlewares.CheckAuth)
	auth.Use(middlewares.RateLimitMiddleware(10, 10, getKey))
	{
		// profile
		auth.GET("/users/profile", controllers.GetUserProfile)
		auth.PATCH("/users/profile", controllers.UpdateUserProfile)
		auth.DELETE("/users/profile", controllers.DeleteUserAccount)
		auth.PATCH("/users/profile/password", controllers.ChangeUserPassword)
		auth.POST("/users/push-token", controllers.StorePushToken)

		// notifications
		auth.GET("/users/notifications", controllers.GetUserNotifications)
		auth.PATCH("/users/notifications/mark-all-read", controllers.MarkAllNotificationsAsRead)
		auth.PATCH("/users/notifications/:notification_id", controllers.ToggleUserNotificationStatus)
		auth.DELETE("/users/notifications/:notification_id", controllers.DeleteUserNotification)

		// prayer wall
		auth.GET("/api/prayers", controllers.GetPrayerRequests)
		auth.POST("/api/prayers", controllers.CreatePrayerRequest)
		auth.GET("/api/prayers/:id", controllers.GetPrayerRequest)
		auth.DELETE("/api/prayers/:id", controllers.DeletePrayerRequest)
		auth.POST("/api/prayers/:id/responses", controllers.RespondToPrayerRequest)

		// testimonies
		auth.GET("/api/testimonies", controllers.GetTestimonies)
		auth.POST("/api/testimonies", controllers.CreateTestimony)
		auth.GET("/api/testimonies/:id", controllers.GetTestimony)
		auth.DELETE("/api/testimonies/:id", controllers.DeleteTestimony)
		auth.POST("/api/testimonies/:id/reactions", controllers.ReactToTestimony)

		auth.GET("/announcements", controllers.GetAnnouncements)
		auth.GET("/announcements/:announcement_id", controllers.GetAnnouncement)
		auth.GET("/events", controllers.GetEvents)
		auth.GET("/events/:event_id", controllers.GetEvent)
	}

	portal := auth.Group("/admin")
	portal.Use(middlewares.RequireRole(models.RoleAdmin, models.RoleYouthLeader))
	{
		portal.POST("/announcements", controllers.CreateAnnouncement)
		portal.PUT("/announcements/:announcement_id", controllers.UpdateAnnouncement)
		portal.DELETE("/announcements/:announcement_id", controllers.DeleteAnnouncement)

		portal.POST("/events", controllers.CreateEvent)
		portal.PUT("/events/:event_id", controllers.UpdateEvent)
		portal.DELETE("/events/:event_id", controllers.DeleteEvent)
	}

	admin := auth.Group("/admin")
	admin.Use(middlewares.CheckAdmin)
	{
		admin.GET("/users", controllers.GetAdminUsers)
		admin.GET("/users/:user_profile_id", controllers.GetAdminUser)
		admin.DELETE("/users/:user_profile_id", controllers.DeleteAdminUser)
		admin.PATCH("/users/:user_profile_id/role", controllers.UpdateUserRole)
		admin.GET("/roles", controllers.GetRoles)
		admin.GET("/stats", controllers.GetAdminStats)
		admin.POST("/notifications/send", controllers.SendPushNotification)
	}

	return router
}

func main() {
	log := initializers.Log

	scheduler := services.NewScheduler()
	if err := scheduler.RegisterDefaultJobs(initializers.Cfg); err != nil {
		log.WithError(err).Fatal("failed to register scheduled jobs")
	}
	err := scheduler.AddJob("limiter_prune", "@every 5m", func(now time.Time) error {
		if pruned := middlewares.PruneLimiters(now); pruned > 0 {
			log.WithField("pruned", pruned).Debug("pruned idle rate limiters")
		}
		return nil
	})
	if err != nil {
		log.WithError(err).Fatal("failed to register limiter prune job")
	}
	scheduler.Start()

	srv := &http.Server{
		Addr:              ":" + initializers.Cfg.Port,
		Handler:           setupRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.WithField("port", initializers.Cfg.Port).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server failed")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("server shutdown failed")
	}
	scheduler.Stop(shutdownCtx)
	initializers.DisconnectMongo(shutdownCtx)
}
