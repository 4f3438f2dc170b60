package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/imayankmani/attendance-management-system/internal/activity"
	"github.com/imayankmani/attendance-management-system/internal/attendance"
	"github.com/imayankmani/attendance-management-system/internal/class"
	"github.com/imayankmani/attendance-management-system/internal/config"
	"github.com/imayankmani/attendance-management-system/internal/gateway"
	"github.com/imayankmani/attendance-management-system/internal/httpapi"
	"github.com/imayankmani/attendance-management-system/internal/hub"
	"github.com/imayankmani/attendance-management-system/internal/mailer"
	"github.com/imayankmani/attendance-management-system/internal/queue"
	"github.com/imayankmani/attendance-management-system/internal/recognizer"
	"github.com/imayankmani/attendance-management-system/internal/report"
	"github.com/imayankmani/attendance-management-system/internal/store"
	"github.com/imayankmani/attendance-management-system/internal/student"
)

func main() {
	cfg := config.Load()

	if cfg.Env == "production" || cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := run(cfg); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}

func run(cfg config.App) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	redisClient := store.NewRedis(cfg.RedisAddr)
	defer redisClient.Close()

	var jobs queue.Queue
	if cfg.QueueBackend == "memory" {
		jobs = queue.NewInMemory(64)
	} else {
		jobs = queue.NewRedisQueue(redisClient.Client, "attendance:enroll")
	}

	activityLog := activity.NewLog(db.Client)

	studentRepo := student.NewRepository(db.Client)
	students := student.NewService(studentRepo, activityLog, jobs)

	classRepo := class.NewRepository(db.Client)
	classes := class.NewService(classRepo, activityLog, time.Duration(cfg.LookaheadMinutes)*time.Minute)

	attRepo := attendance.NewRepository(db.Client)
	att := attendance.NewService(attRepo, activityLog)

	reports := report.NewService(db.Client)

	broadcastHub := hub.New()
	go broadcastHub.Run(ctx)

	rec := recognizer.NewSubprocess(cfg.PythonBin, cfg.FrameScript, cfg.EnrollScript, cfg.FrameTimeout)
	gw, err := gateway.New(rec, att, broadcastHub, cfg.UploadDir)
	if err != nil {
		return err
	}

	mail := mailer.New(cfg.SendGridAPIKey, cfg.EmailFrom)
	if mail.Configured() {
		log.Printf("email configured, sending as %s", cfg.EmailFrom)
	} else {
		log.Println("email not configured (SENDGRID_API_KEY / EMAIL_FROM not set)")
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(securityHeaders())
	r.MaxMultipartMemory = cfg.MaxUploadMB << 20

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/healthz", func(c *gin.Context) {
		dbHealthy := db.Client.PingContext(c.Request.Context()) == nil
		redisHealthy := redisClient.Healthy(c.Request.Context())
		status := http.StatusOK
		if !dbHealthy {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"status": "ok", "db": dbHealthy, "redis": redisHealthy})
	})

	handler := httpapi.New(cfg, students, classes, att, reports, gw, broadcastHub, mail, activityLog)
	handler.Register(r)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  90 * time.Second,
	}

	go func() {
		log.Printf("starting server on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server forced shutdown: %v", err)
	}

	log.Println("server exited")
	return nil
}

// Security headers middleware
func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}
