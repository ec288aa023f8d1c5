package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"attendance-backend/docs"
	"attendance-backend/internal/attendance"
	"attendance-backend/internal/correction"
	"attendance-backend/internal/platform/auth"
	"attendance-backend/internal/platform/config"
	"attendance-backend/internal/platform/db"
	"attendance-backend/internal/platform/middleware"
	"attendance-backend/internal/platform/validation"
)

// @title                      attendance-backend API
// @version                    1.0
// @BasePath                   /api/v1
// @securityDefinitions.apikey BearerAuth
// @in                         header
// @name                       Authorization
func main() {
	cfgPath := flag.String("config", config.DefaultPath, "path to config.yaml")
	flag.Parse()

	// 設定読み込み
	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("[INFO] mode:%s timezone:%s\n", cfg.Mode, cfg.Timezone)

	if err := validation.Register(); err != nil {
		log.Fatal(err)
	}

	conn, err := db.Connect(cfg.DB)
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Close()

	log.Printf("[INFO] connected to DB: %s", cfg.DB.DBName)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logger(), gin.Recovery())
	_ = r.SetTrustedProxies(nil)

	if cfg.Mode == "dev" {
		// CORS（開発中のみ必要）
		origins := cfg.Server.AllowOrigins
		if len(origins) == 0 {
			origins = []string{"http://localhost:3000"}
		}
		r.Use(cors.New(cors.Config{
			AllowOrigins:     origins,
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.HeaderRequestID},
			ExposeHeaders:    []string{"Content-Length", "Location", middleware.HeaderRequestID},
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowCredentials: true,
		}))
	}

	// ヘルス
	r.GET("/healthz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := conn.PingContext(ctx); err != nil {
			c.String(http.StatusServiceUnavailable, "db unavailable")
			return
		}
		c.String(http.StatusOK, "ok")
	})

	docs.SwaggerInfo.Version = cfg.Version
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	loc := cfg.Location()
	secret := []byte(cfg.Auth.JWTSecret)

	attendanceSvc := attendance.NewService(conn, loc)
	correctionSvc := correction.NewService(conn, attendanceSvc, loc)
	authSvc := auth.NewService(auth.NewStore(conn), secret, cfg.TokenTTL())

	// /api/v1
	api := r.Group("/api/v1")
	private := api.Group("", auth.RequireAuth(secret))
	hr := private.Group("", auth.RequireRole(auth.RoleHR))

	auth.RegisterRoutes(api, hr, authSvc)
	attendance.RegisterRoutes(private, attendanceSvc)
	correction.RegisterRoutes(private, hr, correctionSvc)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		var err error
		if cfg.TLSEnabled() {
			certFile, keyFile := cfg.CertFiles()
			log.Printf("[INFO] listening on https://0.0.0.0%s", cfg.Server.Addr)
			err = srv.ListenAndServeTLS(certFile, keyFile)
		} else {
			log.Printf("[WARN] certificate not configured, listening on http://0.0.0.0%s", cfg.Server.Addr)
			err = srv.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Println("[INFO] shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal(err)
	}
}
