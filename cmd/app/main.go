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
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"linkgate/internal/handler"
	"linkgate/internal/i18n"
	"linkgate/internal/metrics"
	"linkgate/internal/middleware"
	"linkgate/internal/repository"
	"linkgate/internal/service"
	"linkgate/pkg/logging"
)

func initConfig() {
	wd, _ := os.Getwd()
	log.Printf("Loading config from: %s/config.yaml", wd)

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	if err := viper.ReadInConfig(); err != nil {
		log.Fatalf("Failed to read config file: %v", err)
	}
}

func startServer(r *gin.Engine) {
	addr := viper.GetString("server.addr")
	if addr == "" {
		addr = ":8080"
	}

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	// 启动服务器
	go func() {
		logging.Logger.Info("Server is running on " + addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// 等待中断信号以优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logging.Logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logging.Logger.Error("Server forced to shutdown", zap.Error(err))
	}

	if err := repository.RedisPool.Close(); err != nil {
		logging.Logger.Warn("Redis pool close failed", zap.Error(err))
	}

	logging.Logger.Info("Server exiting")
}

func main() {
	initConfig()
	logging.InitLoggerFromConfig()
	logging.Logger.Info("Application started")

	repository.InitRedis()
	store := repository.NewRedisStore(repository.RedisPool)

	// 初始化 i18n（加载 TOML 文件）
	i18nFiles := viper.GetStringSlice("i18n.files")
	if len(i18nFiles) == 0 {
		i18nFiles = []string{"./i18n/en.toml", "./i18n/zh.toml"}
	}
	bundle, err := i18n.InitI18n(i18nFiles, "en")
	if err != nil {
		logging.Logger.Fatal("Failed to init i18n", zap.Error(err))
	}

	baseURL := viper.GetString("server.base_url")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	linkSvc := service.NewLinkService(store)
	analyticsSvc := service.NewAnalyticsService(store)
	safetySvc := service.NewSafetyService(store, service.SafetyConfig{
		Endpoint: viper.GetString("safety.endpoint"),
		APIKey:   viper.GetString("safety.api_key"),
		Timeout:  time.Duration(viper.GetInt("safety.timeout_seconds")) * time.Second,
	})
	stateSvc := service.NewStateService(store)
	metadataSvc := service.NewMetadataService(store)
	qrSvc := service.NewQRService(viper.GetString("qr.endpoint"))

	linkHandler := handler.NewLinkHandler(linkSvc, analyticsSvc, safetySvc, baseURL)
	statsHandler := handler.NewStatsHandler(analyticsSvc)
	safetyHandler := handler.NewSafetyHandler(safetySvc)
	extraHandler := handler.NewExtraHandler(metadataSvc, qrSvc, stateSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.GlobalErrorMiddleware())
	r.Use(middleware.ZapGinLogger(logging.Logger))
	r.Use(middleware.CorsMiddleware())
	r.Use(middleware.I18nMiddleware(bundle))

	api := r.Group("/api")
	{
		api.POST("/link", linkHandler.CreateLink)
		api.GET("/link", linkHandler.ListLinks)
		api.PUT("/link/:code", linkHandler.UpdateLink)
		api.DELETE("/link/:code", linkHandler.DeleteLink)
		api.POST("/page", linkHandler.CreatePage)

		api.GET("/stats/:code", statsHandler.GetStats)
		api.GET("/stats/:code/export", statsHandler.ExportCSV)

		api.POST("/safety/check", safetyHandler.CheckURL)
		api.POST("/safety/report", safetyHandler.ReportURL)

		api.GET("/preview", extraHandler.Preview)
		api.GET("/qr", extraHandler.GenerateQR)
		api.GET("/preferences", extraHandler.GetPreferences)
		api.PUT("/preferences", extraHandler.SetPreferences)
	}

	r.GET("/bio/:code", linkHandler.ServeBioPage)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	// 根路径短码解析（避免与以上路由冲突，收尾用中间件捕获）
	r.Use(func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			return
		}
		linkHandler.Redirect(c)
	})

	// 定时任务：每十分钟做一次存储健康检查
	cr := cron.New()
	_, addErr := cr.AddFunc("*/10 * * * *", func() {
		conn := repository.RedisPool.Get()
		defer func() {
			if err := conn.Close(); err != nil {
				logging.Logger.Warn("Redis connection close failed", zap.Error(err))
			}
		}()
		if _, err := conn.Do("PING"); err != nil {
			logging.Logger.Error("Store health check failed", zap.Error(err))
			return
		}
		logging.Logger.Info("Store health check ok",
			zap.Int("active_connections", repository.RedisPool.ActiveCount()))
	})
	if addErr != nil {
		logging.Logger.Fatal("Failed to schedule health check job", zap.Error(addErr))
	}
	cr.Start()

	startServer(r)
}
