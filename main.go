package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/NEhIL06/Ecosap/config"
	"github.com/NEhIL06/Ecosap/handler"
	"github.com/NEhIL06/Ecosap/inference"
	"github.com/NEhIL06/Ecosap/service"
	"github.com/NEhIL06/Ecosap/utils"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	BuildID   = "unknown"
	GitCommit = "unknown"
	GitBranch = "unknown"
)

func main() {
	// 加载配置
	cfg := config.New()

	// 初始化日志
	if err := utils.InitLogger(cfg.Server.Mode, cfg.Log.Level); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer utils.Sync()

	utils.Logger.Info("starting tree crown analyzer",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("git_commit", GitCommit),
		zap.String("git_branch", GitBranch))

	// 模型只在启动时加载一次，所有请求共享
	segmenter := loadSegmenter(&cfg.Inference)
	defer segmenter.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var cache service.DetectionCache
	if cfg.Redis.Enabled {
		redisService := service.NewRedisService(&cfg.Redis)
		if err := redisService.Ping(ctx); err != nil {
			utils.Logger.Warn("redis connection failed, cache disabled", zap.Error(err))
			_ = redisService.Close()
		} else {
			utils.Logger.Info("redis connected successfully", zap.String("addr", cfg.Redis.Addr))
			cache = redisService
			defer redisService.Close()
		}
	}

	analyzer := service.NewAnalyzer(segmenter, cache, inference.OptionsFromConfig(&cfg.Inference))

	gin.SetMode(cfg.Server.Mode)
	router := handler.NewRouter(cfg, analyzer, handler.BuildInfo{
		Version:   Version,
		BuildTime: BuildTime,
		BuildID:   BuildID,
		GitCommit: GitCommit,
		GitBranch: GitBranch,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		utils.Logger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.Logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	utils.Logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		utils.Logger.Error("server shutdown failed", zap.Error(err))
	}
}

func loadSegmenter(cfg *config.InferenceConfig) inference.Segmenter {
	seg, err := inference.NewYOLOSegmenter(cfg)
	if err != nil {
		utils.Logger.Error("failed to load segmentation model, requests will fail until restarted",
			zap.String("model_path", cfg.ModelPath), zap.Error(err))
		return inference.Unavailable(cfg.ModelPath, err)
	}
	return seg
}
