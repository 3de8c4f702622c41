package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/NEhIL06/Ecosap/config"
	"github.com/NEhIL06/Ecosap/middleware"
	"github.com/NEhIL06/Ecosap/service"
)

// NewRouter 注册中间件与路由
func NewRouter(cfg *config.Config, analyzer *service.Analyzer, build BuildInfo) *gin.Engine {
	r := gin.New()
	r.MaxMultipartMemory = cfg.Upload.MaxSize
	r.Use(middleware.RequestID())
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS())

	status := NewStatusHandler(analyzer.Segmenter(), build)
	area := NewAreaHandler(cfg, analyzer)
	credits := NewCreditsHandler(cfg, analyzer)

	r.GET("/", status.Root)
	r.GET("/health", status.Health)
	r.GET("/version", status.Version)

	r.POST("/area", area.Analyze)
	r.GET("/area/:md5", area.GetByMD5)
	r.POST("/credits", credits.Estimate)

	return r
}
