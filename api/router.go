package api

import (
	"net/http"

	"github.com/SlpAus/peer-review-backend/internal/comment"
	"github.com/SlpAus/peer-review-backend/internal/file"
	"github.com/SlpAus/peer-review-backend/internal/platform/database"
	"github.com/SlpAus/peer-review-backend/internal/platform/metrics"
	"github.com/SlpAus/peer-review-backend/internal/project"
	"github.com/SlpAus/peer-review-backend/internal/user"
	"github.com/gin-gonic/gin"
)

// Handlers 汇总了所有模块的路由处理器
type Handlers struct {
	Users    *user.Handler
	Projects *project.Handler
	Files    *file.Handler
	Comments *comment.Handler
	Metrics  *metrics.Metrics
}

// SetupRoutes 注册项目的所有API路由以及运维端点
func SetupRoutes(router *gin.Engine, h Handlers) {
	api := router.Group("/api")
	{
		h.Users.RegisterRoutes(api)
		h.Projects.RegisterRoutes(api)
		h.Files.RegisterRoutes(api)
		h.Comments.RegisterRoutes(api)
	}

	if h.Metrics != nil {
		router.GET("/metrics", gin.WrapH(h.Metrics.Handler()))
	}
	router.GET("/healthz", healthz)
}

// healthz 报告进程存活以及Redis的健康状态，Redis故障不影响核心功能
func healthz(c *gin.Context) {
	redisStatus := "disabled"
	if database.RDB != nil {
		redisStatus = "down"
		if database.IsRedisHealthy() {
			redisStatus = "up"
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "redis": redisStatus})
}
