package comment

import "github.com/gin-gonic/gin"

// RegisterRoutes 注册 /comments 与 /likes 路由
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	comments := rg.Group("/comments")
	{
		comments.POST("", h.Create)
		comments.GET("/file/:id", h.ListByFile)
	}
	rg.GET("/likes", h.Like)
}
