package project

import "github.com/gin-gonic/gin"

// RegisterRoutes 在 /projects 路由组下注册项目相关的路由
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	projects := rg.Group("/projects")
	{
		projects.POST("", h.Create)
		projects.GET("", h.List)
		projects.GET("/topup", h.TopUp)
		projects.GET("/cancel_topup", h.CancelTopUp)
		projects.GET("/user/:id", h.ListByUser)
		projects.GET("/:id", h.Get)
		projects.DELETE("/:id", h.Delete)
	}
}
