package user

import "github.com/gin-gonic/gin"

// RegisterRoutes 在 /users 路由组下注册用户相关的路由
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	users := rg.Group("/users")
	{
		users.POST("", h.Register)
		users.GET("", h.List)
		users.POST("/login", h.Login)
		users.GET("/logout/:id", h.Logout)
		users.GET("/exchange_topup", h.ExchangeTopUps)
		users.GET("/top10", h.Top10)
		users.GET("/:id", h.Get)
		users.DELETE("/:id", h.Delete)
	}
}
