package user

import (
	"net/http"
	"time"

	"github.com/SlpAus/peer-review-backend/internal/apperr"
	"github.com/SlpAus/peer-review-backend/internal/platform/httpx"
	"github.com/SlpAus/peer-review-backend/internal/platform/logging"
	"github.com/SlpAus/peer-review-backend/internal/platform/metrics"
	"github.com/SlpAus/peer-review-backend/internal/platform/ratelimit"
	"github.com/gin-gonic/gin"
)

// LoginRequestBody 定义了登录请求体
type LoginRequestBody struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Handler 持有用户相关路由的依赖
type Handler struct {
	svc     *Service
	limiter *ratelimit.Limiter
	metrics *metrics.Metrics
}

// NewHandler 创建用户处理器，limiter 与 m 可以为nil
func NewHandler(svc *Service, limiter *ratelimit.Limiter, m *metrics.Metrics) *Handler {
	return &Handler{svc: svc, limiter: limiter, metrics: m}
}

// Register 处理注册请求
func (h *Handler) Register(c *gin.Context) {
	var body RegisterInput
	if err := c.ShouldBindJSON(&body); err != nil {
		httpx.BadRequest(c, "请求格式错误: "+err.Error())
		return
	}
	view, err := h.svc.Register(c.Request.Context(), body)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// List 返回所有用户
func (h *Handler) List(c *gin.Context) {
	views, err := h.svc.List(c.Request.Context())
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

// Get 返回单个用户，不包含密码
func (h *Handler) Get(c *gin.Context) {
	view, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// Delete 删除用户
func (h *Handler) Delete(c *gin.Context) {
	id := c.Param("id")
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "用户已删除", "id": id})
}

// Login 处理登录请求。同一IP在窗口内的全部尝试(包括成功的)都计入限额，成功登录不会清空窗口。
func (h *Handler) Login(c *gin.Context) {
	ctx := c.Request.Context()
	ip := c.ClientIP()

	decision, err := h.limiter.Allow(ctx, ip, time.Now())
	if err != nil {
		logging.Log.WithField("ip", ip).WithError(err).Warn("登录限流检查失败，本次放行")
	}
	if !decision.Allowed {
		h.metrics.RecordRateLimitHit(c.FullPath())
		httpx.Error(c, apperr.ErrTooManyRequests)
		return
	}

	var body LoginRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		httpx.BadRequest(c, "请求格式错误: "+err.Error())
		return
	}
	view, err := h.svc.Login(ctx, body.Email, body.Password)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// Logout 结束会话，无论用户是否存在都返回成功
func (h *Handler) Logout(c *gin.Context) {
	if err := h.svc.Logout(c.Request.Context(), c.Param("id")); err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "已登出"})
}

// ExchangeTopUps 处理 /users/exchange_topup?user_id=&exchangeTopNum=
func (h *Handler) ExchangeTopUps(c *gin.Context) {
	userID, err := httpx.QueryString(c, "user_id")
	if err != nil {
		httpx.Error(c, err)
		return
	}
	n, err := httpx.QueryInt(c, "exchangeTopNum")
	if err != nil {
		httpx.Error(c, err)
		return
	}

	err = h.svc.ExchangeTopUps(c.Request.Context(), userID, n)
	h.metrics.ObserveLedger("exchange", err)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "兑换成功"})
}

// Top10 返回积分最高的十位用户
func (h *Handler) Top10(c *gin.Context) {
	views, err := h.svc.Top10(c.Request.Context())
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, views)
}
