package project

import (
	"net/http"

	"github.com/SlpAus/peer-review-backend/internal/platform/httpx"
	"github.com/SlpAus/peer-review-backend/internal/platform/metrics"
	"github.com/gin-gonic/gin"
)

// Handler 持有项目相关路由的依赖
type Handler struct {
	svc     *Service
	metrics *metrics.Metrics
}

// NewHandler 创建项目处理器
func NewHandler(svc *Service, m *metrics.Metrics) *Handler {
	return &Handler{svc: svc, metrics: m}
}

// Create 处理项目上传
func (h *Handler) Create(c *gin.Context) {
	var body CreateInput
	if err := c.ShouldBindJSON(&body); err != nil {
		httpx.BadRequest(c, "请求格式错误: "+err.Error())
		return
	}
	p, err := h.svc.Create(c.Request.Context(), body)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// List 返回项目列表，可用 ?major= 过滤
func (h *Handler) List(c *gin.Context) {
	projects, err := h.svc.List(c.Request.Context(), c.Query("major"))
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, projects)
}

// ListByUser 返回某个用户的项目
func (h *Handler) ListByUser(c *gin.Context) {
	projects, err := h.svc.ListByUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, projects)
}

// Get 返回单个项目
func (h *Handler) Get(c *gin.Context) {
	p, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// Delete 删除项目及其文件
func (h *Handler) Delete(c *gin.Context) {
	id := c.Param("id")
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "项目已删除", "id": id})
}

// TopUp 处理 /projects/topup?user_id=&project_id=
func (h *Handler) TopUp(c *gin.Context) {
	userID, err := httpx.QueryString(c, "user_id")
	if err != nil {
		httpx.Error(c, err)
		return
	}
	projectID, err := httpx.QueryString(c, "project_id")
	if err != nil {
		httpx.Error(c, err)
		return
	}

	promotedAt, err := h.svc.TopUp(c.Request.Context(), userID, projectID)
	h.metrics.ObserveLedger("topup", err)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "项目已置顶", "isOnTopTime": promotedAt})
}

// CancelTopUp 处理 /projects/cancel_topup?project_id=
func (h *Handler) CancelTopUp(c *gin.Context) {
	projectID, err := httpx.QueryString(c, "project_id")
	if err != nil {
		httpx.Error(c, err)
		return
	}
	err = h.svc.CancelTopUp(c.Request.Context(), projectID)
	h.metrics.ObserveLedger("cancel_topup", err)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "已取消置顶"})
}
