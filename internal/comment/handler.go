package comment

import (
	"net/http"

	"github.com/SlpAus/peer-review-backend/internal/platform/httpx"
	"github.com/gin-gonic/gin"
)

// Handler 持有评论与点赞路由的依赖
type Handler struct {
	svc *Service
}

// NewHandler 创建评论处理器
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Create 处理发表评论
func (h *Handler) Create(c *gin.Context) {
	var body CreateInput
	if err := c.ShouldBindJSON(&body); err != nil {
		httpx.BadRequest(c, "请求格式错误: "+err.Error())
		return
	}
	comment, err := h.svc.Create(c.Request.Context(), body)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, comment)
}

// ListByFile 处理 /comments/file/:id?user_id=
func (h *Handler) ListByFile(c *gin.Context) {
	comments, err := h.svc.ListByFile(c.Request.Context(), c.Param("id"), c.Query("user_id"))
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, comments)
}

// Like 处理 /likes?user_id=&comment_id=
func (h *Handler) Like(c *gin.Context) {
	userID, err := httpx.QueryString(c, "user_id")
	if err != nil {
		httpx.Error(c, err)
		return
	}
	commentID, err := httpx.QueryString(c, "comment_id")
	if err != nil {
		httpx.Error(c, err)
		return
	}
	if err := h.svc.Like(c.Request.Context(), userID, commentID); err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "点赞成功"})
}
