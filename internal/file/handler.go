package file

import (
	"net/http"

	"github.com/SlpAus/peer-review-backend/internal/model"
	"github.com/SlpAus/peer-review-backend/internal/platform/httpx"
	"github.com/gin-gonic/gin"
)

// CreateRequestBody 是上传单个文件的请求体
type CreateRequestBody struct {
	Project string `json:"project" binding:"required"`
	Title   string `json:"title" binding:"required"`
	Content string `json:"content"`
}

// Handler 持有文件相关路由的依赖
type Handler struct {
	repo *Repository
}

// NewHandler 创建文件处理器
func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

// Create 在项目下上传一个文件
func (h *Handler) Create(c *gin.Context) {
	var body CreateRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		httpx.BadRequest(c, "请求格式错误: "+err.Error())
		return
	}
	f := &model.File{ProjectID: body.Project, Title: body.Title, Content: body.Content}
	if err := h.repo.Create(c.Request.Context(), f); err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, f)
}

// ListByProject 返回项目下的全部文件
func (h *Handler) ListByProject(c *gin.Context) {
	files, err := h.repo.ListByProject(c.Request.Context(), c.Param("id"))
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, files)
}

// Get 返回单个文件
func (h *Handler) Get(c *gin.Context) {
	f, err := h.repo.FindByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, f)
}

// RegisterRoutes 在 /files 路由组下注册文件相关的路由
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	files := rg.Group("/files")
	{
		files.POST("", h.Create)
		files.GET("/project/:id", h.ListByProject)
		files.GET("/:id", h.Get)
	}
}
