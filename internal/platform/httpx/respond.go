// Package httpx 提供各个模块共用的HTTP响应辅助函数。
package httpx

import (
	"net/http"
	"strconv"

	"github.com/SlpAus/peer-review-backend/internal/apperr"
	"github.com/SlpAus/peer-review-backend/internal/platform/logging"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Error 根据错误类别写入 {"error": "..."} 响应。
// 业务错误直接返回错误信息，其余错误只记录日志，对外返回通用信息。
func Error(c *gin.Context, err error) {
	status := apperr.Status(err)
	if status == http.StatusInternalServerError {
		logging.Log.WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.FullPath(),
		}).WithError(err).Error("处理请求时发生内部错误")
		c.AbortWithStatusJSON(status, gin.H{"error": "服务器内部错误"})
		return
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

// BadRequest 是请求格式错误的快捷方式
func BadRequest(c *gin.Context, msg string) {
	Error(c, apperr.InvalidArgument(msg))
}

// QueryInt 读取一个必填的整数查询参数
func QueryInt(c *gin.Context, name string) (int, error) {
	raw, ok := c.GetQuery(name)
	if !ok || raw == "" {
		return 0, apperr.InvalidArgument("缺少参数: " + name)
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.InvalidArgument("参数必须为整数: " + name)
	}
	return n, nil
}

// QueryString 读取一个必填的字符串查询参数
func QueryString(c *gin.Context, name string) (string, error) {
	v := c.Query(name)
	if v == "" {
		return "", apperr.InvalidArgument("缺少参数: " + name)
	}
	return v, nil
}
