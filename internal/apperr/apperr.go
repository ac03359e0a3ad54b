// Package apperr 定义了业务层可恢复错误的统一分类。
// 核心组件只返回这些类型化的结果，由边界层决定给用户看的信息。
package apperr

import (
	"net/http"

	"github.com/pkg/errors"
)

var (
	// ErrNotFound 表示引用的用户/项目/文件/评论不存在
	ErrNotFound = errors.New("记录不存在")
	// ErrInvalidCredentials 表示密码不匹配
	ErrInvalidCredentials = errors.New("密码错误")
	// ErrInsufficientPoints 表示积分不足以兑换请求的置顶次数
	ErrInsufficientPoints = errors.New("积分不足")
	// ErrInsufficientTopUps 表示没有可用的置顶次数
	ErrInsufficientTopUps = errors.New("置顶次数不足")
	// ErrInvalidArgument 表示参数不合法，例如非正的兑换数量
	ErrInvalidArgument = errors.New("参数不合法")
	// ErrAlreadyExists 表示唯一键冲突，例如重复注册或重复点赞
	ErrAlreadyExists = errors.New("记录已存在")
	// ErrTooManyRequests 表示请求频率超限
	ErrTooManyRequests = errors.New("请求过于频繁，请稍后再试")
)

// InvalidArgument 包装一个带说明的参数错误，errors.Is 仍可识别为 ErrInvalidArgument
func InvalidArgument(msg string) error {
	return errors.Wrap(ErrInvalidArgument, msg)
}

// Status 把错误映射到HTTP状态码，未知错误视为内部错误
func Status(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, ErrInsufficientPoints),
		errors.Is(err, ErrInsufficientTopUps),
		errors.Is(err, ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, ErrAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, ErrTooManyRequests):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// IsBusiness 判断错误是否属于可向调用方直接展示的业务错误
func IsBusiness(err error) bool {
	return Status(err) != http.StatusInternalServerError
}
