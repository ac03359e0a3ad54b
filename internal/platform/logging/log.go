// Package logging 提供进程范围的结构化日志。
package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

var (
	logger *logrus.Logger
	// Log 是全局可用的日志入口，带有服务名等公共字段
	Log *logrus.Entry
)

// 测试等非main入口也需要一个可用的Log
func init() {
	Init("info", false)
}

// Init 按级别和格式初始化全局日志。json 为 true 时输出JSON，便于日志平台采集。
func Init(level string, json bool) {
	logger = logrus.New()
	logger.SetOutput(os.Stderr)

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)

	if json {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	Log = logger.WithFields(logrus.Fields{"service": "peer-review-backend"})
}
