// Package logging 构造服务使用的 logrus 日志器。
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// New 按级别与格式构造日志器；无法识别的级别回退为 info，format 为 "json" 时输出 JSON。
func New(level, format string) *logrus.Logger {
	return NewWithWriter(os.Stdout, level, format)
}

// NewWithWriter 与 New 相同，但允许指定输出位置
func NewWithWriter(w io.Writer, level, format string) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(w)

	lvl, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)

	if strings.EqualFold(strings.TrimSpace(format), "json") {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return log
}

// Discard 返回丢弃所有输出的日志器，供测试使用
func Discard() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	log.SetLevel(logrus.PanicLevel)
	return log
}
