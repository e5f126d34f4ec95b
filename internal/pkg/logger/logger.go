package logger

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/qs3c/contract_critic/config"
)

var logg = newDefault()

func newDefault() *logrus.Logger {
	l := logrus.New()
	l.SetFormatter(&logrus.JSONFormatter{})
	l.SetLevel(logrus.InfoLevel)
	l.SetOutput(os.Stdout)
	return l
}

// Init 按配置设置全局日志格式与级别
func Init(cfg *config.LogConfig) {
	if cfg == nil {
		return
	}

	if strings.EqualFold(cfg.Format, "text") {
		logg.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logg.SetFormatter(&logrus.JSONFormatter{})
	}

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logg.SetLevel(level)
}

// SetOutput 测试中可以重定向输出
func SetOutput(w io.Writer) {
	logg.SetOutput(w)
}

// Get 返回全局 logger
func Get() *logrus.Logger {
	return logg
}

func WithFields(fields logrus.Fields) *logrus.Entry {
	return logg.WithFields(fields)
}

func Infof(format string, args ...interface{}) {
	logg.Infof(format, args...)
}

func Warnf(format string, args ...interface{}) {
	logg.Warnf(format, args...)
}

func Errorf(format string, args ...interface{}) {
	logg.Errorf(format, args...)
}

func Fatalf(format string, args ...interface{}) {
	logg.Fatalf(format, args...)
}

// LogError 带模块和函数名的错误日志
func LogError(module, funcName string, data any, err error) {
	fields := logrus.Fields{
		"module":   module,
		"funcName": funcName,
	}
	if data != nil {
		fields["data"] = data
	}
	logg.WithFields(fields).Error(err.Error())
}
