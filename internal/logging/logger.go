package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/any-hub/symhub/internal/version"
)

// Options 描述日志输出，由 main 从全局配置转换而来。
type Options struct {
	Level      string
	FilePath   string
	MaxSize    int
	MaxBackups int
	Compress   bool
}

// InitLogger 初始化 JSON 结构化日志，确保文件/控制台输出一致。
// 每条日志都带有 service/version 字段；包级 logrus 也会同步配置。
func InitLogger(opts Options) (*logrus.Logger, error) {
	rawLevel := opts.Level
	if rawLevel == "" {
		rawLevel = "info"
	}
	level, err := logrus.ParseLevel(rawLevel)
	if err != nil {
		return nil, fmt.Errorf("无法解析日志级别: %w", err)
	}

	output, outErr := buildOutput(opts)
	if outErr != nil {
		fmt.Fprintf(os.Stderr, "logger_fallback: %v\n", outErr)
	}

	logger := logrus.New()
	logger.SetLevel(level)
	logger.SetOutput(output)
	logger.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	logger.AddHook(newDefaultFieldsHook())

	logrus.SetFormatter(logger.Formatter)
	logrus.SetOutput(logger.Out)
	logrus.SetLevel(logger.GetLevel())

	if outErr != nil {
		logger.WithFields(logrus.Fields{
			"action":          "logger_fallback",
			"path":            opts.FilePath,
			"logger_fallback": "stdout",
		}).Warn(outErr.Error())
	}

	return logger, nil
}

// buildOutput 创建日志输出 Writer；失败时降级到 stdout 并返回错误。
func buildOutput(opts Options) (io.Writer, error) {
	if opts.FilePath == "" {
		return os.Stdout, nil
	}

	dir := filepath.Dir(opts.FilePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return os.Stdout, fmt.Errorf("创建日志目录失败: %w", err)
	}

	rotator := &lumberjack.Logger{
		Filename:   opts.FilePath,
		MaxSize:    opts.MaxSize,
		MaxBackups: opts.MaxBackups,
		Compress:   opts.Compress,
		LocalTime:  true,
	}
	return rotator, nil
}

// defaultFieldsHook 为每条日志补齐进程级字段，不覆盖调用方显式设置的同名字段。
type defaultFieldsHook struct {
	fields logrus.Fields
}

func newDefaultFieldsHook() *defaultFieldsHook {
	return &defaultFieldsHook{fields: logrus.Fields{
		"service": "symhub",
		"version": version.Version,
	}}
}

func (h *defaultFieldsHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *defaultFieldsHook) Fire(entry *logrus.Entry) error {
	for key, value := range h.fields {
		if _, ok := entry.Data[key]; !ok {
			entry.Data[key] = value
		}
	}
	return nil
}
