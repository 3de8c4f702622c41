package utils

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const serviceField = "tree-crown-analyzer"

// Logger 全局日志，InitLogger 之前为空实现
var Logger = zap.NewNop()

// InitLogger release 模式输出 JSON，其余模式输出彩色控制台日志
//
// level 为空时使用模式默认级别 (release: info, 其他: debug)。
func InitLogger(mode, level string) error {
	var config zap.Config

	if mode == "release" {
		config = zap.NewProductionConfig()
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	if level != "" {
		lvl, err := zapcore.ParseLevel(level)
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", level, err)
		}
		config.Level = zap.NewAtomicLevelAt(lvl)
	}

	logger, err := config.Build(zap.Fields(zap.String("service", serviceField)))
	if err != nil {
		return err
	}

	Logger = logger
	return nil
}

func Sync() {
	_ = Logger.Sync()
}
