// Package log 提供日志模块配置
package log

import (
	"go.uber.org/zap/zapcore"
)

// LogOptions 日志配置选项
type LogOptions struct {
	// === 基础配置 ===
	Level     string `json:"level"`      // 日志级别 (debug, info, warn, error, fatal)
	ToConsole bool   `json:"to_console"` // 是否输出到控制台
	FilePath  string `json:"file_path"`  // 日志文件路径（空表示不写文件）

	// === 轮转配置 ===
	MaxSize    int  `json:"max_size"`    // 单个日志文件最大大小(MB)
	MaxBackups int  `json:"max_backups"` // 最大备份文件数
	MaxAge     int  `json:"max_age"`     // 日志文件最大保留天数
	Compress   bool `json:"compress"`    // 是否压缩历史日志文件

	// === 调试配置 ===
	EnableCaller bool `json:"enable_caller"` // 是否启用调用者信息
}

// UserLogConfig 用户侧日志配置（JSON配置文件中的log段，指针字段表示"未指定"）
type UserLogConfig struct {
	Level     *string `json:"level,omitempty"`
	ToConsole *bool   `json:"to_console,omitempty"`
	FilePath  *string `json:"file_path,omitempty"`
}

// Config 日志配置实现
type Config struct {
	options *LogOptions
}

// New 创建日志配置（默认值 + 用户覆盖）
func New(user *UserLogConfig) *Config {
	options := createDefaultLogOptions()
	if user != nil {
		if user.Level != nil {
			options.Level = *user.Level
		}
		if user.FilePath != nil {
			options.FilePath = *user.FilePath
			// 指定文件路径时默认不输出到控制台
			options.ToConsole = false
		}
		if user.ToConsole != nil {
			options.ToConsole = *user.ToConsole
		}
	}
	return &Config{options: options}
}

// GetOptions 获取完整的日志配置选项
func (c *Config) GetOptions() *LogOptions {
	return c.options
}

// GetZapLevel 获取zap日志级别
func (c *Config) GetZapLevel() zapcore.Level {
	if level, exists := defaultLevelMap[c.options.Level]; exists {
		return level
	}
	return zapcore.InfoLevel
}
