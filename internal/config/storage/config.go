// Package storage 提供作业持久化存储配置
package storage

// StorageOptions 存储配置选项
type StorageOptions struct {
	// Path BadgerDB数据目录
	Path string `json:"path"`

	// InMemory 纯内存模式（测试用，不落盘）
	InMemory bool `json:"in_memory"`
}

// UserStorageConfig 用户侧存储配置
type UserStorageConfig struct {
	Path     *string `json:"path,omitempty"`
	InMemory *bool   `json:"in_memory,omitempty"`
}

// Config 存储配置实现
type Config struct {
	options *StorageOptions
}

// New 创建存储配置（默认值 + 用户覆盖）
func New(user *UserStorageConfig) *Config {
	options := createDefaultStorageOptions()
	if user != nil {
		if user.Path != nil {
			options.Path = *user.Path
		}
		if user.InMemory != nil {
			options.InMemory = *user.InMemory
		}
	}
	return &Config{options: options}
}

// GetOptions 获取完整的存储配置选项
func (c *Config) GetOptions() *StorageOptions {
	return c.options
}
