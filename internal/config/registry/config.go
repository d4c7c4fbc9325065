// Package registry 提供程序注册表配置
package registry

// RegistryOptions 程序注册表配置选项
type RegistryOptions struct {
	// ManifestPath 程序清单文件路径（JSON：name → 镜像描述）
	ManifestPath string `json:"manifest_path"`

	// BuiltinPrograms 是否注册进程内置guest程序（mod-exp / is-even）
	BuiltinPrograms bool `json:"builtin_programs"`
}

// UserRegistryConfig 用户侧注册表配置
type UserRegistryConfig struct {
	ManifestPath    *string `json:"manifest_path,omitempty"`
	BuiltinPrograms *bool   `json:"builtin_programs,omitempty"`
}

// Config 注册表配置实现
type Config struct {
	options *RegistryOptions
}

// New 创建注册表配置（默认值 + 用户覆盖）
func New(user *UserRegistryConfig) *Config {
	options := createDefaultRegistryOptions()
	if user != nil {
		if user.ManifestPath != nil {
			options.ManifestPath = *user.ManifestPath
		}
		if user.BuiltinPrograms != nil {
			options.BuiltinPrograms = *user.BuiltinPrograms
		}
	}
	return &Config{options: options}
}

// GetOptions 获取完整的注册表配置选项
func (c *Config) GetOptions() *RegistryOptions {
	return c.options
}
