// Package prover 提供本地证明器配置
package prover

// ProverOptions 本地证明器配置选项
type ProverOptions struct {
	// WorkerSlots 本地证明worker槽数量
	//
	// 本地证明是CPU密集的阻塞操作，槽数限制并发证明数，
	// 避免阻塞请求处理与轮询循环。
	WorkerSlots int `json:"worker_slots"`

	// SetupDir 封印后端设置产物目录（pk/vk落盘复用）
	//
	// 为空时设置只存在于进程内存中，每次启动重新生成。
	SetupDir string `json:"setup_dir"`
}

// UserProverConfig 用户侧本地证明器配置
type UserProverConfig struct {
	WorkerSlots *int    `json:"worker_slots,omitempty"`
	SetupDir    *string `json:"setup_dir,omitempty"`
}

// Config 本地证明器配置实现
type Config struct {
	options *ProverOptions
}

// New 创建本地证明器配置（默认值 + 用户覆盖）
func New(user *UserProverConfig) *Config {
	options := createDefaultProverOptions()
	if user != nil {
		if user.WorkerSlots != nil && *user.WorkerSlots > 0 {
			options.WorkerSlots = *user.WorkerSlots
		}
		if user.SetupDir != nil {
			options.SetupDir = *user.SetupDir
		}
	}
	return &Config{options: options}
}

// GetOptions 获取完整的本地证明器配置选项
func (c *Config) GetOptions() *ProverOptions {
	return c.options
}
