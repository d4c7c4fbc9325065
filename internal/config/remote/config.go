// Package remote 提供远程证明服务客户端配置
package remote

import "time"

// RemoteOptions 远程证明客户端配置选项
type RemoteOptions struct {
	// === 服务端点 ===
	Endpoint string `json:"endpoint"` // 远程证明服务基础URL
	APIKey   string `json:"api_key"`  // Bearer凭证

	// === 单次请求 ===
	RequestTimeout time.Duration `json:"request_timeout"` // 单次HTTP调用超时

	// === 提交重试（仅针对瞬时错误） ===
	SubmitRetries int           `json:"submit_retries"` // 同参重试上限
	SubmitBackoff time.Duration `json:"submit_backoff"` // 重试基础退避

	// === 轮询节奏 ===
	PollInitialInterval time.Duration `json:"poll_initial_interval"` // 初始轮询间隔
	PollBackoffFactor   float64       `json:"poll_backoff_factor"`   // 退避倍率
	PollMaxInterval     time.Duration `json:"poll_max_interval"`     // 间隔封顶
	PollTimeout         time.Duration `json:"poll_timeout"`          // 整体轮询超时
}

// UserRemoteConfig 用户侧远程证明客户端配置
type UserRemoteConfig struct {
	Endpoint            *string `json:"endpoint,omitempty"`
	APIKey              *string `json:"api_key,omitempty"`
	RequestTimeoutSec   *int    `json:"request_timeout_sec,omitempty"`
	SubmitRetries       *int    `json:"submit_retries,omitempty"`
	PollInitialSec      *int    `json:"poll_initial_sec,omitempty"`
	PollBackoffFactor   *float64 `json:"poll_backoff_factor,omitempty"`
	PollMaxIntervalSec  *int    `json:"poll_max_interval_sec,omitempty"`
	PollTimeoutMin      *int    `json:"poll_timeout_min,omitempty"`
}

// Config 远程证明客户端配置实现
type Config struct {
	options *RemoteOptions
}

// New 创建远程证明客户端配置（默认值 + 用户覆盖）
func New(user *UserRemoteConfig) *Config {
	options := createDefaultRemoteOptions()
	if user != nil {
		if user.Endpoint != nil {
			options.Endpoint = *user.Endpoint
		}
		if user.APIKey != nil {
			options.APIKey = *user.APIKey
		}
		if user.RequestTimeoutSec != nil && *user.RequestTimeoutSec > 0 {
			options.RequestTimeout = time.Duration(*user.RequestTimeoutSec) * time.Second
		}
		if user.SubmitRetries != nil && *user.SubmitRetries >= 0 {
			options.SubmitRetries = *user.SubmitRetries
		}
		if user.PollInitialSec != nil && *user.PollInitialSec > 0 {
			options.PollInitialInterval = time.Duration(*user.PollInitialSec) * time.Second
		}
		if user.PollBackoffFactor != nil && *user.PollBackoffFactor >= 1 {
			options.PollBackoffFactor = *user.PollBackoffFactor
		}
		if user.PollMaxIntervalSec != nil && *user.PollMaxIntervalSec > 0 {
			options.PollMaxInterval = time.Duration(*user.PollMaxIntervalSec) * time.Second
		}
		if user.PollTimeoutMin != nil && *user.PollTimeoutMin > 0 {
			options.PollTimeout = time.Duration(*user.PollTimeoutMin) * time.Minute
		}
	}
	return &Config{options: options}
}

// GetOptions 获取完整的远程证明客户端配置选项
func (c *Config) GetOptions() *RemoteOptions {
	return c.options
}
