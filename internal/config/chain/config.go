// Package chain 提供链上提交管道配置
package chain

import "time"

// ChainOptions 链上提交配置选项
type ChainOptions struct {
	// === 链端点 ===
	RPCURL  string `json:"rpc_url"`  // 以太坊节点RPC端点
	ChainID int64  `json:"chain_id"` // EIP-155链ID

	// === 验证合约 ===
	ContractAddress string `json:"contract_address"` // 链上验证合约地址（hex）

	// === 签名 ===
	// PrivateKeyHex 签名私钥（hex，不带0x前缀）。
	// ⚠️ 只应来自环境变量注入，绝不写入配置文件。
	PrivateKeyHex string `json:"-"`

	// === 确认跟踪 ===
	Confirmations   uint64        `json:"confirmations"`    // 所需确认块数
	ReceiptInterval time.Duration `json:"receipt_interval"` // 回执轮询间隔
	ReceiptTimeout  time.Duration `json:"receipt_timeout"`  // 回执等待超时

	// === 重发策略（仅针对瞬时失败） ===
	ResubmitRetries int `json:"resubmit_retries"` // 新nonce重发上限
}

// UserChainConfig 用户侧链配置
type UserChainConfig struct {
	RPCURL             *string `json:"rpc_url,omitempty"`
	ChainID            *int64  `json:"chain_id,omitempty"`
	ContractAddress    *string `json:"contract_address,omitempty"`
	Confirmations      *uint64 `json:"confirmations,omitempty"`
	ReceiptIntervalSec *int    `json:"receipt_interval_sec,omitempty"`
	ReceiptTimeoutSec  *int    `json:"receipt_timeout_sec,omitempty"`
	ResubmitRetries    *int    `json:"resubmit_retries,omitempty"`
}

// Config 链配置实现
type Config struct {
	options *ChainOptions
}

// New 创建链配置（默认值 + 用户覆盖）
func New(user *UserChainConfig) *Config {
	options := createDefaultChainOptions()
	if user != nil {
		if user.RPCURL != nil {
			options.RPCURL = *user.RPCURL
		}
		if user.ChainID != nil && *user.ChainID > 0 {
			options.ChainID = *user.ChainID
		}
		if user.ContractAddress != nil {
			options.ContractAddress = *user.ContractAddress
		}
		if user.Confirmations != nil && *user.Confirmations > 0 {
			options.Confirmations = *user.Confirmations
		}
		if user.ReceiptIntervalSec != nil && *user.ReceiptIntervalSec > 0 {
			options.ReceiptInterval = time.Duration(*user.ReceiptIntervalSec) * time.Second
		}
		if user.ReceiptTimeoutSec != nil && *user.ReceiptTimeoutSec > 0 {
			options.ReceiptTimeout = time.Duration(*user.ReceiptTimeoutSec) * time.Second
		}
		if user.ResubmitRetries != nil && *user.ResubmitRetries >= 0 {
			options.ResubmitRetries = *user.ResubmitRetries
		}
	}
	return &Config{options: options}
}

// GetOptions 获取完整的链配置选项
func (c *Config) GetOptions() *ChainOptions {
	return c.options
}

// SetPrivateKeyHex 注入签名私钥（来自环境变量）
func (c *Config) SetPrivateKeyHex(key string) {
	c.options.PrivateKeyHex = key
}
