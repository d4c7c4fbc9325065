// Package config 提供配置聚合与加载
//
// 🧾 **配置提供者 (Configuration Provider)**
//
// 从JSON配置文件加载用户配置，按模块切分为各Options结构，
// 默认值由各模块配置包自行处理。签名私钥等敏感项只从环境变量
// 注入，绝不进入配置文件。
package config

import (
	"encoding/json"
	"fmt"
	"os"

	chainconfig "github.com/weisyn/zkcompose/internal/config/chain"
	logconfig "github.com/weisyn/zkcompose/internal/config/log"
	proverconfig "github.com/weisyn/zkcompose/internal/config/prover"
	registryconfig "github.com/weisyn/zkcompose/internal/config/registry"
	remoteconfig "github.com/weisyn/zkcompose/internal/config/remote"
	storageconfig "github.com/weisyn/zkcompose/internal/config/storage"
)

// EnvEthWalletPrivateKey 签名私钥环境变量名
const EnvEthWalletPrivateKey = "ZKC_ETH_WALLET_PRIVATE_KEY"

// AppConfig 应用配置（JSON配置文件顶层结构）
type AppConfig struct {
	Log      *logconfig.UserLogConfig           `json:"log,omitempty"`
	Registry *registryconfig.UserRegistryConfig `json:"registry,omitempty"`
	Prover   *proverconfig.UserProverConfig     `json:"prover,omitempty"`
	Remote   *remoteconfig.UserRemoteConfig     `json:"remote,omitempty"`
	Chain    *chainconfig.UserChainConfig       `json:"chain,omitempty"`
	Storage  *storageconfig.UserStorageConfig   `json:"storage,omitempty"`
}

// LoadAppConfig 从文件加载应用配置；path为空时返回全默认配置
func LoadAppConfig(path string) (*AppConfig, error) {
	cfg := &AppConfig{}
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}
	return cfg, nil
}

// Provider 实现配置提供者
type Provider struct {
	appConfig *AppConfig
}

// NewProvider 创建配置提供者
func NewProvider(appConfig *AppConfig) *Provider {
	if appConfig == nil {
		appConfig = &AppConfig{}
	}
	return &Provider{appConfig: appConfig}
}

// GetLog 获取日志配置
func (p *Provider) GetLog() *logconfig.Config {
	return logconfig.New(p.appConfig.Log)
}

// GetRegistry 获取程序注册表配置
func (p *Provider) GetRegistry() *registryconfig.Config {
	return registryconfig.New(p.appConfig.Registry)
}

// GetProver 获取本地证明器配置
func (p *Provider) GetProver() *proverconfig.Config {
	return proverconfig.New(p.appConfig.Prover)
}

// GetRemote 获取远程证明客户端配置
func (p *Provider) GetRemote() *remoteconfig.Config {
	return remoteconfig.New(p.appConfig.Remote)
}

// GetChain 获取链上提交配置（私钥从环境变量注入）
func (p *Provider) GetChain() *chainconfig.Config {
	cfg := chainconfig.New(p.appConfig.Chain)
	if key := os.Getenv(EnvEthWalletPrivateKey); key != "" {
		cfg.SetPrivateKeyHex(key)
	}
	return cfg
}

// GetStorage 获取存储配置
func (p *Provider) GetStorage() *storageconfig.Config {
	return storageconfig.New(p.appConfig.Storage)
}
