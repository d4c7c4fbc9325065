// Package app 提供应用级模块装配
//
// 🏗️ **应用装配 (Application Assembly)**
//
// 把配置提供者与各核心模块按依赖注入方式组装为一个fx应用。
// 命令行入口只负责解析参数并驱动组装好的Composer。
package app

import (
	"github.com/weisyn/zkcompose/internal/config"
	chainconfig "github.com/weisyn/zkcompose/internal/config/chain"
	proverconfig "github.com/weisyn/zkcompose/internal/config/prover"
	remoteconfig "github.com/weisyn/zkcompose/internal/config/remote"
	"github.com/weisyn/zkcompose/internal/core/composer"
	"github.com/weisyn/zkcompose/internal/core/guest"
	logmodule "github.com/weisyn/zkcompose/internal/core/infrastructure/log"
	"github.com/weisyn/zkcompose/internal/core/infrastructure/storage/badger"
	"github.com/weisyn/zkcompose/internal/core/prover/local"
	"github.com/weisyn/zkcompose/internal/core/prover/remote"
	"github.com/weisyn/zkcompose/internal/core/registry"
	"github.com/weisyn/zkcompose/internal/core/seal"
	"github.com/weisyn/zkcompose/internal/core/submitter"
	"go.uber.org/fx"
)

// Modules 返回完整的应用模块集合
//
// skipSubmission为true时不装配链上提交管道（无需RPC端点与私钥），
// 提交管道由一个永不被调用的占位实现顶替。
func Modules(appConfig *config.AppConfig, skipSubmission bool) fx.Option {
	options := []fx.Option{
		fx.Provide(func() *config.Provider { return config.NewProvider(appConfig) }),
		// 模块级配置从Provider切分
		fx.Provide(func(p *config.Provider) *proverconfig.Config { return p.GetProver() }),
		fx.Provide(func(p *config.Provider) *remoteconfig.Config { return p.GetRemote() }),
		fx.Provide(func(p *config.Provider) *chainconfig.Config { return p.GetChain() }),

		logmodule.Module(),
		badger.Module(),
		registry.Module(),
		guest.Module(),
		seal.Module(),
		local.Module(),
		remote.Module(),
		composer.Module(),
	}

	if skipSubmission {
		options = append(options, noSubmitterModule())
	} else {
		options = append(options, submitter.Module())
	}
	return fx.Options(options...)
}
