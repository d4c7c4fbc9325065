// Package remote 提供远程证明客户端模块装配
package remote

import (
	remoteconfig "github.com/weisyn/zkcompose/internal/config/remote"
	log "github.com/weisyn/zkcompose/pkg/interfaces/infrastructure/log"
	proverInterface "github.com/weisyn/zkcompose/pkg/interfaces/prover"
	"go.uber.org/fx"
)

// ModuleParams 定义远程证明模块的依赖参数
type ModuleParams struct {
	fx.In

	Logger  log.Logger
	Config  *remoteconfig.Config
	Backend proverInterface.Backend
}

// ModuleOutput 定义远程证明模块的输出结构
type ModuleOutput struct {
	fx.Out

	RemoteProver proverInterface.RemoteProver
}

// Module 返回远程证明模块
func Module() fx.Option {
	return fx.Module("prover-remote",
		fx.Provide(ProvideServices),
	)
}

// ProvideServices 提供远程证明服务
func ProvideServices(params ModuleParams) ModuleOutput {
	return ModuleOutput{
		RemoteProver: NewClient(
			params.Logger.With("module", "prover-remote"),
			params.Config,
			params.Backend,
		),
	}
}
