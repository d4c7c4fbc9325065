// Package local 提供本地证明客户端模块装配
package local

import (
	proverconfig "github.com/weisyn/zkcompose/internal/config/prover"
	executorInterface "github.com/weisyn/zkcompose/pkg/interfaces/executor"
	log "github.com/weisyn/zkcompose/pkg/interfaces/infrastructure/log"
	proverInterface "github.com/weisyn/zkcompose/pkg/interfaces/prover"
	"go.uber.org/fx"
)

// ModuleParams 定义本地证明模块的依赖参数
type ModuleParams struct {
	fx.In

	Logger   log.Logger
	Config   *proverconfig.Config
	Executor executorInterface.Executor
	Backend  proverInterface.Backend
}

// ModuleOutput 定义本地证明模块的输出结构
type ModuleOutput struct {
	fx.Out

	LocalProver proverInterface.LocalProver
}

// Module 返回本地证明模块
func Module() fx.Option {
	return fx.Module("prover-local",
		fx.Provide(ProvideServices),
	)
}

// ProvideServices 提供本地证明服务
func ProvideServices(params ModuleParams) ModuleOutput {
	return ModuleOutput{
		LocalProver: NewProver(
			params.Logger.With("module", "prover-local"),
			params.Config,
			params.Executor,
			params.Backend,
		),
	}
}
