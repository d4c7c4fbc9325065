// Package seal 提供封印后端模块装配
package seal

import (
	proverconfig "github.com/weisyn/zkcompose/internal/config/prover"
	log "github.com/weisyn/zkcompose/pkg/interfaces/infrastructure/log"
	proverInterface "github.com/weisyn/zkcompose/pkg/interfaces/prover"
	"go.uber.org/fx"
)

// ModuleParams 定义封印后端模块的依赖参数
type ModuleParams struct {
	fx.In

	Logger log.Logger
	Config *proverconfig.Config
}

// ModuleOutput 定义封印后端模块的输出结构
type ModuleOutput struct {
	fx.Out

	Backend proverInterface.Backend
}

// Module 返回封印后端模块
func Module() fx.Option {
	return fx.Module("seal",
		fx.Provide(ProvideServices),
	)
}

// ProvideServices 提供封印后端服务
func ProvideServices(params ModuleParams) ModuleOutput {
	return ModuleOutput{
		Backend: NewBackend(params.Logger.With("module", "seal"), params.Config.GetOptions().SetupDir),
	}
}
