// Package composer 提供组合管理器模块装配
package composer

import (
	composerInterface "github.com/weisyn/zkcompose/pkg/interfaces/composer"
	log "github.com/weisyn/zkcompose/pkg/interfaces/infrastructure/log"
	proverInterface "github.com/weisyn/zkcompose/pkg/interfaces/prover"
	registryInterface "github.com/weisyn/zkcompose/pkg/interfaces/registry"
	storageInterface "github.com/weisyn/zkcompose/pkg/interfaces/storage"
	submitterInterface "github.com/weisyn/zkcompose/pkg/interfaces/submitter"
	"go.uber.org/fx"
)

// ModuleParams 定义组合管理器模块的依赖参数
type ModuleParams struct {
	fx.In

	Logger    log.Logger
	Registry  registryInterface.Registry
	Local     proverInterface.LocalProver
	Remote    proverInterface.RemoteProver
	Submitter submitterInterface.Submitter
	KVStore   storageInterface.KVStore
}

// ModuleOutput 定义组合管理器模块的输出结构
type ModuleOutput struct {
	fx.Out

	Composer composerInterface.Composer
	JobStore storageInterface.JobStore
}

// Module 返回组合管理器模块
func Module() fx.Option {
	return fx.Module("composer",
		fx.Provide(ProvideServices),
	)
}

// ProvideServices 提供组合管理器服务
func ProvideServices(params ModuleParams) ModuleOutput {
	store := NewKVJobStore(params.KVStore)
	manager := NewManager(
		params.Logger.With("module", "composer"),
		params.Registry,
		params.Local,
		params.Remote,
		params.Submitter,
		store,
	)
	return ModuleOutput{
		Composer: manager,
		JobStore: store,
	}
}
