// Package badger 提供存储模块装配
package badger

import (
	"github.com/weisyn/zkcompose/internal/config"
	log "github.com/weisyn/zkcompose/pkg/interfaces/infrastructure/log"
	interfaces "github.com/weisyn/zkcompose/pkg/interfaces/storage"
	"go.uber.org/fx"
)

// ModuleParams 定义存储模块的依赖参数
type ModuleParams struct {
	fx.In

	Provider *config.Provider
	Logger   log.Logger
}

// ModuleOutput 定义存储模块的输出结构
type ModuleOutput struct {
	fx.Out

	KVStore interfaces.KVStore
}

// Module 返回存储模块
func Module() fx.Option {
	return fx.Module("storage",
		fx.Provide(ProvideServices),
	)
}

// ProvideServices 提供存储服务
func ProvideServices(params ModuleParams, lc fx.Lifecycle) (ModuleOutput, error) {
	store, err := New(params.Provider.GetStorage(), params.Logger.With("module", "storage"))
	if err != nil {
		return ModuleOutput{}, err
	}

	lc.Append(fx.StopHook(func() error {
		return store.Close()
	}))

	return ModuleOutput{KVStore: store}, nil
}
