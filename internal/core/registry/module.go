// Package registry 提供注册表模块装配
package registry

import (
	"github.com/weisyn/zkcompose/internal/config"
	log "github.com/weisyn/zkcompose/pkg/interfaces/infrastructure/log"
	registryInterface "github.com/weisyn/zkcompose/pkg/interfaces/registry"
	"go.uber.org/fx"
)

// ModuleParams 定义注册表模块的依赖参数
type ModuleParams struct {
	fx.In

	Provider *config.Provider
	Logger   log.Logger
}

// ModuleOutput 定义注册表模块的输出结构
type ModuleOutput struct {
	fx.Out

	Registry registryInterface.Registry
}

// Module 返回注册表模块
func Module() fx.Option {
	return fx.Module("registry",
		fx.Provide(ProvideServices),
	)
}

// ProvideServices 提供注册表服务
func ProvideServices(params ModuleParams) (ModuleOutput, error) {
	registry, err := New(params.Provider.GetRegistry(), params.Logger.With("module", "registry"))
	if err != nil {
		return ModuleOutput{}, err
	}
	return ModuleOutput{Registry: registry}, nil
}
