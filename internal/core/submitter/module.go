// Package submitter 提供提交管道模块装配
package submitter

import (
	"context"

	chainconfig "github.com/weisyn/zkcompose/internal/config/chain"
	log "github.com/weisyn/zkcompose/pkg/interfaces/infrastructure/log"
	submitterInterface "github.com/weisyn/zkcompose/pkg/interfaces/submitter"
	"go.uber.org/fx"
)

// ModuleParams 定义提交管道模块的依赖参数
type ModuleParams struct {
	fx.In

	Logger log.Logger
	Config *chainconfig.Config
}

// ModuleOutput 定义提交管道模块的输出结构
type ModuleOutput struct {
	fx.Out

	Submitter submitterInterface.Submitter
}

// Module 返回提交管道模块
func Module() fx.Option {
	return fx.Module("submitter",
		fx.Provide(ProvideServices),
	)
}

// ProvideServices 提供提交管道服务
func ProvideServices(params ModuleParams) (ModuleOutput, error) {
	pipeline, err := Dial(context.Background(), params.Logger.With("module", "submitter"), params.Config)
	if err != nil {
		return ModuleOutput{}, err
	}
	return ModuleOutput{Submitter: pipeline}, nil
}
