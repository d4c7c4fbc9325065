// Package guest 提供guest执行器模块装配
package guest

import (
	"context"

	"github.com/weisyn/zkcompose/internal/core/guest/wasm"
	executorInterface "github.com/weisyn/zkcompose/pkg/interfaces/executor"
	log "github.com/weisyn/zkcompose/pkg/interfaces/infrastructure/log"
	"go.uber.org/fx"
)

// ModuleParams 定义执行器模块的依赖参数
type ModuleParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Logger    log.Logger
}

// ModuleOutput 定义执行器模块的输出结构
type ModuleOutput struct {
	fx.Out

	Executor executorInterface.Executor
}

// Module 返回执行器模块
func Module() fx.Option {
	return fx.Module("guest",
		fx.Provide(ProvideServices),
	)
}

// ProvideServices 提供执行器服务
//
// native与WASM执行器都装配，按镜像产物格式分发。
func ProvideServices(params ModuleParams) (ModuleOutput, error) {
	logger := params.Logger.With("module", "guest")

	wasmExecutor, err := wasm.NewExecutor(context.Background(), logger)
	if err != nil {
		return ModuleOutput{}, err
	}
	params.Lifecycle.Append(fx.StopHook(wasmExecutor.Close))

	return ModuleOutput{
		Executor: NewDispatchExecutor(NewNativeExecutor(logger), wasmExecutor),
	}, nil
}
