// Package wasm 提供基于wazero的WASM guest执行器实现
//
// ⚙️ **WASM执行器 (WASM Executor)**
//
// 🎯 **核心职责**：以WASI约定执行任意WASM编译的guest程序：
// - stdin承载程序输入
// - stdout承载journal（程序提交的公开输出）
// - 非零退出码视为执行故障
//
// 基于 github.com/tetratelabs/wazero 实现，编译结果按镜像标识缓存。
//
// ⚠️ 确定性约束：不注入真实时钟与系统随机源，保证同输入同journal。
package wasm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"github.com/tetratelabs/wazero/sys"

	executorInterface "github.com/weisyn/zkcompose/pkg/interfaces/executor"
	log "github.com/weisyn/zkcompose/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/zkcompose/pkg/types"
)

// EnvAssumptions guest可见的假设集合环境变量（JSON编码的claim数组）
const EnvAssumptions = "ZKC_ASSUMPTIONS"

// Executor 基于wazero的WASM guest执行器
type Executor struct {
	logger  log.Logger
	runtime wazero.Runtime

	// 进程内编译模块缓存（按镜像标识复用，避免重复编译）
	compiledCache sync.Map // map[types.ImageID]wazero.CompiledModule
}

// 确保Executor实现接口
var _ executorInterface.Executor = (*Executor)(nil)

// NewExecutor 创建WASM执行器
//
// WASI模块必须在guest模块实例化之前实例化（Go编译的WASM依赖
// wasi_snapshot_preview1 提供 fd_write 等系统接口）。
func NewExecutor(ctx context.Context, logger log.Logger) (*Executor, error) {
	runtime := wazero.NewRuntimeWithConfig(ctx,
		wazero.NewRuntimeConfig().
			WithCompilationCache(wazero.NewCompilationCache()).
			WithCloseOnContextDone(true))

	if _, err := wasi_snapshot_preview1.Instantiate(ctx, runtime); err != nil {
		_ = runtime.Close(ctx)
		return nil, fmt.Errorf("WASI模块实例化失败: %w", err)
	}

	return &Executor{
		logger:  logger,
		runtime: runtime,
	}, nil
}

// Execute 执行WASM镜像并返回其stdout作为journal
func (e *Executor) Execute(ctx context.Context, image *types.ProgramImage, input []byte, assumptions []types.Assumption) ([]byte, error) {
	compiled, err := e.compile(ctx, image)
	if err != nil {
		return nil, err
	}

	var journal bytes.Buffer
	moduleConfig := wazero.NewModuleConfig().
		WithName(""). // 匿名实例，允许同一镜像并发执行
		WithStdin(bytes.NewReader(input)).
		WithStdout(&journal).
		WithStderr(io.Discard).
		WithArgs("guest").
		// 确定性随机源：guest内的random_get永远得到零字节
		WithRandSource(zeroReader{})

	if len(assumptions) > 0 {
		encoded, err := json.Marshal(assumptions)
		if err != nil {
			return nil, fmt.Errorf("编码假设集合失败: %w", err)
		}
		moduleConfig = moduleConfig.WithEnv(EnvAssumptions, string(encoded))
	}

	module, err := e.runtime.InstantiateModule(ctx, compiled, moduleConfig)
	if module != nil {
		defer func() { _ = module.Close(ctx) }()
	}
	if err != nil {
		// proc_exit路径：退出码0是正常终止，非零是guest内部的受控失败
		var exitErr *sys.ExitError
		if errors.As(err, &exitErr) {
			if exitErr.ExitCode() == 0 {
				return journal.Bytes(), nil
			}
			return nil, fmt.Errorf("%w: imageID=%s, exit_code=%d",
				executorInterface.ErrExecutionFault, image.ID.Hex(), exitErr.ExitCode())
		}
		return nil, fmt.Errorf("%w: imageID=%s, cause=%v",
			executorInterface.ErrExecutionFault, image.ID.Hex(), err)
	}

	return journal.Bytes(), nil
}

// Close 释放wazero运行时资源
func (e *Executor) Close(ctx context.Context) error {
	return e.runtime.Close(ctx)
}

// compile 编译镜像（带缓存）
func (e *Executor) compile(ctx context.Context, image *types.ProgramImage) (wazero.CompiledModule, error) {
	if cached, ok := e.compiledCache.Load(image.ID); ok {
		return cached.(wazero.CompiledModule), nil
	}

	compiled, err := e.runtime.CompileModule(ctx, image.Binary)
	if err != nil {
		return nil, fmt.Errorf("%w: imageID=%s, cause=%v",
			executorInterface.ErrUnsupportedImage, image.ID.Hex(), err)
	}

	if e.logger != nil {
		e.logger.Debugf("WASM镜像编译完成: imageID=%s, size=%d字节", image.ID.Hex(), len(image.Binary))
	}

	actual, _ := e.compiledCache.LoadOrStore(image.ID, compiled)
	return actual.(wazero.CompiledModule), nil
}

// zeroReader 确定性随机源
type zeroReader struct{}

func (zeroReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = 0
	}
	return len(p), nil
}
