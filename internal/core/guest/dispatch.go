package guest

import (
	"bytes"
	"context"
	"fmt"

	executorInterface "github.com/weisyn/zkcompose/pkg/interfaces/executor"
	"github.com/weisyn/zkcompose/pkg/types"
)

// wasmMagic WASM二进制魔数（"\0asm"）
var wasmMagic = []byte{0x00, 0x61, 0x73, 0x6d}

// DispatchExecutor 按镜像产物格式分发到具体执行器
//
// - JSON描述符（'{'开头）→ native执行器
// - WASM魔数 → WASM执行器
// - 其余 → 不支持的镜像
type DispatchExecutor struct {
	native executorInterface.Executor
	wasm   executorInterface.Executor
}

// 确保DispatchExecutor实现接口
var _ executorInterface.Executor = (*DispatchExecutor)(nil)

// NewDispatchExecutor 创建分发执行器
func NewDispatchExecutor(native, wasm executorInterface.Executor) *DispatchExecutor {
	return &DispatchExecutor{native: native, wasm: wasm}
}

// Execute 按产物格式路由执行
func (d *DispatchExecutor) Execute(ctx context.Context, image *types.ProgramImage, input []byte, assumptions []types.Assumption) ([]byte, error) {
	switch {
	case len(image.Binary) > 0 && image.Binary[0] == '{':
		return d.native.Execute(ctx, image, input, assumptions)
	case bytes.HasPrefix(image.Binary, wasmMagic):
		if d.wasm == nil {
			return nil, WrapUnsupportedImageError(image.ID, fmt.Errorf("WASM执行器未启用"))
		}
		return d.wasm.Execute(ctx, image, input, assumptions)
	default:
		return nil, WrapUnsupportedImageError(image.ID, fmt.Errorf("无法识别的镜像产物格式"))
	}
}
