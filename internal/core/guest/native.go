// Package guest 提供进程内置guest程序与native执行器实现
//
// ⚙️ **Native执行器 (Native Executor)**
//
// 🎯 **核心职责**：以进程内注册的确定性Go函数承载guest程序契约，
// 供本地证明与测试使用。镜像的"编译产物"是规范化描述符字节，
// 镜像标识仍然是对描述符的内容哈希，与WASM镜像同一套寻址规则。
//
// 📋 **内置程序**：
// - mod-exp：私密输入 (n, e, x)，提交 (n, e, x^e mod n)
// - is-even：公开输入 x，提交 x 是否为偶数
//
// ⚠️ 确定性约束：guest函数不得读取时间、随机数或任何进程外状态。
package guest

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math/big"

	executorInterface "github.com/weisyn/zkcompose/pkg/interfaces/executor"
	log "github.com/weisyn/zkcompose/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/zkcompose/pkg/types"
)

// 内置guest程序逻辑名
const (
	ProgramModExp = "mod-exp"
	ProgramIsEven = "is-even"
)

// descriptor native镜像描述符（镜像Binary的JSON结构）
type descriptor struct {
	ABI   int    `json:"abi"`
	Guest string `json:"guest"`
}

// descriptorBytes 构造规范化描述符字节
//
// 字段顺序固定，保证同名程序在任何进程中得到相同的镜像标识。
func descriptorBytes(name string) []byte {
	return []byte(`{"abi":1,"guest":"` + name + `"}`)
}

// guestFunc 内置guest程序：输入+假设 → journal或执行故障
type guestFunc func(input []byte, assumptions []types.Assumption) ([]byte, error)

// builtinGuests 内置程序表
var builtinGuests = map[string]guestFunc{
	ProgramModExp: runModExp,
	ProgramIsEven: runIsEven,
}

// BuiltinImages 返回全部内置程序镜像（name → image）
func BuiltinImages() map[string]*types.ProgramImage {
	images := make(map[string]*types.ProgramImage, len(builtinGuests))
	for name := range builtinGuests {
		images[name] = types.NewProgramImage(descriptorBytes(name))
	}
	return images
}

// NativeExecutor 进程内guest程序执行器
type NativeExecutor struct {
	logger log.Logger
}

// 确保NativeExecutor实现接口
var _ executorInterface.Executor = (*NativeExecutor)(nil)

// NewNativeExecutor 创建native执行器
func NewNativeExecutor(logger log.Logger) *NativeExecutor {
	return &NativeExecutor{logger: logger}
}

// Execute 执行native镜像
func (e *NativeExecutor) Execute(ctx context.Context, image *types.ProgramImage, input []byte, assumptions []types.Assumption) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var desc descriptor
	if err := json.Unmarshal(image.Binary, &desc); err != nil {
		return nil, WrapUnsupportedImageError(image.ID, err)
	}
	if desc.ABI != 1 {
		return nil, WrapUnsupportedImageError(image.ID, fmt.Errorf("未知ABI版本: %d", desc.ABI))
	}

	fn, ok := builtinGuests[desc.Guest]
	if !ok {
		return nil, WrapUnsupportedImageError(image.ID, fmt.Errorf("未注册的内置程序: %s", desc.Guest))
	}

	journal, err := fn(input, assumptions)
	if err != nil {
		if e.logger != nil {
			e.logger.Debugf("guest执行故障: guest=%s, image=%s, err=%v", desc.Guest, image.ID.Hex(), err)
		}
		return nil, err
	}
	return journal, nil
}

// ============================================================================
//                               内置guest程序
// ============================================================================

// runModExp 模幂程序
//
// 私密输入：24字节LE (n, e, x)；journal提交 (n, e, x^e mod n)。
// 私密输入中的x不直接出现在journal——只有程序刻意提交的派生值在内。
func runModExp(input []byte, _ []types.Assumption) ([]byte, error) {
	if len(input) != 24 {
		return nil, WrapExecutionFaultError(ProgramModExp, fmt.Errorf("输入长度错误: expected=24, actual=%d", len(input)))
	}
	n := binary.LittleEndian.Uint64(input[0:8])
	e := binary.LittleEndian.Uint64(input[8:16])
	x := binary.LittleEndian.Uint64(input[16:24])

	if n == 0 {
		return nil, WrapExecutionFaultError(ProgramModExp, fmt.Errorf("模数不能为零"))
	}

	result := new(big.Int).Exp(
		new(big.Int).SetUint64(x),
		new(big.Int).SetUint64(e),
		new(big.Int).SetUint64(n),
	).Uint64()

	journal := make([]byte, 24)
	binary.LittleEndian.PutUint64(journal[0:8], n)
	binary.LittleEndian.PutUint64(journal[8:16], e)
	binary.LittleEndian.PutUint64(journal[16:24], result)
	return journal, nil
}

// runIsEven 判偶程序
//
// 公开输入：8字节LE x；journal提交1字节布尔（1为偶数）。
func runIsEven(input []byte, _ []types.Assumption) ([]byte, error) {
	if len(input) != 8 {
		return nil, WrapExecutionFaultError(ProgramIsEven, fmt.Errorf("输入长度错误: expected=8, actual=%d", len(input)))
	}
	x := binary.LittleEndian.Uint64(input)

	journal := []byte{0}
	if x%2 == 0 {
		journal[0] = 1
	}
	return journal, nil
}
