// Package executor 提供guest程序执行器接口定义
//
// ⚙️ **程序执行契约 (Program Execution Contract)**
//
// 一个程序实例以私密输入（以及可选的假设集合）被调用，要么正常终止
// 并提交journal（公开输出），要么以执行故障终止。给定相同输入与假设
// 集合，执行完全确定。
package executor

import (
	"context"

	"github.com/weisyn/zkcompose/pkg/types"
)

// Executor 定义guest程序执行器接口
type Executor interface {
	// Execute 执行程序镜像并返回其提交的journal
	//
	// 📋 **契约**：
	// - input 为程序的私密输入，除非程序计算中显式提交派生值，
	//   否则不会出现在journal中
	// - assumptions 为嵌入执行环境的未解假设（外层程序消费）
	// - 程序内部的受控失败返回 ErrExecutionFault（确定性，不可重试）
	Execute(ctx context.Context, image *types.ProgramImage, input []byte, assumptions []types.Assumption) ([]byte, error)
}
