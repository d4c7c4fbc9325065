// Package submitter 提供链上提交管道接口定义
//
// ⛓️ **提交管道 (Submission Pipeline)**
//
// 把最终回执的 (journal, seal) 按链上验证合约的调用布局编码为
// 交易，发送并跟踪确认。组合校验已在客户端完成，这里只负责
// 把合格的产物送上链。
package submitter

import (
	"context"

	"github.com/weisyn/zkcompose/pkg/types"
)

// Submitter 定义提交管道接口
type Submitter interface {
	// Submit 编码并发送携带 (journal_bytes, seal_bytes) 的交易，
	// 等待配置数量的确认后返回结果
	//
	// 📋 **失败分类**：
	// - ErrTxRejected：交易被链上验证逻辑拒绝——致命，证明本身
	//   可能就是缺陷，绝不盲目重试
	// - ErrTxDropped / ErrNonceConflict：基础设施瞬时问题——
	//   载荷不变，以新nonce重建重发是安全的（实现内部消化）
	Submit(ctx context.Context, receipt *types.Receipt) (*types.TxResult, error)
}
