// Package submitter provides error definitions for submission pipeline operations.
package submitter

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	submitterInterface "github.com/weisyn/zkcompose/pkg/interfaces/submitter"
)

// ============================================================================
//                               错误包装函数
// ============================================================================

// WrapTxRejectedError 包装链上拒绝错误（致命）
func WrapTxRejectedError(txHash common.Hash, err error) error {
	return fmt.Errorf("%w: txHash=%s, cause=%v", submitterInterface.ErrTxRejected, txHash.Hex(), err)
}

// WrapTxDroppedError 包装交易被丢弃错误（瞬时）
func WrapTxDroppedError(txHash common.Hash, err error) error {
	return fmt.Errorf("%w: txHash=%s, cause=%v", submitterInterface.ErrTxDropped, txHash.Hex(), err)
}

// WrapNonceConflictError 包装nonce冲突错误（瞬时）
func WrapNonceConflictError(txHash common.Hash, err error) error {
	return fmt.Errorf("%w: txHash=%s, cause=%v", submitterInterface.ErrNonceConflict, txHash.Hex(), err)
}

// classifySendError 对SendTransaction的错误做分类
//
// go-ethereum对nonce/gas价格类错误只给文本，这里按节点的惯用
// 错误消息匹配；未匹配的网络层错误归为交易被丢弃（可重发）。
func classifySendError(txHash common.Hash, err error) error {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "nonce too low"),
		strings.Contains(msg, "nonce too high"),
		strings.Contains(msg, "already known"),
		strings.Contains(msg, "replacement transaction underpriced"):
		return WrapNonceConflictError(txHash, err)
	default:
		return WrapTxDroppedError(txHash, err)
	}
}

// isResubmittable 判定错误是否允许以新nonce重建重发
//
// 只有基础设施瞬时问题（丢弃/nonce冲突）允许重发；
// 链上拒绝与ctx取消一律不重发。
func isResubmittable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return errors.Is(err, submitterInterface.ErrTxDropped) ||
		errors.Is(err, submitterInterface.ErrNonceConflict)
}
