// Package submitter 提供提交管道错误契约定义
package submitter

import "errors"

var (
	// ErrTxRejected 交易被链上验证逻辑拒绝
	//
	// 致命：证明本身可能就是缺陷，绝不盲目重试。
	ErrTxRejected = errors.New("transaction rejected by verifier contract")

	// ErrTxDropped 交易被网络丢弃（瞬时基础设施问题）
	//
	// 载荷不变，以新nonce重建重发是安全的。
	ErrTxDropped = errors.New("transaction dropped")

	// ErrNonceConflict nonce冲突（并发交易或节点视图滞后）
	ErrNonceConflict = errors.New("transaction nonce conflict")
)
