// Package prover 提供证明客户端错误契约定义
package prover

import "errors"

// ============================================================================
//                            证明客户端错误分类
// ============================================================================
//
// 组件边界处把底层错误（网络、编码）分类为以下粗粒度错误，
// Composition Manager 只依据这些分类决定作业走向，
// 不允许模糊的未分类失败穿透边界。

var (
	// ErrTransientService 远端服务瞬时错误（网络/5xx）
	//
	// 客户端内部已按同参重试策略消化，该错误表示重试已耗尽。
	ErrTransientService = errors.New("transient remote service error")

	// ErrRemoteRejected 远端拒绝请求（请求畸形、未知假设等）——致命，不重试
	ErrRemoteRejected = errors.New("remote service rejected request")

	// ErrPollTimeout 轮询整体超时——作业被放弃
	//
	// 远端作业不保证已取消；迟到的结果必须被调用方丢弃。
	ErrPollTimeout = errors.New("remote proving poll timeout")

	// ErrReceiptUntrusted 远端回执未通过客户端独立校验
	//
	// journal摘要不符、镜像标识不符、seal验证失败或存在未解假设。
	// 远端只被信任可用性，此类回执必须整体拒绝。
	ErrReceiptUntrusted = errors.New("remote receipt failed client-side verification")

	// ErrSealInvalid 封印验证失败
	ErrSealInvalid = errors.New("seal verification failed")
)
