// Package prover 提供证明后端能力接口定义
//
// 🔐 **证明能力层 (Proving Capability Layer)**
//
// 本包把"本地同步证明"与"远端异步证明"抽象为两个能力接口，
// 使 Composition Manager 与具体后端解耦：
// - LocalProver：同步阻塞，CPU密集，在专用worker槽内执行
// - RemoteProver：submit立即返回句柄，poll为唯一挂起点，
//   轮询节奏由调用方掌控（服务端不提供回调/推送）
//
// 🎯 **信任模型**：远端服务只被信任可用性，不被信任正确性——
// 远端返回的回执必须在客户端独立校验后才可继续流转。
package prover

import (
	"context"

	"github.com/weisyn/zkcompose/pkg/types"
)

// LocalProver 定义本地证明客户端接口
type LocalProver interface {
	// Prove 对程序镜像与私密输入同步生成证明回执
	//
	// ⚠️ 该操作CPU密集，可能持续数秒到数分钟，绝不能在
	// 延迟敏感路径上调用；实现内部以worker槽限制并发。
	//
	// 程序执行故障返回 ErrExecutionFault（确定性，重跑必然复现，
	// 对该作业致命，不重试）。
	Prove(ctx context.Context, image *types.ProgramImage, privateInput []byte) (*types.Receipt, error)
}

// JobHandle 远端证明作业句柄（不透明标识）
type JobHandle string

// PollStatus 远端作业轮询状态
type PollStatus string

const (
	// PollStatusPending 远端作业尚未完成
	PollStatusPending PollStatus = "pending"

	// PollStatusComplete 远端作业完成，回执已就绪
	PollStatusComplete PollStatus = "complete"

	// PollStatusFailed 远端作业失败
	PollStatusFailed PollStatus = "failed"
)

// PollResult 一次轮询的结果
type PollResult struct {
	Status PollStatus

	// Receipt 仅在 Status==PollStatusComplete 时非nil，
	// 且已通过客户端独立校验（journal摘要重算、镜像标识比对、
	// seal验证、无未解假设）。
	Receipt *types.Receipt

	// Reason 仅在 Status==PollStatusFailed 时非空
	Reason string
}

// RemoteProver 定义远程证明客户端接口
type RemoteProver interface {
	// Submit 向远端服务提交证明作业，立即返回句柄
	//
	// 瞬时错误（网络/5xx）在实现内部按同参重试策略消化，
	// 耗尽后返回 ErrTransientService；请求本身非法（4xx）
	// 返回 ErrRemoteRejected，不重试。
	Submit(ctx context.Context, image *types.ProgramImage, publicInput []byte, assumptions []types.Assumption) (JobHandle, error)

	// Poll 查询远端作业状态（廉价网络调用）
	Poll(ctx context.Context, handle JobHandle, image *types.ProgramImage) (*PollResult, error)

	// WaitReceipt 有界指数退避轮询直至回执就绪或超时
	//
	// 超时返回 ErrPollTimeout，同时尽力发送远端取消请求；
	// 远端作业不保证真正取消，迟到的结果由调用方丢弃。
	WaitReceipt(ctx context.Context, handle JobHandle, image *types.ProgramImage) (*types.Receipt, error)

	// Cancel 尽力取消远端作业（失败只记日志，不影响调用方）
	Cancel(ctx context.Context, handle JobHandle) error
}

// Backend 定义不透明证明封印后端接口
//
// 证明的算术构造不在本系统范围内；后端只需保证：
// Seal产出的字节能且仅能被同一claim的Verify接受。
type Backend interface {
	// Seal 对声明生成不透明证明字节
	Seal(ctx context.Context, claim types.Claim) ([]byte, error)

	// Verify 校验回执的seal与其claim的绑定关系
	Verify(ctx context.Context, receipt *types.Receipt) error
}
