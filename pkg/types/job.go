package types

import (
	"time"
)

// JobState 编排作业状态
//
// 状态机（严格单调，不允许回退）：
//
//	created → local_proving → local_proof_ready → remote_submitted
//	        → remote_polling → composed_ready → submitting → done
//
// 任意非终态可进入吸收态 failed。
type JobState string

const (
	// JobStateCreated 作业已创建，尚未开始本地证明
	JobStateCreated JobState = "created"

	// JobStateLocalProving 内层程序本地证明进行中
	JobStateLocalProving JobState = "local_proving"

	// JobStateLocalProofReady 内层回执已产出并通过校验
	JobStateLocalProofReady JobState = "local_proof_ready"

	// JobStateRemoteSubmitted 外层证明请求已提交远端服务
	JobStateRemoteSubmitted JobState = "remote_submitted"

	// JobStateRemotePolling 远端作业轮询中
	JobStateRemotePolling JobState = "remote_polling"

	// JobStateComposedReady 外层回执已通过组合校验，待提交上链
	JobStateComposedReady JobState = "composed_ready"

	// JobStateSubmitting 链上提交进行中
	JobStateSubmitting JobState = "submitting"

	// JobStateDone 终态：组合证明已提交上链并确认
	JobStateDone JobState = "done"

	// JobStateFailed 终态：作业失败（Reason字段给出确切分类）
	JobStateFailed JobState = "failed"
)

// stateRank 状态单调序（failed除外，它从任意非终态可达）
var stateRank = map[JobState]int{
	JobStateCreated:         0,
	JobStateLocalProving:    1,
	JobStateLocalProofReady: 2,
	JobStateRemoteSubmitted: 3,
	JobStateRemotePolling:   4,
	JobStateComposedReady:   5,
	JobStateSubmitting:      6,
	JobStateDone:            7,
}

// Terminal 判断是否为终态
func (s JobState) Terminal() bool {
	return s == JobStateDone || s == JobStateFailed
}

// CanTransitionTo 判断能否迁移到目标状态
//
// 规则：终态后一律不可迁移；failed从任意非终态可达；
// 其余迁移必须严格递增（禁止回退与原地踏步）。
func (s JobState) CanTransitionTo(next JobState) bool {
	if s.Terminal() {
		return false
	}
	if next == JobStateFailed {
		return true
	}
	from, okFrom := stateRank[s]
	to, okTo := stateRank[next]
	if !okFrom || !okTo {
		return false
	}
	return to > from
}

// FailReason 作业失败分类
//
// 每个失败的作业必须映射到且仅映射到一个分类，
// 不允许模糊的"unknown"终态。
type FailReason string

const (
	// FailReasonInnerProofFailed 内层程序本地证明失败（确定性执行故障）
	FailReasonInnerProofFailed FailReason = "inner_proof_failed"

	// FailReasonRemoteProofFailed 远端证明失败（瞬时错误已在客户端内重试耗尽）
	FailReasonRemoteProofFailed FailReason = "remote_proof_failed"

	// FailReasonCompositionInvalid 内外证明绑定校验失败
	FailReasonCompositionInvalid FailReason = "composition_invalid"

	// FailReasonSubmissionFailed 链上提交失败（交易被验证合约拒绝等致命情形）
	FailReasonSubmissionFailed FailReason = "submission_failed"

	// FailReasonCancelled 作业被调用方取消
	FailReasonCancelled FailReason = "cancelled"
)

// TxResult 链上提交结果
type TxResult struct {
	TxHash      string `json:"tx_hash"`
	BlockNumber uint64 `json:"block_number"`
	GasUsed     uint64 `json:"gas_used"`
	Succeeded   bool   `json:"succeeded"`
}

// OrchestrationJob 编排作业记录
//
// 🎯 **核心职责**：一次端到端组合证明请求的全部状态。
//
// 📋 **约定**：
// - 只由 Composition Manager 与 Submission Pipeline 修改
// - 每次状态迁移后整体持久化，支撑长轮询窗口内的进程重启恢复
// - 同一作业同时至多一个在途远程作业（RemoteJobID只赋值一次）
type OrchestrationJob struct {
	ID     string     `json:"id"`
	State  JobState   `json:"state"`
	Reason FailReason `json:"reason,omitempty"`
	Detail string     `json:"detail,omitempty"` // 失败的具体原因描述

	// 请求参数
	InnerProgram string `json:"inner_program"`
	OuterProgram string `json:"outer_program"`
	PrivateInput []byte `json:"private_input,omitempty"`

	// 各阶段产物
	RemoteJobID  string   `json:"remote_job_id,omitempty"`
	InnerReceipt *Receipt `json:"inner_receipt,omitempty"`

	// AssumptionClaim 外层远程请求实际携带的假设claim
	//
	// 提交远端时固化，组合校验时必须与内层回执claim逐字段相等，
	// 跨进程重启后该检查依然可执行。
	AssumptionClaim *Claim    `json:"assumption_claim,omitempty"`
	OuterReceipt    *Receipt  `json:"outer_receipt,omitempty"`
	Submission      *TxResult `json:"submission,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
