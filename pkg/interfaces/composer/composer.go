// Package composer 提供证明组合管理器接口定义
//
// 🧩 **组合管理器 (Composition Manager)**
//
// 驱动两段式证明流程：本地证明内层程序 → 将内层回执作为假设
// 附到外层远程证明请求 → 校验内外绑定 → 交给提交管道上链。
package composer

import (
	"context"

	"github.com/weisyn/zkcompose/pkg/types"
)

// ComposeRequest 一次端到端组合证明请求
type ComposeRequest struct {
	// InnerProgram 内层程序逻辑名（本地证明，消费私密输入）
	InnerProgram string

	// OuterProgram 外层程序逻辑名（远程证明，吸收内层假设）
	OuterProgram string

	// PrivateInput 内层程序的私密输入
	PrivateInput []byte

	// DeriveOuterInput 从内层journal派生外层公开输入；
	// 为nil时外层公开输入即内层journal原文
	DeriveOuterInput func(innerJournal []byte) ([]byte, error)

	// SkipSubmission 只做组合证明，不上链（调试/演练用途）
	SkipSubmission bool
}

// Composer 定义组合管理器接口
type Composer interface {
	// Run 同步驱动一个作业走完状态机，返回终态作业记录
	//
	// 返回的error只反映编排层面的失败；作业本身的失败分类
	// 记录在 job.Reason / job.Detail 中。
	Run(ctx context.Context, req *ComposeRequest) (*types.OrchestrationJob, error)

	// Resume 进程重启后恢复所有停留在远端轮询窗口内的作业
	//
	// 按持久化的 RemoteJobID 继续轮询，绝不重复提交远端作业。
	Resume(ctx context.Context) error

	// Cancel 取消一个进行中的作业（尽力而为）
	//
	// 本地证明阶段取消依赖执行器响应ctx；远端轮询阶段停止轮询
	// 并尽力发送远端取消；迟到回执因终态守卫被丢弃。
	Cancel(jobID string) error

	// Job 查询作业当前快照
	Job(ctx context.Context, jobID string) (*types.OrchestrationJob, bool, error)
}
