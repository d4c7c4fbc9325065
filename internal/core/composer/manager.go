// Package composer 提供证明组合管理器实现
//
// 🧩 **组合管理器 (Composition Manager)**
//
// 🎯 **核心职责**：驱动两段式组合证明的状态机——
// 本地证明内层程序 → 内层回执作为假设附到外层远程证明请求 →
// 校验内外绑定 → 交给提交管道上链。
//
// 🏗️ **关键机制**：
// - 每次状态迁移先过终态守卫（CanTransitionTo）再整体落盘，
//   迟到的远端回执/本地结果撞上守卫即被丢弃，绝不触发提交
// - 同一作业同时至多一个在途远程作业：RemoteJobID只赋值一次，
//   重启恢复按持久化句柄继续轮询，绝不重复提交
// - 失败必须映射到确切分类（Reason），不允许模糊终态
package composer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	composerInterface "github.com/weisyn/zkcompose/pkg/interfaces/composer"
	log "github.com/weisyn/zkcompose/pkg/interfaces/infrastructure/log"
	proverInterface "github.com/weisyn/zkcompose/pkg/interfaces/prover"
	registryInterface "github.com/weisyn/zkcompose/pkg/interfaces/registry"
	storageInterface "github.com/weisyn/zkcompose/pkg/interfaces/storage"
	submitterInterface "github.com/weisyn/zkcompose/pkg/interfaces/submitter"
	"github.com/weisyn/zkcompose/pkg/types"
)

// Manager 组合管理器实现
type Manager struct {
	logger    log.Logger
	registry  registryInterface.Registry
	local     proverInterface.LocalProver
	remote    proverInterface.RemoteProver
	submitter submitterInterface.Submitter
	store     storageInterface.JobStore

	// mu 保护状态迁移的检查-写入序列与running表
	mu      sync.Mutex
	running map[string]context.CancelFunc
}

// 确保Manager实现接口
var _ composerInterface.Composer = (*Manager)(nil)

// NewManager 创建组合管理器
func NewManager(
	logger log.Logger,
	registry registryInterface.Registry,
	local proverInterface.LocalProver,
	remote proverInterface.RemoteProver,
	submitter submitterInterface.Submitter,
	store storageInterface.JobStore,
) *Manager {
	return &Manager{
		logger:    logger,
		registry:  registry,
		local:     local,
		remote:    remote,
		submitter: submitter,
		store:     store,
		running:   make(map[string]context.CancelFunc),
	}
}

// ============================================================================
//                               接口实现
// ============================================================================

// Run 同步驱动一个作业走完状态机
func (m *Manager) Run(ctx context.Context, req *composerInterface.ComposeRequest) (*types.OrchestrationJob, error) {
	if req.InnerProgram == "" || req.OuterProgram == "" {
		return nil, fmt.Errorf("内外层程序名不能为空")
	}

	// 程序解析失败在作业创建前拦截，不留下无法推进的作业记录
	innerImage, err := m.registry.Resolve(req.InnerProgram)
	if err != nil {
		return nil, err
	}
	outerImage, err := m.registry.Resolve(req.OuterProgram)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	job := &types.OrchestrationJob{
		ID:           uuid.NewString(),
		State:        types.JobStateCreated,
		InnerProgram: req.InnerProgram,
		OuterProgram: req.OuterProgram,
		PrivateInput: req.PrivateInput,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := m.store.Save(ctx, job); err != nil {
		return nil, fmt.Errorf("持久化新作业失败: %w", err)
	}
	observeJobCreated()
	if m.logger != nil {
		m.logger.Infof("作业已创建: jobID=%s, inner=%s, outer=%s", job.ID, req.InnerProgram, req.OuterProgram)
	}

	runCtx, cancel := context.WithCancel(ctx)
	m.track(job.ID, cancel)
	defer m.untrack(job.ID)
	defer cancel()

	// === 阶段一：本地证明内层程序 ===
	if err := m.transition(ctx, job, types.JobStateLocalProving, nil); err != nil {
		return m.snapshot(ctx, job)
	}
	localStart := time.Now()
	innerReceipt, err := m.local.Prove(runCtx, innerImage, req.PrivateInput)
	if err != nil {
		m.failJob(ctx, job, classifyLocalFailure(err), err)
		return m.snapshot(ctx, job)
	}
	observePhase("local", localStart)
	if err := m.transition(ctx, job, types.JobStateLocalProofReady, func(j *types.OrchestrationJob) {
		j.InnerReceipt = innerReceipt
	}); err != nil {
		return m.snapshot(ctx, job)
	}

	// === 阶段二：外层远程证明（内层回执作为假设） ===
	outerInput := innerReceipt.Journal
	if req.DeriveOuterInput != nil {
		outerInput, err = req.DeriveOuterInput(innerReceipt.Journal)
		if err != nil {
			m.failJob(ctx, job, types.FailReasonCompositionInvalid,
				fmt.Errorf("派生外层公开输入失败: %w", err))
			return m.snapshot(ctx, job)
		}
	}
	assumption := types.Assumption{Claim: innerReceipt.Claim}

	handle, err := m.remote.Submit(runCtx, outerImage, outerInput, []types.Assumption{assumption})
	if err != nil {
		m.failJob(ctx, job, classifyRemoteFailure(err), err)
		return m.snapshot(ctx, job)
	}
	if err := m.transition(ctx, job, types.JobStateRemoteSubmitted, func(j *types.OrchestrationJob) {
		j.RemoteJobID = string(handle)
		j.AssumptionClaim = &assumption.Claim
	}); err != nil {
		return m.snapshot(ctx, job)
	}

	return m.pollAndFinish(ctx, runCtx, job, outerImage, handle, req.SkipSubmission)
}

// Resume 进程重启后恢复遗留作业
//
// - remote_submitted / remote_polling：按持久化句柄继续轮询，不重复提交
// - composed_ready：外层回执已落盘，直接恢复提交管道
// - 更早的非终态：本地阶段的内存状态已丢失，标记失败
// - submitting：交易可能已在途，结局未知，保守标记失败
func (m *Manager) Resume(ctx context.Context) error {
	jobs, err := m.store.List(ctx)
	if err != nil {
		return fmt.Errorf("扫描遗留作业失败: %w", err)
	}

	var wg sync.WaitGroup
	errCh := make(chan error, len(jobs))
	resumed := 0

	for _, job := range jobs {
		if job.State.Terminal() {
			continue
		}
		switch job.State {
		case types.JobStateRemoteSubmitted, types.JobStateRemotePolling:
			outerImage, err := m.registry.Resolve(job.OuterProgram)
			if err != nil {
				m.failJob(ctx, job, types.FailReasonRemoteProofFailed,
					fmt.Errorf("恢复时程序解析失败: %w", err))
				continue
			}
			resumed++
			wg.Add(1)
			go func(job *types.OrchestrationJob, outerImage *types.ProgramImage) {
				defer wg.Done()
				runCtx, cancel := context.WithCancel(ctx)
				m.track(job.ID, cancel)
				defer m.untrack(job.ID)
				defer cancel()
				if _, err := m.pollAndFinish(ctx, runCtx, job, outerImage,
					proverInterface.JobHandle(job.RemoteJobID), false); err != nil {
					errCh <- err
				}
			}(job, outerImage)

		case types.JobStateComposedReady:
			resumed++
			wg.Add(1)
			go func(job *types.OrchestrationJob) {
				defer wg.Done()
				runCtx, cancel := context.WithCancel(ctx)
				m.track(job.ID, cancel)
				defer m.untrack(job.ID)
				defer cancel()
				if _, err := m.submitAndFinish(ctx, runCtx, job); err != nil {
					errCh <- err
				}
			}(job)

		case types.JobStateSubmitting:
			m.failJob(ctx, job, types.FailReasonSubmissionFailed,
				fmt.Errorf("进程在提交窗口内重启，交易结局未知"))

		default:
			m.failJob(ctx, job, types.FailReasonCancelled,
				fmt.Errorf("进程重启中断了本地证明阶段"))
		}
	}

	if m.logger != nil {
		m.logger.Infof("重启恢复完成: total=%d, resumed=%d", len(jobs), resumed)
	}
	wg.Wait()
	close(errCh)

	var errs []error
	for err := range errCh {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Cancel 取消一个进行中的作业
func (m *Manager) Cancel(jobID string) error {
	ctx := context.Background()
	job, ok, err := m.store.Get(ctx, jobID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: jobID=%s", ErrJobNotFound, jobID)
	}
	if job.State.Terminal() {
		return nil
	}

	// 先把终态钉进存储，再打断在途工作——
	// 这样迟到的结果必然撞上终态守卫被丢弃
	m.failJob(ctx, job, types.FailReasonCancelled, fmt.Errorf("作业被调用方取消"))

	m.mu.Lock()
	cancel := m.running[jobID]
	m.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	return nil
}

// Job 查询作业当前快照
func (m *Manager) Job(ctx context.Context, jobID string) (*types.OrchestrationJob, bool, error) {
	return m.store.Get(ctx, jobID)
}

// ============================================================================
//                               流程主干
// ============================================================================

// pollAndFinish 远端轮询直至回执就绪，校验组合绑定后走提交管道
func (m *Manager) pollAndFinish(
	ctx, runCtx context.Context,
	job *types.OrchestrationJob,
	outerImage *types.ProgramImage,
	handle proverInterface.JobHandle,
	skipSubmission bool,
) (*types.OrchestrationJob, error) {
	if job.State == types.JobStateRemoteSubmitted {
		if err := m.transition(ctx, job, types.JobStateRemotePolling, nil); err != nil {
			return m.snapshot(ctx, job)
		}
	}

	remoteStart := time.Now()
	outerReceipt, err := m.remote.WaitReceipt(runCtx, handle, outerImage)
	if err != nil {
		m.failJob(ctx, job, classifyRemoteFailure(err), err)
		return m.snapshot(ctx, job)
	}
	observePhase("remote", remoteStart)

	// 组合绑定校验：外层请求携带的假设必须与内层回执claim完全一致
	if err := m.verifyComposition(job, outerReceipt); err != nil {
		m.failJob(ctx, job, types.FailReasonCompositionInvalid, err)
		return m.snapshot(ctx, job)
	}

	if err := m.transition(ctx, job, types.JobStateComposedReady, func(j *types.OrchestrationJob) {
		j.OuterReceipt = outerReceipt
	}); err != nil {
		// 迟到回执撞上终态守卫：丢弃，绝不提交
		if m.logger != nil {
			m.logger.Warnf("迟到的远端回执被丢弃: jobID=%s, err=%v", job.ID, err)
		}
		return m.snapshot(ctx, job)
	}

	if skipSubmission {
		if err := m.transition(ctx, job, types.JobStateDone, nil); err != nil {
			return m.snapshot(ctx, job)
		}
		return m.snapshot(ctx, job)
	}
	return m.submitAndFinish(ctx, runCtx, job)
}

// submitAndFinish 把组合回执交给提交管道并等待确认
func (m *Manager) submitAndFinish(ctx, runCtx context.Context, job *types.OrchestrationJob) (*types.OrchestrationJob, error) {
	if err := m.transition(ctx, job, types.JobStateSubmitting, nil); err != nil {
		return m.snapshot(ctx, job)
	}

	result, err := m.submitter.Submit(runCtx, job.OuterReceipt)
	if err != nil {
		reason := types.FailReasonSubmissionFailed
		if errors.Is(err, context.Canceled) {
			reason = types.FailReasonCancelled
		}
		m.failJob(ctx, job, reason, err)
		return m.snapshot(ctx, job)
	}

	if err := m.transition(ctx, job, types.JobStateDone, func(j *types.OrchestrationJob) {
		j.Submission = result
	}); err != nil {
		return m.snapshot(ctx, job)
	}
	if m.logger != nil {
		m.logger.Infof("作业完成: jobID=%s, txHash=%s, block=%d", job.ID, result.TxHash, result.BlockNumber)
	}
	return m.snapshot(ctx, job)
}

// verifyComposition 内外证明绑定校验
//
// 外层回执的镜像标识/seal/journal摘要已由远程客户端校验；
// 这里把关组合语义：内层回执仍然自洽，且当初附给外层请求的
// 假设claim与内层回执claim逐字段相等。任何不符即组合不可靠，
// 必须在提交前拒绝，而不是推迟给链上验证者。
func (m *Manager) verifyComposition(job *types.OrchestrationJob, outerReceipt *types.Receipt) error {
	if job.InnerReceipt == nil {
		return WrapCompositionInvalidError(job.ID, fmt.Errorf("内层回执缺失"))
	}
	if err := job.InnerReceipt.VerifyIntegrity(); err != nil {
		return WrapCompositionInvalidError(job.ID, err)
	}
	if err := outerReceipt.VerifyIntegrity(); err != nil {
		return WrapCompositionInvalidError(job.ID, err)
	}
	if job.AssumptionClaim == nil {
		return WrapCompositionInvalidError(job.ID, fmt.Errorf("假设claim缺失"))
	}
	if !job.AssumptionClaim.Equal(job.InnerReceipt.Claim) {
		return WrapCompositionInvalidError(job.ID, fmt.Errorf(
			"假设claim与内层回执claim不符: assumption=%s, inner=%s",
			job.AssumptionClaim.Digest().Hex(), job.InnerReceipt.Claim.Digest().Hex()))
	}
	return nil
}

// ============================================================================
//                            状态迁移与失败处理
// ============================================================================

// transition 执行一次受守卫保护的状态迁移并整体落盘
//
// 以存储中的状态为准做检查（Cancel可能并发推进了终态），
// 检查-写入序列持锁，保证守卫不可穿越。
func (m *Manager) transition(ctx context.Context, job *types.OrchestrationJob, next types.JobState, mutate func(*types.OrchestrationJob)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	current := job.State
	if stored, ok, err := m.store.Get(ctx, job.ID); err != nil {
		return err
	} else if ok {
		current = stored.State
		job.Reason = stored.Reason
		job.Detail = stored.Detail
	}

	if !current.CanTransitionTo(next) {
		job.State = current
		return WrapStaleTransitionError(job.ID, current, next)
	}

	job.State = next
	if mutate != nil {
		mutate(job)
	}
	job.UpdatedAt = time.Now().UTC()
	if err := m.store.Save(ctx, job); err != nil {
		return fmt.Errorf("持久化状态迁移失败: jobID=%s, to=%s, cause=%w", job.ID, next, err)
	}

	observeTransition(job, next)
	if m.logger != nil {
		m.logger.Debugf("状态迁移: jobID=%s, %s → %s", job.ID, current, next)
	}
	return nil
}

// failJob 把作业迁入失败终态（已终态则no-op）
func (m *Manager) failJob(ctx context.Context, job *types.OrchestrationJob, reason types.FailReason, cause error) {
	err := m.transition(ctx, job, types.JobStateFailed, func(j *types.OrchestrationJob) {
		j.Reason = reason
		j.Detail = cause.Error()
	})
	if err != nil {
		// 已被并发路径（典型为Cancel）钉入终态
		return
	}
	if m.logger != nil {
		m.logger.Warnf("作业失败: jobID=%s, reason=%s, detail=%v", job.ID, reason, cause)
	}
}

// snapshot 返回作业的存储权威快照
func (m *Manager) snapshot(ctx context.Context, job *types.OrchestrationJob) (*types.OrchestrationJob, error) {
	stored, ok, err := m.store.Get(ctx, job.ID)
	if err != nil || !ok {
		return job, err
	}
	return stored, nil
}

// track / untrack 维护在途作业的取消句柄
func (m *Manager) track(jobID string, cancel context.CancelFunc) {
	m.mu.Lock()
	m.running[jobID] = cancel
	m.mu.Unlock()
}

func (m *Manager) untrack(jobID string) {
	m.mu.Lock()
	delete(m.running, jobID)
	m.mu.Unlock()
}

// ============================================================================
//                               失败分类
// ============================================================================

// classifyLocalFailure 本地证明阶段的失败分类
//
// 执行故障、不支持的镜像、封印失败一律归为内层证明失败；
// 它们对该作业都是确定性致命的。
func classifyLocalFailure(err error) types.FailReason {
	if errors.Is(err, context.Canceled) {
		return types.FailReasonCancelled
	}
	return types.FailReasonInnerProofFailed
}

// classifyRemoteFailure 远端证明阶段的失败分类
func classifyRemoteFailure(err error) types.FailReason {
	switch {
	case errors.Is(err, context.Canceled):
		return types.FailReasonCancelled
	case errors.Is(err, proverInterface.ErrReceiptUntrusted):
		// 远端给出的回执未通过独立校验：组合产物不可靠
		return types.FailReasonCompositionInvalid
	default:
		return types.FailReasonRemoteProofFailed
	}
}
