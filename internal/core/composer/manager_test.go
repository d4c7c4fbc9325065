package composer

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	logimpl "github.com/weisyn/zkcompose/internal/core/infrastructure/log"
	composerInterface "github.com/weisyn/zkcompose/pkg/interfaces/composer"
	proverInterface "github.com/weisyn/zkcompose/pkg/interfaces/prover"
	"github.com/weisyn/zkcompose/pkg/types"
)

// ============================================================================
//                               测试替身
// ============================================================================

// memKV 进程内KV存储（测试用）
type memKV struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemKV() *memKV {
	return &memKV{data: make(map[string][]byte)}
}

func (s *memKV) Get(ctx context.Context, key []byte) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.data[string(key)]
	if !ok {
		return nil, nil
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

func (s *memKV) Set(ctx context.Context, key, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := make([]byte, len(value))
	copy(stored, value)
	s.data[string(key)] = stored
	return nil
}

func (s *memKV) Delete(ctx context.Context, key []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, string(key))
	return nil
}

func (s *memKV) ScanPrefix(ctx context.Context, prefix []byte, fn func(key, value []byte) bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, value := range s.data {
		if bytes.HasPrefix([]byte(key), prefix) {
			if !fn([]byte(key), value) {
				break
			}
		}
	}
	return nil
}

func (s *memKV) Close() error { return nil }

// stubRegistry 固定两个程序的注册表
type stubRegistry struct {
	images map[string]*types.ProgramImage
}

func newStubRegistry() *stubRegistry {
	return &stubRegistry{images: map[string]*types.ProgramImage{
		"inner": types.NewProgramImage([]byte(`{"abi":1,"guest":"inner"}`)),
		"outer": types.NewProgramImage([]byte(`{"abi":1,"guest":"outer"}`)),
	}}
}

func (r *stubRegistry) Resolve(name string) (*types.ProgramImage, error) {
	image, ok := r.images[name]
	if !ok {
		return nil, fmt.Errorf("program not found: %s", name)
	}
	return image, nil
}

func (r *stubRegistry) Images() map[string]types.ImageID {
	out := make(map[string]types.ImageID)
	for name, image := range r.images {
		out[name] = image.ID
	}
	return out
}

// stubLocal 本地证明替身
type stubLocal struct {
	err     error
	journal []byte
}

func (l *stubLocal) Prove(ctx context.Context, image *types.ProgramImage, privateInput []byte) (*types.Receipt, error) {
	if l.err != nil {
		return nil, l.err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	journal := l.journal
	if journal == nil {
		journal = []byte("inner-journal")
	}
	return &types.Receipt{
		Journal: journal,
		Seal:    []byte("inner-seal"),
		Claim:   types.NewClaim(image.ID, journal),
	}, nil
}

// stubRemote 远程证明替身
type stubRemote struct {
	mu          sync.Mutex
	submitErr   error
	waitErr     error
	journal     []byte
	submitCalls int
	gate        chan struct{} // 非nil时WaitReceipt等待该信号（模拟慢/迟到回执）

	lastInput       []byte
	lastAssumptions []types.Assumption
}

func (r *stubRemote) Submit(ctx context.Context, image *types.ProgramImage, publicInput []byte, assumptions []types.Assumption) (proverInterface.JobHandle, error) {
	r.mu.Lock()
	r.submitCalls++
	r.lastInput = publicInput
	r.lastAssumptions = assumptions
	r.mu.Unlock()
	if r.submitErr != nil {
		return "", r.submitErr
	}
	return "remote-job-1", nil
}

func (r *stubRemote) Poll(ctx context.Context, handle proverInterface.JobHandle, image *types.ProgramImage) (*proverInterface.PollResult, error) {
	return &proverInterface.PollResult{Status: proverInterface.PollStatusPending}, nil
}

func (r *stubRemote) WaitReceipt(ctx context.Context, handle proverInterface.JobHandle, image *types.ProgramImage) (*types.Receipt, error) {
	if r.gate != nil {
		<-r.gate
	}
	if r.waitErr != nil {
		return nil, r.waitErr
	}
	journal := r.journal
	if journal == nil {
		journal = []byte("outer-journal")
	}
	return &types.Receipt{
		Journal: journal,
		Seal:    []byte("outer-seal"),
		Claim:   types.NewClaim(image.ID, journal),
	}, nil
}

func (r *stubRemote) Cancel(ctx context.Context, handle proverInterface.JobHandle) error {
	return nil
}

// stubSubmitter 提交管道替身
type stubSubmitter struct {
	err   error
	calls atomic.Int64
}

func (s *stubSubmitter) Submit(ctx context.Context, receipt *types.Receipt) (*types.TxResult, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	return &types.TxResult{TxHash: "0xabc", BlockNumber: 12, GasUsed: 21000, Succeeded: true}, nil
}

// ============================================================================
//                               测试装配
// ============================================================================

type fixture struct {
	manager   *Manager
	store     *KVJobStore
	registry  *stubRegistry
	local     *stubLocal
	remote    *stubRemote
	submitter *stubSubmitter
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:     NewKVJobStore(newMemKV()),
		registry:  newStubRegistry(),
		local:     &stubLocal{},
		remote:    &stubRemote{},
		submitter: &stubSubmitter{},
	}
	f.manager = NewManager(logimpl.NewNop(), f.registry, f.local, f.remote, f.submitter, f.store)
	return f
}

func defaultRequest() *composerInterface.ComposeRequest {
	return &composerInterface.ComposeRequest{
		InnerProgram: "inner",
		OuterProgram: "outer",
		PrivateInput: []byte{1, 2, 3},
	}
}

// ============================================================================
//                               端到端路径
// ============================================================================

func TestRun_HappyPath(t *testing.T) {
	f := newFixture(t)

	job, err := f.manager.Run(context.Background(), defaultRequest())
	require.NoError(t, err)
	require.Equal(t, types.JobStateDone, job.State)
	require.Empty(t, job.Reason)

	// 各阶段产物齐全
	require.NotNil(t, job.InnerReceipt)
	require.NotNil(t, job.OuterReceipt)
	require.NotNil(t, job.Submission)
	require.Equal(t, "0xabc", job.Submission.TxHash)
	require.Equal(t, "remote-job-1", job.RemoteJobID)

	// 假设claim与内层回执claim逐字段一致
	require.NotNil(t, job.AssumptionClaim)
	require.True(t, job.AssumptionClaim.Equal(job.InnerReceipt.Claim))

	// 外层公开输入默认为内层journal原文
	require.Equal(t, job.InnerReceipt.Journal, f.remote.lastInput)
	require.Len(t, f.remote.lastAssumptions, 1)
	require.True(t, f.remote.lastAssumptions[0].Claim.Equal(job.InnerReceipt.Claim))

	// 终态持久化
	stored, ok, err := f.manager.Job(context.Background(), job.ID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, types.JobStateDone, stored.State)
}

func TestRun_DeriveOuterInput(t *testing.T) {
	f := newFixture(t)
	req := defaultRequest()
	req.DeriveOuterInput = func(innerJournal []byte) ([]byte, error) {
		return innerJournal[:5], nil
	}

	job, err := f.manager.Run(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, types.JobStateDone, job.State)
	require.Equal(t, job.InnerReceipt.Journal[:5], f.remote.lastInput)
}

func TestRun_SkipSubmission(t *testing.T) {
	f := newFixture(t)
	req := defaultRequest()
	req.SkipSubmission = true

	job, err := f.manager.Run(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, types.JobStateDone, job.State)
	require.Nil(t, job.Submission)
	require.Zero(t, f.submitter.calls.Load(), "跳过提交时不应触碰提交管道")
}

func TestRun_UnknownProgramNoJob(t *testing.T) {
	f := newFixture(t)
	req := defaultRequest()
	req.InnerProgram = "nonexistent"

	_, err := f.manager.Run(context.Background(), req)
	require.Error(t, err)

	jobs, err := f.store.List(context.Background())
	require.NoError(t, err)
	require.Empty(t, jobs, "程序解析失败不应留下作业记录")
}

// ============================================================================
//                               失败分类
// ============================================================================

func TestRun_InnerProofFailure(t *testing.T) {
	f := newFixture(t)
	f.local.err = fmt.Errorf("boom: %w", fmt.Errorf("guest fault"))

	job, err := f.manager.Run(context.Background(), defaultRequest())
	require.NoError(t, err)
	require.Equal(t, types.JobStateFailed, job.State)
	require.Equal(t, types.FailReasonInnerProofFailed, job.Reason)
	require.NotEmpty(t, job.Detail)
	require.Zero(t, f.remote.submitCalls, "内层失败后不应提交远端")
	require.Zero(t, f.submitter.calls.Load())
}

func TestRun_RemoteSubmitFailure(t *testing.T) {
	f := newFixture(t)
	f.remote.submitErr = proverInterface.ErrTransientService

	job, err := f.manager.Run(context.Background(), defaultRequest())
	require.NoError(t, err)
	require.Equal(t, types.JobStateFailed, job.State)
	require.Equal(t, types.FailReasonRemoteProofFailed, job.Reason)
	require.Zero(t, f.submitter.calls.Load())
}

func TestRun_PollTimeoutFailure(t *testing.T) {
	f := newFixture(t)
	f.remote.waitErr = proverInterface.ErrPollTimeout

	job, err := f.manager.Run(context.Background(), defaultRequest())
	require.NoError(t, err)
	require.Equal(t, types.JobStateFailed, job.State)
	require.Equal(t, types.FailReasonRemoteProofFailed, job.Reason)
	require.Zero(t, f.submitter.calls.Load())
}

func TestRun_UntrustedReceiptIsCompositionInvalid(t *testing.T) {
	f := newFixture(t)
	f.remote.waitErr = proverInterface.ErrReceiptUntrusted

	job, err := f.manager.Run(context.Background(), defaultRequest())
	require.NoError(t, err)
	require.Equal(t, types.JobStateFailed, job.State)
	require.Equal(t, types.FailReasonCompositionInvalid, job.Reason)
	require.Zero(t, f.submitter.calls.Load(), "组合不可靠绝不提交")
}

func TestRun_SubmissionFailure(t *testing.T) {
	f := newFixture(t)
	f.submitter.err = fmt.Errorf("tx reverted")

	job, err := f.manager.Run(context.Background(), defaultRequest())
	require.NoError(t, err)
	require.Equal(t, types.JobStateFailed, job.State)
	require.Equal(t, types.FailReasonSubmissionFailed, job.Reason)
}

func TestRun_DeriveFailureIsCompositionInvalid(t *testing.T) {
	f := newFixture(t)
	req := defaultRequest()
	req.DeriveOuterInput = func([]byte) ([]byte, error) {
		return nil, fmt.Errorf("journal too short")
	}

	job, err := f.manager.Run(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, types.JobStateFailed, job.State)
	require.Equal(t, types.FailReasonCompositionInvalid, job.Reason)
	require.Zero(t, f.remote.submitCalls)
}

// ============================================================================
//                            取消与迟到回执
// ============================================================================

func TestCancel_DuringRemotePollingDiscardsLateReceipt(t *testing.T) {
	f := newFixture(t)
	f.remote.gate = make(chan struct{})

	done := make(chan *types.OrchestrationJob, 1)
	go func() {
		job, err := f.manager.Run(context.Background(), defaultRequest())
		require.NoError(t, err)
		done <- job
	}()

	// 等作业进入远端轮询
	var jobID string
	require.Eventually(t, func() bool {
		jobs, err := f.store.List(context.Background())
		require.NoError(t, err)
		for _, j := range jobs {
			if j.State == types.JobStateRemotePolling {
				jobID = j.ID
				return true
			}
		}
		return false
	}, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, f.manager.Cancel(jobID))
	// 取消后放行"迟到"的远端回执
	close(f.remote.gate)

	job := <-done
	require.Equal(t, types.JobStateFailed, job.State)
	require.Equal(t, types.FailReasonCancelled, job.Reason)
	require.Nil(t, job.OuterReceipt, "迟到回执必须被丢弃")
	require.Zero(t, f.submitter.calls.Load(), "取消后的迟到回执绝不触发提交")
}

func TestCancel_UnknownJob(t *testing.T) {
	f := newFixture(t)
	err := f.manager.Cancel("no-such-job")
	require.ErrorIs(t, err, ErrJobNotFound)
}

func TestCancel_TerminalJobIsNoop(t *testing.T) {
	f := newFixture(t)
	job, err := f.manager.Run(context.Background(), defaultRequest())
	require.NoError(t, err)
	require.Equal(t, types.JobStateDone, job.State)

	require.NoError(t, f.manager.Cancel(job.ID))
	stored, ok, err := f.manager.Job(context.Background(), job.ID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, types.JobStateDone, stored.State, "终态作业不受取消影响")
}

// ============================================================================
//                               重启恢复
// ============================================================================

// seedJob 直接向存储写入一个指定状态的作业
func seedJob(t *testing.T, f *fixture, state types.JobState, mutate func(*types.OrchestrationJob)) *types.OrchestrationJob {
	t.Helper()
	innerImage, err := f.registry.Resolve("inner")
	require.NoError(t, err)
	innerJournal := []byte("inner-journal")
	innerReceipt := &types.Receipt{
		Journal: innerJournal,
		Seal:    []byte("inner-seal"),
		Claim:   types.NewClaim(innerImage.ID, innerJournal),
	}
	job := &types.OrchestrationJob{
		ID:              "seeded-" + string(state),
		State:           state,
		InnerProgram:    "inner",
		OuterProgram:    "outer",
		InnerReceipt:    innerReceipt,
		AssumptionClaim: &innerReceipt.Claim,
		RemoteJobID:     "remote-job-1",
		CreatedAt:       time.Now().UTC(),
		UpdatedAt:       time.Now().UTC(),
	}
	if mutate != nil {
		mutate(job)
	}
	require.NoError(t, f.store.Save(context.Background(), job))
	return job
}

func TestResume_ContinuesPollingWithoutResubmit(t *testing.T) {
	f := newFixture(t)
	seeded := seedJob(t, f, types.JobStateRemotePolling, nil)

	require.NoError(t, f.manager.Resume(context.Background()))

	stored, ok, err := f.manager.Job(context.Background(), seeded.ID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, types.JobStateDone, stored.State)
	require.NotNil(t, stored.Submission)
	require.Zero(t, f.remote.submitCalls, "恢复路径绝不重复提交远端作业")
}

func TestResume_RemoteSubmittedAdvancesToPolling(t *testing.T) {
	f := newFixture(t)
	seeded := seedJob(t, f, types.JobStateRemoteSubmitted, nil)

	require.NoError(t, f.manager.Resume(context.Background()))

	stored, _, err := f.manager.Job(context.Background(), seeded.ID)
	require.NoError(t, err)
	require.Equal(t, types.JobStateDone, stored.State)
	require.Zero(t, f.remote.submitCalls)
}

func TestResume_ComposedReadyResumesSubmission(t *testing.T) {
	f := newFixture(t)
	outerImage, err := f.registry.Resolve("outer")
	require.NoError(t, err)
	outerJournal := []byte("outer-journal")
	seeded := seedJob(t, f, types.JobStateComposedReady, func(j *types.OrchestrationJob) {
		j.OuterReceipt = &types.Receipt{
			Journal: outerJournal,
			Seal:    []byte("outer-seal"),
			Claim:   types.NewClaim(outerImage.ID, outerJournal),
		}
	})

	require.NoError(t, f.manager.Resume(context.Background()))

	stored, _, err := f.manager.Job(context.Background(), seeded.ID)
	require.NoError(t, err)
	require.Equal(t, types.JobStateDone, stored.State)
	require.Equal(t, int64(1), f.submitter.calls.Load())
}

func TestResume_SubmittingWindowIsFatal(t *testing.T) {
	f := newFixture(t)
	seeded := seedJob(t, f, types.JobStateSubmitting, nil)

	require.NoError(t, f.manager.Resume(context.Background()))

	stored, _, err := f.manager.Job(context.Background(), seeded.ID)
	require.NoError(t, err)
	require.Equal(t, types.JobStateFailed, stored.State)
	require.Equal(t, types.FailReasonSubmissionFailed, stored.Reason)
	require.Zero(t, f.submitter.calls.Load(), "提交窗口内重启绝不盲目重发")
}

func TestResume_LocalPhaseInterrupted(t *testing.T) {
	f := newFixture(t)
	seeded := seedJob(t, f, types.JobStateLocalProving, func(j *types.OrchestrationJob) {
		j.InnerReceipt = nil
		j.AssumptionClaim = nil
		j.RemoteJobID = ""
	})

	require.NoError(t, f.manager.Resume(context.Background()))

	stored, _, err := f.manager.Job(context.Background(), seeded.ID)
	require.NoError(t, err)
	require.Equal(t, types.JobStateFailed, stored.State)
	require.Equal(t, types.FailReasonCancelled, stored.Reason)
}

func TestResume_TamperedAssumptionClaimRejected(t *testing.T) {
	f := newFixture(t)
	innerImage, err := f.registry.Resolve("inner")
	require.NoError(t, err)
	wrongClaim := types.NewClaim(innerImage.ID, []byte("some-other-journal"))
	seeded := seedJob(t, f, types.JobStateRemotePolling, func(j *types.OrchestrationJob) {
		j.AssumptionClaim = &wrongClaim
	})

	require.NoError(t, f.manager.Resume(context.Background()))

	stored, _, err := f.manager.Job(context.Background(), seeded.ID)
	require.NoError(t, err)
	require.Equal(t, types.JobStateFailed, stored.State)
	require.Equal(t, types.FailReasonCompositionInvalid, stored.Reason)
	require.Zero(t, f.submitter.calls.Load(), "组合绑定不符绝不提交")
}

// ============================================================================
//                               状态机守卫
// ============================================================================

func TestTransition_StrictlyMonotonic(t *testing.T) {
	f := newFixture(t)
	job := seedJob(t, f, types.JobStateComposedReady, nil)

	// 回退迁移必须被拒绝
	err := f.manager.transition(context.Background(), job, types.JobStateLocalProving, nil)
	require.ErrorIs(t, err, ErrStaleTransition)

	// 原地踏步同样被拒绝
	err = f.manager.transition(context.Background(), job, types.JobStateComposedReady, nil)
	require.ErrorIs(t, err, ErrStaleTransition)
}

func TestTransition_TerminalGuard(t *testing.T) {
	f := newFixture(t)
	job := seedJob(t, f, types.JobStateFailed, func(j *types.OrchestrationJob) {
		j.Reason = types.FailReasonCancelled
	})

	err := f.manager.transition(context.Background(), job, types.JobStateComposedReady, nil)
	require.ErrorIs(t, err, ErrStaleTransition)

	err = f.manager.transition(context.Background(), job, types.JobStateFailed, nil)
	require.ErrorIs(t, err, ErrStaleTransition, "终态后连failed也不可再迁移")
}
