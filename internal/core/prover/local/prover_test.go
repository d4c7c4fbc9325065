package local

import (
	"context"
	"encoding/binary"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	proverconfig "github.com/weisyn/zkcompose/internal/config/prover"
	"github.com/weisyn/zkcompose/internal/core/guest"
	logimpl "github.com/weisyn/zkcompose/internal/core/infrastructure/log"
	executorInterface "github.com/weisyn/zkcompose/pkg/interfaces/executor"
	"github.com/weisyn/zkcompose/pkg/types"
)

// stubBackend 固定返回可预测seal的封印后端
type stubBackend struct {
	sealErr error
	delay   time.Duration
	calls   atomic.Int64
}

func (b *stubBackend) Seal(ctx context.Context, claim types.Claim) ([]byte, error) {
	b.calls.Add(1)
	if b.delay > 0 {
		select {
		case <-time.After(b.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if b.sealErr != nil {
		return nil, b.sealErr
	}
	digest := claim.Digest()
	return append([]byte("seal:"), digest[:]...), nil
}

func (b *stubBackend) Verify(ctx context.Context, receipt *types.Receipt) error {
	return nil
}

func newTestProver(t *testing.T, slots int, backend *stubBackend) *Prover {
	t.Helper()
	config := proverconfig.New(&proverconfig.UserProverConfig{WorkerSlots: &slots})
	executor := guest.NewNativeExecutor(logimpl.NewNop())
	return NewProver(logimpl.NewNop(), config, executor, backend)
}

func modExpInput(n, e, x uint64) []byte {
	input := make([]byte, 24)
	binary.LittleEndian.PutUint64(input[0:8], n)
	binary.LittleEndian.PutUint64(input[8:16], e)
	binary.LittleEndian.PutUint64(input[16:24], x)
	return input
}

func TestProve_ModExpReceipt(t *testing.T) {
	backend := &stubBackend{}
	prover := newTestProver(t, 2, backend)
	image := guest.BuiltinImages()[guest.ProgramModExp]

	receipt, err := prover.Prove(context.Background(), image, modExpInput(7, 3, 2))
	require.NoError(t, err)
	require.NotNil(t, receipt)

	// journal提交 (n, e, x^e mod n) = (7, 3, 1)
	require.Len(t, receipt.Journal, 24)
	require.Equal(t, uint64(7), binary.LittleEndian.Uint64(receipt.Journal[0:8]))
	require.Equal(t, uint64(3), binary.LittleEndian.Uint64(receipt.Journal[8:16]))
	require.Equal(t, uint64(1), binary.LittleEndian.Uint64(receipt.Journal[16:24]))

	// claim绑定镜像标识与journal摘要
	require.Equal(t, image.ID, receipt.Claim.ProgramID)
	require.NoError(t, receipt.VerifyIntegrity())
	require.NotEmpty(t, receipt.Seal)
}

func TestProve_PrivateInputNotInJournal(t *testing.T) {
	backend := &stubBackend{}
	prover := newTestProver(t, 1, backend)
	image := guest.BuiltinImages()[guest.ProgramModExp]

	// x=5 是私密输入，journal里只能出现派生值 5^2 mod 9 = 7
	receipt, err := prover.Prove(context.Background(), image, modExpInput(9, 2, 5))
	require.NoError(t, err)
	require.Equal(t, uint64(7), binary.LittleEndian.Uint64(receipt.Journal[16:24]))
	require.NotEqual(t, uint64(5), binary.LittleEndian.Uint64(receipt.Journal[16:24]))
}

func TestProve_ExecutionFaultNoSeal(t *testing.T) {
	backend := &stubBackend{}
	prover := newTestProver(t, 1, backend)
	image := guest.BuiltinImages()[guest.ProgramModExp]

	// 模数为零是执行故障，封印后端不应被触碰
	_, err := prover.Prove(context.Background(), image, modExpInput(0, 3, 2))
	require.Error(t, err)
	require.ErrorIs(t, err, executorInterface.ErrExecutionFault)
	require.Zero(t, backend.calls.Load())
}

func TestProve_SealFailurePropagates(t *testing.T) {
	sealErr := errors.New("backend exploded")
	backend := &stubBackend{sealErr: sealErr}
	prover := newTestProver(t, 1, backend)
	image := guest.BuiltinImages()[guest.ProgramIsEven]

	input := make([]byte, 8)
	binary.LittleEndian.PutUint64(input, 4)
	_, err := prover.Prove(context.Background(), image, input)
	require.ErrorIs(t, err, sealErr)
}

func TestProve_WorkerSlotsBoundConcurrency(t *testing.T) {
	backend := &stubBackend{delay: 50 * time.Millisecond}
	prover := newTestProver(t, 1, backend)
	image := guest.BuiltinImages()[guest.ProgramIsEven]
	input := make([]byte, 8)

	start := time.Now()
	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := prover.Prove(context.Background(), image, input)
			require.NoError(t, err)
		}()
	}
	wg.Wait()

	// 单槽下3个证明必须串行，总耗时不低于3倍单次延迟
	require.GreaterOrEqual(t, time.Since(start), 150*time.Millisecond)
}

func TestProve_ContextCancelledWhileQueued(t *testing.T) {
	backend := &stubBackend{delay: 200 * time.Millisecond}
	prover := newTestProver(t, 1, backend)
	image := guest.BuiltinImages()[guest.ProgramIsEven]
	input := make([]byte, 8)

	// 占住唯一的worker槽
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = prover.Prove(context.Background(), image, input)
	}()
	time.Sleep(20 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_, err := prover.Prove(ctx, image, input)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	wg.Wait()
}
