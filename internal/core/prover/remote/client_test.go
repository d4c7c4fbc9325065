package remote

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	remoteconfig "github.com/weisyn/zkcompose/internal/config/remote"
	logimpl "github.com/weisyn/zkcompose/internal/core/infrastructure/log"
	proverInterface "github.com/weisyn/zkcompose/pkg/interfaces/prover"
	"github.com/weisyn/zkcompose/pkg/types"
)

// acceptAllBackend 无条件通过seal验证的后端
type acceptAllBackend struct {
	verifyErr error
}

func (b *acceptAllBackend) Seal(ctx context.Context, claim types.Claim) ([]byte, error) {
	digest := claim.Digest()
	return digest[:], nil
}

func (b *acceptAllBackend) Verify(ctx context.Context, receipt *types.Receipt) error {
	return b.verifyErr
}

func newTestClient(t *testing.T, endpoint string, backend proverInterface.Backend) *Client {
	t.Helper()
	apiKey := "test-key"
	config := remoteconfig.New(&remoteconfig.UserRemoteConfig{
		Endpoint: &endpoint,
		APIKey:   &apiKey,
	})
	// 测试不等真实的轮询节奏
	options := config.GetOptions()
	options.SubmitBackoff = time.Millisecond
	options.PollInitialInterval = time.Millisecond
	options.PollMaxInterval = 5 * time.Millisecond
	options.PollTimeout = 250 * time.Millisecond
	return NewClient(logimpl.NewNop(), config, backend)
}

func testImage() *types.ProgramImage {
	return types.NewProgramImage([]byte(`{"abi":1,"guest":"is-even"}`))
}

func completeReceipt(image *types.ProgramImage, journal []byte) *types.Receipt {
	return &types.Receipt{
		Journal: journal,
		Seal:    []byte("remote-seal"),
		Claim:   types.NewClaim(image.ID, journal),
	}
}

func TestSubmit_SendsWireRequest(t *testing.T) {
	image := testImage()
	inner := completeReceipt(image, []byte{1})

	var captured submitRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/jobs", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(submitResponse{JobID: "job-42"})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, &acceptAllBackend{})
	handle, err := client.Submit(context.Background(), image, []byte{1, 0, 0, 0, 0, 0, 0, 0},
		[]types.Assumption{{Claim: inner.Claim}})
	require.NoError(t, err)
	require.Equal(t, proverInterface.JobHandle("job-42"), handle)

	require.Equal(t, image.ID.Hex(), captured.ImageID)
	input, err := base64.StdEncoding.DecodeString(captured.PublicInput)
	require.NoError(t, err)
	require.Equal(t, []byte{1, 0, 0, 0, 0, 0, 0, 0}, input)
	require.Len(t, captured.AssumptionClaims, 1)
	require.True(t, captured.AssumptionClaims[0].Equal(inner.Claim))
}

func TestSubmit_RetriesTransientThenSucceeds(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(submitResponse{JobID: "job-7"})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, &acceptAllBackend{})
	handle, err := client.Submit(context.Background(), testImage(), []byte{0}, nil)
	require.NoError(t, err)
	require.Equal(t, proverInterface.JobHandle("job-7"), handle)
	require.Equal(t, int64(3), calls.Load())
}

func TestSubmit_TransientExhausted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, &acceptAllBackend{})
	_, err := client.Submit(context.Background(), testImage(), []byte{0}, nil)
	require.ErrorIs(t, err, proverInterface.ErrTransientService)
}

func TestSubmit_RejectedNoRetry(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, &acceptAllBackend{})
	_, err := client.Submit(context.Background(), testImage(), []byte{0}, nil)
	require.ErrorIs(t, err, proverInterface.ErrRemoteRejected)
	require.Equal(t, int64(1), calls.Load(), "4xx不应重试")
}

func TestPoll_PendingStates(t *testing.T) {
	for _, status := range []string{remoteStatusPending, remoteStatusProving} {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(jobStatusResponse{Status: status})
		}))
		client := newTestClient(t, server.URL, &acceptAllBackend{})
		result, err := client.Poll(context.Background(), "job-1", testImage())
		require.NoError(t, err)
		require.Equal(t, proverInterface.PollStatusPending, result.Status)
		server.Close()
	}
}

func TestPoll_CompleteVerifiedReceipt(t *testing.T) {
	image := testImage()
	receipt := completeReceipt(image, []byte{1})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/jobs/job-9", r.URL.Path)
		_ = json.NewEncoder(w).Encode(jobStatusResponse{Status: remoteStatusComplete, Receipt: receipt})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, &acceptAllBackend{})
	result, err := client.Poll(context.Background(), "job-9", image)
	require.NoError(t, err)
	require.Equal(t, proverInterface.PollStatusComplete, result.Status)
	require.True(t, result.Receipt.Claim.Equal(receipt.Claim))
}

func TestPoll_TamperedJournalRejected(t *testing.T) {
	image := testImage()
	receipt := completeReceipt(image, []byte{1})
	receipt.Journal = []byte{0} // 远端篡改journal，claim摘要不再匹配
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(jobStatusResponse{Status: remoteStatusComplete, Receipt: receipt})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, &acceptAllBackend{})
	_, err := client.Poll(context.Background(), "job-1", image)
	require.ErrorIs(t, err, proverInterface.ErrReceiptUntrusted)
}

func TestPoll_WrongProgramIDRejected(t *testing.T) {
	image := testImage()
	other := types.NewProgramImage([]byte(`{"abi":1,"guest":"mod-exp"}`))
	receipt := completeReceipt(other, []byte{1})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(jobStatusResponse{Status: remoteStatusComplete, Receipt: receipt})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, &acceptAllBackend{})
	_, err := client.Poll(context.Background(), "job-1", image)
	require.ErrorIs(t, err, proverInterface.ErrReceiptUntrusted)
}

func TestPoll_UnresolvedAssumptionsFatal(t *testing.T) {
	image := testImage()
	receipt := completeReceipt(image, []byte{1})
	dangling := types.NewClaim(image.ID, []byte("unresolved"))
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(jobStatusResponse{
			Status:                remoteStatusComplete,
			Receipt:               receipt,
			UnresolvedAssumptions: []types.Claim{dangling},
		})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, &acceptAllBackend{})
	_, err := client.Poll(context.Background(), "job-1", image)
	require.ErrorIs(t, err, proverInterface.ErrReceiptUntrusted)
}

func TestPoll_SealVerifyFailureRejected(t *testing.T) {
	image := testImage()
	receipt := completeReceipt(image, []byte{1})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(jobStatusResponse{Status: remoteStatusComplete, Receipt: receipt})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, &acceptAllBackend{verifyErr: proverInterface.ErrSealInvalid})
	_, err := client.Poll(context.Background(), "job-1", image)
	require.ErrorIs(t, err, proverInterface.ErrReceiptUntrusted)
}

func TestWaitReceipt_PendingThenComplete(t *testing.T) {
	image := testImage()
	receipt := completeReceipt(image, []byte{1})
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			_ = json.NewEncoder(w).Encode(jobStatusResponse{Status: remoteStatusPending})
			return
		}
		_ = json.NewEncoder(w).Encode(jobStatusResponse{Status: remoteStatusComplete, Receipt: receipt})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, &acceptAllBackend{})
	got, err := client.WaitReceipt(context.Background(), "job-1", image)
	require.NoError(t, err)
	require.True(t, got.Claim.Equal(receipt.Claim))
	require.GreaterOrEqual(t, calls.Load(), int64(3))
}

func TestWaitReceipt_RemoteFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(jobStatusResponse{Status: remoteStatusFailed, Error: "prover crashed"})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, &acceptAllBackend{})
	_, err := client.WaitReceipt(context.Background(), "job-1", testImage())
	require.ErrorIs(t, err, proverInterface.ErrRemoteRejected)
	require.Contains(t, err.Error(), "prover crashed")
}

func TestWaitReceipt_TimeoutSendsCancel(t *testing.T) {
	var cancelled atomic.Bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && r.URL.Path == "/v1/jobs/job-1/cancel" {
			cancelled.Store(true)
			w.WriteHeader(http.StatusOK)
			return
		}
		_ = json.NewEncoder(w).Encode(jobStatusResponse{Status: remoteStatusPending})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, &acceptAllBackend{})
	_, err := client.WaitReceipt(context.Background(), "job-1", testImage())
	require.ErrorIs(t, err, proverInterface.ErrPollTimeout)
	require.True(t, cancelled.Load(), "超时后应尽力取消远端作业")
}

func TestWaitReceipt_SurvivesTransientPollErrors(t *testing.T) {
	image := testImage()
	receipt := completeReceipt(image, []byte{1})
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_ = json.NewEncoder(w).Encode(jobStatusResponse{Status: remoteStatusComplete, Receipt: receipt})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, &acceptAllBackend{})
	got, err := client.WaitReceipt(context.Background(), "job-1", image)
	require.NoError(t, err)
	require.NotNil(t, got)
}
