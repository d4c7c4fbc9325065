// Package remote 提供远程证明服务REST客户端实现
//
// 🌐 **远程证明客户端 (Remote Prover Client)**
//
// 🎯 **核心职责**：把证明作业提交给远端证明服务，轮询直至回执就绪，
// 并在摄入前对回执做客户端独立校验。
//
// 🔒 **信任模型**：远端服务只被信任可用性，不被信任正确性——
// 回执必须在客户端重算journal摘要、比对镜像标识、验证seal、
// 确认无未解假设之后才可继续流转。
//
// 📋 **错误分类**：
// - 网络错/5xx → 内部同参重试，耗尽后 ErrTransientService
// - 4xx → ErrRemoteRejected（致命，不重试）
// - 轮询整体超时 → ErrPollTimeout（同时尽力取消远端作业）
// - 回执校验失败 → ErrReceiptUntrusted
package remote

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	remoteconfig "github.com/weisyn/zkcompose/internal/config/remote"
	log "github.com/weisyn/zkcompose/pkg/interfaces/infrastructure/log"
	proverInterface "github.com/weisyn/zkcompose/pkg/interfaces/prover"
	"github.com/weisyn/zkcompose/pkg/types"
)

// Client 远程证明服务REST客户端
type Client struct {
	logger  log.Logger
	options *remoteconfig.RemoteOptions
	backend proverInterface.Backend
	http    *http.Client
}

// 确保Client实现接口
var _ proverInterface.RemoteProver = (*Client)(nil)

// NewClient 创建远程证明客户端
func NewClient(logger log.Logger, config *remoteconfig.Config, backend proverInterface.Backend) *Client {
	options := config.GetOptions()
	return &Client{
		logger:  logger,
		options: options,
		backend: backend,
		http: &http.Client{
			Timeout: options.RequestTimeout,
		},
	}
}

// ============================================================================
//                               线上报文结构
// ============================================================================

// submitRequest 作业提交请求体
type submitRequest struct {
	ImageID          string        `json:"image_id"`
	PublicInput      string        `json:"public_input"` // base64
	AssumptionClaims []types.Claim `json:"assumption_claims,omitempty"`
}

// submitResponse 作业提交响应体
type submitResponse struct {
	JobID string `json:"job_id"`
}

// jobStatusResponse 作业状态查询响应体
type jobStatusResponse struct {
	Status                string         `json:"status"`
	Receipt               *types.Receipt `json:"receipt,omitempty"`
	Error                 string         `json:"error,omitempty"`
	UnresolvedAssumptions []types.Claim  `json:"unresolved_assumptions,omitempty"`
}

// 远端作业状态字面量
const (
	remoteStatusPending  = "pending"
	remoteStatusProving  = "proving"
	remoteStatusComplete = "complete"
	remoteStatusFailed   = "failed"
)

// ============================================================================
//                               接口实现
// ============================================================================

// Submit 向远端服务提交证明作业
func (c *Client) Submit(ctx context.Context, image *types.ProgramImage, publicInput []byte, assumptions []types.Assumption) (proverInterface.JobHandle, error) {
	claims := make([]types.Claim, 0, len(assumptions))
	for _, a := range assumptions {
		claims = append(claims, a.Claim)
	}
	body, err := json.Marshal(&submitRequest{
		ImageID:          image.ID.Hex(),
		PublicInput:      base64.StdEncoding.EncodeToString(publicInput),
		AssumptionClaims: claims,
	})
	if err != nil {
		return "", WrapRemoteRejectedError(fmt.Errorf("编码提交请求失败: %w", err))
	}

	var handle proverInterface.JobHandle
	attempts := c.options.SubmitRetries + 1
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			// 同参重试：指数退避
			backoff := c.options.SubmitBackoff * time.Duration(1<<(attempt-1))
			if c.logger != nil {
				c.logger.Warnf("远端提交瞬时失败，%v后重试: attempt=%d/%d", backoff, attempt+1, attempts)
			}
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		var resp submitResponse
		status, err := c.doJSON(ctx, http.MethodPost, "/v1/jobs", body, &resp)
		switch {
		case err != nil || status >= 500:
			// 网络错或5xx：瞬时，进入下一轮重试
			continue
		case status == http.StatusCreated || status == http.StatusOK:
			handle = proverInterface.JobHandle(resp.JobID)
			if handle == "" {
				return "", WrapRemoteRejectedError(fmt.Errorf("远端返回空job_id"))
			}
			if c.logger != nil {
				c.logger.Infof("远端作业已提交: jobID=%s, imageID=%s, assumptions=%d",
					handle, image.ID.Hex(), len(claims))
			}
			return handle, nil
		default:
			// 4xx：请求本身非法，重试无意义
			return "", WrapRemoteRejectedError(fmt.Errorf("远端拒绝: status=%d", status))
		}
	}
	return "", WrapTransientServiceError(fmt.Errorf("提交重试耗尽: attempts=%d", attempts))
}

// Poll 查询远端作业状态
func (c *Client) Poll(ctx context.Context, handle proverInterface.JobHandle, image *types.ProgramImage) (*proverInterface.PollResult, error) {
	var resp jobStatusResponse
	status, err := c.doJSON(ctx, http.MethodGet, "/v1/jobs/"+string(handle), nil, &resp)
	if err != nil || status >= 500 {
		return nil, WrapTransientServiceError(fmt.Errorf("查询作业状态失败: status=%d, cause=%v", status, err))
	}
	if status != http.StatusOK {
		return nil, WrapRemoteRejectedError(fmt.Errorf("查询作业状态被拒: jobID=%s, status=%d", handle, status))
	}

	switch resp.Status {
	case remoteStatusPending, remoteStatusProving:
		return &proverInterface.PollResult{Status: proverInterface.PollStatusPending}, nil

	case remoteStatusFailed:
		return &proverInterface.PollResult{
			Status: proverInterface.PollStatusFailed,
			Reason: resp.Error,
		}, nil

	case remoteStatusComplete:
		if err := c.verifyReceipt(ctx, resp.Receipt, image, resp.UnresolvedAssumptions); err != nil {
			return nil, err
		}
		return &proverInterface.PollResult{
			Status:  proverInterface.PollStatusComplete,
			Receipt: resp.Receipt,
		}, nil

	default:
		return nil, WrapRemoteRejectedError(fmt.Errorf("未知作业状态: jobID=%s, status=%q", handle, resp.Status))
	}
}

// WaitReceipt 有界指数退避轮询直至回执就绪或超时
func (c *Client) WaitReceipt(ctx context.Context, handle proverInterface.JobHandle, image *types.ProgramImage) (*types.Receipt, error) {
	deadline := time.Now().Add(c.options.PollTimeout)
	interval := c.options.PollInitialInterval

	for {
		result, err := c.Poll(ctx, handle, image)
		if err != nil {
			// 单次查询瞬时失败不放弃整轮等待，其余错误直接上浮
			if !isTransient(err) {
				return nil, err
			}
			if c.logger != nil {
				c.logger.Warnf("轮询瞬时失败: jobID=%s, err=%v", handle, err)
			}
		} else {
			switch result.Status {
			case proverInterface.PollStatusComplete:
				return result.Receipt, nil
			case proverInterface.PollStatusFailed:
				return nil, WrapRemoteRejectedError(fmt.Errorf("远端作业失败: jobID=%s, reason=%s", handle, result.Reason))
			}
		}

		if time.Now().After(deadline) {
			// 超时后尽力取消；远端不保证真正停止，迟到结果由调用方丢弃
			c.bestEffortCancel(handle)
			return nil, WrapPollTimeoutError(handle, c.options.PollTimeout)
		}

		select {
		case <-time.After(interval):
		case <-ctx.Done():
			c.bestEffortCancel(handle)
			return nil, ctx.Err()
		}

		interval = time.Duration(float64(interval) * c.options.PollBackoffFactor)
		if interval > c.options.PollMaxInterval {
			interval = c.options.PollMaxInterval
		}
	}
}

// Cancel 尽力取消远端作业
func (c *Client) Cancel(ctx context.Context, handle proverInterface.JobHandle) error {
	status, err := c.doJSON(ctx, http.MethodPost, "/v1/jobs/"+string(handle)+"/cancel", nil, nil)
	if err != nil {
		return WrapTransientServiceError(fmt.Errorf("取消作业失败: jobID=%s, cause=%v", handle, err))
	}
	if status >= 400 {
		return WrapTransientServiceError(fmt.Errorf("取消作业被拒: jobID=%s, status=%d", handle, status))
	}
	return nil
}

// bestEffortCancel 超时/取消路径上的尽力取消（失败只记日志）
func (c *Client) bestEffortCancel(handle proverInterface.JobHandle) {
	ctx, cancel := context.WithTimeout(context.Background(), c.options.RequestTimeout)
	defer cancel()
	if err := c.Cancel(ctx, handle); err != nil && c.logger != nil {
		c.logger.Warnf("远端作业取消失败（忽略）: jobID=%s, err=%v", handle, err)
	}
}

// ============================================================================
//                            客户端独立校验
// ============================================================================

// verifyReceipt 摄入远端回执前的强制校验
//
// 四道关卡，任一失败整体拒绝：
// 1. journal摘要重算一致
// 2. claim的镜像标识与请求镜像一致
// 3. seal通过封印后端验证
// 4. 无未解假设残留
func (c *Client) verifyReceipt(ctx context.Context, receipt *types.Receipt, image *types.ProgramImage, unresolved []types.Claim) error {
	if receipt == nil {
		return WrapReceiptUntrustedError(fmt.Errorf("远端声称完成但未附回执"))
	}
	if err := receipt.VerifyIntegrity(); err != nil {
		return WrapReceiptUntrustedError(err)
	}
	if receipt.Claim.ProgramID != image.ID {
		return WrapReceiptUntrustedError(fmt.Errorf("回执镜像标识不符: expected=%s, actual=%s",
			image.ID.Hex(), receipt.Claim.ProgramID.Hex()))
	}
	if err := c.backend.Verify(ctx, receipt); err != nil {
		return WrapReceiptUntrustedError(err)
	}
	if len(unresolved) > 0 {
		return WrapReceiptUntrustedError(fmt.Errorf("回执携带%d个未解假设", len(unresolved)))
	}
	return nil
}

// ============================================================================
//                               HTTP基础设施
// ============================================================================

// doJSON 发送JSON请求并解析JSON响应，返回HTTP状态码
//
// 网络层错误以error返回；HTTP错误状态由调用方依据状态码分类。
func (c *Client) doJSON(ctx context.Context, method, path string, body []byte, out interface{}) (int, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.options.Endpoint+path, reader)
	if err != nil {
		return 0, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.options.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.options.APIKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if out != nil && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("解析响应失败: %w", err)
		}
	} else {
		// 排空响应体以复用连接
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	}
	return resp.StatusCode, nil
}
