// Package remote provides error definitions for remote prover operations.
package remote

import (
	"errors"
	"fmt"
	"time"

	proverInterface "github.com/weisyn/zkcompose/pkg/interfaces/prover"
)

// ============================================================================
//                               错误包装函数
// ============================================================================

// WrapTransientServiceError 包装瞬时服务错误
func WrapTransientServiceError(err error) error {
	return fmt.Errorf("%w: %v", proverInterface.ErrTransientService, err)
}

// WrapRemoteRejectedError 包装远端拒绝错误
func WrapRemoteRejectedError(err error) error {
	return fmt.Errorf("%w: %v", proverInterface.ErrRemoteRejected, err)
}

// WrapPollTimeoutError 包装轮询超时错误
func WrapPollTimeoutError(handle proverInterface.JobHandle, timeout time.Duration) error {
	return fmt.Errorf("%w: jobID=%s, timeout=%v", proverInterface.ErrPollTimeout, handle, timeout)
}

// WrapReceiptUntrustedError 包装回执不可信错误
func WrapReceiptUntrustedError(err error) error {
	return fmt.Errorf("%w: %v", proverInterface.ErrReceiptUntrusted, err)
}

// isTransient 判定错误是否为瞬时服务错误
func isTransient(err error) bool {
	return errors.Is(err, proverInterface.ErrTransientService)
}
