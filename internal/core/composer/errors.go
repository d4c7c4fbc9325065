// Package composer provides error definitions for composition orchestration.
package composer

import (
	"errors"
	"fmt"

	"github.com/weisyn/zkcompose/pkg/types"
)

// ============================================================================
//                            组合管理器错误定义
// ============================================================================

var (
	// ErrJobNotFound 作业不存在
	ErrJobNotFound = errors.New("orchestration job not found")

	// ErrStaleTransition 状态迁移被终态守卫拒绝
	//
	// 典型场景：作业已被取消/失败后，迟到的远端回执试图推进状态。
	// 携带该错误的结果必须被丢弃，不得触发提交。
	ErrStaleTransition = errors.New("stale job state transition rejected")

	// ErrCompositionInvalid 内外证明绑定校验失败
	//
	// 外层请求的假设claim与内层回执claim不完全一致，
	// 组合证明不可靠，必须在提交前拒绝。
	ErrCompositionInvalid = errors.New("composition binding verification failed")
)

// ============================================================================
//                               错误包装函数
// ============================================================================

// WrapStaleTransitionError 包装终态守卫拒绝错误
func WrapStaleTransitionError(jobID string, from, to types.JobState) error {
	return fmt.Errorf("%w: jobID=%s, from=%s, to=%s", ErrStaleTransition, jobID, from, to)
}

// WrapCompositionInvalidError 包装组合校验失败错误
func WrapCompositionInvalidError(jobID string, err error) error {
	return fmt.Errorf("%w: jobID=%s, cause=%v", ErrCompositionInvalid, jobID, err)
}
