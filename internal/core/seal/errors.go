// Package seal provides error definitions for seal backend operations.
package seal

import (
	"errors"
	"fmt"

	proverInterface "github.com/weisyn/zkcompose/pkg/interfaces/prover"
	"github.com/weisyn/zkcompose/pkg/types"
)

// ============================================================================
//                            封印后端错误定义
// ============================================================================

var (
	// ErrSetupFailed 电路编译或可信设置失败错误
	ErrSetupFailed = errors.New("seal backend setup failed")

	// ErrSealFailed 封印生成失败错误
	ErrSealFailed = errors.New("seal generation failed")
)

// ============================================================================
//                               错误包装函数
// ============================================================================

// WrapSealFailedError 包装封印生成失败错误
func WrapSealFailedError(claim types.Claim, err error) error {
	return fmt.Errorf("%w: claim=%s, cause=%v", ErrSealFailed, claim.Digest().Hex(), err)
}

// WrapSealInvalidError 包装封印验证失败错误
func WrapSealInvalidError(claim types.Claim, err error) error {
	return fmt.Errorf("%w: claim=%s, cause=%v", proverInterface.ErrSealInvalid, claim.Digest().Hex(), err)
}
