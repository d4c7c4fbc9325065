// Package guest provides error definitions for guest program execution.
package guest

import (
	"fmt"

	executorInterface "github.com/weisyn/zkcompose/pkg/interfaces/executor"
	"github.com/weisyn/zkcompose/pkg/types"
)

// ============================================================================
//                               错误包装函数
// ============================================================================

// WrapExecutionFaultError 包装执行故障错误
func WrapExecutionFaultError(guest string, err error) error {
	return fmt.Errorf("%w: guest=%s, cause=%v", executorInterface.ErrExecutionFault, guest, err)
}

// WrapUnsupportedImageError 包装不支持的镜像错误
func WrapUnsupportedImageError(imageID types.ImageID, err error) error {
	return fmt.Errorf("%w: imageID=%s, cause=%v", executorInterface.ErrUnsupportedImage, imageID.Hex(), err)
}
