// Package registry provides error definitions for program registry operations.
package registry

import (
	"errors"
	"fmt"

	registryInterface "github.com/weisyn/zkcompose/pkg/interfaces/registry"
)

// ============================================================================
//                            程序注册表错误定义
// ============================================================================

var (
	// ErrManifestInvalid 程序清单非法错误
	ErrManifestInvalid = errors.New("program manifest invalid")

	// ErrImageMismatch 镜像内容哈希与清单声明不符错误
	ErrImageMismatch = errors.New("program image digest mismatch")
)

// ============================================================================
//                               错误包装函数
// ============================================================================

// WrapUnknownProgramError 包装未知程序错误
func WrapUnknownProgramError(name string) error {
	return fmt.Errorf("%w: name=%s", registryInterface.ErrUnknownProgram, name)
}

// WrapManifestInvalidError 包装清单非法错误
func WrapManifestInvalidError(reason string) error {
	return fmt.Errorf("%w: %s", ErrManifestInvalid, reason)
}

// WrapImageMismatchError 包装镜像哈希不符错误
func WrapImageMismatchError(name string, err error) error {
	return fmt.Errorf("%w: name=%s, cause=%v", ErrImageMismatch, name, err)
}
