// Package registry 提供注册表错误契约定义
package registry

import "errors"

// ErrUnknownProgram 程序名未注册
var ErrUnknownProgram = errors.New("unknown program")
