// Package executor 提供执行器错误契约定义
package executor

import "errors"

// ErrExecutionFault 程序执行故障
//
// 程序内部的受控失败（如非法输入触发的守卫）。执行是确定的：
// 同样的输入重跑必然复现同样的故障，因此对该作业致命，不重试。
var ErrExecutionFault = errors.New("guest execution fault")

// ErrUnsupportedImage 执行器无法识别的镜像格式
var ErrUnsupportedImage = errors.New("unsupported program image")
