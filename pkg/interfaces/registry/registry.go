// Package registry 提供程序注册表接口定义
//
// 📇 **程序注册表 (Program Registry)**
//
// 注册表把逻辑程序名映射到其编译镜像（内容寻址标识+产物字节）。
// 进程启动时一次性加载，之后只读，无锁并发安全。
package registry

import (
	"github.com/weisyn/zkcompose/pkg/types"
)

// Registry 定义程序注册表接口
type Registry interface {
	// Resolve 按逻辑名解析程序镜像
	//
	// 名称不存在时返回 ErrUnknownProgram（由实现包定义并导出）。
	// 返回的镜像为只读快照，调用方不得修改。
	Resolve(name string) (*types.ProgramImage, error)

	// Images 返回注册表内全部镜像的只读快照（诊断用途）
	Images() map[string]types.ImageID
}
