// Package types 定义zkcompose系统的共享数据类型
//
// 📦 **共享类型层 (Shared Types Layer)**
//
// 本包集中定义证明组合编排器各组件之间流转的数据结构：
// - 程序镜像：内容寻址的确定性计算单元标识
// - 声明与回执：证明系统的承诺与产物
// - 编排作业：端到端组合流程的状态记录
//
// 🎯 **设计原则**
// - 零依赖：只依赖标准库，供 pkg/interfaces 与 internal/core 共同引用
// - 不可变优先：镜像、声明等值类型一经构造不再修改
// - 可持久化：所有作业相关结构可JSON序列化，支撑进程重启恢复
package types

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// ImageID 程序镜像标识（对编译产物的SHA-256内容哈希）
//
// 镜像标识即身份：两个字节相同的编译产物必然得到相同的ImageID。
type ImageID [32]byte

// ComputeImageID 对编译产物计算内容哈希，得到镜像标识
func ComputeImageID(binary []byte) ImageID {
	return ImageID(sha256.Sum256(binary))
}

// ImageIDFromHex 从十六进制字符串解析镜像标识
func ImageIDFromHex(s string) (ImageID, error) {
	var id ImageID
	raw, err := hex.DecodeString(s)
	if err != nil {
		return id, fmt.Errorf("解析镜像标识失败: %w", err)
	}
	if len(raw) != len(id) {
		return id, fmt.Errorf("镜像标识长度错误: expected=%d, actual=%d", len(id), len(raw))
	}
	copy(id[:], raw)
	return id, nil
}

// Hex 返回镜像标识的十六进制表示
func (id ImageID) Hex() string {
	return hex.EncodeToString(id[:])
}

// IsZero 判断是否为零值标识
func (id ImageID) IsZero() bool {
	return id == ImageID{}
}

// MarshalJSON 以十六进制字符串序列化
func (id ImageID) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.Hex())
}

// UnmarshalJSON 从十六进制字符串反序列化
func (id *ImageID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ImageIDFromHex(s)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// ProgramImage 程序镜像
//
// 🎯 **核心职责**：承载一个确定性计算单元的编译产物及其内容寻址标识
//
// 加载完成后不可变；身份由ID唯一确定，Binary只作为执行器的输入。
type ProgramImage struct {
	ID     ImageID `json:"id"`
	Binary []byte  `json:"binary"`
}

// NewProgramImage 从编译产物构造程序镜像（自动计算内容哈希）
func NewProgramImage(binary []byte) *ProgramImage {
	return &ProgramImage{
		ID:     ComputeImageID(binary),
		Binary: binary,
	}
}

// VerifyID 重算内容哈希并与声称的ID比对
//
// 注册表加载镜像时必须调用，防止清单中的标识与实际产物脱节。
func (p *ProgramImage) VerifyID() error {
	actual := ComputeImageID(p.Binary)
	if actual != p.ID {
		return fmt.Errorf("镜像内容哈希不匹配: expected=%s, actual=%s", p.ID.Hex(), actual.Hex())
	}
	return nil
}
