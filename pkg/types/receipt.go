package types

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrJournalDigestMismatch 回执journal与其声明摘要不一致
//
// 任何来源（本地或远端）的回执在摄入时都必须重算journal摘要，
// 该错误表示回执自身已不自洽，必须整体拒绝。
var ErrJournalDigestMismatch = errors.New("receipt journal digest mismatch")

// Digest 32字节摘要（SHA-256）
type Digest [32]byte

// DigestOf 计算字节序列的SHA-256摘要
func DigestOf(data []byte) Digest {
	return Digest(sha256.Sum256(data))
}

// Hex 返回摘要的十六进制表示
func (d Digest) Hex() string {
	return hex.EncodeToString(d[:])
}

// MarshalJSON 以十六进制字符串序列化
func (d Digest) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Hex())
}

// UnmarshalJSON 从十六进制字符串反序列化
func (d *Digest) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return fmt.Errorf("解析摘要失败: %w", err)
	}
	if len(raw) != len(d) {
		return fmt.Errorf("摘要长度错误: expected=%d, actual=%d", len(d), len(raw))
	}
	copy(d[:], raw)
	return nil
}

// Claim 执行声明
//
// 🎯 **核心职责**：对"程序 program_id 执行完毕且公开输出的哈希为
// journal_digest"这一事实的承诺。由证明方产出，验证方消费。
type Claim struct {
	ProgramID     ImageID `json:"program_id"`
	JournalDigest Digest  `json:"journal_digest"`
}

// NewClaim 基于程序镜像标识与journal原文构造声明
func NewClaim(programID ImageID, journal []byte) Claim {
	return Claim{
		ProgramID:     programID,
		JournalDigest: DigestOf(journal),
	}
}

// Digest 计算声明摘要：sha256(program_id || journal_digest)
//
// 封印后端以该摘要作为证明的公开输入承诺。
func (c Claim) Digest() Digest {
	h := sha256.New()
	h.Write(c.ProgramID[:])
	h.Write(c.JournalDigest[:])
	var d Digest
	copy(d[:], h.Sum(nil))
	return d
}

// Equal 声明相等性比较（program_id与journal_digest全部相等）
func (c Claim) Equal(other Claim) bool {
	return c.ProgramID == other.ProgramID && c.JournalDigest == other.JournalDigest
}

// Receipt 证明回执
//
// 🎯 **核心职责**：一次证明的完整产物——公开输出journal、
// 不透明证明字节seal、以及两者绑定的声明claim。
//
// ⚠️ 所有权约定：回执由产出它的阶段独占持有，交给下一阶段后
// 即转移所有权，任何阶段都不得共享修改。
type Receipt struct {
	Journal []byte `json:"journal"`
	Seal    []byte `json:"seal"`
	Claim   Claim  `json:"claim"`
}

// VerifyIntegrity 校验回执自洽性：sha256(journal) == claim.journal_digest
//
// 摄入任何回执（尤其是远端返回的）前必须调用，绝不盲信来源。
func (r *Receipt) VerifyIntegrity() error {
	actual := DigestOf(r.Journal)
	if actual != r.Claim.JournalDigest {
		return fmt.Errorf("%w: expected=%s, actual=%s",
			ErrJournalDigestMismatch, r.Claim.JournalDigest.Hex(), actual.Hex())
	}
	return nil
}

// Assumption 未解假设
//
// 嵌入证明请求中的对另一个声明的引用：外层证明在该假设被一个
// claim完全相同的回执解决之前不可靠。内外claim不符即不可靠，
// 必须在提交前拒绝，而不是推迟给链上验证者。
type Assumption struct {
	Claim Claim `json:"claim"`
}
