// Package seal 提供基于gnark Groth16的证明封印后端
package seal

import (
	"math/big"

	"github.com/consensys/gnark/frontend"

	"github.com/weisyn/zkcompose/pkg/types"
)

// ClaimBindingCircuit 声明绑定电路
//
// 🎯 **职责**：把声明摘要（sha256(program_id || journal_digest)）
// 作为公开输入绑定进证明。摘要32字节拆成两个16字节limb，
// 每个limb远小于BN254标量域，不会溢出。
//
// ⚠️ 说明：证明系统的算术构造对上层是不透明能力；本电路只承担
// "seal与claim绑定"这一最小职责——对公开输入施加恒等约束，
// 使其进入证明的公开见证。
type ClaimBindingCircuit struct {
	ClaimDigest [2]frontend.Variable `gnark:",public"`
}

// Define 电路约束定义
func (circuit *ClaimBindingCircuit) Define(api frontend.API) error {
	for _, limb := range circuit.ClaimDigest {
		api.AssertIsEqual(limb, limb)
	}
	return nil
}

// claimDigestLimbs 把声明摘要拆成两个大端limb
func claimDigestLimbs(claim types.Claim) [2]*big.Int {
	digest := claim.Digest()
	return [2]*big.Int{
		new(big.Int).SetBytes(digest[:16]),
		new(big.Int).SetBytes(digest[16:]),
	}
}

// newAssignment 构造电路赋值
func newAssignment(claim types.Claim) *ClaimBindingCircuit {
	limbs := claimDigestLimbs(claim)
	return &ClaimBindingCircuit{
		ClaimDigest: [2]frontend.Variable{limbs[0], limbs[1]},
	}
}
