package seal

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
	gnarklogger "github.com/consensys/gnark/logger"
	"github.com/rs/zerolog"

	proverInterface "github.com/weisyn/zkcompose/pkg/interfaces/prover"
	log "github.com/weisyn/zkcompose/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/zkcompose/pkg/types"
)

// Backend Groth16封印后端
//
// 🎯 **专门职责**：对声明生成/验证不透明证明字节（seal）
// 🏗️ **技术栈**：基于gnark库实现Groth16证明方案（BN254曲线）
//
// 电路编译与可信设置在首次使用时惰性完成并缓存；
// 指定SetupDir时设置产物落盘复用，保证跨进程验证一致。
type Backend struct {
	logger   log.Logger
	setupDir string

	setupOnce sync.Once
	setupErr  error
	ccs       constraint.ConstraintSystem
	pk        groth16.ProvingKey
	vk        groth16.VerifyingKey
	vkHash    []byte
}

// 确保Backend实现接口
var _ proverInterface.Backend = (*Backend)(nil)

// NewBackend 创建Groth16封印后端
//
// setupDir为空时设置只存在于进程内存中（测试/开发）；
// 非空时pk/vk落盘到该目录并在下次启动时复用。
func NewBackend(logger log.Logger, setupDir string) *Backend {
	return &Backend{
		logger:   logger,
		setupDir: setupDir,
	}
}

// Seal 对声明生成证明字节
func (b *Backend) Seal(ctx context.Context, claim types.Claim) ([]byte, error) {
	startTime := time.Now()

	// ⚠️ 禁用gnark库的日志输出
	// gnark会输出大量调试信息（compiling circuit等），污染日志系统
	restore := muteGnarkLogger()
	defer restore()

	if err := b.ensureSetup(); err != nil {
		return nil, err
	}

	witness, err := frontend.NewWitness(newAssignment(claim), ecc.BN254.ScalarField())
	if err != nil {
		return nil, WrapSealFailedError(claim, fmt.Errorf("构建witness失败: %w", err))
	}

	proof, err := groth16.Prove(b.ccs, b.pk, witness)
	if err != nil {
		return nil, WrapSealFailedError(claim, fmt.Errorf("生成证明失败: %w", err))
	}

	var buf bytes.Buffer
	if _, err := proof.WriteTo(&buf); err != nil {
		return nil, WrapSealFailedError(claim, fmt.Errorf("序列化证明失败: %w", err))
	}

	if b.logger != nil {
		b.logger.Debugf("封印生成完成: claim=%s, 耗时=%v, 大小=%d字节",
			claim.Digest().Hex(), time.Since(startTime), buf.Len())
	}
	return buf.Bytes(), nil
}

// Verify 校验回执的seal与其claim的绑定关系
func (b *Backend) Verify(ctx context.Context, receipt *types.Receipt) error {
	restore := muteGnarkLogger()
	defer restore()

	if err := b.ensureSetup(); err != nil {
		return err
	}

	proof := groth16.NewProof(ecc.BN254)
	if _, err := proof.ReadFrom(bytes.NewReader(receipt.Seal)); err != nil {
		return WrapSealInvalidError(receipt.Claim, fmt.Errorf("反序列化证明失败: %w", err))
	}

	fullWitness, err := frontend.NewWitness(newAssignment(receipt.Claim), ecc.BN254.ScalarField())
	if err != nil {
		return WrapSealInvalidError(receipt.Claim, fmt.Errorf("构建witness失败: %w", err))
	}
	publicWitness, err := fullWitness.Public()
	if err != nil {
		return WrapSealInvalidError(receipt.Claim, fmt.Errorf("提取公开witness失败: %w", err))
	}

	if err := groth16.Verify(proof, b.vk, publicWitness); err != nil {
		return WrapSealInvalidError(receipt.Claim, err)
	}
	return nil
}

// VerifyingKeyHash 返回验证密钥的SHA-256哈希（诊断/一致性检查用）
func (b *Backend) VerifyingKeyHash() ([]byte, error) {
	if err := b.ensureSetup(); err != nil {
		return nil, err
	}
	out := make([]byte, len(b.vkHash))
	copy(out, b.vkHash)
	return out, nil
}

// ensureSetup 惰性完成电路编译与可信设置（仅一次）
func (b *Backend) ensureSetup() error {
	b.setupOnce.Do(func() {
		b.setupErr = b.doSetup()
	})
	return b.setupErr
}

func (b *Backend) doSetup() error {
	startTime := time.Now()

	ccs, err := frontend.Compile(ecc.BN254.ScalarField(), r1cs.NewBuilder, &ClaimBindingCircuit{})
	if err != nil {
		return fmt.Errorf("%w: cause=%v", ErrSetupFailed, err)
	}
	b.ccs = ccs

	// 优先复用落盘的设置产物
	if b.setupDir != "" {
		if err := b.loadSetup(); err == nil {
			b.vkHash = hashVerifyingKey(b.vk)
			if b.logger != nil {
				b.logger.Infof("封印后端设置已从磁盘复用: dir=%s", b.setupDir)
			}
			return nil
		}
	}

	pk, vk, err := groth16.Setup(ccs)
	if err != nil {
		return fmt.Errorf("%w: cause=%v", ErrSetupFailed, err)
	}
	b.pk, b.vk = pk, vk
	b.vkHash = hashVerifyingKey(vk)

	if b.setupDir != "" {
		if err := b.saveSetup(); err != nil && b.logger != nil {
			// 落盘失败不阻塞证明，只是下次启动要重新设置
			b.logger.Warnf("封印后端设置落盘失败: %v", err)
		}
	}

	if b.logger != nil {
		b.logger.Infof("封印后端设置完成: constraints=%d, 耗时=%v",
			ccs.GetNbConstraints(), time.Since(startTime))
	}
	return nil
}

// loadSetup 从磁盘读取pk/vk
func (b *Backend) loadSetup() error {
	pkData, err := os.ReadFile(filepath.Join(b.setupDir, "claim_binding.pk"))
	if err != nil {
		return err
	}
	vkData, err := os.ReadFile(filepath.Join(b.setupDir, "claim_binding.vk"))
	if err != nil {
		return err
	}

	pk := groth16.NewProvingKey(ecc.BN254)
	if _, err := pk.ReadFrom(bytes.NewReader(pkData)); err != nil {
		return err
	}
	vk := groth16.NewVerifyingKey(ecc.BN254)
	if _, err := vk.ReadFrom(bytes.NewReader(vkData)); err != nil {
		return err
	}

	b.pk, b.vk = pk, vk
	return nil
}

// saveSetup 把pk/vk写入磁盘
func (b *Backend) saveSetup() error {
	if err := os.MkdirAll(b.setupDir, 0o700); err != nil {
		return err
	}
	if err := writeTo(filepath.Join(b.setupDir, "claim_binding.pk"), b.pk); err != nil {
		return err
	}
	return writeTo(filepath.Join(b.setupDir, "claim_binding.vk"), b.vk)
}

func writeTo(path string, w io.WriterTo) error {
	var buf bytes.Buffer
	if _, err := w.WriteTo(&buf); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o600)
}

// hashVerifyingKey 计算验证密钥哈希
func hashVerifyingKey(vk groth16.VerifyingKey) []byte {
	var buf bytes.Buffer
	if _, err := vk.WriteTo(&buf); err != nil {
		return nil
	}
	sum := sha256.Sum256(buf.Bytes())
	return sum[:]
}

// muteGnarkLogger 临时屏蔽gnark日志，返回恢复函数
//
// gnark使用zerolog，这里换成丢弃输出的logger，执行完恢复。
func muteGnarkLogger() func() {
	old := gnarklogger.Logger()
	gnarklogger.Set(zerolog.New(io.Discard).Level(zerolog.Disabled))
	return func() {
		gnarklogger.Set(old)
	}
}
