// Package local 提供本地证明客户端实现
//
// 🔐 **本地证明客户端 (Local Prover Client)**
//
// 🎯 **核心职责**：在调用方线程上同步执行guest程序并生成证明回执。
//
// 📋 **流程**：Execute（journal）→ 构造Claim → Seal（证明字节）→ Receipt。
//
// ⚠️ **资源模型**：证明是CPU密集的阻塞操作（秒到分钟级），
// 内部以固定容量的worker槽限制并发，绝不在延迟敏感路径上调用。
//
// 🔒 **隐私保证**：私密输入只进入执行器；journal中只有guest程序
// 显式提交的数据，私密输入字节不会泄漏。
package local

import (
	"context"
	"time"

	proverconfig "github.com/weisyn/zkcompose/internal/config/prover"
	executorInterface "github.com/weisyn/zkcompose/pkg/interfaces/executor"
	log "github.com/weisyn/zkcompose/pkg/interfaces/infrastructure/log"
	proverInterface "github.com/weisyn/zkcompose/pkg/interfaces/prover"
	"github.com/weisyn/zkcompose/pkg/types"
)

// Prover 本地证明客户端
type Prover struct {
	logger   log.Logger
	executor executorInterface.Executor
	backend  proverInterface.Backend

	// worker槽：限制并发证明数的信号量
	slots chan struct{}
}

// 确保Prover实现接口
var _ proverInterface.LocalProver = (*Prover)(nil)

// NewProver 创建本地证明客户端
func NewProver(
	logger log.Logger,
	config *proverconfig.Config,
	executor executorInterface.Executor,
	backend proverInterface.Backend,
) *Prover {
	workerSlots := config.GetOptions().WorkerSlots
	if workerSlots < 1 {
		workerSlots = 1
	}
	return &Prover{
		logger:   logger,
		executor: executor,
		backend:  backend,
		slots:    make(chan struct{}, workerSlots),
	}
}

// Prove 对程序镜像与私密输入同步生成证明回执
func (p *Prover) Prove(ctx context.Context, image *types.ProgramImage, privateInput []byte) (*types.Receipt, error) {
	// 占用worker槽（可被ctx取消）
	select {
	case p.slots <- struct{}{}:
		defer func() { <-p.slots }()
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	startTime := time.Now()
	if p.logger != nil {
		p.logger.Debugf("开始本地证明: imageID=%s", image.ID.Hex())
	}

	journal, err := p.executor.Execute(ctx, image, privateInput, nil)
	if err != nil {
		// 执行故障是确定性的：重跑同样输入必然复现，不重试
		return nil, err
	}

	claim := types.NewClaim(image.ID, journal)
	sealBytes, err := p.backend.Seal(ctx, claim)
	if err != nil {
		return nil, err
	}

	receipt := &types.Receipt{
		Journal: journal,
		Seal:    sealBytes,
		Claim:   claim,
	}
	// 自产回执同样过一遍自洽检查，保证下游不变量无例外
	if err := receipt.VerifyIntegrity(); err != nil {
		return nil, err
	}

	if p.logger != nil {
		p.logger.Infof("本地证明完成: imageID=%s, journal=%d字节, seal=%d字节, 耗时=%v",
			image.ID.Hex(), len(journal), len(sealBytes), time.Since(startTime))
	}
	return receipt, nil
}
