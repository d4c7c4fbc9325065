// Package submitter 提供链上提交管道实现
//
// ⛓️ **提交管道 (Submission Pipeline)**
//
// 🎯 **核心职责**：把最终回执的 (journal, seal) 按验证合约的调用
// 布局ABI编码为交易，EIP-155签名发送，并跟踪到配置数量的确认。
//
// 📋 **失败分类纪律**：
// - 交易回执 status=0（被验证逻辑拒绝）→ ErrTxRejected，致命——
//   证明本身可能就是缺陷，绝不盲目重试
// - nonce冲突/交易被丢弃 → 载荷不变，以新nonce重建重发
//   （上限 ResubmitRetries），耗尽后 ErrTxDropped
package submitter

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	chainconfig "github.com/weisyn/zkcompose/internal/config/chain"
	log "github.com/weisyn/zkcompose/pkg/interfaces/infrastructure/log"
	submitterInterface "github.com/weisyn/zkcompose/pkg/interfaces/submitter"
	"github.com/weisyn/zkcompose/pkg/types"
)

// verifierABI 链上验证合约的提交入口ABI
//
// submit(bytes journal, bytes seal)：合约内部校验seal后记录journal。
const verifierABI = `[{"name":"submit","type":"function","stateMutability":"nonpayable",` +
	`"inputs":[{"name":"journal","type":"bytes"},{"name":"seal","type":"bytes"}],"outputs":[]}]`

// chainBackend 提交管道需要的最小链端能力
//
// *ethclient.Client 天然满足；测试用替身实现。
type chainBackend interface {
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, call ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *ethtypes.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*ethtypes.Receipt, error)
	BlockNumber(ctx context.Context) (uint64, error)
}

// Pipeline 链上提交管道实现
type Pipeline struct {
	logger   log.Logger
	options  *chainconfig.ChainOptions
	backend  chainBackend
	contract common.Address
	signer   ethtypes.Signer
	key      *ecdsa.PrivateKey
	from     common.Address
	parsed   abi.ABI
}

// 确保Pipeline实现接口
var _ submitterInterface.Submitter = (*Pipeline)(nil)

// NewPipeline 创建提交管道
//
// 私钥只从配置对象取（配置层保证其只来自环境变量注入）。
func NewPipeline(logger log.Logger, config *chainconfig.Config, backend chainBackend) (*Pipeline, error) {
	options := config.GetOptions()

	if options.ContractAddress == "" {
		return nil, fmt.Errorf("验证合约地址未配置")
	}
	if !common.IsHexAddress(options.ContractAddress) {
		return nil, fmt.Errorf("验证合约地址非法: %s", options.ContractAddress)
	}
	if options.PrivateKeyHex == "" {
		return nil, fmt.Errorf("签名私钥未注入（环境变量缺失）")
	}
	key, err := crypto.HexToECDSA(strings.TrimPrefix(options.PrivateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("解析签名私钥失败: %w", err)
	}

	parsed, err := abi.JSON(strings.NewReader(verifierABI))
	if err != nil {
		return nil, fmt.Errorf("解析验证合约ABI失败: %w", err)
	}

	return &Pipeline{
		logger:   logger,
		options:  options,
		backend:  backend,
		contract: common.HexToAddress(options.ContractAddress),
		signer:   ethtypes.LatestSignerForChainID(big.NewInt(options.ChainID)),
		key:      key,
		from:     crypto.PubkeyToAddress(key.PublicKey),
		parsed:   parsed,
	}, nil
}

// Dial 按配置连接以太坊节点并创建提交管道
func Dial(ctx context.Context, logger log.Logger, config *chainconfig.Config) (*Pipeline, error) {
	client, err := ethclient.DialContext(ctx, config.GetOptions().RPCURL)
	if err != nil {
		return nil, fmt.Errorf("连接以太坊节点失败: url=%s, cause=%w", config.GetOptions().RPCURL, err)
	}
	return NewPipeline(logger, config, client)
}

// Submit 编码并发送携带 (journal, seal) 的交易，等待确认
func (p *Pipeline) Submit(ctx context.Context, receipt *types.Receipt) (*types.TxResult, error) {
	// 摄入前最后一道自洽检查
	if err := receipt.VerifyIntegrity(); err != nil {
		return nil, WrapTxRejectedError(common.Hash{}, err)
	}

	calldata, err := p.parsed.Pack("submit", receipt.Journal, receipt.Seal)
	if err != nil {
		return nil, WrapTxRejectedError(common.Hash{}, fmt.Errorf("ABI编码失败: %w", err))
	}

	// 载荷在整个重发序列中保持不变，只有nonce/gas price会刷新
	attempts := p.options.ResubmitRetries + 1
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 && p.logger != nil {
			p.logger.Warnf("以新nonce重建重发: attempt=%d/%d, cause=%v", attempt+1, attempts, lastErr)
		}

		result, err := p.sendAndTrack(ctx, calldata)
		if err == nil {
			return result, nil
		}
		// 致命错误（链上拒绝）与ctx取消立即上浮，只有基础设施瞬时问题重发
		if !isResubmittable(err) {
			return nil, err
		}
		lastErr = err
	}
	return nil, WrapTxDroppedError(common.Hash{}, fmt.Errorf("重发耗尽: attempts=%d, last=%v", attempts, lastErr))
}

// sendAndTrack 单次交易构建、发送与确认跟踪
func (p *Pipeline) sendAndTrack(ctx context.Context, calldata []byte) (*types.TxResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	nonce, err := p.backend.PendingNonceAt(ctx, p.from)
	if err != nil {
		return nil, WrapTxDroppedError(common.Hash{}, fmt.Errorf("获取nonce失败: %w", err))
	}
	gasPrice, err := p.backend.SuggestGasPrice(ctx)
	if err != nil {
		return nil, WrapTxDroppedError(common.Hash{}, fmt.Errorf("获取gas价格失败: %w", err))
	}
	gasLimit, err := p.backend.EstimateGas(ctx, ethereum.CallMsg{
		From: p.from,
		To:   &p.contract,
		Data: calldata,
	})
	if err != nil {
		// 估gas失败通常意味着调用会revert：交给链上拒绝分类
		return nil, WrapTxRejectedError(common.Hash{}, fmt.Errorf("gas估算失败（调用可能revert）: %w", err))
	}

	tx := ethtypes.NewTransaction(nonce, p.contract, big.NewInt(0), gasLimit, gasPrice, calldata)
	signedTx, err := ethtypes.SignTx(tx, p.signer, p.key)
	if err != nil {
		return nil, fmt.Errorf("签名交易失败: %w", err)
	}

	if err := p.backend.SendTransaction(ctx, signedTx); err != nil {
		return nil, classifySendError(signedTx.Hash(), err)
	}
	if p.logger != nil {
		p.logger.Infof("交易已发送: txHash=%s, nonce=%d, gasLimit=%d", signedTx.Hash().Hex(), nonce, gasLimit)
	}

	return p.trackConfirmation(ctx, signedTx.Hash())
}

// trackConfirmation 轮询交易回执直至达到配置的确认数
func (p *Pipeline) trackConfirmation(ctx context.Context, txHash common.Hash) (*types.TxResult, error) {
	deadline := time.Now().Add(p.options.ReceiptTimeout)
	ticker := time.NewTicker(p.options.ReceiptInterval)
	defer ticker.Stop()

	for {
		receipt, err := p.backend.TransactionReceipt(ctx, txHash)
		if err == nil && receipt != nil {
			if receipt.Status == ethtypes.ReceiptStatusFailed {
				// 链上验证逻辑拒绝：致命，绝不重试
				return nil, WrapTxRejectedError(txHash, fmt.Errorf("交易执行失败（status=0）"))
			}
			confirmed, err := p.hasConfirmations(ctx, receipt)
			if err == nil && confirmed {
				return &types.TxResult{
					TxHash:      txHash.Hex(),
					BlockNumber: receipt.BlockNumber.Uint64(),
					GasUsed:     receipt.GasUsed,
					Succeeded:   true,
				}, nil
			}
		}

		if time.Now().After(deadline) {
			return nil, WrapTxDroppedError(txHash, fmt.Errorf("确认等待超时: timeout=%v", p.options.ReceiptTimeout))
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// hasConfirmations 检查交易所在块是否已获得足够确认
func (p *Pipeline) hasConfirmations(ctx context.Context, receipt *ethtypes.Receipt) (bool, error) {
	if p.options.Confirmations <= 1 {
		return true, nil
	}
	head, err := p.backend.BlockNumber(ctx)
	if err != nil {
		return false, err
	}
	mined := receipt.BlockNumber.Uint64()
	return head >= mined && head-mined+1 >= p.options.Confirmations, nil
}
