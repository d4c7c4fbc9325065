// publisher 组合证明发布器命令行入口
//
// 流程：本地证明 mod-exp(n, e, x) → 远端证明 is-even 并吸收内层
// 回执作为假设 → 组合校验 → (journal, seal) 提交链上验证合约。
package main

import (
	"context"
	"encoding/binary"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/fx"

	"github.com/weisyn/zkcompose/internal/app"
	"github.com/weisyn/zkcompose/internal/config"
	chainconfig "github.com/weisyn/zkcompose/internal/config/chain"
	remoteconfig "github.com/weisyn/zkcompose/internal/config/remote"
	composerInterface "github.com/weisyn/zkcompose/pkg/interfaces/composer"
	logInterface "github.com/weisyn/zkcompose/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/zkcompose/pkg/types"
)

const version = "0.1.0"

func main() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "\n❌ [PANIC] 程序发生严重错误: %v\n", r)
			os.Exit(1)
		}
	}()

	var (
		configPath     string
		n, e, x        uint64
		rpcURL         string
		contract       string
		chainID        int64
		remoteEndpoint string
		skipSubmission bool
		resume         bool
		showVersion    bool
	)

	flag.StringVar(&configPath, "config", "", "配置文件路径（JSON，省略时使用默认配置）")
	flag.Uint64Var(&n, "n", 7, "模幂程序的模数 n")
	flag.Uint64Var(&e, "e", 3, "模幂程序的指数 e")
	flag.Uint64Var(&x, "x", 2, "模幂程序的底数 x（私密输入，不出现在journal）")
	flag.StringVar(&rpcURL, "rpc-url", "", "以太坊节点RPC端点（覆盖配置文件）")
	flag.StringVar(&contract, "contract", "", "链上验证合约地址（覆盖配置文件）")
	flag.Int64Var(&chainID, "chain-id", 0, "EIP-155链ID（覆盖配置文件）")
	flag.StringVar(&remoteEndpoint, "remote-endpoint", "", "远程证明服务端点（覆盖配置文件）")
	flag.BoolVar(&skipSubmission, "skip-submission", false, "只做组合证明，不上链")
	flag.BoolVar(&resume, "resume", false, "启动时先恢复遗留在远端轮询窗口内的作业")
	flag.BoolVar(&showVersion, "version", false, "显示版本信息")
	flag.Parse()

	if showVersion {
		fmt.Printf("zkcompose-publisher v%s\n", version)
		return
	}

	appConfig, err := config.LoadAppConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ 加载配置失败: %v\n", err)
		os.Exit(1)
	}
	applyFlagOverrides(appConfig, rpcURL, contract, chainID, remoteEndpoint)

	if err := run(appConfig, n, e, x, skipSubmission, resume); err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
}

// applyFlagOverrides 命令行参数覆盖配置文件
func applyFlagOverrides(appConfig *config.AppConfig, rpcURL, contract string, chainID int64, remoteEndpoint string) {
	if rpcURL != "" || contract != "" || chainID > 0 {
		if appConfig.Chain == nil {
			appConfig.Chain = &chainconfig.UserChainConfig{}
		}
		if rpcURL != "" {
			appConfig.Chain.RPCURL = &rpcURL
		}
		if contract != "" {
			appConfig.Chain.ContractAddress = &contract
		}
		if chainID > 0 {
			appConfig.Chain.ChainID = &chainID
		}
	}
	if remoteEndpoint != "" {
		if appConfig.Remote == nil {
			appConfig.Remote = &remoteconfig.UserRemoteConfig{}
		}
		appConfig.Remote.Endpoint = &remoteEndpoint
	}
}

func run(appConfig *config.AppConfig, n, e, x uint64, skipSubmission, resume bool) error {
	var (
		comp   composerInterface.Composer
		logger logInterface.Logger
	)

	fxApp := fx.New(
		app.Modules(appConfig, skipSubmission),
		fx.Populate(&comp, &logger),
		fx.NopLogger,
	)

	startCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := fxApp.Start(startCtx); err != nil {
		return fmt.Errorf("应用启动失败: %w", err)
	}
	defer func() {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer stopCancel()
		_ = fxApp.Stop(stopCtx)
	}()

	ctx := context.Background()
	if resume {
		if err := comp.Resume(ctx); err != nil {
			logger.Warnf("遗留作业恢复存在失败: %v", err)
		}
	}

	privateInput := make([]byte, 24)
	binary.LittleEndian.PutUint64(privateInput[0:8], n)
	binary.LittleEndian.PutUint64(privateInput[8:16], e)
	binary.LittleEndian.PutUint64(privateInput[16:24], x)

	fmt.Printf("🚀 组合证明开始: mod-exp(n=%d, e=%d, x=私密) → is-even\n", n, e)

	job, err := comp.Run(ctx, &composerInterface.ComposeRequest{
		InnerProgram: "mod-exp",
		OuterProgram: "is-even",
		PrivateInput: privateInput,
		// 外层公开输入是内层journal中的模幂结果（最后8字节）
		DeriveOuterInput: func(innerJournal []byte) ([]byte, error) {
			if len(innerJournal) != 24 {
				return nil, fmt.Errorf("内层journal长度异常: %d", len(innerJournal))
			}
			return innerJournal[16:24], nil
		},
		SkipSubmission: skipSubmission,
	})
	if err != nil {
		return fmt.Errorf("作业编排失败: %w", err)
	}

	printOutcome(job, n, e)
	if job.State != types.JobStateDone {
		return fmt.Errorf("作业未达成功终态: state=%s, reason=%s", job.State, job.Reason)
	}
	return nil
}

// printOutcome 打印作业结果
func printOutcome(job *types.OrchestrationJob, n, e uint64) {
	fmt.Printf("📋 作业 %s 终态: %s\n", job.ID, job.State)

	if job.InnerReceipt != nil && len(job.InnerReceipt.Journal) == 24 {
		result := binary.LittleEndian.Uint64(job.InnerReceipt.Journal[16:24])
		fmt.Printf("   内层journal: (n=%d, e=%d, x^e mod n=%d)\n", n, e, result)
	}
	if job.OuterReceipt != nil && len(job.OuterReceipt.Journal) == 1 {
		fmt.Printf("   外层journal: is-even=%t\n", job.OuterReceipt.Journal[0] == 1)
	}
	if job.Submission != nil {
		fmt.Printf("   ⛓️  链上提交: tx=%s, block=%d, gasUsed=%d\n",
			job.Submission.TxHash, job.Submission.BlockNumber, job.Submission.GasUsed)
	}
	if job.State == types.JobStateFailed {
		fmt.Printf("   ❌ 失败分类: %s（%s）\n", job.Reason, job.Detail)
	}
}
