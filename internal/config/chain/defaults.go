package chain

import "time"

// 链上提交默认配置
const (
	defaultRPCURL          = "http://localhost:8545"
	defaultChainID         = int64(31337) // 本地开发链
	defaultConfirmations   = uint64(1)
	defaultReceiptInterval = 3 * time.Second
	defaultReceiptTimeout  = 5 * time.Minute
	defaultResubmitRetries = 2
)

// createDefaultChainOptions 创建默认链配置
func createDefaultChainOptions() *ChainOptions {
	return &ChainOptions{
		RPCURL:          defaultRPCURL,
		ChainID:         defaultChainID,
		ContractAddress: "",
		Confirmations:   defaultConfirmations,
		ReceiptInterval: defaultReceiptInterval,
		ReceiptTimeout:  defaultReceiptTimeout,
		ResubmitRetries: defaultResubmitRetries,
	}
}
