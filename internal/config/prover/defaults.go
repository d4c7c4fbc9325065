package prover

import "runtime"

// createDefaultProverOptions 创建默认本地证明器配置
//
// worker槽默认取CPU核数的一半（至少1），证明期间单个作业
// 本身就会吃满多个核。
func createDefaultProverOptions() *ProverOptions {
	slots := runtime.NumCPU() / 2
	if slots < 1 {
		slots = 1
	}
	return &ProverOptions{
		WorkerSlots: slots,
		SetupDir:    "./data/setup",
	}
}
