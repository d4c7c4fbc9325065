// Package storage 提供zkcompose系统的持久化接口定义
//
// 💾 **作业持久化 (Job Persistence)**
//
// 编排作业在长远端轮询窗口内必须可以跨进程重启存活，
// 因此每次状态迁移后整体落盘。底层由BadgerDB承载。
package storage

import (
	"context"

	"github.com/weisyn/zkcompose/pkg/types"
)

// JobStore 定义编排作业存储接口
type JobStore interface {
	// Save 整体写入作业记录（覆盖语义）
	Save(ctx context.Context, job *types.OrchestrationJob) error

	// Get 按作业ID读取；不存在时返回 (nil, false, nil)
	Get(ctx context.Context, jobID string) (*types.OrchestrationJob, bool, error)

	// List 返回全部作业记录（重启恢复时扫描用）
	List(ctx context.Context) ([]*types.OrchestrationJob, error)

	// Delete 删除作业记录（归档后清理）
	Delete(ctx context.Context, jobID string) error

	// Close 关闭底层存储
	Close() error
}

// KVStore 定义最小键值存储接口（JobStore的底座）
type KVStore interface {
	// Get 读取键值；键不存在时返回 (nil, nil)
	Get(ctx context.Context, key []byte) ([]byte, error)

	// Set 写入键值对（覆盖语义）
	Set(ctx context.Context, key, value []byte) error

	// Delete 删除键（键不存在不报错）
	Delete(ctx context.Context, key []byte) error

	// ScanPrefix 按前缀遍历，回调返回false时提前终止
	ScanPrefix(ctx context.Context, prefix []byte, fn func(key, value []byte) bool) error

	// Close 关闭存储
	Close() error
}
