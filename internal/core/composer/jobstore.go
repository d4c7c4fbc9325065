package composer

import (
	"context"
	"encoding/json"
	"fmt"

	storageInterface "github.com/weisyn/zkcompose/pkg/interfaces/storage"
	"github.com/weisyn/zkcompose/pkg/types"
)

// jobKeyPrefix 作业记录在KV存储内的键前缀
const jobKeyPrefix = "job/"

// KVJobStore 基于KV存储的作业持久化实现
//
// 每个作业整体JSON编码后写到 "job/<id>" 键下；
// 作业体量小（回执在KB级），整体覆盖写比增量更新简单可靠。
type KVJobStore struct {
	kv storageInterface.KVStore
}

// 确保KVJobStore实现接口
var _ storageInterface.JobStore = (*KVJobStore)(nil)

// NewKVJobStore 创建KV作业存储
func NewKVJobStore(kv storageInterface.KVStore) *KVJobStore {
	return &KVJobStore{kv: kv}
}

func jobKey(jobID string) []byte {
	return []byte(jobKeyPrefix + jobID)
}

// Save 整体写入作业记录
func (s *KVJobStore) Save(ctx context.Context, job *types.OrchestrationJob) error {
	if job.ID == "" {
		return fmt.Errorf("作业ID不能为空")
	}
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("编码作业记录失败: jobID=%s, cause=%w", job.ID, err)
	}
	return s.kv.Set(ctx, jobKey(job.ID), data)
}

// Get 按作业ID读取
func (s *KVJobStore) Get(ctx context.Context, jobID string) (*types.OrchestrationJob, bool, error) {
	data, err := s.kv.Get(ctx, jobKey(jobID))
	if err != nil {
		return nil, false, err
	}
	if data == nil {
		return nil, false, nil
	}
	var job types.OrchestrationJob
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, false, fmt.Errorf("解码作业记录失败: jobID=%s, cause=%w", jobID, err)
	}
	return &job, true, nil
}

// List 返回全部作业记录
func (s *KVJobStore) List(ctx context.Context) ([]*types.OrchestrationJob, error) {
	var jobs []*types.OrchestrationJob
	var decodeErr error
	err := s.kv.ScanPrefix(ctx, []byte(jobKeyPrefix), func(key, value []byte) bool {
		var job types.OrchestrationJob
		if err := json.Unmarshal(value, &job); err != nil {
			decodeErr = fmt.Errorf("解码作业记录失败: key=%s, cause=%w", key, err)
			return false
		}
		jobs = append(jobs, &job)
		return true
	})
	if err != nil {
		return nil, err
	}
	if decodeErr != nil {
		return nil, decodeErr
	}
	return jobs, nil
}

// Delete 删除作业记录
func (s *KVJobStore) Delete(ctx context.Context, jobID string) error {
	return s.kv.Delete(ctx, jobKey(jobID))
}

// Close 关闭底层存储
func (s *KVJobStore) Close() error {
	return s.kv.Close()
}
