// Package badger 提供基于BadgerDB的键值存储实现
package badger

import (
	"context"
	"errors"
	"fmt"
	"os"

	badgerdb "github.com/dgraph-io/badger/v3"
	storageconfig "github.com/weisyn/zkcompose/internal/config/storage"
	log "github.com/weisyn/zkcompose/pkg/interfaces/infrastructure/log"
	interfaces "github.com/weisyn/zkcompose/pkg/interfaces/storage"
)

// Store 实现KVStore接口
type Store struct {
	db     *badgerdb.DB
	logger log.Logger
}

// 确保Store实现接口
var _ interfaces.KVStore = (*Store)(nil)

// New 创建BadgerDB存储实例
func New(config *storageconfig.Config, logger log.Logger) (*Store, error) {
	options := config.GetOptions()

	var opts badgerdb.Options
	if options.InMemory {
		opts = badgerdb.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(options.Path, 0o700); err != nil {
			return nil, fmt.Errorf("创建BadgerDB数据目录失败: %w", err)
		}
		opts = badgerdb.DefaultOptions(options.Path)
		opts.SyncWrites = true // 作业状态迁移必须落盘，进程崩溃不能丢状态
	}
	// BadgerDB自带logger很吵，统一走我们的日志系统
	opts.Logger = nil

	db, err := badgerdb.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("打开BadgerDB失败: %w", err)
	}

	if logger != nil {
		logger.Infof("BadgerDB存储已就绪: path=%s, in_memory=%v", options.Path, options.InMemory)
	}

	return &Store{db: db, logger: logger}, nil
}

// Get 读取键值；键不存在时返回 (nil, nil)
func (s *Store) Get(ctx context.Context, key []byte) ([]byte, error) {
	var value []byte
	err := s.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badgerdb.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("读取键值失败: %w", err)
	}
	return value, nil
}

// Set 写入键值对
func (s *Store) Set(ctx context.Context, key, value []byte) error {
	err := s.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Set(key, value)
	})
	if err != nil {
		return fmt.Errorf("写入键值失败: %w", err)
	}
	return nil
}

// Delete 删除键（键不存在不报错）
func (s *Store) Delete(ctx context.Context, key []byte) error {
	err := s.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Delete(key)
	})
	if err != nil {
		return fmt.Errorf("删除键失败: %w", err)
	}
	return nil
}

// ScanPrefix 按前缀遍历，回调返回false时提前终止
func (s *Store) ScanPrefix(ctx context.Context, prefix []byte, fn func(key, value []byte) bool) error {
	err := s.db.View(func(txn *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			item := it.Item()
			value, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			if !fn(item.KeyCopy(nil), value) {
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("前缀遍历失败: %w", err)
	}
	return nil
}

// Close 关闭底层数据库
func (s *Store) Close() error {
	return s.db.Close()
}
