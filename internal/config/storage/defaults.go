package storage

// 存储默认配置
const (
	defaultPath     = "./data/jobs"
	defaultInMemory = false
)

// createDefaultStorageOptions 创建默认存储配置
func createDefaultStorageOptions() *StorageOptions {
	return &StorageOptions{
		Path:     defaultPath,
		InMemory: defaultInMemory,
	}
}
