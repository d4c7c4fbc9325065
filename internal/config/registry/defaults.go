package registry

// 程序注册表默认配置
const (
	defaultManifestPath    = ""   // 空表示只使用内置程序
	defaultBuiltinPrograms = true // 默认注册内置guest程序
)

// createDefaultRegistryOptions 创建默认注册表配置
func createDefaultRegistryOptions() *RegistryOptions {
	return &RegistryOptions{
		ManifestPath:    defaultManifestPath,
		BuiltinPrograms: defaultBuiltinPrograms,
	}
}
