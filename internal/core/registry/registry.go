// Package registry 提供程序注册表实现
//
// 📇 **程序注册表 (Program Registry)**
//
// 🎯 **核心职责**：进程启动时一次性加载"逻辑程序名 → 编译镜像"
// 映射，之后只读。镜像加载时重算内容哈希并与清单声明比对，
// 清单与产物脱节直接拒绝启动。
//
// 📋 **镜像来源**：
// - 内置程序：进程内注册的native guest（mod-exp / is-even）
// - 清单文件：JSON清单指向WASM产物文件或内联base64
//
// 🏗️ **设计**：不可变快照 + 显式注入（非可变单例），
// 并发查找无需加锁。
package registry

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	registryconfig "github.com/weisyn/zkcompose/internal/config/registry"
	"github.com/weisyn/zkcompose/internal/core/guest"
	registryInterface "github.com/weisyn/zkcompose/pkg/interfaces/registry"
	log "github.com/weisyn/zkcompose/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/zkcompose/pkg/types"
)

// manifest 程序清单文件结构
type manifest struct {
	Programs []manifestEntry `json:"programs"`
}

// manifestEntry 清单条目：Path与BinaryB64二选一
type manifestEntry struct {
	Name      string `json:"name"`
	ImageID   string `json:"image_id"` // 期望的镜像标识（hex），加载时重算比对
	Path      string `json:"path,omitempty"`
	BinaryB64 string `json:"binary_b64,omitempty"`
}

// Registry 程序注册表实现（加载后不可变）
type Registry struct {
	logger log.Logger
	images map[string]*types.ProgramImage
}

// 确保Registry实现接口
var _ registryInterface.Registry = (*Registry)(nil)

// New 创建并加载程序注册表
func New(config *registryconfig.Config, logger log.Logger) (*Registry, error) {
	options := config.GetOptions()
	images := make(map[string]*types.ProgramImage)

	// 内置native guest程序
	if options.BuiltinPrograms {
		for name, image := range guest.BuiltinImages() {
			images[name] = image
		}
	}

	// 清单文件中的程序
	if options.ManifestPath != "" {
		if err := loadManifest(options.ManifestPath, images); err != nil {
			return nil, err
		}
	}

	if logger != nil {
		logger.Infof("程序注册表加载完成: programs=%d", len(images))
		for name, image := range images {
			logger.Debugf("已注册程序: name=%s, imageID=%s", name, image.ID.Hex())
		}
	}

	return &Registry{logger: logger, images: images}, nil
}

// loadManifest 加载清单文件并校验每个镜像的内容哈希
func loadManifest(path string, images map[string]*types.ProgramImage) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("读取程序清单失败: %w", err)
	}

	var m manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("解析程序清单失败: %w", err)
	}

	baseDir := filepath.Dir(path)
	for _, entry := range m.Programs {
		if entry.Name == "" {
			return WrapManifestInvalidError("程序名为空")
		}
		if _, exists := images[entry.Name]; exists {
			return WrapManifestInvalidError(fmt.Sprintf("程序名重复: %s", entry.Name))
		}

		binary, err := loadBinary(baseDir, entry)
		if err != nil {
			return err
		}

		expected, err := types.ImageIDFromHex(entry.ImageID)
		if err != nil {
			return WrapManifestInvalidError(fmt.Sprintf("程序%s的镜像标识非法: %v", entry.Name, err))
		}

		image := &types.ProgramImage{ID: expected, Binary: binary}
		if err := image.VerifyID(); err != nil {
			return WrapImageMismatchError(entry.Name, err)
		}

		images[entry.Name] = image
	}
	return nil
}

// loadBinary 读取清单条目的编译产物
func loadBinary(baseDir string, entry manifestEntry) ([]byte, error) {
	switch {
	case entry.Path != "" && entry.BinaryB64 != "":
		return nil, WrapManifestInvalidError(fmt.Sprintf("程序%s同时指定了path与binary_b64", entry.Name))
	case entry.Path != "":
		p := entry.Path
		if !filepath.IsAbs(p) {
			p = filepath.Join(baseDir, p)
		}
		binary, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("读取程序产物失败: name=%s: %w", entry.Name, err)
		}
		return binary, nil
	case entry.BinaryB64 != "":
		binary, err := base64.StdEncoding.DecodeString(entry.BinaryB64)
		if err != nil {
			return nil, WrapManifestInvalidError(fmt.Sprintf("程序%s的内联产物解码失败: %v", entry.Name, err))
		}
		return binary, nil
	default:
		return nil, WrapManifestInvalidError(fmt.Sprintf("程序%s缺少产物来源", entry.Name))
	}
}

// Resolve 按逻辑名解析程序镜像
func (r *Registry) Resolve(name string) (*types.ProgramImage, error) {
	image, ok := r.images[name]
	if !ok {
		return nil, WrapUnknownProgramError(name)
	}
	return image, nil
}

// Images 返回注册表内全部镜像标识的只读快照
func (r *Registry) Images() map[string]types.ImageID {
	snapshot := make(map[string]types.ImageID, len(r.images))
	for name, image := range r.images {
		snapshot[name] = image.ID
	}
	return snapshot
}
