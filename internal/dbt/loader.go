package dbt

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Loader manifest 加载器
type Loader struct {
	parser   *Parser
	filePath string

	mu       sync.RWMutex
	manifest *Manifest
	models   []Model
}

// NewLoader 创建新的加载器
func NewLoader(filePath string) *Loader {
	return &Loader{
		parser:   NewParser(filePath),
		filePath: filePath,
	}
}

// Load 加载并汇总 manifest
func (l *Loader) Load() error {
	manifest, err := l.parser.Parse()
	if err != nil {
		return fmt.Errorf("failed to load manifest: %w", err)
	}

	models := BuildModels(manifest)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.manifest = manifest
	l.models = models
	return nil
}

// Reload 重新加载 manifest（用于热重载）
func (l *Loader) Reload() error {
	return l.Load()
}

// GetManifest 获取当前 manifest
func (l *Loader) GetManifest() *Manifest {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.manifest
}

// ListModels 列出所有模型
func (l *Loader) ListModels() []Model {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make([]Model, len(l.models))
	copy(result, l.models)
	return result
}

// GetModel 根据名称（和可选版本）获取模型
func (l *Loader) GetModel(name, version string) (*Model, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var fallback *Model
	for i := range l.models {
		m := &l.models[i]
		if m.Name != name {
			continue
		}
		if version == "" || m.Version == version {
			found := *m
			return &found, nil
		}
		if fallback == nil {
			found := *m
			fallback = &found
		}
	}
	if fallback != nil {
		return fallback, nil
	}
	return nil, fmt.Errorf("model '%s' not found in manifest", name)
}

// InferredRelationships 当前 manifest 中声明的候选关系
func (l *Loader) InferredRelationships() []InferredRelationship {
	l.mu.RLock()
	manifest := l.manifest
	l.mu.RUnlock()

	if manifest == nil {
		return nil
	}
	return ExtractRelationshipTests(manifest)
}

// Watch 监听 manifest 文件变化并自动重载，直到 ctx 取消
func (l *Loader) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	// dbt 重新编译时会整体替换 manifest.json，监听其所在目录
	if err := watcher.Add(filepath.Dir(l.filePath)); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch manifest directory: %w", err)
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != filepath.Clean(l.filePath) {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				if err := l.Reload(); err != nil {
					zap.S().Warnw("manifest reload failed", "path", l.filePath, "error", err)
					continue
				}
				zap.S().Infow("manifest reloaded", "path", l.filePath, "models", len(l.ListModels()))
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				zap.S().Warnw("manifest watcher error", "error", err)
			}
		}
	}()

	return nil
}
