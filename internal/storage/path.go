package storage

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// PathManager 路径管理器
type PathManager struct {
	dataRoot  string
	namespace string
}

// NewPathManager 创建路径管理器
func NewPathManager(dataRoot, namespace string) *PathManager {
	return &PathManager{
		dataRoot:  dataRoot,
		namespace: normalizeNamespace(namespace),
	}
}

// GetDataModelPath 获取数据模型文件路径
func (pm *PathManager) GetDataModelPath() string {
	return filepath.Join(pm.dataRoot, pm.namespace, "data_model.json")
}

// GetSchemaPath 获取模型 schema 覆盖文件路径
func (pm *PathManager) GetSchemaPath(modelName, version string) string {
	modelName = normalizeName(modelName)
	fileName := fmt.Sprintf("%s.yml", modelName)
	if version != "" {
		fileName = fmt.Sprintf("%s__v%s.yml", modelName, normalizeName(version))
	}
	return filepath.Join(pm.dataRoot, pm.namespace, "schemas", fileName)
}

// GetSchemaDir 获取 schema 覆盖文件目录
func (pm *PathManager) GetSchemaDir() string {
	return filepath.Join(pm.dataRoot, pm.namespace, "schemas")
}

// normalizeNamespace 规范化命名空间
func normalizeNamespace(namespace string) string {
	if namespace == "" {
		return "default"
	}
	re := regexp.MustCompile(`[^a-zA-Z0-9_]`)
	return re.ReplaceAllString(strings.ToLower(namespace), "_")
}

// normalizeName 规范化名称（用于文件名）
func normalizeName(name string) string {
	re := regexp.MustCompile(`[^a-zA-Z0-9_]`)
	return re.ReplaceAllString(strings.ToLower(name), "_")
}
