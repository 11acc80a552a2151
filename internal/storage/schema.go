package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// SchemaColumn 覆盖文件中的列定义
type SchemaColumn struct {
	Name        string `yaml:"name" json:"name"`
	DataType    string `yaml:"data_type,omitempty" json:"data_type,omitempty"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// SchemaFile 模型的用户可编辑 schema 覆盖文件
// 叠加在只读的 manifest 基线之上，持久化只写入覆盖文件
type SchemaFile struct {
	Model       string         `yaml:"model" json:"model"`
	Version     string         `yaml:"version,omitempty" json:"version,omitempty"`
	Description string         `yaml:"description,omitempty" json:"description,omitempty"`
	Tags        []string       `yaml:"tags,omitempty" json:"tags,omitempty"`
	Columns     []SchemaColumn `yaml:"columns" json:"columns"`
}

// SchemaStorage schema 覆盖文件存储
type SchemaStorage struct {
	pathManager *PathManager
	mu          sync.RWMutex
}

// NewSchemaStorage 创建 schema 覆盖文件存储
func NewSchemaStorage(pathManager *PathManager) *SchemaStorage {
	return &SchemaStorage{
		pathManager: pathManager,
	}
}

// Load 读取模型的覆盖文件；不存在时返回 found=false 而不报错，
// 调用方据此回退到 manifest 基线
func (s *SchemaStorage) Load(modelName, version string) (*SchemaFile, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	filePath := s.pathManager.GetSchemaPath(modelName, version)
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read schema file: %w", err)
	}

	var schema SchemaFile
	if err := yaml.Unmarshal(data, &schema); err != nil {
		return nil, false, fmt.Errorf("failed to parse schema YAML: %w", err)
	}
	if schema.Model == "" {
		schema.Model = modelName
	}

	return &schema, true, nil
}

// Save 持久化模型的覆盖文件
func (s *SchemaStorage) Save(schema *SchemaFile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	filePath := s.pathManager.GetSchemaPath(schema.Model, schema.Version)
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	data, err := yaml.Marshal(schema)
	if err != nil {
		return fmt.Errorf("failed to encode schema YAML: %w", err)
	}

	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write schema file: %w", err)
	}

	return nil
}

// Delete 删除模型的覆盖文件
func (s *SchemaStorage) Delete(modelName, version string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	filePath := s.pathManager.GetSchemaPath(modelName, version)
	if err := os.Remove(filePath); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("schema file not found")
		}
		return fmt.Errorf("failed to delete schema file: %w", err)
	}

	return nil
}
