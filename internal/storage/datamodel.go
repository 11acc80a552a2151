package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/timhiebenthal/trellis-datamodel-sub000/internal/canvas"
)

// DataModelStorage 数据模型文件存储
type DataModelStorage struct {
	pathManager *PathManager
	mu          sync.RWMutex
}

// NewDataModelStorage 创建数据模型存储
func NewDataModelStorage(pathManager *PathManager) *DataModelStorage {
	return &DataModelStorage{
		pathManager: pathManager,
	}
}

// Load 加载持久化的画布状态；文件不存在时返回空状态
func (s *DataModelStorage) Load() (*canvas.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	filePath := s.pathManager.GetDataModelPath()
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return canvas.NewState(), nil
		}
		return nil, fmt.Errorf("failed to read data model file: %w", err)
	}

	var state canvas.State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to parse data model JSON: %w", err)
	}
	if state.Entities == nil {
		state.Entities = []canvas.Entity{}
	}
	if state.Relationships == nil {
		state.Relationships = []canvas.Relationship{}
	}

	return &state, nil
}

// Save 持久化完整的画布状态
func (s *DataModelStorage) Save(state *canvas.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	filePath := s.pathManager.GetDataModelPath()
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(state); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}

	return nil
}
