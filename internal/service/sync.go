package service

import (
	"fmt"
	"sort"
	"sync"

	"github.com/timhiebenthal/trellis-datamodel-sub000/internal/dbt"
	"github.com/timhiebenthal/trellis-datamodel-sub000/internal/storage"
)

// SyncState schema 编辑会话的完整状态
//
// 可编辑列视图由 manifest 基线与覆盖文件合并派生：覆盖文件存在时
// 以覆盖文件为准，否则回退到 manifest 列（描述为空）。持久化只写覆盖文件。
type SyncState struct {
	Model             string                 `json:"model"`
	Version           string                 `json:"version,omitempty"`
	EditableColumns   []storage.SchemaColumn `json:"editable_columns"`
	IsLoading         bool                   `json:"is_loading"`
	IsSaving          bool                   `json:"is_saving"`
	Error             string                 `json:"error,omitempty"`
	HasUnsavedChanges bool                   `json:"has_unsaved_changes"`
	SchemaTags        []string               `json:"schema_tags"`
	ManifestTags      []string               `json:"manifest_tags"`
	DisplayTags       []string               `json:"display_tags"`
	Description       string                 `json:"description,omitempty"`
}

// SchemaSyncService schema 同步服务
//
// 同一时刻只有一个活跃的编辑会话；切换模型会重新加载并丢弃
// 上一个会话未保存的修改（文档化行为，不做静默持久化）。
type SchemaSyncService struct {
	loader  *dbt.Loader
	storage *storage.SchemaStorage

	mu      sync.Mutex
	current *SyncState
}

// NewSchemaSyncService 创建 schema 同步服务
func NewSchemaSyncService(loader *dbt.Loader, schemaStorage *storage.SchemaStorage) *SchemaSyncService {
	return &SchemaSyncService{
		loader:  loader,
		storage: schemaStorage,
	}
}

// LoadSchema 加载模型的编辑状态，丢弃上一个会话
func (s *SchemaSyncService) LoadSchema(modelName, version string) (*SyncState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := &SyncState{
		Model:     modelName,
		Version:   version,
		IsLoading: true,
	}
	s.current = state

	model, err := s.loader.GetModel(modelName, version)
	if err != nil {
		state.IsLoading = false
		state.Error = err.Error()
		return copyState(state), fmt.Errorf("failed to load manifest schema: %w", err)
	}
	state.ManifestTags = append([]string(nil), model.Tags...)

	override, found, err := s.storage.Load(modelName, version)
	if err != nil {
		// 覆盖文件损坏按可恢复错误处理，回退到 manifest 基线
		state.Error = err.Error()
		found = false
	}

	if found {
		state.EditableColumns = append([]storage.SchemaColumn(nil), override.Columns...)
		state.SchemaTags = append([]string(nil), override.Tags...)
		state.Description = override.Description
	} else {
		columns := make([]storage.SchemaColumn, 0, len(model.Columns))
		for _, col := range model.Columns {
			columns = append(columns, storage.SchemaColumn{
				Name:     col.Name,
				DataType: col.DataType,
			})
		}
		state.EditableColumns = columns
		state.SchemaTags = append([]string(nil), model.Tags...)
	}

	state.IsLoading = false
	state.HasUnsavedChanges = false
	state.DisplayTags = mergeTags(state.ManifestTags, state.SchemaTags)

	return copyState(state), nil
}

// State 当前会话状态的副本
func (s *SchemaSyncService) State() (*SyncState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil, fmt.Errorf("no schema loaded")
	}
	return copyState(s.current), nil
}

// UpdateEditableColumn 修改指定下标的列，标记未保存，不触发 I/O
func (s *SchemaSyncService) UpdateEditableColumn(index int, column storage.SchemaColumn) (*SyncState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return nil, fmt.Errorf("no schema loaded")
	}
	if index < 0 || index >= len(s.current.EditableColumns) {
		return nil, fmt.Errorf("column index %d out of range", index)
	}

	s.current.EditableColumns[index] = column
	s.current.HasUnsavedChanges = true
	return copyState(s.current), nil
}

// AddEditableColumn 追加新列，标记未保存，不触发 I/O
func (s *SchemaSyncService) AddEditableColumn(column storage.SchemaColumn) (*SyncState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return nil, fmt.Errorf("no schema loaded")
	}
	if column.Name == "" {
		return nil, fmt.Errorf("column name is required")
	}

	s.current.EditableColumns = append(s.current.EditableColumns, column)
	s.current.HasUnsavedChanges = true
	return copyState(s.current), nil
}

// DeleteEditableColumn 删除指定下标的列，标记未保存，不触发 I/O
func (s *SchemaSyncService) DeleteEditableColumn(index int) (*SyncState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return nil, fmt.Errorf("no schema loaded")
	}
	if index < 0 || index >= len(s.current.EditableColumns) {
		return nil, fmt.Errorf("column index %d out of range", index)
	}

	s.current.EditableColumns = append(
		s.current.EditableColumns[:index],
		s.current.EditableColumns[index+1:]...)
	s.current.HasUnsavedChanges = true
	return copyState(s.current), nil
}

// UpdateSchemaTags 整体替换用户标签，标记未保存，不触发 I/O
func (s *SchemaSyncService) UpdateSchemaTags(tags []string) (*SyncState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return nil, fmt.Errorf("no schema loaded")
	}

	s.current.SchemaTags = append([]string(nil), tags...)
	s.current.DisplayTags = mergeTags(s.current.ManifestTags, s.current.SchemaTags)
	s.current.HasUnsavedChanges = true
	return copyState(s.current), nil
}

// SaveSchema 将当前可编辑列、标签和描述持久化到覆盖文件
//
// 成功后清除未保存标记；失败时记录错误并保留本地修改，用户可重试。
func (s *SchemaSyncService) SaveSchema(description string) (*SyncState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return nil, fmt.Errorf("no schema loaded")
	}

	s.current.IsSaving = true
	s.current.Description = description

	file := &storage.SchemaFile{
		Model:       s.current.Model,
		Version:     s.current.Version,
		Description: description,
		Tags:        append([]string(nil), s.current.SchemaTags...),
		Columns:     append([]storage.SchemaColumn(nil), s.current.EditableColumns...),
	}

	if err := s.storage.Save(file); err != nil {
		s.current.IsSaving = false
		s.current.Error = err.Error()
		return copyState(s.current), fmt.Errorf("failed to save schema: %w", err)
	}

	s.current.IsSaving = false
	s.current.Error = ""
	s.current.HasUnsavedChanges = false
	return copyState(s.current), nil
}

// ResetSchema 删除模型的覆盖文件，使其回退到 manifest 基线
//
// 被重置的模型正是当前会话时重新加载会话（丢弃未保存的修改），
// 否则当前会话不受影响，返回 nil 状态。
func (s *SchemaSyncService) ResetSchema(modelName, version string) (*SyncState, error) {
	if err := s.storage.Delete(modelName, version); err != nil {
		return nil, fmt.Errorf("failed to reset schema: %w", err)
	}

	s.mu.Lock()
	active := s.current != nil && s.current.Model == modelName && s.current.Version == version
	s.mu.Unlock()

	if active {
		return s.LoadSchema(modelName, version)
	}
	return nil, nil
}

// mergeTags manifest 标签与用户标签的并集（去重，顺序不敏感但输出稳定）
func mergeTags(manifestTags, schemaTags []string) []string {
	seen := make(map[string]bool)
	var merged []string
	for _, t := range manifestTags {
		if t != "" && !seen[t] {
			seen[t] = true
			merged = append(merged, t)
		}
	}
	for _, t := range schemaTags {
		if t != "" && !seen[t] {
			seen[t] = true
			merged = append(merged, t)
		}
	}
	sort.Strings(merged)
	return merged
}

func copyState(state *SyncState) *SyncState {
	out := *state
	out.EditableColumns = append([]storage.SchemaColumn(nil), state.EditableColumns...)
	out.SchemaTags = append([]string(nil), state.SchemaTags...)
	out.ManifestTags = append([]string(nil), state.ManifestTags...)
	out.DisplayTags = append([]string(nil), state.DisplayTags...)
	return &out
}
