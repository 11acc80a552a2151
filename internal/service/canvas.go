package service

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/timhiebenthal/trellis-datamodel-sub000/internal/canvas"
	"github.com/timhiebenthal/trellis-datamodel-sub000/internal/dbt"
	"github.com/timhiebenthal/trellis-datamodel-sub000/internal/storage"
)

// CanvasService 画布服务
//
// 持有当前状态快照的唯一所有者。每个命令基于最新快照计算新快照并整体替换，
// 任何在锁外完成的异步查询（schema 获取、关系推断）都必须在落盘前
// 重新读取最新快照，避免覆盖并发的用户编辑。
type CanvasService struct {
	loader  *dbt.Loader
	storage *storage.DataModelStorage
	layout  canvas.LayoutMode

	mu    sync.Mutex
	state *canvas.State
	drag  *canvas.DragContext
}

// NewCanvasService 创建画布服务并加载持久化状态
func NewCanvasService(loader *dbt.Loader, dataModelStorage *storage.DataModelStorage, layout canvas.LayoutMode) (*CanvasService, error) {
	state, err := dataModelStorage.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load data model: %w", err)
	}
	if layout == "" {
		layout = canvas.LayoutDimensional
	}
	return &CanvasService{
		loader:  loader,
		storage: dataModelStorage,
		layout:  layout,
		state:   state,
	}, nil
}

// Snapshot 当前状态快照的副本
func (s *CanvasService) Snapshot() *canvas.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// commit 替换快照并持久化；持久化失败时保留内存中的编辑供重试
func (s *CanvasService) commit(next *canvas.State) error {
	s.state = next
	if err := s.storage.Save(next); err != nil {
		return fmt.Errorf("failed to persist data model: %w", err)
	}
	return nil
}

// CreateEntity 新建实体
func (s *CanvasService) CreateEntity(label string, entityType canvas.EntityType) (canvas.Entity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, entity := s.state.AddEntity(label, entityType, s.layout)
	if err := s.commit(next); err != nil {
		return entity, err
	}
	return entity, nil
}

// RenameEntity 修改实体标签并传播标识符变更
func (s *CanvasService) RenameEntity(id, newLabel string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, newID, err := s.state.RenameEntity(id, newLabel)
	if err != nil {
		return "", err
	}
	if err := s.commit(next); err != nil {
		return newID, err
	}
	return newID, nil
}

// DeleteEntity 删除实体并级联清理关系与外键标注
func (s *CanvasService) DeleteEntity(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := s.state.DeleteEntity(id)
	if err != nil {
		return err
	}
	return s.commit(next)
}

// BindModel 绑定实体到物理模型
func (s *CanvasService) BindModel(entityID, modelName, version string) error {
	if _, err := s.loader.GetModel(modelName, version); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := s.state.BindModel(entityID, modelName, version)
	if err != nil {
		return err
	}
	return s.commit(next)
}

// UnbindModel 解除绑定并剥离相连边上的字段对标注
func (s *CanvasService) UnbindModel(entityID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := s.state.UnbindModel(entityID)
	if err != nil {
		return err
	}
	return s.commit(next)
}

// SetFields 整体替换实体的草稿字段
func (s *CanvasService) SetFields(entityID string, fields []canvas.DraftField) error {
	for _, f := range fields {
		if f.Datatype != "" && !canvas.ValidDatatypes[f.Datatype] {
			return fmt.Errorf("invalid datatype '%s' for field '%s'", f.Datatype, f.Name)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := s.state.SetFields(entityID, fields)
	if err != nil {
		return err
	}
	return s.commit(next)
}

// DeleteField 删除草稿字段并清除依赖它的外键标注
func (s *CanvasService) DeleteField(entityID, fieldName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := s.state.DeleteField(entityID, fieldName)
	if err != nil {
		return err
	}
	return s.commit(next)
}

// CreateRelationship 显式拖拽建边（可不指定字段对）
func (s *CanvasService) CreateRelationship(candidate canvas.RelationshipCandidate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.state.FindEntity(candidate.SourceID); !ok {
		return fmt.Errorf("entity '%s' not found", candidate.SourceID)
	}
	if _, ok := s.state.FindEntity(candidate.TargetID); !ok {
		return fmt.Errorf("entity '%s' not found", candidate.TargetID)
	}

	return s.commit(s.state.Merge(candidate))
}

// ConnectFields 字段到字段的拖拽建边
//
// 先在锁外完成两侧 schema 查询和主外键分类，再对最新快照做方向判定与归并。
// 查询失败不会中止建边：回退为拖拽方向并记录警告（尽力而为的操作）。
func (s *CanvasService) ConnectFields(sourceEntityID, sourceField, targetEntityID, targetField string) error {
	snapshot := s.Snapshot()

	source, ok := snapshot.FindEntity(sourceEntityID)
	if !ok {
		return fmt.Errorf("entity '%s' not found", sourceEntityID)
	}
	target, ok := snapshot.FindEntity(targetEntityID)
	if !ok {
		return fmt.Errorf("entity '%s' not found", targetEntityID)
	}

	sourceClass := s.classifyField(source, sourceField, target.DbtModel)
	targetClass := s.classifyField(target, targetField, source.DbtModel)

	resolved := canvas.ResolveDirection(
		sourceEntityID, sourceField,
		targetEntityID, targetField,
		sourceClass, targetClass)

	candidate := canvas.RelationshipCandidate{
		SourceID:    resolved.SourceID,
		TargetID:    resolved.TargetID,
		SourceField: resolved.SourceField,
		TargetField: resolved.TargetField,
		Cardinality: resolved.Cardinality,
	}

	// 查询期间画布可能已被编辑，基于最新快照归并
	s.mu.Lock()
	defer s.mu.Unlock()

	src, ok := s.state.FindEntity(candidate.SourceID)
	if !ok {
		return fmt.Errorf("entity '%s' no longer exists", candidate.SourceID)
	}
	tgt, ok := s.state.FindEntity(candidate.TargetID)
	if !ok {
		return fmt.Errorf("entity '%s' no longer exists", candidate.TargetID)
	}
	candidate.SourceModel = src.DbtModel
	candidate.SourceVersion = src.ModelVersion
	candidate.TargetModel = tgt.DbtModel
	candidate.TargetVersion = tgt.ModelVersion

	return s.commit(s.state.Merge(candidate))
}

// BeginFieldDrag 记录字段拖拽的起点
//
// 拖拽上下文是临时的，不随画布状态持久化。
func (s *CanvasService) BeginFieldDrag(entityID, fieldName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.state.FindEntity(entityID); !ok {
		return fmt.Errorf("entity '%s' not found", entityID)
	}
	s.drag = &canvas.DragContext{SourceEntityID: entityID, SourceField: fieldName}
	return nil
}

// CancelFieldDrag 拖拽在落点前结束时清除上下文
func (s *CanvasService) CancelFieldDrag() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drag = nil
}

// DropField 在目标字段上落点，消费拖拽上下文并建边
//
// 无论建边成功与否，上下文在落点时即被清除，不会残留到下一次手势。
func (s *CanvasService) DropField(targetEntityID, targetField string) error {
	s.mu.Lock()
	drag := s.drag
	s.drag = nil
	s.mu.Unlock()

	if drag == nil {
		return fmt.Errorf("no active field drag")
	}
	return s.ConnectFields(drag.SourceEntityID, drag.SourceField, targetEntityID, targetField)
}

// classifyField 查询绑定模型的列并分类；失败时回退为 unknown 并记录警告
func (s *CanvasService) classifyField(entity *canvas.Entity, fieldName, otherModel string) canvas.FieldClass {
	if !entity.IsBound() {
		return canvas.FieldClassUnknown
	}

	model, err := s.loader.GetModel(entity.DbtModel, entity.ModelVersion)
	if err != nil {
		zap.S().Warnw("field classification lookup failed, falling back to drag direction",
			"entity", entity.ID, "model", entity.DbtModel, "field", fieldName, "error", err)
		return canvas.FieldClassUnknown
	}

	var column *dbt.Column
	for i := range model.Columns {
		if model.Columns[i].Name == fieldName {
			column = &model.Columns[i]
			break
		}
	}
	return canvas.FieldClass(dbt.ClassifyColumn(column, otherModel))
}

// GenerateEntities 从标注的业务事件批量生成实体
//
// 校验消息非空时拒绝生成并原样返回消息列表；画布状态不变。
func (s *CanvasService) GenerateEntities(drafts []canvas.EntityDraft) ([]canvas.Entity, []string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	messages := canvas.ValidateEntityDrafts(drafts, s.state)
	if len(messages) > 0 {
		return nil, messages, nil
	}

	next := s.state
	created := make([]canvas.Entity, 0, len(drafts))
	for _, d := range drafts {
		var entity canvas.Entity
		next, entity = next.AddEntity(d.Label, d.Type, s.layout)
		if len(d.Fields) > 0 {
			var err error
			next, err = next.SetFields(entity.ID, d.Fields)
			if err != nil {
				return nil, nil, err
			}
			entity.Fields = d.Fields
		}
		created = append(created, entity)
	}

	// 根据草稿字段上的外键标注补齐关系
	for _, entity := range created {
		for _, f := range entity.Fields {
			if f.FKLink == nil {
				continue
			}
			if _, ok := next.FindEntity(f.FKLink.TargetEntityID); !ok {
				continue
			}
			next = next.Merge(canvas.RelationshipCandidate{
				SourceID:    f.FKLink.TargetEntityID,
				TargetID:    entity.ID,
				SourceField: f.FKLink.TargetField,
				TargetField: f.Name,
				Cardinality: canvas.CardinalityOneToMany,
			})
		}
	}

	if err := s.commit(next); err != nil {
		return created, nil, err
	}
	return created, nil, nil
}
