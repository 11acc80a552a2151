package canvas

import (
	"fmt"
)

// State 画布状态快照（实体 + 关系的聚合）
//
// 所有命令都基于当前快照计算并返回新的快照，调用方整体替换；
// 异步操作恢复后必须基于最新快照重新计算，而不是套用过期的差量。
type State struct {
	Entities      []Entity       `json:"entities"`
	Relationships []Relationship `json:"relationships"`
}

// NewState 创建空画布状态
func NewState() *State {
	return &State{
		Entities:      []Entity{},
		Relationships: []Relationship{},
	}
}

// Clone 深拷贝快照
func (s *State) Clone() *State {
	next := &State{
		Entities:      make([]Entity, len(s.Entities)),
		Relationships: make([]Relationship, len(s.Relationships)),
	}
	copy(next.Entities, s.Entities)
	copy(next.Relationships, s.Relationships)
	for i := range next.Entities {
		e := &next.Entities[i]
		if len(e.Tags) > 0 {
			e.Tags = append([]string(nil), e.Tags...)
		}
		if len(e.AdditionalModels) > 0 {
			e.AdditionalModels = append([]string(nil), e.AdditionalModels...)
		}
		if len(e.Fields) > 0 {
			fields := make([]DraftField, len(e.Fields))
			copy(fields, e.Fields)
			for j := range fields {
				if fields[j].FKLink != nil {
					link := *fields[j].FKLink
					fields[j].FKLink = &link
				}
			}
			e.Fields = fields
		}
	}
	return next
}

// FindEntity 按标识符查找实体
func (s *State) FindEntity(id string) (*Entity, bool) {
	for i := range s.Entities {
		if s.Entities[i].ID == id {
			return &s.Entities[i], true
		}
	}
	return nil, false
}

// SlugSet 当前占用的标识符集合，excludeID 用于改名时排除实体自身
func (s *State) SlugSet(excludeID string) map[string]bool {
	set := make(map[string]bool, len(s.Entities))
	for i := range s.Entities {
		if s.Entities[i].ID != excludeID {
			set[s.Entities[i].ID] = true
		}
	}
	return set
}

// AddEntity 新建实体并按项目布局模式确定位置
func (s *State) AddEntity(label string, entityType EntityType, mode LayoutMode) (*State, Entity) {
	if entityType == "" {
		entityType = EntityTypeUnclassified
	}
	entity := Entity{
		ID:       GenerateSlug(label, s.SlugSet("")),
		Label:    label,
		Type:     entityType,
		Position: PlanPosition(mode, entityType, s.Entities),
	}
	next := s.Clone()
	next.Entities = append(next.Entities, entity)
	return next, entity
}

// RenameEntity 修改实体标签，必要时重新生成标识符并按值更新所有引用
//
// 边自身的 ID 保持不变；只有端点引用和其他实体字段上的外键标注被改写。
func (s *State) RenameEntity(id, newLabel string) (*State, string, error) {
	if _, ok := s.FindEntity(id); !ok {
		return nil, "", fmt.Errorf("entity '%s' not found", id)
	}

	newID := GenerateSlug(newLabel, s.SlugSet(id))
	next := s.Clone()

	for i := range next.Entities {
		e := &next.Entities[i]
		if e.ID == id {
			e.ID = newID
			e.Label = newLabel
			continue
		}
		for j := range e.Fields {
			if e.Fields[j].FKLink != nil && e.Fields[j].FKLink.TargetEntityID == id {
				e.Fields[j].FKLink.TargetEntityID = newID
			}
		}
	}

	for i := range next.Relationships {
		r := &next.Relationships[i]
		if r.SourceID == id {
			r.SourceID = newID
		}
		if r.TargetID == id {
			r.TargetID = newID
		}
	}

	return next, newID, nil
}

// DeleteEntity 删除实体并级联清理：移除所有相连的边，
// 清除其他实体字段上指向该实体的外键标注
func (s *State) DeleteEntity(id string) (*State, error) {
	if _, ok := s.FindEntity(id); !ok {
		return nil, fmt.Errorf("entity '%s' not found", id)
	}

	next := s.Clone()

	entities := next.Entities[:0]
	for _, e := range next.Entities {
		if e.ID == id {
			continue
		}
		for j := range e.Fields {
			if e.Fields[j].FKLink != nil && e.Fields[j].FKLink.TargetEntityID == id {
				e.Fields[j].FKLink = nil
			}
		}
		entities = append(entities, e)
	}
	next.Entities = entities

	edges := next.Relationships[:0]
	for _, r := range next.Relationships {
		if r.Touches(id) {
			continue
		}
		edges = append(edges, r)
	}
	next.Relationships = edges

	return next, nil
}

// BindModel 将实体绑定到物理模型
//
// 首次绑定成为主模型；实体已有不同的主模型时，新模型加入附加模型列表。
func (s *State) BindModel(id, model, version string) (*State, error) {
	if _, ok := s.FindEntity(id); !ok {
		return nil, fmt.Errorf("entity '%s' not found", id)
	}
	next := s.Clone()
	e, _ := next.FindEntity(id)

	if e.DbtModel == "" || e.DbtModel == model {
		e.DbtModel = model
		e.ModelVersion = version
		return next, nil
	}
	for _, m := range e.AdditionalModels {
		if m == model {
			return next, nil
		}
	}
	e.AdditionalModels = append(e.AdditionalModels, model)
	return next, nil
}

// UnbindModel 解除实体与物理模型的绑定
//
// 相连边上的字段对标注被剥离（字段随模型失效），边本身和标签保留，
// 基数元数据变为未锚定而非被删除。
func (s *State) UnbindModel(id string) (*State, error) {
	if _, ok := s.FindEntity(id); !ok {
		return nil, fmt.Errorf("entity '%s' not found", id)
	}
	next := s.Clone()
	e, _ := next.FindEntity(id)
	e.DbtModel = ""
	e.ModelVersion = ""
	e.AdditionalModels = nil

	for i := range next.Relationships {
		r := &next.Relationships[i]
		if !r.Touches(id) {
			continue
		}
		r.SourceField = ""
		r.TargetField = ""
		if r.SourceID == id {
			r.SourceModel = ""
			r.SourceVersion = ""
		}
		if r.TargetID == id {
			r.TargetModel = ""
			r.TargetVersion = ""
		}
	}
	return next, nil
}

// SetFields 整体替换实体的草稿字段
func (s *State) SetFields(id string, fields []DraftField) (*State, error) {
	if _, ok := s.FindEntity(id); !ok {
		return nil, fmt.Errorf("entity '%s' not found", id)
	}
	next := s.Clone()
	e, _ := next.FindEntity(id)
	e.Fields = fields
	return next, nil
}

// DeleteField 删除草稿字段并清除其他实体上对它的外键标注
func (s *State) DeleteField(entityID, fieldName string) (*State, error) {
	if _, ok := s.FindEntity(entityID); !ok {
		return nil, fmt.Errorf("entity '%s' not found", entityID)
	}
	next := s.Clone()
	for i := range next.Entities {
		e := &next.Entities[i]
		if e.ID == entityID {
			fields := e.Fields[:0]
			for _, f := range e.Fields {
				if f.Name != fieldName {
					fields = append(fields, f)
				}
			}
			e.Fields = fields
			continue
		}
		for j := range e.Fields {
			link := e.Fields[j].FKLink
			if link != nil && link.TargetEntityID == entityID && link.TargetField == fieldName {
				e.Fields[j].FKLink = nil
			}
		}
	}
	return next, nil
}

// Merge 将候选关系归并到快照的边集合
func (s *State) Merge(candidate RelationshipCandidate) *State {
	next := s.Clone()
	next.Relationships = MergeRelationship(next.Relationships, candidate)
	return next
}
