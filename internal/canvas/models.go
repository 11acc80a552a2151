package canvas

// EntityType 实体分类
type EntityType string

const (
	EntityTypeFact         EntityType = "fact"
	EntityTypeDimension    EntityType = "dimension"
	EntityTypeUnclassified EntityType = "unclassified"
)

// Cardinality 关系基数
type Cardinality string

const (
	CardinalityOneToOne   Cardinality = "one_to_one"
	CardinalityOneToMany  Cardinality = "one_to_many"
	CardinalityManyToOne  Cardinality = "many_to_one"
	CardinalityManyToMany Cardinality = "many_to_many"
)

// 画布节点的默认几何尺寸
const (
	DefaultNodeWidth  = 260.0
	DefaultNodeHeight = 120.0
)

// Position 画布坐标
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// FKLink 草稿字段的外键标注
type FKLink struct {
	TargetEntityID string `json:"target_entity_id"`
	TargetField    string `json:"target_field"`
}

// DraftField 未绑定实体的草稿字段
type DraftField struct {
	Name        string  `json:"name"`
	Datatype    string  `json:"datatype"`
	Description string  `json:"description,omitempty"`
	FKLink      *FKLink `json:"fk_link,omitempty"`
}

// ValidDatatypes 草稿字段支持的数据类型
var ValidDatatypes = map[string]bool{
	"text":      true,
	"int":       true,
	"float":     true,
	"bool":      true,
	"date":      true,
	"timestamp": true,
}

// Entity 画布实体节点
type Entity struct {
	ID               string       `json:"id"`
	Label            string       `json:"label"`
	Type             EntityType   `json:"type"`
	DbtModel         string       `json:"dbt_model,omitempty"`
	ModelVersion     string       `json:"model_version,omitempty"`
	AdditionalModels []string     `json:"additional_models,omitempty"`
	Description      string       `json:"description,omitempty"`
	Tags             []string     `json:"tags,omitempty"`
	Fields           []DraftField `json:"fields,omitempty"`
	Position         Position     `json:"position"`
	Width            float64      `json:"width,omitempty"`
	PanelHeight      float64      `json:"panel_height,omitempty"`
	Collapsed        bool         `json:"collapsed,omitempty"`
}

// IsBound 实体是否已绑定物理模型
func (e *Entity) IsBound() bool {
	return e.DbtModel != ""
}

// NodeWidth 实体的有效宽度（未设置时使用默认值）
func (e *Entity) NodeWidth() float64 {
	if e.Width > 0 {
		return e.Width
	}
	return DefaultNodeWidth
}

// NodeHeight 实体的有效高度（未设置时使用默认值）
func (e *Entity) NodeHeight() float64 {
	if e.PanelHeight > 0 {
		return e.PanelHeight
	}
	return DefaultNodeHeight
}

// Relationship 实体间的有向关系边
//
// ID 在创建时生成，之后保持不变；实体改名只按值更新端点引用，
// 不会重新生成边 ID（避免重新加载时产生重复边）。
type Relationship struct {
	ID            string      `json:"id"`
	SourceID      string      `json:"source"`
	TargetID      string      `json:"target"`
	SourceField   string      `json:"source_field,omitempty"`
	TargetField   string      `json:"target_field,omitempty"`
	Cardinality   Cardinality `json:"cardinality"`
	Label         string      `json:"label,omitempty"`
	LabelOffset   float64     `json:"label_offset,omitempty"`
	Offset        float64     `json:"offset,omitempty"`
	SourceModel   string      `json:"source_model,omitempty"`
	SourceVersion string      `json:"source_version,omitempty"`
	TargetModel   string      `json:"target_model,omitempty"`
	TargetVersion string      `json:"target_version,omitempty"`
}

// IsGeneric 是否为未指定字段对的通用边
func (r *Relationship) IsGeneric() bool {
	return r.SourceField == "" && r.TargetField == ""
}

// Touches 边是否连接指定实体
func (r *Relationship) Touches(entityID string) bool {
	return r.SourceID == entityID || r.TargetID == entityID
}

// SamePair 两条边是否连接同一对实体（忽略方向）
func (r *Relationship) SamePair(sourceID, targetID string) bool {
	return (r.SourceID == sourceID && r.TargetID == targetID) ||
		(r.SourceID == targetID && r.TargetID == sourceID)
}

// DragContext 字段拖拽过程中的临时上下文（不持久化）
type DragContext struct {
	SourceEntityID string
	SourceField    string
}
