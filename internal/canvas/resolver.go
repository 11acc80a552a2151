package canvas

// FieldClass 字段在键语义上的分类
type FieldClass string

const (
	FieldClassPK      FieldClass = "pk"
	FieldClassFK      FieldClass = "fk"
	FieldClassUnknown FieldClass = "unknown"
)

// ResolvedDirection 方向判定结果
type ResolvedDirection struct {
	SourceID    string
	TargetID    string
	SourceField string
	TargetField string
	Cardinality Cardinality
	Flipped     bool
}

// ResolveDirection 根据字段的主外键分类确定关系的规范方向
//
// 不变式：关系始终从父表指向子表（1 → *）。用户拖拽的起点可能在任一侧，
// 因此 (fk, pk) 时交换方向，使持有主键的一方成为 source；
// (pk, fk) 保持拖拽方向；其余组合（双 pk、双 fk、未知）回退为拖拽方向。
// 基数固定为 one_to_many。
func ResolveDirection(sourceID, sourceField, targetID, targetField string, sourceClass, targetClass FieldClass) ResolvedDirection {
	if sourceClass == FieldClassFK && targetClass == FieldClassPK {
		return ResolvedDirection{
			SourceID:    targetID,
			TargetID:    sourceID,
			SourceField: targetField,
			TargetField: sourceField,
			Cardinality: CardinalityOneToMany,
			Flipped:     true,
		}
	}

	return ResolvedDirection{
		SourceID:    sourceID,
		TargetID:    targetID,
		SourceField: sourceField,
		TargetField: targetField,
		Cardinality: CardinalityOneToMany,
	}
}
