package canvas

import (
	"github.com/google/uuid"
)

// ParallelOffsetStep 同一对实体间平行边的偏移步长
const ParallelOffsetStep = 40.0

// RelationshipCandidate 待合并的关系候选
type RelationshipCandidate struct {
	SourceID      string
	TargetID      string
	SourceField   string
	TargetField   string
	Cardinality   Cardinality
	Label         string
	SourceModel   string
	SourceVersion string
	TargetModel   string
	TargetVersion string
}

// MergeRelationship 将候选关系归并到现有边集合，返回新的边列表
//
// 归并规则：
//  1. 已存在完全相同的 (source, target, source_field, target_field) 边时原样返回（幂等）
//  2. 同一对实体间存在未指定字段对的通用边时，就地特化该边而不是新增
//  3. 否则追加新边；同一对实体间已有 N 条边时按索引递增、正负交替地分配平行偏移
func MergeRelationship(edges []Relationship, candidate RelationshipCandidate) []Relationship {
	if candidate.Cardinality == "" {
		candidate.Cardinality = CardinalityOneToMany
	}

	for _, e := range edges {
		if e.SourceID == candidate.SourceID && e.TargetID == candidate.TargetID &&
			e.SourceField == candidate.SourceField && e.TargetField == candidate.TargetField {
			return edges
		}
	}

	result := make([]Relationship, len(edges))
	copy(result, edges)

	if candidate.SourceField != "" || candidate.TargetField != "" {
		for i := range result {
			e := &result[i]
			if e.IsGeneric() && e.SamePair(candidate.SourceID, candidate.TargetID) {
				e.SourceID = candidate.SourceID
				e.TargetID = candidate.TargetID
				e.SourceField = candidate.SourceField
				e.TargetField = candidate.TargetField
				e.Cardinality = candidate.Cardinality
				if candidate.Label != "" {
					e.Label = candidate.Label
				}
				applyModelInfo(e, candidate)
				return result
			}
		}
	}

	edge := Relationship{
		ID:          uuid.New().String(),
		SourceID:    candidate.SourceID,
		TargetID:    candidate.TargetID,
		SourceField: candidate.SourceField,
		TargetField: candidate.TargetField,
		Cardinality: candidate.Cardinality,
		Label:       candidate.Label,
		Offset:      parallelOffset(countParallel(edges, candidate)),
	}
	applyModelInfo(&edge, candidate)

	return append(result, edge)
}

// countParallel 统计同一对实体间已有的边数
func countParallel(edges []Relationship, candidate RelationshipCandidate) int {
	n := 0
	for _, e := range edges {
		if e.SamePair(candidate.SourceID, candidate.TargetID) {
			n++
		}
	}
	return n
}

// parallelOffset 第 n+1 条平行边的偏移量：幅度随索引递增，正负交替
func parallelOffset(n int) float64 {
	if n == 0 {
		return 0
	}
	offset := ParallelOffsetStep * float64(n)
	if n%2 == 0 {
		return -offset
	}
	return offset
}

func applyModelInfo(e *Relationship, candidate RelationshipCandidate) {
	if candidate.SourceModel != "" {
		e.SourceModel = candidate.SourceModel
		e.SourceVersion = candidate.SourceVersion
	}
	if candidate.TargetModel != "" {
		e.TargetModel = candidate.TargetModel
		e.TargetVersion = candidate.TargetVersion
	}
}
