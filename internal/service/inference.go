package service

import (
	"go.uber.org/zap"

	"github.com/timhiebenthal/trellis-datamodel-sub000/internal/canvas"
	"github.com/timhiebenthal/trellis-datamodel-sub000/internal/dbt"
)

// InferenceService 关系推断服务
//
// 从 manifest 中声明的 relationships 测试读取候选关系，
// 再逐条归并到画布。尽力而为：任何一步失败都只记录警告，不影响画布。
type InferenceService struct {
	loader *dbt.Loader
	canvas *CanvasService
}

// NewInferenceService 创建关系推断服务
func NewInferenceService(loader *dbt.Loader, canvasService *CanvasService) *InferenceService {
	return &InferenceService{
		loader: loader,
		canvas: canvasService,
	}
}

// InferredRelationships 当前 manifest 声明的候选关系
func (s *InferenceService) InferredRelationships() []dbt.InferredRelationship {
	return s.loader.InferredRelationships()
}

// ApplyInferred 将推断出的关系归并到画布，返回实际归并的条数
//
// 候选按模型名映射到已绑定的实体；未绑定对应模型的候选被跳过。
// 归并前重新读取最新快照，推断期间的并发编辑不会被覆盖。
func (s *InferenceService) ApplyInferred() (int, error) {
	candidates := s.loader.InferredRelationships()
	if len(candidates) == 0 {
		return 0, nil
	}

	applied := 0
	for _, c := range candidates {
		snapshot := s.canvas.Snapshot()

		source := findEntityByModel(snapshot, c.SourceModel)
		target := findEntityByModel(snapshot, c.TargetModel)
		if source == nil || target == nil {
			continue
		}

		err := s.canvas.CreateRelationship(canvas.RelationshipCandidate{
			SourceID:    source.ID,
			TargetID:    target.ID,
			SourceField: c.SourceField,
			TargetField: c.TargetField,
			Cardinality: canvas.Cardinality(c.Cardinality),
			Label:       c.Label,
			SourceModel: source.DbtModel,
			TargetModel: target.DbtModel,
		})
		if err != nil {
			zap.S().Warnw("failed to merge inferred relationship",
				"source", c.SourceModel, "target", c.TargetModel, "error", err)
			continue
		}
		applied++
	}

	return applied, nil
}

// findEntityByModel 查找绑定到指定模型的实体（主绑定或附加绑定）
func findEntityByModel(state *canvas.State, modelName string) *canvas.Entity {
	for i := range state.Entities {
		e := &state.Entities[i]
		if e.DbtModel == modelName {
			return e
		}
		for _, m := range e.AdditionalModels {
			if m == modelName {
				return e
			}
		}
	}
	return nil
}
