package canvas

import (
	"math/rand"
)

// 分层布局的水平/垂直扫描参数
const (
	placementOriginX = 120.0
	placementStepX   = 320.0
	placementStepY   = 200.0
	placementMargin  = 40.0
	placementCols    = 12
	placementRows    = 6

	dimensionBandY    = 80.0
	factBandY         = 480.0
	unclassifiedBandY = 880.0

	freeformOriginX = 200.0
	freeformOriginY = 200.0
	freeformJitter  = 240.0
)

// LayoutMode 画布布局模式
type LayoutMode string

const (
	LayoutDimensional LayoutMode = "dimensional"
	LayoutFreeform    LayoutMode = "freeform"
)

// PlanPosition 按项目布局模式为新建实体规划位置
//
// 维度建模项目使用条带化的智能布局，其余项目退化为自由布局。
func PlanPosition(mode LayoutMode, entityType EntityType, nodes []Entity) Position {
	if mode == LayoutFreeform {
		return CalculateFreeformPosition()
	}
	return CalculateSmartPosition(entityType, nodes)
}

// CalculateSmartPosition 为新建实体计算不与现有节点重叠的目标位置
//
// 维度建模布局：事实表与维度表占据不同的水平条带（维度在上、事实居中、
// 未分类在下），在条带内按行列扫描第一个空闲格位；扫描范围耗尽时
// 退化为带随机抖动的宽松摆放。该函数永不失败。
func CalculateSmartPosition(entityType EntityType, nodes []Entity) Position {
	bandY := unclassifiedBandY
	switch entityType {
	case EntityTypeFact:
		bandY = factBandY
	case EntityTypeDimension:
		bandY = dimensionBandY
	}

	for row := 0; row < placementRows; row++ {
		y := bandY + float64(row)*placementStepY
		for col := 0; col < placementCols; col++ {
			candidate := Position{
				X: placementOriginX + float64(col)*placementStepX,
				Y: y,
			}
			if !overlapsAny(candidate, nodes) {
				return candidate
			}
		}
	}

	// 条带已满，退化为抖动摆放
	return Position{
		X: placementOriginX + rand.Float64()*placementStepX*placementCols,
		Y: bandY + rand.Float64()*placementStepY*placementRows,
	}
}

// CalculateFreeformPosition 非维度建模项目的回退布局：固定区域内的随机抖动
func CalculateFreeformPosition() Position {
	return Position{
		X: freeformOriginX + rand.Float64()*freeformJitter,
		Y: freeformOriginY + rand.Float64()*freeformJitter,
	}
}

// overlapsAny 候选位置是否与任一现有节点的包围盒相交（含间距）
func overlapsAny(p Position, nodes []Entity) bool {
	for i := range nodes {
		n := &nodes[i]
		if p.X < n.Position.X+n.NodeWidth()+placementMargin &&
			p.X+DefaultNodeWidth+placementMargin > n.Position.X &&
			p.Y < n.Position.Y+n.NodeHeight()+placementMargin &&
			p.Y+DefaultNodeHeight+placementMargin > n.Position.Y {
			return true
		}
	}
	return false
}
