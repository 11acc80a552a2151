package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/timhiebenthal/trellis-datamodel-sub000/internal/canvas"
	"github.com/timhiebenthal/trellis-datamodel-sub000/internal/service"
)

// CanvasHandler 画布处理器
type CanvasHandler struct {
	canvasService    *service.CanvasService
	inferenceService *service.InferenceService
}

// NewCanvasHandler 创建画布处理器
func NewCanvasHandler(canvasService *service.CanvasService, inferenceService *service.InferenceService) *CanvasHandler {
	return &CanvasHandler{
		canvasService:    canvasService,
		inferenceService: inferenceService,
	}
}

// GetDataModel 获取当前画布快照
func (h *CanvasHandler) GetDataModel(c *gin.Context) {
	Success(c, h.canvasService.Snapshot())
}

// CreateEntity 新建实体
func (h *CanvasHandler) CreateEntity(c *gin.Context) {
	var req struct {
		Label string            `json:"label" binding:"required"`
		Type  canvas.EntityType `json:"type,omitempty"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid request body")
		return
	}

	entity, err := h.canvasService.CreateEntity(req.Label, req.Type)
	if err != nil {
		Error(c, http.StatusInternalServerError, err.Error())
		return
	}
	Success(c, entity)
}

// RenameEntity 修改实体标签
func (h *CanvasHandler) RenameEntity(c *gin.Context) {
	id := c.Param("id")

	var req struct {
		Label string `json:"label" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid request body")
		return
	}

	newID, err := h.canvasService.RenameEntity(id, req.Label)
	if err != nil {
		Error(c, http.StatusBadRequest, err.Error())
		return
	}
	Success(c, map[string]string{"id": newID})
}

// DeleteEntity 删除实体
func (h *CanvasHandler) DeleteEntity(c *gin.Context) {
	id := c.Param("id")

	if err := h.canvasService.DeleteEntity(id); err != nil {
		Error(c, http.StatusNotFound, err.Error())
		return
	}
	Success(c, nil)
}

// BindModel 绑定物理模型
func (h *CanvasHandler) BindModel(c *gin.Context) {
	id := c.Param("id")

	var req struct {
		Model   string `json:"model" binding:"required"`
		Version string `json:"version,omitempty"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.canvasService.BindModel(id, req.Model, req.Version); err != nil {
		Error(c, http.StatusBadRequest, err.Error())
		return
	}
	Success(c, nil)
}

// UnbindModel 解除模型绑定
func (h *CanvasHandler) UnbindModel(c *gin.Context) {
	id := c.Param("id")

	if err := h.canvasService.UnbindModel(id); err != nil {
		Error(c, http.StatusBadRequest, err.Error())
		return
	}
	Success(c, nil)
}

// SetFields 替换实体的草稿字段
func (h *CanvasHandler) SetFields(c *gin.Context) {
	id := c.Param("id")

	var req struct {
		Fields []canvas.DraftField `json:"fields"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.canvasService.SetFields(id, req.Fields); err != nil {
		Error(c, http.StatusBadRequest, err.Error())
		return
	}
	Success(c, nil)
}

// DeleteField 删除草稿字段
func (h *CanvasHandler) DeleteField(c *gin.Context) {
	id := c.Param("id")
	field := c.Param("field")

	if err := h.canvasService.DeleteField(id, field); err != nil {
		Error(c, http.StatusBadRequest, err.Error())
		return
	}
	Success(c, nil)
}

// CreateRelationship 显式建边
func (h *CanvasHandler) CreateRelationship(c *gin.Context) {
	var req struct {
		Source      string `json:"source" binding:"required"`
		Target      string `json:"target" binding:"required"`
		SourceField string `json:"source_field,omitempty"`
		TargetField string `json:"target_field,omitempty"`
		Cardinality string `json:"cardinality,omitempty"`
		Label       string `json:"label,omitempty"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid request body")
		return
	}

	err := h.canvasService.CreateRelationship(canvas.RelationshipCandidate{
		SourceID:    req.Source,
		TargetID:    req.Target,
		SourceField: req.SourceField,
		TargetField: req.TargetField,
		Cardinality: canvas.Cardinality(req.Cardinality),
		Label:       req.Label,
	})
	if err != nil {
		Error(c, http.StatusBadRequest, err.Error())
		return
	}
	Success(c, h.canvasService.Snapshot())
}

// ConnectFields 字段到字段拖拽建边
func (h *CanvasHandler) ConnectFields(c *gin.Context) {
	var req struct {
		SourceEntity string `json:"source_entity" binding:"required"`
		SourceField  string `json:"source_field" binding:"required"`
		TargetEntity string `json:"target_entity" binding:"required"`
		TargetField  string `json:"target_field" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid request body")
		return
	}

	err := h.canvasService.ConnectFields(req.SourceEntity, req.SourceField, req.TargetEntity, req.TargetField)
	if err != nil {
		Error(c, http.StatusBadRequest, err.Error())
		return
	}
	Success(c, h.canvasService.Snapshot())
}

// BeginFieldDrag 记录字段拖拽起点
func (h *CanvasHandler) BeginFieldDrag(c *gin.Context) {
	var req struct {
		Entity string `json:"entity" binding:"required"`
		Field  string `json:"field" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.canvasService.BeginFieldDrag(req.Entity, req.Field); err != nil {
		Error(c, http.StatusNotFound, err.Error())
		return
	}
	Success(c, nil)
}

// CancelFieldDrag 清除拖拽上下文
func (h *CanvasHandler) CancelFieldDrag(c *gin.Context) {
	h.canvasService.CancelFieldDrag()
	Success(c, nil)
}

// DropField 在目标字段上落点建边
func (h *CanvasHandler) DropField(c *gin.Context) {
	var req struct {
		Entity string `json:"entity" binding:"required"`
		Field  string `json:"field" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.canvasService.DropField(req.Entity, req.Field); err != nil {
		Error(c, http.StatusBadRequest, err.Error())
		return
	}
	Success(c, h.canvasService.Snapshot())
}

// GenerateEntities 批量生成实体
func (h *CanvasHandler) GenerateEntities(c *gin.Context) {
	var req struct {
		Entities []canvas.EntityDraft `json:"entities" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid request body")
		return
	}

	created, messages, err := h.canvasService.GenerateEntities(req.Entities)
	if err != nil {
		Error(c, http.StatusInternalServerError, err.Error())
		return
	}
	if len(messages) > 0 {
		ValidationError(c, messages)
		return
	}
	Success(c, created)
}

// ListInferred 列出 manifest 声明的候选关系
func (h *CanvasHandler) ListInferred(c *gin.Context) {
	Success(c, h.inferenceService.InferredRelationships())
}

// ApplyInferred 将候选关系归并到画布
func (h *CanvasHandler) ApplyInferred(c *gin.Context) {
	applied, err := h.inferenceService.ApplyInferred()
	if err != nil {
		Error(c, http.StatusInternalServerError, err.Error())
		return
	}
	Success(c, map[string]interface{}{
		"applied":    applied,
		"data_model": h.canvasService.Snapshot(),
	})
}
