package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/timhiebenthal/trellis-datamodel-sub000/internal/service"
	"github.com/timhiebenthal/trellis-datamodel-sub000/internal/storage"
)

// SchemaHandler schema 编辑处理器
type SchemaHandler struct {
	syncService *service.SchemaSyncService
}

// NewSchemaHandler 创建 schema 编辑处理器
func NewSchemaHandler(syncService *service.SchemaSyncService) *SchemaHandler {
	return &SchemaHandler{
		syncService: syncService,
	}
}

// LoadSchema 加载模型的编辑状态（切换模型时丢弃旧会话）
func (h *SchemaHandler) LoadSchema(c *gin.Context) {
	model := c.Param("model")
	version := c.Query("version")

	state, err := h.syncService.LoadSchema(model, version)
	if err != nil {
		Error(c, http.StatusNotFound, err.Error())
		return
	}
	Success(c, state)
}

// GetState 当前编辑会话状态
func (h *SchemaHandler) GetState(c *gin.Context) {
	state, err := h.syncService.State()
	if err != nil {
		Error(c, http.StatusNotFound, err.Error())
		return
	}
	Success(c, state)
}

// UpdateColumn 修改指定下标的列
func (h *SchemaHandler) UpdateColumn(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		Error(c, http.StatusBadRequest, "invalid column index")
		return
	}

	var column storage.SchemaColumn
	if err := c.ShouldBindJSON(&column); err != nil {
		Error(c, http.StatusBadRequest, "invalid request body")
		return
	}

	state, err := h.syncService.UpdateEditableColumn(index, column)
	if err != nil {
		Error(c, http.StatusBadRequest, err.Error())
		return
	}
	Success(c, state)
}

// AddColumn 追加新列
func (h *SchemaHandler) AddColumn(c *gin.Context) {
	var column storage.SchemaColumn
	if err := c.ShouldBindJSON(&column); err != nil {
		Error(c, http.StatusBadRequest, "invalid request body")
		return
	}

	state, err := h.syncService.AddEditableColumn(column)
	if err != nil {
		Error(c, http.StatusBadRequest, err.Error())
		return
	}
	Success(c, state)
}

// DeleteColumn 删除指定下标的列
func (h *SchemaHandler) DeleteColumn(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		Error(c, http.StatusBadRequest, "invalid column index")
		return
	}

	state, err := h.syncService.DeleteEditableColumn(index)
	if err != nil {
		Error(c, http.StatusBadRequest, err.Error())
		return
	}
	Success(c, state)
}

// UpdateTags 替换用户标签
func (h *SchemaHandler) UpdateTags(c *gin.Context) {
	var req struct {
		Tags []string `json:"tags"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid request body")
		return
	}

	state, err := h.syncService.UpdateSchemaTags(req.Tags)
	if err != nil {
		Error(c, http.StatusBadRequest, err.Error())
		return
	}
	Success(c, state)
}

// ResetSchema 删除模型的覆盖文件，回退到 manifest 基线
func (h *SchemaHandler) ResetSchema(c *gin.Context) {
	model := c.Param("model")
	version := c.Query("version")

	state, err := h.syncService.ResetSchema(model, version)
	if err != nil {
		Error(c, http.StatusNotFound, err.Error())
		return
	}
	Success(c, state)
}

// SaveSchema 持久化当前会话到覆盖文件
func (h *SchemaHandler) SaveSchema(c *gin.Context) {
	var req struct {
		Description string `json:"description,omitempty"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid request body")
		return
	}

	state, err := h.syncService.SaveSchema(req.Description)
	if err != nil {
		// 本地修改保留，允许重试
		c.JSON(http.StatusInternalServerError, Response{
			Code:      http.StatusInternalServerError,
			Message:   err.Error(),
			Data:      state,
			Timestamp: time.Now().Format(time.RFC3339),
		})
		return
	}
	Success(c, state)
}
