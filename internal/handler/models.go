package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/timhiebenthal/trellis-datamodel-sub000/internal/dbt"
)

// ModelHandler manifest 模型查询处理器
type ModelHandler struct {
	loader *dbt.Loader
}

// NewModelHandler 创建模型查询处理器
func NewModelHandler(loader *dbt.Loader) *ModelHandler {
	return &ModelHandler{
		loader: loader,
	}
}

// ListModels 列出 manifest 中的所有模型
func (h *ModelHandler) ListModels(c *gin.Context) {
	Success(c, h.loader.ListModels())
}

// GetModel 获取模型详情
func (h *ModelHandler) GetModel(c *gin.Context) {
	name := c.Param("name")
	version := c.Query("version")

	model, err := h.loader.GetModel(name, version)
	if err != nil {
		Error(c, http.StatusNotFound, err.Error())
		return
	}
	Success(c, model)
}

// ReloadManifest 手动触发 manifest 重载
func (h *ModelHandler) ReloadManifest(c *gin.Context) {
	if err := h.loader.Reload(); err != nil {
		Error(c, http.StatusInternalServerError, err.Error())
		return
	}
	Success(c, map[string]int{"models": len(h.loader.ListModels())})
}
