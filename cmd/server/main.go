package main

import (
	"context"
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/timhiebenthal/trellis-datamodel-sub000/internal/canvas"
	"github.com/timhiebenthal/trellis-datamodel-sub000/internal/config"
	"github.com/timhiebenthal/trellis-datamodel-sub000/internal/dbt"
	"github.com/timhiebenthal/trellis-datamodel-sub000/internal/handler"
	"github.com/timhiebenthal/trellis-datamodel-sub000/internal/middleware"
	"github.com/timhiebenthal/trellis-datamodel-sub000/internal/service"
	"github.com/timhiebenthal/trellis-datamodel-sub000/internal/storage"
)

func main() {
	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 初始化日志
	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	// 设置 Gin 模式
	gin.SetMode(cfg.Server.Mode)

	// 加载 dbt manifest
	loader := dbt.NewLoader(cfg.Dbt.ManifestPath)
	if err := loader.Load(); err != nil {
		// manifest 缺失时仍可使用草稿实体，只是无法绑定模型
		zap.S().Warnw("manifest not loaded, model binding disabled",
			"path", cfg.Dbt.ManifestPath, "error", err)
	} else {
		zap.S().Infow("manifest loaded",
			"path", cfg.Dbt.ManifestPath, "models", len(loader.ListModels()))
	}

	if cfg.Dbt.WatchEnabled {
		if err := loader.Watch(context.Background()); err != nil {
			zap.S().Warnw("manifest watcher unavailable", "error", err)
		}
	}

	// 初始化存储
	pathManager := storage.NewPathManager(cfg.Data.RootPath, cfg.Data.Namespace)
	dataModelStorage := storage.NewDataModelStorage(pathManager)
	schemaStorage := storage.NewSchemaStorage(pathManager)

	// 初始化服务
	canvasService, err := service.NewCanvasService(loader, dataModelStorage, canvas.LayoutMode(cfg.Canvas.LayoutMode))
	if err != nil {
		log.Fatalf("Failed to initialize canvas service: %v", err)
	}
	syncService := service.NewSchemaSyncService(loader, schemaStorage)
	inferenceService := service.NewInferenceService(loader, canvasService)

	// 初始化处理器
	canvasHandler := handler.NewCanvasHandler(canvasService, inferenceService)
	schemaHandler := handler.NewSchemaHandler(syncService)
	modelHandler := handler.NewModelHandler(loader)

	// 创建路由
	router := gin.New()
	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())
	router.Use(middleware.CORS())

	// API 路由
	api := router.Group("/api/v1")
	{
		// 画布 API
		canvasAPI := api.Group("/canvas")
		{
			canvasAPI.GET("/data-model", canvasHandler.GetDataModel)
			canvasAPI.POST("/entities", canvasHandler.CreateEntity)
			canvasAPI.PUT("/entities/:id/label", canvasHandler.RenameEntity)
			canvasAPI.DELETE("/entities/:id", canvasHandler.DeleteEntity)
			canvasAPI.PUT("/entities/:id/model", canvasHandler.BindModel)
			canvasAPI.DELETE("/entities/:id/model", canvasHandler.UnbindModel)
			canvasAPI.PUT("/entities/:id/fields", canvasHandler.SetFields)
			canvasAPI.DELETE("/entities/:id/fields/:field", canvasHandler.DeleteField)
			canvasAPI.POST("/relationships", canvasHandler.CreateRelationship)
			canvasAPI.POST("/relationships/connect", canvasHandler.ConnectFields)
			canvasAPI.POST("/drag", canvasHandler.BeginFieldDrag)
			canvasAPI.POST("/drag/drop", canvasHandler.DropField)
			canvasAPI.DELETE("/drag", canvasHandler.CancelFieldDrag)
			canvasAPI.POST("/entities/generate", canvasHandler.GenerateEntities)
			canvasAPI.GET("/relationships/inferred", canvasHandler.ListInferred)
			canvasAPI.POST("/relationships/inferred/apply", canvasHandler.ApplyInferred)
		}

		// schema 编辑 API
		schemaAPI := api.Group("/schema")
		{
			schemaAPI.GET("/state", schemaHandler.GetState)
			schemaAPI.POST("/load/:model", schemaHandler.LoadSchema)
			schemaAPI.PUT("/columns/:index", schemaHandler.UpdateColumn)
			schemaAPI.POST("/columns", schemaHandler.AddColumn)
			schemaAPI.DELETE("/columns/:index", schemaHandler.DeleteColumn)
			schemaAPI.PUT("/tags", schemaHandler.UpdateTags)
			schemaAPI.POST("/save", schemaHandler.SaveSchema)
			schemaAPI.DELETE("/override/:model", schemaHandler.ResetSchema)
		}

		// manifest 模型查询 API
		modelsAPI := api.Group("/models")
		{
			modelsAPI.GET("", modelHandler.ListModels)
			modelsAPI.GET("/:name", modelHandler.GetModel)
			modelsAPI.POST("/reload", modelHandler.ReloadManifest)
		}
	}

	// 健康检查
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	})

	// 启动服务器
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	zap.S().Infow("server starting", "addr", addr)
	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// newLogger 按运行模式创建 zap 日志器
func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.Server.Mode == "release" {
		return zap.NewProduction()
	}
	z := zap.NewDevelopmentConfig()
	if cfg.Log.Level == "debug" {
		z.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return z.Build()
}
