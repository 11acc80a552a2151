package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

// Config 应用配置
type Config struct {
	Server ServerConfig
	Dbt    DbtConfig
	Data   DataConfig
	Canvas CanvasConfig
	Log    LogConfig
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port string
	Mode string
}

// DbtConfig dbt 项目配置
type DbtConfig struct {
	ManifestPath string
	WatchEnabled bool
}

// DataConfig 数据存储配置
type DataConfig struct {
	RootPath  string
	Namespace string
}

// CanvasConfig 画布配置
type CanvasConfig struct {
	LayoutMode string
}

// LogConfig 日志配置
type LogConfig struct {
	Level string
}

var globalConfig *Config

// Load 加载配置
func Load() (*Config, error) {
	// 尝试加载 .env 文件，如果不存在也不报错
	_ = godotenv.Load()

	config := &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
			Mode: getEnv("SERVER_MODE", "debug"),
		},
		Dbt: DbtConfig{
			ManifestPath: getEnv("DBT_MANIFEST_PATH", "./target/manifest.json"),
			WatchEnabled: getEnv("DBT_MANIFEST_WATCH", "true") == "true",
		},
		Data: DataConfig{
			RootPath:  getEnv("DATA_ROOT_PATH", "./data"),
			Namespace: getEnv("PROJECT_NAMESPACE", ""),
		},
		Canvas: CanvasConfig{
			LayoutMode: getEnv("CANVAS_LAYOUT_MODE", "dimensional"),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	globalConfig = config
	return config, nil
}

// Get 获取全局配置
func Get() *Config {
	if globalConfig == nil {
		log.Fatal("Config not loaded. Call config.Load() first.")
	}
	return globalConfig
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
