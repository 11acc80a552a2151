package dbt

// Manifest 表示 dbt 构建产物 manifest.json 的相关子集
type Manifest struct {
	Metadata ManifestMetadata        `json:"metadata"`
	Nodes    map[string]ManifestNode `json:"nodes"`
}

// ManifestMetadata manifest 元信息
type ManifestMetadata struct {
	ProjectName string `json:"project_name"`
	AdapterType string `json:"adapter_type"`
}

// ManifestNode manifest 中的节点（模型或测试）
type ManifestNode struct {
	Name         string                    `json:"name"`
	ResourceType string                    `json:"resource_type"`
	Schema       string                    `json:"schema"`
	Database     string                    `json:"database"`
	Alias        string                    `json:"alias"`
	Version      interface{}               `json:"version"`
	Tags         []string                  `json:"tags"`
	Description  string                    `json:"description"`
	Columns      map[string]ManifestColumn `json:"columns"`
	Config       NodeConfig                `json:"config"`
	TestMetadata *TestMetadata             `json:"test_metadata,omitempty"`
	AttachedNode string                    `json:"attached_node,omitempty"`
	ColumnName   string                    `json:"column_name,omitempty"`
}

// NodeConfig 节点配置
type NodeConfig struct {
	Materialized string                 `json:"materialized"`
	Meta         map[string]interface{} `json:"meta,omitempty"`
}

// ManifestColumn 模型列定义
type ManifestColumn struct {
	Name        string                 `json:"name"`
	DataType    string                 `json:"data_type"`
	Description string                 `json:"description"`
	Meta        map[string]interface{} `json:"meta,omitempty"`
}

// TestMetadata 测试节点的元信息
type TestMetadata struct {
	Name   string                 `json:"name"`
	Kwargs map[string]interface{} `json:"kwargs"`
}

// Model 对画布暴露的模型视图（由 manifest 节点和测试节点汇总而来）
type Model struct {
	Name         string   `json:"name"`
	Version      string   `json:"version,omitempty"`
	UniqueID     string   `json:"unique_id"`
	Schema       string   `json:"schema"`
	Table        string   `json:"table"`
	Materialized string   `json:"materialized"`
	Description  string   `json:"description,omitempty"`
	Tags         []string `json:"tags"`
	Columns      []Column `json:"columns"`
}

// Column 模型列及其键语义标注
type Column struct {
	Name         string   `json:"name"`
	DataType     string   `json:"data_type"`
	Description  string   `json:"description,omitempty"`
	Tests        []string `json:"tests,omitempty"`
	RelatedModel string   `json:"related_model,omitempty"`
	RelatedField string   `json:"related_field,omitempty"`
}

// InferredRelationship 从 relationships 测试推断出的候选关系
// 方向已规范化为父表 → 子表（1 → *）
type InferredRelationship struct {
	SourceModel string `json:"source"`
	TargetModel string `json:"target"`
	SourceField string `json:"source_field"`
	TargetField string `json:"target_field"`
	Label       string `json:"label"`
	Cardinality string `json:"cardinality"`
}
