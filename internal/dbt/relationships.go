package dbt

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// 字段键语义分类
const (
	ClassPK      = "pk"
	ClassFK      = "fk"
	ClassUnknown = "unknown"
)

var refPattern = regexp.MustCompile(`ref\(\s*['"]([^'"]+)['"]\s*\)`)

// BuildModels 从 manifest 汇总模型视图：模型节点提供列定义，
// 测试节点提供列级的键语义标注（unique/not_null/relationships）
func BuildModels(manifest *Manifest) []Model {
	byID := make(map[string]*Model)

	for id, node := range manifest.Nodes {
		if node.ResourceType != "model" {
			continue
		}
		model := &Model{
			Name:         node.Name,
			Version:      versionString(node.Version),
			UniqueID:     id,
			Schema:       node.Schema,
			Table:        tableName(node),
			Materialized: node.Config.Materialized,
			Description:  node.Description,
			Tags:         node.Tags,
		}
		names := make([]string, 0, len(node.Columns))
		for name := range node.Columns {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			col := node.Columns[name]
			model.Columns = append(model.Columns, Column{
				Name:        col.Name,
				DataType:    col.DataType,
				Description: col.Description,
			})
		}
		byID[id] = model
	}

	// 将测试节点归并到对应模型的列上
	for _, node := range manifest.Nodes {
		if node.ResourceType != "test" || node.TestMetadata == nil {
			continue
		}
		model, ok := byID[node.AttachedNode]
		if !ok {
			continue
		}
		colName := testColumnName(node)
		if colName == "" {
			continue
		}
		col := findColumn(model, colName)
		if col == nil {
			continue
		}
		col.Tests = append(col.Tests, node.TestMetadata.Name)
		if node.TestMetadata.Name == "relationships" {
			col.RelatedModel = refModelName(node.TestMetadata.Kwargs["to"])
			col.RelatedField, _ = node.TestMetadata.Kwargs["field"].(string)
		}
	}

	models := make([]Model, 0, len(byID))
	ids := make([]string, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		models = append(models, *byID[id])
	}
	return models
}

// ClassifyColumn 判定列的键语义
//
// unique + not_null（或 primary_key 标记）⇒ pk；
// relationships 测试指向 otherModel ⇒ fk；其余为 unknown。
func ClassifyColumn(col *Column, otherModel string) string {
	if col == nil {
		return ClassUnknown
	}

	hasUnique := false
	hasNotNull := false
	for _, t := range col.Tests {
		switch t {
		case "unique", "dbt_utils.unique_combination_of_columns":
			hasUnique = true
		case "not_null":
			hasNotNull = true
		case "primary_key", "dbt_constraints.primary_key":
			return ClassPK
		}
	}
	if hasUnique && hasNotNull {
		return ClassPK
	}

	if col.RelatedModel != "" && (otherModel == "" || col.RelatedModel == otherModel) {
		return ClassFK
	}

	return ClassUnknown
}

// ExtractRelationshipTests 从 relationships 测试推断候选关系
//
// 声明测试的模型持有外键（子表），to 引用的模型持有主键（父表）；
// 输出方向已规范化为父表 → 子表。
func ExtractRelationshipTests(manifest *Manifest) []InferredRelationship {
	var results []InferredRelationship

	ids := make([]string, 0, len(manifest.Nodes))
	for id := range manifest.Nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		node := manifest.Nodes[id]
		if node.ResourceType != "test" || node.TestMetadata == nil || node.TestMetadata.Name != "relationships" {
			continue
		}

		child := attachedModelName(manifest, node)
		parent := refModelName(node.TestMetadata.Kwargs["to"])
		field, _ := node.TestMetadata.Kwargs["field"].(string)
		column := testColumnName(node)
		if child == "" || parent == "" || field == "" || column == "" {
			continue
		}

		results = append(results, InferredRelationship{
			SourceModel: parent,
			TargetModel: child,
			SourceField: field,
			TargetField: column,
			Label:       fmt.Sprintf("%s.%s", child, column),
			Cardinality: "one_to_many",
		})
	}

	return results
}

// testColumnName 测试节点作用的列名
func testColumnName(node ManifestNode) string {
	if node.ColumnName != "" {
		return node.ColumnName
	}
	if node.TestMetadata != nil {
		if name, ok := node.TestMetadata.Kwargs["column_name"].(string); ok {
			return name
		}
	}
	return ""
}

// attachedModelName 测试节点所属模型的名称
func attachedModelName(manifest *Manifest, node ManifestNode) string {
	if attached, ok := manifest.Nodes[node.AttachedNode]; ok {
		return attached.Name
	}
	return ""
}

// refModelName 从 kwargs 的 to 值中解析 ref('...') 引用的模型名
func refModelName(to interface{}) string {
	s, ok := to.(string)
	if !ok {
		return ""
	}
	if m := refPattern.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return strings.TrimSpace(s)
}

func findColumn(model *Model, name string) *Column {
	for i := range model.Columns {
		if strings.EqualFold(model.Columns[i].Name, name) {
			return &model.Columns[i]
		}
	}
	return nil
}

func tableName(node ManifestNode) string {
	if node.Alias != "" {
		return node.Alias
	}
	return node.Name
}

func versionString(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		// manifest 中的版本号可能是数字字面量
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", val)
	}
}
