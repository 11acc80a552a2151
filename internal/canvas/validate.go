package canvas

import (
	"fmt"
	"strings"
)

// MaxNameLength 实体与字段名称的最大长度
const MaxNameLength = 255

// EntityDraft 批量生成实体时的单个条目
type EntityDraft struct {
	Label  string       `json:"label"`
	Type   EntityType   `json:"type"`
	Fields []DraftField `json:"fields,omitempty"`
}

// ValidateEntityDrafts 批量生成前的校验，返回所有问题的可读描述
//
// 重名检查同时覆盖生成批次内部和当前完整快照中的实体
// （不限于当前视图渲染出的节点）；存在任何问题时生成被拒绝，
// 但不阻止用户继续编辑。
func ValidateEntityDrafts(drafts []EntityDraft, current *State) []string {
	var messages []string

	hasFact := false
	hasDimension := false
	seen := make(map[string]bool)

	for i, d := range drafts {
		label := strings.TrimSpace(d.Label)
		if label == "" {
			messages = append(messages, fmt.Sprintf("entry %d: label is required", i+1))
			continue
		}
		if len(label) > MaxNameLength {
			messages = append(messages, fmt.Sprintf("entry %d: label exceeds %d characters", i+1, MaxNameLength))
		}

		switch d.Type {
		case EntityTypeFact:
			hasFact = true
		case EntityTypeDimension:
			hasDimension = true
		}

		slug := NormalizeLabel(label)
		if seen[slug] {
			messages = append(messages, fmt.Sprintf("duplicate entity '%s' in generated batch", label))
		}
		seen[slug] = true

		if current != nil {
			if _, exists := current.FindEntity(slug); exists {
				messages = append(messages, fmt.Sprintf("entity '%s' already exists on the canvas", label))
			}
		}

		for _, f := range d.Fields {
			name := strings.TrimSpace(f.Name)
			if name == "" {
				messages = append(messages, fmt.Sprintf("entity '%s': field name is required", label))
				continue
			}
			if len(name) > MaxNameLength {
				messages = append(messages, fmt.Sprintf("entity '%s': field '%s' exceeds %d characters", label, name, MaxNameLength))
			}
			if f.Datatype != "" && !ValidDatatypes[f.Datatype] {
				messages = append(messages, fmt.Sprintf("entity '%s': field '%s' has invalid datatype '%s'", label, name, f.Datatype))
			}
		}
	}

	if len(drafts) > 0 && !hasFact {
		messages = append(messages, "at least one fact entity is required")
	}
	if len(drafts) > 0 && !hasDimension {
		messages = append(messages, "at least one dimension entity is required")
	}

	return messages
}
