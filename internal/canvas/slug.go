package canvas

import (
	"fmt"
	"regexp"
	"strings"
)

// DefaultSlug 标签归一化结果为空时的回退标识符
const DefaultSlug = "entity"

var nonAlnumRuns = regexp.MustCompile(`[^a-z0-9]+`)

// NormalizeLabel 将显示标签归一化为标识符形式
// 小写、连续的非字母数字字符折叠为单个下划线、去除首尾下划线
func NormalizeLabel(label string) string {
	slug := nonAlnumRuns.ReplaceAllString(strings.ToLower(label), "_")
	slug = strings.Trim(slug, "_")
	if slug == "" {
		return DefaultSlug
	}
	return slug
}

// GenerateSlug 根据标签生成不与现有标识符冲突的稳定标识符
// existing 为当前占用的标识符集合（改名时应排除实体自身）；
// 冲突时依次追加 _1、_2 … 直到唯一，永不失败
func GenerateSlug(label string, existing map[string]bool) string {
	base := NormalizeLabel(label)
	if !existing[base] {
		return base
	}
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s_%d", base, i)
		if !existing[candidate] {
			return candidate
		}
	}
}
