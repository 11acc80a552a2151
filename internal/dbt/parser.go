package dbt

import (
	"encoding/json"
	"fmt"
	"os"
)

// Parser manifest 解析器
type Parser struct {
	filePath string
}

// NewParser 创建新的解析器
func NewParser(filePath string) *Parser {
	return &Parser{
		filePath: filePath,
	}
}

// Parse 解析 manifest.json 文件
func (p *Parser) Parse() (*Manifest, error) {
	data, err := os.ReadFile(p.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest file: %w", err)
	}

	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to parse manifest JSON: %w", err)
	}

	if manifest.Nodes == nil {
		manifest.Nodes = map[string]ManifestNode{}
	}

	return &manifest, nil
}
