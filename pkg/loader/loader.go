package loader

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Format is the serialization a table definition was read from.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// DetectFormat guesses the serialization of input.
// TOML is checked before JSON because TOML [section] headers look like JSON
// arrays; anything that is neither is treated as YAML.
func DetectFormat(input string) Format {
	input = strings.TrimSpace(input)
	if isLikelyTOML(input) {
		return FormatTOML
	}
	if strings.HasPrefix(input, "{") || strings.HasPrefix(input, "[") {
		if json.Valid([]byte(input)) {
			return FormatJSON
		}
	}
	return FormatYAML
}

// LoadFile reads a table definition from path.
func LoadFile(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	def, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return def, nil
}

// Parse decodes a table definition. The input is either a mapping with
// columns/rows/sort keys, or a bare list of row objects whose columns are
// inferred from the keys in the order they first appear.
func Parse(data []byte) (*Definition, error) {
	input := strings.TrimSpace(string(data))
	if input == "" {
		return nil, fmt.Errorf("empty input")
	}

	format := DetectFormat(input)
	root, err := decode(input, format)
	if err != nil {
		return nil, err
	}

	var def *Definition
	switch v := root.(type) {
	case []interface{}:
		rows, err := toRecords(v)
		if err != nil {
			return nil, err
		}
		def = &Definition{Rows: rows, Columns: inferColumns(input, format, rows)}
	case map[string]interface{}:
		def, err = fromMap(v)
		if err != nil {
			return nil, err
		}
		if len(def.Columns) == 0 {
			def.Columns = inferColumns(input, format, def.Rows)
		}
	default:
		return nil, fmt.Errorf("table definition must be a mapping or a list of rows, got %T", root)
	}
	def.Format = format
	return def, nil
}

func decode(input string, format Format) (interface{}, error) {
	var data interface{}
	switch format {
	case FormatTOML:
		if err := toml.Unmarshal([]byte(input), &data); err != nil {
			return nil, fmt.Errorf("invalid TOML: %w", err)
		}
	case FormatJSON:
		if err := json.Unmarshal([]byte(input), &data); err != nil {
			return nil, fmt.Errorf("invalid JSON: %w", err)
		}
	default:
		if err := yaml.Unmarshal([]byte(input), &data); err != nil {
			return nil, fmt.Errorf("invalid YAML: %w", err)
		}
	}
	return data, nil
}

// isLikelyTOML heuristic: returns true if the input looks like TOML.
// Detects TOML by looking for section headers [name] or key = value patterns
// that are distinct from YAML syntax.
func isLikelyTOML(input string) bool {
	lines := strings.Split(input, "\n")

	// Pattern for TOML section headers: [section] or [[array]]
	// Excludes JSON arrays like [1, 2, 3] which have spaces/commas without quotes
	sectionPattern := regexp.MustCompile(`^\s*\[{1,2}(?:[a-zA-Z_][a-zA-Z0-9_-]*|"[^"]+"|'[^']+')+(?:\.(?:[a-zA-Z_][a-zA-Z0-9_-]*|"[^"]+"|'[^']+'))*\]{1,2}\s*$`)

	// Pattern for TOML key = value (not key: value which is YAML)
	keyValuePattern := regexp.MustCompile(`^\s*(?:[a-zA-Z_][a-zA-Z0-9_-]*|"[^"]+"|'[^']+')+(?:\.(?:[a-zA-Z_][a-zA-Z0-9_-]*|"[^"]+"|'[^']+'))*\s*=\s*.+$`)

	sectionCount := 0
	keyValueCount := 0
	nonEmptyCount := 0

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		nonEmptyCount++

		if sectionPattern.MatchString(line) {
			sectionCount++
		}
		if keyValuePattern.MatchString(line) {
			keyValueCount++
		}
	}

	if sectionCount > 0 {
		return true
	}
	return nonEmptyCount > 0 && keyValueCount > nonEmptyCount/2
}

// orderedRowKeys returns row keys in document order for YAML and JSON input.
// TOML tables carry no order, so nil is returned and callers sort instead.
func orderedRowKeys(input string, format Format) []string {
	if format == FormatTOML {
		return nil
	}
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(input), &doc); err != nil || len(doc.Content) == 0 {
		return nil
	}
	node := doc.Content[0]
	if node.Kind == yaml.MappingNode {
		node = nil
		for i := 0; i+1 < len(doc.Content[0].Content); i += 2 {
			if doc.Content[0].Content[i].Value == "rows" {
				node = doc.Content[0].Content[i+1]
				break
			}
		}
	}
	if node == nil || node.Kind != yaml.SequenceNode {
		return nil
	}

	seen := map[string]bool{}
	var keys []string
	for _, row := range node.Content {
		if row.Kind != yaml.MappingNode {
			continue
		}
		for i := 0; i+1 < len(row.Content); i += 2 {
			k := row.Content[i].Value
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	return keys
}
