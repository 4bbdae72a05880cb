package mapping

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

// BuildProfileJSONSchema returns the JSON-Schema for a mapping profile
// document as a generic map. It guards document shape and the closed
// method/postprocess sets; per-rule cross-field requirements (pattern for
// Regex, label otherwise) stay in Normalize, which can report positions.
func BuildProfileJSONSchema() map[string]any {
	ruleProps := map[string]any{
		"field": map[string]any{"type": "string", "minLength": 1},
		"method": map[string]any{
			"type": "string",
			"enum": []string{"Regex", "Next Number", "NextNumber", "Next Date", "NextDate", "Amount After", "AmountAfter"},
		},
		"pattern":     map[string]any{"type": "string"},
		"label":       map[string]any{"type": "string"},
		"group_index": map[string]any{"type": []string{"integer", "string"}},
		"required":    map[string]any{"type": "boolean"},
		"postprocess": map[string]any{
			"type": "string",
			"enum": []string{"", "none", "strip", "date", "amount"},
		},
		"page_scope": map[string]any{"type": "string"},
	}

	return map[string]any{
		"$schema":  "http://json-schema.org/draft-07/schema#",
		"type":     "object",
		"required": []string{"supplier", "rules"},
		"properties": map[string]any{
			"name":     map[string]any{"type": "string"},
			"supplier": map[string]any{"type": "string", "minLength": 1},
			"priority": map[string]any{"type": []string{"integer", "string"}},
			"active":   map[string]any{"type": "boolean"},
			"keywords": map[string]any{
				"type":  []string{"string", "array"},
				"items": map[string]any{"type": "string"},
			},
			"rules": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":                 "object",
					"required":             []string{"field", "method"},
					"properties":           ruleProps,
					"additionalProperties": false,
				},
			},
		},
		"additionalProperties": false,
	}
}

var profileSchema = mustCompileProfileSchema()

func mustCompileProfileSchema() *jsonschema.Schema {
	b, err := json.Marshal(BuildProfileJSONSchema())
	if err != nil {
		panic(fmt.Errorf("marshal profile schema: %w", err))
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("invoice-mapping.schema.json", bytes.NewReader(b)); err != nil {
		panic(fmt.Errorf("add profile schema: %w", err))
	}
	schema, err := compiler.Compile("invoice-mapping.schema.json")
	if err != nil {
		panic(fmt.Errorf("compile profile schema: %w", err))
	}
	return schema
}

// ValidateProfileDocument structurally validates a YAML or JSON profile
// document against the schema before it is decoded. YAML input is
// normalized through a JSON round trip first.
func ValidateProfileDocument(data []byte) error {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("invalid document: %w", err)
	}
	normalized, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("normalizing document: %w", err)
	}
	var v any
	if err := json.Unmarshal(normalized, &v); err != nil {
		return fmt.Errorf("unmarshal document: %w", err)
	}
	if err := profileSchema.Validate(v); err != nil {
		return fmt.Errorf("document does not match schema: %w", err)
	}
	return nil
}
