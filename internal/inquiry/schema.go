package inquiry

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/tomo-edu/inquiry/internal/llm"
)

// LabelsSchema is the structured output schema for image label detection.
var LabelsSchema = &llm.Schema{
	Name:        "image-labels",
	Description: "Short English labels describing the objects in a photo",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"labels": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Up to 10 short lowercase English nouns for the main objects in the image",
			},
		},
		"required": []any{"labels"},
	},
}

// quizSetDefinition is the JSON Schema the bulk quiz payload must
// satisfy. Quizzes arrive over the chat transcript as raw text, so
// validation happens here after JSON salvage rather than through the
// provider's structured output path.
var quizSetDefinition = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"quizzes": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"type":     map[string]any{"type": "string", "enum": []any{"True/False", "Fill-in-the-blank"}},
					"question": map[string]any{"type": "string", "minLength": 1},
					"choices": map[string]any{
						"type":     "array",
						"items":    map[string]any{"type": "string"},
						"minItems": 2,
					},
					"answer": map[string]any{"type": "string", "minLength": 1},
				},
				"required": []any{"type", "question", "choices", "answer"},
			},
		},
	},
	"required": []any{"quizzes"},
}

var (
	quizSchemaOnce sync.Once
	quizSchema     *jsonschema.Schema
	quizSchemaErr  error
)

// compiledQuizSchema compiles the quiz set schema once.
func compiledQuizSchema() (*jsonschema.Schema, error) {
	quizSchemaOnce.Do(func() {
		raw, err := json.Marshal(quizSetDefinition)
		if err != nil {
			quizSchemaErr = fmt.Errorf("marshal quiz schema: %w", err)
			return
		}
		var parsed any
		if err := json.Unmarshal(raw, &parsed); err != nil {
			quizSchemaErr = fmt.Errorf("parse quiz schema: %w", err)
			return
		}

		c := jsonschema.NewCompiler()
		if err := c.AddResource("schema://quiz-set.json", parsed); err != nil {
			quizSchemaErr = fmt.Errorf("add resource: %w", err)
			return
		}
		quizSchema, quizSchemaErr = c.Compile("schema://quiz-set.json")
	})
	return quizSchema, quizSchemaErr
}

// salvageJSON extracts the outermost JSON object from raw model output.
// Models sometimes wrap the payload in prose or code fences; slicing
// from the first "{" to the last "}" recovers it.
func salvageJSON(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if json.Valid([]byte(raw)) {
		return raw, true
	}
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || end <= start {
		return "", false
	}
	sliced := raw[start : end+1]
	if !json.Valid([]byte(sliced)) {
		return "", false
	}
	return sliced, true
}

// validateQuizPayload checks salvaged quiz JSON against the schema.
func validateQuizPayload(raw string) error {
	schema, err := compiledQuizSchema()
	if err != nil {
		return err
	}
	var parsed any
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return fmt.Errorf("invalid quiz JSON: %w", err)
	}
	if err := schema.Validate(parsed); err != nil {
		return fmt.Errorf("quiz payload validation: %w", err)
	}
	return nil
}
