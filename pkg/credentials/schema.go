package credentials

import (
	"fmt"

	"github.com/pilotwire/pilotwire/pkg/models"
	"github.com/xeipuuv/gojsonschema"
)

// storageStateSchema pins down the minimum shape a blob must have before it
// is persisted or injected. The contents stay opaque beyond this.
const storageStateSchema = `{
	"type": "object",
	"properties": {
		"cookies": {
			"type": ["array", "null"],
			"items": {
				"type": "object",
				"properties": {
					"name":   {"type": "string", "minLength": 1},
					"value":  {"type": "string"},
					"domain": {"type": "string", "minLength": 1},
					"path":   {"type": "string"}
				},
				"required": ["name", "domain"]
			}
		},
		"origins": {
			"type": ["array", "null"],
			"items": {
				"type": "object",
				"properties": {
					"origin": {"type": "string", "minLength": 1},
					"localStorage": {
						"type": "array",
						"items": {
							"type": "object",
							"properties": {
								"name":  {"type": "string"},
								"value": {"type": "string"}
							},
							"required": ["name"]
						}
					}
				},
				"required": ["origin"]
			}
		}
	}
}`

// ValidateStorageState checks a blob against the storage-state schema.
func ValidateStorageState(state *models.StorageState) error {
	if state == nil {
		return fmt.Errorf("%w: blob is nil", ErrInvalidStorageState)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(storageStateSchema),
		gojsonschema.NewGoLoader(state),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidStorageState, err)
	}

	if !result.Valid() {
		detail := ""
		for _, desc := range result.Errors() {
			if detail != "" {
				detail += "; "
			}

			detail += desc.String()
		}

		return fmt.Errorf("%w: %s", ErrInvalidStorageState, detail)
	}

	return nil
}
