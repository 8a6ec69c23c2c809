package store

import (
	"fmt"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// SchemaSet holds compiled JSON Schemas keyed by collection name.
// Collections without a registered schema accept any document.
type SchemaSet struct {
	mu       sync.RWMutex
	compiled map[string]*gojsonschema.Schema
}

// NewSchemaSet creates an empty schema registry.
func NewSchemaSet() *SchemaSet {
	return &SchemaSet{compiled: make(map[string]*gojsonschema.Schema)}
}

// Set compiles and registers a JSON Schema for the collection,
// replacing any previous one.
func (s *SchemaSet) Set(collection, schemaJSON string) error {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaJSON))
	if err != nil {
		return fmt.Errorf("invalid json schema for %q: %w", collection, err)
	}
	s.mu.Lock()
	s.compiled[collection] = schema
	s.mu.Unlock()
	return nil
}

// Validate checks fields against the collection's schema, if one is
// registered.
func (s *SchemaSet) Validate(collection string, fields Fields) error {
	s.mu.RLock()
	schema := s.compiled[collection]
	s.mu.RUnlock()
	if schema == nil {
		return nil
	}

	result, err := schema.Validate(gojsonschema.NewGoLoader(map[string]any(fields)))
	if err != nil {
		return fmt.Errorf("validate document: %w", err)
	}
	if !result.Valid() {
		first := result.Errors()[0]
		return fmt.Errorf("document failed %q schema: %s", collection, first.String())
	}
	return nil
}

// ProjectsCollection is the collection holding project aggregates.
const ProjectsCollection = "projects"

// ProjectsSchema is the document schema enforced on the projects
// collection. It pins field types without requiring the workflow
// fields, so pre-migration documents (legacy "status" only) still
// load and write.
const ProjectsSchema = `{
  "type": "object",
  "required": ["title", "userId"],
  "properties": {
    "title": {"type": "string"},
    "userId": {"type": "string"},
    "shortDescription": {"type": "string"},
    "longDescription": {"type": "string"},
    "role": {"type": "string"},
    "techStack": {"type": "array", "items": {"type": "string"}},
    "skills": {"type": "array", "items": {"type": "string"}},
    "liveUrl": {"type": "string"},
    "repoUrl": {"type": "string"},
    "tags": {"type": "array", "items": {"type": "string"}},
    "status": {"type": "string"},
    "currentStatus": {"type": "string"},
    "customStatuses": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "label", "color", "order"],
        "properties": {
          "id": {"type": "string"},
          "label": {"type": "string"},
          "color": {"type": "string"},
          "description": {"type": "string"},
          "order": {"type": "integer"},
          "isDefault": {"type": "boolean"},
          "createdAt": {"type": "string"}
        }
      }
    },
    "createdAt": {"type": "string"},
    "updatedAt": {"type": "string"}
  }
}`
