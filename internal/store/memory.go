package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/albertomtferreira/devflow/internal/apperrors"
)

// Memory is an in-memory Store. It backs tests and single-process dev
// runs; production deployments use pgstore. Documents are deep-copied
// on the way in and out, so callers can never alias store state.
type Memory struct {
	mu      sync.RWMutex
	schemas *SchemaSet
	// collection -> id -> fields, plus per-collection insertion order
	// so List/QueryByField have a stable natural order.
	docs  map[string]map[string]Fields
	order map[string][]string
}

var _ Store = (*Memory)(nil)

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		schemas: NewSchemaSet(),
		docs:    make(map[string]map[string]Fields),
		order:   make(map[string][]string),
	}
}

// SetSchema registers a JSON Schema enforced on every write to the
// collection.
func (m *Memory) SetSchema(collection, schemaJSON string) error {
	return m.schemas.Set(collection, schemaJSON)
}

// Get returns the document's fields, or apperrors.ErrNotFound.
func (m *Memory) Get(_ context.Context, collection, id string) (Fields, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	fields, ok := m.docs[collection][id]
	if !ok {
		return nil, fmt.Errorf("document %s/%s: %w", collection, id, apperrors.ErrNotFound)
	}
	return clone(fields), nil
}

// Add persists a new document and returns its generated id.
func (m *Memory) Add(_ context.Context, collection string, fields Fields) (string, error) {
	doc, err := Prepare(fields)
	if err != nil {
		return "", err
	}
	if _, ok := doc["createdAt"]; !ok {
		doc["createdAt"] = Now()
	}
	if err := m.schemas.Validate(collection, doc); err != nil {
		return "", err
	}

	id := uuid.NewString()

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.docs[collection] == nil {
		m.docs[collection] = make(map[string]Fields)
	}
	m.docs[collection][id] = doc
	m.order[collection] = append(m.order[collection], id)
	return id, nil
}

// Update merges the supplied fields into the document as one atomic
// write.
func (m *Memory) Update(_ context.Context, collection, id string, fields Fields) error {
	patch, err := Prepare(fields)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.docs[collection][id]
	if !ok {
		return fmt.Errorf("document %s/%s: %w", collection, id, apperrors.ErrNotFound)
	}

	merged := clone(current)
	for k, v := range patch {
		merged[k] = v
	}
	if err := m.schemas.Validate(collection, merged); err != nil {
		return err
	}
	m.docs[collection][id] = merged
	return nil
}

// Delete removes the document; deleting a missing document is a no-op.
func (m *Memory) Delete(_ context.Context, collection, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.docs[collection][id]; !ok {
		return nil
	}
	delete(m.docs[collection], id)
	ids := m.order[collection]
	for i, existing := range ids {
		if existing == id {
			m.order[collection] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	return nil
}

// QueryByField returns documents whose field equals value, in insertion
// order.
func (m *Memory) QueryByField(_ context.Context, collection, field string, value any) ([]Document, error) {
	want, err := normalize(Fields{"v": value})
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Document
	for _, id := range m.order[collection] {
		fields := m.docs[collection][id]
		if equalJSONValue(fields[field], want["v"]) {
			out = append(out, Document{ID: id, Fields: clone(fields)})
		}
	}
	return out, nil
}

// List returns every document in the collection in insertion order.
func (m *Memory) List(_ context.Context, collection string) ([]Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Document, 0, len(m.order[collection]))
	for _, id := range m.order[collection] {
		out = append(out, Document{ID: id, Fields: clone(m.docs[collection][id])})
	}
	return out, nil
}

// equalJSONValue compares two JSON-shaped scalar values.
func equalJSONValue(a, b any) bool {
	return a == b
}
