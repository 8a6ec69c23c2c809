// Package store defines the document store port the repositories are
// built against: flat collections of schemaless JSON documents with
// single-document atomic writes and server-assigned timestamps.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Fields is the decoded body of a document. Values are what
// encoding/json produces for an untyped destination (string, float64,
// bool, []any, map[string]any).
type Fields map[string]any

// Document pairs a store-assigned id with the document body.
type Document struct {
	ID     string
	Fields Fields
}

// serverTimestamp is the sentinel type behind ServerTimestamp.
type serverTimestamp struct{}

// ServerTimestamp is a sentinel field value the store replaces with its
// own clock at write time, so all timestamps in a document come from
// one authority.
var ServerTimestamp any = serverTimestamp{}

// Store is the document store client. Implementations guarantee
// single-document atomicity per call; there are no multi-document
// transactions and no compare-and-swap.
type Store interface {
	// Get returns the document's fields, or apperrors.ErrNotFound.
	Get(ctx context.Context, collection, id string) (Fields, error)

	// Add persists a new document, assigns it an id and stamps
	// "createdAt" with the server clock. Returns the new id.
	Add(ctx context.Context, collection string, fields Fields) (string, error)

	// Update merges only the supplied fields into the document as one
	// atomic write; absent fields are left untouched. Returns
	// apperrors.ErrNotFound for a missing document.
	Update(ctx context.Context, collection, id string, fields Fields) error

	// Delete removes the document. Deleting a missing document is not
	// an error.
	Delete(ctx context.Context, collection, id string) error

	// QueryByField returns all documents whose field equals value, in
	// the store's natural order.
	QueryByField(ctx context.Context, collection, field string, value any) ([]Document, error)

	// List returns every document in the collection. Used by admin
	// tooling; application reads go through Get and QueryByField.
	List(ctx context.Context, collection string) ([]Document, error)
}

// Now returns the store clock value used for ServerTimestamp
// resolution, formatted the way documents persist timestamps.
func Now() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

// resolveTimestamps replaces ServerTimestamp sentinels in-place with
// the current store clock.
func resolveTimestamps(fields Fields) {
	now := Now()
	for k, v := range fields {
		if _, ok := v.(serverTimestamp); ok {
			fields[k] = now
		}
	}
}

// Prepare copies the caller's fields, resolves ServerTimestamp
// sentinels and normalizes the result to JSON value shapes. The
// caller's map is never mutated.
func Prepare(fields Fields) (Fields, error) {
	cp := make(Fields, len(fields))
	for k, v := range fields {
		cp[k] = v
	}
	resolveTimestamps(cp)
	return normalize(cp)
}

// normalize round-trips fields through JSON so every backend stores the
// same value shapes regardless of what the caller passed in (structs,
// time.Time, typed slices).
func normalize(fields Fields) (Fields, error) {
	raw, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	var out Fields
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return out, nil
}

// clone deep-copies fields via a JSON round-trip.
func clone(fields Fields) Fields {
	out, err := normalize(fields)
	if err != nil {
		// Fields held by a store are already JSON-shaped; a failed
		// round-trip means the store state is corrupt.
		panic(fmt.Sprintf("store: clone: %v", err))
	}
	return out
}
