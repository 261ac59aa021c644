/*
Package store is the persistence layer: a schemaless document store with
named collections, plus a read-through cache facade that hands the rest
of the application typed, decoded snapshots.

PURPOSE:
  The portal's data model is document-shaped. Employee records arrive
  from spreadsheet imports with unpredictable extra columns, and every
  collection is small enough to read whole. The store therefore exposes
  whole-collection reads and batch upserts over JSON bodies instead of
  per-field SQL.

IMPLEMENTATIONS:
  sqlite.Store:  production backend, one documents table
  store.Memory:  in-memory backend for tests

SEE ALSO:
  - store/cache.go: typed snapshot cache over a DocumentStore
  - store/sqlite/sqlite.go: SQLite implementation
*/
package store

import (
	"context"
	"encoding/json"
	"fmt"
)

// Collection names. These match the original portal database so imported
// data keeps working.
const (
	ColEmployees             = "employees"
	ColApplications          = "applications"
	ColHolidays              = "holidays"
	ColPositions             = "positions"
	ColCandidates            = "candidates"
	ColInterviewSessions     = "ai_interview_sessions"
	ColInterviewResults      = "ai_interview_results"
	ColLearningCourses       = "learningCourses"
	ColLearningModules       = "learningModules"
	ColLearningLessons       = "learningLessons"
	ColLearningLessonAssets  = "learningLessonAssets"
	ColLearningAssignments   = "learningCourseAssignments"
	ColLearningProgress      = "learningProgress"
)

// Document is one stored record: an id and its JSON body.
type Document struct {
	ID   string
	Body json.RawMessage
}

// DocumentStore is the minimal persistence surface the portal needs.
// Collections are read whole and written back as batches.
type DocumentStore interface {
	// FindAll returns every document in a collection.
	FindAll(ctx context.Context, collection string) ([]Document, error)

	// UpsertMany inserts or replaces documents as one atomic batch.
	UpsertMany(ctx context.Context, collection string, docs []Document) error

	// DeleteWhereIDNotIn removes every document whose id is not listed.
	// Together with UpsertMany this makes a full-collection replace.
	DeleteWhereIDNotIn(ctx context.Context, collection string, keepIDs []string) error
}

// DecodeAll unmarshals a collection into typed values. A document that
// fails to decode aborts the whole read; partial collections are worse
// than a loud failure.
func DecodeAll[T any](docs []Document) ([]T, error) {
	out := make([]T, 0, len(docs))
	for _, doc := range docs {
		var v T
		if err := json.Unmarshal(doc.Body, &v); err != nil {
			return nil, fmt.Errorf("decode document %q: %w", doc.ID, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// MarshalDocuments converts typed values back into documents using the
// given id accessor.
func MarshalDocuments[T any](items []T, id func(T) string) ([]Document, error) {
	docs := make([]Document, 0, len(items))
	for _, item := range items {
		body, err := json.Marshal(item)
		if err != nil {
			return nil, fmt.Errorf("encode document %q: %w", id(item), err)
		}
		docs = append(docs, Document{ID: id(item), Body: body})
	}
	return docs, nil
}

// IDs extracts the id list from a document slice.
func IDs(docs []Document) []string {
	out := make([]string, len(docs))
	for i, doc := range docs {
		out[i] = doc.ID
	}
	return out
}
