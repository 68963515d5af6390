package repository

import (
	"context"
	"errors"

	"recordapi/internal/model"
)

// ErrConflict is returned when a record was changed by someone else since it was loaded.
var ErrConflict = errors.New("record revision conflict")

// RecordRepository is the document store for records. Each call reads or writes one whole
// document; the store is the atomicity boundary. No business logic here.
type RecordRepository interface {
	// Create inserts a new record document at revision 1 and returns the stored document.
	Create(ctx context.Context, doc *model.RecordDocument) (*model.RecordDocument, error)

	// FindByID returns a record document by its ID. Missing rows surface as sql.ErrNoRows.
	FindByID(ctx context.Context, id string) (*model.RecordDocument, error)

	// Reload reads the record straight from the database, bypassing any cache.
	Reload(ctx context.Context, id string) (*model.RecordDocument, error)

	// Update replaces the document if its revision still matches doc.Revision and returns the
	// stored document with the next revision. A stale revision yields ErrConflict.
	Update(ctx context.Context, doc *model.RecordDocument) (*model.RecordDocument, error)

	// List returns a paginated list of record documents and the total row count.
	List(ctx context.Context, pq PageQuery) (*PageResult[model.RecordDocument], error)

	// Delete removes a record by ID. It returns nil if the row was deleted or did not exist.
	Delete(ctx context.Context, id string) error
}

// PageQuery holds limit/offset pagination parameters.
type PageQuery struct {
	Limit  int
	Offset int
}

// PageResult is a generic pagination result wrapper.
// T is typically a model type.
type PageResult[T any] struct {
	Items []T
	Total int
}
