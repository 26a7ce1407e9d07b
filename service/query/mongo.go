// Package query wraps go.mongodb.org/mongo-driver behind a table-oriented
// interface. See the driver's document for the semantics of selectors and
// update documents: https://godoc.org/go.mongodb.org/mongo-driver/mongo
package query

import (
	"fmt"

	"github.com/vendue/goapi/base/ctx"
	"github.com/vendue/goapi/domain"
)

var (
	// ErrNotFound is mongo document not found error
	ErrNotFound = fmt.Errorf("document not found")

	// ErrDuplicateKey is an error when violating unique index
	ErrDuplicateKey = fmt.Errorf("duplicate key")
)

// Mongo abstracts the mongo layer.
type Mongo interface {
	// Insert inserts a new document to the table
	Insert(context ctx.Ctx, table domain.Table, insert interface{}) error

	// FindOne gets one document from the table
	// Return ErrNotFound if selector does not match any documents
	FindOne(context ctx.Ctx, table domain.Table, query, result interface{}) error

	// Count returns the number of matched documents in the table
	Count(context ctx.Ctx, table domain.Table, selector interface{}) (n int, err error)

	// Upsert replaces the document matching the selector, inserting it
	// when missing
	Upsert(context ctx.Ctx, table domain.Table, selector, update interface{}) error

	// Search sorts by the `sort` argument (ex "timestamp" ascending, or
	// "-timestamp" descending); "" skips sorting and the order of results
	// is not guaranteed
	Search(context ctx.Ctx, table domain.Table, offset, limit int, sort string, query, results interface{}) error

	// Patch applies a partial update to the first document matching the
	// selector
	// Return ErrNotFound if selector does not match any documents
	Patch(context ctx.Ctx, table domain.Table, selector, update interface{}) error

	// Remove removes one document from the table
	// Return ErrNotFound if selector does not match any documents
	Remove(context ctx.Ctx, table domain.Table, selector interface{}) error

	// RemoveAll removes all documents matching the selector from the table
	RemoveAll(context ctx.Ctx, table domain.Table, selector interface{}) (removedCnt int64, err error)
}
