package sqlgen

import (
	"errors"
	"fmt"
)

// Sentinel errors. Every error returned by the package while resolving
// metadata, translating conditions or building statements matches one of
// these with errors.Is.
var (
	// ErrNoColumns is returned when an entity type has no persistable columns.
	ErrNoColumns = errors.New("sqlgen: entity has no columns")

	// ErrNoKey is returned when a key-based operation is built for an entity
	// without primary key columns.
	ErrNoKey = errors.New("sqlgen: entity has no primary key")

	// ErrNotStruct is returned when describing a type that is not a struct.
	ErrNotStruct = errors.New("sqlgen: entity type is not a struct")

	// ErrShapeMismatch is returned when supplied values do not fit the
	// declared columns, or batch rows have differing column sets.
	ErrShapeMismatch = errors.New("sqlgen: shape mismatch")

	// ErrEmptyBatch is returned for batch operations without rows or keys.
	ErrEmptyBatch = errors.New("sqlgen: empty batch")

	// ErrUnsupportedPredicate is returned when a condition cannot be
	// expressed in the target dialect.
	ErrUnsupportedPredicate = errors.New("sqlgen: unsupported predicate")

	// ErrInvalidPage is returned when paging with a non-positive page size.
	ErrInvalidPage = errors.New("sqlgen: page size must be positive")

	// ErrNotFound is returned by the execution layer when a single-row
	// query matched nothing.
	ErrNotFound = errors.New("sqlgen: no rows in result set")

	// ErrDuplicateKey is returned by the execution layer when the database
	// reports a unique constraint violation.
	ErrDuplicateKey = errors.New("sqlgen: duplicate key")

	// ErrNoDB is returned when executing a builder that was not created
	// through a DB or Tx.
	ErrNoDB = errors.New("sqlgen: statement is not bound to a database")

	// ErrNoDialect is returned when building a statement without a dialect.
	ErrNoDialect = errors.New("sqlgen: no dialect")
)

// MetadataError reports a problem with an entity's declared metadata.
type MetadataError struct {
	Entity string
	Err    error
}

func (e *MetadataError) Error() string {
	return fmt.Sprintf("%s (entity %s)", e.Err.Error(), e.Entity)
}

func (e *MetadataError) Unwrap() error {
	return e.Err
}

// ShapeMismatchError reports values that do not fit the entity's columns.
// Row is the zero-based batch row the problem was found in, or -1 for
// single-row statements.
type ShapeMismatchError struct {
	Row    int
	Reason string
}

func (e *ShapeMismatchError) Error() string {
	if e.Row >= 0 {
		return fmt.Sprintf("sqlgen: shape mismatch in row %d: %s", e.Row, e.Reason)
	}
	return "sqlgen: shape mismatch: " + e.Reason
}

// Is reports whether target is ErrShapeMismatch.
func (e *ShapeMismatchError) Is(target error) bool {
	return target == ErrShapeMismatch
}

// EmptyBatchError reports a batch operation that received nothing to do.
type EmptyBatchError struct {
	Op string
}

func (e *EmptyBatchError) Error() string {
	return "sqlgen: empty batch for " + e.Op
}

// Is reports whether target is ErrEmptyBatch.
func (e *EmptyBatchError) Is(target error) bool {
	return target == ErrEmptyBatch
}

// UnsupportedPredicateError reports a condition that cannot be translated.
type UnsupportedPredicateError struct {
	Node    string
	Dialect string
	Reason  string
}

func (e *UnsupportedPredicateError) Error() string {
	msg := "sqlgen: unsupported predicate " + e.Node
	if e.Dialect != "" {
		msg += " for " + e.Dialect
	}
	return msg + ": " + e.Reason
}

// Is reports whether target is ErrUnsupportedPredicate.
func (e *UnsupportedPredicateError) Is(target error) bool {
	return target == ErrUnsupportedPredicate
}

// IsMetadataError returns true if err is caused by invalid entity metadata.
func IsMetadataError(err error) bool {
	var e *MetadataError
	return errors.As(err, &e)
}

// IsShapeMismatch returns true if err is a ShapeMismatchError.
func IsShapeMismatch(err error) bool {
	return errors.Is(err, ErrShapeMismatch)
}

// IsEmptyBatch returns true if err is an EmptyBatchError.
func IsEmptyBatch(err error) bool {
	return errors.Is(err, ErrEmptyBatch)
}

// IsUnsupportedPredicate returns true if err is an UnsupportedPredicateError.
func IsUnsupportedPredicate(err error) bool {
	return errors.Is(err, ErrUnsupportedPredicate)
}

func noKeyError(e *Entity) error {
	return &MetadataError{Entity: e.Name(), Err: ErrNoKey}
}
