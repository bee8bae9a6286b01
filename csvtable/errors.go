package csvtable

import "github.com/cockroachdb/errors"

var (
	// ErrMalformedStructuredValue marks a value in a structured column which
	// could not be parsed.
	ErrMalformedStructuredValue = errors.New("MalformedStructuredValue")
	// ErrMissingIdentityColumn marks an input lacking the identity key column.
	ErrMissingIdentityColumn = errors.New("MissingIdentityColumn")
	// ErrDuplicateIdentityKey marks a table whose identity key repeats. It is
	// only returned when duplicates are rejected; otherwise they are warnings.
	ErrDuplicateIdentityKey = errors.New("DuplicateIdentityKey")
)
