package lib

import "github.com/arcrest/arcrest/internal/model"

var (
	// ErrNotFound is returned when a requested resource does not exist.
	ErrNotFound = model.ErrNotFound
	// ErrAlreadyExists is returned when a resource already exists.
	ErrAlreadyExists = model.ErrAlreadyExists
	// ErrNotValid is returned when an input or operation is invalid.
	ErrNotValid = model.ErrNotValid
)
