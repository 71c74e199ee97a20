package usecases

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"iot-dashboard/repositories"
	"iot-dashboard/schemas"
)

var (
	// ErrNotFound is returned when no document has the requested id.
	ErrNotFound = errors.New("not found")
	// ErrInvalidID is returned when the id is not well formed for the store.
	ErrInvalidID = errors.New("malformed id")
)

// ValidationError captures field level problems of a payload or filter.
type ValidationError struct {
	FieldErrors map[string]string
}

func (v *ValidationError) Error() string {
	if v == nil || len(v.FieldErrors) == 0 {
		return "validation failed"
	}
	fields := make([]string, 0, len(v.FieldErrors))
	for f := range v.FieldErrors {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+v.FieldErrors[f])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}

// orNil returns v as an error only if it recorded something.
func (v *ValidationError) orNil() error {
	if v.HasErrors() {
		return v
	}
	return nil
}

func invalid(field, message string) *ValidationError {
	v := &ValidationError{}
	v.add(field, message)
	return v
}

// StoreError wraps failures of the persistent store itself.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string { return fmt.Sprintf("store: %s: %v", e.Op, e.Err) }

func (e *StoreError) Unwrap() error { return e.Err }

// translate maps repository errors onto the service taxonomy.
func translate(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, repositories.ErrInvalidID):
		return ErrInvalidID
	}
	return &StoreError{Op: op, Err: err}
}

// fromSchema turns a schema decoding failure into a ValidationError.
func fromSchema(err error) error {
	var serr *schemas.Error
	if errors.As(err, &serr) {
		return &ValidationError{FieldErrors: serr.Fields}
	}
	return err
}
