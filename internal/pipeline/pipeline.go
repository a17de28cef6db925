// Package pipeline turns untyped input records into typed, defaulted records
// through an ordered chain of single-field validators.
package pipeline

import (
	"errors"
	"maps"
	"regexp"

	"github.com/mesh-intelligence/memonest/pkg/types"
)

// Record maps field names to raw or partially typed values. A record is owned
// by the chain for the duration of one pass.
type Record map[string]any

// Validator checks and transforms exactly one field of a record. A failing
// validator returns a *types.ValidationError.
type Validator interface {
	Process(rec Record) (Record, error)
}

// ValidatorFunc adapts a function to the Validator interface.
type ValidatorFunc func(rec Record) (Record, error)

// Process calls f(rec).
func (f ValidatorFunc) Process(rec Record) (Record, error) {
	return f(rec)
}

// Chain is an ordered sequence of validators applied in one pass.
type Chain []Validator

// Handle runs every validator in order and returns the final record. The
// first failure aborts the pass and no record is returned. The input record
// is copied first, so the caller's map is never modified.
func (c Chain) Handle(rec Record) (Record, error) {
	out := make(Record, len(rec))
	maps.Copy(out, rec)

	for _, v := range c {
		next, err := v.Process(out)
		if err != nil {
			return nil, err
		}
		out = next
	}
	return out, nil
}

// requireField fails with MissingRequiredField when field is absent.
func requireField(rec Record, field string) (any, error) {
	v, ok := rec[field]
	if !ok {
		return nil, types.NewValidationError(field, types.MissingRequiredField, nil)
	}
	return v, nil
}

// requireFormat fails with InvalidFieldFormat when text does not match re.
func requireFormat(field, text string, re *regexp.Regexp) error {
	if !re.MatchString(text) {
		return types.NewValidationError(field, types.InvalidFieldFormat, nil)
	}
	return nil
}

// Operations the memo chain factory knows about.
type Operation string

const (
	OpCreate Operation = "create"
	OpGet    Operation = "get"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// ErrUnknownOperation is returned by a ChainFactory asked for an operation it
// has no chain for.
var ErrUnknownOperation = errors.New("unknown pipeline operation")

// ChainFactory returns a fresh chain for an operation.
type ChainFactory interface {
	Chain(op Operation) (Chain, error)
}
