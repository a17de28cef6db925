package pipeline

import (
	"fmt"

	"github.com/mesh-intelligence/memonest/pkg/types"
)

// Compile-time interface check.
var _ ChainFactory = MemoChains{}

// MemoChains builds the validator chains for memo operations.
type MemoChains struct{}

// Chain returns a fresh chain for op.
func (MemoChains) Chain(op Operation) (Chain, error) {
	switch op {
	case OpCreate:
		return Chain{String{Field: types.FieldTitle}}, nil
	case OpGet:
		return Chain{Integer{Field: types.FieldID}}, nil
	case OpUpdate:
		return Chain{
			Integer{Field: types.FieldID},
			String{Field: types.FieldTitle},
		}, nil
	case OpDelete:
		return Chain{Integer{Field: types.FieldID}}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownOperation, op)
	}
}
