package types

import "context"

// MemoStorage provides durable CRUD for memos with generated identifiers and
// timestamps. Every error returned by an implementation is a *StorageError
// carrying one of the five storage codes.
type MemoStorage interface {
	// Create persists a draft memo. CreatedAt is set to the current time and
	// UpdatedAt to the same instant. Returns the generated ID.
	Create(ctx context.Context, memo Memo) (int64, error)

	// Get retrieves the memo with the given ID. The boolean is false when no
	// memo exists with that ID; absence is not an error.
	Get(ctx context.Context, id int64) (Memo, bool, error)

	// GetAll returns every memo in primary-key order, or an empty slice.
	GetAll(ctx context.Context) ([]Memo, error)

	// Update stores the memo's title keyed by its ID and refreshes UpdatedAt.
	// Updating an ID with no row is not an error.
	Update(ctx context.Context, memo Memo) error

	// Delete removes the row keyed by the memo's ID. Deleting an ID with no
	// row is not an error.
	Delete(ctx context.Context, memo Memo) error
}
