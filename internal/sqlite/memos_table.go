// Memo CRUD for the SQLite store. Each operation is one statement or one
// transaction; every failure is returned as a *types.StorageError.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mesh-intelligence/memonest/pkg/types"
)

// Compile-time interface check: Store must implement MemoStorage.
var _ types.MemoStorage = (*Store)(nil)

// timeLayout is the text layout of create_date and update_date.
const timeLayout = time.RFC3339Nano

// Create inserts a draft memo with created and updated times set to now and
// returns the generated ID.
func (s *Store) Create(ctx context.Context, memo types.Memo) (int64, error) {
	if memo.IsCreated() {
		return 0, types.NewStorageError(types.FailedToCreateMemo, types.ErrNotDraft)
	}

	now := s.timestamp().Format(timeLayout)

	var id int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, insertMemo, memo.Title, now, now)
		if err != nil {
			return fmt.Errorf("inserting memo: %w", err)
		}
		id, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("reading memo id: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, types.NewStorageError(types.FailedToCreateMemo, err)
	}
	return id, nil
}

// Update stores the memo's title and refreshes its updated time. A memo ID
// with no row is not an error.
func (s *Store) Update(ctx context.Context, memo types.Memo) error {
	if !memo.IsCreated() {
		return types.NewStorageError(types.FailedToUpdateMemo, types.ErrDraftMemo)
	}

	now := s.timestamp().Format(timeLayout)

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, updateMemo, memo.Title, now, memo.ID); err != nil {
			return fmt.Errorf("updating memo %d: %w", memo.ID, err)
		}
		return nil
	})
	if err != nil {
		return types.NewStorageError(types.FailedToUpdateMemo, err)
	}
	return nil
}

// Delete removes the memo's row. A memo ID with no row is not an error.
func (s *Store) Delete(ctx context.Context, memo types.Memo) error {
	if !memo.IsCreated() {
		return types.NewStorageError(types.FailedToDeleteMemo, types.ErrDraftMemo)
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, deleteMemo, memo.ID); err != nil {
			return fmt.Errorf("deleting memo %d: %w", memo.ID, err)
		}
		return nil
	})
	if err != nil {
		return types.NewStorageError(types.FailedToDeleteMemo, err)
	}
	return nil
}

// Get retrieves the memo with the given ID. The boolean is false when no row
// matches.
func (s *Store) Get(ctx context.Context, id int64) (types.Memo, bool, error) {
	row := s.db.QueryRowContext(ctx, selectMemo, id)
	memo, err := hydrateMemo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Memo{}, false, nil
	}
	if err != nil {
		return types.Memo{}, false, types.NewStorageError(types.FailedToGetMemo,
			fmt.Errorf("getting memo %d: %w", id, err))
	}
	return memo, true, nil
}

// GetAll returns every memo in primary-key order. The slice is empty, not nil,
// when the table has no rows.
func (s *Store) GetAll(ctx context.Context) ([]types.Memo, error) {
	memos, err := s.fetchMemos(ctx)
	if err != nil {
		return nil, types.NewStorageError(types.FailedToGetAllMemos, err)
	}
	return memos, nil
}

func (s *Store) fetchMemos(ctx context.Context) ([]types.Memo, error) {
	rows, err := s.db.QueryContext(ctx, selectMemos)
	if err != nil {
		return nil, fmt.Errorf("querying memos: %w", err)
	}
	defer rows.Close()

	memos := []types.Memo{}
	for rows.Next() {
		memo, err := hydrateMemo(rows)
		if err != nil {
			return nil, err
		}
		memos = append(memos, memo)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating memos: %w", err)
	}
	return memos, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// hydrateMemo scans one memos row. sql.ErrNoRows is returned unwrapped.
func hydrateMemo(row rowScanner) (types.Memo, error) {
	var (
		id                     int64
		title                  string
		createDate, updateDate string
	)
	if err := row.Scan(&id, &title, &createDate, &updateDate); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Memo{}, err
		}
		return types.Memo{}, fmt.Errorf("scanning memo: %w", err)
	}

	m := types.Persisted(id, title)
	var err error
	m.CreatedAt, err = time.Parse(timeLayout, createDate)
	if err != nil {
		return types.Memo{}, fmt.Errorf("parsing memo %d create_date: %w", m.ID, err)
	}
	m.UpdatedAt, err = time.Parse(timeLayout, updateDate)
	if err != nil {
		return types.Memo{}, fmt.Errorf("parsing memo %d update_date: %w", m.ID, err)
	}
	return m, nil
}
