package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/memonest/internal/output"
	"github.com/mesh-intelligence/memonest/internal/pipeline"
	"github.com/mesh-intelligence/memonest/internal/sqlite"
	"github.com/mesh-intelligence/memonest/pkg/types"
)

// Mock implementations for testing

type MockStore struct {
	mock.Mock
}

func (m *MockStore) Create(ctx context.Context, memo types.Memo) (int64, error) {
	args := m.Called(ctx, memo)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStore) Get(ctx context.Context, id int64) (types.Memo, bool, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(types.Memo), args.Bool(1), args.Error(2)
}

func (m *MockStore) GetAll(ctx context.Context) ([]types.Memo, error) {
	args := m.Called(ctx)
	memos, _ := args.Get(0).([]types.Memo)
	return memos, args.Error(1)
}

func (m *MockStore) Update(ctx context.Context, memo types.Memo) error {
	args := m.Called(ctx, memo)
	return args.Error(0)
}

func (m *MockStore) Delete(ctx context.Context, memo types.Memo) error {
	args := m.Called(ctx, memo)
	return args.Error(0)
}

type MockOutput struct {
	mock.Mock
}

func (m *MockOutput) Output(data map[string]any) {
	m.Called(data)
}

func (m *MockOutput) ErrorOutput(code int, message string) {
	m.Called(code, message)
}

var testTime = time.Date(2026, 10, 14, 9, 30, 0, 0, time.UTC)

func storedMemo(id int64, title string) types.Memo {
	m := types.Persisted(id, title)
	m.CreatedAt = testTime
	m.UpdatedAt = testTime
	return m
}

func setupService(t *testing.T) (*MemoService, *MockStore, *MockOutput) {
	t.Helper()
	store := new(MockStore)
	out := new(MockOutput)
	t.Cleanup(func() {
		store.AssertExpectations(t)
		out.AssertExpectations(t)
	})
	return New(store, out, zap.NewNop()), store, out
}

func TestCreateMemo_Success(t *testing.T) {
	ctx := context.Background()
	svc, store, out := setupService(t)

	memo := storedMemo(1, "Buy milk")
	store.On("Create", ctx, types.NewDraft("Buy milk")).Return(int64(1), nil)
	store.On("Get", ctx, int64(1)).Return(memo, true, nil)
	out.On("Output", map[string]any{"memo": memo.Fields()}).Return()

	require.NoError(t, svc.CreateMemo(ctx, pipeline.Record{"title": "Buy milk"}))
	out.AssertNotCalled(t, "ErrorOutput", mock.Anything, mock.Anything)
}

func TestCreateMemo_MissingTitle(t *testing.T) {
	ctx := context.Background()
	svc, store, out := setupService(t)

	out.On("ErrorOutput", 1, "Missing required field").Return()

	require.NoError(t, svc.CreateMemo(ctx, pipeline.Record{}))
	store.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	out.AssertNotCalled(t, "Output", mock.Anything)
}

func TestCreateMemo_StoreFailure(t *testing.T) {
	ctx := context.Background()
	svc, store, out := setupService(t)

	cause := errors.New("disk I/O error")
	store.On("Create", ctx, mock.AnythingOfType("types.Memo")).
		Return(int64(0), types.NewStorageError(types.FailedToCreateMemo, cause))
	out.On("ErrorOutput", 101, "Failed to create memo").Return()

	require.NoError(t, svc.CreateMemo(ctx, pipeline.Record{"title": "Buy milk"}))
	store.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
}

func TestGetMemo(t *testing.T) {
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		svc, store, out := setupService(t)
		memo := storedMemo(7, "found")
		store.On("Get", ctx, int64(7)).Return(memo, true, nil)
		out.On("Output", map[string]any{"memo": memo.Fields()}).Return()

		require.NoError(t, svc.GetMemo(ctx, pipeline.Record{"id": "7"}))
	})

	t.Run("not found emits empty payload", func(t *testing.T) {
		svc, store, out := setupService(t)
		store.On("Get", ctx, int64(999)).Return(types.Memo{}, false, nil)
		out.On("Output", map[string]any{}).Return()

		require.NoError(t, svc.GetMemo(ctx, pipeline.Record{"id": "999"}))
	})

	t.Run("bad id format", func(t *testing.T) {
		svc, _, out := setupService(t)
		out.On("ErrorOutput", 2, "Invalid field format").Return()

		require.NoError(t, svc.GetMemo(ctx, pipeline.Record{"id": "abc"}))
	})

	t.Run("bad id value", func(t *testing.T) {
		svc, _, out := setupService(t)
		out.On("ErrorOutput", 3, "Invalid field value").Return()

		require.NoError(t, svc.GetMemo(ctx, pipeline.Record{"id": "12abc"}))
	})

	t.Run("store failure", func(t *testing.T) {
		svc, store, out := setupService(t)
		store.On("Get", ctx, int64(1)).
			Return(types.Memo{}, false, types.NewStorageError(types.FailedToGetMemo, errors.New("boom")))
		out.On("ErrorOutput", 104, "Failed to get memo").Return()

		require.NoError(t, svc.GetMemo(ctx, pipeline.Record{"id": "1"}))
	})
}

func TestGetMemos(t *testing.T) {
	ctx := context.Background()

	t.Run("list in store order", func(t *testing.T) {
		svc, store, out := setupService(t)
		a, b := storedMemo(1, "a"), storedMemo(2, "b")
		store.On("GetAll", ctx).Return([]types.Memo{a, b}, nil)
		out.On("Output", map[string]any{"list": []map[string]any{a.Fields(), b.Fields()}}).Return()

		require.NoError(t, svc.GetMemos(ctx))
	})

	t.Run("empty list", func(t *testing.T) {
		svc, store, out := setupService(t)
		store.On("GetAll", ctx).Return([]types.Memo{}, nil)
		out.On("Output", map[string]any{"list": []map[string]any{}}).Return()

		require.NoError(t, svc.GetMemos(ctx))
	})

	t.Run("store failure", func(t *testing.T) {
		svc, store, out := setupService(t)
		store.On("GetAll", ctx).Return(nil, types.NewStorageError(types.FailedToGetAllMemos, errors.New("boom")))
		out.On("ErrorOutput", 105, "Failed to get all memos").Return()

		require.NoError(t, svc.GetMemos(ctx))
	})
}

func TestUpdateMemo(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		svc, store, out := setupService(t)
		updated := storedMemo(1, "New")
		store.On("Update", ctx, types.Persisted(1, "New")).Return(nil)
		store.On("Get", ctx, int64(1)).Return(updated, true, nil)
		out.On("Output", map[string]any{"memo": updated.Fields()}).Return()

		require.NoError(t, svc.UpdateMemo(ctx, pipeline.Record{"id": "1", "title": "New"}))
	})

	t.Run("missing memo emits empty payload", func(t *testing.T) {
		svc, store, out := setupService(t)
		store.On("Update", ctx, types.Persisted(5, "New")).Return(nil)
		store.On("Get", ctx, int64(5)).Return(types.Memo{}, false, nil)
		out.On("Output", map[string]any{}).Return()

		require.NoError(t, svc.UpdateMemo(ctx, pipeline.Record{"id": "5", "title": "New"}))
	})

	t.Run("missing title", func(t *testing.T) {
		svc, store, out := setupService(t)
		out.On("ErrorOutput", 1, "Missing required field").Return()

		require.NoError(t, svc.UpdateMemo(ctx, pipeline.Record{"id": "1"}))
		store.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("store failure", func(t *testing.T) {
		svc, store, out := setupService(t)
		store.On("Update", ctx, mock.AnythingOfType("types.Memo")).
			Return(types.NewStorageError(types.FailedToUpdateMemo, errors.New("boom")))
		out.On("ErrorOutput", 102, "Failed to update memo").Return()

		require.NoError(t, svc.UpdateMemo(ctx, pipeline.Record{"id": "1", "title": "New"}))
	})
}

func TestDeleteMemo(t *testing.T) {
	ctx := context.Background()

	t.Run("existing memo is deleted without output", func(t *testing.T) {
		svc, store, _ := setupService(t)
		memo := storedMemo(3, "bye")
		store.On("Get", ctx, int64(3)).Return(memo, true, nil)
		store.On("Delete", ctx, memo).Return(nil)

		require.NoError(t, svc.DeleteMemo(ctx, pipeline.Record{"id": "3"}))
	})

	t.Run("missing memo is a no-op", func(t *testing.T) {
		svc, store, _ := setupService(t)
		store.On("Get", ctx, int64(3)).Return(types.Memo{}, false, nil)

		require.NoError(t, svc.DeleteMemo(ctx, pipeline.Record{"id": "3"}))
		store.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("store failure", func(t *testing.T) {
		svc, store, out := setupService(t)
		memo := storedMemo(3, "bye")
		store.On("Get", ctx, int64(3)).Return(memo, true, nil)
		store.On("Delete", ctx, memo).Return(types.NewStorageError(types.FailedToDeleteMemo, errors.New("boom")))
		out.On("ErrorOutput", 103, "Failed to delete memo").Return()

		require.NoError(t, svc.DeleteMemo(ctx, pipeline.Record{"id": "3"}))
	})
}

type brokenChains struct{}

func (brokenChains) Chain(op pipeline.Operation) (pipeline.Chain, error) {
	return nil, pipeline.ErrUnknownOperation
}

type passThroughChains struct{}

func (passThroughChains) Chain(op pipeline.Operation) (pipeline.Chain, error) {
	return pipeline.Chain{}, nil
}

func TestFatalErrorsAreReturned(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown chain", func(t *testing.T) {
		svc, _, _ := setupService(t)
		svc.SetChains(brokenChains{})

		err := svc.CreateMemo(ctx, pipeline.Record{"title": "x"})
		assert.ErrorIs(t, err, pipeline.ErrUnknownOperation)
	})

	t.Run("unvalidated field type", func(t *testing.T) {
		svc, _, _ := setupService(t)
		svc.SetChains(passThroughChains{})

		err := svc.GetMemo(ctx, pipeline.Record{"id": "1"})
		assert.ErrorIs(t, err, ErrInvalidRecord)
	})

	t.Run("untyped store error", func(t *testing.T) {
		svc, store, _ := setupService(t)
		cause := errors.New("plain failure")
		store.On("GetAll", ctx).Return(nil, cause)

		err := svc.GetMemos(ctx)
		assert.ErrorIs(t, err, cause)
	})
}

func TestNoOutputConfigured(t *testing.T) {
	ctx := context.Background()
	store := new(MockStore)
	store.On("GetAll", ctx).Return([]types.Memo{}, nil)

	svc := New(store, nil, nil)
	require.NoError(t, svc.GetMemos(ctx))
	require.NoError(t, svc.CreateMemo(ctx, pipeline.Record{}))
	store.AssertExpectations(t)
}

func TestSetOutput(t *testing.T) {
	ctx := context.Background()
	svc, _, first := setupService(t)

	second := output.NewMemory()
	svc.SetOutput(second)
	require.NoError(t, svc.CreateMemo(ctx, pipeline.Record{}))

	first.AssertNotCalled(t, "ErrorOutput", mock.Anything, mock.Anything)
	assert.Equal(t, int(types.MissingRequiredField), second.Code())
}

func TestMemoLifecycleAgainstStore(t *testing.T) {
	ctx := context.Background()
	store, err := sqlite.Open(sqlite.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	sink := output.NewMemory()
	svc := New(store, sink, zap.NewNop())

	require.NoError(t, svc.CreateMemo(ctx, pipeline.Record{"title": "Buy milk"}))
	created, ok := sink.Data()["memo"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, int64(1), created["id"])
	assert.Equal(t, "Buy milk", created["title"])
	assert.Equal(t, created["createdAt"], created["updatedAt"])

	require.NoError(t, svc.UpdateMemo(ctx, pipeline.Record{"id": "1", "title": "Buy oat milk"}))
	updated := sink.Data()["memo"].(map[string]any)
	assert.Equal(t, "Buy oat milk", updated["title"])
	assert.False(t, updated["updatedAt"].(time.Time).Before(created["updatedAt"].(time.Time)))

	sink.Reset()
	require.NoError(t, svc.DeleteMemo(ctx, pipeline.Record{"id": "1"}))
	assert.False(t, sink.Written())

	require.NoError(t, svc.GetMemo(ctx, pipeline.Record{"id": "1"}))
	assert.Equal(t, map[string]any{}, sink.Data())

	require.NoError(t, svc.GetMemos(ctx))
	assert.Equal(t, map[string]any{"list": []map[string]any{}}, sink.Data())
}

func TestZeroIDIsNotFound(t *testing.T) {
	ctx := context.Background()
	store, err := sqlite.Open(sqlite.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	sink := output.NewMemory()
	svc := New(store, sink, zap.NewNop())

	t.Run("get", func(t *testing.T) {
		sink.Reset()
		require.NoError(t, svc.GetMemo(ctx, pipeline.Record{"id": "0"}))
		assert.Equal(t, 0, sink.Code())
		assert.Equal(t, map[string]any{}, sink.Data())
	})

	t.Run("update", func(t *testing.T) {
		sink.Reset()
		require.NoError(t, svc.UpdateMemo(ctx, pipeline.Record{"id": "0", "title": "x"}))
		assert.Equal(t, 0, sink.Code())
		assert.Equal(t, map[string]any{}, sink.Data())
	})

	t.Run("delete", func(t *testing.T) {
		sink.Reset()
		require.NoError(t, svc.DeleteMemo(ctx, pipeline.Record{"id": "0"}))
		assert.False(t, sink.Written())
	})
}
