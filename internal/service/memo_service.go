// Package service implements the memo use cases. Each method runs the
// operation's validation chain, calls the store, and pushes the result or a
// coded error to the configured output sink.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/memonest/internal/pipeline"
	"github.com/mesh-intelligence/memonest/pkg/types"
)

// opGetAll labels GetMemos in logs and errors; it has no validation chain.
const opGetAll = "get_all"

// ErrInvalidRecord is returned when a validation chain succeeds but leaves a
// field with an unexpected type.
var ErrInvalidRecord = errors.New("validated record has unexpected field type")

// MemoService orchestrates memo operations. Recoverable failures
// (*types.ValidationError, *types.StorageError) are emitted through the
// output sink and the method returns nil; any other error is returned.
type MemoService struct {
	store  types.MemoStorage
	logger *zap.Logger

	mu     sync.RWMutex
	out    types.Output
	chains pipeline.ChainFactory
}

// New returns a service over store. out may be nil, in which case results
// are dropped until SetOutput is called. A nil logger is replaced by a no-op
// logger.
func New(store types.MemoStorage, out types.Output, logger *zap.Logger) *MemoService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MemoService{
		store:  store,
		logger: logger,
		out:    out,
		chains: pipeline.MemoChains{},
	}
}

// SetOutput replaces the output sink.
func (s *MemoService) SetOutput(out types.Output) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.out = out
}

// SetChains replaces the validation chain factory.
func (s *MemoService) SetChains(chains pipeline.ChainFactory) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chains = chains
}

// CreateMemo validates rec, stores a new memo, and emits {"memo": fields}
// with the stored timestamps.
func (s *MemoService) CreateMemo(ctx context.Context, rec pipeline.Record) error {
	op := string(pipeline.OpCreate)
	valid, err := s.validate(pipeline.OpCreate, rec)
	if err != nil {
		return s.handleError(op, err)
	}
	title, err := stringField(valid, types.FieldTitle)
	if err != nil {
		return err
	}

	id, err := s.store.Create(ctx, types.NewDraft(title))
	if err != nil {
		return s.handleError(op, err)
	}
	s.logger.Debug("memo created", zap.Int64("id", id))

	return s.emitMemo(ctx, op, id)
}

// GetMemo validates rec and emits {"memo": fields}, or {} when no memo has
// the requested ID.
func (s *MemoService) GetMemo(ctx context.Context, rec pipeline.Record) error {
	op := string(pipeline.OpGet)
	valid, err := s.validate(pipeline.OpGet, rec)
	if err != nil {
		return s.handleError(op, err)
	}
	id, err := int64Field(valid, types.FieldID)
	if err != nil {
		return err
	}
	return s.emitMemo(ctx, op, id)
}

// GetMemos emits {"list": [fields...]} in ID order.
func (s *MemoService) GetMemos(ctx context.Context) error {
	s.logger.Debug("memo operation", zap.String("operation", opGetAll))

	memos, err := s.store.GetAll(ctx)
	if err != nil {
		return s.handleError(opGetAll, err)
	}

	list := make([]map[string]any, 0, len(memos))
	for _, m := range memos {
		list = append(list, m.Fields())
	}
	s.emit(map[string]any{types.KeyList: list})
	return nil
}

// UpdateMemo validates rec, replaces the memo's title, and emits the updated
// memo, or {} when no memo has the requested ID.
func (s *MemoService) UpdateMemo(ctx context.Context, rec pipeline.Record) error {
	op := string(pipeline.OpUpdate)
	valid, err := s.validate(pipeline.OpUpdate, rec)
	if err != nil {
		return s.handleError(op, err)
	}
	id, err := int64Field(valid, types.FieldID)
	if err != nil {
		return err
	}
	title, err := stringField(valid, types.FieldTitle)
	if err != nil {
		return err
	}

	if err := s.store.Update(ctx, types.Persisted(id, title)); err != nil {
		return s.handleError(op, err)
	}
	return s.emitMemo(ctx, op, id)
}

// DeleteMemo validates rec and deletes the memo when it exists. Nothing is
// emitted on success or when the memo does not exist.
func (s *MemoService) DeleteMemo(ctx context.Context, rec pipeline.Record) error {
	op := string(pipeline.OpDelete)
	valid, err := s.validate(pipeline.OpDelete, rec)
	if err != nil {
		return s.handleError(op, err)
	}
	id, err := int64Field(valid, types.FieldID)
	if err != nil {
		return err
	}

	memo, ok, err := s.store.Get(ctx, id)
	if err != nil {
		return s.handleError(op, err)
	}
	if !ok {
		s.logger.Debug("memo to delete not found", zap.Int64("id", id))
		return nil
	}
	if err := s.store.Delete(ctx, memo); err != nil {
		return s.handleError(op, err)
	}
	s.logger.Debug("memo deleted", zap.Int64("id", id))
	return nil
}

// validate builds a fresh chain for op and runs it over rec.
func (s *MemoService) validate(op pipeline.Operation, rec pipeline.Record) (pipeline.Record, error) {
	s.logger.Debug("memo operation", zap.String("operation", string(op)), zap.Any("record", rec))

	s.mu.RLock()
	chains := s.chains
	s.mu.RUnlock()

	chain, err := chains.Chain(op)
	if err != nil {
		return nil, err
	}
	return chain.Handle(rec)
}

// emitMemo reads the memo back and emits it, or {} when it does not exist.
func (s *MemoService) emitMemo(ctx context.Context, op string, id int64) error {
	memo, ok, err := s.store.Get(ctx, id)
	if err != nil {
		return s.handleError(op, err)
	}
	if !ok {
		s.emit(map[string]any{})
		return nil
	}
	s.emit(map[string]any{types.KeyMemo: memo.Fields()})
	return nil
}

// handleError emits recoverable errors and returns nil for them. Anything
// else is wrapped and returned.
func (s *MemoService) handleError(op string, err error) error {
	var ve *types.ValidationError
	if errors.As(err, &ve) {
		s.logger.Warn("memo validation failed",
			zap.String("operation", op),
			zap.String("field", ve.Field),
			zap.Int("code", ve.Code.Value()),
			zap.Error(err),
		)
		s.emitError(ve.Code)
		return nil
	}

	var se *types.StorageError
	if errors.As(err, &se) {
		s.logger.Warn("memo storage failed",
			zap.String("operation", op),
			zap.Int("code", se.Code.Value()),
			zap.NamedError("cause", se.Err),
		)
		s.emitError(se.Code)
		return nil
	}

	return fmt.Errorf("%s memo: %w", op, err)
}

func (s *MemoService) emit(data map[string]any) {
	if out := s.output(); out != nil {
		out.Output(data)
	}
}

func (s *MemoService) emitError(code types.ErrorCode) {
	if out := s.output(); out != nil {
		out.ErrorOutput(code.Value(), code.Message())
	}
}

func (s *MemoService) output() types.Output {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.out
}

func stringField(rec pipeline.Record, field string) (string, error) {
	v, ok := rec[field].(string)
	if !ok {
		return "", fmt.Errorf("%w: %s is %T", ErrInvalidRecord, field, rec[field])
	}
	return v, nil
}

func int64Field(rec pipeline.Record, field string) (int64, error) {
	v, ok := rec[field].(int64)
	if !ok {
		return 0, fmt.Errorf("%w: %s is %T", ErrInvalidRecord, field, rec[field])
	}
	return v, nil
}
