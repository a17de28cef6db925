// Package nest wires stores, sinks and services together according to the
// configured deployment mode.
//
// In single_user mode every session gets the same service, sink and store.
// In collaboration mode sessions share one store but get their own service
// and sink. In isolation mode each session also gets its own store, which is
// closed with the session.
package nest

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/memonest/internal/output"
	"github.com/mesh-intelligence/memonest/internal/service"
	"github.com/mesh-intelligence/memonest/internal/sqlite"
	"github.com/mesh-intelligence/memonest/pkg/types"
)

// ErrFactoryClosed is returned by Session after Close.
var ErrFactoryClosed = errors.New("factory is closed")

// Factory hands out sessions for one configuration. It is safe for
// concurrent use.
type Factory struct {
	cfg    types.Config
	logger *zap.Logger

	mu     sync.Mutex
	closed bool
	shared *sqlite.Store
	single *Session
}

// Session is one caller's view of the system: a service and the memory sink
// it writes to. Front-ends that render output themselves may replace the
// sink with Service.SetOutput.
type Session struct {
	Service *service.MemoService
	Sink    *output.Memory

	store *sqlite.Store // owned store, set in isolation mode only
}

// NewFactory validates cfg and returns a factory. No store is opened until
// the first session is requested.
func NewFactory(cfg types.Config, logger *zap.Logger) (*Factory, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Factory{cfg: cfg, logger: logger.Named("nest")}, nil
}

// Config returns the factory configuration.
func (f *Factory) Config() types.Config {
	return f.cfg
}

// Session returns a session for the configured mode.
func (f *Factory) Session(ctx context.Context) (*Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil, ErrFactoryClosed
	}

	switch f.cfg.Mode {
	case types.ModeSingleUser:
		if f.single == nil {
			store, err := f.sharedStore()
			if err != nil {
				return nil, err
			}
			f.single = f.newSession(store, nil)
		}
		return f.single, nil

	case types.ModeCollaboration:
		store, err := f.sharedStore()
		if err != nil {
			return nil, err
		}
		return f.newSession(store, nil), nil

	case types.ModeIsolation:
		store, err := f.isolatedStore()
		if err != nil {
			return nil, err
		}
		return f.newSession(store, store), nil

	default:
		return nil, fmt.Errorf("%w: %q", types.ErrModeUnknown, f.cfg.Mode)
	}
}

// Close releases the shared store. Sessions handed out before Close must not
// be used afterwards; isolated sessions still own their store and must be
// closed by the caller.
func (f *Factory) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil
	}
	f.closed = true
	f.single = nil
	if f.shared == nil {
		return nil
	}
	err := f.shared.Close()
	f.shared = nil
	return err
}

func (f *Factory) newSession(store, owned *sqlite.Store) *Session {
	sink := output.NewMemory()
	return &Session{
		Service: service.New(store, sink, f.logger),
		Sink:    sink,
		store:   owned,
	}
}

// sharedStore opens the shared store on first use. Callers hold f.mu.
func (f *Factory) sharedStore() (*sqlite.Store, error) {
	if f.shared != nil {
		return f.shared, nil
	}

	path := sqlite.MemoryPath
	if f.cfg.DataDir != "" {
		path = filepath.Join(f.cfg.DataDir, sqlite.DBFileName)
	}
	store, err := sqlite.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open shared store: %w", err)
	}
	f.logger.Debug("shared store opened", zap.String("path", path), zap.String("mode", f.cfg.Mode))
	f.shared = store
	return store, nil
}

func (f *Factory) isolatedStore() (*sqlite.Store, error) {
	path := sqlite.MemoryPath
	if f.cfg.IsolatedDir != "" {
		path = filepath.Join(f.cfg.IsolatedDir, IsolatedFileName(uuid.New()))
	}
	store, err := sqlite.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open isolated store: %w", err)
	}
	f.logger.Debug("isolated store opened", zap.String("path", path))
	return store, nil
}

// IsolatedFileName returns the database file name for an isolated session.
func IsolatedFileName(id uuid.UUID) string {
	return "db_" + id.String() + ".db"
}

// Close releases the session's own store, if any. Sessions that borrow the
// factory's shared store are unaffected.
func (s *Session) Close() error {
	if s.store == nil {
		return nil
	}
	err := s.store.Close()
	s.store = nil
	return err
}
