// Package memonest provides the public API for embedding MemoNest.
// It exposes the session factory and the SQLite store while keeping
// implementation details internal.
//
// Example:
//
//	f, err := memonest.NewFactory(types.Config{
//	    Mode:    types.ModeCollaboration,
//	    DataDir: ".memonest-db",
//	}, nil)
//	if err != nil {
//	    return err
//	}
//	defer f.Close()
//
//	s, err := f.Session(ctx)
//	if err != nil {
//	    return err
//	}
//	defer s.Close()
//	err = s.Service.CreateMemo(ctx, map[string]any{"title": "Buy milk"})
//	fmt.Println(s.Sink.Data())
package memonest

import (
	"go.uber.org/zap"

	"github.com/mesh-intelligence/memonest/internal/nest"
	"github.com/mesh-intelligence/memonest/internal/sqlite"
	"github.com/mesh-intelligence/memonest/pkg/types"
)

// Version is the release version of the module.
const Version = "0.1.0"

// Factory hands out sessions for one deployment mode.
type Factory = nest.Factory

// Session pairs a memo service with the memory sink it writes to.
type Session = nest.Session

// NewFactory validates cfg and returns a session factory. A nil logger
// disables logging.
func NewFactory(cfg types.Config, logger *zap.Logger) (*Factory, error) {
	return nest.NewFactory(cfg, logger)
}

// Store is a MemoStorage that must be closed after use.
type Store interface {
	types.MemoStorage
	Close() error
}

// OpenStore opens or creates the SQLite database at path. An empty path
// opens an in-memory database.
func OpenStore(path string) (Store, error) {
	s, err := sqlite.Open(path)
	if err != nil {
		return nil, err
	}
	return s, nil
}
