package types

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Deployment modes. A mode decides which collaborators a session shares.
const (
	// ModeSingleUser shares one store, one output sink, and one service.
	ModeSingleUser = "single_user"
	// ModeCollaboration shares one store; each session gets its own sink and service.
	ModeCollaboration = "collaboration"
	// ModeIsolation gives each session its own store, sink, and service.
	ModeIsolation = "isolation"
)

// Modes lists the supported deployment modes.
var Modes = []string{ModeSingleUser, ModeCollaboration, ModeIsolation}

// Config selects the deployment mode and database locations.
type Config struct {
	Mode string `json:"mode" yaml:"mode" validate:"required,oneof=single_user collaboration isolation"`

	// DataDir holds the shared database file. Empty means an in-memory
	// database that lives as long as the factory.
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// IsolatedDir holds the per-session database files in isolation mode.
	// Empty means each session gets a private in-memory database.
	IsolatedDir string `json:"isolated_dir" yaml:"isolated_dir"`
}

// ServerConfig holds the HTTP front-end parameters.
type ServerConfig struct {
	Addr string `json:"addr" yaml:"addr" validate:"required,hostname_port"`
	Mode string `json:"mode" yaml:"mode" validate:"required,oneof=single_user collaboration isolation"`
}

// Config validation errors.
var (
	ErrModeEmpty   = errors.New("mode must not be empty")
	ErrModeUnknown = errors.New("unknown mode")
	ErrAddrInvalid = errors.New("server address must be host:port")
)

var validate = validator.New()

// Validate checks that the Config is well-formed. It returns a sentinel error
// from this package on failure.
func (c Config) Validate() error {
	return structError(validate.Struct(c))
}

// Validate checks that the ServerConfig is well-formed.
func (c ServerConfig) Validate() error {
	return structError(validate.Struct(c))
}

// structError maps the first validator field error to a sentinel error.
func structError(err error) error {
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}
	fe := fieldErrs[0]
	switch {
	case fe.Field() == "Mode" && fe.Tag() == "required":
		return ErrModeEmpty
	case fe.Field() == "Mode":
		return fmt.Errorf("%w %q", ErrModeUnknown, fe.Value())
	case fe.Field() == "Addr":
		return fmt.Errorf("%w: %q", ErrAddrInvalid, fe.Value())
	default:
		return fmt.Errorf("invalid %s: %s", fe.Field(), fe.Tag())
	}
}
