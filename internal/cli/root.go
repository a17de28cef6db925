// Package cli implements the memonest command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/memonest/internal/nest"
	"github.com/mesh-intelligence/memonest/internal/paths"
	"github.com/mesh-intelligence/memonest/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	mode      string
	jsonMode  bool
}

// app carries the state shared by one invocation of the command tree.
type app struct {
	flags  rootFlags
	v      *viper.Viper
	logger *zap.Logger

	factory  *nest.Factory
	sessions []*nest.Session
}

// exitError carries a process exit code through cobra's error return. A nil
// err means the failure was already reported.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

func userError(err error) error {
	return &exitError{code: exitUserError, err: err}
}

func sysError(err error) error {
	return &exitError{code: exitSysError, err: err}
}

// NewRootCmd creates the top-level "memonest" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	root, _ := newRoot()
	return root
}

func newRoot() (*cobra.Command, *app) {
	a := &app{v: viper.New(), logger: zap.NewNop()}

	root := &cobra.Command{
		Use:   "memonest",
		Short: "Create, read, update and delete memos",
		Long:  "MemoNest stores titled memos in SQLite and serves them\nfrom the console or over HTTP.",
		// Do not print usage on errors returned by subcommands.
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return a.load(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close()
		},
	}

	root.PersistentFlags().StringVar(&a.flags.configDir, "config-dir", "", "configuration directory (default: platform config dir)")
	root.PersistentFlags().StringVar(&a.flags.dataDir, "data-dir", "", "data directory (default: $(CWD)/.memonest-db)")
	root.PersistentFlags().StringVar(&a.flags.mode, "mode", "", "deployment mode: single_user, collaboration or isolation")
	root.PersistentFlags().BoolVar(&a.flags.jsonMode, "json", false, "output in JSON format")

	root.AddCommand(newVersionCmd(a))
	root.AddCommand(newInitCmd(a))
	root.AddCommand(newMemoCmds(a, a.session)...)
	root.AddCommand(newShellCmd(a))
	root.AddCommand(newServeCmd(a))

	return root, a
}

// Execute runs the root command on the process arguments and exits with the
// resulting code.
func Execute() {
	os.Exit(Run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// Run executes the command tree with the given arguments and streams and
// returns the exit code.
func Run(args []string, in io.Reader, out, errOut io.Writer) int {
	root, a := newRoot()
	root.SetArgs(args)
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)

	err := root.Execute()
	// PersistentPostRunE is skipped when a command fails.
	if closeErr := a.close(); err == nil {
		err = closeErr
	}
	return exitCode(err, errOut)
}

func exitCode(err error, w io.Writer) int {
	if err == nil {
		return exitSuccess
	}
	var ee *exitError
	if errors.As(err, &ee) {
		if ee.err != nil {
			fmt.Fprintln(w, "Error:", ee.err)
		}
		return ee.code
	}
	fmt.Fprintln(w, "Error:", err)
	return exitUserError
}

// load reads configuration and builds the logger.
func (a *app) load(cmd *cobra.Command) error {
	configDir, err := paths.ResolveConfigDir(a.flags.configDir)
	if err != nil {
		return sysError(fmt.Errorf("resolve config dir: %w", err))
	}

	v, err := loadConfig(configDir)
	if err != nil {
		return sysError(err)
	}
	a.v = v
	a.v.Set(cfgKeyConfigDir, configDir)

	logger, err := newLogger(v.GetString(cfgKeyLogLevel), v.GetString(cfgKeyLogFormat), cmd.ErrOrStderr())
	if err != nil {
		return userError(err)
	}
	a.logger = logger
	return nil
}

// mode returns the deployment mode for console commands: --mode flag, else
// the mode key of config.yaml.
func (a *app) mode() string {
	if a.flags.mode != "" {
		return a.flags.mode
	}
	return a.v.GetString(cfgKeyMode)
}

// memoConfig builds the factory configuration for mode.
func (a *app) memoConfig(mode string) (types.Config, error) {
	dataDir, err := paths.ResolveDataDir(a.flags.dataDir, a.v.GetString(cfgKeyDataDir))
	if err != nil {
		return types.Config{}, fmt.Errorf("resolve data dir: %w", err)
	}
	isolatedDir, err := paths.ResolveIsolatedDir(a.v.GetString(cfgKeyIsolatedDir))
	if err != nil {
		return types.Config{}, fmt.Errorf("resolve isolated dir: %w", err)
	}
	return types.Config{Mode: mode, DataDir: dataDir, IsolatedDir: isolatedDir}, nil
}

// openFactory creates the invocation's factory for mode. A bad mode is a
// user error.
func (a *app) openFactory(mode string) (*nest.Factory, error) {
	if a.factory != nil {
		return a.factory, nil
	}
	cfg, err := a.memoConfig(mode)
	if err != nil {
		return nil, sysError(err)
	}
	f, err := nest.NewFactory(cfg, a.logger)
	if err != nil {
		return nil, userError(err)
	}
	a.factory = f
	return f, nil
}

// session opens a session for the console mode. Sessions are closed when the
// command finishes.
func (a *app) session(ctx context.Context) (*nest.Session, error) {
	f, err := a.openFactory(a.mode())
	if err != nil {
		return nil, err
	}
	s, err := f.Session(ctx)
	if err != nil {
		return nil, sysError(err)
	}
	a.sessions = append(a.sessions, s)
	return s, nil
}

// close releases every session and the factory.
func (a *app) close() error {
	var errs []error
	for _, s := range a.sessions {
		errs = append(errs, s.Close())
	}
	a.sessions = nil
	if a.factory != nil {
		errs = append(errs, a.factory.Close())
		a.factory = nil
	}
	_ = a.logger.Sync()
	if err := errors.Join(errs...); err != nil {
		return sysError(err)
	}
	return nil
}
