package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/memonest/internal/paths"
	"github.com/mesh-intelligence/memonest/internal/sqlite"
)

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize memonest storage",
		Long:  "Create the configuration and data directories, write a default config.yaml,\nand create the memos table.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runInit(cmd)
		},
	}
}

func (a *app) runInit(cmd *cobra.Command) error {
	configDir := a.v.GetString(cfgKeyConfigDir)
	dataDir, err := paths.ResolveDataDir(a.flags.dataDir, a.v.GetString(cfgKeyDataDir))
	if err != nil {
		return sysError(fmt.Errorf("resolve data dir: %w", err))
	}

	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return sysError(fmt.Errorf("create config directory: %w", err))
	}

	// Only an explicit --data-dir is recorded; otherwise the default stays
	// relative to the working directory.
	recorded := ""
	if a.flags.dataDir != "" {
		recorded = dataDir
	}
	wrote, err := writeConfigIfMissing(configDir, recorded)
	if err != nil {
		return sysError(fmt.Errorf("write config: %w", err))
	}
	if wrote {
		a.logger.Info("config written")
	}

	store, err := sqlite.Open(filepath.Join(dataDir, sqlite.DBFileName))
	if err != nil {
		return sysError(fmt.Errorf("initialize storage: %w", err))
	}
	if err := store.Close(); err != nil {
		return sysError(fmt.Errorf("finalize storage: %w", err))
	}

	fmt.Fprintln(cmd.OutOrStdout(), "MemoNest initialized successfully")
	fmt.Fprintf(cmd.OutOrStdout(), "config: %s\ndata:   %s\n", filepath.Join(configDir, configFileExt), dataDir)
	return nil
}
