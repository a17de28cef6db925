package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/memonest/internal/sqlite"
	"github.com/mesh-intelligence/memonest/pkg/memonest"
	"github.com/mesh-intelligence/memonest/pkg/types"
)

const modulePath = "github.com/mesh-intelligence/memonest"

// versionInfo is what the version command reports.
type versionInfo struct {
	Version  string   `json:"version"`
	Module   string   `json:"module"`
	Go       string   `json:"go"`
	Revision string   `json:"revision,omitempty"`
	Modified bool     `json:"modified,omitempty"`
	Database string   `json:"database"`
	Modes    []string `json:"modes"`
}

// buildVersionInfo fills in the VCS stamp when the binary carries one.
func buildVersionInfo() versionInfo {
	info := versionInfo{
		Version:  memonest.Version,
		Module:   modulePath,
		Go:       runtime.Version(),
		Database: sqlite.DBFileName,
		Modes:    types.Modes,
	}
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			info.Revision = s.Value
		case "vcs.modified":
			info.Modified = s.Value == "true"
		}
	}
	return info
}

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the memonest version and build details",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeVersion(cmd.OutOrStdout(), buildVersionInfo(), a.flags.jsonMode)
		},
	}
}

func writeVersion(w io.Writer, info versionInfo, jsonMode bool) error {
	if jsonMode {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	}

	fmt.Fprintf(w, "memonest v%s\n", info.Version)
	fmt.Fprintf(w, "module:   %s\n", info.Module)
	fmt.Fprintf(w, "go:       %s\n", info.Go)
	if info.Revision != "" {
		rev := info.Revision
		if info.Modified {
			rev += " (modified)"
		}
		fmt.Fprintf(w, "revision: %s\n", rev)
	}
	fmt.Fprintf(w, "database: %s\n", info.Database)
	fmt.Fprintf(w, "modes:    %s\n", strings.Join(info.Modes, ", "))
	return nil
}
