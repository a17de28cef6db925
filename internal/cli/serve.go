package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/memonest/internal/httpapi"
	"github.com/mesh-intelligence/memonest/pkg/types"
)

const shutdownTimeout = 30 * time.Second

func newServeCmd(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the memo operations over HTTP",
		Long:  "Start the HTTP front-end. The deployment mode comes from --mode or http.mode\n(default collaboration). SIGINT or SIGTERM shuts the server down gracefully.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx, cmd, a.serverConfig(addr))
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address host:port (default from http.addr)")
	return cmd
}

// serverConfig resolves the HTTP parameters: flags win over config.yaml.
func (a *app) serverConfig(addr string) types.ServerConfig {
	sc := types.ServerConfig{
		Addr: a.v.GetString(cfgKeyHTTPAddr),
		Mode: a.v.GetString(cfgKeyHTTPMode),
	}
	if addr != "" {
		sc.Addr = addr
	}
	if a.flags.mode != "" {
		sc.Mode = a.flags.mode
	}
	return sc
}

// serve runs the HTTP server until ctx is cancelled.
func (a *app) serve(ctx context.Context, cmd *cobra.Command, sc types.ServerConfig) error {
	if err := sc.Validate(); err != nil {
		return userError(err)
	}
	factory, err := a.openFactory(sc.Mode)
	if err != nil {
		return err
	}

	ln, err := net.Listen("tcp", sc.Addr)
	if err != nil {
		return sysError(fmt.Errorf("listen on %s: %w", sc.Addr, err))
	}

	srv := &http.Server{
		Handler:      httpapi.NewRouter(factory, a.logger).Setup(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("Starting server", zap.String("address", ln.Addr().String()), zap.String("mode", sc.Mode))
		errCh <- srv.Serve(ln)
	}()
	fmt.Fprintf(cmd.OutOrStdout(), "MemoNest listening on %s (mode %s)\n", ln.Addr(), sc.Mode)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return sysError(fmt.Errorf("serve: %w", err))
	case <-ctx.Done():
	}

	a.logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return sysError(fmt.Errorf("shutdown: %w", err))
	}
	return nil
}
