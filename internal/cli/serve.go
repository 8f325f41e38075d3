package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	httpadapter "github.com/aretw0/scout/pkg/adapters/http"
	"github.com/aretw0/scout/pkg/adapters/mcp"
)

// ServeOptions configures the HTTP API.
type ServeOptions struct {
	GlobalOptions
	// Addr overrides http.addr from the config file.
	Addr string
}

// Serve runs the HTTP API until ctx is cancelled.
func Serve(ctx context.Context, opts ServeOptions, out io.Writer) error {
	logger, err := CreateLogger(opts.GlobalOptions)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(opts.GlobalOptions)
	if err != nil {
		return err
	}
	asm, err := createEngine(ctx, cfg, BuildOptions{Logger: logger})
	if err != nil {
		return err
	}
	defer asm.Close()

	addr := opts.Addr
	if addr == "" {
		addr = cfg.HTTP.Addr
	}
	handler := httpadapter.NewHandler(asm.Engine,
		httpadapter.WithStreams(asm.Streams),
		httpadapter.WithMetricsHandler(asm.Metrics.Handler()),
		httpadapter.WithLogger(logger),
	)
	printSystemMessage(out, "HTTP API listening on %s", addr)
	return listen(ctx, logger, &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	})
}

func listen(ctx context.Context, logger *slog.Logger, srv *http.Server) error {
	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("server listening", "address", srv.Addr)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		logger.Info("shutdown signal received, shutting down server")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

// MCPOptions configures the MCP server.
type MCPOptions struct {
	GlobalOptions
	// Transport is "stdio" (default) or "sse".
	Transport string
	Addr      string
}

// ServeMCP exposes the engine to MCP clients.
func ServeMCP(ctx context.Context, opts MCPOptions) error {
	logger, err := CreateLogger(opts.GlobalOptions)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(opts.GlobalOptions)
	if err != nil {
		return err
	}
	asm, err := createEngine(ctx, cfg, BuildOptions{Logger: logger})
	if err != nil {
		return err
	}
	defer asm.Close()

	srv := mcp.NewServer(asm.Engine, logger)
	switch opts.Transport {
	case "", "stdio":
		return srv.ServeStdio()
	case "sse":
		addr := opts.Addr
		if addr == "" {
			addr = ":8081"
		}
		return srv.ServeSSE(ctx, addr)
	default:
		return fmt.Errorf("unknown transport %q (want stdio or sse)", opts.Transport)
	}
}
