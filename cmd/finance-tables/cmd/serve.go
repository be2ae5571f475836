package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pigeonworks-llc/finance-tables/internal/api"
)

var servePort int

// serveCmd represents the serve command.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start the HTTP API server on the configured port.

Every request reads the dataset file again; mutations rewrite the whole
file, snapshot its previous content and are logged to the history
database.

Example:
  finance-tables serve
  finance-tables serve --port 8080`,
	Run: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "port to listen on (default is $PORT or 5000)")
}

func runServe(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig()
	exitOnError(err, "failed to load configuration")
	if servePort != 0 {
		cfg.Server.Port = servePort
	}

	// Setup structured JSON logging.
	logLevel := slog.LevelInfo
	if debug {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	a, err := openApp(cfg, logger)
	exitOnError(err, "failed to initialize")
	defer func() {
		if err := a.Close(); err != nil {
			slog.Error("failed to close databases", "error", err)
		}
	}()

	slog.Info("datasets configured", "data_root", a.paths.GetDataRoot(), "datasets", a.catalog.Names())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	if err := listenAndServe(ctx, addr, api.NewRouter(a.service, logger)); err != nil {
		slog.Error("server error", "error", err)
		a.Close()
		os.Exit(1)
	}

	slog.Info("server stopped")
}

// newServer returns an HTTP server with the read, write and idle timeouts
// used by the API.
func newServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// listenAndServe serves handler on addr until ctx is done, then shuts the
// server down gracefully.
func listenAndServe(ctx context.Context, addr string, handler http.Handler) error {
	server := newServer(addr, handler)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting finance-tables API", "addr", addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}
