package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/vk/ngstatic/internal/ctxlog"
)

// healthHandler answers liveness probes.
func (a *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	a.logger.Debug("Health check endpoint hit.", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "OK")
}

// previewHandler serves the output directory. It is looked up on every
// request, so files published by later builds are served as they appear.
func (a *App) previewHandler(outDir string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", a.healthHandler)
	mux.Handle("/", http.FileServer(http.Dir(outDir)))
	return mux
}

// startPreviewServer starts serving outDir on the configured port.
func (a *App) startPreviewServer(ctx context.Context, outDir string) error {
	logger := ctxlog.FromContext(ctx)
	addr := fmt.Sprintf(":%d", a.config.ServePort)

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to start preview server: %w", err)
	}
	a.httpServer = &http.Server{
		Handler:           a.previewHandler(outDir),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("🌐 Preview server starting", "address", fmt.Sprintf("http://localhost%s/", addr))
		if err := a.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Preview server failed unexpectedly", "error", err)
		}
	}()
	return nil
}

func (a *App) closePreviewServer(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)
	if a.httpServer == nil {
		logger.Debug("Preview server was not running.")
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	logger.Info("🌐 Shutting down preview server...")
	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Preview server shutdown failed", "error", err)
		return err
	}
	a.httpServer = nil
	return nil
}
