package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler serves the default registry at path ("/metrics" when empty).
func Handler(path string) http.Handler {
	if path == "" {
		path = "/metrics"
	}
	mux := http.NewServeMux()
	mux.Handle(path, promhttp.Handler())
	return mux
}

// Endpoint is a running metrics listener.
type Endpoint struct {
	ln  net.Listener
	srv *http.Server
}

// Listen binds addr before serving, so an address in use fails the session
// at startup instead of being logged from a background goroutine.
func Listen(addr, path string) (*Endpoint, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("metrics listen %s: %w", addr, err)
	}

	e := &Endpoint{
		ln: ln,
		srv: &http.Server{
			Handler:           Handler(path),
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
	go func() {
		if err := e.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics endpoint failed", "addr", e.Addr(), "error", err)
		}
	}()

	slog.Info("metrics endpoint listening", "addr", e.Addr(), "path", path)
	return e, nil
}

// Addr returns the bound address.
func (e *Endpoint) Addr() string {
	return e.ln.Addr().String()
}

// Shutdown stops the listener and waits for in-flight scrapes.
func (e *Endpoint) Shutdown(ctx context.Context) error {
	return e.srv.Shutdown(ctx)
}
