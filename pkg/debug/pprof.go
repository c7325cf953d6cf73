// Package debug provides instrumentation for inspecting the sampler: a raw
// field dump, per-read timing and a pprof endpoint.
package debug

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	_ "net/http/pprof"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultPprofAddr is used when no address is given.
const DefaultPprofAddr = "localhost:6060"

// PprofServer serves the net/http/pprof handlers while a recording runs.
type PprofServer struct {
	server *http.Server
	ln     net.Listener
	logger *logrus.Logger
	done   chan struct{}
}

// StartPprofServer binds addr and serves pprof in the background. Bind errors
// are returned immediately.
func StartPprofServer(addr string, logger *logrus.Logger) (*PprofServer, error) {
	if addr == "" {
		addr = DefaultPprofAddr
	}
	if logger == nil {
		logger = logrus.New()
		logger.SetLevel(logrus.WarnLevel)
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("pprof server failed: %w", err)
	}

	p := &PprofServer{
		server: &http.Server{ReadHeaderTimeout: 10 * time.Second},
		ln:     ln,
		logger: logger,
		done:   make(chan struct{}),
	}

	go func() {
		defer close(p.done)
		logger.WithField("addr", p.Addr()).Info("pprof server listening")
		if err := p.server.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("pprof server stopped")
		}
	}()

	return p, nil
}

// Addr is the bound address, with the port resolved when ":0" was requested.
func (p *PprofServer) Addr() string {
	return p.ln.Addr().String()
}

// Stop shuts the server down and waits for it to exit.
func (p *PprofServer) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.server.Shutdown(ctx); err != nil {
		p.logger.WithError(err).Warn("pprof server shutdown")
	}
	<-p.done
}
