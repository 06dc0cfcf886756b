// Package fixture serves an offline replica of the password generator page.
// It mirrors the live page's markup and behaviour closely enough for the
// scenarios to run against it: length clamping, the last-option rule, the
// slider, regeneration and two copy controls.
package fixture

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/entrhq/pwgen-e2e/pkg/logging"
)

//go:embed page.html
var pageHTML []byte

// Path is where the generator page is served.
const Path = "/password-generator/"

// Page returns the embedded page markup.
func Page() []byte {
	return pageHTML
}

// Handler serves the page at / and Path, and 404 everywhere else.
func Handler() http.Handler {
	mux := http.NewServeMux()
	serve := func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodGet {
			_, _ = w.Write(pageHTML)
		}
	}
	mux.HandleFunc(Path, serve)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		serve(w, r)
	})
	return mux
}

// Server is a running fixture server.
type Server struct {
	srv    *http.Server
	ln     net.Listener
	logger *logging.Logger
	done   chan error
}

// Start listens on addr ("127.0.0.1:0" picks a free port) and serves the
// page in the background.
func Start(addr string, logger *logging.Logger) (*Server, error) {
	if logger == nil {
		logger = logging.Discard("fixture")
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	s := &Server{
		srv: &http.Server{
			Handler:           Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		},
		ln:     ln,
		logger: logger,
		done:   make(chan error, 1),
	}

	go func() {
		err := s.srv.Serve(ln)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		s.done <- err
	}()

	logger.Infof("fixture page serving at %s", s.URL())
	return s, nil
}

// URL returns the page URL.
func (s *Server) URL() string {
	return "http://" + s.ln.Addr().String() + Path
}

// Wait blocks until the server stops and returns its serve error.
func (s *Server) Wait() error {
	return <-s.done
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("fixture shutdown: %w", err)
	}
	s.logger.Infof("fixture page stopped")
	return nil
}
