// Package server exposes the run archive and its output artifacts over
// a small REST API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/avollmer/starpipe/internal/archive"
)

// Server serves archived runs and their generated files.
type Server struct {
	store  archive.Store
	outDir string
	logger *zap.SugaredLogger
	http   http.Server
}

// New creates a server over the given archive and output directory.
func New(store archive.Store, outDir, listenAddr string, logger *zap.SugaredLogger) *Server {
	s := &Server{
		store:  store,
		outDir: outDir,
		logger: logger,
	}
	s.http = http.Server{
		Addr:         listenAddr,
		Handler:      s.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return s
}

// Router builds the route table. Exposed so tests can drive the
// handlers without a listening socket.
func (s *Server) Router() *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/healthz", s.getHealth).Methods(http.MethodGet)
	router.HandleFunc("/runs", s.getRuns).Methods(http.MethodGet)
	router.HandleFunc("/runs/{id}", s.getRun).Methods(http.MethodGet)
	router.HandleFunc("/runs/{id}/files/{name}", s.getRunFile).Methods(http.MethodGet)
	return router
}

// Start runs the HTTP server until the context is cancelled.
func (s *Server) Start(ctx context.Context) error {
	errChan := make(chan error, 1)
	go func() {
		s.logger.Infof("results server listening on %s", s.http.Addr)
		err := s.http.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down results server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.http.Shutdown(shutdownCtx)
	}
}

func (s *Server) getHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) getRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := s.store.ListRuns(r.Context())
	if err != nil {
		s.logger.Errorf("error listing runs: %v", err)
		http.Error(w, "error listing runs", http.StatusInternalServerError)
		return
	}
	if runs == nil {
		runs = []archive.Run{}
	}
	s.writeJSON(w, http.StatusOK, runs)
}

func (s *Server) getRun(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	run, err := s.store.GetRun(r.Context(), id)
	if err != nil {
		if errors.Is(err, archive.ErrNotFound) {
			http.Error(w, "run not found", http.StatusNotFound)
			return
		}
		s.logger.Errorf("error fetching run %s: %v", id, err)
		http.Error(w, "error fetching run", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, http.StatusOK, run)
}

// getRunFile serves one generated artifact (CSV, report or plot) from
// the run's output directory. File names are restricted to a single
// path element so clients cannot walk outside the output tree.
func (s *Server) getRunFile(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id := vars["id"]
	name := vars["name"]

	if name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		http.Error(w, "invalid file name", http.StatusBadRequest)
		return
	}

	run, err := s.store.GetRun(r.Context(), id)
	if err != nil {
		if errors.Is(err, archive.ErrNotFound) {
			http.Error(w, "run not found", http.StatusNotFound)
			return
		}
		s.logger.Errorf("error fetching run %s: %v", id, err)
		http.Error(w, "error fetching run", http.StatusInternalServerError)
		return
	}

	dir := run.OutputDir
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(s.outDir, filepath.Base(dir))
	}
	path := filepath.Join(dir, name)
	if _, err := os.Stat(path); err != nil {
		http.Error(w, "file not found", http.StatusNotFound)
		return
	}
	http.ServeFile(w, r, path)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Errorf("error encoding response: %v", err)
	}
}

// ListenAddr reports the configured listen address.
func (s *Server) ListenAddr() string {
	return s.http.Addr
}
