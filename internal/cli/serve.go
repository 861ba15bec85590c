package cli

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/loomproc/loom/pkg/errors"
	"github.com/loomproc/loom/pkg/graphout"
	"github.com/loomproc/loom/pkg/pipeline"
	"github.com/loomproc/loom/pkg/report"
)

// serveCommand creates the serve command exposing processing over HTTP.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the processing API over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = c.Config.Serve.Addr
			}
			runner, err := c.newRunner(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer runner.Cache.Close()

			store, err := c.Config.OpenReportStore(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			api := &apiServer{runner: runner, store: store, logger: c.Logger}
			srv := &http.Server{
				Addr:              addr,
				Handler:           api.routes(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() { errCh <- srv.ListenAndServe() }()
			c.Logger.Info("serving", "addr", addr)

			select {
			case <-cmd.Context().Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			case err := <-errCh:
				return err
			}
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8484)")
	return cmd
}

// apiServer holds the dependencies of the HTTP API handlers.
type apiServer struct {
	runner *pipeline.Runner
	store  report.Store
	logger *log.Logger
}

// routes builds the API router.
func (s *apiServer) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Post("/process", s.handleProcess)
		r.Get("/reports", s.handleListReports)
		r.Get("/reports/{id}", s.handleGetReport)
		r.Delete("/reports/{id}", s.handleDeleteReport)
	})
	return r
}

func (s *apiServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// processRequest is the body of POST /api/process.
type processRequest struct {
	// Path is the index archive to process, resolved on the server.
	Path string `json:"path"`
	// Refresh bypasses cached results.
	Refresh bool `json:"refresh,omitempty"`
	// StrictCycles fails the run on injection cycles.
	StrictCycles bool `json:"strictCycles,omitempty"`
}

// processResponse is the body of a successful POST /api/process.
type processResponse struct {
	Report *report.Report    `json:"report"`
	Graph  graphout.Document `json:"graph"`
}

func (s *apiServer) handleProcess(w http.ResponseWriter, r *http.Request) {
	var req processRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.New(errors.ErrCodeInvalidFormat, "decode request: %v", err))
		return
	}
	if req.Path == "" {
		writeError(w, errors.New(errors.ErrCodeInvalidConfig, "path is required"))
		return
	}

	result, err := s.runner.Execute(r.Context(), pipeline.Options{
		IndexPath:    req.Path,
		Refresh:      req.Refresh,
		StrictCycles: req.StrictCycles,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	rep := report.Build(result.Deployment, req.Path, result.IndexHash)
	rep.ID = result.RunID
	if err := s.store.Put(r.Context(), rep); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, processResponse{
		Report: rep,
		Graph:  graphout.ToDocument(result.Graph),
	})
}

func (s *apiServer) handleListReports(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, errors.New(errors.ErrCodeInvalidConfig, "invalid limit: %s", v))
			return
		}
		limit = n
	}

	reports, err := s.store.List(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if reports == nil {
		reports = []*report.Report{}
	}
	writeJSON(w, http.StatusOK, reports)
}

func (s *apiServer) handleGetReport(w http.ResponseWriter, r *http.Request) {
	rep, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (s *apiServer) handleDeleteReport(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// errorResponse is the JSON body of failed API calls.
type errorResponse struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps a processing error to an HTTP status from its error code.
func writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	status := http.StatusInternalServerError
	switch code {
	case errors.ErrCodeNotFound, errors.ErrCodeClassNotFound, errors.ErrCodeFileNotFound, errors.ErrCodeReportNotFound:
		status = http.StatusNotFound
	case errors.ErrCodeInvalidConfig, errors.ErrCodeInvalidFormat:
		status = http.StatusBadRequest
	case errors.ErrCodeDefinition, errors.ErrCodeSignature, errors.ErrCodeDeployment, errors.ErrCodeInvalidIndex:
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, errorResponse{Code: string(code), Error: errors.UserMessage(err)})
}
