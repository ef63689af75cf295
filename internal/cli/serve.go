package cli

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	ugerrors "github.com/celosnet/ugantt/pkg/errors"
	"github.com/celosnet/ugantt/pkg/pipeline"
)

const maxDocumentSize = 1 << 20 // 1 MiB of YAML is a very large project

// newServeCmd creates the serve command: a small HTTP API around the
// pipeline so charts can be rendered without a local install.
func newServeCmd() *cobra.Command {
	var addr, theme string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve chart rendering over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), addr, theme)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().StringVar(&theme, "theme", "", "TOML theme file applied to all requests")
	return cmd
}

func runServe(ctx context.Context, addr, theme string) error {
	logger := loggerFromContext(ctx)
	srv := &http.Server{
		Addr:              addr,
		Handler:           newHandler(logger, theme),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Infof("Listening on %s", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		logger.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return ctx.Err()
	}
}

type server struct {
	logger *log.Logger
	runner *pipeline.Runner
	theme  string
}

// newHandler builds the HTTP routes:
//
//	GET  /healthz          liveness probe
//	POST /render?format=f  render the YAML request body; one format per call
func newHandler(logger *log.Logger, theme string) http.Handler {
	s := &server{logger: logger, runner: pipeline.NewRunner(logger), theme: theme}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Post("/render", s.handleRender)
	return r
}

// requestID tags every request with a UUID, echoed in the response and
// in log lines so server logs can be matched to client reports.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", id)
		next.ServeHTTP(w, r.WithContext(withRequestID(r.Context(), id)))
	})
}

type requestIDKey struct{}

func withRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func (s *server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			"id", requestIDFrom(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start).Round(time.Millisecond))
	})
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, "ok\n")
}

var contentTypes = map[string]string{
	pipeline.FormatSVG:  "image/svg+xml",
	pipeline.FormatPDF:  "application/pdf",
	pipeline.FormatJSON: "application/json",
}

func (s *server) handleRender(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = pipeline.FormatPDF
	}
	if _, ok := contentTypes[format]; !ok {
		s.writeError(w, r, http.StatusBadRequest,
			ugerrors.New(ugerrors.ErrCodeInvalidFormat, "unsupported format %q", format))
		return
	}

	source, err := io.ReadAll(io.LimitReader(r.Body, maxDocumentSize+1))
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}
	if len(source) > maxDocumentSize {
		s.writeError(w, r, http.StatusRequestEntityTooLarge,
			errors.New("document too large"))
		return
	}

	result, err := s.runner.Execute(r.Context(), pipeline.Options{
		Source:  source,
		Formats: []string{format},
		Theme:   s.theme,
		Logger:  s.logger,
	})
	if err != nil {
		status := http.StatusUnprocessableEntity
		if errors.Is(err, context.Canceled) {
			status = 499 // client closed request
		}
		s.writeError(w, r, status, err)
		return
	}

	// Partial results still render; surface the failure in a header so
	// clients can tell a clean chart from a degraded one.
	if result.Failed() {
		w.Header().Set("X-Unresolved-Rows", "true")
	}
	w.Header().Set("Content-Type", contentTypes[format])
	w.WriteHeader(http.StatusOK)
	w.Write(result.Artifacts[format])
}

func (s *server) writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	s.logger.Error("request failed",
		"id", requestIDFrom(r.Context()),
		"status", status,
		"err", err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{
		"error":      ugerrors.UserMessage(err),
		"request_id": requestIDFrom(r.Context()),
	})
}
