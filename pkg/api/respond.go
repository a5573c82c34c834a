package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	ferrors "github.com/matzehuels/flowscope/pkg/errors"
	"github.com/matzehuels/flowscope/pkg/observability"
	"github.com/matzehuels/flowscope/pkg/session"
	"github.com/matzehuels/flowscope/pkg/store"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error   ferrors.Code `json:"error"`
	Message string       `json:"message"`
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("encode response", "err", err)
	}
}

// respondError maps err to its status. Errors without a code are logged
// and reported as internal errors without details.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	err = classify(err)
	code := ferrors.GetCode(err)
	msg := ferrors.UserMessage(err)
	if code == "" {
		code = ferrors.ErrCodeInternal
	}
	status := ferrors.HTTPStatus(code)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "request_id", middleware.GetReqID(r.Context()), "err", err)
		if code == ferrors.ErrCodeInternal {
			msg = "internal error"
		}
	}
	observability.HTTP().OnError(r.Context(), r.Method, routePattern(r), err)
	s.respondJSON(w, status, ErrorResponse{Error: code, Message: msg})
}

// classify attaches codes to the sentinel errors of the backends.
func classify(err error) error {
	switch {
	case ferrors.GetCode(err) != "":
		return err
	case errors.Is(err, session.ErrNotFound):
		return ferrors.Wrap(ferrors.ErrCodeSessionNotFound, err, "session not found")
	case errors.Is(err, store.ErrNotFound):
		return ferrors.Wrap(ferrors.ErrCodeTraceNotFound, err, "trace not found")
	}
	return err
}

// decodeJSON decodes the body into v. An empty body leaves v unchanged.
func (s *Server) decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return ferrors.Wrap(ferrors.ErrCodeInvalidInput, err, "invalid request body")
	}
	return nil
}

func (s *Server) readBody(r *http.Request) ([]byte, error) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return nil, ferrors.New(ferrors.ErrCodeInvalidInput, "request body exceeds %d bytes", tooBig.Limit)
		}
		return nil, fmt.Errorf("read body: %w", err)
	}
	return data, nil
}

// instrument limits bodies and reports every request to the HTTP hooks
// under its route pattern.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		r.Body = http.MaxBytesReader(w, r.Body, s.maxBodyBytes)
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		observability.HTTP().OnRequest(r.Context(), r.Method, r.URL.Path)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		d := time.Since(start)
		observability.HTTP().OnResponse(r.Context(), r.Method, routePattern(r), status, d)
		s.logger.Debug("request", "method", r.Method, "route", routePattern(r), "status", status, "duration", d)
	})
}

func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}
