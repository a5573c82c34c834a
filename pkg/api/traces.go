package api

import (
	"bytes"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	ferrors "github.com/matzehuels/flowscope/pkg/errors"
	"github.com/matzehuels/flowscope/pkg/graph"
	flowio "github.com/matzehuels/flowscope/pkg/io"
	"github.com/matzehuels/flowscope/pkg/pipeline"
	"github.com/matzehuels/flowscope/pkg/render"
)

// contentTypes maps output formats to their media types.
var contentTypes = map[string]string{
	render.FormatSVG:  "image/svg+xml",
	render.FormatDOT:  "text/vnd.graphviz",
	render.FormatJSON: "application/json",
	render.FormatPDF:  "application/pdf",
	render.FormatPNG:  "image/png",
}

// inputFormat picks the trace format from the request media type, or ""
// to sniff the body.
func inputFormat(r *http.Request) string {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return ""
	}
	switch mt {
	case "application/json":
		return flowio.FormatJSON
	case "text/plain":
		return flowio.FormatNetwork
	}
	return ""
}

func (s *Server) handleCreateTrace(w http.ResponseWriter, r *http.Request) {
	body, err := s.readBody(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if len(bytes.TrimSpace(body)) == 0 {
		s.respondError(w, r, ferrors.New(ferrors.ErrCodeInvalidInput, "empty trace"))
		return
	}
	doc, err := flowio.ReadDocument(bytes.NewReader(body), inputFormat(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if name := r.URL.Query().Get("name"); name != "" {
		doc.Name = name
	}

	t, err := s.store.Put(r.Context(), doc)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.logger.Info("stored trace", "id", t.ID, "name", t.Name, "frames", t.FrameCount)
	s.respondJSON(w, http.StatusCreated, t.Summary)
}

func (s *Server) handleListTraces(w http.ResponseWriter, r *http.Request) {
	list, err := s.store.List(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, list)
}

func (s *Server) handleGetTrace(w http.ResponseWriter, r *http.Request) {
	t, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, t)
}

func (s *Server) handleDeleteTrace(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleRenderTrace renders one frame of a stored trace through the
// cached batch pipeline. Query: format, frame, graphviz, detailed, pinned,
// scale.
func (s *Server) handleRenderTrace(w http.ResponseWriter, r *http.Request) {
	t, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	q := r.URL.Query()
	opts := pipeline.Options{
		Format:   flowio.FormatJSON,
		Name:     t.Name,
		Config:   s.base,
		Formats:  []string{pipeline.DefaultFormat},
		Graphviz: queryBool(q.Get("graphviz")),
		Detailed: queryBool(q.Get("detailed")),
		Pinned:   queryBool(q.Get("pinned")),
	}
	if f := q.Get("format"); f != "" {
		opts.Formats = []string{f}
	}
	frame := 0
	if v := q.Get("frame"); v != "" {
		if frame, err = strconv.Atoi(v); err != nil {
			s.respondError(w, r, ferrors.Wrap(ferrors.ErrCodeInvalidInput, err, "frame"))
			return
		}
	}
	opts.Frames = []int{frame}
	if v := q.Get("scale"); v != "" {
		if opts.Scale, err = strconv.ParseFloat(v, 64); err != nil {
			s.respondError(w, r, ferrors.Wrap(ferrors.ErrCodeInvalidInput, err, "scale"))
			return
		}
	}
	if opts.Source, err = graph.MarshalDocument(t.Document); err != nil {
		s.respondError(w, r, err)
		return
	}

	result, err := s.runner.Execute(r.Context(), opts)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	a := result.Artifacts[0]
	w.Header().Set("Content-Type", contentTypes[a.Format])
	w.Header().Set("X-Frame-Label", a.Label)
	_, _ = w.Write(a.Data)
}

func queryBool(v string) bool {
	b, _ := strconv.ParseBool(v)
	return b
}
