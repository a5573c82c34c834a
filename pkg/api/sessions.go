package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/flowscope/pkg/buildinfo"
	"github.com/matzehuels/flowscope/pkg/config"
	ferrors "github.com/matzehuels/flowscope/pkg/errors"
	"github.com/matzehuels/flowscope/pkg/render"
	"github.com/matzehuels/flowscope/pkg/render/nodelink"
	"github.com/matzehuels/flowscope/pkg/render/scene"
	"github.com/matzehuels/flowscope/pkg/render/svg"
	"github.com/matzehuels/flowscope/pkg/session"
)

// Drag phases accepted by the drag route.
const (
	DragStart   = "start"
	DragMove    = "move"
	DragEnd     = "end"
	DragRelease = "release"
)

// CreateSessionRequest starts a session. Config is a partial configuration
// applied on top of the server defaults; Settle runs that many ticks before
// the session is returned.
type CreateSessionRequest struct {
	TraceID string          `json:"trace_id"`
	Config  json.RawMessage `json:"config,omitempty"`
	Frame   int             `json:"frame,omitempty"`
	Settle  int             `json:"settle,omitempty"`
}

// FrameRequest jumps to a frame.
type FrameRequest struct {
	Frame int `json:"frame"`
}

// DragRequest is one step of a drag gesture.
type DragRequest struct {
	Node  string  `json:"node"`
	Phase string  `json:"phase"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

// SessionResponse is the observable state of a session.
type SessionResponse struct {
	ID         string        `json:"id"`
	TraceID    string        `json:"trace_id,omitempty"`
	Frame      int           `json:"frame"`
	FrameCount int           `json:"frame_count"`
	Label      string        `json:"label"`
	Kind       string        `json:"kind"`
	Alpha      float64       `json:"alpha"`
	Running    bool          `json:"running"`
	CreatedAt  time.Time     `json:"created_at"`
	LastActive time.Time     `json:"last_active"`
	Config     config.Config `json:"config"`
}

func sessionResponse(sess *session.Session) SessionResponse {
	st := sess.Status()
	return SessionResponse{
		ID:         st.ID,
		TraceID:    st.TraceID,
		Frame:      st.Frame,
		FrameCount: st.FrameCount,
		Label:      st.Label,
		Kind:       string(st.Kind),
		Alpha:      st.Alpha,
		Running:    st.Running,
		CreatedAt:  st.CreatedAt,
		LastActive: st.LastActive,
		Config:     st.Config,
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": s.sessions.Len(),
		"build":    buildinfo.Get(),
	})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if s.metrics == nil {
		s.respondError(w, r, ferrors.New(ferrors.ErrCodeNotFound, "metrics are disabled"))
		return
	}
	s.metrics.Handler().ServeHTTP(w, r)
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := s.decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	if req.TraceID == "" {
		s.respondError(w, r, ferrors.New(ferrors.ErrCodeInvalidInput, "trace_id is required"))
		return
	}

	t, err := s.store.Get(r.Context(), req.TraceID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	g, err := t.Graph()
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	cfg := s.base
	if len(req.Config) > 0 {
		if cfg, err = config.Overlay(cfg, req.Config, config.FormatJSON); err != nil {
			s.respondError(w, r, err)
			return
		}
	}

	sess, err := session.New(g, cfg, session.WithTraceID(t.ID), session.WithLogger(s.logger))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	sess.SetFrame(req.Frame)
	if req.Settle > 0 {
		sess.Settle(req.Settle)
	}
	s.sessions.Add(s.ctx, sess, s.newTicker(cfg.Simulation.TickRate))

	s.logger.Info("session started", "session", sess.ID(), "trace", t.ID, "frames", sess.FrameCount())
	s.respondJSON(w, http.StatusCreated, sessionResponse(sess))
}

func (s *Server) handleListSessions(w http.ResponseWriter, _ *http.Request) {
	list := s.sessions.List()
	out := make([]SessionResponse, len(list))
	for i, sess := range list {
		out[i] = sessionResponse(sess)
	}
	s.respondJSON(w, http.StatusOK, out)
}

// withSession resolves the {id} parameter before calling fn.
func (s *Server) withSession(fn func(w http.ResponseWriter, r *http.Request, sess *session.Session)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := s.sessions.Get(chi.URLParam(r, "id"))
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		fn(w, r, sess)
	}
}

func (s *Server) handleGetSession(w http.ResponseWriter, _ *http.Request, sess *session.Session) {
	s.respondJSON(w, http.StatusOK, sessionResponse(sess))
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Delete(chi.URLParam(r, "id")); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetFrame(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	var req FrameRequest
	if err := s.decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	sess.SetFrame(req.Frame)
	s.respondJSON(w, http.StatusOK, sessionResponse(sess))
}

func (s *Server) handleNext(w http.ResponseWriter, _ *http.Request, sess *session.Session) {
	sess.Next()
	s.respondJSON(w, http.StatusOK, sessionResponse(sess))
}

func (s *Server) handlePrevious(w http.ResponseWriter, _ *http.Request, sess *session.Session) {
	sess.Previous()
	s.respondJSON(w, http.StatusOK, sessionResponse(sess))
}

// sceneFor builds the current frame, or the one named by ?frame= without
// moving playback.
func sceneFor(r *http.Request, sess *session.Session) (*scene.Scene, error) {
	v := r.URL.Query().Get("frame")
	if v == "" {
		return sess.Scene()
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return nil, ferrors.Wrap(ferrors.ErrCodeInvalidInput, err, "frame")
	}
	if err := ferrors.ValidateFrameIndex(i, sess.FrameCount()); err != nil {
		return nil, err
	}
	return sess.SceneAt(i)
}

func (s *Server) handleScene(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	sc, err := sceneFor(r, sess)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, sc)
}

// handleSVG draws the scene directly, or through graphviz with
// ?graphviz=true (pinned to the live positions).
func (s *Server) handleSVG(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	sc, err := sceneFor(r, sess)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	var data []byte
	if queryBool(r.URL.Query().Get("graphviz")) {
		opts := nodelink.Options{Pinned: true, Detailed: queryBool(r.URL.Query().Get("detailed"))}
		if data, err = nodelink.Render(sc, opts); err != nil {
			s.respondError(w, r, err)
			return
		}
	} else {
		data = svg.Render(sc, svg.WithStrokeWidth(sess.Config().Style.StrokeWidth))
	}
	w.Header().Set("Content-Type", contentTypes[render.FormatSVG])
	_, _ = w.Write(data)
}

func (s *Server) handleDrag(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	var req DragRequest
	if err := s.decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	var err error
	switch req.Phase {
	case DragStart:
		err = sess.DragStart(req.Node)
	case DragMove:
		err = sess.DragMove(req.Node, req.X, req.Y)
	case DragEnd:
		err = sess.DragEnd(req.Node)
	case DragRelease:
		err = sess.Release(req.Node)
	default:
		err = ferrors.New(ferrors.ErrCodeInvalidInput, "unknown drag phase %q", req.Phase)
	}
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handlePatchConfig merges a partial configuration into the session's.
// An invalid result leaves the session unchanged.
func (s *Server) handlePatchConfig(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	body, err := s.readBody(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	next, err := config.Overlay(sess.Config(), body, config.FormatJSON)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := sess.SetConfig(next); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, sessionResponse(sess))
}
