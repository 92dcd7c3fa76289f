package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/conneroisu/storybridge/internal/renderer"
	"github.com/conneroisu/storybridge/internal/validation"
	"github.com/conneroisu/storybridge/internal/version"
)

// Route labels used for request metrics.
const (
	routeHealth     = "health"
	routeComponents = "components"
	routeMetadata   = "metadata"
	routeRender     = "render"
	routeOptions    = "options"
	routeMetrics    = "metrics"
	routeWebSocket  = "ws"
	routeUnmatched  = "unmatched"
)

const (
	metadataSuffix = "/metadata"
	maxRenderBody  = 1 << 20
	timestampISO   = "2006-01-02T15:04:05.000Z"
)

// HealthResponse is the body of GET /{prefix}/health.
type HealthResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// ComponentsResponse is the body of GET /{prefix}/components.
type ComponentsResponse struct {
	Components []string `json:"components"`
	Count      int      `json:"count"`
}

// RenderRequest is the body of POST /{prefix}/render/{id}.
type RenderRequest struct {
	Args    map[string]any `json:"args"`
	Context map[string]any `json:"context"`
}

// Handler returns the HTTP handler. When gating fails no route is mounted
// and every request gets 404.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	if s.config.RoutesEnabled() {
		p := "/" + s.config.RoutePrefix

		s.route(mux, "GET "+p+"/health", routeHealth, s.handleHealth)
		s.route(mux, "GET "+p+"/components", routeComponents, s.handleComponents)
		s.route(mux, "GET "+p+"/components/{path...}", routeMetadata, s.handleMetadata)
		s.route(mux, "POST "+p+"/render/{id...}", routeRender, s.handleRender)
		mux.HandleFunc(p+"/{any...}", s.handleFallback)

		if s.metrics != nil {
			s.route(mux, "GET "+p+"/metrics", routeMetrics, s.metrics.Handler().ServeHTTP)
		}
		if s.hub != nil {
			s.route(mux, "GET "+p+"/ws", routeWebSocket, s.handleWebSocket)
		}
	}

	return s.recoverPanics(s.withRequestID(s.observe(s.cors(mux))))
}

// route registers h and labels its requests for metrics.
func (s *Server) route(mux *http.ServeMux, pattern, label string, h http.HandlerFunc) {
	mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		if rec, ok := w.(*statusRecorder); ok {
			rec.route = label
		}
		h(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	v := s.config.Version
	if v == "" {
		v = version.Get().Short()
	}

	s.writeJSON(w, r, http.StatusOK, HealthResponse{
		Status:    "ok",
		Service:   ServiceName,
		Timestamp: s.now().UTC().Format(timestampISO),
		Version:   v,
	})
}

func (s *Server) handleComponents(w http.ResponseWriter, r *http.Request) {
	ids, err := s.lister.List(r.Context())
	if err != nil {
		s.logger.Error(r.Context(), err, "Failed to list components")
		s.writeError(w, r, http.StatusInternalServerError, "failed to list components")
		return
	}

	s.metrics.SetComponents(len(ids))
	s.writeJSON(w, r, http.StatusOK, ComponentsResponse{Components: ids, Count: len(ids)})
}

// handleMetadata serves /components/{id}/metadata. Identifiers may contain
// slashes, so the id is everything before the trailing /metadata.
func (s *Server) handleMetadata(w http.ResponseWriter, r *http.Request) {
	path := r.PathValue("path")
	if !strings.HasSuffix(path, metadataSuffix) {
		http.NotFound(w, r)
		return
	}

	id := strings.TrimSuffix(path, metadataSuffix)
	s.writeJSON(w, r, http.StatusOK, s.inspector.Describe(r.Context(), id))
}

// handleRender always answers 200 with HTML; failures are fallback cards.
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	req := s.decodeRenderRequest(r)
	html := s.dispatcher.Render(r.Context(), r.PathValue("id"), req.Args, req.Context)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := io.WriteString(w, html); err != nil {
		s.logger.Warn(r.Context(), err, "Failed to write render response")
	}
}

// decodeRenderRequest is lenient: an empty or malformed body renders with
// empty args and context.
func (s *Server) decodeRenderRequest(r *http.Request) RenderRequest {
	var req RenderRequest

	body, err := io.ReadAll(io.LimitReader(r.Body, maxRenderBody+1))
	if err != nil {
		s.logger.Warn(r.Context(), err, "Failed to read render body")
		return RenderRequest{}
	}
	if len(body) > maxRenderBody {
		s.logger.Warn(r.Context(), nil, "Render body too large; rendering without args", "limit", maxRenderBody)
		return RenderRequest{}
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return req
	}

	if err := renderer.DecodeJSON(body, &req); err != nil {
		s.logger.Warn(r.Context(), err, "Malformed render body; rendering without args")
		return RenderRequest{}
	}

	req.Args = renderer.NormalizeArgs(req.Args)
	req.Context = renderer.NormalizeArgs(req.Context)
	return req
}

// handleFallback answers CORS preflight requests anywhere under the prefix
// and 404s everything else. The CORS headers are set by the middleware.
func (s *Server) handleFallback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodOptions {
		http.NotFound(w, r)
		return
	}

	if rec, ok := w.(*statusRecorder); ok {
		rec.route = routeOptions
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	allowed := make([]string, 0, len(s.config.CORS.AllowedOrigins)+1)
	allowed = append(allowed, s.config.CORS.AllowedOrigins...)
	allowed = append(allowed, r.Host)

	if err := validation.ValidateOrigin(r.Header.Get("Origin"), allowed); err != nil {
		s.logger.Warn(r.Context(), err, "Rejected live reload connection")
		http.Error(w, "Origin not allowed", http.StatusForbidden)
		return
	}

	s.hub.ServeHTTP(w, r)
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Warn(r.Context(), err, "Failed to encode JSON response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	s.writeJSON(w, r, status, map[string]string{"error": message})
}
