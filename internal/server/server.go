// Package server exposes the REST API. Handlers decode, call the app, and
// encode; request-scoped logging, rate limiting, and security headers are
// middleware around the mux.
package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"paintcode/internal/app"
	"paintcode/internal/ratelimit"
	"paintcode/internal/util"
	"paintcode/pkg/domain"
	"paintcode/pkg/paint"
	"paintcode/pkg/resolver"
	"paintcode/pkg/session"
)

// Options configures the server.
type Options struct {
	App      *app.App
	Sessions *session.Manager

	// Per-route limiters, keyed by client IP. Nil disables that limit.
	LookupLimiter   ratelimit.Limiter
	ResearchLimiter ratelimit.Limiter
	UploadLimiter   ratelimit.Limiter

	TrustedProxies *util.TrustedProxies
	AllowedOrigins []string
	MaxUploadBytes int64
}

// Server is the HTTP front of the service.
type Server struct {
	app      *app.App
	sessions *session.Manager

	lookupLimiter   ratelimit.Limiter
	researchLimiter ratelimit.Limiter
	uploadLimiter   ratelimit.Limiter

	trustedProxies *util.TrustedProxies
	allowedOrigins []string
	maxUploadBytes int64
}

// New builds the server.
func New(opts Options) *Server {
	maxUpload := opts.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = 10 << 20
	}
	return &Server{
		app:             opts.App,
		sessions:        opts.Sessions,
		lookupLimiter:   opts.LookupLimiter,
		researchLimiter: opts.ResearchLimiter,
		uploadLimiter:   opts.UploadLimiter,
		trustedProxies:  opts.TrustedProxies,
		allowedOrigins:  opts.AllowedOrigins,
		maxUploadBytes:  maxUpload,
	}
}

// Handler assembles the routed handler with all middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("POST /api/session", s.handleNewSession)

	mux.HandleFunc("POST /api/chat", s.requireSession(s.limited(s.lookupLimiter, s.handleChat)))
	mux.HandleFunc("POST /api/analyze-image", s.requireSession(s.limited(s.uploadLimiter, s.handleAnalyzeImage)))

	mux.HandleFunc("POST /api/lookup-paint-code", s.limited(s.lookupLimiter, s.handleLookup))
	mux.HandleFunc("POST /api/diagnose-repair", s.limited(s.lookupLimiter, s.handleDiagnose))
	mux.HandleFunc("POST /api/research-paint-location", s.limited(s.researchLimiter, s.handleResearchLocation))
	mux.HandleFunc("POST /api/research-era-content", s.limited(s.researchLimiter, s.handleResearchEra))
	mux.HandleFunc("GET /api/colors/search", s.limited(s.lookupLimiter, s.handleSearchColors))
	mux.HandleFunc("GET /api/colors/similar", s.limited(s.lookupLimiter, s.handleSimilarColors))
	mux.HandleFunc("GET /api/brands", s.handleBrands)

	mux.HandleFunc("GET /api/conversations", s.requireSession(s.handleListConversations))
	mux.HandleFunc("GET /api/conversations/{id}", s.requireSession(s.handleGetConversation))
	mux.HandleFunc("DELETE /api/conversations/{id}", s.requireSession(s.handleDeleteConversation))

	var h http.Handler = mux
	h = util.WithRequestLog(h)
	h = util.WithSecurityHeaders(h)
	h = util.WithCORS(s.allowedOrigins, h)
	h = util.WithRequestID(h)
	return h
}

// limited applies a per-IP rate limit to a handler.
func (s *Server) limited(limiter ratelimit.Limiter, next http.HandlerFunc) http.HandlerFunc {
	if limiter == nil {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ip := util.ClientIP(r, s.trustedProxies)
		ok, retryAfter := limiter.Allow(ip)
		if !ok {
			seconds := int((retryAfter + time.Second - 1) / time.Second)
			if seconds < 1 {
				seconds = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(seconds))
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded, try again shortly")
			return
		}
		next(w, r)
	}
}

// requireSession enforces a valid bearer session token when sessions are
// configured. Without a session manager the API is open, for development.
func (s *Server) requireSession(next http.HandlerFunc) http.HandlerFunc {
	if s.sessions == nil {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok {
			writeError(w, http.StatusUnauthorized, "missing session token")
			return
		}
		if _, err := s.sessions.Verify(strings.TrimSpace(token)); err != nil {
			writeError(w, http.StatusUnauthorized, "invalid session token")
			return
		}
		next(w, r)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleNewSession(w http.ResponseWriter, _ *http.Request) {
	if s.sessions == nil {
		writeError(w, http.StatusNotFound, "sessions are not enabled")
		return
	}
	id := util.NewID()
	token, err := s.sessions.Issue(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not issue session")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"sessionId": id, "token": token})
}

type chatRequest struct {
	ConversationID string `json:"conversationId"`
	Message        string `json:"message"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}
	reply, err := s.app.HandleTurn(r.Context(), req.ConversationID, req.Message)
	if err != nil {
		if errors.Is(err, app.ErrConversationNotFound) {
			writeError(w, http.StatusNotFound, "conversation not found")
			return
		}
		serverError(w, r, "chat turn failed", err)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

func (s *Server) handleAnalyzeImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)

	contentType := r.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		writeError(w, http.StatusUnsupportedMediaType, "send the raw image with an image/* content type")
		return
	}
	image, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "image too large")
		return
	}
	if len(image) == 0 {
		writeError(w, http.StatusBadRequest, "empty image")
		return
	}

	reply, err := s.app.HandlePhoto(r.Context(), r.URL.Query().Get("conversationId"), contentType, image)
	if err != nil {
		if errors.Is(err, app.ErrConversationNotFound) {
			writeError(w, http.StatusNotFound, "conversation not found")
			return
		}
		serverError(w, r, "image analysis failed", err)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

type lookupRequest struct {
	Brand string `json:"brand"`
	Code  string `json:"code"`
}

func (s *Server) handleLookup(w http.ResponseWriter, r *http.Request) {
	var req lookupRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Brand == "" || req.Code == "" {
		writeError(w, http.StatusBadRequest, "brand and code are required")
		return
	}
	res, err := s.app.Lookup(r.Context(), req.Brand, req.Code)
	if err != nil {
		var nf *resolver.NotFoundError
		if errors.As(err, &nf) {
			writeJSON(w, http.StatusNotFound, map[string]any{
				"error":               "paint code not found",
				"fallbackToWebSearch": nf.FallbackToWebSearch,
			})
			return
		}
		serverError(w, r, "lookup failed", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type diagnoseRequest struct {
	Problem string `json:"problem"`
}

func (s *Server) handleDiagnose(w http.ResponseWriter, r *http.Request) {
	var req diagnoseRequest
	if !decodeBody(w, r, &req) {
		return
	}
	d, err := s.app.Diagnose(r.Context(), req.Problem)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "could not classify that damage description")
		return
	}
	writeJSON(w, http.StatusOK, d)
}

type researchRequest struct {
	Brand      string `json:"brand"`
	Model      string `json:"model"`
	Year       int    `json:"year"`
	RepairType string `json:"repairType"`
}

func (s *Server) handleResearchLocation(w http.ResponseWriter, r *http.Request) {
	var req researchRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Brand == "" {
		writeError(w, http.StatusBadRequest, "brand is required")
		return
	}
	writeJSON(w, http.StatusOK, s.app.ResearchLocation(r.Context(), req.Brand, req.Model, req.Year))
}

func (s *Server) handleResearchEra(w http.ResponseWriter, r *http.Request) {
	var req researchRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Brand == "" || req.Model == "" {
		writeError(w, http.StatusBadRequest, "brand and model are required")
		return
	}
	repair := domain.RepairType(req.RepairType)
	if req.RepairType != "" && !repair.Valid() {
		writeError(w, http.StatusBadRequest, "unknown repairType")
		return
	}
	content, err := s.app.ResearchEra(r.Context(), req.Brand, req.Model, req.Year, repair)
	if err != nil {
		serverError(w, r, "era research failed", err)
		return
	}
	writeJSON(w, http.StatusOK, content)
}

func (s *Server) handleSearchColors(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if strings.TrimSpace(query) == "" {
		writeError(w, http.StatusBadRequest, "query parameter q is required")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"colors": s.app.SearchColors(query)})
}

func (s *Server) handleSimilarColors(w http.ResponseWriter, r *http.Request) {
	ref, err := paint.HexToRGB(r.URL.Query().Get("hex"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "query parameter hex must be a 6-digit color")
		return
	}
	limit := 5
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 25 {
			limit = n
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"colors": s.app.SimilarColors(ref, limit)})
}

func (s *Server) handleBrands(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"brands": s.app.Brands()})
}

func (s *Server) handleListConversations(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	convs, err := s.app.Conversations(r.Context(), limit)
	if err != nil {
		serverError(w, r, "list conversations failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"conversations": convs})
}

func (s *Server) handleGetConversation(w http.ResponseWriter, r *http.Request) {
	conv, msgs, err := s.app.Conversation(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, app.ErrConversationNotFound) {
			writeError(w, http.StatusNotFound, "conversation not found")
			return
		}
		serverError(w, r, "get conversation failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"conversation": conv, "messages": msgs})
}

func (s *Server) handleDeleteConversation(w http.ResponseWriter, r *http.Request) {
	if err := s.app.DeleteConversation(r.Context(), r.PathValue("id")); err != nil {
		if errors.Is(err, app.ErrConversationNotFound) {
			writeError(w, http.StatusNotFound, "conversation not found")
			return
		}
		serverError(w, r, "delete conversation failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func decodeBody(w http.ResponseWriter, r *http.Request, out any) bool {
	defer r.Body.Close()
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	if err := dec.Decode(out); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func serverError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	util.LoggerFromContext(r.Context()).Error(msg, "err", err)
	writeError(w, http.StatusInternalServerError, msg)
}
