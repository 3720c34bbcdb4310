// Package api exposes parcel analysis over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Salah021-coder/start-up-sub000/internal/export"
	"github.com/Salah021-coder/start-up-sub000/internal/geo"
	"github.com/Salah021-coder/start-up-sub000/internal/model"
	"github.com/Salah021-coder/start-up-sub000/internal/pipeline"
	"github.com/Salah021-coder/start-up-sub000/internal/store"
)

const (
	maxBodyBytes   = 10 << 20
	maxBatchItems  = 500
	requestTimeout = 60 * time.Second
)

// Options configures a Server.
type Options struct {
	AllowedOrigins []string
	// BatchConcurrency bounds parallel analyses in a batch request.
	BatchConcurrency int
	// RateLimit is requests per second across all clients; 0 disables it.
	RateLimit float64
	RateBurst int
}

// Server serves the analysis API.
type Server struct {
	analyzer *pipeline.Analyzer
	store    store.Store
	opts     Options
}

// NewServer creates a Server. st is used for history and for requests that
// ask to save their result.
func NewServer(analyzer *pipeline.Analyzer, st store.Store, opts Options) *Server {
	if opts.BatchConcurrency < 1 {
		opts.BatchConcurrency = 1
	}
	return &Server{analyzer: analyzer, store: st, opts: opts}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))
	if s.opts.RateLimit > 0 {
		r.Use(rateLimit(rate.NewLimiter(rate.Limit(s.opts.RateLimit), s.opts.RateBurst)))
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Route("/v1/analyses", func(r chi.Router) {
		r.Post("/", s.handleCreate)
		r.Post("/batch", s.handleBatch)
		r.Get("/", s.handleList)
		r.Get("/{id}", s.handleGet)
		r.Get("/{id}/export", s.handleExport)
		r.Delete("/{id}", s.handleDelete)
	})
	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		zap.L().Debug("api: request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func rateLimit(lim *rate.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/health" && !lim.Allow() {
				w.Header().Set("Retry-After", "1")
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// analyzeRequest is the body of POST /v1/analyses.
type analyzeRequest struct {
	Features  *model.FeatureSet `json:"features"`
	TargetUse string            `json:"target_use,omitempty"`
	// Boundary is an optional GeoJSON geometry, feature or collection.
	Boundary json.RawMessage `json:"boundary,omitempty"`
	Save     bool            `json:"save,omitempty"`
}

type batchItem struct {
	Label     string            `json:"label"`
	Features  *model.FeatureSet `json:"features"`
	TargetUse string            `json:"target_use,omitempty"`
}

type batchRequest struct {
	Items []batchItem `json:"items"`
	Save  bool        `json:"save,omitempty"`
}

type batchItemResponse struct {
	Label    string             `json:"label"`
	Analysis *pipeline.Analysis `json:"analysis,omitempty"`
	Error    string             `json:"error,omitempty"`
}

type errorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Features == nil {
		writeError(w, http.StatusBadRequest, "features is required", nil)
		return
	}

	preq := pipeline.Request{Features: req.Features, TargetUse: req.TargetUse}
	if len(req.Boundary) > 0 {
		b, err := geo.ParseGeoJSON(req.Boundary)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid boundary", err)
			return
		}
		preq.Boundary = b
	}

	an, err := s.analyzer.Analyze(preq)
	if err != nil {
		zap.L().Error("api: analysis failed", zap.Error(err))
		writeError(w, http.StatusUnprocessableEntity, pipeline.ProfessionalAssessmentMsg, err)
		return
	}

	if req.Save {
		if err := s.store.SaveAnalysis(r.Context(), an); err != nil {
			zap.L().Error("api: save analysis failed", zap.String("analysis_id", an.ID), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to save analysis", err)
			return
		}
	}

	w.Header().Set("Location", "/v1/analyses/"+an.ID)
	writeJSON(w, http.StatusCreated, an)
}

func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if len(req.Items) == 0 {
		writeError(w, http.StatusBadRequest, "items is required", nil)
		return
	}
	if len(req.Items) > maxBatchItems {
		writeError(w, http.StatusRequestEntityTooLarge, "too many items (max "+strconv.Itoa(maxBatchItems)+")", nil)
		return
	}

	reqs := make([]pipeline.Request, len(req.Items))
	for i, it := range req.Items {
		reqs[i] = pipeline.Request{Label: it.Label, Features: it.Features, TargetUse: it.TargetUse}
	}

	var sink pipeline.SinkFunc
	if req.Save {
		sink = s.store.SaveAnalysis
	}

	results, err := s.analyzer.AnalyzeBatch(r.Context(), reqs, s.opts.BatchConcurrency, sink)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "batch interrupted", err)
		return
	}

	out := make([]batchItemResponse, len(results))
	for i, res := range results {
		out[i] = batchItemResponse{Label: res.Label, Analysis: res.Analysis}
		if res.Err != nil {
			out[i].Error = pipeline.ProfessionalAssessmentMsg + ": " + res.Err.Error()
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": out})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.ListFilter{
		TargetUse: q.Get("target_use"),
		RiskLevel: q.Get("risk_level"),
	}
	var err error
	if filter.Limit, err = intParam(q.Get("limit")); err != nil {
		writeError(w, http.StatusBadRequest, "invalid limit", err)
		return
	}
	if filter.Offset, err = intParam(q.Get("offset")); err != nil {
		writeError(w, http.StatusBadRequest, "invalid offset", err)
		return
	}

	list, err := s.store.ListAnalyses(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list analyses", err)
		return
	}
	if list == nil {
		list = []pipeline.Summary{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"analyses": list})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	an, ok := s.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, an)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid format", err)
		return
	}
	an, ok := s.lookup(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", contentType(format))
	w.Header().Set("Content-Disposition", `attachment; filename="`+an.ID+"."+string(format)+`"`)
	if err := export.Write(w, format, []*pipeline.Analysis{an}); err != nil {
		zap.L().Error("api: export failed", zap.String("analysis_id", an.ID), zap.Error(err))
	}
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.store.DeleteAnalysis(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "analysis not found", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete analysis", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*pipeline.Analysis, bool) {
	id := chi.URLParam(r, "id")
	an, err := s.store.GetAnalysis(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "analysis not found", nil)
		return nil, false
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load analysis", err)
		return nil, false
	}
	return an, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return false
	}
	return true
}

func intParam(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, eris.Errorf("api: %q must be a non-negative integer", v)
	}
	return n, nil
}

func contentType(f export.Format) string {
	switch f {
	case export.FormatCSV:
		return "text/csv"
	case export.FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/json"
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("api: encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string, err error) {
	resp := errorResponse{Error: msg}
	if err != nil {
		resp.Detail = err.Error()
	}
	writeJSON(w, status, resp)
}
