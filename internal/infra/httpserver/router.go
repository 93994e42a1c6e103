package httpserver

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/vericlause/vericlause-ai/internal/apperrors"
	appanalysis "github.com/vericlause/vericlause-ai/internal/application/analysis"
	appchat "github.com/vericlause/vericlause-ai/internal/application/chat"
	domai "github.com/vericlause/vericlause-ai/internal/domain/ai"
	"github.com/vericlause/vericlause-ai/internal/domain/analysis"
	"github.com/vericlause/vericlause-ai/internal/domain/chat"
	"github.com/vericlause/vericlause-ai/internal/middleware"
)

// Options configures the router.
type Options struct {
	AllowedOrigins []string
	JWTSecret      []byte
	RateCapacity   int
	RateRefill     int
	Health         http.HandlerFunc
}

type Router struct {
	analysisSvc *appanalysis.Service
	chatSvc     *appchat.Service
	logger      *zap.Logger
}

// NewRouter wires all routes. Everything under /v1 requires a valid JWT;
// /v1/admin additionally requires the admin role.
func NewRouter(analysisSvc *appanalysis.Service, chatSvc *appchat.Service, logger *zap.Logger, opts Options) http.Handler {
	r := &Router{analysisSvc: analysisSvc, chatSvc: chatSvc, logger: logger}
	mux := chi.NewRouter()

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	}))
	mux.Use(middleware.RequestLogger(logger))
	mux.Use(middleware.MetricsMiddleware)

	if opts.Health != nil {
		mux.Get("/health", opts.Health)
	} else {
		mux.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("ok"))
		})
	}
	mux.Get("/metrics", middleware.MetricsHandler)

	mux.Route("/v1", func(rt chi.Router) {
		rt.Use(middleware.JWTAuth(opts.JWTSecret))
		if opts.RateCapacity > 0 {
			rt.Use(middleware.RateLimitMiddleware(opts.RateCapacity, opts.RateRefill))
		}

		rt.Post("/analyze", r.wrap(r.handleAnalyze))
		rt.Post("/contract/update", r.wrap(r.handleContractUpdate))
		rt.Post("/chat", r.wrap(r.handleChat))

		rt.Route("/analyses", func(ar chi.Router) {
			ar.Post("/", r.wrap(r.handleSave))
			ar.Get("/", r.wrap(r.handleList))
			ar.Get("/{id}", r.wrap(r.handleGet))
			ar.Delete("/{id}", r.wrap(r.handleSoftDelete))
			ar.Post("/{id}/restore", r.wrap(r.handleRestore))
			ar.Post("/{id}/export", r.wrap(r.handleExport))
		})

		rt.Route("/admin", func(ad chi.Router) {
			ad.Use(middleware.RequireRole(middleware.RoleAdmin))
			ad.Get("/analyses", r.wrap(r.handleAdminList))
			ad.Post("/purge", r.wrap(r.handlePurge))
		})
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

// wrap is the error boundary: every handler error is converted to a
// user-facing message plus an HTTP status here, nothing propagates past it.
func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := h(w, req)
		if err == nil {
			return
		}

		switch {
		case apperrors.IsValidation(err):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, sql.ErrNoRows):
			writeError(w, http.StatusNotFound, "not found")
		case errors.Is(err, apperrors.ErrUnauthorized):
			writeError(w, http.StatusUnauthorized, "unauthorized")
		case errors.Is(err, apperrors.ErrForbidden):
			writeError(w, http.StatusForbidden, "forbidden")
		case errors.Is(err, domai.ErrRateLimited):
			writeError(w, http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.")
		case errors.Is(err, domai.ErrQuotaExceeded):
			writeError(w, http.StatusPaymentRequired, "AI usage limit reached. Please try again later.")
		case errors.Is(err, domai.ErrMalformedOutput):
			r.logger.Error("malformed model output", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "analysis failed")
		default:
			var gw *domai.GatewayError
			if errors.As(err, &gw) {
				r.logger.Error("gateway error", zap.Int("status", gw.StatusCode), zap.Error(err))
				writeError(w, http.StatusInternalServerError, fmt.Sprintf("AI gateway error: %d", gw.StatusCode))
				return
			}
			r.logger.Error("handler error", zap.Error(err))
			writeError(w, http.StatusInternalServerError, err.Error())
		}
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	return json.NewEncoder(w).Encode(data)
}

func requirePrincipal(req *http.Request) (appanalysis.Owner, error) {
	p, ok := middleware.PrincipalFromContext(req.Context())
	if !ok {
		return appanalysis.Owner{}, apperrors.ErrUnauthorized
	}
	return appanalysis.Owner{ID: p.UserID, Email: p.Email}, nil
}

// POST /v1/analyze
// Body: {"contractText": "..."}
func (r *Router) handleAnalyze(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		ContractText string `json:"contractText"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return apperrors.NewValidation("invalid request body")
	}

	result, err := r.analysisSvc.Analyze(req.Context(), body.ContractText)
	if err != nil {
		return err
	}
	middleware.IncrementAnalyses()
	return writeJSON(w, http.StatusOK, result)
}

// POST /v1/contract/update
// Body: {"contractText": "...", "changes": [...]}
func (r *Router) handleContractUpdate(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		ContractText string                    `json:"contractText"`
		Changes      []analysis.ContractChange `json:"changes"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return apperrors.NewValidation("invalid request body")
	}

	updated, err := r.analysisSvc.GenerateUpdate(req.Context(), body.ContractText, body.Changes)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]string{"updatedContract": updated})
}

// POST /v1/chat
// Body: {"contractText": "...", "referenceDocs": "...", "messages": [...]}
// Success is a forwarded SSE stream; failures before streaming begins are
// plain JSON errors.
func (r *Router) handleChat(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		ContractText  string         `json:"contractText"`
		ReferenceDocs string         `json:"referenceDocs"`
		Messages      []chat.Message `json:"messages"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return apperrors.NewValidation("invalid request body")
	}

	stream, err := r.chatSvc.Stream(req.Context(), appchat.Request{
		ContractText:  body.ContractText,
		ReferenceDocs: body.ReferenceDocs,
		Messages:      body.Messages,
	})
	if err != nil {
		return err
	}
	defer stream.Close()
	middleware.IncrementChatStreams()

	flusher, ok := w.(http.Flusher)
	if !ok {
		return errors.New("streaming unsupported")
	}
	w.Header().Set("Content-Type", "text/event-stream; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	flusher.Flush()

	forwardStream(w, flusher, stream, r.logger)
	return nil
}

// forwardStream copies gateway chunks to the client as SSE data frames.
// Once headers are sent errors can only be logged; the client keeps
// whatever partial content already arrived.
func forwardStream(w http.ResponseWriter, flusher http.Flusher, stream domai.ChatStream, logger *zap.Logger) {
	for {
		chunk, err := stream.Recv()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				logger.Warn("chat stream interrupted", zap.Error(err))
			}
			break
		}
		if _, err := w.Write([]byte("data: ")); err != nil {
			return
		}
		if _, err := w.Write(chunk); err != nil {
			return
		}
		if _, err := w.Write([]byte("\n\n")); err != nil {
			return
		}
		flusher.Flush()
	}
	_, _ = w.Write([]byte("data: [DONE]\n\n"))
	flusher.Flush()
}

// POST /v1/analyses
func (r *Router) handleSave(w http.ResponseWriter, req *http.Request) error {
	owner, err := requirePrincipal(req)
	if err != nil {
		return err
	}
	var body struct {
		ContractText   string           `json:"contractText"`
		AnalysisResult *analysis.Result `json:"analysisResult"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return apperrors.NewValidation("invalid request body")
	}

	rec, err := r.analysisSvc.Save(req.Context(), owner, middleware.SanitizeString(body.ContractText), body.AnalysisResult)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusCreated, rec)
}

// queryLimit reads the ?limit= parameter and clamps it to a sane page size.
func queryLimit(req *http.Request) int {
	n, _ := strconv.Atoi(req.URL.Query().Get("limit"))
	return middleware.ValidateLimit(n)
}

// GET /v1/analyses?deleted=true&limit=20
func (r *Router) handleList(w http.ResponseWriter, req *http.Request) error {
	owner, err := requirePrincipal(req)
	if err != nil {
		return err
	}
	deleted := req.URL.Query().Get("deleted") == "true"

	records, err := r.analysisSvc.List(req.Context(), owner, deleted)
	if err != nil {
		return err
	}
	if records == nil {
		records = []*analysis.Record{}
	}
	if limit := queryLimit(req); len(records) > limit {
		records = records[:limit]
	}
	return writeJSON(w, http.StatusOK, records)
}

// GET /v1/analyses/{id}
func (r *Router) handleGet(w http.ResponseWriter, req *http.Request) error {
	owner, err := requirePrincipal(req)
	if err != nil {
		return err
	}
	id := chi.URLParam(req, "id")
	if err := middleware.ValidateRecordID(id); err != nil {
		return apperrors.NewValidation(err.Error())
	}

	rec, err := r.analysisSvc.Get(req.Context(), owner, analysis.RecordID(id))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, rec)
}

// DELETE /v1/analyses/{id}
func (r *Router) handleSoftDelete(w http.ResponseWriter, req *http.Request) error {
	owner, err := requirePrincipal(req)
	if err != nil {
		return err
	}
	id := chi.URLParam(req, "id")
	if err := middleware.ValidateRecordID(id); err != nil {
		return apperrors.NewValidation(err.Error())
	}

	if err := r.analysisSvc.SoftDelete(req.Context(), owner, analysis.RecordID(id)); err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// POST /v1/analyses/{id}/restore
func (r *Router) handleRestore(w http.ResponseWriter, req *http.Request) error {
	owner, err := requirePrincipal(req)
	if err != nil {
		return err
	}
	id := chi.URLParam(req, "id")
	if err := middleware.ValidateRecordID(id); err != nil {
		return apperrors.NewValidation(err.Error())
	}

	if err := r.analysisSvc.Restore(req.Context(), owner, analysis.RecordID(id)); err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]string{"status": "restored"})
}

// POST /v1/analyses/{id}/export
func (r *Router) handleExport(w http.ResponseWriter, req *http.Request) error {
	owner, err := requirePrincipal(req)
	if err != nil {
		return err
	}
	id := chi.URLParam(req, "id")
	if err := middleware.ValidateRecordID(id); err != nil {
		return apperrors.NewValidation(err.Error())
	}

	url, err := r.analysisSvc.Export(req.Context(), owner, analysis.RecordID(id))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

// GET /v1/admin/analyses?limit=20
func (r *Router) handleAdminList(w http.ResponseWriter, req *http.Request) error {
	records, err := r.analysisSvc.AdminList(req.Context())
	if err != nil {
		return err
	}
	if records == nil {
		records = []*analysis.AdminRecord{}
	}
	if limit := queryLimit(req); len(records) > limit {
		records = records[:limit]
	}
	return writeJSON(w, http.StatusOK, records)
}

// POST /v1/admin/purge
func (r *Router) handlePurge(w http.ResponseWriter, req *http.Request) error {
	n, err := r.analysisSvc.PurgeExpired(req.Context())
	if err != nil {
		return err
	}
	middleware.AddRecordsPurged(uint64(n))
	return writeJSON(w, http.StatusOK, map[string]int64{"purged": n})
}
