package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	appai "github.com/bryanwahyu/auditlens/internal/application/ai"
	appbugs "github.com/bryanwahyu/auditlens/internal/application/bugs"
	appreports "github.com/bryanwahyu/auditlens/internal/application/reports"
	domai "github.com/bryanwahyu/auditlens/internal/domain/ai"
	dombugs "github.com/bryanwahyu/auditlens/internal/domain/bugs"
	domreports "github.com/bryanwahyu/auditlens/internal/domain/reports"
	"github.com/bryanwahyu/auditlens/internal/middleware"
)

const defaultMaxUpload = 64 << 20

// Options configures the ambient parts of the HTTP surface. Zero values
// disable the feature.
type Options struct {
	Logger         *slog.Logger
	CORSOrigins    []string
	RateLimiter    *middleware.RateLimiter
	Checks         map[string]middleware.Check
	Ready          func() bool
	MaxUploadBytes int64
}

type Router struct {
	reportsSvc *appreports.Service
	bugsSvc    *appbugs.Service
	aiSvc      *appai.Service
	logger     *slog.Logger
	maxUpload  int64
}

// NewRouter builds the chi handler. aiSvc may be nil, in which case the
// summary endpoint answers 501.
func NewRouter(reportsSvc *appreports.Service, bugsSvc *appbugs.Service, aiSvc *appai.Service, opts Options) http.Handler {
	r := &Router{
		reportsSvc: reportsSvc,
		bugsSvc:    bugsSvc,
		aiSvc:      aiSvc,
		logger:     opts.Logger,
		maxUpload:  opts.MaxUploadBytes,
	}
	if r.logger == nil {
		r.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if r.maxUpload <= 0 {
		r.maxUpload = defaultMaxUpload
	}
	ready := opts.Ready
	if ready == nil {
		ready = func() bool { return true }
	}

	mux := chi.NewRouter()
	mux.Use(middleware.Logging(r.logger))
	mux.Use(middleware.Metrics)
	if len(opts.CORSOrigins) > 0 {
		mux.Use(cors.Handler(cors.Options{
			AllowedOrigins: opts.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))
	}
	if opts.RateLimiter != nil {
		mux.Use(middleware.RateLimit(opts.RateLimiter))
	}

	mux.Get("/health", middleware.Health(opts.Checks))
	mux.Get("/livez", middleware.Live)
	mux.Get("/readyz", middleware.Ready(ready))
	mux.Method(http.MethodGet, "/metrics", middleware.MetricsHandler())

	mux.Route("/v1", func(rt chi.Router) {
		if bugsSvc != nil {
			rt.Get("/bugs", r.wrap(r.handleListBugs))
			rt.Post("/bugs", r.wrap(r.handleUploadBug))
			rt.Get("/bugs/{id}", r.wrap(r.handleGetBug))
			rt.Get("/bugs/{id}/download", r.wrap(r.handleDownloadBug))
		}
		rt.Get("/reports", r.wrap(r.handleReports))
		rt.Get("/reports/match", r.wrap(r.handleMatch))
		rt.Get("/reports/search", r.wrap(r.handleSearch))
		rt.Get("/reports/{slug}/explanation", r.wrap(r.handleExplanation))
		rt.Post("/reports/{slug}/summary", r.wrap(r.handleSummary))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

// badRequest marks a client input error.
type badRequest struct{ msg string }

func (e badRequest) Error() string { return e.msg }

func badRequestf(format string, args ...any) error {
	return badRequest{msg: fmt.Sprintf(format, args...)}
}

var errAIDisabled = errors.New("ai summaries are not enabled")

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := h(w, req)
		if err == nil {
			return
		}
		var br badRequest
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &br):
			writeError(w, http.StatusBadRequest, br.msg)
		case errors.As(err, &tooLarge):
			writeError(w, http.StatusRequestEntityTooLarge, "upload too large")
		case errors.Is(err, domreports.ErrNotFound):
			writeError(w, http.StatusNotFound, domreports.ErrNotFound.Error())
		case errors.Is(err, dombugs.ErrNotFound):
			writeError(w, http.StatusNotFound, dombugs.ErrNotFound.Error())
		case errors.Is(err, dombugs.ErrBlobNotFound):
			writeError(w, http.StatusNotFound, dombugs.ErrBlobNotFound.Error())
		case errors.Is(err, dombugs.ErrEmptyUpload):
			writeError(w, http.StatusBadRequest, dombugs.ErrEmptyUpload.Error())
		case errors.Is(err, domai.ErrQuotaExceeded):
			writeError(w, http.StatusTooManyRequests, "ai quota exceeded")
		case errors.Is(err, errAIDisabled):
			writeError(w, http.StatusNotImplemented, errAIDisabled.Error())
		case errors.Is(err, domai.ErrEmptyResponse):
			writeError(w, http.StatusBadGateway, domai.ErrEmptyResponse.Error())
		default:
			r.logger.Error("request failed", "method", req.Method, "path", req.URL.Path, "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func queryLimit(req *http.Request) int {
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))
	return middleware.ValidateLimit(limit)
}
