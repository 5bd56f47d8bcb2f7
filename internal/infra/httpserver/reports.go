package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	domreports "github.com/bryanwahyu/auditlens/internal/domain/reports"
	"github.com/bryanwahyu/auditlens/internal/middleware"
)

// GET /v1/reports
func (r *Router) handleReports(w http.ResponseWriter, req *http.Request) error {
	list := r.reportsSvc.Reports(req.Context())
	if list == nil {
		list = []domreports.Report{}
	}
	return writeJSON(w, http.StatusOK, list)
}

// GET /v1/reports/match?q=
func (r *Router) handleMatch(w http.ResponseWriter, req *http.Request) error {
	q, err := middleware.ValidateQuery(req.URL.Query().Get("q"))
	if err != nil {
		return badRequestf("%s", err)
	}
	m, ok := r.reportsSvc.FindBestReportMatch(req.Context(), q)
	if !ok {
		return domreports.ErrNotFound
	}
	return writeJSON(w, http.StatusOK, m)
}

// GET /v1/reports/search?q=&limit=
func (r *Router) handleSearch(w http.ResponseWriter, req *http.Request) error {
	q, err := middleware.ValidateQuery(req.URL.Query().Get("q"))
	if err != nil {
		return badRequestf("%s", err)
	}
	list := r.reportsSvc.Search(req.Context(), q, queryLimit(req))
	if list == nil {
		list = []domreports.Report{}
	}
	return writeJSON(w, http.StatusOK, list)
}

// GET /v1/reports/{slug}/explanation[?format=markdown]
// {slug} may also be free text; it is matched like /match when no slug fits.
func (r *Router) handleExplanation(w http.ResponseWriter, req *http.Request) error {
	id, err := middleware.ValidateQuery(chi.URLParam(req, "slug"))
	if err != nil {
		return badRequestf("%s", err)
	}
	e, err := r.reportsSvc.Explanation(req.Context(), id)
	if err != nil {
		return err
	}
	if req.URL.Query().Get("format") == "markdown" {
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		_, err := w.Write([]byte(e.Markdown))
		return err
	}
	return writeJSON(w, http.StatusOK, e)
}

// POST /v1/reports/{slug}/summary
func (r *Router) handleSummary(w http.ResponseWriter, req *http.Request) error {
	if r.aiSvc == nil {
		return errAIDisabled
	}
	slug := chi.URLParam(req, "slug")
	if err := middleware.ValidateSlug(slug); err != nil {
		return badRequestf("%s", err)
	}
	e, err := r.reportsSvc.Explanation(req.Context(), slug)
	if err != nil {
		return err
	}
	s, err := r.aiSvc.Summarize(req.Context(), e.Report.Slug, e.Report.Title, e.Markdown)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, s)
}
