package reports

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	domain "github.com/bryanwahyu/auditlens/internal/domain/reports"
	"github.com/bryanwahyu/auditlens/internal/metrics"
)

const (
	// PathThreshold is the minimum similarity for a fuzzy document match.
	PathThreshold = 0.6
	// QueryThreshold is looser since free text is noisier than record fields.
	QueryThreshold = 0.45

	// scores are ratios of small integers; absorb float rounding at the boundary
	thresholdEpsilon = 1e-9
)

// Explanation is a report together with its markdown document.
type Explanation struct {
	Report   domain.Report `json:"report"`
	Markdown string        `json:"markdown"`
}

// Service resolves reports to explanation documents and free-text queries to
// reports. Safe for concurrent use.
type Service struct {
	source domain.RecordSource
	index  *DocumentIndex
	cache  *ReportCache
	logger *slog.Logger
}

func NewService(source domain.RecordSource, docsDir string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Service{
		source: source,
		index:  NewDocumentIndex(docsDir, logger),
		logger: logger,
	}
	s.cache = NewReportCache(s.loadReports)
	return s
}

// Warm builds the document index and the report cache ahead of the first request.
func (s *Service) Warm(ctx context.Context) {
	s.index.Len(ctx)
	s.cache.Ensure(ctx)
}

// Reports returns every enriched report.
func (s *Service) Reports(ctx context.Context) []domain.Report {
	return s.cache.All(ctx)
}

// DocumentCount reports the size of the explanation index.
func (s *Service) DocumentCount(ctx context.Context) int {
	return s.index.Len(ctx)
}

// ResolveExplanationPath finds the explanation document for r. A record
// without any identifying field falls back to the "report-1" placeholder slug.
func (s *Service) ResolveExplanationPath(ctx context.Context, r domain.Report) (string, bool) {
	return s.resolvePath(ctx, r, domain.DeriveSlug(r, 0))
}

func (s *Service) resolvePath(ctx context.Context, r domain.Report, slug string) (string, bool) {
	snap := s.index.snapshot(ctx)

	var keys []string
	for _, c := range domain.Candidates(r, slug) {
		k := domain.Normalize(c)
		if k == "" {
			continue
		}
		// first exact hit in candidate order wins
		if p, ok := snap.paths[k]; ok {
			metrics.ObserveMatch("path", true)
			return p, true
		}
		keys = append(keys, k)
	}

	best, bestPath := -1.0, ""
	for _, k := range keys {
		for _, docKey := range snap.keys {
			if score := domain.Similarity(k, docKey); score > best {
				best, bestPath = score, snap.paths[docKey]
			}
		}
	}

	hit := bestPath != "" && meets(best, PathThreshold)
	metrics.ObserveMatch("path", hit)
	if !hit {
		return "", false
	}
	return bestPath, true
}

// FindBestReportMatch picks the cached report closest to query. A candidate
// counts when the query and candidate contain one another or when its
// edit-distance score reaches QueryThreshold; the best counting candidate
// wins and ties keep the first one found.
func (s *Service) FindBestReportMatch(ctx context.Context, query string) (domain.Match, bool) {
	q := domain.Normalize(query)
	if q == "" {
		return domain.Match{}, false
	}

	var best domain.Match
	found := false
	for _, r := range s.cache.All(ctx) {
		for _, field := range []string{r.Title, r.GithubRepo, r.URL} {
			c := domain.Normalize(field)
			if c == "" {
				continue
			}
			score, sub := queryScore(q, c)
			if !sub && !meets(score, QueryThreshold) {
				continue
			}
			if !found || score > best.Score {
				best = domain.Match{Report: r, Score: score}
				found = true
			}
		}
	}

	metrics.ObserveMatch("query", found)
	if !found {
		return domain.Match{}, false
	}
	return best, true
}

// queryScore rewards substring hits by how much of the candidate the query
// covers; everything else falls back to edit-distance similarity.
func queryScore(q, c string) (float64, bool) {
	if strings.Contains(c, q) || strings.Contains(q, c) {
		return float64(len(q)) / float64(len(c)), true
	}
	return domain.Similarity(q, c), false
}

// Explanation loads the markdown for the report identified by id. id is a
// slug; when no slug matches it is treated as a free-text query.
func (s *Service) Explanation(ctx context.Context, id string) (Explanation, error) {
	r, ok := s.bySlug(ctx, id)
	if !ok {
		m, found := s.FindBestReportMatch(ctx, id)
		if !found {
			return Explanation{}, domain.ErrNotFound
		}
		r = m.Report
	}
	if r.ExplanationPath == nil {
		return Explanation{}, domain.ErrNotFound
	}

	b, err := os.ReadFile(*r.ExplanationPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("explanation document vanished", "slug", r.Slug, "path", *r.ExplanationPath)
			return Explanation{}, domain.ErrNotFound
		}
		return Explanation{}, fmt.Errorf("read explanation for %s: %w", r.Slug, err)
	}
	return Explanation{Report: r, Markdown: string(b)}, nil
}

// Search returns up to limit reports whose slug, title or repository contains
// the query as a fuzzy subsequence, closest first.
func (s *Service) Search(ctx context.Context, query string, limit int) []domain.Report {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}
	if limit <= 0 {
		limit = 10
	}
	reports := s.cache.All(ctx)
	targets := make([]string, len(reports))
	for i, r := range reports {
		targets[i] = searchText(r)
	}

	ranks := fuzzy.RankFindNormalizedFold(query, targets)
	sort.Stable(ranks)

	out := make([]domain.Report, 0, min(len(ranks), limit))
	for _, rk := range ranks {
		if len(out) == limit {
			break
		}
		out = append(out, reports[rk.OriginalIndex])
	}
	return out
}

func (s *Service) bySlug(ctx context.Context, slug string) (domain.Report, bool) {
	for _, r := range s.cache.All(ctx) {
		if r.Slug == slug {
			return r, true
		}
	}
	return domain.Report{}, false
}

// loadReports reads the records source and enriches every record. Source
// problems are logged and yield an empty list.
func (s *Service) loadReports(ctx context.Context) []domain.Report {
	raw, err := s.source.Load(ctx)
	switch {
	case errors.Is(err, domain.ErrSourceUnavailable):
		s.logger.Info("report records source missing, starting empty", "error", err)
		return nil
	case errors.Is(err, domain.ErrMalformedSource):
		s.logger.Warn("report records source is not a JSON array, ignoring", "error", err)
		return nil
	case err != nil:
		s.logger.Warn("report records source unreadable", "error", err)
		return nil
	}

	out := make([]domain.Report, 0, len(raw))
	withDocs := 0
	for i, r := range raw {
		r.Slug = domain.DeriveSlug(r, i)
		r.ExplanationPath, r.HasExplanation = nil, false
		if p, ok := s.resolvePath(ctx, r, r.Slug); ok {
			r.ExplanationPath = &p
			r.HasExplanation = true
			withDocs++
		}
		out = append(out, r)
	}

	metrics.SetReportsCached(len(out))
	s.logger.Info("reports loaded", "reports", len(out), "with_explanation", withDocs)
	return out
}

func meets(score, threshold float64) bool {
	return score >= threshold-thresholdEpsilon
}

func searchText(r domain.Report) string {
	parts := make([]string, 0, 3)
	for _, v := range []string{r.Slug, r.Title, r.GithubRepo} {
		if v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " ")
}
