package httpserver

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/auditlens/internal/application"
	appai "github.com/bryanwahyu/auditlens/internal/application/ai"
	appbugs "github.com/bryanwahyu/auditlens/internal/application/bugs"
	appreports "github.com/bryanwahyu/auditlens/internal/application/reports"
	domai "github.com/bryanwahyu/auditlens/internal/domain/ai"
	dombugs "github.com/bryanwahyu/auditlens/internal/domain/bugs"
	"github.com/bryanwahyu/auditlens/internal/infra/db/jsonfile"
	"github.com/bryanwahyu/auditlens/internal/infra/records"
)

const recordsJSON = `[
  {"slug": "vault-audit", "title": "Vault Audit", "github_repo": "acme/vault"},
  {"title": "Lending Pool Review", "github_repo": "acme/lending"},
  {"title": "Orphan Report"}
]`

type memBlobs struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

func (m *memBlobs) Upload(_ context.Context, r io.Reader, _ string) (string, int64, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", 0, err
	}
	sum := sha256.Sum256(b)
	hash := hex.EncodeToString(sum[:])
	m.mu.Lock()
	m.blobs[hash] = b
	m.mu.Unlock()
	return hash, int64(len(b)), nil
}

func (m *memBlobs) Download(_ context.Context, hash string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.blobs[hash]
	if !ok {
		return nil, dombugs.ErrBlobNotFound
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

type stubSummarizer struct {
	out string
	err error
}

func (s stubSummarizer) Summarize(context.Context, string, string) (string, error) {
	return s.out, s.err
}

func newTestServer(t *testing.T, ai domai.Summarizer, opts Options) http.Handler {
	t.Helper()
	dir := t.TempDir()
	docs := filepath.Join(dir, "explanations")
	require.NoError(t, os.MkdirAll(docs, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(docs, "vault-audit.md"), []byte("# Vault\n\nH-01 reentrancy"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(docs, "lending-pool-review.md"), []byte("# Lending"), 0o644))
	recordsPath := filepath.Join(dir, "reports.json")
	require.NoError(t, os.WriteFile(recordsPath, []byte(recordsJSON), 0o644))

	reportsSvc := appreports.NewService(records.NewFileSource(recordsPath), docs, nil)
	bugsSvc := &appbugs.Service{
		Repo:  jsonfile.NewBugRepository(filepath.Join(dir, "bugs.json")),
		Blobs: &memBlobs{blobs: make(map[string][]byte)},
		Clock: application.FixedClock{T: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)},
	}
	var aiSvc *appai.Service
	if ai != nil {
		aiSvc = appai.NewService(ai)
	}
	return NewRouter(reportsSvc, bugsSvc, aiSvc, opts)
}

func do(t *testing.T, h http.Handler, method, target string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func TestReportsList(t *testing.T) {
	h := newTestServer(t, nil, Options{})
	rec := do(t, h, http.MethodGet, "/v1/reports", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var list []map[string]any
	decode(t, rec, &list)
	require.Len(t, list, 3)
	assert.Equal(t, "vault-audit", list[0]["slug"])
	assert.Equal(t, true, list[0]["hasExplanation"])
	assert.Equal(t, "lending-pool-review", list[1]["slug"])
	assert.Equal(t, true, list[1]["hasExplanation"])
	assert.Equal(t, false, list[2]["hasExplanation"])
	assert.Nil(t, list[2]["explanationPath"])
}

func TestMatch(t *testing.T) {
	h := newTestServer(t, nil, Options{})

	rec := do(t, h, http.MethodGet, "/v1/reports/match?q=vault+audit", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var m struct {
		Report map[string]any `json:"report"`
		Score  float64        `json:"score"`
	}
	decode(t, rec, &m)
	assert.Equal(t, "vault-audit", m.Report["slug"])
	assert.Equal(t, 1.0, m.Score)

	rec = do(t, h, http.MethodGet, "/v1/reports/match?q=qqqqqqqqqqqq", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"no matching report"}`, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/v1/reports/match", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearch(t *testing.T) {
	h := newTestServer(t, nil, Options{})

	rec := do(t, h, http.MethodGet, "/v1/reports/search?q=lend", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []map[string]any
	decode(t, rec, &list)
	require.Len(t, list, 1)
	assert.Equal(t, "Lending Pool Review", list[0]["title"])

	rec = do(t, h, http.MethodGet, "/v1/reports/search?q=zzzz", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestExplanation(t *testing.T) {
	h := newTestServer(t, nil, Options{})

	rec := do(t, h, http.MethodGet, "/v1/reports/vault-audit/explanation", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var e struct {
		Report   map[string]any `json:"report"`
		Markdown string         `json:"markdown"`
	}
	decode(t, rec, &e)
	assert.Equal(t, "vault-audit", e.Report["slug"])
	assert.Equal(t, "# Vault\n\nH-01 reentrancy", e.Markdown)

	rec = do(t, h, http.MethodGet, "/v1/reports/vault-audit/explanation?format=markdown", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/markdown; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "# Vault\n\nH-01 reentrancy", rec.Body.String())

	rec = do(t, h, http.MethodGet, "/v1/reports/orphan-report/explanation", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"no matching report"}`, rec.Body.String())
}

func TestSummary(t *testing.T) {
	rec := do(t, newTestServer(t, nil, Options{}), http.MethodPost, "/v1/reports/vault-audit/summary", nil, "")
	assert.Equal(t, http.StatusNotImplemented, rec.Code)

	h := newTestServer(t, stubSummarizer{out: `{"summary":"one high finding"}`}, Options{})
	rec = do(t, h, http.MethodPost, "/v1/reports/vault-audit/summary", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"slug":"vault-audit","result":{"summary":"one high finding"}}`, rec.Body.String())

	rec = do(t, h, http.MethodPost, "/v1/reports/BAD/summary", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/v1/reports/orphan-report/summary", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	h = newTestServer(t, stubSummarizer{err: domai.ErrQuotaExceeded}, Options{})
	rec = do(t, h, http.MethodPost, "/v1/reports/vault-audit/summary", nil, "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func multipartBody(t *testing.T, fields map[string]string, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestBugs_UploadGetDownload(t *testing.T) {
	h := newTestServer(t, nil, Options{})
	content := []byte(`{"findings":[1,2,3]}`)

	body, ct := multipartBody(t, map[string]string{"description": "vault bugs"}, "vault-bugs.json", content)
	rec := do(t, h, http.MethodPost, "/v1/bugs", body, ct)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var bug dombugs.Bug
	decode(t, rec, &bug)
	assert.Equal(t, "vault-bugs", bug.Name)
	assert.Equal(t, "vault bugs", bug.Description)
	assert.Equal(t, int64(len(content)), bug.Size)
	sum := sha256.Sum256(content)
	assert.Equal(t, hex.EncodeToString(sum[:]), bug.ContentHash)

	rec = do(t, h, http.MethodGet, "/v1/bugs/"+string(bug.ID), nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodGet, "/v1/bugs", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []dombugs.Bug
	decode(t, rec, &list)
	require.Len(t, list, 1)
	assert.Equal(t, bug.ID, list[0].ID)

	rec = do(t, h, http.MethodGet, "/v1/bugs/"+string(bug.ID)+"/download", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, content, rec.Body.Bytes())
	assert.Contains(t, rec.Header().Get("Content-Disposition"), `filename=vault-bugs.json`)
}

func TestBugs_Errors(t *testing.T) {
	h := newTestServer(t, nil, Options{})

	rec := do(t, h, http.MethodGet, "/v1/bugs/3f2504e0-4f89-41d3-9a0c-0305e82c3301", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"bug dataset not found"}`, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/v1/bugs/not-a-uuid", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body, ct := multipartBody(t, nil, "empty.json", nil)
	rec = do(t, h, http.MethodPost, "/v1/bugs", body, ct)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body, ct = multipartBody(t, map[string]string{"name": "x"}, "", nil)
	rec = do(t, h, http.MethodPost, "/v1/bugs", body, ct)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/v1/bugs", bytes.NewBufferString("{}"), "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBugs_UploadTooLarge(t *testing.T) {
	h := newTestServer(t, nil, Options{MaxUploadBytes: 64})
	body, ct := multipartBody(t, nil, "big.bin", bytes.Repeat([]byte("x"), 1024))
	rec := do(t, h, http.MethodPost, "/v1/bugs", body, ct)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestHealthEndpointsAndMetrics(t *testing.T) {
	h := newTestServer(t, nil, Options{Ready: func() bool { return false }})

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/health", nil, "").Code)
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/livez", nil, "").Code)
	assert.Equal(t, http.StatusServiceUnavailable, do(t, h, http.MethodGet, "/readyz", nil, "").Code)

	do(t, h, http.MethodGet, "/v1/reports", nil, "")
	rec := do(t, h, http.MethodGet, "/metrics", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `auditlens_http_requests_total{method="GET",route="/v1/reports",status="200"}`)
}

func TestCORS(t *testing.T) {
	h := newTestServer(t, nil, Options{CORSOrigins: []string{"https://ui.example.com"}})

	req := httptest.NewRequest(http.MethodOptions, "/v1/reports", nil)
	req.Header.Set("Origin", "https://ui.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "https://ui.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}
