package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	models "StratLab/internal/domain/models"
	domrepo "StratLab/internal/domain/repository"
	"StratLab/internal/repository"
	svcmetrics "StratLab/internal/service/metrics"
	"StratLab/internal/service/ratelimit"
	"StratLab/internal/services/analytics"
	"StratLab/internal/services/features"
	"StratLab/internal/usecase"
	"StratLab/pkg/cache"
	xhttp "StratLab/pkg/http"
	"StratLab/pkg/metrics"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const threeSymbolCSV = `Date,Symbol,Px
2025-01-02,SPY,100
2025-01-02,AAA,50
2025-01-03,SPY,101
2025-01-03,AAA,51
2025-01-06,SPY,102.01
2025-01-06,AAA,52
2025-01-07,SPY,100
2025-01-07,AAA,50
`

type recordingQueue struct {
	mu   sync.Mutex
	err  error
	sent []models.AnalysisTaskPayload
}

func (q *recordingQueue) PublishMessage(_ context.Context, _ string, payload interface{}) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.sent = append(q.sent, payload.(models.AnalysisTaskPayload))
	return nil
}

type fixture struct {
	h     *AnalysisEchoHandler
	dir   string
	store domrepo.TaskStore
	queue *recordingQueue
	echo  *echo.Echo
}

func newFixture(t *testing.T, limiter *ratelimit.Limiter) *fixture {
	t.Helper()
	dir := t.TempDir()
	mc := cache.NewMemoryCache()
	t.Cleanup(func() { _ = mc.Close() })
	store := repository.NewCacheTaskStore(mc, time.Hour)
	q := &recordingQueue{}

	loader := features.NewCleaner(repository.NewFileTableReader(), nil)
	model := usecase.NewFactorModel(loader, analytics.NewParametricRisk(nil), analytics.NewFactorRegression(nil),
		usecase.FactorModelConfig{MarketSymbol: "SPY"}, nil)
	exts := []string{".csv", ".parquet"}
	svc := usecase.NewAnalysisService(model, usecase.NewDataProbe(loader, nil), store, q, metrics.Nop{},
		usecase.AnalysisServiceConfig{UploadDir: dir, AllowedExtensions: exts}, nil)
	uploads := usecase.NewUploads(dir, 1024, exts, nil)

	h := NewAnalysisEchoHandler(nil, svc, uploads, limiter,
		svcmetrics.NewWatchMetrics(prometheus.NewRegistry()), 10*time.Millisecond)
	srv := xhttp.NewServer([]xhttp.Handler{h}, xhttp.WithMetrics("", nil))
	return &fixture{h: h, dir: dir, store: store, queue: q, echo: srv.Echo()}
}

func (f *fixture) writeData(t *testing.T, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(f.dir, name), []byte(content), 0o644))
}

func (f *fixture) do(method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	f.echo.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Status int             `json:"status"`
	Data   json.RawMessage `json:"data"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.Equal(t, rec.Code, env.Status)
	require.NoError(t, json.Unmarshal(env.Data, out))
}

func TestRunAnalysis(t *testing.T) {
	f := newFixture(t, nil)
	f.writeData(t, "prices.csv", threeSymbolCSV)

	rec := f.do(http.MethodPost, "/api/analysis/run", `{"path":"prices.csv","params":{"lambda":0.5,"note":"x"}}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var res models.AnalysisResult
	decode(t, rec, &res)
	assert.Empty(t, res.Error)
	require.Len(t, res.Summary.Data, 1)
	assert.Equal(t, "AAA", res.Summary.Data[0].Symbol)
	assert.Equal(t, []string{"AAA"}, res.VaRSeries.X)
	assert.Equal(t, "SPY", res.Diagnostics.MarketSymbol)
}

func TestRunAnalysisMissingFileIsResultError(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(http.MethodPost, "/api/analysis/run", `{"path":"nope.csv"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var res models.AnalysisResult
	decode(t, rec, &res)
	assert.NotEmpty(t, res.Error)
	assert.Empty(t, res.Summary.Data)
	assert.Empty(t, res.VaRSeries.X)
}

func TestRunAnalysisRejectsBadRequests(t *testing.T) {
	f := newFixture(t, nil)

	tests := []struct {
		name string
		body string
		code string
	}{
		{"missing path", `{}`, "ERR_REQUIRED"},
		{"escaping path", `{"path":"../etc/passwd"}`, "ERR_INVALID_PATH"},
		{"lambda out of range", `{"path":"a.csv","params":{"lambda":3}}`, "ERR_INVALID_PARAMS"},
		{"extension not allowed", `{"path":"prices.tab"}`, "ERR_EXTENSION"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(http.MethodPost, "/api/analysis/run", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.code)
		})
	}
}

func TestSubmitAndStatus(t *testing.T) {
	f := newFixture(t, nil)
	f.writeData(t, "prices.csv", threeSymbolCSV)

	rec := f.do(http.MethodPost, "/api/analysis", `{"path":"prices.csv","params":{"lambda":0.1}}`)
	require.Equal(t, http.StatusAccepted, rec.Code)

	var task models.Task
	decode(t, rec, &task)
	assert.Equal(t, models.TaskPending, task.State)
	require.Len(t, f.queue.sent, 1)
	assert.Equal(t, task.ID, f.queue.sent[0].TaskID)

	rec = f.do(http.MethodGet, "/api/analysis/"+task.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got models.Task
	decode(t, rec, &got)
	assert.Equal(t, task.ID, got.ID)
	assert.Equal(t, 0.1, got.Params["lambda"])
}

func TestSubmitErrors(t *testing.T) {
	f := newFixture(t, nil)
	f.writeData(t, "notes.txt", "hello")

	rec := f.do(http.MethodPost, "/api/analysis", `{"path":"missing.csv"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(http.MethodPost, "/api/analysis", `{"path":"notes.txt"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "ERR_EXTENSION")

	f.writeData(t, "prices.csv", threeSymbolCSV)
	f.queue.err = errors.New("redis down")
	rec = f.do(http.MethodPost, "/api/analysis", `{"path":"prices.csv"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestSubmitRateLimited(t *testing.T) {
	f := newFixture(t, ratelimit.New(0.001, 1))
	f.writeData(t, "prices.csv", threeSymbolCSV)

	rec := f.do(http.MethodPost, "/api/analysis", `{"path":"prices.csv"}`)
	require.Equal(t, http.StatusAccepted, rec.Code)

	rec = f.do(http.MethodPost, "/api/analysis", `{"path":"prices.csv"}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "ERR_RATE_LIMITED")
	assert.Len(t, f.queue.sent, 1)
}

func TestStatusUnknownTask(t *testing.T) {
	f := newFixture(t, nil)
	rec := f.do(http.MethodGet, "/api/analysis/does-not-exist", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(http.MethodGet, "/api/analysis/does-not-exist/watch", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProbe(t *testing.T) {
	f := newFixture(t, nil)
	f.writeData(t, "prices.csv", threeSymbolCSV)

	rec := f.do(http.MethodPost, "/api/data/probe", `{"path":"prices.csv","sample":2}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var probe models.DataProbe
	decode(t, rec, &probe)
	assert.True(t, probe.Success)
	assert.Len(t, probe.SampleData, 2)
	assert.Equal(t, []string{"AAA", "SPY"}, probe.Symbols)

	rec = f.do(http.MethodPost, "/api/data/probe", `{"path":"prices.csv","sample":50}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func multipartBody(t *testing.T, name, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestUpload(t *testing.T) {
	f := newFixture(t, nil)

	body, ct := multipartBody(t, "prices.csv", threeSymbolCSV)
	req := httptest.NewRequest(http.MethodPost, "/api/uploads", body)
	req.Header.Set(echo.HeaderContentType, ct)
	rec := httptest.NewRecorder()
	f.echo.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var info usecase.UploadInfo
	decode(t, rec, &info)
	assert.Equal(t, "prices.csv", info.Name)
	assert.Equal(t, int64(len(threeSymbolCSV)), info.Size)
	assert.FileExists(t, filepath.Join(f.dir, info.Path))

	tests := []struct {
		name   string
		file   string
		size   int
		status int
	}{
		{"bad extension", "prices.exe", 10, http.StatusBadRequest},
		{"too large", "big.csv", 2048, http.StatusRequestEntityTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, ct := multipartBody(t, tt.file, strings.Repeat("x", tt.size))
			req := httptest.NewRequest(http.MethodPost, "/api/uploads", body)
			req.Header.Set(echo.HeaderContentType, ct)
			rec := httptest.NewRecorder()
			f.echo.ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)
		})
	}

	rec = f.do(http.MethodPost, "/api/uploads", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWatchStreamsUntilTerminal(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	task := &models.Task{ID: "t-watch", State: models.TaskPending, CreatedAt: time.Now().UTC()}
	require.NoError(t, f.store.Save(ctx, task))

	srv := httptest.NewServer(f.echo)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/api/analysis/t-watch/watch", nil)
	require.NoError(t, err)
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var first models.Task
	require.NoError(t, conn.ReadJSON(&first))
	assert.Equal(t, models.TaskPending, first.State)

	done := *task
	done.State = models.TaskSuccess
	require.NoError(t, f.store.Save(ctx, &done))

	var last models.Task
	for last.State != models.TaskSuccess {
		require.NoError(t, conn.ReadJSON(&last))
	}

	_, _, err = conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
}

func TestWatchOutlivesPongWait(t *testing.T) {
	f := newFixture(t, nil)
	f.h.pongWait = 200 * time.Millisecond
	ctx := context.Background()
	task := &models.Task{ID: "t-slow", State: models.TaskStarted, CreatedAt: time.Now().UTC()}
	require.NoError(t, f.store.Save(ctx, task))

	srv := httptest.NewServer(f.echo)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/api/analysis/t-slow/watch", nil)
	require.NoError(t, err)
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	// The client only reads; the default ping handler answers the server.
	until := time.Now().Add(3 * f.h.pongWait)
	for time.Now().Before(until) {
		var snap models.Task
		require.NoError(t, conn.ReadJSON(&snap))
		assert.Equal(t, models.TaskStarted, snap.State)
	}

	done := *task
	done.State = models.TaskSuccess
	require.NoError(t, f.store.Save(ctx, &done))

	var last models.Task
	for last.State != models.TaskSuccess {
		require.NoError(t, conn.ReadJSON(&last))
	}
	_, _, err = conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
}
