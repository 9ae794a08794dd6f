package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	jobhandler "stock_sync/internal/feature/jobs/transport/handler"
	syncusecase "stock_sync/internal/feature/synclog/usecase"
	platformhandler "stock_sync/internal/platform/http/handler"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type countingRunner struct {
	calls int
}

func (r *countingRunner) Run(ctx context.Context, job syncusecase.Job) (syncusecase.Outcome, error) {
	r.calls++
	return syncusecase.Outcome{Status: syncusecase.StatusOK, Records: 3}, nil
}

type namedJob string

func (j namedJob) Name() string { return string(j) }
func (j namedJob) Run(ctx context.Context) (int, error) { return 0, nil }

func newTestRouter(runner *countingRunner) *gin.Engine {
	jobs := map[string]*jobhandler.JobHandler{
		"sync-prices": jobhandler.NewJobHandler(runner, namedJob("sync-prices")),
		"sync-eod":    jobhandler.NewJobHandler(runner, namedJob("sync-eod")),
	}
	return NewRouter(platformhandler.NewHealthHandler(nil), jobs, "s3cret")
}

func TestRouter_Health(t *testing.T) {
	r := newTestRouter(&countingRunner{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestRouter_Cron(t *testing.T) {
	tests := []struct {
		name           string
		method         string
		path           string
		auth           string
		expectedStatus int
		expectedCalls  int
	}{
		{"GET with secret", http.MethodGet, "/api/cron/sync-prices", "Bearer s3cret", http.StatusOK, 1},
		{"POST with secret", http.MethodPost, "/api/cron/sync-eod", "Bearer s3cret", http.StatusOK, 1},
		{"missing token", http.MethodGet, "/api/cron/sync-prices", "", http.StatusUnauthorized, 0},
		{"wrong token", http.MethodPost, "/api/cron/sync-prices", "Bearer nope", http.StatusUnauthorized, 0},
		{"unknown job", http.MethodGet, "/api/cron/sync-unknown", "Bearer s3cret", http.StatusNotFound, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &countingRunner{}
			r := newTestRouter(runner)

			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.auth != "" {
				req.Header.Set("Authorization", tt.auth)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, tt.expectedCalls, runner.calls, "rejected requests must not run the job")
		})
	}
}
