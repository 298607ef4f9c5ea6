package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wippyai/layout-host/config"
)

func newTestHost(t *testing.T, kind string) *host {
	t.Helper()
	c := config.Default()
	c.Engine.Kind = kind
	c.Workload.Paragraphs = 3
	c.Workload.PagesPerParagraph = 2
	c.Workload.Contexts = 2

	h, err := newHost(context.Background(), c, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.close() })
	return h
}

func TestHost_RunBatch(t *testing.T) {
	for _, kind := range []string{config.EngineWasm, config.EngineMmap} {
		t.Run(kind, func(t *testing.T) {
			h := newTestHost(t, kind)

			sum, err := h.runBatch(context.Background(), h.workloadOptions())
			require.NoError(t, err)
			require.Len(t, sum.Reports, 2)

			for _, rep := range sum.Reports {
				assert.Equal(t, 3, rep.Paragraphs)
				assert.Equal(t, 6, rep.Pages)
				assert.Equal(t, rep.Pages, rep.ExplicitPages+rep.AbandonedPages)
			}
			assert.Empty(t, h.stats(), "contexts are disposed after each run")
			assert.Len(t, h.lastReports(1), 1)
		})
	}
}

func TestRouter(t *testing.T) {
	h := newTestHost(t, config.EngineWasm)
	r := newRouter(context.Background(), h)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/run", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"reports"`)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "layouthost_context_disposed_total"))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/stats", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"reports"`)
}
