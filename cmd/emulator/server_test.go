package main

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/iuboy/hublog/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func writeSample(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sample.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func get(t *testing.T, h http.Handler, target string) (int, string) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	body, err := io.ReadAll(rec.Result().Body)
	require.NoError(t, err)
	return rec.Code, string(body)
}

func TestDoitLogsEachRecord(t *testing.T) {
	obs, logs := observer.New(zapcore.DebugLevel)
	path := writeSample(t, `[{"id":1,"name":"Ada"},{"id":2,"name":"Alan"},{"id":3}]`)
	srv := newServer(zap.New(obs), path, prometheus.NewRegistry())

	code, body := get(t, srv.routes(), "/api/doit")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "3 JSON Records were logged successfully.", body)

	entries := logs.All()
	require.Len(t, entries, 3)
	for _, e := range entries {
		assert.Equal(t, zapcore.DebugLevel, e.Level)
	}
	assert.Equal(t, `{"id":1,"name":"Ada"}`, entries[0].Message)
	assert.Equal(t, `{"id":3}`, entries[2].Message)
}

func TestDoitShippedSample(t *testing.T) {
	srv := newServer(zap.NewNop(), filepath.Join("data", "sample-data-emp.json"), prometheus.NewRegistry())

	code, body := get(t, srv.routes(), "/api/doit")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "5 JSON Records were logged successfully.", body)
}

func TestDoitErrors(t *testing.T) {
	tests := map[string]struct {
		path string
		code int
	}{
		"Missing":  {path: filepath.Join(t.TempDir(), "absent.json"), code: http.StatusNotFound},
		"Invalid":  {path: writeSample(t, `[{"id":1`), code: http.StatusInternalServerError},
		"NotArray": {path: writeSample(t, `{"id":1}`), code: http.StatusInternalServerError},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			srv := newServer(zap.NewNop(), tt.path, prometheus.NewRegistry())
			code, _ := get(t, srv.routes(), "/api/doit")
			assert.Equal(t, tt.code, code)
		})
	}
}

func TestDoitMethodNotAllowed(t *testing.T) {
	srv := newServer(zap.NewNop(), "unused", prometheus.NewRegistry())
	rec := httptest.NewRecorder()
	srv.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/doit", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := prometheus.NewCounter(prometheus.CounterOpts{Name: "emulator_test_total", Help: "test"})
	reg.MustRegister(c)
	c.Inc()

	code, body := get(t, newServer(zap.NewNop(), "unused", reg).routes(), "/metrics")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "emulator_test_total 1")
}

func TestDefaultConfigValid(t *testing.T) {
	cfg := defaultConfig(config.IdentityConfig{Trigram: "EMU", Application: "Emulator", Layer: "API"}, config.Kafka, 5*time.Second)
	require.NoError(t, cfg.Validate())

	hub := cfg.Outputs[1]
	assert.Equal(t, config.EventHub, hub.Type)
	assert.Equal(t, config.DebugLevel, hub.Level, "示例记录以 DEBUG 记录，eventhub 输出必须放行")
	assert.Equal(t, config.Kafka, hub.EventHub.Transport)
}

func TestRootCommand(t *testing.T) {
	cmd, _, err := rootCmd.Find([]string{"serve"})
	require.NoError(t, err)
	assert.Equal(t, serveCmd, cmd)

	rootCmd.SetArgs([]string{"no-such-command"})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	assert.Error(t, rootCmd.Execute(), "未知子命令返回普通错误，由 main 以退出码 1 结束")
}
