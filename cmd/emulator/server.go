package main

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fastjson"
	"go.uber.org/zap"
)

var (
	ErrSampleNotFound = errors.New("sample file not found")
	ErrSampleInvalid  = errors.New("sample file is not a JSON array")
)

type server struct {
	logger     *zap.Logger
	samplePath string
	gatherer   prometheus.Gatherer
}

func newServer(logger *zap.Logger, samplePath string, gatherer prometheus.Gatherer) *server {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return &server{logger: logger, samplePath: samplePath, gatherer: gatherer}
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/doit", s.handleDoit)
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	return mux
}

func (s *server) handleDoit(w http.ResponseWriter, r *http.Request) {
	n, err := s.logSamples()
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ErrSampleNotFound) {
			status = http.StatusNotFound
		}
		s.logger.Warn("doit failed", zap.String("sample", s.samplePath), zap.Error(err))
		http.Error(w, err.Error(), status)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "%d JSON Records were logged successfully.", n)
}

// logSamples 把示例数组中的每个元素以其 JSON 文本作为消息写入 DEBUG 日志
func (s *server) logSamples() (int, error) {
	data, err := os.ReadFile(s.samplePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, fmt.Errorf("%w: %s", ErrSampleNotFound, s.samplePath)
		}
		return 0, fmt.Errorf("read sample: %w", err)
	}

	var p fastjson.Parser
	v, err := p.ParseBytes(data)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrSampleInvalid, err)
	}
	records, err := v.Array()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrSampleInvalid, err)
	}

	for _, rec := range records {
		s.logger.Debug(rec.String())
	}
	return len(records), nil
}
