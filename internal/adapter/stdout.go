package adapter

import (
	"io"
	"os"
	"sync"

	"github.com/iuboy/hublog/core"
)

// stdoutAdapter 写标准输出，Close 不关闭 os.Stdout
type stdoutAdapter struct {
	mu  sync.Mutex
	out io.Writer
}

func newStdoutAdapter() (core.WriteSyncer, error) {
	if os.Stdout == nil {
		return nil, os.ErrInvalid
	}
	return &stdoutAdapter{out: os.Stdout}, nil
}

func (s *stdoutAdapter) Write(p []byte) (n int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.out.Write(p)
}

func (s *stdoutAdapter) Sync() error {
	if f, ok := s.out.(*os.File); ok {
		// 终端或管道上 Sync 会返回 EINVAL，忽略
		_ = f.Sync()
	}
	return nil
}

func (s *stdoutAdapter) Close() error {
	return s.Sync()
}
