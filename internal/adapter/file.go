package adapter

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/iuboy/hublog/config"
	"github.com/iuboy/hublog/core"
	"github.com/natefinch/lumberjack"
)

const (
	flockRetryDelay = 100 * time.Millisecond
	flockTimeout    = 3 * time.Second
	renameAttempts  = 3
)

// fileAdapter 是本地滚动文件输出，保存带 zap 字段的完整日志，
// 与 eventhub 输出只发送六字段消息互补。
//
// 关闭后的写入返回 os.ErrClosed，不会让 lumberjack 重新打开文件。
type fileAdapter struct {
	mu     sync.Mutex
	lj     *lumberjack.Logger
	closed bool
}

func newFileAdapter(cfg config.FileConfig) (core.WriteSyncer, error) {
	if cfg.Path == "" {
		return nil, errors.New("文件路径不能为空")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, fmt.Errorf("创建日志目录失败: %w", err)
	}
	if cfg.RotateOnStartup {
		if err := rotateOnStartup(cfg.Path, time.Now()); err != nil {
			return nil, err
		}
	}

	return &fileAdapter{lj: &lumberjack.Logger{
		Filename:   cfg.Path,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
		LocalTime:  cfg.LocalTime,
	}}, nil
}

func (f *fileAdapter) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return 0, os.ErrClosed
	}
	return f.lj.Write(p)
}

// Sync 无需操作，lumberjack 每次 Write 都直接写文件
func (f *fileAdapter) Sync() error { return nil }

func (f *fileAdapter) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil
	}
	f.closed = true
	if err := f.lj.Close(); err != nil {
		return fmt.Errorf("file close failed: %w", err)
	}
	return nil
}

// rotateOnStartup 把上次运行留下的日志改名为 <path>.<时间戳> 备份。
// 同一路径被多个进程共用时，文件锁保证只改名一次。
func rotateOnStartup(path string, now time.Time) error {
	lock := flock.New(path + ".lock")
	ctx, cancel := context.WithTimeout(context.Background(), flockTimeout)
	defer cancel()

	locked, err := lock.TryLockContext(ctx, flockRetryDelay)
	if err != nil || !locked {
		return fmt.Errorf("获取轮转文件锁失败 %s: %v", path, err)
	}
	defer func() { _ = lock.Unlock() }()

	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	} else if err != nil {
		return fmt.Errorf("检查日志文件状态失败: %w", err)
	}

	backup := path + "." + now.Format("20060102_150405.000")
	var renameErr error
	for i := 1; i <= renameAttempts; i++ {
		renameErr = os.Rename(path, backup)
		if renameErr == nil || errors.Is(renameErr, fs.ErrNotExist) {
			return nil
		}
		time.Sleep(time.Duration(i) * flockRetryDelay)
	}
	return fmt.Errorf("日志重命名失败: %w", renameErr)
}
