package journal

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/iuboy/hublog/config"
	"github.com/iuboy/hublog/core"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const flushTimeout = 10 * time.Second

// FailureRecord 是失败日志表的一行
type FailureRecord struct {
	ID         string    `gorm:"column:id;primaryKey;size:26"`
	Kind       string    `gorm:"column:kind;size:32;index"`
	Output     string    `gorm:"column:output;size:128"`
	OccurredAt time.Time `gorm:"column:occurred_at;index"`
	Cause      string    `gorm:"column:cause;type:text"`
	Payload    string    `gorm:"column:payload;type:text"`
}

func newRecord(f core.Failure) FailureRecord {
	rec := FailureRecord{
		ID:         f.ID.String(),
		Kind:       string(f.Kind),
		Output:     f.Output,
		OccurredAt: f.Time,
		Payload:    string(f.Payload),
	}
	if f.Cause != nil {
		rec.Cause = f.Cause.Error()
	}
	return rec
}

// RecordStore 是失败日志的持久化后端
type RecordStore interface {
	InsertBatch(ctx context.Context, records []FailureRecord) error
	Close() error
}

type sqlStore struct {
	db        *gorm.DB
	table     string
	batchSize int
}

func openSQLStore(cfg config.DatabaseConfig) (*sqlStore, error) {
	var dialector gorm.Dialector
	switch cfg.DriverName {
	case "mysql":
		dialector = mysql.Open(cfg.DataSourceName)
	case "postgres":
		dialector = postgres.Open(cfg.DataSourceName)
	case "sqlite":
		dialector = sqlite.Open(cfg.DataSourceName)
	default:
		return nil, fmt.Errorf("unsupported driver: %s", cfg.DriverName)
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{Logger: gormlogger.Discard})
	if err != nil {
		return nil, err
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.MaxConnLifetime)

	if cfg.AutoMigrate {
		if err := gdb.Table(cfg.TableName).AutoMigrate(&FailureRecord{}); err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("migrate %s: %w", cfg.TableName, err)
		}
	}

	return &sqlStore{
		db:        gdb,
		table:     cfg.TableName,
		batchSize: cfg.BatchSize,
	}, nil
}

func (s *sqlStore) InsertBatch(ctx context.Context, records []FailureRecord) error {
	if len(records) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Table(s.table).CreateInBatches(&records, s.batchSize).Error
}

func (s *sqlStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Store 异步批量写入失败记录，队列满时丢弃，不阻塞调用方
type Store struct {
	config  config.DatabaseConfig
	backend RecordStore
	entries chan core.Failure
	done    chan struct{}

	mu     sync.RWMutex
	closed bool
}

// Open 按配置连接数据库并启动写入协程
func Open(cfg config.DatabaseConfig) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	backend, err := openSQLStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("open failure journal: %w", err)
	}
	return NewStore(cfg, backend), nil
}

// NewStore 使用给定后端创建 Store，cfg 需已通过 Validate
func NewStore(cfg config.DatabaseConfig, backend RecordStore) *Store {
	s := &Store{
		config:  cfg,
		backend: backend,
		entries: make(chan core.Failure, cfg.BatchSize*10),
		done:    make(chan struct{}),
	}
	go s.run()
	return s
}

// Report 实现 core.FailureReporter
func (s *Store) Report(f core.Failure) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return
	}
	select {
	case s.entries <- f:
	default:
		fmt.Fprintf(os.Stderr, "failure journal full, dropping %s\n", f.ID)
	}
}

// Close 写完剩余记录后关闭后端
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.entries)
	s.mu.Unlock()

	<-s.done
	return s.backend.Close()
}

func (s *Store) run() {
	defer close(s.done)

	ticker := time.NewTicker(s.config.BatchInterval)
	defer ticker.Stop()

	var batch []FailureRecord

	for {
		select {
		case f, ok := <-s.entries:
			if !ok {
				s.flush(batch)
				return
			}
			batch = append(batch, newRecord(f))

			// 达到批次大小立即写入
			if len(batch) >= s.config.BatchSize {
				s.insert(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				s.insert(batch)
				batch = batch[:0]
			}
		}
	}
}

func (s *Store) insert(batch []FailureRecord) {
	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()
	if err := s.backend.InsertBatch(ctx, batch); err != nil {
		fmt.Fprintf(os.Stderr, "failure journal insert failed: %v\n", err)
	}
}

// flush 关闭时写入剩余记录，最多尝试三次
func (s *Store) flush(batch []FailureRecord) {
	if len(batch) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()

	var err error
	for i := 0; i < 3; i++ {
		if err = s.backend.InsertBatch(ctx, batch); err == nil {
			return
		}
		time.Sleep(s.config.RetryDelay)
	}
	fmt.Fprintf(os.Stderr, "failed to flush failure journal: %v\n", err)
}
