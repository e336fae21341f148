package postback_log

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/fatflowers/postback/internal/models"
	"github.com/fatflowers/postback/pkg/apperr"
	"github.com/fatflowers/postback/pkg/logctx"
	"github.com/fatflowers/postback/pkg/tool"
	"github.com/fatflowers/postback/pkg/types"
)

var ScanFields = []string{"id", "trace_id", "transaction_id", "event", "old_status", "current_status", "status", "outcome", "received_at", "created_at"}

const queueSize = 1024

type Service struct {
	db     *gorm.DB
	log    *zap.SugaredLogger
	queue  chan saveJob
	wg     sync.WaitGroup
	mu     sync.RWMutex
	closed bool
}

type saveJob struct {
	ctx context.Context
	row models.PostbackLog
}

func New(db *gorm.DB, log *zap.SugaredLogger) *Service {
	s := &Service{db: db, log: log, queue: make(chan saveJob, queueSize)}
	go s.run()
	return s
}

// Save asynchronously persists a postback log. Saves are applied in call
// order, so a later status of the same row always wins. Nil input is ignored.
func (s *Service) Save(ctx context.Context, log *models.PostbackLog) {
	if log == nil {
		return
	}
	if log.ID == "" {
		log.ID = tool.GenerateUUIDV7()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now()
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		logctx.FromCtx(ctx, s.log).Warnw("postback log dropped after close", "id", log.ID)
		return
	}
	s.wg.Add(1)
	s.queue <- saveJob{ctx: context.WithoutCancel(ctx), row: *log}
}

func (s *Service) run() {
	for job := range s.queue {
		row := job.row
		if err := s.db.WithContext(job.ctx).Save(&row).Error; err != nil {
			logctx.FromCtx(job.ctx, s.log).Errorf("failed to save postback log: %v", err)
		}
		s.wg.Done()
	}
}

// Flush waits for pending saves.
func (s *Service) Flush() { s.wg.Wait() }

// Close flushes and stops the worker. Later saves are dropped.
func (s *Service) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()
	s.Flush()
	close(s.queue)
}

type ScanResponse struct {
	Items []*models.PostbackLog `json:"items"`
	Total int64                 `json:"total"`
}

func (s *Service) Scan(ctx context.Context, req *types.ScanRequest) (*ScanResponse, error) {
	if req == nil {
		return nil, fmt.Errorf("nil request")
	}
	if err := req.Normalize(ScanFields); err != nil {
		return nil, apperr.Protocol("%v", err)
	}
	tx := req.Where(s.db.WithContext(ctx).Model(&models.PostbackLog{})).Session(&gorm.Session{})

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count postback logs: %w", err)
	}
	var rows []*models.PostbackLog
	if err := req.Page(tx).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list postback logs: %w", err)
	}
	return &ScanResponse{Items: rows, Total: total}, nil
}

func closeOnStop(lc fx.Lifecycle, s *Service) {
	lc.Append(fx.Hook{OnStop: func(context.Context) error {
		s.Close()
		return nil
	}})
}

var Module = fx.Options(
	fx.Provide(New),
	fx.Invoke(closeOnStop),
)
