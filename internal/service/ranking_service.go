package service

import (
	"context"
	"sync"
	"time"

	"skillforge_backend/internal/repository"
	"skillforge_backend/pkg/logger"
	"skillforge_backend/pkg/monitoring"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

// RankingService 全量重算排行名次。
// 重排是全表操作，并发加分会同时改写同一批名次，因此重排不内联在加分事务里：
// 加分提交后只投递一个“脏”信号，由单个消费协程按限频逐次重排，
// 互斥锁保证同一时刻只有一趟重排在跑。
type RankingService struct {
	StatsRepo *repository.UserStatsRepository
	DB        *gorm.DB

	// OnRecomputed 重排完成后的回调（排行榜缓存失效用）
	OnRecomputed func(field string)

	mu      sync.Mutex
	dirty   chan string
	limiter *rate.Limiter
	stop    chan struct{}
	done    chan struct{}
}

func NewRankingService(statsRepo *repository.UserStatsRepository, db *gorm.DB, minInterval time.Duration) *RankingService {
	if minInterval <= 0 {
		minInterval = 5 * time.Second
	}
	return &RankingService{
		StatsRepo: statsRepo,
		DB:        db,
		dirty:     make(chan string, 1),
		limiter:   rate.NewLimiter(rate.Every(minInterval), 1),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Recompute 按指定周期字段降序给全部用户赋密集名次（1起始，同分按存储顺序稳定排列）。
func (s *RankingService) Recompute(field string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		statsRepo := s.StatsRepo.WithTx(tx)
		rows, err := statsRepo.ListOrderedByPeriod(field)
		if err != nil {
			return err
		}

		for i := range rows {
			position := i + 1
			if rows[i].RankingPosition != nil && *rows[i].RankingPosition == position {
				continue
			}
			if err := statsRepo.UpdateRankingPosition(rows[i].UserID, position); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	monitoring.RankingRecomputeDuration.Observe(time.Since(start).Seconds())

	if s.OnRecomputed != nil {
		s.OnRecomputed(field)
	}
	return nil
}

// MarkDirty 投递重排信号，信号已挂起时直接合并
func (s *RankingService) MarkDirty(field string) {
	select {
	case s.dirty <- field:
	default:
	}
}

// Run 单消费者循环，需要单独的协程执行
func (s *RankingService) Run() {
	defer close(s.done)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-s.stop
		cancel()
	}()

	for {
		select {
		case <-s.stop:
			return
		case field := <-s.dirty:
			if err := s.limiter.Wait(ctx); err != nil {
				return
			}
			if err := s.Recompute(field); err != nil {
				logger.Log.Error("ranking recompute failed", zap.String("field", field), zap.Error(err))
			}
		}
	}
}

func (s *RankingService) Stop() {
	close(s.stop)
	<-s.done
}
