package scheduler

import (
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/1NormalGuy/August/internal/aggregator"
	"github.com/1NormalGuy/August/internal/collector"
	"github.com/1NormalGuy/August/internal/storage"
	"github.com/robfig/cron/v3"
)

// Scheduler 周期任务：并发抓取全部数据源 -> 落快照 -> 聚合当天
type Scheduler struct {
	cron       *cron.Cron
	registry   *collector.Registry
	store      *storage.SnapshotStore
	aggregator *aggregator.DailyAggregator
}

func New(spec string, registry *collector.Registry, store *storage.SnapshotStore, agg *aggregator.DailyAggregator) (*Scheduler, error) {
	c := cron.New()

	s := &Scheduler{
		cron:       c,
		registry:   registry,
		store:      store,
		aggregator: agg,
	}

	_, err := c.AddFunc(spec, s.runOnce)
	if err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	// 延迟执行首轮采集，避免与进程启动期的请求争抢资源
	const startupDelay = 15 * time.Second
	time.AfterFunc(startupDelay, func() {
		go s.runOnce()
	})
}

func (s *Scheduler) Stop() {
	s.cron.Stop()
}

// Cron 暴露底层 cron，便于挂额外任务
func (s *Scheduler) Cron() *cron.Cron {
	return s.cron
}

// RunOnce 对外暴露的单次执行入口，方便手动触发采集
func (s *Scheduler) RunOnce() {
	s.runOnce()
}

func (s *Scheduler) runOnce() {
	log.Println("start collect job...")

	if s.FetchAllSources() {
		s.AggregateToday()
	} else {
		log.Println("fetch failed for all sources, skipping aggregation")
	}

	log.Println("collect job done")
}

// FetchAllSources 并发抓取所有已注册数据源并各自落一份快照。
// 单源失败只记录日志不影响其它源；至少一个源成功即返回 true
func (s *Scheduler) FetchAllSources() bool {
	sourceIDs := s.registry.ListSourceIDs()
	log.Printf("fetching %d sources...", len(sourceIDs))

	var (
		wg         sync.WaitGroup
		successes  atomic.Int64
		totalItems atomic.Int64
	)

	for _, sourceID := range sourceIDs {
		fetcher, err := s.registry.Get(sourceID)
		if err != nil {
			log.Printf("fetch %s: %v", sourceID, err)
			continue
		}

		wg.Add(1)
		go func(id string, f collector.Fetcher) {
			defer wg.Done()

			items, err := f.Fetch()
			if err != nil {
				log.Printf("fetch %s error: %v", id, err)
				return
			}
			if _, err := s.store.Save(id, items); err != nil {
				log.Printf("save %s snapshot error: %v", id, err)
				return
			}
			successes.Add(1)
			totalItems.Add(int64(len(items)))
		}(sourceID, fetcher)
	}
	wg.Wait()

	log.Printf("fetch completed: %d/%d succeeded, %d items total",
		successes.Load(), len(sourceIDs), totalItems.Load())
	return successes.Load() > 0
}

// AggregateToday 聚合当天数据，失败由下个周期重试
func (s *Scheduler) AggregateToday() bool {
	today := time.Now().Format("2006-01-02")
	log.Printf("aggregating data for %s...", today)

	if ok := s.aggregator.Generate(today); !ok {
		log.Printf("aggregation failed for %s", today)
		return false
	}
	return true
}
