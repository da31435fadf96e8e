package main

import (
	"log"

	"github.com/1NormalGuy/August/internal/aggregator"
	"github.com/1NormalGuy/August/internal/collector"
	"github.com/1NormalGuy/August/internal/config"
	"github.com/1NormalGuy/August/internal/scheduler"
	"github.com/1NormalGuy/August/internal/storage"
)

// 一个仅执行一次采集+聚合的命令行入口：适合手动触发
func main() {
	cfg := config.Load()
	if err := cfg.EnsureDirs(); err != nil {
		log.Fatalf("ensure dirs failed: %v", err)
	}

	// 注册采集器（与 cmd/api 保持一致）
	registry := collector.NewRegistry()
	registry.Register(collector.NewJiqizhixinFetcher())
	registry.Register(&collector.HackerNewsFetcher{})
	registry.Register(&collector.GitHubTrendingFetcher{})

	store := storage.NewSnapshotStore(cfg.TempDir)

	var sources []aggregator.SourceConfig
	for _, id := range registry.ListSourceIDs() {
		f, err := registry.Get(id)
		if err != nil {
			log.Fatalf("registry lookup %s failed: %v", id, err)
		}
		sources = append(sources, aggregator.SourceConfig{ID: id, Name: f.SourceName()})
	}
	agg := aggregator.NewDailyAggregator(store, cfg.DataDir, sources)

	s, err := scheduler.New(cfg.CronSpec, registry, store, agg)
	if err != nil {
		log.Fatalf("init scheduler failed: %v", err)
	}

	// 只执行一轮任务后退出
	s.RunOnce()
}
