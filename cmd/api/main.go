package main

import (
	"context"
	"log"
	"time"

	"github.com/1NormalGuy/August/internal/aggregator"
	"github.com/1NormalGuy/August/internal/api"
	"github.com/1NormalGuy/August/internal/collector"
	"github.com/1NormalGuy/August/internal/config"
	"github.com/1NormalGuy/August/internal/scheduler"
	"github.com/1NormalGuy/August/internal/storage"
	"github.com/1NormalGuy/August/internal/summary"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg := config.Load()
	if err := cfg.EnsureDirs(); err != nil {
		log.Fatalf("ensure dirs failed: %v", err)
	}

	// 注册采集器：进程启动时注册一次，之后只读
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
		sources = append(sources, aggregator.SourceConfig{ID: f.SourceID(), Name: f.SourceName()})
	}
	agg := aggregator.NewDailyAggregator(store, cfg.DataDir, sources)

	s, err := scheduler.New(cfg.CronSpec, registry, store, agg)
	if err != nil {
		log.Fatalf("init scheduler failed: %v", err)
	}
	s.Start()

	// 摘要生成按需开启；未配置时接口仍可用，只返回占位文案
	cache := summary.NewCache(cfg.SummariesDir)
	var gen summary.Generator
	if cfg.EnableSummary && cfg.LLMAPIKey != "" {
		gen = summary.NewOpenAIGenerator(cfg.LLMAPIKey, cfg.LLMAPIBase, cfg.LLMModel)
		log.Printf("summary generation enabled: model=%s", cfg.LLMModel)
	} else {
		log.Println("summary generation disabled")
	}
	svc := summary.NewService(cache, gen)

	// 可选的 Redis 读缓存
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Printf("warn: redis ping failed: %v", err)
		}
		cancel()
	}

	r := gin.Default()
	apiServer := api.NewServer(cfg.DataDir, svc, rdb)
	apiServer.RegisterRoutes(r)

	addr := ":" + cfg.AppPort
	log.Printf("starting api server at %s ...", addr)
	if err := r.Run(addr); err != nil {
		log.Fatalf("server exit: %v", err)
	}
}
