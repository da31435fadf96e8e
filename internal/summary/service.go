package summary

import (
	"context"
	"errors"
	"log"
	"time"
)

// FailedSummaryText 单条生成失败时的占位文案，不会写入缓存，下次请求可重试
const FailedSummaryText = "摘要生成失败，请稍后重试。"

const defaultPageSize = 10

// GenerateRequest 按需生成摘要的请求：完整日榜条目列表加一个分页窗口
type GenerateRequest struct {
	NewsList []NewsItem `json:"news_list"`
	Page     int        `json:"page"`
	PageSize int        `json:"page_size"`
}

type GenerateResponse struct {
	Success     bool     `json:"success"`
	Page        int      `json:"page"`
	Total       int      `json:"total"`
	PageSize    int      `json:"page_size"`
	Summaries   []Record `json:"summaries"`
	HasMore     bool     `json:"has_more"`
	Anchor      string   `json:"anchor"`
	CachedCount int      `json:"cached_count"`
}

// Service 按需摘要服务：锚点校验、缓存查找、缺失批量生成、原序返回
type Service struct {
	cache *Cache
	gen   Generator

	// 可替换的时钟，测试用
	now func() time.Time
}

func NewService(cache *Cache, gen Generator) *Service {
	return &Service{cache: cache, gen: gen, now: time.Now}
}

// GenerateOnDemand 处理一页摘要请求。
// 锚点不匹配时先清掉当日缓存再记录新锚点；缓存未命中的条目批量生成后落盘，
// 单条失败用占位文案顶位且不入缓存，结果按请求页原始顺序返回
func (s *Service) GenerateOnDemand(ctx context.Context, req GenerateRequest) GenerateResponse {
	date := s.now().Format("2006-01-02")

	if req.Page <= 0 {
		req.Page = 1
	}
	if req.PageSize <= 0 {
		req.PageSize = defaultPageSize
	}

	if !s.cache.CheckAnchor(date, req.NewsList) {
		s.cache.InvalidateCacheForDate(date)
		s.cache.UpdateAnchor(date, req.NewsList)
	}

	start := (req.Page - 1) * req.PageSize
	end := start + req.PageSize
	hasMore := end < len(req.NewsList)
	if end > len(req.NewsList) {
		end = len(req.NewsList)
	}
	if start >= len(req.NewsList) {
		return GenerateResponse{
			Success:   true,
			Page:      req.Page,
			Total:     len(req.NewsList),
			PageSize:  req.PageSize,
			Summaries: []Record{},
			HasMore:   false,
			Anchor:    s.cache.ComputeAnchor(req.NewsList),
		}
	}
	pageNews := req.NewsList[start:end]

	results := make([]Record, 0, len(pageNews))
	var toGenerate []NewsItem

	for _, n := range pageNews {
		if cached := s.cache.GetSummary(n.NewsID(), n.Title); cached != nil {
			results = append(results, *cached)
		} else {
			toGenerate = append(toGenerate, n)
		}
	}
	cachedCount := len(results)

	if len(toGenerate) > 0 {
		generatedAt := s.now().Format("2006-01-02 15:04:05")
		var newRecords []Record

		for _, n := range toGenerate {
			rec := Record{
				NewsID:      n.NewsID(),
				Title:       n.Title,
				URL:         n.NewsID(),
				SourceName:  n.SourceName,
				GeneratedAt: generatedAt,
			}

			text, err := s.summarizeOne(ctx, n)
			if err != nil || text == "" {
				if err != nil {
					log.Printf("summary: generate %q: %v", n.Title, err)
				}
				// 失败占位只进响应，不进缓存
				rec.Summary = FailedSummaryText
				results = append(results, rec)
				continue
			}

			rec.Summary = text
			newRecords = append(newRecords, rec)
			results = append(results, rec)
		}

		if len(newRecords) > 0 {
			s.cache.SaveSummaries(date, newRecords)
		}
	}

	// 命中与新生成混在一起，按请求页原始顺序重排
	byID := make(map[string]Record, len(results))
	for _, r := range results {
		byID[r.NewsID] = r
	}
	ordered := make([]Record, 0, len(pageNews))
	for _, n := range pageNews {
		if r, ok := byID[n.NewsID()]; ok {
			ordered = append(ordered, r)
		}
	}

	return GenerateResponse{
		Success:     true,
		Page:        req.Page,
		Total:       len(req.NewsList),
		PageSize:    req.PageSize,
		Summaries:   ordered,
		HasMore:     hasMore,
		Anchor:      s.cache.ComputeAnchor(req.NewsList),
		CachedCount: cachedCount,
	}
}

// ErrGeneratorDisabled 摘要生成未配置（ENABLE_SUMMARY=0 或缺少 API Key）
var ErrGeneratorDisabled = errors.New("summary: generator not configured")

func (s *Service) summarizeOne(ctx context.Context, item NewsItem) (string, error) {
	if s.gen == nil {
		return "", ErrGeneratorDisabled
	}
	return s.gen.Summarize(ctx, item)
}
