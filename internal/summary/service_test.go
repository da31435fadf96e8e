package summary

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

// fakeGenerator 记录调用并可按标题注入失败
type fakeGenerator struct {
	calls   int
	failFor map[string]bool
}

func (f *fakeGenerator) Summarize(_ context.Context, item NewsItem) (string, error) {
	f.calls++
	if f.failFor[item.Title] {
		return "", errors.New("llm unavailable")
	}
	return "摘要：" + item.Title, nil
}

func bigNewsList(n int) []NewsItem {
	items := make([]NewsItem, 0, n)
	for i := 0; i < n; i++ {
		items = append(items, NewsItem{
			Title:      fmt.Sprintf("新闻标题 %02d", i+1),
			URL:        fmt.Sprintf("https://example.com/news/%d", i+1),
			SourceName: "微博热搜",
			Rank:       i + 1,
		})
	}
	return items
}

func TestGenerateFirstPageNoAnchor(t *testing.T) {
	cache := NewCache(t.TempDir())
	gen := &fakeGenerator{}
	svc := NewService(cache, gen)

	news := bigNewsList(25)
	resp := svc.GenerateOnDemand(context.Background(), GenerateRequest{NewsList: news, Page: 1, PageSize: 10})

	if !resp.Success {
		t.Fatalf("response not successful")
	}
	if len(resp.Summaries) != 10 {
		t.Fatalf("summaries = %d, want 10", len(resp.Summaries))
	}
	if !resp.HasMore {
		t.Fatalf("has_more should be true with 25 items and page_size 10")
	}
	if resp.Total != 25 || resp.Page != 1 {
		t.Fatalf("unexpected pagination meta: %+v", resp)
	}
	if gen.calls != 10 {
		t.Fatalf("generator calls = %d, want 10", gen.calls)
	}

	// 新锚点应已写入，且与全量列表的锚点一致
	if resp.Anchor != cache.ComputeAnchor(news) {
		t.Fatalf("response anchor mismatch")
	}
	date := svc.now().Format("2006-01-02")
	if !cache.CheckAnchor(date, news) {
		t.Fatalf("anchor for today should be stored after first request")
	}

	// 返回顺序应与请求页一致
	for i, rec := range resp.Summaries {
		if rec.Title != news[i].Title {
			t.Fatalf("order broken at %d: %q vs %q", i, rec.Title, news[i].Title)
		}
	}
}

func TestResubmitIdenticalListServesFromCache(t *testing.T) {
	cache := NewCache(t.TempDir())
	gen := &fakeGenerator{}
	svc := NewService(cache, gen)

	news := bigNewsList(25)
	req := GenerateRequest{NewsList: news, Page: 1, PageSize: 10}

	svc.GenerateOnDemand(context.Background(), req)
	callsAfterFirst := gen.calls

	resp := svc.GenerateOnDemand(context.Background(), req)
	if gen.calls != callsAfterFirst {
		t.Fatalf("second request should not call the generator, calls=%d", gen.calls)
	}
	if resp.CachedCount != 10 {
		t.Fatalf("cached_count = %d, want 10", resp.CachedCount)
	}
	if len(resp.Summaries) != 10 {
		t.Fatalf("summaries = %d, want 10", len(resp.Summaries))
	}
}

func TestTitleChangeInvalidatesWholeDate(t *testing.T) {
	cache := NewCache(t.TempDir())
	gen := &fakeGenerator{}
	svc := NewService(cache, gen)

	news := bigNewsList(25)
	svc.GenerateOnDemand(context.Background(), GenerateRequest{NewsList: news, Page: 1, PageSize: 10})
	svc.GenerateOnDemand(context.Background(), GenerateRequest{NewsList: news, Page: 2, PageSize: 10})
	if gen.calls != 20 {
		t.Fatalf("setup generator calls = %d, want 20", gen.calls)
	}

	// 改掉前 50 条里的一个标题：整日缓存失效，包括标题没变的条目
	changed := bigNewsList(25)
	changed[3].Title = "突发：完全不同的标题"
	resp := svc.GenerateOnDemand(context.Background(), GenerateRequest{NewsList: changed, Page: 1, PageSize: 10})

	if resp.CachedCount != 0 {
		t.Fatalf("cached_count = %d, want 0 after invalidation", resp.CachedCount)
	}
	if gen.calls != 30 {
		t.Fatalf("generator calls = %d, want 30 (full page regenerated)", gen.calls)
	}
	// 第一页重新生成后应重新可达
	if cache.GetSummary(news[0].URL, news[0].Title) == nil {
		t.Fatalf("regenerated entry should be cached again")
	}
	// 第二页的旧条目被整日失效清掉，且尚未重新生成
	if cache.GetSummary(news[15].URL, news[15].Title) != nil {
		t.Fatalf("page-2 entry from the old anchor should be unreachable")
	}
}

func TestFailedItemGetsPlaceholderAndIsNotCached(t *testing.T) {
	cache := NewCache(t.TempDir())
	gen := &fakeGenerator{failFor: map[string]bool{"新闻标题 02": true}}
	svc := NewService(cache, gen)

	news := bigNewsList(3)
	resp := svc.GenerateOnDemand(context.Background(), GenerateRequest{NewsList: news, Page: 1, PageSize: 10})

	// 页形状不变：失败条目用占位文案顶位
	if len(resp.Summaries) != 3 {
		t.Fatalf("summaries = %d, want 3", len(resp.Summaries))
	}
	if resp.Summaries[1].Summary != FailedSummaryText {
		t.Fatalf("failed item should carry placeholder, got %q", resp.Summaries[1].Summary)
	}
	if resp.HasMore {
		t.Fatalf("has_more should be false")
	}

	// 占位不入缓存，成功的入缓存
	if cache.HasSummary(news[1].URL) {
		t.Fatalf("placeholder must not be persisted")
	}
	if !cache.HasSummary(news[0].URL) {
		t.Fatalf("successful summary should be persisted")
	}

	// 重试时失败条目可重新生成
	gen.failFor = nil
	resp2 := svc.GenerateOnDemand(context.Background(), GenerateRequest{NewsList: news, Page: 1, PageSize: 10})
	if resp2.Summaries[1].Summary == FailedSummaryText {
		t.Fatalf("retry should regenerate the failed item")
	}
	if resp2.CachedCount != 2 {
		t.Fatalf("cached_count = %d, want 2", resp2.CachedCount)
	}
}

func TestPageBeyondEndReturnsEmpty(t *testing.T) {
	cache := NewCache(t.TempDir())
	svc := NewService(cache, &fakeGenerator{})

	news := bigNewsList(5)
	resp := svc.GenerateOnDemand(context.Background(), GenerateRequest{NewsList: news, Page: 3, PageSize: 10})

	if len(resp.Summaries) != 0 {
		t.Fatalf("summaries = %d, want 0", len(resp.Summaries))
	}
	if resp.HasMore {
		t.Fatalf("has_more should be false past the end")
	}
	if resp.Anchor == "" {
		t.Fatalf("anchor should still be reported")
	}
}

func TestNilGeneratorYieldsPlaceholders(t *testing.T) {
	cache := NewCache(t.TempDir())
	svc := NewService(cache, nil)

	news := bigNewsList(2)
	resp := svc.GenerateOnDemand(context.Background(), GenerateRequest{NewsList: news, Page: 1, PageSize: 10})

	if len(resp.Summaries) != 2 {
		t.Fatalf("summaries = %d, want 2", len(resp.Summaries))
	}
	for _, rec := range resp.Summaries {
		if rec.Summary != FailedSummaryText {
			t.Fatalf("expected placeholder, got %q", rec.Summary)
		}
	}
}

func TestExtractSummaryStripsPrefix(t *testing.T) {
	if got := extractSummary("摘要：今天的新闻。"); got != "今天的新闻。" {
		t.Fatalf("extractSummary = %q", got)
	}
	if got := extractSummary("  正文内容  "); got != "正文内容" {
		t.Fatalf("extractSummary = %q", got)
	}
	if got := extractSummary(""); got != "" {
		t.Fatalf("extractSummary should keep empty: %q", got)
	}
}
