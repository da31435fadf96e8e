package collector

import (
	"errors"
	"fmt"
)

// Trend 统一采集后的条目结构，各数据源抓取结果都归一到这里
type Trend struct {
	// 唯一标识符（通常是 URL）
	ID    string `json:"id"`
	Title string `json:"title"`
	URL   string `json:"url"`
	// 热度分数，越大越靠前；0 视为缺省，序列化时省略
	Score       int    `json:"score,omitempty"`
	Description string `json:"description,omitempty"`
}

// NewTrend 构造并校验一个 Trend：id 与 title 不能为空
func NewTrend(id, title, url string) (Trend, error) {
	if id == "" {
		return Trend{}, errors.New("trend: id 不能为空")
	}
	if title == "" {
		return Trend{}, errors.New("trend: title 不能为空")
	}
	return Trend{ID: id, Title: title, URL: url}, nil
}

// Fetcher 抽象每一个数据源
type Fetcher interface {
	// SourceID 数据源唯一标识符
	SourceID() string
	// SourceName 数据源显示名称
	SourceName() string
	// Fetch 抓取热搜/新闻数据，部分失败时尽力返回已取得的条目
	Fetch() ([]Trend, error)
}

// ErrNotRegistered 查询了未注册的数据源
var ErrNotRegistered = errors.New("collector: source not registered")

// Registry 数据源注册表：进程启动时注册一次，之后只读
type Registry struct {
	fetchers map[string]Fetcher
	order    []string
}

func NewRegistry() *Registry {
	return &Registry{fetchers: make(map[string]Fetcher)}
}

// Register 注册数据抓取器，同名覆盖
func (r *Registry) Register(f Fetcher) {
	id := f.SourceID()
	if _, ok := r.fetchers[id]; !ok {
		r.order = append(r.order, id)
	}
	r.fetchers[id] = f
}

// Get 获取指定数据源的抓取器，未注册时返回 ErrNotRegistered
func (r *Registry) Get(sourceID string) (Fetcher, error) {
	f, ok := r.fetchers[sourceID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotRegistered, sourceID)
	}
	return f, nil
}

// GetOptional 获取指定数据源的抓取器，不存在时返回 nil
func (r *Registry) GetOptional(sourceID string) Fetcher {
	return r.fetchers[sourceID]
}

// All 返回数据源 ID 到抓取器的映射副本
func (r *Registry) All() map[string]Fetcher {
	out := make(map[string]Fetcher, len(r.fetchers))
	for id, f := range r.fetchers {
		out[id] = f
	}
	return out
}

// ListSourceIDs 按注册顺序返回所有数据源 ID
func (r *Registry) ListSourceIDs() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

func (r *Registry) Count() int {
	return len(r.fetchers)
}
