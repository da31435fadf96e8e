package api

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/1NormalGuy/August/internal/aggregator"
	"github.com/1NormalGuy/August/internal/summary"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// 日榜查询结果的 Redis 缓存时长
const newsCacheTTL = 5 * time.Minute

type Server struct {
	dataDir string
	svc     *summary.Service
	redis   *redis.Client
}

// NewServer rdb 可为 nil，此时不启用读缓存
func NewServer(dataDir string, svc *summary.Service, rdb *redis.Client) *Server {
	return &Server{dataDir: dataDir, svc: svc, redis: rdb}
}

func (s *Server) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", s.health)

	api := r.Group("/api")
	{
		api.GET("/dates", s.listDates)
		api.GET("/news/:date", s.getNews)
		api.POST("/summary/generate", s.generateSummaries)
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) listDates(c *gin.Context) {
	dates := aggregator.AvailableDates(s.dataDir)
	if dates == nil {
		dates = []string{}
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"dates":   dates,
	})
}

type newsPayload struct {
	Success bool               `json:"success"`
	Date    string             `json:"date"`
	News    []summary.NewsItem `json:"news"`
	Total   int                `json:"total"`
}

func (s *Server) getNews(c *gin.Context) {
	date := c.Param("date")

	// L2: Redis 读缓存，未配置或未命中时直接落盘解析
	cacheKey := "news:date:" + date
	if s.redis != nil {
		if bs, err := s.redis.Get(c.Request.Context(), cacheKey).Bytes(); err == nil {
			var cached newsPayload
			if err := json.Unmarshal(bs, &cached); err == nil {
				c.JSON(http.StatusOK, cached)
				return
			}
		}
	}

	found := false
	for _, d := range aggregator.AvailableDates(s.dataDir) {
		if d == date {
			found = true
			break
		}
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{
			"code":    "not_found",
			"message": "未找到 " + date + " 的数据",
		})
		return
	}

	digest, err := aggregator.ParseDigest(s.dataDir, date)
	if err != nil {
		log.Printf("api: parse digest %s: %v", date, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    "internal_error",
			"message": "internal server error",
		})
		return
	}

	news := flattenDigest(digest)
	payload := newsPayload{
		Success: true,
		Date:    date,
		News:    news,
		Total:   len(news),
	}

	// 回写缓存，减轻同一天内重复打开的解析压力
	if s.redis != nil {
		if bs, err := json.Marshal(payload); err == nil {
			_ = s.redis.Set(c.Request.Context(), cacheKey, bs, newsCacheTTL).Err()
		}
	}

	c.JSON(http.StatusOK, payload)
}

// flattenDigest 把按源分组的日榜打平成一维条目列表，供摘要接口回传使用
func flattenDigest(d *aggregator.Digest) []summary.NewsItem {
	items := make([]summary.NewsItem, 0, 64)
	for _, src := range d.Sources {
		for _, it := range src.Items {
			items = append(items, summary.NewsItem{
				Title:      it.Title,
				URL:        it.Link,
				SourceName: src.Name,
				Rank:       it.Rank,
			})
		}
	}
	return items
}

func (s *Server) generateSummaries(c *gin.Context) {
	var req summary.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    "bad_request",
			"message": err.Error(),
		})
		return
	}

	resp := s.svc.GenerateOnDemand(c.Request.Context(), req)
	c.JSON(http.StatusOK, resp)
}
