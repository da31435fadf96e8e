package config

import (
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort string

	// 数据目录：data 存放每日聚合产物，temp 存放各源快照
	DataDir      string
	TempDir      string
	SummariesDir string

	// 可选的 Redis 读缓存地址，为空则不启用
	RedisAddr string

	CronSpec string

	// LLM 配置（摘要生成）
	EnableSummary bool
	LLMAPIKey     string
	LLMAPIBase    string
	LLMModel      string
}

func Load() *Config {
	// .env 可选，不存在时静默跳过
	_ = godotenv.Load()

	dataDir := getEnv("DATA_DIR", "data")

	cfg := &Config{
		AppPort:       getEnv("APP_PORT", "8000"),
		DataDir:       dataDir,
		TempDir:       getEnv("TEMP_DIR", "temp"),
		SummariesDir:  getEnv("SUMMARIES_DIR", filepath.Join(dataDir, "summaries")),
		RedisAddr:     getEnv("REDIS_ADDR", ""),
		CronSpec:      getEnv("CRON_SPEC", "*/30 * * * *"),
		EnableSummary: getEnv("ENABLE_SUMMARY", "0") == "1",
		LLMAPIKey:     getEnv("LLM_API_KEY", ""),
		LLMAPIBase:    getEnv("LLM_API_BASE", ""),
		LLMModel:      getEnv("LLM_MODEL", "glm-4-flash"),
	}

	log.Printf("config loaded: port=%s cron=%s data=%s", cfg.AppPort, cfg.CronSpec, cfg.DataDir)
	return cfg
}

// EnsureDirs 确保数据目录存在，启动时调用一次
func (c *Config) EnsureDirs() error {
	for _, dir := range []string{c.DataDir, c.TempDir, c.SummariesDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// Now returns current time, 方便后续做可测试封装
func Now() time.Time {
	return time.Now()
}
