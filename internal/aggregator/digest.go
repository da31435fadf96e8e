package aggregator

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// 日榜文件名与条目行的固定格式
var (
	dateFilePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	itemLinePattern = regexp.MustCompile(`^(\d+)\.\s+\[(.+?)\]\((.+?)\)`)
)

type DigestItem struct {
	Rank  int    `json:"rank"`
	Title string `json:"title"`
	Link  string `json:"link"`
}

type DigestSource struct {
	Name  string       `json:"name"`
	Items []DigestItem `json:"items"`
}

// Digest 解析后的日榜：一个标题加若干按源分组的排行
type Digest struct {
	Title   string         `json:"title"`
	Sources []DigestSource `json:"sources"`
}

// AvailableDates 返回 dataDir 中所有存在日榜文件的日期，倒序
func AvailableDates(dataDir string) []string {
	entries, err := os.ReadDir(dataDir)
	if err != nil {
		return nil
	}

	var dates []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".md") {
			continue
		}
		stem := strings.TrimSuffix(name, ".md")
		if dateFilePattern.MatchString(stem) {
			dates = append(dates, stem)
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))
	return dates
}

// ParseDigest 按日榜文法重新解析指定日期的文件
func ParseDigest(dataDir, date string) (*Digest, error) {
	path := filepath.Join(dataDir, date+".md")
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("digest: open %s: %w", path, err)
	}
	defer f.Close()

	digest := &Digest{Sources: []DigestSource{}}
	var current *DigestSource

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "# ") && !strings.HasPrefix(line, "## ") {
			digest.Title = strings.TrimSpace(strings.TrimPrefix(line, "# "))
			continue
		}
		if strings.HasPrefix(line, "## ") {
			digest.Sources = append(digest.Sources, DigestSource{
				Name:  strings.TrimSpace(line[3:]),
				Items: []DigestItem{},
			})
			current = &digest.Sources[len(digest.Sources)-1]
			continue
		}
		m := itemLinePattern.FindStringSubmatch(line)
		if m != nil && current != nil {
			rank, _ := strconv.Atoi(m[1])
			current.Items = append(current.Items, DigestItem{
				Rank:  rank,
				Title: strings.TrimSpace(m[2]),
				Link:  strings.TrimSpace(m[3]),
			})
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("digest: read %s: %w", path, err)
	}

	if digest.Title == "" {
		digest.Title = date + " 热门资讯"
	}
	return digest, nil
}
