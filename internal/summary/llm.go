package summary

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const summaryPromptTemplate = `你是一个专业的新闻摘要助手。请根据以下内容生成简洁、准确的摘要。

**原始内容：**

%s

**要求：**

1. 字数：250-300字
2. 结构清晰，分段呈现（2-3个自然段）
3. 保留关键信息、数据、人物、时间等要素
4. 使用客观、中立的语气
5. 避免主观评价和情绪化表达
6. 如果是争议话题，呈现多方观点
7. 保持逻辑连贯，易于理解

**输出格式：**

直接输出摘要内容，不需要标题或其他说明。`

var summaryPrefixPattern = regexp.MustCompile(`^摘要[：:]\s*`)

// Generator 摘要生成器：对单条新闻产出摘要文本，失败由调用方逐条兜底
type Generator interface {
	Summarize(ctx context.Context, item NewsItem) (string, error)
}

// OpenAIGenerator 走 OpenAI 兼容接口的摘要生成器
type OpenAIGenerator struct {
	client *openai.Client
	model  string
}

func NewOpenAIGenerator(apiKey, apiBase, model string) *OpenAIGenerator {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if apiBase != "" {
		opts = append(opts, option.WithBaseURL(apiBase))
	}
	client := openai.NewClient(opts...)
	return &OpenAIGenerator{client: &client, model: model}
}

func (g *OpenAIGenerator) Summarize(ctx context.Context, item NewsItem) (string, error) {
	prompt := buildPrompt(item)

	resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(g.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		return "", fmt.Errorf("llm: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("llm: empty response")
	}

	return extractSummary(resp.Choices[0].Message.Content), nil
}

func buildPrompt(item NewsItem) string {
	// 只有标题可用时，让模型根据标题生成
	content := fmt.Sprintf("标题：%s\n\n（无法获取正文内容，请根据标题生成摘要）", item.Title)
	return fmt.Sprintf(summaryPromptTemplate, content)
}

// extractSummary 清理 LLM 返回内容，去掉可能带的“摘要：”前缀
func extractSummary(response string) string {
	content := strings.TrimSpace(response)
	if content == "" {
		return ""
	}
	return strings.TrimSpace(summaryPrefixPattern.ReplaceAllString(content, ""))
}
