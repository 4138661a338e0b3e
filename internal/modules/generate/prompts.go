package generate

import "fmt"

const systemPrompt = `You are a professional newsletter writer for Starboard Analytics.
Write engaging, concise, and insightful content.
Use markdown formatting. Structure with clear sections using emoji headers.
Keep paragraphs short (2-3 sentences max).
Include links where relevant using [text](url) markdown format.
Use ─── (three em dashes) as section dividers.`

// DefaultSources is passed when a cron run has no ingested source material.
const DefaultSources = "Use your latest knowledge of crypto and energy markets to write today's newsletter."

const minorNewsPrompt = `Write today's Minor News daily digest for %s.

Topic: Crypto & energy infrastructure news.

Source material:
%s

Format:
🐦 Hot Take — One sharp, opinionated observation (2-3 sentences)
───
📖 Key Stories — 3-5 most important news items, each with:
   - Bold headline
   - 1-2 sentence summary
   - Why it matters
───
🤔 What to Watch — 2-3 developing trends or upcoming events
───
📰 Quick Hits — 5-8 one-line news items with links

Tone: Professional but accessible. No jargon without explanation.
Length: 800-1200 words total.`

const intoCryptoCNPrompt = `为 %s 撰写 Into Crypto 日报（中文）。

主题：加密货币深度分析，零基础友好。

素材：
%s

格式：
🐦 今日观点 — 一个犀利的市场观察（2-3句话）
───
📖 概念解读 — 选一个加密概念用简单中文解释
   - 是什么
   - 为什么重要
   - 简单类比
───
🤔 深度思考 — 2-3个引导读者思考的问题
───
📰 新闻速递 — 5-8条简短新闻，附链接

语气：专业但平易近人，对新手友好，避免未解释的术语。
字数：800-1200字。`

const intoCryptoENPrompt = `Write today's Into Crypto daily for %s.

Topic: Crypto education for beginners, zero jargon.

Source material:
%s

Format:
🐦 Hot Take — One sharp market observation (2-3 sentences)
───
📖 Concept of the Day — Pick one crypto concept and explain it simply
   - What it is
   - Why it matters
   - Simple analogy
───
🤔 Deep Questions — 2-3 thought-provoking questions for readers
───
📰 News Roundup — 5-8 brief news items with links

Tone: Educational, friendly, beginner-accessible. No unexplained jargon.
Length: 800-1200 words total.`

// Each template is fixed per report type and embeds the structural
// formatting instructions the renderer understands.
var promptTemplates = map[string]string{
	"minor_news":     minorNewsPrompt,
	"into_crypto_cn": intoCryptoCNPrompt,
	"into_crypto_en": intoCryptoENPrompt,
}

// SupportedReportTypes returns the report types that have a prompt template.
func SupportedReportTypes() []string {
	// Stable order for API responses and cron loops.
	return []string{"minor_news", "into_crypto_cn", "into_crypto_en"}
}

// buildPrompt renders the user prompt for a report type, or an error when
// the type has no template.
func buildPrompt(reportType, date, sources string) (string, error) {
	tpl, ok := promptTemplates[reportType]
	if !ok {
		return "", fmt.Errorf("no prompt template for report type: %s", reportType)
	}
	return fmt.Sprintf(tpl, date, sources), nil
}
