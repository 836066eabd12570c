package classify

import (
	"fmt"
	"strings"
	"time"

	"DailyBriefing/internal/domain"
)

const contentPromptLimit = 3000

// systemPrompt fixes the reply contract the parser relies on.
func systemPrompt() string {
	labels := make([]string, 0, len(domain.Categories()))
	for _, category := range domain.Categories() {
		labels = append(labels, string(category))
	}

	return fmt.Sprintf(`You are a technical article digest assistant. For each article you:
1. Read the article content.
2. Write a concise summary (100-150 words).
3. Classify it into exactly one category: %s.
4. Score its importance from 1 to 10 based on originality, usefulness, and impact.

Reply with a JSON object only:
{
  "summary": "the summary",
  "category": "the category",
  "importance": 8
}`, strings.Join(labels, ", "))
}

// userPrompt renders one article for classification; long bodies are
// truncated so a single oversized post cannot blow the request budget.
func userPrompt(article domain.Article) string {
	author := article.Author
	if author == "" {
		author = "Unknown"
	}

	content := article.Content
	if content == "" {
		content = "(no content)"
	} else {
		content = truncateRunes(content, contentPromptLimit)
	}

	return fmt.Sprintf(`Summarize the following article:

Title: %s
Author: %s
Source: %s
Published: %s

Content:
%s

Link: %s`,
		article.Title,
		author,
		article.SourceName,
		article.PublishedAt.Format(time.RFC3339),
		content,
		article.URL)
}
