package prompt

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// MaxDocumentRunes caps how much of the explanation is sent to the model.
const MaxDocumentRunes = 12000

// SystemPrompt fixes the output schema for explanation summaries.
func SystemPrompt() string {
	return `You are a senior smart-contract security auditor. Summarize the audit explanation you are given.
You must produce one valid JSON object only (no markdown, no commentary, no code fences):

{
  "summary": "<two or three sentences>",
  "key_findings": [
    {"title": "<string>", "severity": "<critical|high|medium|low|info>", "impact": "<one sentence>"}
  ],
  "recommendation": "<one sentence>"
}

Use lowercase severity values. List at most five findings, most severe first.`
}

// UserPrompt wraps the document, truncated to MaxDocumentRunes.
func UserPrompt(title, markdown string) string {
	doc := strings.TrimSpace(markdown)
	if utf8.RuneCountInString(doc) > MaxDocumentRunes {
		doc = string([]rune(doc)[:MaxDocumentRunes]) + "\n\n[truncated]"
	}
	if title == "" {
		title = "untitled report"
	}
	return fmt.Sprintf("Report: %s\n\n---\n%s", title, doc)
}
