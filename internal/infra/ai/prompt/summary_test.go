package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserPrompt(t *testing.T) {
	p := UserPrompt("Vault", "  # Findings\n\nH-01 reentrancy  ")
	assert.Equal(t, "Report: Vault\n\n---\n# Findings\n\nH-01 reentrancy", p)

	assert.Contains(t, UserPrompt("", "x"), "Report: untitled report")
}

func TestUserPrompt_Truncates(t *testing.T) {
	long := strings.Repeat("é", MaxDocumentRunes+50)
	p := UserPrompt("Big", long)
	assert.True(t, strings.HasSuffix(p, "[truncated]"))
	assert.Equal(t, MaxDocumentRunes, strings.Count(p, "é"))
}

func TestSystemPrompt(t *testing.T) {
	assert.Contains(t, SystemPrompt(), `"key_findings"`)
}
