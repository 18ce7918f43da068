package openai

import (
	"fmt"
	"strings"
)

type PromptConfig struct {
	Lines    int
	Language string
}

func (p PromptConfig) normalize() PromptConfig {
	if p.Lines <= 0 {
		p.Lines = 3
	}
	if strings.TrimSpace(p.Language) == "" {
		p.Language = "ko"
	}
	return p
}

// System returns the system message for a summary request.
func (p PromptConfig) System() string {
	p = p.normalize()
	switch strings.ToLower(strings.TrimSpace(p.Language)) {
	case "ko", "korean", "한국어":
		return fmt.Sprintf("너는 유능한 요약 비서야. 다음 내용을 한국어로 %d줄 요약해줘.", p.Lines)
	}
	return fmt.Sprintf("You are a capable summarization assistant. Summarize the following content in %s in %d lines.", p.Language, p.Lines)
}
