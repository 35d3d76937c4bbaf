package processor

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/xoelrdgz/polystream/internal/domain"
)

// TextProcessor counts characters and words in a string.
type TextProcessor struct {
	base
}

func NewTextProcessor() *TextProcessor {
	return &TextProcessor{base: base{name: "text"}}
}

func (p *TextProcessor) Validate(data any) bool {
	if _, ok := data.(string); !ok {
		return p.rejected(data, "Not a string")
	}
	return p.verified("Text data")
}

func (p *TextProcessor) Process(data any) (string, error) {
	text, ok := data.(string)
	if !ok {
		return "", fmt.Errorf("text processor: %T: %w", data, domain.ErrInvalidData)
	}
	return fmt.Sprintf("Processed text: %d characters, %d words",
		utf8.RuneCountInString(text), len(strings.Fields(text))), nil
}
