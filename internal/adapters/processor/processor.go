// Package processor provides the single-datum DataProcessor adapters.
//
// Every processor embeds base, which supplies the default FormatOutput.
// A processor that needs different formatting declares its own method and
// shadows the embedded one, as LogProcessor does.
package processor

import (
	"github.com/rs/zerolog/log"

	"github.com/xoelrdgz/polystream/internal/ports"
)

var (
	_ ports.DataProcessor = (*NumericProcessor)(nil)
	_ ports.DataProcessor = (*TextProcessor)(nil)
	_ ports.DataProcessor = (*LogProcessor)(nil)
)

type base struct {
	name string
}

func (b base) Name() string {
	return b.name
}

// FormatOutput returns result unchanged.
func (b base) FormatOutput(result string) string {
	return result
}

func (b base) rejected(data any, reason string) bool {
	log.Warn().
		Str("processor", b.name).
		Str("type", typeName(data)).
		Msg(reason)
	return false
}

func (b base) verified(what string) bool {
	log.Debug().Str("processor", b.name).Msgf("Validation: %s verified", what)
	return true
}

func typeName(v any) string {
	if v == nil {
		return "nil"
	}
	switch v.(type) {
	case string:
		return "string"
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return "integer"
	case float32, float64:
		return "float"
	default:
		return "other"
	}
}

// Default returns one processor of each kind, in demo order.
func Default() []ports.DataProcessor {
	return []ports.DataProcessor{
		NewNumericProcessor(),
		NewTextProcessor(),
		NewLogProcessor(DefaultLogProcessorConfig()),
	}
}
