package processor

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/xoelrdgz/polystream/internal/domain"
	"github.com/xoelrdgz/polystream/pkg/ahocorasick"
	"github.com/xoelrdgz/polystream/pkg/sanitize"
)

const overridePrefix = "Overridden log: "

// LogLevel maps a marker found in a log line to the tag printed for it.
type LogLevel struct {
	Marker string
	Tag    string
}

type LogProcessorConfig struct {
	// Levels in priority order: when a line carries several markers the
	// earliest level in this list wins.
	Levels     []LogLevel
	MaxMessage int
}

func DefaultLogLevels() []LogLevel {
	return []LogLevel{
		{Marker: "ERROR", Tag: "ALERT"},
		{Marker: "WARNING", Tag: "WARNING"},
		{Marker: "INFO", Tag: "INFO"},
	}
}

func DefaultLogProcessorConfig() LogProcessorConfig {
	return LogProcessorConfig{
		Levels:     DefaultLogLevels(),
		MaxMessage: sanitize.DefaultMaxMessage,
	}
}

// LogProcessor classifies log lines by level marker.
type LogProcessor struct {
	base
	levels     []LogLevel
	markers    *ahocorasick.Matcher
	maxMessage int
}

func NewLogProcessor(config LogProcessorConfig) *LogProcessor {
	if len(config.Levels) == 0 {
		config.Levels = DefaultLogLevels()
	}

	markers := make([]string, len(config.Levels))
	for i, lvl := range config.Levels {
		markers[i] = lvl.Marker
	}

	return &LogProcessor{
		base:       base{name: "log"},
		levels:     config.Levels,
		markers:    ahocorasick.New(markers),
		maxMessage: config.MaxMessage,
	}
}

func (p *LogProcessor) Validate(data any) bool {
	line, ok := data.(string)
	if !ok {
		return p.rejected(data, "Not a log entry")
	}
	if !p.markers.Contains(line) {
		log.Debug().Str("processor", p.name).Msg("No recognized log level marker")
		return false
	}
	return p.verified("Log entry")
}

func (p *LogProcessor) Process(data any) (string, error) {
	line, ok := data.(string)
	if !ok {
		return "", fmt.Errorf("log processor: %T: %w", data, domain.ErrInvalidData)
	}

	level, msg, ok := p.classify(line)
	if !ok {
		return "", fmt.Errorf("log processor: no level marker: %w", domain.ErrInvalidData)
	}
	return fmt.Sprintf("[%s] %s level detected: %s", level.Tag, level.Marker, msg), nil
}

// FormatOutput shadows base.FormatOutput.
func (p *LogProcessor) FormatOutput(result string) string {
	return overridePrefix + result
}

// classify picks the highest-priority marker present and returns the text
// that follows its first occurrence.
func (p *LogProcessor) classify(line string) (LogLevel, string, bool) {
	best := -1
	var at ahocorasick.Match
	for _, m := range p.markers.FindAll(line) {
		if best == -1 || m.Pattern < best {
			best = m.Pattern
			at = m
		}
	}
	if best == -1 {
		return LogLevel{}, "", false
	}

	msg := strings.TrimLeft(line[at.End:], ":]-| \t")
	return p.levels[best], sanitize.Message(msg, p.maxMessage), true
}
