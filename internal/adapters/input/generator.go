package input

import (
	"context"
	"io"
	"math"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/xoelrdgz/polystream/internal/domain"
	"github.com/xoelrdgz/polystream/internal/ports"
)

var _ ports.BatchSource = (*Generator)(nil)

type GeneratorConfig struct {
	Rate      int               // batch sets per second (default: 10)
	Batches   int               // sets to produce before io.EOF; 0 means unbounded
	BatchSize int               // items per stream batch (default: 5)
	ErrorRate int               // percent of events that are errors (default: 20)
	Seed      int64             // 0 seeds from the clock
	Criteria  map[string]string // filter criteria reported by Criteria
}

func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		Rate:      10,
		Batches:   5,
		BatchSize: 5,
		ErrorRate: 20,
	}
}

// Generator produces synthetic batches for a fixed set of streams, paced
// by a token bucket.
type Generator struct {
	config    GeneratorConfig
	streams   []StreamKindEntry
	limiter   *rate.Limiter
	rng       *rand.Rand
	generated atomic.Int64

	normalEvents []string
	errorEvents  []string
}

func NewGenerator(streams []StreamKindEntry, config GeneratorConfig) *Generator {
	def := DefaultGeneratorConfig()
	if config.Rate <= 0 {
		config.Rate = def.Rate
	}
	if config.BatchSize <= 0 {
		config.BatchSize = def.BatchSize
	}
	if config.ErrorRate < 0 || config.ErrorRate > 100 {
		config.ErrorRate = def.ErrorRate
	}
	seed := config.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	return &Generator{
		config:  config,
		streams: streams,
		limiter: rate.NewLimiter(rate.Limit(config.Rate), 1),
		rng:     rand.New(rand.NewSource(seed)),
		normalEvents: []string{
			"login", "logout", "page_view", "checkout", "heartbeat", "INFO: cache warmed",
		},
		errorEvents: []string{
			"error", "payment error", "error: upstream timeout", "disk error",
		},
	}
}

// Next blocks until the limiter admits another set, then returns one batch
// per stream. It returns io.EOF once the configured number of sets has been
// produced.
func (g *Generator) Next(ctx context.Context) (map[string]domain.Batch, error) {
	if g.config.Batches > 0 && g.generated.Load() >= int64(g.config.Batches) {
		log.Debug().Int64("total_generated", g.generated.Load()).Msg("Generator exhausted")
		return nil, io.EOF
	}
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	out := make(map[string]domain.Batch, len(g.streams))
	for _, s := range g.streams {
		out[s.ID] = g.batch(s.Kind)
	}
	g.generated.Add(1)
	return out, nil
}

func (g *Generator) Criteria() map[string]string {
	return g.config.Criteria
}

func (g *Generator) Generated() int64 {
	return g.generated.Load()
}

func (g *Generator) batch(kind domain.StreamKind) domain.Batch {
	b := make(domain.Batch, g.config.BatchSize)
	for i := range b {
		switch kind {
		case domain.StreamKindSensor:
			// Readings around 25 with enough spread to cross the default threshold.
			b[i] = round2(25 + g.rng.NormFloat64()*6)
		case domain.StreamKindTransaction:
			amount := g.rng.Intn(500) + 1
			if g.rng.Intn(100) < 30 {
				amount = -amount
			}
			b[i] = amount
		case domain.StreamKindEvent:
			if g.rng.Intn(100) < g.config.ErrorRate {
				b[i] = g.errorEvents[g.rng.Intn(len(g.errorEvents))]
			} else {
				b[i] = g.normalEvents[g.rng.Intn(len(g.normalEvents))]
			}
		}
	}
	return b
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
