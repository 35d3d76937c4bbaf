package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/xoelrdgz/polystream/internal/domain"
	"github.com/xoelrdgz/polystream/internal/ports"
)

// Job pairs a processor with the datum it should handle.
type Job struct {
	Processor ports.DataProcessor
	Data      any
}

// Pair zips processors with data, one datum per processor. Extra items on
// either side are ignored.
func Pair(processors []ports.DataProcessor, data []any) []Job {
	n := min(len(processors), len(data))
	jobs := make([]Job, n)
	for i := 0; i < n; i++ {
		jobs[i] = Job{Processor: processors[i], Data: data[i]}
	}
	return jobs
}

// ProcessorRunner drives data through DataProcessors: validate, then
// process, then format.
type ProcessorRunner struct {
	metrics   *domain.RunMetrics
	reporters []ports.Reporter
	observers []ports.ResultObserver
	mu        sync.RWMutex
}

func NewProcessorRunner(metrics *domain.RunMetrics) *ProcessorRunner {
	if metrics == nil {
		metrics = domain.NewRunMetrics()
	}
	return &ProcessorRunner{metrics: metrics}
}

func (r *ProcessorRunner) AddReporter(rep ports.Reporter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reporters = append(r.reporters, rep)
}

func (r *ProcessorRunner) AddObserver(o ports.ResultObserver) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observers = append(r.observers, o)
}

func (r *ProcessorRunner) Run(ctx context.Context, jobs []Job) []domain.ProcessorOutcome {
	outcomes := make([]domain.ProcessorOutcome, 0, len(jobs))
	for _, job := range jobs {
		if err := ctx.Err(); err != nil {
			log.Warn().Err(err).Msg("Processor run cancelled")
			break
		}
		outcome := r.runOne(job)
		r.publish(ctx, outcome)
		outcomes = append(outcomes, outcome)
	}
	return outcomes
}

func (r *ProcessorRunner) runOne(job Job) (outcome domain.ProcessorOutcome) {
	p := job.Processor
	outcome.Processor = p.Name()

	defer func() {
		if rec := recover(); rec != nil {
			log.Error().Interface("panic", rec).Str("processor", p.Name()).Msg("Processor panic recovered")
			outcome.Output = ""
			outcome.Err = fmt.Errorf("%s: %v: %w", p.Name(), rec, domain.ErrStreamPanic)
		}
	}()

	if !p.Validate(job.Data) {
		return outcome
	}
	outcome.Valid = true

	out, err := p.Process(job.Data)
	if err != nil {
		outcome.Err = err
		return outcome
	}
	outcome.Output = p.FormatOutput(out)
	return outcome
}

// Overrides shows what each processor's FormatOutput does to the matching
// input string.
func (r *ProcessorRunner) Overrides(ctx context.Context, processors []ports.DataProcessor, inputs []string) []domain.ProcessorOutcome {
	n := min(len(processors), len(inputs))
	outcomes := make([]domain.ProcessorOutcome, 0, n)
	for i := 0; i < n; i++ {
		outcome := domain.ProcessorOutcome{
			Processor: processors[i].Name(),
			Valid:     true,
			Output:    processors[i].FormatOutput(inputs[i]),
		}
		r.publish(ctx, outcome)
		outcomes = append(outcomes, outcome)
	}
	return outcomes
}

func (r *ProcessorRunner) publish(ctx context.Context, outcome domain.ProcessorOutcome) {
	r.metrics.RecordProcessor(outcome)

	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, o := range r.observers {
		o.OnProcessor(outcome)
	}
	for _, rep := range r.reporters {
		if err := rep.ReportProcessor(ctx, outcome); err != nil {
			log.Error().Err(err).Msg("Failed to report processor outcome")
		}
	}
}
