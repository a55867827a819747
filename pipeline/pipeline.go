// Package pipeline wires diff segmentation, control-flow extraction,
// specification synthesis, drift detection and theorem emission into one
// bounded-concurrency run over a diff.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/c360studio/specdrift/diffseg"
	"github.com/c360studio/specdrift/drift"
	"github.com/c360studio/specdrift/flow"
	"github.com/c360studio/specdrift/publish"
	"github.com/c360studio/specdrift/source"
	"github.com/c360studio/specdrift/spec"
	"github.com/c360studio/specdrift/storage"
	"github.com/c360studio/specdrift/theorem"
)

// DefaultConcurrency bounds how many functions are processed at once.
const DefaultConcurrency = 4

// FunctionReport is the pipeline outcome for one changed function.
type FunctionReport struct {
	FunctionKey string            `json:"function_key"`
	Language    string            `json:"language"`
	ChangeType  diffseg.ChangeType `json:"change_type"`
	Record      *spec.Record      `json:"record,omitempty"`
	Drift       *drift.Result     `json:"drift,omitempty"`
	Theorem     *theorem.Artifact `json:"theorem,omitempty"`
	Skipped     string            `json:"skipped,omitempty"`
}

// DiffReport is the pipeline outcome for one diff.
type DiffReport struct {
	Revision  string            `json:"revision,omitempty"`
	StartedAt time.Time         `json:"started_at"`
	Duration  time.Duration     `json:"duration"`
	Functions []*FunctionReport `json:"functions"`
}

// Pipeline runs the full analysis over changed functions. Individual
// function failures degrade and log; a run always yields a report.
type Pipeline struct {
	segmenter   *diffseg.Segmenter
	synthesizer *spec.Synthesizer
	detector    *drift.Detector
	emitter     *theorem.Emitter
	accessor    source.Accessor
	store       storage.SpecStore
	publisher   publish.Publisher
	metrics     *Metrics
	concurrency int
	logger      *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithSegmenter overrides the default segmenter.
func WithSegmenter(s *diffseg.Segmenter) Option {
	return func(p *Pipeline) { p.segmenter = s }
}

// WithDetector overrides the default drift detector.
func WithDetector(d *drift.Detector) Option {
	return func(p *Pipeline) { p.detector = d }
}

// WithAccessor sets the source accessor used to fetch full file contents.
func WithAccessor(a source.Accessor) Option {
	return func(p *Pipeline) { p.accessor = a }
}

// WithStore sets the record store.
func WithStore(s storage.SpecStore) Option {
	return func(p *Pipeline) { p.store = s }
}

// WithPublisher sets the event publisher.
func WithPublisher(pub publish.Publisher) Option {
	return func(p *Pipeline) { p.publisher = pub }
}

// WithMetrics installs pipeline metrics.
func WithMetrics(m *Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// WithConcurrency bounds how many functions are processed at once.
func WithConcurrency(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = logger }
}

// New creates a pipeline around a synthesizer. Defaults: in-memory store,
// noop publisher, default segmenter and detector.
func New(synthesizer *spec.Synthesizer, opts ...Option) *Pipeline {
	p := &Pipeline{
		segmenter:   diffseg.NewSegmenter(),
		synthesizer: synthesizer,
		detector:    drift.NewDetector(),
		emitter:     theorem.NewEmitter(),
		store:       storage.NewMemoryStore(),
		publisher:   publish.NewNoopPublisher(),
		concurrency: DefaultConcurrency,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ProcessDiff segments a diff and runs every changed function through the
// pipeline with bounded concurrency. Function pipelines are independent:
// one function failing never stops the others.
func (p *Pipeline) ProcessDiff(ctx context.Context, revision, diffText string, files []source.ChangedFile) *DiffReport {
	report := &DiffReport{
		Revision:  revision,
		StartedAt: time.Now().UTC(),
		Functions: []*FunctionReport{},
	}

	changes := p.segmenter.Segment(diffText, files)
	if p.metrics != nil {
		p.metrics.FunctionsSegmented.Add(float64(len(changes)))
	}
	p.logger.Info("Segmented diff",
		"revision", revision,
		"files", len(files),
		"functions", len(changes))

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)

	for _, change := range changes {
		change := change
		g.Go(func() error {
			fr := p.processFunction(gctx, revision, change)
			mu.Lock()
			report.Functions = append(report.Functions, fr)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait() // workers never return errors; failures degrade per function

	sort.Slice(report.Functions, func(i, j int) bool {
		return report.Functions[i].FunctionKey < report.Functions[j].FunctionKey
	})

	report.Duration = time.Since(report.StartedAt)
	return report
}

// processFunction runs one function change through extraction, synthesis,
// drift detection, theorem emission, persistence and publishing. Every
// stage degrades on failure.
func (p *Pipeline) processFunction(ctx context.Context, revision string, change diffseg.FunctionChange) *FunctionReport {
	fr := &FunctionReport{
		FunctionKey: change.Key(),
		Language:    change.Language,
		ChangeType:  change.ChangeType,
	}

	if change.ChangeType == diffseg.ChangeRemoved {
		fr.Skipped = "function removed"
		return fr
	}

	src := p.sourceFor(ctx, revision, change)
	facts := flow.Extract(ctx, change.Language, src, change.FunctionName)

	req := &spec.Request{
		FunctionKey:  change.Key(),
		FunctionName: change.FunctionName,
		Language:     change.Language,
		Facts:        facts,
		Comments:     change.Comments,
		LineCount:    strings.Count(change.RawBody, "\n") + 1,
	}

	start := time.Now()
	record := p.synthesizer.Synthesize(ctx, req)
	if p.metrics != nil {
		p.metrics.SynthesisDuration.Observe(time.Since(start).Seconds())
	}
	fr.Record = record

	// The prior record is read before the new one is stored, so drift is
	// judged against the previous revision's baseline.
	prior, err := p.store.Get(ctx, change.Key())
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		p.logger.Warn("Baseline lookup failed", "function", change.Key(), "error", err)
		prior = nil
	}

	fr.Drift = p.detector.Detect(change.Key(), facts, prior)
	if fr.Drift.HasDrift && p.metrics != nil {
		p.metrics.DriftFlagged.Inc()
	}

	fr.Theorem = p.emitter.Emit(record, facts.Parameters, facts.ReturnType)

	if err := p.store.Put(ctx, record); err != nil {
		p.logger.Warn("Record store failed", "function", change.Key(), "error", err)
	}
	if err := p.publisher.PublishRecord(ctx, record); err != nil {
		p.logger.Warn("Record publish failed", "function", change.Key(), "error", err)
	}
	if fr.Drift.HasDrift {
		if err := p.publisher.PublishDrift(ctx, fr.Drift); err != nil {
			p.logger.Warn("Drift publish failed", "function", change.Key(), "error", err)
		}
	}

	if p.metrics != nil {
		p.metrics.FunctionsProcessed.Inc()
	}
	return fr
}

// sourceFor fetches the full file at the head revision so extractors see
// complete context. When no accessor is configured, or the fetch fails, the
// captured diff body stands in.
func (p *Pipeline) sourceFor(ctx context.Context, revision string, change diffseg.FunctionChange) []byte {
	if p.accessor == nil {
		return []byte(change.RawBody)
	}
	contents, err := p.accessor.FileContents(ctx, change.FilePath, revision)
	if err != nil {
		p.logger.Debug("File fetch failed, using diff body",
			"file", change.FilePath,
			"revision", revision,
			"error", err)
		return []byte(change.RawBody)
	}
	return []byte(contents)
}
