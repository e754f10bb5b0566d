package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hreddy742/enterprise-ai-due-diligence-agent/internal/agent/telemetry"
	"github.com/hreddy742/enterprise-ai-due-diligence-agent/internal/helpers"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var orchestratorTracer trace.Tracer = otel.Tracer("diligence/internal/agent/orchestrator")

// Stage is a node of the research state machine.
type Stage int

const (
	StagePlan Stage = iota
	StageSearch
	StageRetryExpand
	StageFetch
	StageMemoryRetrieve
	StageAnalyze
	StageWrite
	StageMemoryPersist
	StageDone
)

func (s Stage) String() string {
	switch s {
	case StagePlan:
		return "plan"
	case StageSearch:
		return "search"
	case StageRetryExpand:
		return "retry_expand"
	case StageFetch:
		return "fetch"
	case StageMemoryRetrieve:
		return "memory_retrieve"
	case StageAnalyze:
		return "analyze"
	case StageWrite:
		return "write"
	case StageMemoryPersist:
		return "memory_persist"
	case StageDone:
		return "done"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

const (
	defaultRetrieveK   = 8
	maxSummaryBullets  = 5
	summaryBulletChars = 220
)

// PipelineState accumulates one run. Each stage receives a copy and returns
// the next version; slices are replaced, never mutated in place.
type PipelineState struct {
	Version         int
	Stage           Stage
	Trace           []Stage
	RunID           uuid.UUID
	Request         Request
	QueryPlan       []string
	Sources         []Source
	RetrievedMemory []RetrievedDoc
	RetryCount      int
	Analysis        Analysis
	Report          *Report
}

// Options tunes an Orchestrator. Zero values select defaults.
type Options struct {
	SearchParallelism int
	FetchParallelism  int
	RetrieveK         int
	Logger            *zap.SugaredLogger
	Metrics           *telemetry.Metrics
	Now               func() time.Time
}

// Orchestrator runs the research pipeline. It holds no per-run state and is
// safe for concurrent Runs.
type Orchestrator struct {
	search    SearchProvider
	fetcher   ContentFetcher
	memory    Memory
	planner   *Planner
	synthesis *Synthesis

	searchParallelism int
	fetchParallelism  int
	retrieveK         int

	logger  *zap.SugaredLogger
	metrics *telemetry.Metrics
}

// NewOrchestrator wires the pipeline. memory may be nil, in which case runs
// behave as if use_memory were false.
func NewOrchestrator(search SearchProvider, fetcher ContentFetcher, llm Synthesizer, memory Memory, opts Options) *Orchestrator {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if opts.SearchParallelism < 1 {
		opts.SearchParallelism = 4
	}
	if opts.FetchParallelism < 1 {
		opts.FetchParallelism = 4
	}
	if opts.RetrieveK < 1 {
		opts.RetrieveK = defaultRetrieveK
	}
	synth := NewSynthesis(llm, logger, opts.Metrics)
	if opts.Now != nil {
		synth.now = opts.Now
	}
	return &Orchestrator{
		search:            search,
		fetcher:           fetcher,
		memory:            memory,
		planner:           NewPlanner(llm, logger, opts.Metrics),
		synthesis:         synth,
		searchParallelism: opts.SearchParallelism,
		fetchParallelism:  opts.FetchParallelism,
		retrieveK:         opts.RetrieveK,
		logger:            logger.Named("orch"),
		metrics:           opts.Metrics,
	}
}

// Run executes one research run and returns its report. Only an invalid
// request or a failure to assemble the report is returned as an error.
func (o *Orchestrator) Run(ctx context.Context, req Request) (Report, error) {
	state, err := o.Execute(ctx, req)
	if err != nil {
		return Report{}, err
	}
	return *state.Report, nil
}

// Execute runs the state machine to StageDone and returns the final state.
func (o *Orchestrator) Execute(ctx context.Context, req Request) (PipelineState, error) {
	req, err := req.Normalize()
	if err != nil {
		return PipelineState{}, err
	}

	state := PipelineState{Stage: StagePlan, RunID: uuid.New(), Request: req}
	ctx, span := orchestratorTracer.Start(ctx, "diligence.run",
		trace.WithAttributes(
			attribute.String("run.id", state.RunID.String()),
			attribute.String("company", req.Company),
			attribute.String("depth", string(req.Depth)),
			attribute.Bool("use_memory", req.UseMemory),
		))
	defer span.End()

	o.metrics.RunStarted(string(req.Depth))
	start := time.Now()
	o.logger.Infow("run started", "run_id", state.RunID, "company", req.Company, "depth", req.Depth, "use_memory", req.UseMemory)

	for state.Stage != StageDone {
		next, err := o.step(ctx, state)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			o.logger.Errorw("run failed", "run_id", state.RunID, "stage", state.Stage, "error", err)
			return state, err
		}
		next.Version = state.Version + 1
		next.Trace = append(append([]Stage(nil), state.Trace...), state.Stage)
		state = next
	}
	if state.Report == nil {
		err := fmt.Errorf("run %s finished without a report", state.RunID)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return state, err
	}

	span.SetAttributes(
		attribute.Int("sources", len(state.Sources)),
		attribute.Int("retry_count", state.RetryCount),
		attribute.Bool("memory_used", state.Report.MemoryUsed),
	)
	span.SetStatus(codes.Ok, "completed")
	o.logger.Infow("run completed",
		"run_id", state.RunID,
		"company", req.Company,
		"sources", len(state.Sources),
		"retries", state.RetryCount,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return state, nil
}

// step runs the current stage inside its own span and returns the state
// positioned on the following stage.
func (o *Orchestrator) step(ctx context.Context, state PipelineState) (PipelineState, error) {
	stage := state.Stage
	ctx, span := orchestratorTracer.Start(ctx, "diligence."+stage.String())
	defer span.End()
	begin := time.Now()
	defer func() { o.metrics.ObserveStage(stage.String(), time.Since(begin)) }()

	var (
		next PipelineState
		err  error
	)
	switch stage {
	case StagePlan:
		next = o.plan(ctx, state)
	case StageSearch:
		next = o.searchStage(ctx, state)
	case StageRetryExpand:
		next = o.retryExpand(state)
	case StageFetch:
		next = o.fetch(ctx, state)
	case StageMemoryRetrieve:
		next = o.retrieve(ctx, state)
	case StageAnalyze:
		next = o.analyze(ctx, state)
	case StageWrite:
		next, err = o.write(state)
	case StageMemoryPersist:
		next = o.persist(ctx, state)
	default:
		err = fmt.Errorf("unknown pipeline stage %s", stage)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return state, err
	}
	span.SetStatus(codes.Ok, "completed")
	return next, nil
}

func (o *Orchestrator) plan(ctx context.Context, state PipelineState) PipelineState {
	req := state.Request
	state.QueryPlan = o.planner.Plan(ctx, req.Company, req.Focus, req.Depth)
	state.RetryCount = 0
	o.logger.Debugw("planned queries", "run_id", state.RunID, "queries", len(state.QueryPlan))
	state.Stage = StageSearch
	return state
}

func (o *Orchestrator) searchStage(ctx context.Context, state PipelineState) PipelineState {
	profile := state.Request.Depth.Profile()
	state.Sources = searchAll(ctx, o.search, state.QueryPlan, profile.PerQuery, o.searchParallelism, o.logger)
	o.metrics.ObserveSources(StageSearch.String(), len(state.Sources))
	trace.SpanFromContext(ctx).SetAttributes(
		attribute.Int("queries", len(state.QueryPlan)),
		attribute.Int("sources", len(state.Sources)),
	)
	if shouldRetry(len(state.Sources), state.Request.Depth, state.RetryCount) {
		o.logger.Infow("insufficient evidence, widening plan",
			"run_id", state.RunID, "sources", len(state.Sources), "min", profile.MinSources)
		state.Stage = StageRetryExpand
		return state
	}
	state.Stage = StageFetch
	return state
}

func (o *Orchestrator) retryExpand(state PipelineState) PipelineState {
	req := state.Request
	state.QueryPlan = o.planner.Expand(req.Company, req.Focus, state.QueryPlan)
	state.RetryCount++
	o.metrics.SearchRetried()
	state.Stage = StageSearch
	return state
}

func (o *Orchestrator) fetch(ctx context.Context, state PipelineState) PipelineState {
	candidates := state.Sources
	if limit := state.Request.Depth.Profile().MaxFetch; len(candidates) > limit {
		candidates = candidates[:limit]
	}
	state.Sources = fetchAll(ctx, o.fetcher, candidates, o.fetchParallelism, o.metrics.FetchOutcome)
	o.metrics.ObserveSources(StageFetch.String(), len(state.Sources))
	trace.SpanFromContext(ctx).SetAttributes(
		attribute.Int("candidates", len(candidates)),
		attribute.Int("fetched", len(state.Sources)),
	)
	state.Stage = StageMemoryRetrieve
	return state
}

func (o *Orchestrator) retrieve(ctx context.Context, state PipelineState) PipelineState {
	state.Stage = StageAnalyze
	state.RetrievedMemory = nil
	req := state.Request
	if !req.UseMemory || o.memory == nil {
		return state
	}
	query := strings.Join(append([]string{req.Company}, req.Focus...), " ")
	docs, err := o.memory.Retrieve(ctx, query, req.Company, o.retrieveK)
	if err != nil {
		o.logger.Warnw("memory retrieval failed", "run_id", state.RunID, "error", err)
		return state
	}
	state.RetrievedMemory = docs
	return state
}

func (o *Orchestrator) analyze(ctx context.Context, state PipelineState) PipelineState {
	req := state.Request
	state.Analysis = o.synthesis.Analyze(ctx, req.Company, req.Focus, state.Sources, state.RetrievedMemory)
	trace.SpanFromContext(ctx).SetAttributes(attribute.Bool("fallback", state.Analysis.Fallback))
	state.Stage = StageWrite
	return state
}

func (o *Orchestrator) write(state PipelineState) (PipelineState, error) {
	req := state.Request
	memoryUsed := req.UseMemory && len(state.RetrievedMemory) > 0
	report := o.synthesis.Write(req.Company, state.Analysis, state.Sources, memoryUsed)
	if len(report.Sections) != len(SectionTitles) {
		return state, fmt.Errorf("report has %d sections, want %d", len(report.Sections), len(SectionTitles))
	}
	state.Report = &report
	state.Stage = StageMemoryPersist
	return state, nil
}

// persist stores the fetched sources and the finished summary. Storage
// failures are logged and leave memory_updates at zero.
func (o *Orchestrator) persist(ctx context.Context, state PipelineState) PipelineState {
	state.Stage = StageDone
	req := state.Request
	report := *state.Report
	report.MemoryUpdates = MemoryUpdates{}
	state.Report = &report
	if !req.UseMemory || o.memory == nil {
		return state
	}

	addedChunks, err := o.memory.IngestSources(ctx, req.Company, state.Sources)
	if err != nil {
		o.logger.Errorw("memory persist failed", "run_id", state.RunID, "phase", "sources", "error", err)
		return state
	}
	addedSummary, err := o.memory.IngestSummary(ctx, req.Company, report.ExecutiveSummary, summaryBullets(report.Sections))
	if err != nil {
		o.logger.Errorw("memory persist failed", "run_id", state.RunID, "phase", "summary", "error", err)
		return state
	}
	o.metrics.MemoryDocsAdded("web", addedChunks)
	o.metrics.MemoryDocsAdded("summary", addedSummary)
	report.MemoryUpdates = MemoryUpdates{
		AddedDocs:    addedChunks + addedSummary,
		AddedSources: len(state.Sources),
	}
	return state
}

func summaryBullets(sections []ReportSection) []string {
	if len(sections) > maxSummaryBullets {
		sections = sections[:maxSummaryBullets]
	}
	bullets := make([]string, 0, len(sections))
	for _, sec := range sections {
		bullets = append(bullets, helpers.Truncate(sec.Content, summaryBulletChars))
	}
	return bullets
}
