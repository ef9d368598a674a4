package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"NewsHarvester/internal/domain"
	"NewsHarvester/internal/ports"
)

// DefaultCourtesyDelay is the pause before each page scrape.
const DefaultCourtesyDelay = 100 * time.Millisecond

// Status messages recorded as run events.
const (
	EventFetchSources     = "fetching sources"
	EventSourcesFetched   = "sources fetched"
	EventSourcesFailed    = "error getting sources"
	EventFetchArticles    = "fetching articles from sources"
	EventArticlesFetched  = "articles fetched from sources"
	EventSearchImages     = "searching article images"
	EventEnrichmentHalted = "image search interrupted"
	EventSaveArticles     = "saving articles"
	EventSaveFailed       = "failed to save articles on db"
	EventFinished         = "finished posting articles"
)

// PipelineDeps wires all driven adapters into the orchestration pipeline.
type PipelineDeps struct {
	Sources   ports.SourceRegistry
	Collector ports.ArticleSource
	Ledger    ports.Ledger
	Resolver  ports.ImageResolver
	Gateway   ports.ArticleGateway
	Notifier  ports.Notifier
	Recorders []ports.RunRecorder
	Logger    *slog.Logger

	// CourtesyDelay defaults to DefaultCourtesyDelay; a negative value disables it.
	CourtesyDelay time.Duration
	// NotifyOnlyOnErrors limits reports to runs that failed or recorded errors.
	NotifyOnlyOnErrors bool

	Now      func() time.Time
	Sleep    func(ctx context.Context, d time.Duration) error
	NewRunID func() string
}

// Pipeline implements the article-ingestion workflow.
type Pipeline struct {
	sources    ports.SourceRegistry
	collector  ports.ArticleSource
	ledger     ports.Ledger
	resolver   ports.ImageResolver
	gateway    ports.ArticleGateway
	notifier   ports.Notifier
	recorders  []ports.RunRecorder
	logger     *slog.Logger
	delay      time.Duration
	onlyErrors bool
	now        func() time.Time
	sleep      func(ctx context.Context, d time.Duration) error
	newRunID   func() string

	running sync.Mutex
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	p := &Pipeline{
		sources:    deps.Sources,
		collector:  deps.Collector,
		ledger:     deps.Ledger,
		resolver:   deps.Resolver,
		gateway:    deps.Gateway,
		notifier:   deps.Notifier,
		recorders:  deps.Recorders,
		logger:     deps.Logger,
		delay:      deps.CourtesyDelay,
		onlyErrors: deps.NotifyOnlyOnErrors,
		now:        deps.Now,
		sleep:      deps.Sleep,
		newRunID:   deps.NewRunID,
	}
	if p.logger == nil {
		p.logger = slog.New(slog.DiscardHandler)
	}
	if p.delay == 0 {
		p.delay = DefaultCourtesyDelay
	}
	if p.now == nil {
		p.now = time.Now
	}
	if p.sleep == nil {
		p.sleep = sleepContext
	}
	if p.newRunID == nil {
		p.newRunID = uuid.NewString
	}
	return p
}

// TryExecute runs Execute unless another sweep is already in progress,
// in which case it returns false without doing anything.
func (p *Pipeline) TryExecute(ctx context.Context) (domain.RunLog, bool) {
	if !p.running.TryLock() {
		p.logger.Warn("run already in progress, skipping")
		return domain.RunLog{}, false
	}
	defer p.running.Unlock()

	return p.Execute(ctx), true
}

// Execute performs one full sweep: list sources, harvest them, enrich and
// persist the candidates. Failures never escape; they are recorded in the log.
func (p *Pipeline) Execute(ctx context.Context) domain.RunLog {
	runLog := domain.RunLog{RunID: p.newRunID(), StartedAt: p.now()}
	logger := p.logger.With("run_id", runLog.RunID)

	p.event(&runLog.Events, EventFetchSources)
	sources, err := p.listSources(ctx)
	if err != nil {
		logger.Error("cannot list sources", "error", err)
	}
	if len(sources) == 0 {
		p.event(&runLog.Events, EventSourcesFailed)
		return p.finish(ctx, logger, runLog)
	}
	p.event(&runLog.Events, EventSourcesFetched)

	p.event(&runLog.Events, EventFetchArticles)
	var candidates []domain.CandidateArticle
	if p.collector != nil {
		candidates = p.collector.Collect(ctx, sources)
	}
	p.event(&runLog.Events, EventArticlesFetched)
	logger.Info("articles harvested", "sources", len(sources), "candidates", len(candidates))

	summary := p.Run(ctx, candidates)
	runLog.Events = append(runLog.Events, summary.Events...)
	runLog.Summary = &summary

	return p.finish(ctx, logger, runLog)
}

// Run enriches unseen candidates and persists them as one batch.
func (p *Pipeline) Run(ctx context.Context, candidates []domain.CandidateArticle) domain.RunSummary {
	summary := domain.RunSummary{
		TotalArticle: len(candidates),
		ErrorList:    []string{},
	}
	total := len(candidates)

	p.event(&summary.Events, EventSearchImages)

	batch := make([]domain.EnrichedArticle, 0, len(candidates))
	for i, candidate := range candidates {
		position := fmt.Sprintf("%d / %d", i+1, total)

		if ctx.Err() != nil {
			p.event(&summary.Events, EventEnrichmentHalted)
			break
		}

		if p.alreadyProcessed(ctx, candidate.Title) {
			summary.TotalSkipped++
			p.logger.Debug("article skipped", "position", position, "title", candidate.Title)
			continue
		}

		if p.delay > 0 {
			if err := p.sleep(ctx, p.delay); err != nil {
				p.event(&summary.Events, EventEnrichmentHalted)
				break
			}
		}

		batch = append(batch, p.enrich(ctx, candidate))
		summary.TotalSaved++
		p.logger.Debug("article enriched", "position", position, "title", candidate.Title)

		if p.ledger != nil {
			if err := p.ledger.MarkProcessed(ctx, candidate.Title); err != nil {
				p.logger.Warn("cannot mark article processed", "title", candidate.Title, "error", err)
			}
		}
	}

	p.event(&summary.Events, EventSaveArticles)
	// The batch is already marked in the ledger, so persist it even if the run was cancelled.
	result, err := p.saveBatch(context.WithoutCancel(ctx), batch)
	if err != nil {
		p.event(&summary.Events, EventSaveFailed)
		p.logger.Error("cannot save articles", "articles", len(batch), "error", err)
	} else {
		summary.Save = &result
		summary.TotalError += result.Failed
		summary.ErrorList = append(summary.ErrorList, result.Errors...)
		p.logger.Info("articles saved", "status", result.Status, "message", result.Message)
	}

	p.event(&summary.Events, EventFinished)
	p.logger.Info("run summary",
		"totalArticle", summary.TotalArticle,
		"totalSaved", summary.TotalSaved,
		"totalSkipped", summary.TotalSkipped,
		"totalError", summary.TotalError,
	)

	return summary
}

func (p *Pipeline) listSources(ctx context.Context) (sources []domain.Source, err error) {
	if p.sources == nil {
		return nil, fmt.Errorf("source registry is not configured")
	}
	defer func() {
		if r := recover(); r != nil {
			sources, err = nil, fmt.Errorf("source registry panicked: %v", r)
		}
	}()
	return p.sources.ListActiveSources(ctx)
}

// alreadyProcessed treats ledger failures as "not processed yet".
func (p *Pipeline) alreadyProcessed(ctx context.Context, title string) bool {
	if p.ledger == nil {
		return false
	}
	seen, err := p.ledger.HasBeenProcessed(ctx, title)
	if err != nil {
		p.logger.Warn("cannot read ledger", "title", title, "error", err)
		return false
	}
	return seen
}

// enrich never drops the candidate: a resolver panic keeps its original image.
func (p *Pipeline) enrich(ctx context.Context, candidate domain.CandidateArticle) (out domain.EnrichedArticle) {
	out = candidate
	if out.Image == "" {
		out.Image = domain.FallbackImage
	}
	if p.resolver == nil {
		return out
	}

	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("image resolver panicked", "link", candidate.Link, "panic", r)
		}
	}()

	if image := p.resolver.Resolve(ctx, candidate.Link); image != "" {
		out.Image = image
	}
	return out
}

func (p *Pipeline) saveBatch(ctx context.Context, batch []domain.EnrichedArticle) (result domain.SaveResult, err error) {
	if p.gateway == nil {
		return domain.SaveResult{}, fmt.Errorf("article gateway is not configured")
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("article gateway panicked: %v", r)
		}
	}()
	return p.gateway.SaveBatch(ctx, batch)
}

func (p *Pipeline) finish(ctx context.Context, logger *slog.Logger, runLog domain.RunLog) domain.RunLog {
	runLog.FinishedAt = p.now()

	for _, rec := range p.recorders {
		rec.RecordRun(runLog)
	}

	if p.notifier != nil && (!p.onlyErrors || runLog.Failed()) {
		if err := p.notifier.PublishReport(ctx, BuildReport(runLog)); err != nil {
			logger.Warn("cannot publish run report", "error", err)
		}
	}

	logger.Info("run finished", "duration", runLog.FinishedAt.Sub(runLog.StartedAt), "failed", runLog.Failed())
	return runLog
}

func (p *Pipeline) event(events *[]domain.RunEvent, message string) {
	*events = append(*events, domain.RunEvent{Date: p.now(), Message: message})
	p.logger.Info(message)
}

// BuildReport renders a short operator-facing text for a finished run.
func BuildReport(runLog domain.RunLog) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Run %s finished in %s\n", runLog.RunID, runLog.FinishedAt.Sub(runLog.StartedAt).Round(time.Second))

	if runLog.Summary == nil {
		b.WriteString("No article processed: sources unavailable.\n")
		return b.String()
	}

	s := runLog.Summary
	fmt.Fprintf(&b, "Articles: %d, saved: %d, skipped: %d, errors: %d\n",
		s.TotalArticle, s.TotalSaved, s.TotalSkipped, s.TotalError)
	if s.Save != nil {
		fmt.Fprintf(&b, "Save: %s (%s)\n", s.Save.Status, s.Save.Message)
	} else {
		b.WriteString("Save: failed to save articles on db\n")
	}
	for _, msg := range s.ErrorList {
		fmt.Fprintf(&b, "- %s\n", msg)
	}
	return b.String()
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
