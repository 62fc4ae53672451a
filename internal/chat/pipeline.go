package chat

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/omriShneor/planit/internal/llm"
	"github.com/omriShneor/planit/internal/timeutil"
)

const (
	defaultExtractTimeout = 30 * time.Second
	defaultPersistTimeout = 10 * time.Second
)

// Extractor is the language-model capability the pipeline depends on.
type Extractor interface {
	Complete(ctx context.Context, system, user string) (string, error)
	IsConfigured() bool
}

// Config holds pipeline timeouts and clock.
type Config struct {
	ExtractTimeout  time.Duration
	PersistTimeout  time.Duration
	DefaultTimezone string
	Now             func() time.Time
}

// Pipeline turns a free-text chat message into stored calendar events.
// It holds no per-request state and is safe for concurrent use.
type Pipeline struct {
	extractor    Extractor
	materializer Materializer
	logger       *slog.Logger
	cfg          Config
}

// NewPipeline wires a pipeline. materializer may be nil for extract-only use.
func NewPipeline(extractor Extractor, materializer Materializer, logger *slog.Logger, cfg Config) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ExtractTimeout <= 0 {
		cfg.ExtractTimeout = defaultExtractTimeout
	}
	if cfg.PersistTimeout <= 0 {
		cfg.PersistTimeout = defaultPersistTimeout
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Pipeline{
		extractor:    extractor,
		materializer: materializer,
		logger:       logger,
		cfg:          cfg,
	}
}

// IsConfigured reports whether the pipeline can reach a model.
func (p *Pipeline) IsConfigured() bool {
	return p.extractor != nil && p.extractor.IsConfigured()
}

// Request is one chat message to process.
type Request struct {
	UserID     int64
	CalendarID int64
	Message    string
	Timezone   string
}

// Result is the outcome of a pipeline run.
type Result struct {
	Candidates []CandidateEvent  `json:"candidates"`
	Created    []*PersistedEvent `json:"created"`
	Rejected   []Rejection       `json:"rejected,omitempty"`
	Failed     []CandidateEvent  `json:"failed,omitempty"`
	Stage      Stage             `json:"stage"`
}

// Skipped is the number of model elements that did not become events.
func (r *Result) Skipped() int {
	return len(r.Rejected) + len(r.Failed)
}

// Run executes the whole pipeline. Errors are *Error values wrapping one of the
// package sentinels.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	result := &Result{Stage: StageReceived}

	candidates, rejected, err := p.extract(ctx, req.Message, req.Timezone, result)
	if err != nil {
		return result, err
	}
	result.Candidates = candidates
	result.Rejected = rejected

	result.Stage = StageMaterializing
	for _, candidate := range candidates {
		created, err := p.materialize(ctx, req, candidate)
		if err != nil {
			p.logger.Warn("failed to create chat event",
				"user_id", req.UserID,
				"calendar_id", req.CalendarID,
				"title", candidate.Title,
				"error", err,
			)
			result.Failed = append(result.Failed, candidate)
			continue
		}
		result.Created = append(result.Created, created)
	}

	if len(result.Created) == 0 {
		return result, fail(StageMaterializing, ErrEventCreationFailed)
	}

	result.Stage = StageCompleted
	p.logger.Info("chat events created",
		"user_id", req.UserID,
		"calendar_id", req.CalendarID,
		"created", len(result.Created),
		"skipped", result.Skipped(),
	)
	return result, nil
}

// Extract runs the pipeline up to and including normalization, without persisting.
func (p *Pipeline) Extract(ctx context.Context, message, timezone string) ([]CandidateEvent, []Rejection, error) {
	return p.extract(ctx, message, timezone, &Result{})
}

func (p *Pipeline) extract(ctx context.Context, message, timezone string, result *Result) ([]CandidateEvent, []Rejection, error) {
	if strings.TrimSpace(message) == "" {
		return nil, nil, fail(StageReceived, ErrEmptyMessage)
	}

	result.Stage = StageExtracting
	if !p.IsConfigured() {
		p.logger.Error("chat extraction requested but no API key is configured")
		return nil, nil, fail(StageExtracting, ErrConfiguration)
	}

	loc := p.location(timezone)
	now := p.cfg.Now().In(loc)

	extractCtx, cancel := context.WithTimeout(ctx, p.cfg.ExtractTimeout)
	raw, err := p.extractor.Complete(extractCtx, llm.BuildSystemPrompt(now), llm.BuildUserPrompt(message))
	cancel()
	if err != nil {
		p.logger.Error("event extraction failed", "error", err)
		return nil, nil, fail(StageExtracting, classifyExtractError(err))
	}

	result.Stage = StageSanitizing
	cleaned := Sanitize(raw)

	result.Stage = StageNormalizing
	candidates, rejected, err := Normalize(cleaned, message, loc)
	if err != nil {
		p.logger.Error("model returned unparseable output", "raw", raw, "cleaned", cleaned, "error", err)
		return nil, nil, fail(StageNormalizing, err)
	}
	for _, r := range rejected {
		p.logger.Warn("dropped extracted event", "index", r.Index, "title", r.Title, "error", r.Err)
	}
	if len(candidates) == 0 {
		return nil, rejected, fail(StageNormalizing, ErrNoEventsExtracted)
	}

	return candidates, rejected, nil
}

func (p *Pipeline) materialize(ctx context.Context, req Request, candidate CandidateEvent) (*PersistedEvent, error) {
	if p.materializer == nil {
		return nil, ErrConfiguration
	}

	persistCtx, cancel := context.WithTimeout(ctx, p.cfg.PersistTimeout)
	defer cancel()

	return p.materializer.CreateEvent(persistCtx, EventInput{
		CalendarID:  req.CalendarID,
		CreatedBy:   req.UserID,
		Title:       candidate.Title,
		Description: candidate.Description,
		Start:       candidate.Start,
		End:         candidate.End,
	})
}

// location resolves the user's timezone, then the configured default, then UTC.
func (p *Pipeline) location(timezone string) *time.Location {
	if loc, fallback := timeutil.ResolveLocation(timezone); !fallback {
		return loc
	}
	loc, _ := timeutil.ResolveLocation(p.cfg.DefaultTimezone)
	return loc
}
