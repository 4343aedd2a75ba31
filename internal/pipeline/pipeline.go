package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/oklog/ulid/v2"
	"github.com/samber/lo"

	"github.com/strrl/polar-persona/internal/blueprint"
	"github.com/strrl/polar-persona/internal/conversation"
	"github.com/strrl/polar-persona/internal/logging"
	"github.com/strrl/polar-persona/internal/topics"
)

// Sink receives every snapshot the pipeline builds.
type Sink interface {
	Render(ctx context.Context, snap blueprint.Snapshot) error
}

type Config struct {
	Source    conversation.Source
	Extractor *blueprint.Extractor
	// Localizer is optional; without it snapshots stay in the source language.
	Localizer *blueprint.Localizer
	Sinks     []Sink
	Logger    *log.Logger
	Now       func() time.Time
}

type Pipeline struct {
	source    conversation.Source
	extractor *blueprint.Extractor
	localizer *blueprint.Localizer
	sinks     []Sink
	logger    *log.Logger
	now       func() time.Time
}

func New(cfg Config) (*Pipeline, error) {
	if cfg.Source == nil {
		return nil, fmt.Errorf("history source is required")
	}
	if cfg.Extractor == nil {
		return nil, fmt.Errorf("extractor is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Discard()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Pipeline{
		source:    cfg.Source,
		extractor: cfg.Extractor,
		localizer: cfg.Localizer,
		sinks:     cfg.Sinks,
		logger:    cfg.Logger,
		now:       cfg.Now,
	}, nil
}

type Stats struct {
	TotalMessages     int
	AssistantMessages int
	ExtractedItems    int
	RenderedSinks     int
}

// Build re-reads the whole history, extracts sections, localizes them and
// hands the snapshot to every sink. A failing sink aborts the run.
func (p *Pipeline) Build(ctx context.Context, lang topics.Language) (blueprint.Snapshot, Stats, error) {
	var stats Stats

	if !lang.IsSupported() {
		lang = topics.BaseLanguage
	}

	messages, err := p.source.Messages(ctx)
	if err != nil {
		return blueprint.Snapshot{}, stats, fmt.Errorf("failed to load history: %w", err)
	}
	stats.TotalMessages = len(messages)
	stats.AssistantMessages = lo.CountBy(messages, func(m conversation.Message) bool {
		return m.Role == conversation.RoleAssistant
	})

	sections := p.extractor.Extract(messages)
	stats.ExtractedItems = sections.Total()

	if p.localizer != nil {
		sections = p.localizer.Localize(ctx, sections, lang)
	}

	generatedAt := p.now()
	snap := blueprint.Snapshot{
		ID:          ulid.MustNew(ulid.Timestamp(generatedAt), ulid.DefaultEntropy()).String(),
		Language:    lang,
		GeneratedAt: generatedAt,
		Sections:    sections,
	}

	p.logger.Info("blueprint built",
		"language", lang,
		"messages", stats.TotalMessages,
		"items", stats.ExtractedItems,
	)

	for _, sink := range p.sinks {
		if err := sink.Render(ctx, snap); err != nil {
			return snap, stats, fmt.Errorf("failed to render snapshot: %w", err)
		}
		stats.RenderedSinks++
	}

	return snap, stats, nil
}
