package cmd

import (
	"fmt"
	"math/rand/v2"

	"github.com/strrl/polar-persona/internal/ai"
	"github.com/strrl/polar-persona/internal/blueprint"
	"github.com/strrl/polar-persona/internal/classifier"
	"github.com/strrl/polar-persona/internal/logging"
	"github.com/strrl/polar-persona/internal/parser"
	"github.com/strrl/polar-persona/internal/responder"
	"github.com/strrl/polar-persona/internal/topics"
)

// components are the shared building blocks every command assembles from
// the loaded configuration.
type components struct {
	table      *topics.Table
	normalizer *classifier.Normalizer
	classifier *classifier.Classifier
	client     *ai.Client
}

// buildComponents loads the topic table and, when withAI is set and a
// credential is configured, the model client. A missing credential is not an
// error: everything falls back to the local tables.
func buildComponents(withAI bool) (*components, error) {
	table := topics.DefaultTable()
	if cfg.TopicsFile != "" {
		loaded, err := topics.LoadTable(cfg.TopicsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load topic table: %w", err)
		}
		table = loaded
	}

	c := &components{
		table:      table,
		normalizer: classifier.DefaultNormalizer(),
		classifier: classifier.New(table, classifier.WithLogger(logging.ForComponent(logger, "classifier"))),
	}

	if withAI {
		if !cfg.AIEnabled() {
			logger.Warn("OPENROUTER_API_KEY is not set, using canned replies only")
			return c, nil
		}
		client, err := ai.NewClient(ai.Config{
			APIKey:      cfg.APIKey,
			BaseURL:     cfg.BaseURL,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			Timeout:     cfg.Timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create AI client: %w", err)
		}
		c.client = client
	}

	return c, nil
}

func (c *components) responder() *responder.Responder {
	rc := responder.Config{
		Table:      c.table,
		Normalizer: c.normalizer,
		Classifier: c.classifier,
		Logger:     logging.ForComponent(logger, "responder"),
	}
	if cfg.Seed != 0 {
		rc.Rand = rand.New(rand.NewPCG(cfg.Seed, cfg.Seed>>1))
	}
	if c.client != nil {
		rc.Generator = ai.NewReplyGenerator(c.client)
	}
	return responder.New(rc)
}

func (c *components) extractor() *blueprint.Extractor {
	return blueprint.NewExtractor(c.normalizer, c.classifier)
}

func (c *components) localizer() (*blueprint.Localizer, error) {
	lc := blueprint.LocalizerConfig{
		CacheSize: cfg.CacheSize,
		Logger:    logging.ForComponent(logger, "localizer"),
	}
	if c.client != nil {
		lc.Translator = ai.NewTranslator(c.client, logging.ForComponent(logger, "translator"))
	}
	return blueprint.NewLocalizer(lc)
}

func newHistorySource(pattern, session string) (*parser.Parser, error) {
	var opts []parser.Option
	if session != "" {
		opts = append(opts, parser.WithSession(session))
	}
	p, err := parser.NewParser(pattern, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create history parser: %w", err)
	}
	return p, nil
}
