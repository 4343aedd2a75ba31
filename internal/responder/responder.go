package responder

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/strrl/polar-persona/internal/classifier"
	"github.com/strrl/polar-persona/internal/conversation"
	"github.com/strrl/polar-persona/internal/logging"
	"github.com/strrl/polar-persona/internal/topics"
)

// Generator produces a model-written reply. Any error sends the caller to
// the canned pools.
type Generator interface {
	GenerateReply(ctx context.Context, userText string, history []conversation.Message, lang topics.Language) (string, error)
}

type Config struct {
	Table      *topics.Table
	Normalizer *classifier.Normalizer
	Classifier *classifier.Classifier
	// Rand drives pool selection; seed it for reproducible replies.
	Rand      *rand.Rand
	Generator Generator
	Logger    *log.Logger
}

type Reply struct {
	Text      string       `json:"reply"`
	Topic     topics.Label `json:"topic,omitempty"`
	Generated bool         `json:"generated"`
}

type Responder struct {
	table      *topics.Table
	normalizer *classifier.Normalizer
	classifier *classifier.Classifier
	generator  Generator
	logger     *log.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

func New(cfg Config) *Responder {
	if cfg.Table == nil {
		cfg.Table = topics.DefaultTable()
	}
	if cfg.Normalizer == nil {
		cfg.Normalizer = classifier.DefaultNormalizer()
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Discard()
	}
	if cfg.Classifier == nil {
		cfg.Classifier = classifier.New(cfg.Table, classifier.WithLogger(cfg.Logger))
	}
	if cfg.Rand == nil {
		seed := uint64(time.Now().UnixNano())
		cfg.Rand = rand.New(rand.NewPCG(seed, seed>>1))
	}

	return &Responder{
		table:      cfg.Table,
		normalizer: cfg.Normalizer,
		classifier: cfg.Classifier,
		generator:  cfg.Generator,
		logger:     cfg.Logger,
		rng:        cfg.Rand,
	}
}

// Respond picks a canned reply for text.
func (r *Responder) Respond(text string, lang topics.Language) string {
	return r.Fallback(text, lang).Text
}

// Fallback classifies text and draws from the topic pool, or from the
// general pool when no topic matched or the topic has no pool for lang.
func (r *Responder) Fallback(text string, lang topics.Language) Reply {
	if !lang.IsSupported() {
		lang = topics.BaseLanguage
	}

	topic, found := r.classifier.Classify(r.normalizer.Normalize(text))
	if found {
		if pool := r.table.Responses(topic, lang); len(pool) > 0 {
			return Reply{Text: r.pick(pool), Topic: topic}
		}
	}

	return Reply{Text: r.pick(r.table.Responses(topics.LabelGeneral, lang)), Topic: topic}
}

// Reply asks the generator first and falls back to the canned pools when it
// is missing, fails or returns nothing.
func (r *Responder) Reply(ctx context.Context, text string, history []conversation.Message, lang topics.Language) Reply {
	if !lang.IsSupported() {
		lang = topics.BaseLanguage
	}
	if r.generator == nil {
		return r.Fallback(text, lang)
	}

	generated, err := r.generate(ctx, text, history, lang)
	if err != nil {
		r.logger.Warn("reply generation failed, using fallback", "error", err)
		return r.Fallback(text, lang)
	}

	generated = strings.TrimSpace(generated)
	if generated == "" {
		r.logger.Warn("reply generation returned empty text, using fallback")
		return r.Fallback(text, lang)
	}

	topic, _ := r.classifier.Classify(r.normalizer.Normalize(text))
	return Reply{Text: generated, Topic: topic, Generated: true}
}

func (r *Responder) generate(ctx context.Context, text string, history []conversation.Message, lang topics.Language) (reply string, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("reply generator panicked: %v", p)
		}
	}()
	return r.generator.GenerateReply(ctx, text, history, lang)
}

func (r *Responder) pick(pool []string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return pool[r.rng.IntN(len(pool))]
}
