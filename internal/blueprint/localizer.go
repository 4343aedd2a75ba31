package blueprint

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/log"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/samber/lo"

	"github.com/strrl/polar-persona/internal/logging"
	"github.com/strrl/polar-persona/internal/topics"
)

const DefaultCacheSize = 256

// Translator renders sections in another language. Implementations may fail
// in any way; the Localizer treats every failure as "keep the original".
type Translator interface {
	Translate(ctx context.Context, sections Sections, lang topics.Language) (Sections, error)
}

type LocalizerConfig struct {
	// Translator may be nil, in which case sections pass through untouched.
	Translator Translator
	CacheSize  int
	Languages  []topics.Language
	Logger     *log.Logger
}

// Localizer translates sections best-effort and memoizes the results for
// the lifetime of the instance. Entries are never invalidated; the LRU bound
// only limits memory.
type Localizer struct {
	translator Translator
	languages  []topics.Language
	cache      *lru.Cache[string, Sections]
	logger     *log.Logger
}

func NewLocalizer(cfg LocalizerConfig) (*Localizer, error) {
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = DefaultCacheSize
	}
	if len(cfg.Languages) == 0 {
		cfg.Languages = topics.SupportedLanguages
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Discard()
	}

	cache, err := lru.New[string, Sections](cfg.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create translation cache: %w", err)
	}

	return &Localizer{
		translator: cfg.Translator,
		languages:  cfg.Languages,
		cache:      cache,
		logger:     cfg.Logger,
	}, nil
}

// Localize never fails: on any problem it returns sections unchanged.
func (l *Localizer) Localize(ctx context.Context, sections Sections, lang topics.Language) Sections {
	if sections.Total() == 0 || !lo.Contains(l.languages, lang) {
		return sections
	}

	key, err := cacheKey(sections, lang)
	if err != nil {
		l.logger.Warn("failed to build cache key", "error", err)
		return sections
	}
	if cached, ok := l.cache.Get(key); ok {
		return cached.Clone()
	}

	if l.translator == nil {
		return sections
	}

	translated, err := l.translate(ctx, sections, lang)
	if err != nil {
		l.logger.Warn("translation failed, keeping original sections", "language", lang, "error", err)
		return sections
	}
	if err := sameShape(sections, translated); err != nil {
		l.logger.Warn("discarding malformed translation", "language", lang, "error", err)
		return sections
	}

	l.cache.Add(key, translated.Clone())
	return translated
}

// translate turns a panicking translator into an ordinary failure.
func (l *Localizer) translate(ctx context.Context, sections Sections, lang topics.Language) (translated Sections, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("translator panicked: %v", r)
		}
	}()
	return l.translator.Translate(ctx, sections.Clone(), lang)
}

func cacheKey(sections Sections, lang topics.Language) (string, error) {
	// Map keys are sorted by encoding/json, so equal sections hash equally.
	payload, err := json.Marshal(sections)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:]) + ":" + string(lang), nil
}

func sameShape(original, translated Sections) error {
	if len(original) != len(translated) {
		return fmt.Errorf("expected %d sections, got %d", len(original), len(translated))
	}
	for label, items := range original {
		got, ok := translated[label]
		if !ok {
			return fmt.Errorf("section %q missing", label)
		}
		if len(got) != len(items) {
			return fmt.Errorf("section %q has %d items, expected %d", label, len(got), len(items))
		}
	}
	return nil
}
