package blueprint

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strrl/polar-persona/internal/topics"
)

type mockTranslator struct {
	calls int
	fn    func(Sections, topics.Language) (Sections, error)
}

func (m *mockTranslator) Translate(_ context.Context, sections Sections, lang topics.Language) (Sections, error) {
	m.calls++
	return m.fn(sections, lang)
}

func upperTranslator() *mockTranslator {
	return &mockTranslator{fn: func(s Sections, _ topics.Language) (Sections, error) {
		out := make(Sections, len(s))
		for label, items := range s {
			out[label] = make([]string, len(items))
			for i, item := range items {
				out[label][i] = strings.ToUpper(item)
			}
		}
		return out, nil
	}}
}

func sampleSections() Sections {
	s := NewSections()
	s[topics.LabelHabitat] = []string{"I roam the sea ice near Svalbard."}
	s[topics.LabelDiet] = []string{"I hunt ringed seals."}
	return s
}

func newTestLocalizer(t *testing.T, tr Translator) *Localizer {
	t.Helper()
	l, err := NewLocalizer(LocalizerConfig{Translator: tr})
	require.NoError(t, err)
	return l
}

func TestLocalize_Translates(t *testing.T) {
	tr := upperTranslator()
	l := newTestLocalizer(t, tr)

	got := l.Localize(context.Background(), sampleSections(), topics.LanguageSpanish)
	assert.Equal(t, []string{"I HUNT RINGED SEALS."}, got[topics.LabelDiet])
	assert.Equal(t, 1, tr.calls)
}

func TestLocalize_FailOpen(t *testing.T) {
	tr := &mockTranslator{fn: func(Sections, topics.Language) (Sections, error) {
		return nil, errors.New("provider returned 502")
	}}
	l := newTestLocalizer(t, tr)
	in := sampleSections()

	got := l.Localize(context.Background(), in, topics.LanguageSpanish)
	assert.Equal(t, sampleSections(), got)
	assert.Equal(t, 1, tr.calls)
}

func TestLocalize_FailOpenOnPanic(t *testing.T) {
	tr := &mockTranslator{fn: func(Sections, topics.Language) (Sections, error) {
		panic("nil response body")
	}}
	l := newTestLocalizer(t, tr)

	var got Sections
	require.NotPanics(t, func() {
		got = l.Localize(context.Background(), sampleSections(), topics.LanguageSpanish)
	})
	assert.Equal(t, sampleSections(), got)

	l.Localize(context.Background(), sampleSections(), topics.LanguageSpanish)
	assert.Equal(t, 2, tr.calls)
}

func TestLocalize_CachesResult(t *testing.T) {
	tr := upperTranslator()
	l := newTestLocalizer(t, tr)

	first := l.Localize(context.Background(), sampleSections(), topics.LanguageSpanish)
	second := l.Localize(context.Background(), sampleSections(), topics.LanguageSpanish)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, tr.calls)

	second[topics.LabelDiet][0] = "mutated"
	third := l.Localize(context.Background(), sampleSections(), topics.LanguageSpanish)
	assert.Equal(t, "I HUNT RINGED SEALS.", third[topics.LabelDiet][0])

	l.Localize(context.Background(), sampleSections(), topics.LanguageEnglish)
	assert.Equal(t, 2, tr.calls)
}

func TestLocalize_FailuresAreNotCached(t *testing.T) {
	fail := true
	tr := &mockTranslator{fn: func(s Sections, _ topics.Language) (Sections, error) {
		if fail {
			return nil, errors.New("timeout")
		}
		return s, nil
	}}
	l := newTestLocalizer(t, tr)

	l.Localize(context.Background(), sampleSections(), topics.LanguageSpanish)
	fail = false
	l.Localize(context.Background(), sampleSections(), topics.LanguageSpanish)
	l.Localize(context.Background(), sampleSections(), topics.LanguageSpanish)
	assert.Equal(t, 2, tr.calls)
}

func TestLocalize_SkipsTranslation(t *testing.T) {
	tr := upperTranslator()
	l := newTestLocalizer(t, tr)

	empty := NewSections()
	assert.Equal(t, empty, l.Localize(context.Background(), empty, topics.LanguageSpanish))
	assert.Equal(t, sampleSections(), l.Localize(context.Background(), sampleSections(), topics.Language("fr")))
	assert.Equal(t, 0, tr.calls)
}

func TestLocalize_NoTranslator(t *testing.T) {
	l := newTestLocalizer(t, nil)
	assert.Equal(t, sampleSections(), l.Localize(context.Background(), sampleSections(), topics.LanguageSpanish))
}

func TestLocalize_DiscardsMalformedTranslation(t *testing.T) {
	cases := map[string]func(Sections, topics.Language) (Sections, error){
		"missing section": func(s Sections, _ topics.Language) (Sections, error) {
			out := s.Clone()
			delete(out, topics.LabelFuture)
			return out, nil
		},
		"wrong item count": func(s Sections, _ topics.Language) (Sections, error) {
			out := s.Clone()
			out[topics.LabelDiet] = append(out[topics.LabelDiet], "extra")
			return out, nil
		},
		"renamed section": func(s Sections, _ topics.Language) (Sections, error) {
			out := s.Clone()
			out["dieta"] = out[topics.LabelDiet]
			delete(out, topics.LabelDiet)
			return out, nil
		},
	}

	for name, fn := range cases {
		t.Run(name, func(t *testing.T) {
			tr := &mockTranslator{fn: fn}
			l := newTestLocalizer(t, tr)

			got := l.Localize(context.Background(), sampleSections(), topics.LanguageSpanish)
			assert.Equal(t, sampleSections(), got)

			l.Localize(context.Background(), sampleSections(), topics.LanguageSpanish)
			assert.Equal(t, 2, tr.calls)
		})
	}
}

func TestCacheKey_Stable(t *testing.T) {
	a, err := cacheKey(sampleSections(), topics.LanguageSpanish)
	require.NoError(t, err)
	b, err := cacheKey(sampleSections(), topics.LanguageSpanish)
	require.NoError(t, err)
	c, err := cacheKey(sampleSections(), topics.LanguageEnglish)
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}
