package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strrl/polar-persona/internal/blueprint"
	"github.com/strrl/polar-persona/internal/topics"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "nested", "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func snapshot(lang topics.Language, at time.Time, diet ...string) blueprint.Snapshot {
	sections := blueprint.NewSections()
	sections[topics.LabelDiet] = append([]string{}, diet...)
	return blueprint.Snapshot{Language: lang, GeneratedAt: at, Sections: sections}
}

func TestSaveAndGet(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	at := time.Date(2025, 2, 1, 9, 30, 0, 123, time.UTC)

	saved, err := s.Save(ctx, snapshot(topics.LanguageEnglish, at, "I hunt seals."))
	require.NoError(t, err)
	require.NotEmpty(t, saved.ID)

	got, err := s.Get(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, saved.ID, got.ID)
	assert.Equal(t, topics.LanguageEnglish, got.Language)
	assert.True(t, at.Equal(got.GeneratedAt))
	assert.Equal(t, []string{"I hunt seals."}, got.Sections[topics.LabelDiet])
	assert.Len(t, got.Sections, len(blueprint.SectionOrder))
	assert.NotNil(t, got.Sections[topics.LabelFuture])
}

func TestSave_KeepsGivenID(t *testing.T) {
	s := newTestStore(t)
	snap := snapshot(topics.LanguageSpanish, time.Now())
	snap.ID = "fixed-id"

	saved, err := s.Save(context.Background(), snap)
	require.NoError(t, err)
	assert.Equal(t, "fixed-id", saved.ID)
}

func TestGet_NotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.Latest(context.Background(), topics.LanguageEnglish)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLatestPerLanguage(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	base := time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, s.Render(ctx, snapshot(topics.LanguageEnglish, base, "old")))
	require.NoError(t, s.Render(ctx, snapshot(topics.LanguageEnglish, base.Add(500*time.Millisecond), "new")))
	require.NoError(t, s.Render(ctx, snapshot(topics.LanguageSpanish, base.Add(time.Hour), "nuevo")))

	latest, err := s.Latest(ctx, topics.LanguageEnglish)
	require.NoError(t, err)
	assert.Equal(t, []string{"new"}, latest.Sections[topics.LabelDiet])

	latest, err = s.Latest(ctx, topics.LanguageSpanish)
	require.NoError(t, err)
	assert.Equal(t, []string{"nuevo"}, latest.Sections[topics.LabelDiet])
}

func TestList(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	base := time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		_, err := s.Save(ctx, snapshot(topics.LanguageEnglish, base.Add(time.Duration(i)*time.Minute)))
		require.NoError(t, err)
	}
	_, err := s.Save(ctx, snapshot(topics.LanguageSpanish, base.Add(time.Hour)))
	require.NoError(t, err)

	all, err := s.List(ctx, ListParams{})
	require.NoError(t, err)
	require.Len(t, all, 6)
	assert.Equal(t, topics.LanguageSpanish, all[0].Language)

	english, err := s.List(ctx, ListParams{Language: topics.LanguageEnglish, Limit: 2})
	require.NoError(t, err)
	require.Len(t, english, 2)
	assert.True(t, english[0].GeneratedAt.After(english[1].GeneratedAt))
	assert.True(t, base.Add(4*time.Minute).Equal(english[0].GeneratedAt))
}
