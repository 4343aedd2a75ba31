package cmd

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupEnv points every path at a fresh temp dir and disables the model.
func setupEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)

	t.Setenv("OPENROUTER_API_KEY", "")
	t.Setenv("POLAR_LANGUAGE", "en")
	t.Setenv("POLAR_TOPICS_FILE", "")
	t.Setenv("POLAR_SESSION", "")
	t.Setenv("POLAR_SEED", "7")
	t.Setenv("POLAR_LOG_LEVEL", "error")
	t.Setenv("POLAR_HISTORY_PATH", filepath.Join(dir, "history", "*.jsonl"))
	t.Setenv("POLAR_TRANSCRIPT_FILE", filepath.Join(dir, "history", "transcript.jsonl"))
	t.Setenv("POLAR_OUTPUT_DIR", dir)
	t.Setenv("POLAR_DB_PATH", filepath.Join(dir, "db", "blueprints.db"))
	return dir
}

func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	setupEnv(t)
	out, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "polar-persona version dev")
}

func TestClassify(t *testing.T) {
	setupEnv(t)

	out, err := execute(t, "", "classify", "wat", "do", "u", "eet")
	require.NoError(t, err)
	assert.Contains(t, out, "Normalized: what do you eat\n")
	assert.Contains(t, out, "Topic: diet (What I Eat)")

	out, err = execute(t, "", "classify", "--lang", "es", "where do you live")
	require.NoError(t, err)
	assert.Contains(t, out, "Topic: habitat (Dónde vivo)")

	out, err = execute(t, "", "classify", "zzzz")
	require.NoError(t, err)
	assert.Contains(t, out, "Topic: none")
}

func TestAsk_SingleMessageIsRecorded(t *testing.T) {
	dir := setupEnv(t)

	out, err := execute(t, "", "ask", "what", "do", "you", "eat?")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "nanuq> "), out)

	data, err := os.ReadFile(filepath.Join(dir, "history", "transcript.jsonl"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"role":"user"`)
	assert.Contains(t, lines[1], `"role":"assistant"`)
}

func TestAsk_Interactive(t *testing.T) {
	dir := setupEnv(t)

	out, err := execute(t, "hello\n\nwhere do you live\n", "ask", "--no-record", "--verbose-reply")
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(out, "nanuq ["))
	assert.Contains(t, out, "nanuq [habitat, generated=false]> ")

	_, err = os.Stat(filepath.Join(dir, "history", "transcript.jsonl"))
	assert.True(t, os.IsNotExist(err))
	assert.NotContains(t, out, "Recording to")
}

func TestAsk_InteractiveRecordsToTranscript(t *testing.T) {
	dir := setupEnv(t)
	transcript := filepath.Join(dir, "history", "transcript.jsonl")

	out, err := execute(t, "what do you eat\n", "ask")
	require.NoError(t, err)
	assert.Contains(t, out, "Recording to "+transcript+"\n")

	data, err := os.ReadFile(transcript)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(data), "\n"))
}

func TestSessions(t *testing.T) {
	dir := setupEnv(t)

	out, err := execute(t, "", "sessions")
	require.NoError(t, err)
	assert.Contains(t, out, "No sessions found")

	_, err = execute(t, "", "ask", "--session", "glacier", "where do you live")
	require.NoError(t, err)
	_, err = execute(t, "", "ask", "--session", "floe", "what do you eat")
	require.NoError(t, err)
	_, err = execute(t, "", "ask", "--session", "floe", "hello")
	require.NoError(t, err)
	require.FileExists(t, filepath.Join(dir, "history", "transcript.jsonl"))

	out, err = execute(t, "", "sessions")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "floe  4 messages  last "), lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "glacier  2 messages  last "), lines[1])
}

func TestBlueprintAndSnapshots(t *testing.T) {
	dir := setupEnv(t)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "history"), 0o755))
	transcript := strings.Join([]string{
		`{"role":"user","content":"where do you live?","timestamp":"2025-01-01T10:00:00Z"}`,
		`{"role":"assistant","content":"I live on the sea ice near Svalbard. I hunt seals.","timestamp":"2025-01-01T10:00:01Z"}`,
	}, "\n") + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "history", "old.jsonl"), []byte(transcript), 0o644))

	out, err := execute(t, "", "blueprint")
	require.NoError(t, err)
	assert.Contains(t, out, "Found 2 messages from 2025-01-01 to 2025-01-01")
	assert.Contains(t, out, "What I Eat: 1")

	data, err := os.ReadFile(filepath.Join(dir, ".blueprint", "blueprint.en.md"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "- I hunt seals.")

	out, err = execute(t, "", "snapshots")
	require.NoError(t, err)
	assert.Contains(t, out, "  en  ")
	assert.Contains(t, out, "2 items")

	out, err = execute(t, "", "snapshots", "--lang", "es")
	require.NoError(t, err)
	assert.Contains(t, out, "No snapshots stored yet")
}

func TestBlueprint_EmptyHistoryNoStore(t *testing.T) {
	dir := setupEnv(t)

	out, err := execute(t, "", "blueprint", "--no-store", "--lang", "es")
	require.NoError(t, err)
	assert.Contains(t, out, "No conversation history found")
	assert.NotContains(t, out, "Saved snapshot")

	_, err = os.Stat(filepath.Join(dir, ".blueprint", "blueprint.es.md"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "db", "blueprints.db"))
	assert.True(t, os.IsNotExist(err))
}

func TestBlueprint_RejectsMissingOutputDir(t *testing.T) {
	dir := setupEnv(t)
	_, err := execute(t, "", "blueprint", "--path", filepath.Join(dir, "missing"))
	assert.ErrorContains(t, err, "path does not exist")
}
