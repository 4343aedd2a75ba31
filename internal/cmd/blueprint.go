package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/strrl/polar-persona/internal/blueprint"
	"github.com/strrl/polar-persona/internal/logging"
	"github.com/strrl/polar-persona/internal/output"
	"github.com/strrl/polar-persona/internal/pipeline"
	"github.com/strrl/polar-persona/internal/store"
)

var (
	blueprintPath    string
	blueprintHistory string
	blueprintSession string
	blueprintNoStore bool
	blueprintAI      bool
)

var blueprintCmd = &cobra.Command{
	Use:   "blueprint",
	Short: "Build Nanuq's blueprint from the conversation history",
	Long: `Read the recorded conversation history, collect what Nanuq said about its
identity, habitat, diet, skills, challenges, message and future, and write the
result to .blueprint/blueprint.<lang>.md. Each run is also stored as a snapshot
unless --no-store is given.

With --ai and a configured OPENROUTER_API_KEY the sections are translated into
the requested language; a failed translation keeps the original text.`,
	RunE: runBlueprint,
}

func init() {
	rootCmd.AddCommand(blueprintCmd)

	blueprintCmd.Flags().StringVarP(&blueprintPath, "path", "p", "", "Directory to write .blueprint/ into (default from POLAR_OUTPUT_DIR)")
	blueprintCmd.Flags().StringVar(&blueprintHistory, "history", "", "Transcript glob (default from POLAR_HISTORY_PATH)")
	blueprintCmd.Flags().StringVar(&blueprintSession, "session", "", "Only use turns from this session")
	blueprintCmd.Flags().BoolVar(&blueprintNoStore, "no-store", false, "Do not save a snapshot")
	blueprintCmd.Flags().BoolVar(&blueprintAI, "ai", false, "Translate sections with the configured model")
}

func runBlueprint(cmd *cobra.Command, args []string) error {
	outputDir := blueprintPath
	if outputDir == "" {
		outputDir = cfg.OutputDir
	}
	outputDir, err := resolveOutputPath(outputDir)
	if err != nil {
		return err
	}

	pattern := blueprintHistory
	if pattern == "" {
		pattern = cfg.HistoryPath
	}
	session := blueprintSession
	if session == "" {
		session = cfg.Session
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Reading history: %s\n", pattern)
	fmt.Fprintf(out, "Output directory: %s/.blueprint/\n", outputDir)

	source, err := newHistorySource(pattern, session)
	if err != nil {
		return err
	}

	stats, err := source.Stats(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to get history stats: %w", err)
	}
	if stats.Count == 0 {
		fmt.Fprintln(out, "No conversation history found; the blueprint will be empty")
	} else if !stats.First.IsZero() {
		fmt.Fprintf(out, "Found %d messages from %s to %s\n", stats.Count, stats.First.Format("2006-01-02"), stats.Last.Format("2006-01-02"))
	} else {
		fmt.Fprintf(out, "Found %d messages\n", stats.Count)
	}

	c, err := buildComponents(blueprintAI)
	if err != nil {
		return err
	}
	localizer, err := c.localizer()
	if err != nil {
		return err
	}

	gen := output.NewGenerator(outputDir, c.table)
	sinks := []pipeline.Sink{gen}

	if !blueprintNoStore {
		snapshots, err := store.NewSQLiteStore(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("failed to open snapshot store: %w", err)
		}
		defer snapshots.Close()
		sinks = append(sinks, snapshots)
	}

	p, err := pipeline.New(pipeline.Config{
		Source:    source,
		Extractor: c.extractor(),
		Localizer: localizer,
		Sinks:     sinks,
		Logger:    logging.ForComponent(logger, "pipeline"),
	})
	if err != nil {
		return err
	}

	snap, buildStats, err := p.Build(cmd.Context(), cfg.Language)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Built blueprint %s (%s) from %d assistant messages:\n", snap.ID, snap.Language, buildStats.AssistantMessages)
	for _, label := range blueprint.SectionOrder {
		fmt.Fprintf(out, "  - %s: %d\n", c.table.Title(label, snap.Language), len(snap.Sections[label]))
	}
	fmt.Fprintf(out, "Wrote %s\n", gen.Path(snap.Language))
	if !blueprintNoStore {
		fmt.Fprintf(out, "Saved snapshot to %s\n", cfg.DBPath)
	}

	return nil
}

func resolveOutputPath(path string) (string, error) {
	if path == "" {
		return os.Getwd()
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return "", fmt.Errorf("path does not exist: %w", err)
	}

	if !info.IsDir() {
		return "", fmt.Errorf("path is not a directory: %s", absPath)
	}

	return absPath, nil
}
