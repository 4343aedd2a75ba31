package output

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/strrl/polar-persona/internal/blueprint"
	"github.com/strrl/polar-persona/internal/topics"
)

const blueprintDirName = ".blueprint"

var headings = map[topics.Language]string{
	topics.LanguageEnglish: "Nanuq's Blueprint",
	topics.LanguageSpanish: "El plano de Nanuq",
}

var placeholders = map[topics.Language]string{
	topics.LanguageEnglish: "Nothing shared yet.",
	topics.LanguageSpanish: "Todavía no he contado nada.",
}

// Generator writes blueprint snapshots as markdown files under
// <outputDir>/.blueprint, one file per language.
type Generator struct {
	outputDir string
	table     *topics.Table
}

func NewGenerator(outputDir string, table *topics.Table) *Generator {
	if table == nil {
		table = topics.DefaultTable()
	}
	return &Generator{
		outputDir: outputDir,
		table:     table,
	}
}

func (g *Generator) Path(lang topics.Language) string {
	return filepath.Join(g.outputDir, blueprintDirName, fmt.Sprintf("blueprint.%s.md", sanitizeFilename(string(lang))))
}

// Render implements the pipeline sink; the file is replaced on every call.
func (g *Generator) Render(_ context.Context, snap blueprint.Snapshot) error {
	_, err := g.Generate(snap)
	return err
}

func (g *Generator) Generate(snap blueprint.Snapshot) (string, error) {
	dir := filepath.Join(g.outputDir, blueprintDirName)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create %s directory: %w", blueprintDirName, err)
	}

	filename := g.Path(snap.Language)
	if err := os.WriteFile(filename, []byte(g.Format(snap)), 0644); err != nil {
		return "", fmt.Errorf("failed to write blueprint file: %w", err)
	}

	return filename, nil
}

// Format renders every section in SectionOrder, including empty ones.
func (g *Generator) Format(snap blueprint.Snapshot) string {
	lang := snap.Language
	if !lang.IsSupported() {
		lang = topics.BaseLanguage
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# %s\n\n", headings[lang]))
	if snap.ID != "" {
		sb.WriteString(fmt.Sprintf("**Snapshot:** %s\n", snap.ID))
	}
	if !snap.GeneratedAt.IsZero() {
		sb.WriteString(fmt.Sprintf("**Generated:** %s\n", snap.GeneratedAt.UTC().Format("2006-01-02 15:04 MST")))
	}
	sb.WriteString(fmt.Sprintf("**Language:** %s\n", emptyFallback(string(snap.Language), string(topics.BaseLanguage))))

	for _, label := range blueprint.SectionOrder {
		sb.WriteString(fmt.Sprintf("\n## %s\n\n", g.table.Title(label, lang)))

		items := snap.Sections[label]
		if len(items) == 0 {
			sb.WriteString(fmt.Sprintf("_%s_\n", placeholders[lang]))
			continue
		}
		for _, item := range items {
			sb.WriteString(fmt.Sprintf("- %s\n", truncate(item, 400)))
		}
	}

	return sb.String()
}

func emptyFallback(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

func sanitizeFilename(s string) string {
	result := unsafeChars.ReplaceAllString(s, "-")
	result = strings.Trim(result, "-")
	if len(result) > 50 {
		result = result[:50]
	}
	if result == "" {
		result = "unnamed"
	}
	return strings.ToLower(result)
}

func truncate(s string, maxLen int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	return s
}
