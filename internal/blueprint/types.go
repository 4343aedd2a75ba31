package blueprint

import (
	"time"

	"github.com/samber/lo"

	"github.com/strrl/polar-persona/internal/topics"
)

// MaxItemsPerSection caps every section of a blueprint.
const MaxItemsPerSection = 3

// SectionOrder is the fixed display order of blueprint sections.
var SectionOrder = []topics.Label{
	topics.LabelIdentity,
	topics.LabelHabitat,
	topics.LabelDiet,
	topics.LabelSkills,
	topics.LabelChallenges,
	topics.LabelMessage,
	topics.LabelFuture,
}

// Sections maps each section to its sentences. Every section in
// SectionOrder is present, empty sections included.
type Sections map[topics.Label][]string

func NewSections() Sections {
	s := make(Sections, len(SectionOrder))
	for _, label := range SectionOrder {
		s[label] = []string{}
	}
	return s
}

func (s Sections) Total() int {
	return lo.SumBy(lo.Values(s), func(items []string) int { return len(items) })
}

func (s Sections) Clone() Sections {
	out := make(Sections, len(s))
	for label, items := range s {
		out[label] = append([]string{}, items...)
	}
	return out
}

// Snapshot is one rendered blueprint.
type Snapshot struct {
	ID          string          `json:"id,omitempty"`
	Language    topics.Language `json:"language"`
	GeneratedAt time.Time       `json:"generated_at"`
	Sections    Sections        `json:"sections"`
}
