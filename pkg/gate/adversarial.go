package gate

import (
	"regexp"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/calque-ai/ragate/pkg/helpers"
)

// Attack families in default table order.
const (
	FamilyPromptInjection = "prompt_injection"
	FamilyDataExtraction  = "data_extraction"
	FamilyModelInversion  = "model_inversion"
	FamilyJailbreak       = "jailbreak"

	// FamilyNone is reported when nothing matches.
	FamilyNone = "none"
)

// AttackConfidence is the fixed confidence of a pattern match.
const AttackConfidence = 0.9

// PatternTable maps attack families to their patterns. Iteration order is
// evaluation order, so it is kept in an ordered map.
type PatternTable = orderedmap.OrderedMap[string, []string]

// NewPatternTable returns an empty table.
func NewPatternTable() *PatternTable {
	return orderedmap.New[string, []string]()
}

// DefaultAttackPatterns returns a fresh copy of the built-in table.
func DefaultAttackPatterns() *PatternTable {
	t := NewPatternTable()
	t.Set(FamilyPromptInjection, []string{
		`ignore.*previous`,
		`system.*prompt`,
		`admin.*mode`,
		`instructions.*override`,
		`execute.*command`,
	})
	t.Set(FamilyDataExtraction, []string{
		`show.*training.*data`,
		`extract.*embeddings`,
		`dump.*knowledge`,
		`access.*internal`,
	})
	t.Set(FamilyModelInversion, []string{
		`reconstruct.*original`,
		`invert.*function`,
		`reverse.*engineer`,
	})
	t.Set(FamilyJailbreak, []string{
		`do.*anything.*now`,
		`unrestricted.*mode`,
		`disable.*safety`,
		`bypass.*restrictions`,
	})
	return t
}

// Classification is the detector outcome.
type Classification struct {
	IsAttack   bool
	Family     string
	Pattern    string
	Confidence float64
}

type familyPatterns struct {
	family   string
	patterns []*regexp.Regexp
}

// AdversarialDetector classifies lower-cased input against an ordered
// family -> patterns table. The first matching pattern in table order wins.
type AdversarialDetector struct {
	families []familyPatterns
}

// NewAdversarialDetector compiles table. A nil table uses DefaultAttackPatterns.
func NewAdversarialDetector(table *PatternTable) (*AdversarialDetector, error) {
	if table == nil {
		table = DefaultAttackPatterns()
	}

	d := &AdversarialDetector{families: make([]familyPatterns, 0, table.Len())}
	for pair := table.Oldest(); pair != nil; pair = pair.Next() {
		if helpers.IsEmpty(pair.Key) {
			return nil, helpers.NewError("attack family name cannot be empty")
		}
		fp := familyPatterns{family: pair.Key, patterns: make([]*regexp.Regexp, 0, len(pair.Value))}
		for _, p := range pair.Value {
			re, err := regexp.Compile(p)
			if err != nil {
				return nil, helpers.WrapErrorf(err, "invalid %s pattern %q", pair.Key, p)
			}
			fp.patterns = append(fp.patterns, re)
		}
		d.families = append(d.families, fp)
	}
	return d, nil
}

// Families returns the family names in evaluation order.
func (d *AdversarialDetector) Families() []string {
	names := make([]string, len(d.families))
	for i, f := range d.families {
		names[i] = f.family
	}
	return names
}

// Classify reports the first family whose pattern matches text.
func (d *AdversarialDetector) Classify(text string) Classification {
	lower := strings.ToLower(text)
	for _, f := range d.families {
		for _, re := range f.patterns {
			if re.MatchString(lower) {
				return Classification{
					IsAttack:   true,
					Family:     f.family,
					Pattern:    re.String(),
					Confidence: AttackConfidence,
				}
			}
		}
	}
	return Classification{Family: FamilyNone}
}
