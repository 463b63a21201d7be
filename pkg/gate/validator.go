package gate

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/calque-ai/ragate/pkg/helpers"
)

// Validator rule names, in default evaluation order. They are reported as the
// rejection reason.
const (
	RuleEmpty               = "empty"
	RuleTooLong             = "too long"
	RuleStructuralKeyword   = "structural-keyword pattern"
	RuleControlSequence     = "control-sequence pattern"
	RuleQuoteManipulation   = "quote-manipulation pattern"
	RuleEncodedCharacters   = "encoded-characters pattern"
	RuleMultipleStatements  = "multiple-statement pattern"
	RuleInstructionOverride = "instruction-override pattern"
)

// DefaultMaxQueryLength is the default limit, in characters.
const DefaultMaxQueryLength = 1000

// DefaultKeywords is the reserved structural vocabulary matched at word edges.
var DefaultKeywords = []string{
	"DROP", "DELETE", "INSERT", "UPDATE", "UNION", "SELECT",
	"EXEC", "EXECUTE", "ALTER", "TRUNCATE", "GRANT", "REVOKE",
}

// DefaultOverridePatterns are instruction-override phrases matched on
// lower-cased text.
var DefaultOverridePatterns = []string{
	`ignore.*instruction`,
	`system.*prompt`,
	`administrator.*mode`,
	`override.*security`,
	`bypass`,
	`exec\(`,
	`eval\(`,
}

var (
	controlSequenceRe   = regexp.MustCompile(`(?i);|--|/\*|\*/|\bxp_|\bsp_`)
	quoteManipulationRe = regexp.MustCompile(`(?i)['"]\s*(?:(?:or|and|union|select|insert|update|delete|drop|exec)\b|=|\|\|)`)
	encodedCharsRe      = regexp.MustCompile(`(?i)%27|%22|%3B|%2D%2D|%2F%2A|%23|%00`)
)

// ValidationRule is one entry of the validator's ordered rule list. Check
// reports whether the rule fires and, if so, a human-readable detail.
type ValidationRule struct {
	Name  string
	Check func(query string) (bool, string)
}

// ValidationResult is the validator outcome. Rule is empty when OK.
type ValidationResult struct {
	OK     bool
	Rule   string
	Reason string
}

// QueryValidator runs an ordered rule list; the first rule that fires decides
// the result. It holds only immutable state after construction.
type QueryValidator struct {
	rules []ValidationRule
}

type validatorConfig struct {
	maxQueryLength      int
	keywords            []string
	overridePatterns    []string
	instructionOverride bool
	extra               []ValidationRule
	rules               []ValidationRule
}

// ValidatorOption configures a QueryValidator
type ValidatorOption func(*validatorConfig)

// WithMaxQueryLength sets the length limit in characters.
func WithMaxQueryLength(n int) ValidatorOption {
	return func(c *validatorConfig) { c.maxQueryLength = n }
}

// WithKeywords replaces the reserved structural keyword list.
func WithKeywords(keywords []string) ValidatorOption {
	return func(c *validatorConfig) { c.keywords = keywords }
}

// WithOverridePatterns replaces the instruction-override pattern list.
func WithOverridePatterns(patterns []string) ValidatorOption {
	return func(c *validatorConfig) { c.overridePatterns = patterns }
}

// WithInstructionOverride toggles the instruction-override rule (default on).
func WithInstructionOverride(enabled bool) ValidatorOption {
	return func(c *validatorConfig) { c.instructionOverride = enabled }
}

// WithExtraRules appends rules after the default list.
func WithExtraRules(rules ...ValidationRule) ValidatorOption {
	return func(c *validatorConfig) { c.extra = append(c.extra, rules...) }
}

// WithRules replaces the whole rule list. Other options are then ignored.
func WithRules(rules ...ValidationRule) ValidatorOption {
	return func(c *validatorConfig) { c.rules = rules }
}

// NewQueryValidator builds a validator from the default rule list.
//
// Example:
//
//	v, err := gate.NewQueryValidator(gate.WithMaxQueryLength(500))
//	if res := v.Validate(q); !res.OK {
//	    fmt.Println(res.Rule)
//	}
func NewQueryValidator(opts ...ValidatorOption) (*QueryValidator, error) {
	cfg := validatorConfig{
		maxQueryLength:      DefaultMaxQueryLength,
		keywords:            DefaultKeywords,
		overridePatterns:    DefaultOverridePatterns,
		instructionOverride: true,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.rules != nil {
		return &QueryValidator{rules: cfg.rules}, nil
	}
	if cfg.maxQueryLength <= 0 {
		return nil, helpers.NewError("invalid max query length %d", cfg.maxQueryLength)
	}

	rules, err := DefaultRules(cfg.maxQueryLength, cfg.keywords)
	if err != nil {
		return nil, err
	}
	if cfg.instructionOverride && len(cfg.overridePatterns) > 0 {
		rule, err := InstructionOverrideRule(cfg.overridePatterns)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	rules = append(rules, cfg.extra...)

	return &QueryValidator{rules: rules}, nil
}

// Rules returns a copy of the rule list in evaluation order.
func (v *QueryValidator) Rules() []ValidationRule {
	return append([]ValidationRule(nil), v.rules...)
}

// Validate runs the rules in order and stops at the first match.
func (v *QueryValidator) Validate(query string) ValidationResult {
	for _, rule := range v.rules {
		if matched, detail := rule.Check(query); matched {
			return ValidationResult{Rule: rule.Name, Reason: detail}
		}
	}
	return ValidationResult{OK: true}
}

// DefaultRules returns rules one through seven: empty, too long, structural
// keyword, control sequence, quote manipulation, encoded characters and
// multiple statements.
//
// The multiple-statement rule can only fire when the control-sequence rule
// has been removed or replaced, since any ';' already matches it.
func DefaultRules(maxQueryLength int, keywords []string) ([]ValidationRule, error) {
	keywordRe, err := keywordRegexp(keywords)
	if err != nil {
		return nil, err
	}

	rules := []ValidationRule{
		{Name: RuleEmpty, Check: func(q string) (bool, string) {
			if helpers.IsEmpty(q) {
				return true, "query cannot be empty"
			}
			return false, ""
		}},
		{Name: RuleTooLong, Check: func(q string) (bool, string) {
			if n := utf8.RuneCountInString(q); n > maxQueryLength {
				return true, fmt.Sprintf("query exceeds maximum length of %d characters", maxQueryLength)
			}
			return false, ""
		}},
	}

	if keywordRe != nil {
		rules = append(rules, ValidationRule{Name: RuleStructuralKeyword, Check: func(q string) (bool, string) {
			if m := keywordRe.FindString(q); m != "" {
				return true, fmt.Sprintf("reserved keyword %q", strings.ToUpper(m))
			}
			return false, ""
		}})
	}

	rules = append(rules,
		ValidationRule{Name: RuleControlSequence, Check: regexpCheck(controlSequenceRe, "control sequence")},
		ValidationRule{Name: RuleQuoteManipulation, Check: regexpCheck(quoteManipulationRe, "quote manipulation")},
		ValidationRule{Name: RuleEncodedCharacters, Check: regexpCheck(encodedCharsRe, "encoded character")},
		ValidationRule{Name: RuleMultipleStatements, Check: func(q string) (bool, string) {
			if n := strings.Count(q, ";"); n > 1 {
				return true, fmt.Sprintf("%d statement terminators", n)
			}
			return false, ""
		}},
	)

	return rules, nil
}

// InstructionOverrideRule matches any of patterns against the lower-cased query.
func InstructionOverrideRule(patterns []string) (ValidationRule, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return ValidationRule{}, helpers.WrapErrorf(err, "invalid instruction-override pattern %q", p)
		}
		compiled = append(compiled, re)
	}

	return ValidationRule{Name: RuleInstructionOverride, Check: func(q string) (bool, string) {
		lower := strings.ToLower(q)
		for _, re := range compiled {
			if re.MatchString(lower) {
				return true, fmt.Sprintf("instruction-override pattern %q", re.String())
			}
		}
		return false, ""
	}}, nil
}

func keywordRegexp(keywords []string) (*regexp.Regexp, error) {
	if len(keywords) == 0 {
		return nil, nil
	}
	quoted := make([]string, len(keywords))
	for i, k := range keywords {
		quoted[i] = regexp.QuoteMeta(k)
	}
	re, err := regexp.Compile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)\b`)
	if err != nil {
		return nil, helpers.WrapError(err, "invalid keyword list")
	}
	return re, nil
}

func regexpCheck(re *regexp.Regexp, what string) func(string) (bool, string) {
	return func(q string) (bool, string) {
		if m := re.FindString(q); m != "" {
			return true, fmt.Sprintf("%s %q", what, m)
		}
		return false, ""
	}
}
