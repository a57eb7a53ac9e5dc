package sdkdb

import (
	"strconv"

	"go.uber.org/zap"
)

// Rule compares two tree values at a given path context, reporting at most one
// mismatch at this level of the tree. Rules recurse by calling c.Compare
type Rule func(c *Comparator, base, candidate interface{}, context string) bool

// CompareConfig are any possible configuration parameters for comparing
// snapshots
type CompareConfig struct {
	// KeyPath is the lookup path to an entry's natural key
	KeyPath []string
	// NameField is the mapping field used to label sequence elements in
	// path contexts
	NameField string
	// PublicKey is the reserved database key marking a public snapshot
	PublicKey string
	// If true a failed entry comparison makes its whole entry list fail.
	// entries are still all compared
	Strict bool
	// Reporter receives mismatches as they're found. nil discards them
	Reporter Reporter
	// Provide a non-nil stats pointer & the comparator will populate it with
	// data from the comparison process
	Stats *Stats
	// Logger gets debug output about comparison progress
	Logger *zap.Logger

	classifiers []Classifier
	rules       map[Kind]Rule
}

// CompareOption is a function that adjusts a config, zero or more
// CompareOptions can be passed to New
type CompareOption func(cfg *CompareConfig)

// OptionSetStats will set the passed-in stats pointer when comparing
func OptionSetStats(st *Stats) CompareOption {
	return func(cfg *CompareConfig) {
		cfg.Stats = st
	}
}

// OptionReporter sets where mismatches are sent
func OptionReporter(r Reporter) CompareOption {
	return func(cfg *CompareConfig) {
		cfg.Reporter = r
	}
}

// OptionLogger sets the logger for debug output
func OptionLogger(l *zap.Logger) CompareOption {
	return func(cfg *CompareConfig) {
		cfg.Logger = l
	}
}

// OptionKeyPath overrides the natural key lookup path of entries
func OptionKeyPath(path ...string) CompareOption {
	return func(cfg *CompareConfig) {
		cfg.KeyPath = path
	}
}

// OptionNameField overrides the field used to label sequence elements
func OptionNameField(field string) CompareOption {
	return func(cfg *CompareConfig) {
		cfg.NameField = field
	}
}

// OptionStrict makes failed entry comparisons fail their entry list
func OptionStrict(strict bool) CompareOption {
	return func(cfg *CompareConfig) {
		cfg.Strict = strict
	}
}

// OptionClassifier registers a classifier that's consulted before the
// built-in kinds. Use with OptionRule to add support for a new kind of value
func OptionClassifier(cls Classifier) CompareOption {
	return func(cfg *CompareConfig) {
		cfg.classifiers = append(cfg.classifiers, cls)
	}
}

// OptionRule registers the rule for comparing values of a kind, replacing
// any existing rule for that kind
func OptionRule(k Kind, r Rule) CompareOption {
	return func(cfg *CompareConfig) {
		cfg.rules[k] = r
	}
}

// DefaultKeyPath is where an SDKDB entry keeps its install name
var DefaultKeyPath = []string{"binaryInfo", "installName"}

// Comparator walks two snapshot trees in lockstep, dispatching on the kind of
// the candidate value. A Comparator holds no per-comparison state beyond the
// configured Stats & Reporter
type Comparator struct {
	cfg *CompareConfig
}

// New creates a Comparator, applying any provided options
func New(opts ...CompareOption) *Comparator {
	cfg := &CompareConfig{
		KeyPath:   DefaultKeyPath,
		NameField: "name",
		PublicKey: "public",
		Logger:    zap.NewNop(),
		rules: map[Kind]Rule{
			KindMapping:  compareMapping,
			KindSequence: compareSequence,
		},
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Comparator{cfg: cfg}
}

// Compare reports whether candidate matches base, emitting a mismatch for the
// first divergence found. Only keys & elements present in both values are
// inspected: extra mapping keys and trailing sequence elements are ignored
func (c *Comparator) Compare(base, candidate interface{}, context string) bool {
	if c.cfg.Stats != nil {
		c.cfg.Stats.Nodes++
	}
	if rule, ok := c.cfg.rules[c.kindOf(candidate)]; ok {
		return rule(c, base, candidate, context)
	}
	return compareScalar(c, base, candidate, context)
}

// kindOf classifies v, consulting registered classifiers first
func (c *Comparator) kindOf(v interface{}) Kind {
	for _, cls := range c.cfg.classifiers {
		if k, ok := cls(v); ok {
			return k
		}
	}
	return KindOf(v)
}

// report sends a mismatch to the configured reporter
func (c *Comparator) report(m *Mismatch) {
	if c.cfg.Reporter != nil {
		c.cfg.Reporter.Report(m)
	}
}

// NotEqual reports a value mismatch at context & returns false. It's exported
// for use by custom rules
func (c *Comparator) NotEqual(base, candidate interface{}, context string) bool {
	c.report(&Mismatch{Type: DTNotEqual, Path: context, Base: base, Candidate: candidate})
	return false
}

// compareScalar is the default rule, using deep value equality
func compareScalar(c *Comparator, base, candidate interface{}, context string) bool {
	if !scalarEqual(base, candidate) {
		return c.NotEqual(base, candidate, context)
	}
	return true
}

func compareMapping(c *Comparator, base, candidate interface{}, context string) bool {
	cand, ok := candidate.(map[string]interface{})
	if !ok {
		return compareScalar(c, base, candidate, context)
	}
	b, ok := base.(map[string]interface{})
	if !ok {
		return c.NotEqual(base, candidate, context)
	}

	for _, key := range sortedKeys(b) {
		cv, ok := cand[key]
		if !ok {
			c.report(&Mismatch{Type: DTMissingKey, Path: context, Key: key})
			return false
		}
		if !c.Compare(b[key], cv, context+"["+key+"]") {
			return false
		}
	}
	return true
}

func compareSequence(c *Comparator, base, candidate interface{}, context string) bool {
	cand, ok := candidate.([]interface{})
	if !ok {
		return compareScalar(c, base, candidate, context)
	}
	b, ok := base.([]interface{})
	if !ok {
		return c.NotEqual(base, candidate, context)
	}

	n := len(b)
	if len(cand) < n {
		n = len(cand)
	}
	for i := 0; i < n; i++ {
		if !c.Compare(b[i], cand[i], context+"["+c.label(cand[i], i)+"]") {
			return false
		}
	}
	return true
}

// label names a sequence element in a path context, preferring the element's
// name field over its index
func (c *Comparator) label(v interface{}, i int) string {
	if m, ok := v.(map[string]interface{}); ok {
		if name, ok := m[c.cfg.NameField]; ok {
			return FormatValue(name)
		}
	}
	return strconv.Itoa(i)
}
