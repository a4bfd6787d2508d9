package hh

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// SolverChoice selects which DomainSolver implementation a Config
// wires up: the recursive solver of §4.4 (simple, terminates on
// acyclic/coinductive-only recursion) or the SLG tabling engine of
// §4.5 (handles arbitrary recursion and streams multiple answers, at
// the cost of materializing tables).
type SolverChoice int

const (
	SolverRecursive SolverChoice = iota
	SolverSLG
)

func (c SolverChoice) String() string {
	if c == SolverSLG {
		return "slg"
	}
	return "recursive"
}

func (c SolverChoice) MarshalYAML() (interface{}, error) {
	return c.String(), nil
}

func (c *SolverChoice) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	switch s {
	case "recursive", "":
		*c = SolverRecursive
	case "slg":
		*c = SolverSLG
	default:
		return fmt.Errorf("hh: unknown solver choice %q", s)
	}
	return nil
}

// Config bundles the knobs §5 and §6 reserve for the client: which
// engine to run, the termination backstops that bound an otherwise
// open-ended search, and an optional cross-query cache handle.
type Config struct {
	Engine SolverChoice `yaml:"engine"`

	// OverflowDepth bounds the recursive solver's stack depth and the
	// number of fixpoint iterations it runs per goal (§4.4); exceeding
	// either yields Ambiguous(Unknown) rather than looping forever. The
	// SLG engine uses it as the number of evaluation sweeps it runs per
	// table, keeping whatever answers those sweeps produced.
	OverflowDepth int `yaml:"overflow_depth"`

	// TruncationSize bounds the rendered size of a type the SLG engine
	// (§4.5) keeps in an answer substitution: a longer type is replaced
	// with ErrorTy and the answer is marked approximate. No CannotProve
	// delayed literal is recorded, and goals are not truncated.
	TruncationSize int `yaml:"truncation_size"`

	// MaxFixpointIterations is filled in by DefaultConfig and
	// LoadConfig, but Fulfillment does not read it: its
	// post-simplification fixpoint loop (§4.3) is always bounded by the
	// package constant maxFixpointIterations.
	MaxFixpointIterations int `yaml:"max_fixpoint_iterations"`

	cache *AnswerCache
}

// DefaultConfig returns the configuration a bare client gets if it
// never calls LoadConfig: the recursive engine, generous but finite
// overflow and truncation bounds, and no shared cache.
func DefaultConfig() Config {
	return Config{
		Engine:                SolverRecursive,
		OverflowDepth:         100,
		TruncationSize:        64,
		MaxFixpointIterations: maxFixpointIterations,
	}
}

// LoadConfig parses a YAML document (as produced by, e.g., a CLI
// flag pointing at a config file) into a Config, filling in
// DefaultConfig's values for anything left unspecified.
func LoadConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("hh: parsing config: %w", err)
	}
	if cfg.OverflowDepth <= 0 {
		cfg.OverflowDepth = DefaultConfig().OverflowDepth
	}
	if cfg.TruncationSize <= 0 {
		cfg.TruncationSize = DefaultConfig().TruncationSize
	}
	if cfg.MaxFixpointIterations <= 0 {
		cfg.MaxFixpointIterations = maxFixpointIterations
	}
	return cfg, nil
}

// WithCache attaches a shared AnswerCache, returning the updated
// Config for chaining.
func (c Config) WithCache(cache *AnswerCache) Config {
	c.cache = cache
	return c
}

// Cache returns the attached AnswerCache, or nil if none was set.
func (c Config) Cache() *AnswerCache { return c.cache }
