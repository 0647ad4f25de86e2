package def

import (
	"fmt"
	"strings"
)

// Config controls how a DEF record is interpreted.
type Config struct {
	// Scale divides every coordinate and length. Zero means use the
	// record's UNITS DISTANCE MICRONS value, or 1 when it has none.
	Scale float64

	// PlacementKeywords introduce a placed location in COMPONENTS and PINS
	// (default: PLACED, FIXED, COVER).
	PlacementKeywords []string

	// SkipKeywords are net clauses that carry no geometry and are skipped
	// quietly (default: SOURCE, USE, WEIGHT, ORIGINAL, PATTERN, ESTCAP,
	// NONDEFAULTRULE, PROPERTY). Other unknown clauses are skipped too,
	// with a debug message.
	SkipKeywords []string

	placement map[string]bool
	skip      map[string]bool
}

// DefaultConfig returns the configuration used for standard DEF 5.x files.
func DefaultConfig() *Config {
	return &Config{
		PlacementKeywords: []string{"PLACED", "FIXED", "COVER"},
		SkipKeywords: []string{
			"SOURCE", "USE", "WEIGHT", "ORIGINAL", "PATTERN",
			"ESTCAP", "NONDEFAULTRULE", "PROPERTY",
		},
	}
}

// Validate checks the configuration and builds the keyword lookups.
func (c *Config) Validate() error {
	if c.Scale < 0 {
		return fmt.Errorf("scale must not be negative, got %g", c.Scale)
	}
	if len(c.PlacementKeywords) == 0 {
		return fmt.Errorf("at least one placement keyword is required")
	}

	c.placement = keywordSet(c.PlacementKeywords)
	c.skip = keywordSet(c.SkipKeywords)
	return nil
}

func keywordSet(words []string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[strings.ToUpper(w)] = true
	}
	return set
}

func (c *Config) isPlacement(word string) bool {
	return c.placement[strings.ToUpper(word)]
}

func (c *Config) isSkip(word string) bool {
	return c.skip[strings.ToUpper(word)]
}
