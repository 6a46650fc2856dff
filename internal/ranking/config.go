// Package ranking provides client-side relevance scoring for catalog suggestions.
package ranking

// Config holds the additive scoring constants. Contributions add rather than
// multiply so a score can be read as a sum of named bonuses.
type Config struct {
	// ExactMatchScore is awarded when the display text equals the query
	// (case-insensitive).
	ExactMatchScore float64
	// PrefixScore is awarded when the display text starts with the query.
	PrefixScore float64
	// SubstringScore is awarded when the display text contains the query.
	SubstringScore float64
	// WordOverlapMax scales the proportion of query words found inside
	// some word of the display text.
	WordOverlapMax float64
	// LengthWindow bounds the length-similarity bonus:
	// max(0, LengthWindow - |len(text) - len(query)|).
	LengthWindow float64
	// YearBonus is awarded to sets carrying a known release year.
	YearBonus float64
	// AvailabilityBonus is awarded to products in stock.
	AvailabilityBonus float64
	// ParentContextBonus is awarded to results matching the currently
	// selected parent set or category.
	ParentContextBonus float64
}

// DefaultConfig returns the default scoring constants.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills in zero values with the default constants.
func (c *Config) ApplyDefaults() {
	if c.ExactMatchScore == 0 {
		c.ExactMatchScore = 100
	}
	if c.PrefixScore == 0 {
		c.PrefixScore = 50
	}
	if c.SubstringScore == 0 {
		c.SubstringScore = 25
	}
	if c.WordOverlapMax == 0 {
		c.WordOverlapMax = 30
	}
	if c.LengthWindow == 0 {
		c.LengthWindow = 20
	}
	if c.YearBonus == 0 {
		c.YearBonus = 5
	}
	if c.AvailabilityBonus == 0 {
		c.AvailabilityBonus = 10
	}
	if c.ParentContextBonus == 0 {
		c.ParentContextBonus = 15
	}
}
