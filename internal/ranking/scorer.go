package ranking

import (
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/weboliver/collectsearch/internal/models"
)

// ParentContext carries the currently selected parent entities; results
// matching it receive the parent-context bonus.
type ParentContext struct {
	SetName  string
	Category string
}

// Scorer ranks suggestions against a query string. Scoring is pure: the
// same inputs always yield the same score.
type Scorer struct {
	config *Config
}

// NewScorer creates a Scorer with the given configuration. A nil config
// uses the defaults.
func NewScorer(config *Config) *Scorer {
	if config == nil {
		config = DefaultConfig()
	}
	config.ApplyDefaults()
	return &Scorer{config: config}
}

// Score computes the additive relevance score of one suggestion against a
// query. An empty query scores zero for text heuristics but still collects
// entity bonuses, which keeps wildcard browse results ordered sensibly.
func (s *Scorer) Score(sg models.Suggestion, query string, pctx ParentContext) float64 {
	text := strings.ToLower(strings.TrimSpace(sg.DisplayName()))
	q := strings.ToLower(strings.TrimSpace(query))

	score := 0.0
	if q != "" && text != "" {
		if text == q {
			score += s.config.ExactMatchScore
		}
		if strings.HasPrefix(text, q) {
			score += s.config.PrefixScore
		}
		if strings.Contains(text, q) {
			score += s.config.SubstringScore
		}
		score += s.wordOverlap(text, q)
		// Rune counts, not bytes: "Pokémon" is 7 characters long.
		lenDiff := utf8.RuneCountInString(text) - utf8.RuneCountInString(q)
		score += math.Max(0, s.config.LengthWindow-math.Abs(float64(lenDiff)))
	}
	score += s.entityBonus(sg, pctx)
	return score
}

// wordOverlap scales the proportion of query words individually found as a
// substring of some word of the display text.
func (s *Scorer) wordOverlap(text, query string) float64 {
	queryWords := strings.Fields(query)
	if len(queryWords) == 0 {
		return 0
	}
	textWords := strings.Fields(text)

	matched := 0
	for _, qw := range queryWords {
		for _, tw := range textWords {
			if strings.Contains(tw, qw) {
				matched++
				break
			}
		}
	}
	return s.config.WordOverlapMax * float64(matched) / float64(len(queryWords))
}

func (s *Scorer) entityBonus(sg models.Suggestion, pctx ParentContext) float64 {
	bonus := 0.0
	switch sg.Kind {
	case models.KindSet:
		if sg.Set != nil && sg.Set.Year != 0 {
			bonus += s.config.YearBonus
		}
	case models.KindCard:
		if sg.Card != nil && pctx.SetName != "" && strings.EqualFold(sg.Card.SetName, pctx.SetName) {
			bonus += s.config.ParentContextBonus
		}
	case models.KindProduct:
		if sg.Product != nil {
			if sg.Product.Available {
				bonus += s.config.AvailabilityBonus
			}
			if pctx.SetName != "" && strings.EqualFold(sg.Product.SetName, pctx.SetName) {
				bonus += s.config.ParentContextBonus
			}
			if pctx.Category != "" && strings.EqualFold(sg.Product.Category, pctx.Category) {
				bonus += s.config.ParentContextBonus
			}
		}
	}
	return bonus
}

// Rank scores every suggestion in place and sorts: exact matches first, then
// descending score, then stable input order (the backend's ranking is the
// final tie-break).
func (s *Scorer) Rank(results []models.Suggestion, query string, pctx ParentContext) []models.Suggestion {
	q := strings.ToLower(strings.TrimSpace(query))
	for i := range results {
		score := s.Score(results[i], query, pctx)
		results[i].SetScore(score)
		results[i].MarkExactMatch(isExact(results[i], q))
	}

	sort.SliceStable(results, func(i, j int) bool {
		ei := isExact(results[i], q)
		ej := isExact(results[j], q)
		if ei != ej {
			return ei
		}
		return results[i].Score() > results[j].Score()
	})
	return results
}

// Truncate caps the result list at max, keeping order.
func Truncate(results []models.Suggestion, max int) []models.Suggestion {
	if max > 0 && len(results) > max {
		return results[:max]
	}
	return results
}

func isExact(sg models.Suggestion, lowerQuery string) bool {
	if lowerQuery == "" {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(sg.DisplayName()), lowerQuery)
}
