// Package cli provides CLI output formatting for collectsearch.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/weboliver/collectsearch/internal/models"
	"github.com/weboliver/collectsearch/pkg/utils"
)

// OutputFormat is the format for suggestion output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
	// OutputCompact is one suggestion per line.
	OutputCompact OutputFormat = "compact"
)

// WriteSuggestions writes the ranked suggestion list to w in the given
// format. Use OutputJSON for parseable output consumable by other apps.
func WriteSuggestions(w io.Writer, query string, suggestions []models.Suggestion, format OutputFormat) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(suggestions)
	case OutputCompact:
		for _, s := range suggestions {
			fmt.Fprintf(w, "%.1f\t%s\t%s\n", s.Score(), s.Kind, utils.Truncate(s.DisplayName(), 60))
		}
		return nil
	default:
		writeSuggestionsText(w, query, suggestions)
		return nil
	}
}

func writeSuggestionsText(w io.Writer, query string, suggestions []models.Suggestion) {
	fmt.Fprintf(w, "\nFound %d suggestions for %q\n\n", len(suggestions), query)
	for i, s := range suggestions {
		writeOneSuggestion(w, i+1, s)
	}
}

func writeOneSuggestion(w io.Writer, rank int, s models.Suggestion) {
	marker := " "
	if s.ExactMatch() {
		marker = "*"
	}
	fmt.Fprintf(w, "%s %2d. [%s] %s (score %.1f)\n", marker, rank, s.Kind, s.DisplayName(), s.Score())
	switch s.Kind {
	case models.KindCard:
		if s.Card.SetName != "" {
			fmt.Fprintf(w, "       %s", s.Card.SetName)
			if s.Card.SetYear != 0 {
				fmt.Fprintf(w, " (%d)", s.Card.SetYear)
			}
			fmt.Fprintln(w)
		}
		if s.Card.PokemonNumber != "" {
			fmt.Fprintf(w, "       #%s\n", s.Card.PokemonNumber)
		}
	case models.KindProduct:
		fmt.Fprintf(w, "       %s", s.Product.Category)
		if s.Product.Price > 0 {
			fmt.Fprintf(w, " | $%.2f", s.Product.Price)
		}
		if !s.Product.Available {
			fmt.Fprintf(w, " | out of stock")
		}
		fmt.Fprintln(w)
	case models.KindCategory:
		fmt.Fprintf(w, "       %d products\n", s.Category.ProductCount)
	case models.KindSetProduct:
		fmt.Fprintf(w, "       %d products\n", s.SetProduct.ProductCount)
	}
}

// PrintSuggestions prints suggestions to stdout in text format.
func PrintSuggestions(query string, suggestions []models.Suggestion) {
	_ = WriteSuggestions(os.Stdout, query, suggestions, OutputText)
}
