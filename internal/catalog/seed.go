package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/weboliver/collectsearch/internal/models"
)

// SeedSet is one set row in a seed file.
type SeedSet struct {
	Name string `json:"name"`
	Year int    `json:"year,omitempty"`
}

// SeedData is the JSON shape consumed by the seed subcommand.
type SeedData struct {
	Sets        []SeedSet                     `json:"sets,omitempty"`
	Cards       []models.CardSuggestion       `json:"cards,omitempty"`
	SetProducts []models.SetProductSuggestion `json:"set_products,omitempty"`
	Products    []models.ProductSuggestion    `json:"products,omitempty"`
}

// LoadSeedFile reads and parses a seed JSON file.
func LoadSeedFile(path string) (*SeedData, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	var seed SeedData
	if err := json.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}
	return &seed, nil
}

// Seed upserts all rows in data. Sets are written first so card foreign
// keys resolve.
func (c *SQLiteCatalog) Seed(ctx context.Context, data *SeedData) error {
	for _, s := range data.Sets {
		if err := c.AddSet(ctx, s.Name, s.Year); err != nil {
			return fmt.Errorf("seed set %q: %w", s.Name, err)
		}
	}
	for _, card := range data.Cards {
		if err := c.AddCard(ctx, card); err != nil {
			return fmt.Errorf("seed card %q: %w", card.ID, err)
		}
	}
	for _, sp := range data.SetProducts {
		if err := c.AddSetProduct(ctx, sp); err != nil {
			return fmt.Errorf("seed set product %q: %w", sp.ID, err)
		}
	}
	for _, p := range data.Products {
		if err := c.AddProduct(ctx, p); err != nil {
			return fmt.Errorf("seed product %q: %w", p.ID, err)
		}
	}
	return nil
}
