// Package models defines core data structures for catalog suggestions and queries.
package models

// Kind identifies which catalog entity a suggestion refers to.
type Kind int

const (
	// KindSet is a card set (e.g. "Base Set").
	KindSet Kind = iota
	// KindCard is an individual card within a set.
	KindCard
	// KindProduct is a sealed product (booster box, ETB, ...).
	KindProduct
	// KindCategory is a product category.
	KindCategory
	// KindSetProduct is the set-level grouping for sealed products.
	KindSetProduct
)

// String returns a string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindSet:
		return "set"
	case KindCard:
		return "card"
	case KindProduct:
		return "product"
	case KindCategory:
		return "category"
	case KindSetProduct:
		return "set_product"
	default:
		return "unknown"
	}
}

// SetSuggestion is a candidate card set.
type SetSuggestion struct {
	SetName      string  `json:"set_name"`
	Year         int     `json:"year,omitempty"`
	Score        float64 `json:"score"`
	Source       string  `json:"source,omitempty"` // "cards" or "products"
	IsExactMatch bool    `json:"is_exact_match"`
}

// CardSuggestion is a candidate card. SetName and SetYear carry the parent
// set reference used for backfill when the card is selected first.
type CardSuggestion struct {
	ID             string  `json:"id"`
	CardName       string  `json:"card_name"`
	BaseName       string  `json:"base_name"`
	Variety        string  `json:"variety,omitempty"`
	PokemonNumber  string  `json:"pokemon_number,omitempty"`
	SetName        string  `json:"set_name,omitempty"`
	SetYear        int     `json:"set_year,omitempty"`
	RelevanceScore float64 `json:"relevance_score"`
}

// ProductSuggestion is a candidate sealed product.
type ProductSuggestion struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	SetName        string  `json:"set_name,omitempty"`
	Category       string  `json:"category"`
	Available      bool    `json:"available"`
	Price          float64 `json:"price"`
	RelevanceScore float64 `json:"relevance_score"`
}

// CategorySuggestion is a candidate product category.
type CategorySuggestion struct {
	Category     string `json:"category"`
	ProductCount int    `json:"product_count"`
	IsExactMatch bool   `json:"is_exact_match"`
}

// SetProductSuggestion is a candidate set-level product grouping.
type SetProductSuggestion struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Year           int     `json:"year,omitempty"`
	ProductCount   int     `json:"product_count"`
	RelevanceScore float64 `json:"relevance_score"`
}

// Suggestion is a tagged union over the five entity kinds. Exactly one
// payload pointer is non-nil and it must agree with Kind.
type Suggestion struct {
	Kind       Kind                  `json:"kind"`
	Set        *SetSuggestion        `json:"set,omitempty"`
	Card       *CardSuggestion       `json:"card,omitempty"`
	Product    *ProductSuggestion    `json:"product,omitempty"`
	Category   *CategorySuggestion   `json:"category,omitempty"`
	SetProduct *SetProductSuggestion `json:"set_product,omitempty"`
}

// NewSet wraps a SetSuggestion in the union.
func NewSet(s SetSuggestion) Suggestion {
	return Suggestion{Kind: KindSet, Set: &s}
}

// NewCard wraps a CardSuggestion in the union.
func NewCard(c CardSuggestion) Suggestion {
	return Suggestion{Kind: KindCard, Card: &c}
}

// NewProduct wraps a ProductSuggestion in the union.
func NewProduct(p ProductSuggestion) Suggestion {
	return Suggestion{Kind: KindProduct, Product: &p}
}

// NewCategory wraps a CategorySuggestion in the union.
func NewCategory(c CategorySuggestion) Suggestion {
	return Suggestion{Kind: KindCategory, Category: &c}
}

// NewSetProduct wraps a SetProductSuggestion in the union.
func NewSetProduct(sp SetProductSuggestion) Suggestion {
	return Suggestion{Kind: KindSetProduct, SetProduct: &sp}
}

// Valid reports whether exactly the payload matching Kind is present.
func (s Suggestion) Valid() bool {
	switch s.Kind {
	case KindSet:
		return s.Set != nil && s.Card == nil && s.Product == nil && s.Category == nil && s.SetProduct == nil
	case KindCard:
		return s.Card != nil && s.Set == nil && s.Product == nil && s.Category == nil && s.SetProduct == nil
	case KindProduct:
		return s.Product != nil && s.Set == nil && s.Card == nil && s.Category == nil && s.SetProduct == nil
	case KindCategory:
		return s.Category != nil && s.Set == nil && s.Card == nil && s.Product == nil && s.SetProduct == nil
	case KindSetProduct:
		return s.SetProduct != nil && s.Set == nil && s.Card == nil && s.Product == nil && s.Category == nil
	default:
		return false
	}
}

// DisplayName returns the primary display text for the suggestion.
func (s Suggestion) DisplayName() string {
	switch s.Kind {
	case KindSet:
		if s.Set != nil {
			return s.Set.SetName
		}
	case KindCard:
		if s.Card != nil {
			return s.Card.CardName
		}
	case KindProduct:
		if s.Product != nil {
			return s.Product.Name
		}
	case KindCategory:
		if s.Category != nil {
			return s.Category.Category
		}
	case KindSetProduct:
		if s.SetProduct != nil {
			return s.SetProduct.Name
		}
	}
	return ""
}

// Key returns the natural identity key of the suggestion: set name for sets,
// id for cards/products/set-products, category name for categories. Identity
// is never positional.
func (s Suggestion) Key() string {
	switch s.Kind {
	case KindSet:
		if s.Set != nil {
			return s.Set.SetName
		}
	case KindCard:
		if s.Card != nil {
			return s.Card.ID
		}
	case KindProduct:
		if s.Product != nil {
			return s.Product.ID
		}
	case KindCategory:
		if s.Category != nil {
			return s.Category.Category
		}
	case KindSetProduct:
		if s.SetProduct != nil {
			return s.SetProduct.ID
		}
	}
	return ""
}

// Score returns the relevance score stored on the payload.
func (s Suggestion) Score() float64 {
	switch s.Kind {
	case KindSet:
		if s.Set != nil {
			return s.Set.Score
		}
	case KindCard:
		if s.Card != nil {
			return s.Card.RelevanceScore
		}
	case KindProduct:
		if s.Product != nil {
			return s.Product.RelevanceScore
		}
	case KindCategory:
		if s.Category != nil {
			if s.Category.IsExactMatch {
				return 1
			}
			return 0
		}
	case KindSetProduct:
		if s.SetProduct != nil {
			return s.SetProduct.RelevanceScore
		}
	}
	return 0
}

// SetScore stores a relevance score on the payload. Category suggestions
// have no score field; their exact-match flag is set instead when score > 0.
func (s *Suggestion) SetScore(score float64) {
	switch s.Kind {
	case KindSet:
		if s.Set != nil {
			s.Set.Score = score
		}
	case KindCard:
		if s.Card != nil {
			s.Card.RelevanceScore = score
		}
	case KindProduct:
		if s.Product != nil {
			s.Product.RelevanceScore = score
		}
	case KindSetProduct:
		if s.SetProduct != nil {
			s.SetProduct.RelevanceScore = score
		}
	}
}

// ExactMatch reports whether the suggestion was flagged as an exact match.
func (s Suggestion) ExactMatch() bool {
	switch s.Kind {
	case KindSet:
		return s.Set != nil && s.Set.IsExactMatch
	case KindCategory:
		return s.Category != nil && s.Category.IsExactMatch
	default:
		return false
	}
}

// MarkExactMatch sets the exact-match flag on payloads that carry one.
func (s *Suggestion) MarkExactMatch(exact bool) {
	switch s.Kind {
	case KindSet:
		if s.Set != nil {
			s.Set.IsExactMatch = exact
		}
	case KindCategory:
		if s.Category != nil {
			s.Category.IsExactMatch = exact
		}
	}
}

// Clone returns a deep copy; mutating the copy's payload never affects the
// original.
func (s Suggestion) Clone() Suggestion {
	out := Suggestion{Kind: s.Kind}
	if s.Set != nil {
		v := *s.Set
		out.Set = &v
	}
	if s.Card != nil {
		v := *s.Card
		out.Card = &v
	}
	if s.Product != nil {
		v := *s.Product
		out.Product = &v
	}
	if s.Category != nil {
		v := *s.Category
		out.Category = &v
	}
	if s.SetProduct != nil {
		v := *s.SetProduct
		out.SetProduct = &v
	}
	return out
}

// ParentRef describes the parent entity a child suggestion belongs to.
type ParentRef struct {
	Kind Kind
	Name string
	Year int
	ID   string
}

// ParentRef returns the embedded parent linkage of a child suggestion, or
// nil when the suggestion carries none. A card implies its set; a product
// implies its set-product grouping (by set name) and category.
func (s Suggestion) ParentRef() *ParentRef {
	switch s.Kind {
	case KindCard:
		if s.Card != nil && s.Card.SetName != "" {
			return &ParentRef{Kind: KindSet, Name: s.Card.SetName, Year: s.Card.SetYear}
		}
	case KindProduct:
		if s.Product != nil && s.Product.SetName != "" {
			return &ParentRef{Kind: KindSetProduct, Name: s.Product.SetName}
		}
	}
	return nil
}
