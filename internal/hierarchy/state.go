// Package hierarchy tracks which search field is active, the committed
// parent selections, and the cascade rules between parent and child fields.
//
// Two parent/child relationships exist: set -> card (the card_product
// field), and set_product/category -> product. All transitions are
// synchronous and perform no I/O.
package hierarchy

import (
	"sync"

	"github.com/weboliver/collectsearch/internal/catalog"
	"github.com/weboliver/collectsearch/internal/models"
)

// State is a snapshot of the hierarchical search state.
type State struct {
	ActiveField models.FieldType `json:"active_field"`

	SetName         string `json:"set_name"`
	CategoryName    string `json:"category_name"`
	CardProductName string `json:"card_product_name"`
	SetProductName  string `json:"set_product_name"`
	ProductName     string `json:"product_name"`

	SelectedSet        *models.Suggestion `json:"selected_set,omitempty"`
	SelectedCategory   *models.Suggestion `json:"selected_category,omitempty"`
	SelectedSetProduct *models.Suggestion `json:"selected_set_product,omitempty"`
	// SelectedChild holds the committed card or product with its autofill
	// payload (variety, pokemon number, parent references).
	SelectedChild *models.Suggestion `json:"selected_child,omitempty"`
}

// Machine owns the mutable hierarchical state. At most one field is active
// at any time; typing into a parent field invalidates its committed
// selection and cascades to the dependent child field.
type Machine struct {
	mu    sync.Mutex
	state State
}

// NewMachine creates a machine with no active field and no selections.
func NewMachine() *Machine {
	return &Machine{}
}

// Snapshot returns a deep copy of the current state.
func (m *Machine) Snapshot() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneState(m.state)
}

// Focus makes field the single active field. Suggestions for any previously
// active field are implicitly stale; the engine drops them on publish.
func (m *Machine) Focus(field models.FieldType) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.ActiveField = field
}

// Blur clears the active field (closing any open dropdown).
func (m *Machine) Blur() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.ActiveField = models.FieldNone
}

// Type records new text for field and makes it active. When a parent
// field's text diverges from its committed selection, the selection is
// cleared and the dependent child field is reset; typing invalidates the
// prior committed choice.
func (m *Machine) Type(field models.FieldType, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state.ActiveField = field
	switch field {
	case models.FieldSet:
		m.state.SetName = value
		if m.state.SelectedSet != nil && m.state.SelectedSet.DisplayName() != value {
			m.state.SelectedSet = nil
			m.clearCardProductLocked()
		}
	case models.FieldCategory:
		m.state.CategoryName = value
		if m.state.SelectedCategory != nil && m.state.SelectedCategory.DisplayName() != value {
			m.state.SelectedCategory = nil
			m.clearProductLocked()
		}
	case models.FieldSetProduct:
		m.state.SetProductName = value
		if m.state.SelectedSetProduct != nil && m.state.SelectedSetProduct.DisplayName() != value {
			m.state.SelectedSetProduct = nil
			m.clearProductLocked()
		}
	case models.FieldCardProduct:
		m.state.CardProductName = value
		if m.state.SelectedChild != nil && m.state.SelectedChild.DisplayName() != value {
			m.state.SelectedChild = nil
		}
	case models.FieldProduct:
		m.state.ProductName = value
		if m.state.SelectedChild != nil && m.state.SelectedChild.DisplayName() != value {
			m.state.SelectedChild = nil
		}
	}
}

// SelectParent commits a parent suggestion: the selection is stored, the
// parent field text becomes the display name, the dropdown closes, and the
// dependent child field is reset so its next search re-queries under the
// new parent filter.
func (m *Machine) SelectParent(result models.Suggestion) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r := result.Clone()
	switch result.Kind {
	case models.KindSet:
		m.state.SelectedSet = &r
		m.state.SetName = result.DisplayName()
		m.clearCardProductLocked()
	case models.KindCategory:
		m.state.SelectedCategory = &r
		m.state.CategoryName = result.DisplayName()
		m.clearProductLocked()
	case models.KindSetProduct:
		m.state.SelectedSetProduct = &r
		m.state.SetProductName = result.DisplayName()
		m.clearProductLocked()
	default:
		return
	}
	m.state.ActiveField = models.FieldNone
}

// SelectChild commits a card or product suggestion. The child field text
// becomes the display name and the full payload is stored for autofill.
// When no parent is selected yet, the parent is back-filled from the
// child's embedded parent reference; an explicitly selected parent is
// never overwritten.
func (m *Machine) SelectChild(result models.Suggestion) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r := result.Clone()
	switch result.Kind {
	case models.KindCard:
		m.state.SelectedChild = &r
		m.state.CardProductName = result.DisplayName()
		if m.state.SelectedSet == nil {
			if ref := result.ParentRef(); ref != nil {
				set := models.NewSet(models.SetSuggestion{SetName: ref.Name, Year: ref.Year, Source: "cards"})
				m.state.SelectedSet = &set
				m.state.SetName = ref.Name
			}
		}
	case models.KindProduct:
		m.state.SelectedChild = &r
		m.state.ProductName = result.DisplayName()
		if m.state.SelectedSetProduct == nil {
			if ref := result.ParentRef(); ref != nil {
				sp := models.NewSetProduct(models.SetProductSuggestion{Name: ref.Name, ID: ref.ID})
				m.state.SelectedSetProduct = &sp
				m.state.SetProductName = ref.Name
			}
		}
		if m.state.SelectedCategory == nil && result.Product != nil && result.Product.Category != "" {
			cat := models.NewCategory(models.CategorySuggestion{Category: result.Product.Category})
			m.state.SelectedCategory = &cat
			m.state.CategoryName = result.Product.Category
		}
	default:
		return
	}
	m.state.ActiveField = models.FieldNone
}

// ClearParent resets a parent field and cascades to its dependent child:
// removing the parent invalidates the filter any child search was using.
func (m *Machine) ClearParent(field models.FieldType) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch field {
	case models.FieldSet:
		m.state.SelectedSet = nil
		m.state.SetName = ""
		m.clearCardProductLocked()
	case models.FieldCategory:
		m.state.SelectedCategory = nil
		m.state.CategoryName = ""
		m.clearProductLocked()
	case models.FieldSetProduct:
		m.state.SelectedSetProduct = nil
		m.state.SetProductName = ""
		m.clearProductLocked()
	}
}

// ClearChild resets a child field's text and committed selection without
// touching the parent.
func (m *Machine) ClearChild(field models.FieldType) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch field {
	case models.FieldCardProduct:
		m.clearCardProductLocked()
	case models.FieldProduct:
		m.clearProductLocked()
	}
}

// Clear resets everything: texts, selections, active field.
func (m *Machine) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = State{}
}

// Restore applies a parent selection and then a child selection, in that
// order. Deep links carrying both a parent and a child therefore keep the
// explicit parent: the child's embedded reference never overwrites it.
func (m *Machine) Restore(parent, child *models.Suggestion) {
	if parent != nil {
		m.SelectParent(*parent)
	}
	if child != nil {
		m.SelectChild(*child)
	}
}

// Filters derives the catalog filter context for a child field from the
// current parent selections.
func (m *Machine) Filters(field models.FieldType) catalog.Filters {
	m.mu.Lock()
	defer m.mu.Unlock()

	var f catalog.Filters
	switch field {
	case models.FieldCardProduct:
		if m.state.SelectedSet != nil {
			f.SetName = m.state.SelectedSet.DisplayName()
		}
	case models.FieldProduct:
		if m.state.SelectedSetProduct != nil {
			f.SetName = m.state.SelectedSetProduct.DisplayName()
		}
		if m.state.SelectedCategory != nil {
			f.Category = m.state.SelectedCategory.DisplayName()
		}
	}
	return f
}

// HasParent reports whether the child field has a committed parent filter,
// which turns an empty child query into a wildcard browse.
func (m *Machine) HasParent(field models.FieldType) bool {
	f := m.Filters(field)
	return f.SetName != "" || f.Category != ""
}

// Text returns the current text of a field.
func (m *Machine) Text(field models.FieldType) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch field {
	case models.FieldSet:
		return m.state.SetName
	case models.FieldCategory:
		return m.state.CategoryName
	case models.FieldCardProduct:
		return m.state.CardProductName
	case models.FieldSetProduct:
		return m.state.SetProductName
	case models.FieldProduct:
		return m.state.ProductName
	default:
		return ""
	}
}

// ActiveField returns the currently active field.
func (m *Machine) ActiveField() models.FieldType {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.ActiveField
}

func (m *Machine) clearCardProductLocked() {
	m.state.CardProductName = ""
	if m.state.SelectedChild != nil && m.state.SelectedChild.Kind == models.KindCard {
		m.state.SelectedChild = nil
	}
}

func (m *Machine) clearProductLocked() {
	m.state.ProductName = ""
	if m.state.SelectedChild != nil && m.state.SelectedChild.Kind == models.KindProduct {
		m.state.SelectedChild = nil
	}
}

func cloneState(s State) State {
	out := s
	if s.SelectedSet != nil {
		v := s.SelectedSet.Clone()
		out.SelectedSet = &v
	}
	if s.SelectedCategory != nil {
		v := s.SelectedCategory.Clone()
		out.SelectedCategory = &v
	}
	if s.SelectedSetProduct != nil {
		v := s.SelectedSetProduct.Clone()
		out.SelectedSetProduct = &v
	}
	if s.SelectedChild != nil {
		v := s.SelectedChild.Clone()
		out.SelectedChild = &v
	}
	return out
}
