package domain

import "time"

// RecordType classifies an indexed record.
type RecordType string

// Record types known to the index.
const (
	RecordProduct        RecordType = "product"
	RecordBanner         RecordType = "banner"
	RecordOffer          RecordType = "offer"
	RecordRecommendation RecordType = "recommendation"
	RecordCategory       RecordType = "category"
)

// RecordTypes returns all record types in display order.
func RecordTypes() []RecordType {
	return []RecordType{RecordProduct, RecordBanner, RecordOffer, RecordRecommendation, RecordCategory}
}

// IsValid returns true if the record type is recognised.
func (t RecordType) IsValid() bool {
	switch t {
	case RecordProduct, RecordBanner, RecordOffer, RecordRecommendation, RecordCategory:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (t RecordType) String() string {
	return string(t)
}

// IndexedRecord is the normalised, typed and tagged view of a stored item.
type IndexedRecord struct {
	ID            string     `json:"id"`
	Type          RecordType `json:"type"`
	Name          string     `json:"name"`
	Description   string     `json:"description,omitempty"`
	Category      string     `json:"category,omitempty"`
	Price         float64    `json:"price"`
	OriginalPrice float64    `json:"originalPrice"`
	Image         string     `json:"image,omitempty"`
	IsActive      bool       `json:"isActive"`

	// Tags are lowercase match terms. They are never displayed.
	Tags []string `json:"-"`

	// ProductCount is set only on category records.
	ProductCount *int `json:"productCount,omitempty"`

	// Collection is the source collection the record came from.
	// Synthesised categories have an empty collection.
	Collection string `json:"collection,omitempty"`
}

// CategorySeed describes a synthesised top-level category.
type CategorySeed struct {
	ID   string `json:"id" yaml:"id" toml:"id"`
	Name string `json:"name" yaml:"name" toml:"name"`
}

// DefaultCategories are the storefront's main product categories.
func DefaultCategories() []CategorySeed {
	return []CategorySeed{
		{ID: "camisetas", Name: "Camisetas"},
		{ID: "moletons", Name: "Moletons"},
		{ID: "jaquetas", Name: "Jaquetas"},
		{ID: "calcas", Name: "Calças"},
		{ID: "bermudas", Name: "Bermudas"},
		{ID: "acessorios", Name: "Acessórios"},
	}
}

// SearchResult represents a single search hit.
type SearchResult struct {
	// Record is the matched record.
	Record IndexedRecord `json:"record"`

	// Score is the additive relevance score.
	Score int `json:"score"`
}

// IndexStats summarises the current index.
type IndexStats struct {
	Records     int                `json:"records"`
	ByType      map[RecordType]int `json:"byType"`
	Skipped     int                `json:"skipped"`
	BuiltAt     time.Time          `json:"builtAt"`
	CachedItems int                `json:"cachedItems"`
}
