package domain

import "time"

// Default collection keys as written by the storefront.
const (
	CollectionProducts        = "gang-boyz-products"
	CollectionHotProducts     = "gang-boyz-hot-products"
	CollectionBanners         = "gang-boyz-banners"
	CollectionOffers          = "gang-boyz-offers"
	CollectionRecommendations = "gang-boyz-recommendations"
	CollectionCategories      = "gang-boyz-categories"
)

// DefaultCollections returns the collection keys indexed by default, in
// tiebreak order.
func DefaultCollections() []string {
	return []string{
		CollectionProducts,
		CollectionHotProducts,
		CollectionBanners,
		CollectionOffers,
		CollectionRecommendations,
		CollectionCategories,
	}
}

// SearchSettings holds search index configuration.
type SearchSettings struct {
	// Collections are the store keys read when building the index.
	Collections []string

	// Categories are the synthesised top-level categories.
	Categories []CategorySeed

	// CacheTTL is how long a query result stays cached.
	CacheTTL time.Duration

	// RefreshInterval is the minimum time between two index rebuilds.
	RefreshInterval time.Duration

	// DefaultLimit applies when a search passes a non-positive limit.
	DefaultLimit int
}

// CropSettings holds transform engine parameters.
// The same values must be used by the editor and every renderer.
type CropSettings struct {
	// TranslatePercent is K: a translation of tx moves the image tx*K percent
	// of the viewport.
	TranslatePercent float64

	// MinScale and MaxScale bound interactive zoom.
	MinScale float64
	MaxScale float64

	// ZoomStep is the scale change per wheel notch.
	ZoomStep float64

	// TranslateBound clamps tx and ty to [-bound, bound].
	TranslateBound float64

	// KeyPrefix prefixes the slot name to form the store key.
	KeyPrefix string
}

// DragSensitivity converts a pixel drag expressed as a fraction of the
// container into tx/ty units so the image follows the pointer.
func (c CropSettings) DragSensitivity() float64 {
	if c.TranslatePercent <= 0 {
		return 0
	}
	return 100 / c.TranslatePercent
}

// UploadSettings holds upload endpoint configuration.
type UploadSettings struct {
	// Dir is where uploaded files are written.
	Dir string

	// BaseURL prefixes the stored file name to form the returned locator.
	// Empty means a file:// URL is returned.
	BaseURL string

	// MaxBytes is the largest accepted payload.
	MaxBytes int64
}

// AppSettings holds all application settings.
type AppSettings struct {
	Search SearchSettings
	Crop   CropSettings
	Upload UploadSettings
}

// DefaultAppSettings returns settings with sensible defaults.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Search: SearchSettings{
			Collections:     DefaultCollections(),
			Categories:      DefaultCategories(),
			CacheTTL:        30 * time.Second,
			RefreshInterval: 5 * time.Second,
			DefaultLimit:    10,
		},
		Crop: DefaultCropSettings(),
		Upload: UploadSettings{
			MaxBytes: 5 << 20,
		},
	}
}

// DefaultCropSettings returns the transform engine defaults.
func DefaultCropSettings() CropSettings {
	return CropSettings{
		TranslatePercent: 50,
		MinScale:         0.1,
		MaxScale:         3.0,
		ZoomStep:         0.1,
		TranslateBound:   2,
		KeyPrefix:        "gang-boyz-banner-crop:",
	}
}
