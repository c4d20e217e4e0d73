package services

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/lynxlsy/GANGBOYZ-DEMO-sub002/internal/core/domain"
	"github.com/lynxlsy/GANGBOYZ-DEMO-sub002/internal/core/ports/driven"
	"github.com/lynxlsy/GANGBOYZ-DEMO-sub002/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
const (
	keySearchCollections     = "search.collections"
	keySearchCategories      = "search.categories"
	keySearchCacheTTL        = "search.cache_ttl_seconds"
	keySearchRefreshInterval = "search.refresh_interval_seconds"
	keySearchDefaultLimit    = "search.default_limit"
	keyCropTranslatePercent  = "crop.translate_percent"
	keyCropMinScale          = "crop.min_scale"
	keyCropMaxScale          = "crop.max_scale"
	keyCropZoomStep          = "crop.zoom_step"
	keyCropTranslateBound    = "crop.translate_bound"
	keyCropKeyPrefix         = "crop.key_prefix"
	keyUploadDir             = "upload.dir"
	keyUploadBaseURL         = "upload.base_url"
	keyUploadMaxBytes        = "upload.max_bytes"
)

type settingKind int

const (
	kindString settingKind = iota
	kindStringList
	kindPositiveInt
	kindNonNegativeInt
	kindPositiveFloat
)

var settingKinds = map[string]settingKind{
	keySearchCollections:     kindStringList,
	keySearchCategories:      kindStringList,
	keySearchCacheTTL:        kindPositiveInt,
	keySearchRefreshInterval: kindNonNegativeInt,
	keySearchDefaultLimit:    kindPositiveInt,
	keyCropTranslatePercent:  kindPositiveFloat,
	keyCropMinScale:          kindPositiveFloat,
	keyCropMaxScale:          kindPositiveFloat,
	keyCropZoomStep:          kindPositiveFloat,
	keyCropTranslateBound:    kindPositiveFloat,
	keyCropKeyPrefix:         kindString,
	keyUploadDir:             kindString,
	keyUploadBaseURL:         kindString,
	keyUploadMaxBytes:        kindPositiveInt,
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// Get returns stored settings layered over the defaults.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	d := domain.DefaultAppSettings()

	categories := d.Search.Categories
	if raw := s.configStore.GetStringSlice(keySearchCategories); len(raw) > 0 {
		parsed, err := parseCategories(raw)
		if err != nil {
			return nil, err
		}
		categories = parsed
	}

	settings := &domain.AppSettings{
		Search: domain.SearchSettings{
			Collections:     s.getStrings(keySearchCollections, d.Search.Collections),
			Categories:      categories,
			CacheTTL:        s.getSeconds(keySearchCacheTTL, d.Search.CacheTTL),
			RefreshInterval: s.getSeconds(keySearchRefreshInterval, d.Search.RefreshInterval),
			DefaultLimit:    s.getInt(keySearchDefaultLimit, d.Search.DefaultLimit),
		},
		Crop: domain.CropSettings{
			TranslatePercent: s.getFloat(keyCropTranslatePercent, d.Crop.TranslatePercent),
			MinScale:         s.getFloat(keyCropMinScale, d.Crop.MinScale),
			MaxScale:         s.getFloat(keyCropMaxScale, d.Crop.MaxScale),
			ZoomStep:         s.getFloat(keyCropZoomStep, d.Crop.ZoomStep),
			TranslateBound:   s.getFloat(keyCropTranslateBound, d.Crop.TranslateBound),
			KeyPrefix:        s.getString(keyCropKeyPrefix, d.Crop.KeyPrefix),
		},
		Upload: domain.UploadSettings{
			Dir:      s.getString(keyUploadDir, d.Upload.Dir),
			BaseURL:  s.configStore.GetString(keyUploadBaseURL), // No default - empty means file:// locators
			MaxBytes: int64(s.getInt(keyUploadMaxBytes, int(d.Upload.MaxBytes))),
		},
	}

	if settings.Crop.MinScale >= settings.Crop.MaxScale {
		return nil, fmt.Errorf("%w: crop.min_scale %v must be below crop.max_scale %v",
			domain.ErrInvalidInput, settings.Crop.MinScale, settings.Crop.MaxScale)
	}

	return settings, nil
}

// Set validates and stores one setting, then persists the config file.
func (s *SettingsService) Set(key, value string) error {
	kind, ok := settingKinds[key]
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}

	var stored any
	switch kind {
	case kindString:
		stored = strings.TrimSpace(value)
	case kindStringList:
		items := splitList(value)
		if key == keySearchCategories {
			if _, err := parseCategories(items); err != nil {
				return err
			}
		}
		stored = items
	case kindPositiveInt, kindNonNegativeInt:
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil || n < 0 || (kind == kindPositiveInt && n == 0) {
			return fmt.Errorf("%w: %s must be a positive integer, got %q", domain.ErrInvalidInput, key, value)
		}
		stored = n
	case kindPositiveFloat:
		f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil || !positiveFinite(f) {
			return fmt.Errorf("%w: %s must be a positive number, got %q", domain.ErrInvalidInput, key, value)
		}
		stored = f
	}

	if err := s.configStore.Set(key, stored); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	if err := s.configStore.Save(); err != nil {
		return fmt.Errorf("persist settings: %w", err)
	}
	return nil
}

// Keys lists the recognised setting keys.
func (s *SettingsService) Keys() []string {
	keys := make([]string, 0, len(settingKinds))
	for k := range settingKinds {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (s *SettingsService) getString(key, def string) string {
	if v := s.configStore.GetString(key); v != "" {
		return v
	}
	return def
}

func (s *SettingsService) getStrings(key string, def []string) []string {
	if v := s.configStore.GetStringSlice(key); len(v) > 0 {
		return v
	}
	return def
}

func (s *SettingsService) getInt(key string, def int) int {
	if v := s.configStore.GetInt(key); v > 0 {
		return v
	}
	return def
}

func (s *SettingsService) getFloat(key string, def float64) float64 {
	if v := s.configStore.GetFloat(key); v > 0 {
		return v
	}
	return def
}

// getSeconds reads a whole number of seconds. An explicit zero is honoured
// so the refresh throttle can be disabled.
func (s *SettingsService) getSeconds(key string, def time.Duration) time.Duration {
	if _, ok := s.configStore.Get(key); !ok {
		return def
	}
	v := s.configStore.GetInt(key)
	if v < 0 {
		return def
	}
	return time.Duration(v) * time.Second
}

// parseCategories reads "id=Name" pairs. A bare name uses its lowercase
// form as id.
func parseCategories(items []string) ([]domain.CategorySeed, error) {
	out := make([]domain.CategorySeed, 0, len(items))
	for _, item := range items {
		id, name, found := strings.Cut(item, "=")
		id = strings.TrimSpace(id)
		name = strings.TrimSpace(name)
		if !found {
			name = id
			id = strings.ToLower(id)
		}
		if id == "" || name == "" {
			return nil, fmt.Errorf("%w: category %q must be id=Name", domain.ErrInvalidInput, item)
		}
		out = append(out, domain.CategorySeed{ID: id, Name: name})
	}
	return out, nil
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func positiveFinite(f float64) bool {
	return f > 0 && finite(f)
}
