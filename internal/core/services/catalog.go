package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/lynxlsy/GANGBOYZ-DEMO-sub002/internal/core/domain"
	"github.com/lynxlsy/GANGBOYZ-DEMO-sub002/internal/core/ports/driven"
	"github.com/lynxlsy/GANGBOYZ-DEMO-sub002/internal/core/ports/driving"
	"github.com/lynxlsy/GANGBOYZ-DEMO-sub002/internal/logger"
)

// Ensure CatalogService implements the interface.
var _ driving.CatalogService = (*CatalogService)(nil)

// CatalogService imports and exports catalogue collections.
// A catalogue document maps collection keys to arrays of records.
type CatalogService struct {
	store       driven.KeyValueStore
	collections []string
	notifier    driven.ChangeNotifier
}

// NewCatalogService creates a catalogue service over the given collection keys.
func NewCatalogService(store driven.KeyValueStore, collections []string) *CatalogService {
	return &CatalogService{store: store, collections: collections}
}

// SetNotifier sets the notifier told about every imported collection.
func (s *CatalogService) SetNotifier(notifier driven.ChangeNotifier) {
	s.notifier = notifier
}

// Import writes every collection in the document to the store. The whole
// document is validated before anything is written.
func (s *CatalogService) Import(ctx context.Context, r io.Reader, format driving.CatalogFormat) (int, error) {
	doc := make(map[string]any)
	switch format {
	case driving.CatalogYAML:
		if err := yaml.NewDecoder(r).Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
			return 0, fmt.Errorf("%w: decode yaml: %v", domain.ErrInvalidInput, err)
		}
	case driving.CatalogJSON:
		if err := json.NewDecoder(r).Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
			return 0, fmt.Errorf("%w: decode json: %v", domain.ErrInvalidInput, err)
		}
	default:
		return 0, fmt.Errorf("%w: catalogue format %q", domain.ErrUnsupportedType, format)
	}

	keys := make([]string, 0, len(doc))
	encoded := make(map[string]string, len(doc))
	for key, value := range doc {
		if _, ok := value.([]any); !ok {
			return 0, fmt.Errorf("%w: collection %s is not a list", domain.ErrInvalidInput, key)
		}
		data, err := json.Marshal(value)
		if err != nil {
			return 0, fmt.Errorf("%w: collection %s: %v", domain.ErrInvalidInput, key, err)
		}
		keys = append(keys, key)
		encoded[key] = string(data)
	}
	sort.Strings(keys)

	for i, key := range keys {
		if err := s.store.Set(ctx, key, encoded[key]); err != nil {
			return i, fmt.Errorf("write collection %s: %w", key, err)
		}
		logger.Debug("imported collection %s", key)
		if s.notifier != nil {
			s.notifier.Notify(key)
		}
	}

	return len(keys), nil
}

// Export writes the configured collections that are present and valid.
func (s *CatalogService) Export(ctx context.Context, w io.Writer, format driving.CatalogFormat) error {
	doc := make(map[string]any)
	for _, key := range s.collections {
		raw, err := s.store.Get(ctx, key)
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			return fmt.Errorf("read collection %s: %w", key, err)
		}
		var elements []any
		if err := json.Unmarshal([]byte(raw), &elements); err != nil {
			logger.Warn("export: collection %s is not a JSON array, skipped", key)
			continue
		}
		doc[key] = elements
	}

	switch format {
	case driving.CatalogYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	case driving.CatalogJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("%w: catalogue format %q", domain.ErrUnsupportedType, format)
	}
}

// Collections describes each configured collection.
func (s *CatalogService) Collections(ctx context.Context) ([]driving.CollectionInfo, error) {
	out := make([]driving.CollectionInfo, 0, len(s.collections))
	for _, key := range s.collections {
		info := driving.CollectionInfo{Key: key}
		raw, err := s.store.Get(ctx, key)
		switch {
		case errors.Is(err, domain.ErrNotFound):
		case err != nil:
			return nil, fmt.Errorf("read collection %s: %w", key, err)
		default:
			info.Present = true
			var elements []json.RawMessage
			if json.Unmarshal([]byte(raw), &elements) == nil {
				info.Valid = true
				info.Elements = len(elements)
			}
		}
		out = append(out, info)
	}
	return out, nil
}
