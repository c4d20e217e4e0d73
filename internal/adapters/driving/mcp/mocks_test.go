package mcp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lynxlsy/GANGBOYZ-DEMO-sub002/internal/adapters/driven/storage/memory"
	"github.com/lynxlsy/GANGBOYZ-DEMO-sub002/internal/core/domain"
	"github.com/lynxlsy/GANGBOYZ-DEMO-sub002/internal/core/ports/driving"
	"github.com/lynxlsy/GANGBOYZ-DEMO-sub002/internal/core/services"
)

// mockSearchService is a mock implementation of driving.SearchService.
type mockSearchService struct {
	results   []domain.SearchResult
	err       error
	rebuilt   bool
	stats     domain.IndexStats
	lastLimit int
}

func (m *mockSearchService) Search(_ context.Context, _ string, limit int) ([]domain.SearchResult, error) {
	m.lastLimit = limit
	return m.results, m.err
}

func (m *mockSearchService) Refresh(_ context.Context) (bool, error) {
	return m.rebuilt, m.err
}

func (m *mockSearchService) Stats() domain.IndexStats {
	return m.stats
}

var _ driving.SearchService = (*mockSearchService)(nil)

// newCropService returns a crop service with one committed hero crop.
func newCropService(t *testing.T) *services.CropService {
	t.Helper()
	ctx := context.Background()
	svc := services.NewCropService(memory.NewKeyValueStore(), nil)

	image := domain.ImageInfo{Src: "https://cdn.example.com/hero.jpg", Width: 3840, Height: 2160}
	session, err := svc.Open(ctx, "home-hero", domain.RoleHero, image, domain.Size{})
	require.NoError(t, err)
	_, err = session.Drag(96, 0, 1920, 650)
	require.NoError(t, err)
	_, err = session.Save(ctx)
	require.NoError(t, err)

	return svc
}
