package search

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lynxlsy/GANGBOYZ-DEMO-sub002/internal/adapters/driving/tui/components/status"
	"github.com/lynxlsy/GANGBOYZ-DEMO-sub002/internal/adapters/driving/tui/messages"
	"github.com/lynxlsy/GANGBOYZ-DEMO-sub002/internal/core/domain"
)

// MockSearchService implements driving.SearchService for testing.
type MockSearchService struct {
	SearchFunc  func(ctx context.Context, query string, limit int) ([]domain.SearchResult, error)
	RefreshFunc func(ctx context.Context) (bool, error)
	stats       domain.IndexStats
}

func (m *MockSearchService) Search(ctx context.Context, query string, limit int) ([]domain.SearchResult, error) {
	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, query, limit)
	}
	return []domain.SearchResult{}, nil
}

func (m *MockSearchService) Refresh(ctx context.Context) (bool, error) {
	if m.RefreshFunc != nil {
		return m.RefreshFunc(ctx)
	}
	return true, nil
}

func (m *MockSearchService) Stats() domain.IndexStats {
	return m.stats
}

func testSearchResults() []domain.SearchResult {
	return []domain.SearchResult{
		{Record: domain.IndexedRecord{
			ID: "HOT001", Type: domain.RecordProduct, Name: "Jaqueta Preta",
			Description: "Corta-vento", Category: "Jaquetas", Price: 199.9,
			Image: "/images/hot001.jpg", Collection: domain.CollectionHotProducts, IsActive: true,
		}, Score: 160},
		{Record: domain.IndexedRecord{ID: "jaquetas", Type: domain.RecordCategory, Name: "Jaquetas", IsActive: true}, Score: 80},
	}
}

func typeText(v *View, text string) {
	for _, r := range text {
		v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func newReadyView(svc *MockSearchService) *View {
	v := NewView(nil, nil, svc)
	v.SetDimensions(100, 40)
	return v
}

func TestNewView(t *testing.T) {
	v := NewView(nil, nil, nil)

	require.NotNil(t, v)
	assert.False(t, v.Ready())
	assert.True(t, v.InputFocused())
	assert.Equal(t, "Initialising...", v.View())
}

func TestView_SubmitSearch(t *testing.T) {
	var gotQuery string
	var gotLimit int
	svc := &MockSearchService{
		SearchFunc: func(_ context.Context, query string, limit int) ([]domain.SearchResult, error) {
			gotQuery, gotLimit = query, limit
			return testSearchResults(), nil
		},
	}
	v := newReadyView(svc)

	typeText(v, " jaqueta ")
	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, status.StateSearching, v.Status().State())

	msg := cmd()
	completed, ok := msg.(messages.SearchCompleted)
	require.True(t, ok)
	assert.Equal(t, "jaqueta", gotQuery)
	assert.Zero(t, gotLimit, "the configured default limit applies")

	v.Update(completed)
	assert.Len(t, v.Results(), 2)
	assert.False(t, v.InputFocused())
	assert.Equal(t, status.StateResults, v.Status().State())
	assert.Equal(t, 2, v.Status().ResultCount())
}

func TestView_EmptyQueryIgnored(t *testing.T) {
	v := newReadyView(&MockSearchService{})

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Nil(t, cmd)
	assert.True(t, v.InputFocused())
}

func TestView_SearchError(t *testing.T) {
	v := newReadyView(&MockSearchService{})

	v.Update(messages.SearchCompleted{Err: errors.New("store offline")})

	require.Error(t, v.Err())
	assert.Equal(t, status.StateError, v.Status().State())
	assert.Contains(t, v.View(), "store offline")
}

func TestView_NoSearchService(t *testing.T) {
	v := NewView(nil, nil, nil)
	v.SetDimensions(80, 24)

	typeText(v, "x")
	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)

	msg, ok := cmd().(messages.ErrorOccurred)
	require.True(t, ok)
	assert.ErrorIs(t, msg.Err, ErrNoSearchService)
}

func TestView_ResultsNavigationAndDetail(t *testing.T) {
	v := newReadyView(&MockSearchService{})
	v.Update(messages.SearchCompleted{Query: "jaqueta", Results: testSearchResults()})

	v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}})
	assert.Equal(t, 1, v.SelectedIndex())
	v.Update(tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 0, v.SelectedIndex())

	v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.True(t, v.DetailOpen())

	view := v.View()
	assert.Contains(t, view, "Corta-vento")
	assert.Contains(t, view, "/images/hot001.jpg")
	assert.Contains(t, view, domain.CollectionHotProducts)
	assert.Contains(t, view, "R$ 199,90")

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Nil(t, cmd, "esc closes the panel first")
	assert.False(t, v.DetailOpen())

	_, cmd = v.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.Equal(t, messages.ViewChanged{View: messages.ViewMenu}, cmd())
}

func TestView_NewSearch(t *testing.T) {
	v := newReadyView(&MockSearchService{})
	v.SetQuery("moletom")
	v.Update(messages.SearchCompleted{Query: "moletom", Results: testSearchResults()})

	v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'n'}})

	assert.True(t, v.InputFocused())
	assert.Empty(t, v.Query())
}

func TestView_RefreshReruns(t *testing.T) {
	searches := 0
	svc := &MockSearchService{
		SearchFunc: func(context.Context, string, int) ([]domain.SearchResult, error) {
			searches++
			return testSearchResults(), nil
		},
		stats: domain.IndexStats{Records: 42},
	}
	v := newReadyView(svc)
	v.SetQuery("jaqueta")
	v.Update(messages.SearchCompleted{Query: "jaqueta", Results: testSearchResults()})

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyCtrlR})
	require.NotNil(t, cmd)
	refreshed, ok := cmd().(messages.IndexRefreshed)
	require.True(t, ok)
	assert.True(t, refreshed.Rebuilt)

	_, cmd = v.Update(refreshed)
	assert.Equal(t, "Index rebuilt: 42 records", v.Status().Message())
	require.NotNil(t, cmd)
	_, ok = cmd().(messages.SearchCompleted)
	assert.True(t, ok)
	assert.Equal(t, 1, searches)
}

func TestView_RefreshThrottled(t *testing.T) {
	svc := &MockSearchService{
		RefreshFunc: func(context.Context) (bool, error) { return false, nil },
	}
	v := newReadyView(svc)

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyCtrlR})
	require.NotNil(t, cmd)
	_, cmd = v.Update(cmd())

	assert.Nil(t, cmd, "nothing to rerun while typing")
	assert.Equal(t, "Refresh throttled, cache cleared", v.Status().Message())
}

func TestView_Reset(t *testing.T) {
	v := newReadyView(&MockSearchService{})
	v.Update(messages.SearchCompleted{Results: testSearchResults()})
	v.Update(tea.KeyMsg{Type: tea.KeyEnter})

	v.Reset()

	assert.True(t, v.InputFocused())
	assert.False(t, v.DetailOpen())
	assert.Empty(t, v.Results())
	assert.NoError(t, v.Err())
}
