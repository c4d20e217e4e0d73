// Package list provides list display components for the TUI.
package list

import (
	"fmt"
	"strings"

	"github.com/lynxlsy/GANGBOYZ-DEMO-sub002/internal/adapters/driving/present"
	"github.com/lynxlsy/GANGBOYZ-DEMO-sub002/internal/adapters/driving/tui/styles"
	"github.com/lynxlsy/GANGBOYZ-DEMO-sub002/internal/core/domain"
)

// ResultList displays ranked catalogue records in a navigable list.
type ResultList struct {
	results  []domain.SearchResult
	selected int
	styles   *styles.Styles
	width    int
	height   int
}

// NewResultList creates a new result list component.
func NewResultList(s *styles.Styles) *ResultList {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &ResultList{
		styles: s,
		width:  80,
		height: 10,
	}
}

// View renders the result list.
func (r *ResultList) View() string {
	if len(r.results) == 0 {
		return r.styles.Muted.Render("No results")
	}

	lines := make([]string, 0, len(r.results)+2)
	lines = append(lines, r.styles.Subtitle.Render(fmt.Sprintf("Results (%d)", len(r.results))), "")

	// Each result takes two lines.
	visible := (r.height - 4) / 2
	if visible < 1 {
		visible = 1
	}

	start := 0
	if r.selected >= visible {
		start = r.selected - visible + 1
	}
	end := min(start+visible, len(r.results))

	for i := start; i < end; i++ {
		lines = append(lines, r.renderResult(i, &r.results[i]))
	}

	return strings.Join(lines, "\n")
}

// renderResult formats one result as "name  [type] score" plus a detail line.
func (r *ResultList) renderResult(index int, result *domain.SearchResult) string {
	indicator := "  "
	if index == r.selected {
		indicator = "> "
	}

	rec := result.Record
	title := truncate(present.Title(rec), max(r.width-24, 10))
	tag := fmt.Sprintf("[%s] %d", rec.Type, result.Score)

	var titleLine string
	if index == r.selected {
		titleLine = r.styles.Selected.Render(fmt.Sprintf("%s%-*s  %s", indicator, max(r.width-24, 10), title, tag))
	} else {
		titleLine = r.styles.Normal.Render(fmt.Sprintf("%s%-*s  ", indicator, max(r.width-24, 10), title)) +
			r.styles.Muted.Render(tag)
	}

	details := make([]string, 0, 3)
	if price := present.RecordPrice(rec); price != "" {
		details = append(details, r.styles.Price.Render(price))
	}
	if rec.Category != "" {
		details = append(details, r.styles.Muted.Render(rec.Category))
	}
	if rec.ProductCount != nil {
		details = append(details, r.styles.Muted.Render(fmt.Sprintf("%d products", *rec.ProductCount)))
	}
	if len(details) == 0 {
		details = append(details, r.styles.Muted.Render(truncate(rec.Description, max(r.width-6, 20))))
	}

	return titleLine + "\n    " + strings.Join(details, "  ")
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}

// SetResults updates the result list.
func (r *ResultList) SetResults(results []domain.SearchResult) {
	r.results = results
	r.selected = 0
}

// Results returns the current results.
func (r *ResultList) Results() []domain.SearchResult {
	return r.results
}

// Selected returns the index of the selected result.
func (r *ResultList) Selected() int {
	return r.selected
}

// SelectedResult returns the currently selected result, or nil if none.
func (r *ResultList) SelectedResult() *domain.SearchResult {
	if len(r.results) == 0 || r.selected < 0 || r.selected >= len(r.results) {
		return nil
	}
	return &r.results[r.selected]
}

// MoveUp moves selection up.
func (r *ResultList) MoveUp() {
	if r.selected > 0 {
		r.selected--
	}
}

// MoveDown moves selection down.
func (r *ResultList) MoveDown() {
	if r.selected < len(r.results)-1 {
		r.selected++
	}
}

// SetDimensions sets the component dimensions.
func (r *ResultList) SetDimensions(width, height int) {
	r.width = width
	r.height = height
}

// Count returns the number of results.
func (r *ResultList) Count() int {
	return len(r.results)
}
