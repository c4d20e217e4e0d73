// Package menu provides the main navigation menu view for the TUI.
package menu

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/lynxlsy/GANGBOYZ-DEMO-sub002/internal/adapters/driving/tui/messages"
	"github.com/lynxlsy/GANGBOYZ-DEMO-sub002/internal/adapters/driving/tui/styles"
	"github.com/lynxlsy/GANGBOYZ-DEMO-sub002/internal/core/domain"
)

// Item represents a single menu option.
type Item struct {
	Label string
	View  messages.ViewType
	// Role narrows the slots view to one banner role. Empty lists every slot.
	Role domain.BannerRole
	Hint string
	Quit bool
}

// View is the main menu: search, the slot list per banner role, help.
type View struct {
	styles   *styles.Styles
	items    []Item
	selected int
	width    int
	height   int
	ready    bool
}

// NewView creates a new menu view.
func NewView(s *styles.Styles) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &View{
		styles:   s,
		items:    buildItems(),
		selected: 0,
		width:    80,
		height:   24,
	}
}

func buildItems() []Item {
	items := []Item{
		{Label: "Search", View: messages.ViewSearch, Hint: "products, offers, banners, categories"},
		{Label: "All banner crops", View: messages.ViewSlots},
	}
	for _, role := range domain.BannerRoles() {
		items = append(items, Item{
			Label: roleLabel(role),
			View:  messages.ViewSlots,
			Role:  role,
			Hint:  fmt.Sprintf("%s, %s", role.Ratio(), role.Policy()),
		})
	}
	return append(items,
		Item{Label: "Help", View: messages.ViewHelp},
		Item{Label: "Quit", Quit: true},
	)
}

func roleLabel(role domain.BannerRole) string {
	switch role {
	case domain.RoleHero:
		return "Hero banners"
	case domain.RoleHeroMobile:
		return "Mobile hero banners"
	case domain.RoleCategory:
		return "Category banners"
	case domain.RoleOffer:
		return "Offer banners"
	default:
		return role.String()
	}
}

// Init initialises the menu view.
func (v *View) Init() tea.Cmd {
	return nil
}

// Update handles messages for the menu view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		v.ready = true
		return v, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if v.selected > 0 {
				v.selected--
			}
		case "down", "j":
			if v.selected < len(v.items)-1 {
				v.selected++
			}
		case "/":
			return v, changeView(Item{View: messages.ViewSearch})
		case "enter":
			item := v.items[v.selected]
			if item.Quit {
				return v, tea.Quit
			}
			return v, changeView(item)
		case "q":
			return v, tea.Quit
		}
	}

	return v, nil
}

func changeView(item Item) tea.Cmd {
	return func() tea.Msg {
		return messages.ViewChanged{View: item.View, Role: item.Role}
	}
}

// View renders the menu.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	var b strings.Builder
	b.WriteString(v.styles.Title.Render("Gang Boyz"))
	b.WriteString("\n\n")
	b.WriteString(v.styles.Muted.Render("Storefront search and banner crops"))
	b.WriteString("\n\n")

	for i, item := range v.items {
		cursor, style := "  ", v.styles.Normal
		if i == v.selected {
			cursor, style = "> ", v.styles.Selected
		}
		// Role entries sit under "All banner crops".
		if item.Role != "" {
			cursor += "  "
		}

		b.WriteString(cursor + style.Render(item.Label))
		if item.Hint != "" {
			b.WriteString(v.styles.Muted.Render("  " + item.Hint))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(v.styles.Help.Render("[j/k] Navigate  [Enter] Select  [/] Search  [q] Quit"))

	return b.String()
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// Selected returns the currently selected index.
func (v *View) Selected() int {
	return v.selected
}

// Items returns the menu items in display order.
func (v *View) Items() []Item {
	return v.items
}
