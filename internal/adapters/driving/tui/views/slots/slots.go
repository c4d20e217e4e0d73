// Package slots lists the banner slots that have a committed crop.
package slots

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lynxlsy/GANGBOYZ-DEMO-sub002/internal/adapters/driving/tui/keymap"
	"github.com/lynxlsy/GANGBOYZ-DEMO-sub002/internal/adapters/driving/tui/messages"
	"github.com/lynxlsy/GANGBOYZ-DEMO-sub002/internal/adapters/driving/tui/styles"
	"github.com/lynxlsy/GANGBOYZ-DEMO-sub002/internal/core/domain"
	"github.com/lynxlsy/GANGBOYZ-DEMO-sub002/internal/core/ports/driving"
)

// Errors reported by the slots view.
var (
	// ErrNoCropService indicates that no crop service was provided.
	ErrNoCropService = errors.New("crop service is required")

	// ErrImageUnavailable indicates the slot's image could not be loaded, so
	// there is nothing to fit against.
	ErrImageUnavailable = errors.New("image unavailable")
)

// View lists committed crops and opens the editor on one of them.
type View struct {
	styles *styles.Styles
	keymap *keymap.KeyMap
	crop   driving.CropService
	ctx    context.Context
	role   domain.BannerRole

	slots    []domain.SlotRender
	selected int
	loading  bool
	err      error
	width    int
	height   int
}

// NewView creates a new slots view.
func NewView(s *styles.Styles, km *keymap.KeyMap, crop driving.CropService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	return &View{
		styles: s,
		keymap: km,
		crop:   crop,
		ctx:    context.Background(),
		width:  80,
		height: 24,
	}
}

// WithContext sets the context for the view.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// SetRole narrows the list to slots whose ratio belongs to role.
// An empty role lists every slot.
func (v *View) SetRole(role domain.BannerRole) {
	v.role = role
	v.selected = 0
}

// Role returns the role the list is narrowed to.
func (v *View) Role() domain.BannerRole {
	return v.role
}

// Init loads the slot list.
func (v *View) Init() tea.Cmd {
	v.loading = true
	return v.loadSlots()
}

func (v *View) loadSlots() tea.Cmd {
	role := v.role
	return func() tea.Msg {
		if v.crop == nil {
			return messages.SlotsLoaded{Err: ErrNoCropService}
		}

		names, err := v.crop.Slots(v.ctx)
		if err != nil {
			return messages.SlotsLoaded{Err: err}
		}

		out := make([]domain.SlotRender, 0, len(names))
		for _, name := range names {
			render, err := v.crop.Render(v.ctx, name)
			if err != nil {
				return messages.SlotsLoaded{Err: fmt.Errorf("render %s: %w", name, err)}
			}
			if role != "" {
				if r, ok := domain.RoleForRatio(render.Metadata.Ratio); !ok || r != role {
					continue
				}
			}
			out = append(out, *render)
		}
		return messages.SlotsLoaded{Slots: out}
	}
}

// openEditor starts an edit session on the selected slot.
func (v *View) openEditor(render domain.SlotRender) tea.Cmd {
	return func() tea.Msg {
		if render.Image == nil {
			return messages.EditRequested{Err: fmt.Errorf("%w: %s: %s", ErrImageUnavailable, render.Slot, render.LoadError)}
		}
		role, ok := domain.RoleForRatio(render.Metadata.Ratio)
		if !ok {
			return messages.EditRequested{Err: fmt.Errorf("%w: no role for ratio %q", domain.ErrUnknownRole, render.Metadata.Ratio)}
		}

		session, err := v.crop.Open(v.ctx, render.Slot, role, *render.Image, domain.Size{})
		if err != nil {
			return messages.EditRequested{Err: err}
		}
		return messages.EditRequested{Session: session, Image: *render.Image}
	}
}

// Update handles messages for the slots view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)

	case messages.SlotsLoaded:
		v.loading = false
		v.err = msg.Err
		if msg.Err == nil {
			v.slots = msg.Slots
			v.selected = min(v.selected, max(len(v.slots)-1, 0))
		}

	case messages.EditRequested:
		// The app switches views on success.
		if msg.Err != nil {
			v.err = msg.Err
		}

	case tea.KeyMsg:
		return v.handleKey(msg)
	}
	return v, nil
}

func (v *View) handleKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	k := msg.String()
	switch {
	case msg.Type == tea.KeyEsc:
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	case keymap.Matches(k, v.keymap.Up):
		if v.selected > 0 {
			v.selected--
		}
	case keymap.Matches(k, v.keymap.Down):
		if v.selected < len(v.slots)-1 {
			v.selected++
		}
	case keymap.Matches(k, v.keymap.Refresh):
		v.loading = true
		return v, v.loadSlots()
	case keymap.Matches(k, v.keymap.Select):
		if sel := v.Selected(); sel != nil {
			v.err = nil
			return v, v.openEditor(*sel)
		}
	}
	return v, nil
}

// View renders the slot list.
func (v *View) View() string {
	title := "Banner crops"
	if v.role != "" {
		title = fmt.Sprintf("Banner crops: %s (%s)", v.role, v.role.Ratio())
	}
	sections := []string{v.styles.Title.Render(title), ""}

	switch {
	case v.loading:
		sections = append(sections, v.styles.Muted.Render("Loading..."))
	case len(v.slots) == 0 && v.role != "":
		sections = append(sections, v.styles.Muted.Render(fmt.Sprintf("No committed %s crops.", v.role)))
	case len(v.slots) == 0:
		sections = append(sections, v.styles.Muted.Render("No committed crops. Use `gangboyz upload` or `gangboyz crop set` to add one."))
	default:
		lines := make([]string, 0, len(v.slots))
		for i, s := range v.slots {
			lines = append(lines, v.renderSlot(i, s))
		}
		sections = append(sections, strings.Join(lines, "\n"))
	}

	if v.err != nil {
		sections = append(sections, "", v.styles.Error.Render("Error: "+v.err.Error()))
	}

	sections = append(sections, "", v.styles.Help.Render("[j/k] Navigate  [Enter] Edit  [ctrl+r] Reload  [esc] Back"))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (v *View) renderSlot(i int, s domain.SlotRender) string {
	m := s.Metadata
	line := fmt.Sprintf("%-24s %-10s scale %.4f  tx %+.4f  ty %+.4f", s.Slot, m.Ratio, m.Scale, m.TX, m.TY)

	var note string
	switch {
	case s.Placeholder:
		note = v.styles.Warning.Render("  image failed to load")
	case s.Image != nil:
		note = v.styles.Muted.Render(fmt.Sprintf("  %dx%d", s.Image.Width, s.Image.Height))
	}

	if i == v.selected {
		return v.styles.Selected.Render("> "+line) + note
	}
	return v.styles.Normal.Render("  "+line) + note
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
}

// Slots returns the loaded slots.
func (v *View) Slots() []domain.SlotRender {
	return v.slots
}

// Selected returns the selected slot, or nil when the list is empty.
func (v *View) Selected() *domain.SlotRender {
	if v.selected < 0 || v.selected >= len(v.slots) {
		return nil
	}
	return &v.slots[v.selected]
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
