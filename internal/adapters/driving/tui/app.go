package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/lynxlsy/GANGBOYZ-DEMO-sub002/internal/adapters/driving/tui/keymap"
	"github.com/lynxlsy/GANGBOYZ-DEMO-sub002/internal/adapters/driving/tui/messages"
	"github.com/lynxlsy/GANGBOYZ-DEMO-sub002/internal/adapters/driving/tui/styles"
	"github.com/lynxlsy/GANGBOYZ-DEMO-sub002/internal/adapters/driving/tui/views/cropeditor"
	"github.com/lynxlsy/GANGBOYZ-DEMO-sub002/internal/adapters/driving/tui/views/menu"
	"github.com/lynxlsy/GANGBOYZ-DEMO-sub002/internal/adapters/driving/tui/views/search"
	"github.com/lynxlsy/GANGBOYZ-DEMO-sub002/internal/adapters/driving/tui/views/slots"
	"github.com/lynxlsy/GANGBOYZ-DEMO-sub002/internal/core/domain"
	"github.com/lynxlsy/GANGBOYZ-DEMO-sub002/internal/core/ports/driving"
)

// App is the main TUI application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	// ports provides access to core services via driving ports.
	ports *Ports

	// ctx is the context for cancellation.
	ctx context.Context

	// styles holds the TUI styles.
	styles *styles.Styles

	menuView   *menu.View
	searchView *search.View
	slotsView  *slots.View
	editorView *cropeditor.View

	// currentView tracks which view is active.
	currentView messages.ViewType

	// editorOnly is set for single-slot editing; the app quits when the
	// session ends instead of returning to the slot list.
	editorOnly bool

	// saved holds the metadata of the last committed crop.
	saved *domain.CropMetadata

	// err holds the last error that occurred.
	err error

	// width and height are terminal dimensions.
	width  int
	height int

	// ready indicates if the app has initialised.
	ready bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new TUI application with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	return &App{
		ports:       ports,
		ctx:         context.Background(),
		styles:      s,
		menuView:    menu.NewView(s),
		searchView:  search.NewView(s, km, ports.Search),
		slotsView:   slots.NewView(s, km, ports.Crop),
		editorView:  cropeditor.NewView(s, km, ports.Engine),
		currentView: messages.ViewMenu,
	}, nil
}

// NewEditorApp creates an app that only edits one open session.
func NewEditorApp(ports *Ports, session driving.EditSession, image domain.ImageInfo) (*App, error) {
	a, err := NewApp(ports)
	if err != nil {
		return nil, err
	}
	if err := a.editorView.SetSession(session, image); err != nil {
		return nil, fmt.Errorf("creating editor: %w", err)
	}
	a.editorOnly = true
	a.currentView = messages.ViewCropEditor
	return a, nil
}

// WithContext sets the context for the app and its views.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.searchView.WithContext(ctx)
	a.slotsView.WithContext(ctx)
	a.editorView.WithContext(ctx)
	return a
}

// Init implements tea.Model.
// It runs initial commands when the program starts.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnterAltScreen,
		tea.SetWindowTitle("gangboyz"),
	)
}

// Update implements tea.Model.
// It handles messages and updates the model state.
//
//nolint:gocyclo // central message handler requires complexity
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		// Global quit with ctrl+c
		if msg.String() == "ctrl+c" {
			if s := a.editorView.Session(); s != nil && !s.Closed() {
				s.Cancel()
			}
			return a, tea.Quit
		}
		return a, a.updateCurrent(msg)

	case messages.ViewChanged:
		prev := a.currentView
		a.currentView = msg.View
		switch msg.View {
		case messages.ViewSearch:
			a.searchView.Reset()
			return a, a.searchView.Init()
		case messages.ViewSlots:
			// Returning from the editor keeps the role chosen in the menu.
			if prev == messages.ViewMenu {
				a.slotsView.SetRole(msg.Role)
			}
			return a, a.slotsView.Init()
		case messages.ViewMenu, messages.ViewCropEditor, messages.ViewHelp:
			// No initialisation needed
		}
		return a, nil

	case messages.SearchCompleted, messages.IndexRefreshed:
		a.searchView, cmd = a.searchView.Update(msg)
		a.err = a.searchView.Err()
		return a, cmd

	case messages.SlotsLoaded:
		a.slotsView, cmd = a.slotsView.Update(msg)
		a.err = a.slotsView.Err()
		return a, cmd

	case messages.EditRequested:
		if msg.Err != nil {
			a.err = msg.Err
			a.slotsView, cmd = a.slotsView.Update(msg)
			return a, cmd
		}
		if err := a.editorView.SetSession(msg.Session, msg.Image); err != nil {
			msg.Session.Cancel()
			a.err = err
			return a, nil
		}
		a.err = nil
		a.currentView = messages.ViewCropEditor
		return a, nil

	case messages.CropSaved:
		meta := msg.Metadata
		a.saved = &meta
		a.editorView, _ = a.editorView.Update(msg)
		return a, a.leaveEditor()

	case messages.CropCancelled:
		return a, a.leaveEditor()

	case messages.ErrorOccurred:
		a.err = msg.Err
		return a, a.updateCurrent(msg)

	case messages.Quit:
		return a, tea.Quit
	}

	return a, a.updateCurrent(msg)
}

// updateCurrent forwards msg to the active view.
func (a *App) updateCurrent(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch a.currentView {
	case messages.ViewMenu:
		a.menuView, cmd = a.menuView.Update(msg)
	case messages.ViewSearch:
		a.searchView, cmd = a.searchView.Update(msg)
	case messages.ViewSlots:
		a.slotsView, cmd = a.slotsView.Update(msg)
	case messages.ViewCropEditor:
		a.editorView, cmd = a.editorView.Update(msg)
	case messages.ViewHelp:
		if k, ok := msg.(tea.KeyMsg); ok && k.Type == tea.KeyEsc {
			a.currentView = messages.ViewMenu
		}
	}
	return cmd
}

// leaveEditor returns to the slot list, or quits in editor-only mode.
func (a *App) leaveEditor() tea.Cmd {
	if a.editorOnly {
		return tea.Quit
	}
	a.editorView.Clear()
	a.currentView = messages.ViewSlots
	return a.slotsView.Init()
}

// View implements tea.Model.
// It renders the current view as a string.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	switch a.currentView {
	case messages.ViewSearch:
		return a.searchView.View()
	case messages.ViewSlots:
		return a.slotsView.View()
	case messages.ViewCropEditor:
		return a.editorView.View()
	case messages.ViewHelp:
		return a.viewHelp()
	default:
		return a.menuView.View()
	}
}

// viewHelp renders the help view.
func (a *App) viewHelp() string {
	return `Help

Navigation:
  esc         Back to Menu
  ctrl+c      Quit

Menu:
  j/k, ↑/↓    Navigate options
  enter       Select option
  q           Quit

Search:
  (type)      Enter search query
  enter       Submit search / toggle details
  n           New search
  ctrl+r      Refresh index

Banner crops:
  enter       Edit selected slot
  ctrl+r      Reload slots

Crop editor:
  ←↑↓→/hjkl   Pan
  +/-         Zoom in/out
  u/r         Undo/redo
  0           Reset to fit
  s           Save
  esc         Cancel

[esc] back to menu`
}

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx))
	_, err := p.Run()
	return err
}

// CurrentView returns the current view type.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// Saved returns the last crop committed from the editor, if any.
func (a *App) Saved() *domain.CropMetadata {
	return a.saved
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has been initialised.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions sets the terminal dimensions.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.menuView.SetDimensions(width, height)
	a.searchView.SetDimensions(width, height)
	a.slotsView.SetDimensions(width, height)
	a.editorView.SetDimensions(width, height)
}
