// Package cropeditor provides the interactive banner crop editor.
//
// The editor drives an edit session with the keyboard and draws the
// viewport as a character grid: cells the transformed image covers are
// filled, the rest is letterbox.
package cropeditor

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lynxlsy/GANGBOYZ-DEMO-sub002/internal/adapters/driving/tui/components/status"
	"github.com/lynxlsy/GANGBOYZ-DEMO-sub002/internal/adapters/driving/tui/keymap"
	"github.com/lynxlsy/GANGBOYZ-DEMO-sub002/internal/adapters/driving/tui/messages"
	"github.com/lynxlsy/GANGBOYZ-DEMO-sub002/internal/adapters/driving/tui/styles"
	"github.com/lynxlsy/GANGBOYZ-DEMO-sub002/internal/core/domain"
	"github.com/lynxlsy/GANGBOYZ-DEMO-sub002/internal/core/ports/driving"
)

// PanStep is the fraction of the viewport one pan key press moves the image.
const PanStep = 0.02

// Preview grid limits. Terminal cells are about twice as tall as wide.
const (
	maxPreviewCols = 72
	minPreviewCols = 16
	maxPreviewRows = 24
	minPreviewRows = 3
	cellAspect     = 2.0
)

var (
	// ErrNoSession indicates the editor has no session to drive.
	ErrNoSession = errors.New("no edit session")

	// ErrNoEngine indicates no transform engine was provided.
	ErrNoEngine = errors.New("transform engine is required")
)

// View is the crop editor.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	statusbar *status.Bar
	engine    driving.TransformEngine
	ctx       context.Context

	session  driving.EditSession
	image    domain.ImageInfo
	viewport domain.Size

	err    error
	width  int
	height int
}

// NewView creates a crop editor using engine for preview geometry.
func NewView(s *styles.Styles, km *keymap.KeyMap, engine driving.TransformEngine) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	return &View{
		styles:    s,
		keymap:    km,
		statusbar: status.NewBar(s, km),
		engine:    engine,
		ctx:       context.Background(),
		width:     80,
		height:    24,
	}
}

// WithContext sets the context used for saves.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// SetSession points the editor at a new session on image.
func (v *View) SetSession(session driving.EditSession, image domain.ImageInfo) error {
	if session == nil {
		return ErrNoSession
	}
	if v.engine == nil {
		return ErrNoEngine
	}
	viewport, err := v.engine.ReferenceViewport(session.Metadata().Ratio)
	if err != nil {
		return fmt.Errorf("viewport for %s: %w", session.Slot(), err)
	}

	v.session = session
	v.image = image
	v.viewport = viewport
	v.err = nil
	v.statusbar.SetState(status.StateEditing)
	v.statusbar.SetMessage("Editing " + session.Slot())
	return nil
}

// Init implements the view lifecycle.
func (v *View) Init() tea.Cmd {
	return nil
}

// Update handles messages for the editor.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
	case tea.KeyMsg:
		return v.handleKey(msg)
	case messages.CropSaved:
		v.statusbar.SetState(status.StateSaved)
		v.statusbar.SetMessage(fmt.Sprintf("Saved %s", msg.Slot))
	case messages.ErrorOccurred:
		v.setError(msg.Err)
	}
	return v, nil
}

//nolint:gocyclo // one case per editor binding
func (v *View) handleKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	if v.session == nil {
		if msg.Type == tea.KeyEsc {
			return v, changeView(messages.ViewSlots)
		}
		return v, nil
	}

	k := msg.String()
	var err error
	switch {
	case keymap.Matches(k, v.keymap.Cancel):
		slot := v.session.Slot()
		committed := v.session.Cancel()
		return v, func() tea.Msg {
			return messages.CropCancelled{Slot: slot, Committed: committed}
		}
	case keymap.Matches(k, v.keymap.Save):
		return v, v.save()
	case keymap.Matches(k, v.keymap.PanLeft):
		err = v.pan(-1, 0)
	case keymap.Matches(k, v.keymap.PanRight):
		err = v.pan(1, 0)
	case keymap.Matches(k, v.keymap.PanUp):
		err = v.pan(0, -1)
	case keymap.Matches(k, v.keymap.PanDown):
		err = v.pan(0, 1)
	case keymap.Matches(k, v.keymap.ZoomIn):
		_, err = v.session.Zoom(-1)
	case keymap.Matches(k, v.keymap.ZoomOut):
		_, err = v.session.Zoom(1)
	case keymap.Matches(k, v.keymap.Undo):
		_, err = v.session.Undo()
	case keymap.Matches(k, v.keymap.Redo):
		_, err = v.session.Redo()
	case keymap.Matches(k, v.keymap.Reset):
		_, err = v.session.Reset()
	default:
		return v, nil
	}

	if err != nil {
		v.setError(err)
	} else {
		v.err = nil
		v.statusbar.SetState(status.StateEditing)
	}
	return v, nil
}

// pan performs one complete drag gesture of PanStep in the given direction.
func (v *View) pan(dirX, dirY float64) error {
	w, h := v.viewport.Width, v.viewport.Height
	if _, err := v.session.Drag(dirX*PanStep*w, dirY*PanStep*h, w, h); err != nil {
		return err
	}
	return v.session.EndDrag()
}

func (v *View) save() tea.Cmd {
	session := v.session
	ctx := v.ctx
	return func() tea.Msg {
		meta, err := session.Save(ctx)
		if err != nil {
			return messages.ErrorOccurred{Err: fmt.Errorf("save %s: %w", session.Slot(), err)}
		}
		return messages.CropSaved{Slot: session.Slot(), Metadata: meta}
	}
}

func (v *View) setError(err error) {
	v.err = err
	v.statusbar.SetState(status.StateError)
	v.statusbar.SetMessage(err.Error())
}

func changeView(view messages.ViewType) tea.Cmd {
	return func() tea.Msg {
		return messages.ViewChanged{View: view}
	}
}

// View renders the editor.
func (v *View) View() string {
	if v.session == nil {
		return lipgloss.JoinVertical(lipgloss.Left,
			v.styles.Title.Render("Crop editor"), "",
			v.styles.Muted.Render("No slot open. Press esc to pick one."))
	}

	meta := v.session.Metadata()
	render := v.engine.ComputeRenderTransform(meta)

	undo, redo := "-", "-"
	if v.session.CanUndo() {
		undo = "u"
	}
	if v.session.CanRedo() {
		redo = "r"
	}

	info := []string{
		v.styles.Muted.Render("Image    ") + v.styles.Normal.Render(fmt.Sprintf("%s (%dx%d)", v.image.Src, v.image.Width, v.image.Height)),
		v.styles.Muted.Render("Ratio    ") + v.styles.Normal.Render(fmt.Sprintf("%s (%.0fx%.0f)", meta.Ratio, v.viewport.Width, v.viewport.Height)),
		v.styles.Muted.Render("Crop     ") + v.styles.Normal.Render(fmt.Sprintf("scale %.4f  tx %+.4f  ty %+.4f", meta.Scale, meta.TX, meta.TY)),
		v.styles.Muted.Render("CSS      ") + v.styles.Normal.Render(render.CSS()),
		v.styles.Muted.Render("History  ") + v.styles.Normal.Render(fmt.Sprintf("undo [%s]  redo [%s]", undo, redo)),
	}

	sections := []string{
		v.styles.Title.Render("Crop editor: " + v.session.Slot()), "",
		v.Preview(), "",
		strings.Join(info, "\n"),
	}
	if v.err != nil {
		sections = append(sections, "", v.styles.Error.Render("Error: "+v.err.Error()))
	}
	sections = append(sections, "", v.statusbar.View())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// Preview draws the viewport as a grid. Covered cells are '#', letterbox
// cells are '.'.
func (v *View) Preview() string {
	if v.session == nil || !v.viewport.Valid() {
		return ""
	}
	cols, rows := v.gridSize()
	x0, y0, x1, y1 := v.engine.ComputeRenderTransform(v.session.Metadata()).ImageBounds(v.image.Size(), v.viewport)

	cellW := v.viewport.Width / float64(cols)
	cellH := v.viewport.Height / float64(rows)

	lines := make([]string, rows)
	for r := range rows {
		var b strings.Builder
		run := 0
		covered := false
		flush := func() {
			if run == 0 {
				return
			}
			if covered {
				b.WriteString(v.styles.Canvas.Render(strings.Repeat("#", run)))
			} else {
				b.WriteString(v.styles.Letterbox.Render(strings.Repeat(".", run)))
			}
			run = 0
		}
		cy := (float64(r) + 0.5) * cellH
		for c := range cols {
			cx := (float64(c) + 0.5) * cellW
			in := cx >= x0 && cx < x1 && cy >= y0 && cy < y1
			if in != covered {
				flush()
				covered = in
			}
			run++
		}
		flush()
		lines[r] = b.String()
	}
	return v.styles.Border.Render(strings.Join(lines, "\n"))
}

// gridSize fits the viewport ratio into the available terminal space.
func (v *View) gridSize() (cols, rows int) {
	cols = max(min(v.width-4, maxPreviewCols), minPreviewCols)
	ratio := v.viewport.Height / v.viewport.Width
	rows = int(math.Round(float64(cols) * ratio / cellAspect))

	limit := max(min(v.height-14, maxPreviewRows), minPreviewRows)
	if rows > limit {
		rows = limit
		cols = max(int(math.Round(float64(rows)*cellAspect/ratio)), minPreviewCols)
	}
	return cols, max(rows, minPreviewRows)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.statusbar.SetWidth(width)
}

// Session returns the session being edited, if any.
func (v *View) Session() driving.EditSession {
	return v.session
}

// Viewport returns the reference viewport of the open session.
func (v *View) Viewport() domain.Size {
	return v.viewport
}

// Status returns the status bar.
func (v *View) Status() *status.Bar {
	return v.statusbar
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}

// Clear drops the session reference after it was saved or cancelled.
func (v *View) Clear() {
	v.session = nil
	v.image = domain.ImageInfo{}
	v.viewport = domain.Size{}
	v.err = nil
	v.statusbar.Clear()
}
