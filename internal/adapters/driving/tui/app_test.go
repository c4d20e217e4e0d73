package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lynxlsy/GANGBOYZ-DEMO-sub002/internal/adapters/driving/tui/messages"
	"github.com/lynxlsy/GANGBOYZ-DEMO-sub002/internal/core/domain"
)

var heroImage = domain.ImageInfo{Src: "https://cdn.example.com/hero.jpg", Width: 3840, Height: 2160}

func newTestApp(t *testing.T) *App {
	t.Helper()
	ports, _ := testPorts(t)
	app, err := NewApp(ports)
	require.NoError(t, err)
	app.SetDimensions(100, 40)
	return app
}

func send(t *testing.T, app *App, msg tea.Msg) tea.Cmd {
	t.Helper()
	_, cmd := app.Update(msg)
	return cmd
}

func TestNewApp_Success(t *testing.T) {
	ports, _ := testPorts(t)

	app, err := NewApp(ports)

	require.NoError(t, err)
	assert.Equal(t, messages.ViewMenu, app.CurrentView())
	assert.False(t, app.Ready())
	assert.Equal(t, "Initialising...", app.View())
	assert.NotNil(t, app.Init())
}

func TestNewApp_InvalidPorts(t *testing.T) {
	app, err := NewApp(&Ports{})

	assert.Nil(t, app)
	assert.ErrorIs(t, err, ErrMissingSearchService)
}

func TestApp_Update_WindowSize(t *testing.T) {
	ports, _ := testPorts(t)
	app, err := NewApp(ports)
	require.NoError(t, err)

	cmd := send(t, app, tea.WindowSizeMsg{Width: 120, Height: 40})

	assert.Nil(t, cmd)
	assert.True(t, app.Ready())
	assert.Contains(t, app.View(), "Gang Boyz")
}

func TestApp_SearchFlow(t *testing.T) {
	app := newTestApp(t)

	send(t, app, messages.ViewChanged{View: messages.ViewSearch})
	require.Equal(t, messages.ViewSearch, app.CurrentView())

	for _, r := range "moletom" {
		send(t, app, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	cmd := send(t, app, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)

	send(t, app, cmd())
	assert.Contains(t, app.View(), "Moletom Gang")
	assert.NoError(t, app.Err())
}

func TestApp_SearchError(t *testing.T) {
	app := newTestApp(t)
	send(t, app, messages.ViewChanged{View: messages.ViewSearch})

	send(t, app, messages.SearchCompleted{Err: errors.New("boom")})

	assert.EqualError(t, app.Err(), "boom")
}

func TestApp_HelpView(t *testing.T) {
	app := newTestApp(t)

	send(t, app, messages.ViewChanged{View: messages.ViewHelp})
	assert.Contains(t, app.View(), "Crop editor:")

	send(t, app, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, messages.ViewMenu, app.CurrentView())
}

func TestApp_CtrlCQuits(t *testing.T) {
	app := newTestApp(t)

	cmd := send(t, app, tea.KeyMsg{Type: tea.KeyCtrlC})

	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestApp_QuitMessage(t *testing.T) {
	app := newTestApp(t)

	cmd := send(t, app, messages.Quit{})

	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestApp_EditFlow(t *testing.T) {
	app := newTestApp(t)
	crop := app.ports.Crop

	session, err := crop.Open(context.Background(), "home-hero", domain.RoleHero, heroImage, domain.Size{})
	require.NoError(t, err)

	send(t, app, messages.EditRequested{Session: session, Image: heroImage})
	require.Equal(t, messages.ViewCropEditor, app.CurrentView())
	assert.Contains(t, app.View(), "Crop editor: home-hero")

	send(t, app, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'+'}})
	cmd := send(t, app, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'s'}})
	require.NotNil(t, cmd)

	cmd = send(t, app, cmd())
	require.NotNil(t, app.Saved())
	assert.InDelta(t, 0.6, app.Saved().Scale, 1e-9)
	assert.Equal(t, messages.ViewSlots, app.CurrentView())

	require.NotNil(t, cmd, "slot list reloads")
	send(t, app, cmd())
	assert.Contains(t, app.View(), "home-hero")
}

func TestApp_MenuRoleNarrowsSlots(t *testing.T) {
	app := newTestApp(t)

	send(t, app, messages.ViewChanged{View: messages.ViewSlots, Role: domain.RoleOffer})
	assert.Equal(t, domain.RoleOffer, app.slotsView.Role())

	// Leaving the editor keeps the filter chosen in the menu.
	app.currentView = messages.ViewCropEditor
	send(t, app, messages.ViewChanged{View: messages.ViewSlots})
	assert.Equal(t, domain.RoleOffer, app.slotsView.Role())

	app.currentView = messages.ViewMenu
	send(t, app, messages.ViewChanged{View: messages.ViewSlots})
	assert.Empty(t, app.slotsView.Role())
}

func TestApp_EditRequestedError(t *testing.T) {
	app := newTestApp(t)
	send(t, app, messages.ViewChanged{View: messages.ViewSlots})

	send(t, app, messages.EditRequested{Err: domain.ErrUnknownRole})

	assert.ErrorIs(t, app.Err(), domain.ErrUnknownRole)
	assert.Equal(t, messages.ViewSlots, app.CurrentView())
}

func TestNewEditorApp_QuitsWhenDone(t *testing.T) {
	ports, crop := testPorts(t)
	session, err := crop.Open(context.Background(), "home-hero", domain.RoleHero, heroImage, domain.Size{})
	require.NoError(t, err)

	app, err := NewEditorApp(ports, session, heroImage)
	require.NoError(t, err)
	app.SetDimensions(100, 40)
	assert.Equal(t, messages.ViewCropEditor, app.CurrentView())

	cmd := send(t, app, tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	cmd = send(t, app, cmd())

	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Nil(t, app.Saved())
	assert.True(t, session.Closed())
}

func TestNewEditorApp_CtrlCReleasesSession(t *testing.T) {
	ports, crop := testPorts(t)
	session, err := crop.Open(context.Background(), "home-hero", domain.RoleHero, heroImage, domain.Size{})
	require.NoError(t, err)
	app, err := NewEditorApp(ports, session, heroImage)
	require.NoError(t, err)

	send(t, app, tea.KeyMsg{Type: tea.KeyCtrlC})

	again, err := crop.Open(context.Background(), "home-hero", domain.RoleHero, heroImage, domain.Size{})
	require.NoError(t, err, "the slot is free again")
	again.Cancel()
}
