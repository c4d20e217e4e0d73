// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/lynxlsy/GANGBOYZ-DEMO-sub002/internal/core/domain"
	"github.com/lynxlsy/GANGBOYZ-DEMO-sub002/internal/core/ports/driving"
)

// SearchCompleted carries search results back to the model.
type SearchCompleted struct {
	Query   string
	Results []domain.SearchResult
	Err     error
}

// IndexRefreshed reports a manual index refresh.
type IndexRefreshed struct {
	Rebuilt bool
	Err     error
}

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
	// Role narrows ViewSlots to one banner role when set from the menu.
	Role domain.BannerRole
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewMenu is the main navigation menu.
	ViewMenu ViewType = iota
	// ViewSearch is the search input and results view.
	ViewSearch
	// ViewSlots lists banner slots with a committed crop.
	ViewSlots
	// ViewCropEditor edits one slot's crop.
	ViewCropEditor
	// ViewHelp is the help/keybindings view.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewMenu:
		return "menu"
	case ViewSearch:
		return "search"
	case ViewSlots:
		return "slots"
	case ViewCropEditor:
		return "crop_editor"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}

// SlotsLoaded carries the committed crops of every slot.
type SlotsLoaded struct {
	Slots []domain.SlotRender
	Err   error
}

// EditRequested asks the app to open the crop editor on a session.
type EditRequested struct {
	Session driving.EditSession
	Image   domain.ImageInfo
	Err     error
}

// CropSaved signals the editor committed a crop.
type CropSaved struct {
	Slot     string
	Metadata domain.CropMetadata
}

// CropCancelled signals the editor was closed without saving.
type CropCancelled struct {
	Slot      string
	Committed *domain.CropMetadata
}
