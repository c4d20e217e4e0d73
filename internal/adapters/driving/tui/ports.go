// Package tui provides an interactive terminal user interface for gangboyz.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/lynxlsy/GANGBOYZ-DEMO-sub002/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the TUI.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Search provides ranked catalogue search.
	Search driving.SearchService

	// Crop manages committed banner crops and edit sessions.
	Crop driving.CropService

	// Engine computes preview geometry for the crop editor.
	Engine driving.TransformEngine
}

// NewPorts creates a new Ports aggregate with the given services.
func NewPorts(
	search driving.SearchService,
	crop driving.CropService,
	engine driving.TransformEngine,
) *Ports {
	return &Ports{
		Search: search,
		Crop:   crop,
		Engine: engine,
	}
}

// Validate ensures all required ports are set.
// Returns an error if any port is nil.
func (p *Ports) Validate() error {
	if p == nil {
		return ErrInvalidPorts
	}
	if p.Search == nil {
		return ErrMissingSearchService
	}
	if p.Crop == nil {
		return ErrMissingCropService
	}
	if p.Engine == nil {
		return ErrMissingTransformEngine
	}
	return nil
}
