package mcp

import (
	"github.com/lynxlsy/GANGBOYZ-DEMO-sub002/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Search provides ranked catalogue search.
	Search driving.SearchService

	// Crop reads committed banner crops.
	Crop driving.CropService

	// Engine computes fits for the crop_fit tool.
	Engine driving.TransformEngine
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Search == nil {
		return ErrMissingSearchService
	}
	// Crop and Engine are optional; their tools report ErrCropUnavailable
	return nil
}
