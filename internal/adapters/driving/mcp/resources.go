package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/lynxlsy/GANGBOYZ-DEMO-sub002/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for gangboyz resources.
	uriScheme = "gangboyz://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "index/stats",
		Name:        "index-stats",
		Description: "Record counts and build time of the search index",
		MIMEType:    "application/json",
	}, s.handleStatsResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "crops/{slot}",
		Name:        "banner-crop",
		Description: "Committed crop metadata of a banner slot",
		MIMEType:    "application/json",
	}, s.handleCropResource)
}

// handleStatsResource returns the current index statistics.
func (s *Server) handleStatsResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	return jsonResource(req.Params.URI, s.ports.Search.Stats())
}

// handleCropResource returns the committed crop of one slot.
func (s *Server) handleCropResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Crop == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	slot := extractSlot(req.Params.URI)
	if slot == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	meta, err := s.ports.Crop.Committed(ctx, slot)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	if err != nil {
		return nil, fmt.Errorf("reading crop: %w", err)
	}

	return jsonResource(req.Params.URI, meta)
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling %s: %w", uri, err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractSlot extracts the slot from a URI like gangboyz://crops/{slot}.
func extractSlot(uri string) string {
	const prefix = uriScheme + "crops/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	slot := strings.TrimPrefix(uri, prefix)
	if strings.Contains(slot, "/") {
		return ""
	}
	return slot
}
