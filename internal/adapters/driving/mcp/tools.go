package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/lynxlsy/GANGBOYZ-DEMO-sub002/internal/core/domain"
)

// SearchInput is the input schema for the search tool.
type SearchInput struct {
	Query string `json:"query" jsonschema:"the search query, matched against ids, names, descriptions, categories and tags"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of results to return (default from settings)"`
	Type  string `json:"type,omitempty" jsonschema:"only return records of this type: product, banner, offer, recommendation or category"`
}

// SearchOutput is the output schema for the search tool.
type SearchOutput struct {
	Results []SearchResultOutput `json:"results"`
	Count   int                  `json:"count"`
}

// SearchResultOutput represents a single search result.
type SearchResultOutput struct {
	ID            string  `json:"id"`
	Type          string  `json:"type"`
	Name          string  `json:"name"`
	Description   string  `json:"description,omitempty"`
	Category      string  `json:"category,omitempty"`
	Price         float64 `json:"price,omitempty"`
	OriginalPrice float64 `json:"original_price,omitempty"`
	Image         string  `json:"image,omitempty"`
	ProductCount  *int    `json:"product_count,omitempty"`
	Score         int     `json:"score"`
}

// RefreshOutput is the output schema for the index_refresh tool.
type RefreshOutput struct {
	Rebuilt bool `json:"rebuilt"`
	Records int  `json:"records"`
}

// CropRenderInput is the input schema for the crop_render tool.
type CropRenderInput struct {
	Slot string `json:"slot" jsonschema:"the banner slot name"`
}

// CropRenderOutput is the output schema for the crop_render tool.
type CropRenderOutput struct {
	Slot        string  `json:"slot"`
	Src         string  `json:"src"`
	Ratio       string  `json:"ratio"`
	Scale       float64 `json:"scale"`
	TX          float64 `json:"tx"`
	TY          float64 `json:"ty"`
	CSS         string  `json:"css"`
	Placeholder bool    `json:"placeholder"`
	LoadError   string  `json:"load_error,omitempty"`
}

// CropListOutput is the output schema for the crop_list tool.
type CropListOutput struct {
	Slots []string `json:"slots"`
}

// CropFitInput is the input schema for the crop_fit tool.
type CropFitInput struct {
	ImageWidth  int    `json:"image_width" jsonschema:"natural image width in pixels"`
	ImageHeight int    `json:"image_height" jsonschema:"natural image height in pixels"`
	Role        string `json:"role" jsonschema:"banner role: hero, hero-mobile, category or offer"`
}

// CropFitOutput is the output schema for the crop_fit tool.
type CropFitOutput struct {
	Role     string  `json:"role"`
	Ratio    string  `json:"ratio"`
	Policy   string  `json:"policy"`
	Viewport string  `json:"viewport"`
	Scale    float64 `json:"scale"`
	CSS      string  `json:"css"`
}

// emptyInput is the input schema for tools without arguments.
type emptyInput struct{}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search",
		Description: "Search the storefront catalogue: products, banners, offers, recommendations and categories",
	}, s.handleSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "index_refresh",
		Description: "Rebuild the search index from the store unless it was rebuilt moments ago",
	}, s.handleRefresh)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "crop_list",
		Description: "List banner slots that have a committed crop",
	}, s.handleCropList)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "crop_render",
		Description: "Resolve the committed crop of a banner slot into a CSS transform",
	}, s.handleCropRender)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "crop_fit",
		Description: "Compute the initial fit of an image for a banner role",
	}, s.handleCropFit)
}

// handleSearch handles the search tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	var filter domain.RecordType
	if input.Type != "" {
		filter = domain.RecordType(strings.ToLower(input.Type))
		if !filter.IsValid() {
			return nil, SearchOutput{}, fmt.Errorf("%w: record type %q", domain.ErrInvalidInput, input.Type)
		}
	}

	results, err := s.ports.Search.Search(ctx, input.Query, input.Limit)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	output := SearchOutput{Results: make([]SearchResultOutput, 0, len(results))}
	for i := range results {
		rec := results[i].Record
		if filter != "" && rec.Type != filter {
			continue
		}
		output.Results = append(output.Results, SearchResultOutput{
			ID:            rec.ID,
			Type:          rec.Type.String(),
			Name:          rec.Name,
			Description:   rec.Description,
			Category:      rec.Category,
			Price:         rec.Price,
			OriginalPrice: rec.OriginalPrice,
			Image:         rec.Image,
			ProductCount:  rec.ProductCount,
			Score:         results[i].Score,
		})
	}
	output.Count = len(output.Results)

	return nil, output, nil
}

func (s *Server) handleRefresh(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ emptyInput,
) (*mcp.CallToolResult, RefreshOutput, error) {
	rebuilt, err := s.ports.Search.Refresh(ctx)
	if err != nil {
		return nil, RefreshOutput{}, err
	}
	return nil, RefreshOutput{Rebuilt: rebuilt, Records: s.ports.Search.Stats().Records}, nil
}

func (s *Server) handleCropList(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ emptyInput,
) (*mcp.CallToolResult, CropListOutput, error) {
	if s.ports.Crop == nil {
		return nil, CropListOutput{}, ErrCropUnavailable
	}
	slots, err := s.ports.Crop.Slots(ctx)
	if err != nil {
		return nil, CropListOutput{}, err
	}
	return nil, CropListOutput{Slots: slots}, nil
}

func (s *Server) handleCropRender(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input CropRenderInput,
) (*mcp.CallToolResult, CropRenderOutput, error) {
	if s.ports.Crop == nil {
		return nil, CropRenderOutput{}, ErrCropUnavailable
	}
	render, err := s.ports.Crop.Render(ctx, input.Slot)
	if err != nil {
		return nil, CropRenderOutput{}, err
	}
	m := render.Metadata
	return nil, CropRenderOutput{
		Slot:        render.Slot,
		Src:         m.Src,
		Ratio:       m.Ratio,
		Scale:       m.Scale,
		TX:          m.TX,
		TY:          m.TY,
		CSS:         render.Render.CSS(),
		Placeholder: render.Placeholder,
		LoadError:   render.LoadError,
	}, nil
}

func (s *Server) handleCropFit(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input CropFitInput,
) (*mcp.CallToolResult, CropFitOutput, error) {
	if s.ports.Engine == nil {
		return nil, CropFitOutput{}, ErrCropUnavailable
	}
	role := domain.BannerRole(strings.ToLower(strings.TrimSpace(input.Role)))
	if !role.IsValid() {
		return nil, CropFitOutput{}, fmt.Errorf("%w: %q", domain.ErrUnknownRole, input.Role)
	}

	viewport, err := s.ports.Engine.ReferenceViewport(role.Ratio())
	if err != nil {
		return nil, CropFitOutput{}, err
	}
	image := domain.Size{Width: float64(input.ImageWidth), Height: float64(input.ImageHeight)}
	fit, err := s.ports.Engine.InitializeFit(image, viewport, role.Policy())
	if err != nil {
		return nil, CropFitOutput{}, err
	}

	render := s.ports.Engine.ComputeRenderTransform(domain.CropMetadata{Ratio: role.Ratio()}.WithTransform(fit))
	return nil, CropFitOutput{
		Role:     role.String(),
		Ratio:    role.Ratio(),
		Policy:   role.Policy().String(),
		Viewport: fmt.Sprintf("%.0fx%.0f", viewport.Width, viewport.Height),
		Scale:    fit.Scale,
		CSS:      render.CSS(),
	}, nil
}
