package driven

import (
	"context"
	"io"

	"github.com/lynxlsy/GANGBOYZ-DEMO-sub002/internal/core/domain"
)

// Uploader is the image upload endpoint.
type Uploader interface {
	// Upload stores the payload and returns its locator and image metadata.
	// Oversized payloads fail with domain.ErrFileTooLarge and non-image
	// payloads with domain.ErrUnsupportedType.
	Upload(ctx context.Context, filename string, r io.Reader) (domain.UploadResult, error)
}

// ImageProber resolves an image locator to its natural dimensions.
type ImageProber interface {
	Probe(ctx context.Context, src string) (domain.ImageInfo, error)
}
