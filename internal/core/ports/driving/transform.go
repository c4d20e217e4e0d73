package driving

import "github.com/lynxlsy/GANGBOYZ-DEMO-sub002/internal/core/domain"

// TransformEngine is the pure crop geometry shared by editors and renderers.
type TransformEngine interface {
	// Settings returns the effective engine settings.
	Settings() domain.CropSettings

	// InitializeFit fits image into viewport under policy.
	InitializeFit(image, viewport domain.Size, policy domain.FitPolicy) (domain.Transform, error)

	// ApplyDrag moves cur by a pointer delta in container pixels.
	ApplyDrag(cur domain.Transform, dx, dy, containerWidth, containerHeight float64) domain.Transform

	// ApplyZoom applies one wheel notch to cur.
	ApplyZoom(cur domain.Transform, wheelDelta float64) domain.Transform

	// ComputeRenderTransform maps committed metadata to a render transform.
	ComputeRenderTransform(meta domain.CropMetadata) domain.RenderTransform

	// ReferenceViewport returns the viewport implied by a ratio label.
	ReferenceViewport(ratio string) (domain.Size, error)
}
