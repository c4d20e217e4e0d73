package services

import (
	"fmt"
	"math"

	"github.com/lynxlsy/GANGBOYZ-DEMO-sub002/internal/core/domain"
	"github.com/lynxlsy/GANGBOYZ-DEMO-sub002/internal/core/ports/driving"
)

// Ensure TransformEngine implements the interface.
var _ driving.TransformEngine = (*TransformEngine)(nil)

// TransformEngine computes fits, drags, zooms and render transforms.
// Editors and renderers must share one engine configuration so a crop
// authored in one reproduces identically in the other.
type TransformEngine struct {
	settings domain.CropSettings
}

// NewTransformEngine creates an engine. Zero-valued fields fall back to
// the defaults.
func NewTransformEngine(settings domain.CropSettings) *TransformEngine {
	defaults := domain.DefaultCropSettings()
	if settings.TranslatePercent <= 0 {
		settings.TranslatePercent = defaults.TranslatePercent
	}
	if settings.MinScale <= 0 {
		settings.MinScale = defaults.MinScale
	}
	if settings.MaxScale < settings.MinScale {
		settings.MaxScale = defaults.MaxScale
	}
	if settings.ZoomStep <= 0 {
		settings.ZoomStep = defaults.ZoomStep
	}
	if settings.TranslateBound <= 0 {
		settings.TranslateBound = defaults.TranslateBound
	}
	if settings.KeyPrefix == "" {
		settings.KeyPrefix = defaults.KeyPrefix
	}
	return &TransformEngine{settings: settings}
}

// Settings returns the effective engine settings.
func (e *TransformEngine) Settings() domain.CropSettings {
	return e.settings
}

// InitializeFit scales image into viewport. Contain keeps the whole image
// visible; cover fills the viewport. Translation starts at zero.
func (e *TransformEngine) InitializeFit(
	image, viewport domain.Size, policy domain.FitPolicy,
) (domain.Transform, error) {
	if !image.Valid() || !viewport.Valid() {
		return domain.Transform{}, fmt.Errorf("%w: image %vx%v, viewport %vx%v",
			domain.ErrInvalidInput, image.Width, image.Height, viewport.Width, viewport.Height)
	}

	wr := viewport.Width / image.Width
	hr := viewport.Height / image.Height

	var scale float64
	switch policy {
	case domain.FitContain:
		scale = math.Min(wr, hr)
	case domain.FitCover:
		scale = math.Max(wr, hr)
	default:
		return domain.Transform{}, fmt.Errorf("%w: fit policy %q", domain.ErrInvalidInput, policy)
	}

	return domain.Transform{Scale: scale}, nil
}

// ApplyDrag moves the image by a pointer delta measured in container pixels.
// Scale is unchanged and tx/ty are clamped to the translate bound.
func (e *TransformEngine) ApplyDrag(
	cur domain.Transform, dx, dy, containerWidth, containerHeight float64,
) domain.Transform {
	if containerWidth <= 0 || containerHeight <= 0 || !finite(dx) || !finite(dy) {
		return cur
	}
	sens := e.settings.DragSensitivity()
	bound := e.settings.TranslateBound
	cur.TX = clamp(cur.TX+dx/containerWidth*sens, -bound, bound)
	cur.TY = clamp(cur.TY+dy/containerHeight*sens, -bound, bound)
	return cur
}

// ApplyZoom applies one wheel notch. A negative delta (wheel up) zooms in,
// a positive delta zooms out and zero is a no-op. The scale is clamped to
// [MinScale, MaxScale] but never moves against the wheel: zooming in on an
// oversized fit leaves it unchanged.
func (e *TransformEngine) ApplyZoom(cur domain.Transform, wheelDelta float64) domain.Transform {
	if wheelDelta == 0 || !finite(wheelDelta) {
		return cur
	}
	step := e.settings.ZoomStep
	if wheelDelta > 0 {
		step = -step
	}
	next := clamp(cur.Scale+step, e.settings.MinScale, e.settings.MaxScale)
	if (step > 0 && next < cur.Scale) || (step < 0 && next > cur.Scale) {
		return cur
	}
	cur.Scale = round4(next)
	return cur
}

// ComputeRenderTransform translates by (tx*K)% and (ty*K)% of the viewport
// then scales, both about the viewport centre.
func (e *TransformEngine) ComputeRenderTransform(meta domain.CropMetadata) domain.RenderTransform {
	k := e.settings.TranslatePercent
	return domain.RenderTransform{
		TranslateX: meta.TX * k,
		TranslateY: meta.TY * k,
		Scale:      meta.Scale,
	}
}

// ReferenceViewport returns the viewport a ratio label implies when the
// caller has none. Pixel labels such as "1920x650" are used as-is; small
// labels such as "16:9" are scaled to a 1920 pixel width.
func ReferenceViewport(ratio string) (domain.Size, error) {
	w, h, err := domain.ParseRatio(ratio)
	if err != nil {
		return domain.Size{}, err
	}
	if w >= 100 {
		return domain.Size{Width: w, Height: h}, nil
	}
	return domain.ViewportForRatio(ratio, 1920)
}

// ReferenceViewport implements driving.TransformEngine.
func (e *TransformEngine) ReferenceViewport(ratio string) (domain.Size, error) {
	return ReferenceViewport(ratio)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round4(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
