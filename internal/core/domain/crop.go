package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// FitPolicy selects how an image is initially scaled into a viewport.
type FitPolicy string

// Available fit policies.
const (
	// FitContain shows the whole image, letterboxed when ratios differ.
	FitContain FitPolicy = "contain"

	// FitCover fills the whole viewport, cropping the excess.
	FitCover FitPolicy = "cover"
)

// IsValid returns true if the fit policy is recognised.
func (p FitPolicy) IsValid() bool {
	return p == FitContain || p == FitCover
}

// String returns the string representation.
func (p FitPolicy) String() string {
	return string(p)
}

// BannerRole identifies where a banner is displayed.
// The role fixes both the target aspect ratio and the fit policy.
type BannerRole string

// Known banner roles.
const (
	RoleHero       BannerRole = "hero"
	RoleHeroMobile BannerRole = "hero-mobile"
	RoleCategory   BannerRole = "category"
	RoleOffer      BannerRole = "offer"
)

type roleSpec struct {
	ratio  string
	policy FitPolicy
}

var roleSpecs = map[BannerRole]roleSpec{
	RoleHero:       {ratio: "1920x650", policy: FitCover},
	RoleHeroMobile: {ratio: "4:5", policy: FitCover},
	RoleCategory:   {ratio: "16:9", policy: FitContain},
	RoleOffer:      {ratio: "1:1", policy: FitContain},
}

// BannerRoles returns all known roles in display order.
func BannerRoles() []BannerRole {
	return []BannerRole{RoleHero, RoleHeroMobile, RoleCategory, RoleOffer}
}

// IsValid returns true if the role is recognised.
func (r BannerRole) IsValid() bool {
	_, ok := roleSpecs[r]
	return ok
}

// Ratio returns the aspect ratio label for the role.
func (r BannerRole) Ratio() string {
	return roleSpecs[r].ratio
}

// Policy returns the fit policy used when a slot of this role gets a new image.
func (r BannerRole) Policy() FitPolicy {
	return roleSpecs[r].policy
}

// String returns the string representation.
func (r BannerRole) String() string {
	return string(r)
}

// RoleForRatio returns the role whose ratio label is ratio. Labels are
// compared after lowercasing and trimming.
func RoleForRatio(ratio string) (BannerRole, bool) {
	ratio = strings.ToLower(strings.TrimSpace(ratio))
	for _, r := range BannerRoles() {
		if r.Ratio() == ratio {
			return r, true
		}
	}
	return "", false
}

// ParseRatio parses "1920x650" or "16:9" into its two components.
func ParseRatio(label string) (width, height float64, err error) {
	label = strings.TrimSpace(strings.ToLower(label))
	sep := "x"
	if strings.Contains(label, ":") {
		sep = ":"
	}
	parts := strings.Split(label, sep)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidRatio, label)
	}
	width, err = strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil || width <= 0 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidRatio, label)
	}
	height, err = strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil || height <= 0 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidRatio, label)
	}
	return width, height, nil
}

// Size is a width/height pair in pixels.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Valid returns true if both dimensions are positive and finite.
func (s Size) Valid() bool {
	return positive(s.Width) && positive(s.Height)
}

// ViewportForRatio returns a viewport of the given width with the ratio's height.
func ViewportForRatio(label string, width float64) (Size, error) {
	rw, rh, err := ParseRatio(label)
	if err != nil {
		return Size{}, err
	}
	return Size{Width: width, Height: width * rh / rw}, nil
}

// ImageInfo describes a loaded source image.
type ImageInfo struct {
	// Src is the image locator.
	Src string `json:"src"`

	// Width is the natural image width in pixels.
	Width int `json:"width"`

	// Height is the natural image height in pixels.
	Height int `json:"height"`

	// MimeType is the detected content type, when known.
	MimeType string `json:"mimeType,omitempty"`
}

// Size returns the natural dimensions as a Size.
func (i ImageInfo) Size() Size {
	return Size{Width: float64(i.Width), Height: float64(i.Height)}
}

// Transform is the editable {scale, tx, ty} triple.
// TX and TY are fractions of the viewport, not pixels.
type Transform struct {
	Scale float64 `json:"scale"`
	TX    float64 `json:"tx"`
	TY    float64 `json:"ty"`
}

// Equal reports whether two transforms are identical.
func (t Transform) Equal(o Transform) bool {
	return t.Scale == o.Scale && t.TX == o.TX && t.TY == o.TY
}

// CropMetadata is the persisted transform state for one banner slot.
type CropMetadata struct {
	Src       string    `json:"src"`
	Ratio     string    `json:"ratio"`
	Scale     float64   `json:"scale"`
	TX        float64   `json:"tx"`
	TY        float64   `json:"ty"`
	UpdatedAt time.Time `json:"updatedAt,omitzero"`
}

// Transform returns the editable part of the metadata.
func (m CropMetadata) Transform() Transform {
	return Transform{Scale: m.Scale, TX: m.TX, TY: m.TY}
}

// WithTransform returns a copy of m carrying t.
func (m CropMetadata) WithTransform(t Transform) CropMetadata {
	m.Scale = t.Scale
	m.TX = t.TX
	m.TY = t.TY
	return m
}

// Validate checks the metadata invariants against the translate bound.
func (m CropMetadata) Validate(bound float64) error {
	if strings.TrimSpace(m.Src) == "" {
		return fmt.Errorf("%w: src is required", ErrInvalidInput)
	}
	if _, _, err := ParseRatio(m.Ratio); err != nil {
		return err
	}
	if !positive(m.Scale) {
		return fmt.Errorf("%w: scale must be positive, got %v", ErrInvalidInput, m.Scale)
	}
	if math.IsNaN(m.TX) || math.Abs(m.TX) > bound {
		return fmt.Errorf("%w: tx %v outside [-%v, %v]", ErrInvalidInput, m.TX, bound, bound)
	}
	if math.IsNaN(m.TY) || math.Abs(m.TY) > bound {
		return fmt.Errorf("%w: ty %v outside [-%v, %v]", ErrInvalidInput, m.TY, bound, bound)
	}
	return nil
}

// RenderTransform is the composed translate-then-scale transform anchored
// at the viewport centre.
type RenderTransform struct {
	// TranslateX is the horizontal shift as a percentage of the viewport width.
	TranslateX float64 `json:"translateX"`

	// TranslateY is the vertical shift as a percentage of the viewport height.
	TranslateY float64 `json:"translateY"`

	// Scale is the zoom factor about the viewport centre.
	Scale float64 `json:"scale"`
}

// CSS returns the transform as a CSS transform value.
// It assumes transform-origin: center.
func (r RenderTransform) CSS() string {
	return fmt.Sprintf("translate(%.2f%%, %.2f%%) scale(%.4f)", r.TranslateX, r.TranslateY, r.Scale)
}

// Matrix returns the pixel-space affine [a b c d e f] for a viewport,
// mapping (x, y) to (a*x + c*y + e, b*x + d*y + f).
func (r RenderTransform) Matrix(viewport Size) [6]float64 {
	cx := viewport.Width / 2
	cy := viewport.Height / 2
	return [6]float64{
		r.Scale, 0,
		0, r.Scale,
		cx*(1-r.Scale) + r.TranslateX/100*viewport.Width,
		cy*(1-r.Scale) + r.TranslateY/100*viewport.Height,
	}
}

// Apply maps a point in viewport pixel space through the transform.
func (r RenderTransform) Apply(x, y float64, viewport Size) (float64, float64) {
	m := r.Matrix(viewport)
	return m[0]*x + m[2]*y + m[4], m[1]*x + m[3]*y + m[5]
}

// ImageBounds returns the rectangle an image of natural size image covers
// in viewport pixels. The untransformed image is centred in the viewport.
func (r RenderTransform) ImageBounds(image, viewport Size) (x0, y0, x1, y1 float64) {
	left := (viewport.Width - image.Width) / 2
	top := (viewport.Height - image.Height) / 2
	x0, y0 = r.Apply(left, top, viewport)
	x1, y1 = r.Apply(left+image.Width, top+image.Height, viewport)
	return x0, y0, x1, y1
}

// SlotRender is what a renderer needs to draw one banner slot.
type SlotRender struct {
	Slot     string          `json:"slot"`
	Metadata CropMetadata    `json:"metadata"`
	Render   RenderTransform `json:"render"`
	Image    *ImageInfo      `json:"image,omitempty"`

	// Placeholder is true when the image could not be loaded.
	// The committed metadata is still returned unchanged.
	Placeholder bool   `json:"placeholder"`
	LoadError   string `json:"loadError,omitempty"`
}

// UploadResult is returned by the upload endpoint.
type UploadResult struct {
	URL      string `json:"url"`
	MimeType string `json:"mimeType"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Size     int64  `json:"size"`
}

// ImageInfo converts the upload result to image info.
func (u UploadResult) ImageInfo() ImageInfo {
	return ImageInfo{Src: u.URL, Width: u.Width, Height: u.Height, MimeType: u.MimeType}
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}
