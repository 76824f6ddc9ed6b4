package autosign

import "math"

// Fields must stay large enough to be grabbed in the editor.
const (
	MinFieldWidth  = 0.05
	MinFieldHeight = 0.03
)

// Size of a freshly placed field, as a fraction of the rendered page.
const (
	DefaultSignatureFieldWidth = 0.20
	DefaultFieldWidth          = 0.15
	DefaultFieldHeight         = 0.05
)

// NormalizedRect is a rectangle expressed as fractions of the rendered page
// width and height, origin at the top-left.
type NormalizedRect struct {
	X      float64 `json:"x" form:"x"`
	Y      float64 `json:"y" form:"y"`
	Width  float64 `json:"width" form:"width"`
	Height float64 `json:"height" form:"height"`
}

// PageDimensions is the size of a page as currently rendered (pixels) or at
// scale 1 (PDF points).
type PageDimensions struct {
	Width  float64 `json:"width" form:"width" binding:"required,gt=0"`
	Height float64 `json:"height" form:"height" binding:"required,gt=0"`
}

func (d PageDimensions) Valid() bool {
	return d.Width > 0 && d.Height > 0
}

// PixelRect is a field rectangle in rendered page pixels, origin at the top-left.
type PixelRect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func ToPixelRect(r NormalizedRect, dims PageDimensions) PixelRect {
	return PixelRect{
		Left:   r.X * dims.Width,
		Top:    r.Y * dims.Height,
		Width:  r.Width * dims.Width,
		Height: r.Height * dims.Height,
	}
}

func FromPixelRect(p PixelRect, dims PageDimensions) NormalizedRect {
	if !dims.Valid() {
		return NormalizedRect{}
	}

	return NormalizedRect{
		X:      p.Left / dims.Width,
		Y:      p.Top / dims.Height,
		Width:  p.Width / dims.Width,
		Height: p.Height / dims.Height,
	}
}

// ToPdfPlacement resolves a field against the page size at scale 1.
// The returned rectangle is still measured from the top-left corner; use
// PdfOrigin to get the bottom-left draw origin.
func ToPdfPlacement(f SignatureField, pageSize PageDimensions) SignaturePlacement {
	return SignaturePlacement{
		PageIndex: f.Page - 1,
		X:         f.X * pageSize.Width,
		Y:         f.Y * pageSize.Height,
		Width:     f.Width * pageSize.Width,
		Height:    f.Height * pageSize.Height,
		Type:      f.Type,
	}
}

// PdfOrigin flips the y-axis: PDF user space starts at the bottom-left.
func PdfOrigin(p SignaturePlacement, pageHeight float64) (float64, float64) {
	return p.X, pageHeight - p.Y - p.Height
}

// NormalizeRotation maps any multiple of 90 into [0, 360).
func NormalizeRotation(rotation int) int {
	r := rotation % 360
	if r < 0 {
		r += 360
	}

	// snap to the nearest quarter turn
	return int(math.Round(float64(r)/90)) * 90 % 360
}

// RotatedPageSize returns the displayed page size for a page rotation.
// Placements are always resolved against the unrotated size.
func RotatedPageSize(dims PageDimensions, rotation int) PageDimensions {
	switch NormalizeRotation(rotation) {
	case 90, 270:
		return PageDimensions{Width: dims.Height, Height: dims.Width}
	default:
		return dims
	}
}

// ClampSize applies the minimum field floor. There is no upper clamp.
func ClampSize(width, height float64) (float64, float64) {
	return math.Max(MinFieldWidth, width), math.Max(MinFieldHeight, height)
}

// Drag moves the rectangle origin by a pixel delta.
func Drag(r NormalizedRect, dx, dy float64, dims PageDimensions) NormalizedRect {
	if !dims.Valid() {
		return r
	}

	r.X += dx / dims.Width
	r.Y += dy / dims.Height
	return r
}

// Resize grows or shrinks the rectangle by a pixel delta, respecting the floor.
func Resize(r NormalizedRect, dx, dy float64, dims PageDimensions) NormalizedRect {
	if !dims.Valid() {
		return r
	}

	r.Width, r.Height = ClampSize(r.Width+dx/dims.Width, r.Height+dy/dims.Height)
	return r
}

// DefaultRectAt centres a new field of the default size on a click point
// given in page pixels.
func DefaultRectAt(t FieldType, clickX, clickY float64, dims PageDimensions) NormalizedRect {
	width := DefaultFieldWidth
	if t == FieldTypeSignature {
		width = DefaultSignatureFieldWidth
	}

	if !dims.Valid() {
		return NormalizedRect{Width: width, Height: DefaultFieldHeight}
	}

	return NormalizedRect{
		X:      clickX/dims.Width - width/2,
		Y:      clickY/dims.Height - DefaultFieldHeight/2,
		Width:  width,
		Height: DefaultFieldHeight,
	}
}
