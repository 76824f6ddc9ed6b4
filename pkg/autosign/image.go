package autosign

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"math"

	"golang.org/x/image/draw"
)

var ErrUnsupportedImage = errors.New("unsupported signature image")

// Signature images are rasterized at twice the placement size and drawn at
// half scale so strokes stay sharp when the page is zoomed.
const imageOversampling = 2

// DecodeImage accepts PNG or JPEG bytes.
func DecodeImage(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}
	return img, nil
}

// ResizeImage stretches src to fill width x height points, oversampled.
func ResizeImage(src image.Image, width, height float64) ([]byte, error) {
	w := int(math.Round(width * imageOversampling))
	h := int(math.Round(height * imageOversampling))
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("invalid image size %.2fx%.2f", width, height)
	}

	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	return buf.Bytes(), nil
}
