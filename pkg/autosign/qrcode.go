package autosign

import (
	"fmt"

	"github.com/skip2/go-qrcode"
)

// GenerateQRCode returns a PNG of the link. 256 is plenty for a screen.
func GenerateQRCode(link string, size int) ([]byte, error) {
	png, err := qrcode.Encode(link, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("failed to generate QR code: %w", err)
	}
	return png, nil
}
