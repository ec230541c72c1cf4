package images

import (
	"bytes"
	"fmt"

	"github.com/disintegration/imaging"
)

const (
	// MaxThumbnailWidth and MaxThumbnailHeight bound stored previews to
	// gallery-card size. Larger inputs are fitted, never cropped.
	MaxThumbnailWidth  = 640
	MaxThumbnailHeight = 360

	thumbnailQuality = 85
)

// NormalizeThumbnail decodes a raster image and re-encodes it as a
// bounded JPEG so every stored preview shares one format regardless of
// what the browser captured.
func NormalizeThumbnail(data []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode thumbnail: %w", err)
	}

	bounds := img.Bounds()
	if bounds.Dx() > MaxThumbnailWidth || bounds.Dy() > MaxThumbnailHeight {
		img = imaging.Fit(img, MaxThumbnailWidth, MaxThumbnailHeight, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(thumbnailQuality)); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}
