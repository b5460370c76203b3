// Package thumbnail downscales exported chat images so the JSONL
// archives stay small enough for embedding pipelines.
package thumbnail

import (
	"bytes"
	"encoding/base64"
	"fmt"

	"github.com/disintegration/imaging"
)

// JPEGBase64 decodes an image, fits it inside a maxDim square while
// keeping the aspect ratio, re-encodes it as JPEG at the given quality
// and returns the result base64-encoded. Images already smaller than
// maxDim are re-encoded but not enlarged.
func JPEGBase64(data []byte, maxDim, quality int) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("empty image data")
	}
	if maxDim <= 0 {
		return "", fmt.Errorf("invalid max dimension %d", maxDim)
	}
	if quality <= 0 || quality > 100 {
		return "", fmt.Errorf("invalid JPEG quality %d", quality)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("failed to decode image: %w", err)
	}

	fitted := imaging.Fit(img, maxDim, maxDim, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, fitted, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return "", fmt.Errorf("failed to encode thumbnail: %w", err)
	}

	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
