// imageprocessor.go - Screenshot preparation before upload to the model

package processor

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/wilksmax/pokervision/configs"
	"github.com/wilksmax/pokervision/internal/ai"
	"github.com/wilksmax/pokervision/internal/common"
)

// PrepareScreenshot loads the saved upload and returns the bytes to send to
// the model. Oversized screenshots are downscaled to fit the configured
// dimension; color is preserved because suits are color-coded on most
// clients. Any preparation failure falls back to the raw file bytes.
func PrepareScreenshot(path string, reqCtx *common.RequestContext) (ai.Image, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return ai.Image{}, fmt.Errorf("failed to read upload: %w", err)
	}

	original := ai.Image{Data: raw, MIMEType: mimeTypeFor(path)}

	if !configs.ENABLE_IMAGE_PREPROCESSING {
		return original, nil
	}

	reqCtx.StartSubStep("Resizing screenshot")

	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		reqCtx.LogWarning("Could not decode screenshot for preprocessing, sending raw bytes: %v", err)
		reqCtx.EndSubStep("skipped")
		return original, nil
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	maxDim := configs.MAX_IMAGE_DIMENSION

	if width <= maxDim && height <= maxDim {
		reqCtx.EndSubStep(fmt.Sprintf("%dx%d, no resize needed", width, height))
		return original, nil
	}

	if width >= height {
		img = imaging.Resize(img, maxDim, 0, imaging.Lanczos)
	} else {
		img = imaging.Resize(img, 0, maxDim, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(90)); err != nil {
		reqCtx.LogWarning("Could not re-encode screenshot, sending raw bytes: %v", err)
		reqCtx.EndSubStep("skipped")
		return original, nil
	}

	resized := img.Bounds()
	reqCtx.EndSubStep(fmt.Sprintf("%dx%d -> %dx%d, %d KB -> %d KB",
		width, height, resized.Dx(), resized.Dy(), len(raw)/1024, buf.Len()/1024))

	return ai.Image{Data: buf.Bytes(), MIMEType: "image/jpeg"}, nil
}

func mimeTypeFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	default:
		return "image/jpeg"
	}
}
