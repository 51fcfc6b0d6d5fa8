package processor

import (
	"bytes"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wilksmax/pokervision/configs"
	"github.com/wilksmax/pokervision/internal/common"
)

func processorConfig(t *testing.T, preprocess bool, maxDim int) {
	t.Helper()
	prevPrep := configs.ENABLE_IMAGE_PREPROCESSING
	prevDim := configs.MAX_IMAGE_DIMENSION
	configs.ENABLE_IMAGE_PREPROCESSING = preprocess
	configs.MAX_IMAGE_DIMENSION = maxDim
	t.Cleanup(func() {
		configs.ENABLE_IMAGE_PREPROCESSING = prevPrep
		configs.MAX_IMAGE_DIMENSION = prevDim
	})
}

func writeTestImage(t *testing.T, width, height int) string {
	t.Helper()
	img := imaging.New(width, height, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	path := filepath.Join(t.TempDir(), "screenshot.png")
	require.NoError(t, imaging.Save(img, path))
	return path
}

func TestPrepareScreenshot_PreprocessingDisabled(t *testing.T) {
	processorConfig(t, false, 100)
	path := writeTestImage(t, 400, 300)

	img, err := PrepareScreenshot(path, common.NewRequestContext())
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.MIMEType)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(raw, img.Data))
}

func TestPrepareScreenshot_SmallImageNotResized(t *testing.T) {
	processorConfig(t, true, 1000)
	path := writeTestImage(t, 400, 300)

	img, err := PrepareScreenshot(path, common.NewRequestContext())
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.MIMEType)
}

func TestPrepareScreenshot_OversizedImageResized(t *testing.T) {
	processorConfig(t, true, 100)
	path := writeTestImage(t, 400, 300)

	img, err := PrepareScreenshot(path, common.NewRequestContext())
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", img.MIMEType)

	decoded, err := imaging.Decode(bytes.NewReader(img.Data))
	require.NoError(t, err)
	assert.Equal(t, 100, decoded.Bounds().Dx())
	assert.Equal(t, 75, decoded.Bounds().Dy())
}

func TestPrepareScreenshot_UndecodableFallsBackToRaw(t *testing.T) {
	processorConfig(t, true, 100)
	path := filepath.Join(t.TempDir(), "broken.jpg")
	require.NoError(t, os.WriteFile(path, []byte("not an image"), 0o644))

	img, err := PrepareScreenshot(path, common.NewRequestContext())
	require.NoError(t, err)
	assert.Equal(t, []byte("not an image"), img.Data)
	assert.Equal(t, "image/jpeg", img.MIMEType)
}

func TestPrepareScreenshot_MissingFile(t *testing.T) {
	processorConfig(t, false, 100)

	_, err := PrepareScreenshot(filepath.Join(t.TempDir(), "nope.png"), common.NewRequestContext())
	assert.Error(t, err)
}
