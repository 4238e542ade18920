package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			// a gradient plus a dark box, enough structure for every step
			v := uint8((x*255/w + y*255/h) / 2)
			if x > w/3 && x < 2*w/3 && y > h/3 && y < 2*h/3 {
				v = 20
			}
			img.Set(x, y, color.RGBA{R: v, G: v, B: v, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestGenerate_FullVariantSet(t *testing.T) {
	raw := testPNG(t, 24, 16)
	got := Generate(raw, slog.New(slog.DiscardHandler))

	require.Len(t, got, 5)
	tags := make([]string, 0, len(got))
	for _, v := range got {
		tags = append(tags, v.Tag)
		require.NotEmpty(t, v.Bytes, "variant %s has no bytes", v.Tag)
	}
	assert.Equal(t, []string{"raw", "gray", "hi_contrast", "binary", "denoise"}, tags)

	// raw passes through untouched, the rest decode as PNG
	assert.Equal(t, raw, got[0].Bytes)
	for _, v := range got[1:] {
		img, err := png.Decode(bytes.NewReader(v.Bytes))
		require.NoError(t, err, "variant %s", v.Tag)
		assert.Equal(t, image.Rect(0, 0, 24, 16), img.Bounds())
	}
}

func TestGenerate_UndecodableFallsBackToRawOnly(t *testing.T) {
	raw := []byte("not an image at all")
	got := Generate(raw, slog.New(slog.DiscardHandler))

	require.Len(t, got, 1)
	assert.Equal(t, "raw_only", got[0].Tag)
	assert.Equal(t, raw, got[0].Bytes)
}

func TestThreshold(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 3, 1))
	img.Pix = []byte{10, 140, 250}
	out := threshold(img, 140)
	assert.Equal(t, []byte{0, 255, 255}, out.Pix)
}

func TestNormalize_StretchesRange(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 3, 1))
	img.Pix = []byte{50, 100, 150}
	out := normalize(img)
	assert.Equal(t, uint8(0), out.Pix[0])
	assert.Equal(t, uint8(255), out.Pix[2])
}

func TestNormalize_FlatImageUnchanged(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 2, 2))
	img.Pix = []byte{77, 77, 77, 77}
	out := normalize(img)
	assert.Equal(t, []byte{77, 77, 77, 77}, out.Pix)
}

func TestLinear_Clamps(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 3, 1))
	img.Pix = []byte{0, 100, 250}
	out := linear(img, 1.2, -10)
	assert.Equal(t, []byte{0, 110, 255}, out.Pix)
}

func TestMedian3_RemovesSpeckle(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 3, 3))
	img.Pix = []byte{
		100, 100, 100,
		100, 255, 100, // lone bright pixel
		100, 100, 100,
	}
	out := median3(img)
	assert.Equal(t, uint8(100), out.Pix[1*out.Stride+1])
	// borders pass through
	assert.Equal(t, uint8(100), out.Pix[0])
}

func TestMedian3_TinyImagePassesThrough(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 2, 2))
	img.Pix = []byte{1, 2, 3, 4}
	out := median3(img)
	assert.Equal(t, img.Pix, out.Pix)
}
