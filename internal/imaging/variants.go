package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"sort"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Variant is one preprocessed rendition of the input image, scoped to a
// single job execution.
type Variant struct {
	Tag   string
	Bytes []byte
}

const binarizeThreshold = 140

// Generate produces the fixed, ordered variant set for one input image:
// raw, gray, hi_contrast, binary, denoise. Preprocessing failures degrade to
// a single raw_only variant; the job is never failed here.
func Generate(raw []byte, logger *slog.Logger) []Variant {
	if logger == nil {
		logger = slog.Default()
	}
	src, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		logger.Warn("imaging.variants.decode_failed", "error", err)
		return []Variant{{Tag: "raw_only", Bytes: raw}}
	}

	gray := toGray(src)

	variants := []Variant{{Tag: "raw", Bytes: raw}}
	steps := []struct {
		tag   string
		build func() *image.Gray
	}{
		{"gray", func() *image.Gray { return normalize(cloneGray(gray)) }},
		{"hi_contrast", func() *image.Gray { return normalize(linear(cloneGray(gray), 1.2, -10)) }},
		{"binary", func() *image.Gray { return threshold(cloneGray(gray), binarizeThreshold) }},
		{"denoise", func() *image.Gray { return normalize(median3(gray)) }},
	}
	for _, s := range steps {
		b, err := encodePNG(s.build())
		if err != nil {
			logger.Warn("imaging.variants.encode_failed", "tag", s.tag, "error", err)
			return []Variant{{Tag: "raw_only", Bytes: raw}}
		}
		variants = append(variants, Variant{Tag: s.tag, Bytes: b})
	}
	return variants
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func toGray(src image.Image) *image.Gray {
	b := src.Bounds()
	dst := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			dst.Set(x-b.Min.X, y-b.Min.Y, color.GrayModel.Convert(src.At(x, y)))
		}
	}
	return dst
}

func cloneGray(src *image.Gray) *image.Gray {
	dst := image.NewGray(src.Bounds())
	copy(dst.Pix, src.Pix)
	return dst
}

// normalize stretches pixel values to the full 0..255 range.
func normalize(img *image.Gray) *image.Gray {
	lo, hi := uint8(255), uint8(0)
	for _, p := range img.Pix {
		if p < lo {
			lo = p
		}
		if p > hi {
			hi = p
		}
	}
	if hi <= lo {
		return img
	}
	span := float64(hi - lo)
	for i, p := range img.Pix {
		img.Pix[i] = uint8(float64(p-lo) / span * 255)
	}
	return img
}

// linear applies v*a+b per pixel, clamped to 0..255.
func linear(img *image.Gray, a, b float64) *image.Gray {
	for i, p := range img.Pix {
		v := float64(p)*a + b
		switch {
		case v < 0:
			v = 0
		case v > 255:
			v = 255
		}
		img.Pix[i] = uint8(v)
	}
	return img
}

func threshold(img *image.Gray, cut uint8) *image.Gray {
	for i, p := range img.Pix {
		if p >= cut {
			img.Pix[i] = 255
		} else {
			img.Pix[i] = 0
		}
	}
	return img
}

// median3 applies a 3x3 median filter. Border pixels are copied through.
func median3(src *image.Gray) *image.Gray {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := cloneGray(src)
	if w < 3 || h < 3 {
		return dst
	}
	window := make([]byte, 0, 9)
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			window = window[:0]
			for dy := -1; dy <= 1; dy++ {
				row := (y+dy)*src.Stride + x - 1
				window = append(window, src.Pix[row], src.Pix[row+1], src.Pix[row+2])
			}
			sort.Slice(window, func(i, j int) bool { return window[i] < window[j] })
			dst.Pix[y*dst.Stride+x] = window[4]
		}
	}
	return dst
}
